package directory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stitchhire/candidate-directory/backend/internal/apperr"
	"github.com/stitchhire/candidate-directory/backend/internal/domain"
	"github.com/stitchhire/candidate-directory/backend/internal/enrich"
	"github.com/stitchhire/candidate-directory/backend/internal/normalizer"
	"github.com/stitchhire/candidate-directory/backend/internal/repository"
)

// Service 负责候选人查询：tenant 存储 -> normalizer -> enrichment
type Service struct {
	order    []domain.TenantID
	stores   map[domain.TenantID]repository.CandidateStore
	pipeline *enrich.Pipeline
}

func NewService(stores []repository.TenantStore, pipeline *enrich.Pipeline) *Service {
	s := &Service{
		stores:   make(map[domain.TenantID]repository.CandidateStore, len(stores)),
		pipeline: pipeline,
	}
	for _, store := range stores {
		s.order = append(s.order, store.Tenant())
		s.stores[store.Tenant()] = store
	}
	return s
}

func (s *Service) storeFor(tenant domain.TenantID) (repository.CandidateStore, error) {
	store, ok := s.stores[tenant]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("unknown tenant %q", tenant))
	}
	return store, nil
}

// load 读取并规范化某个 tenant 的候选人，同时返回按位置对应的邮编
func (s *Service) load(ctx context.Context, tenant domain.TenantID) ([]domain.UnifiedCandidate, []string, error) {
	store, err := s.storeFor(tenant)
	if err != nil {
		return nil, nil, err
	}

	raws, err := store.ListActiveCandidates(ctx)
	if err != nil {
		return nil, nil, err
	}

	candidates, err := normalizer.NormalizeAll(tenant, raws)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.CodeInternal, "normalize candidates", err)
	}

	return candidates, s.postcodes(ctx, tenant, store, candidates), nil
}

func (s *Service) List(ctx context.Context, tenant domain.TenantID) ([]domain.UnifiedCandidate, error) {
	candidates, postcodes, err := s.load(ctx, tenant)
	if err != nil {
		return nil, err
	}

	return s.pipeline.EnrichAt(ctx, candidates, postcodes), nil
}

// ListAll 按 tenant 顺序拼接所有 tenant 的候选人，整个请求只做一次 enrichment，
// 所有 tenant 共用同一个超时
func (s *Service) ListAll(ctx context.Context) ([]domain.UnifiedCandidate, error) {
	all := make([]domain.UnifiedCandidate, 0)
	allPostcodes := make([]string, 0)
	for _, tenant := range s.order {
		candidates, postcodes, err := s.load(ctx, tenant)
		if err != nil {
			return nil, err
		}
		all = append(all, candidates...)
		allPostcodes = append(allPostcodes, postcodes...)
	}

	return s.pipeline.EnrichAt(ctx, all, allPostcodes), nil
}

func (s *Service) Get(ctx context.Context, tenant domain.TenantID, candidateID string) (*domain.UnifiedCandidate, error) {
	store, err := s.storeFor(tenant)
	if err != nil {
		return nil, err
	}

	raw, err := store.FindCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	candidate, err := normalizer.Normalize(tenant, raw)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "normalize candidate", err)
	}

	candidates := []domain.UnifiedCandidate{candidate}
	enriched := s.pipeline.EnrichAt(ctx, candidates, s.postcodes(ctx, tenant, store, candidates))
	return &enriched[0], nil
}

// postcodes 读取受限的邮编表，postcodes[i] 对应 candidates[i]。
// 邮编表读取失败时返回空邮编，候选人不附加坐标
func (s *Service) postcodes(ctx context.Context, tenant domain.TenantID, store repository.CandidateStore, candidates []domain.UnifiedCandidate) []string {
	out := make([]string, len(candidates))
	if len(candidates) == 0 {
		return out
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.CandidateID != "" {
			ids = append(ids, c.CandidateID)
		}
	}

	byID, err := store.PostcodesByCandidateID(ctx, ids)
	if err != nil {
		slog.Warn("无法读取邮编", "tenant", tenant, "error", err)
		return out
	}

	for i, c := range candidates {
		out[i] = byID[c.CandidateID]
	}
	return out
}
