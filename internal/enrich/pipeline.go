package enrich

import (
	"context"
	"time"

	"github.com/stitchhire/candidate-directory/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Geocoder 查询失败时必须返回 nil，而不是错误
type Geocoder interface {
	Lookup(ctx context.Context, postcode string) *domain.GeoResult
}

type Pipeline struct {
	geocoder     Geocoder
	callTimeout  time.Duration
	batchTimeout time.Duration
	concurrency  int
}

type Config struct {
	CallTimeout  time.Duration
	BatchTimeout time.Duration
	Concurrency  int
}

func NewPipeline(geocoder Geocoder, cfg Config) *Pipeline {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 2 * time.Second
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 5 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Pipeline{
		geocoder:     geocoder,
		callTimeout:  cfg.CallTimeout,
		batchTimeout: cfg.BatchTimeout,
		concurrency:  cfg.Concurrency,
	}
}

// Enrich 为每个有邮编的候选人附加坐标和 district。
// 每个候选人的查询相互独立并发执行，结果写回各自的位置，因此输出顺序与输入一致。
// 单个查询失败或超时只会让该记录没有坐标，不会影响整批。
func (p *Pipeline) Enrich(ctx context.Context, candidates []domain.UnifiedCandidate, postcodeByCandidateID map[string]string) []domain.UnifiedCandidate {
	postcodes := make([]string, len(candidates))
	for i, c := range candidates {
		postcodes[i] = postcodeByCandidateID[c.CandidateID]
	}
	return p.EnrichAt(ctx, candidates, postcodes)
}

// EnrichAt 与 Enrich 相同，但 postcodes[i] 对应 candidates[i]。
// 跨 tenant 的批次中 candidateId 可能重复，因此按位置对应。
// 整批共用一个 batchTimeout。
func (p *Pipeline) EnrichAt(ctx context.Context, candidates []domain.UnifiedCandidate, postcodes []string) []domain.UnifiedCandidate {
	out := make([]domain.UnifiedCandidate, len(candidates))
	copy(out, candidates)

	batchCtx, cancel := context.WithTimeout(ctx, p.batchTimeout)
	defer cancel()

	g := &errgroup.Group{}
	g.SetLimit(p.concurrency)

	for i := range out {
		if i >= len(postcodes) {
			break
		}
		postcode := domain.NormalizePostcode(postcodes[i])
		if postcode == "" {
			continue
		}

		g.Go(func() error {
			out[i] = out[i].WithGeo(p.lookup(batchCtx, postcode))
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// lookup 在超时后立即返回 nil，不等待不响应 ctx 的实现
func (p *Pipeline) lookup(ctx context.Context, postcode string) *domain.GeoResult {
	if ctx.Err() != nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	result := make(chan *domain.GeoResult, 1)
	go func() {
		result <- p.geocoder.Lookup(callCtx, postcode)
	}()

	select {
	case geo := <-result:
		return geo
	case <-callCtx.Done():
		return nil
	}
}
