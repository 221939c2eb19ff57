package repofake

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/stitchhire/candidate-directory/backend/internal/apperr"
	"github.com/stitchhire/candidate-directory/backend/internal/domain"
	"github.com/stitchhire/candidate-directory/backend/internal/repository"
)

var _ repository.TenantStore = (*FakeTenantStore)(nil)

type fakeUser struct {
	profile      domain.Profile
	passwordHash string
}

// FakeTenantStore 是内存版的 tenant 存储，供测试使用
type FakeTenantStore struct {
	tenant     domain.TenantID
	idColumn   string
	users      map[string]*fakeUser
	candidates []domain.RawCandidate
	postcodes  map[string]string
	nextID     int64
	lock       sync.RWMutex

	// Unavailable 为 true 时所有操作都返回 UPSTREAM_UNAVAILABLE
	Unavailable bool
	// TouchErr 不为 nil 时 TouchLastLogin 返回该错误
	TouchErr error
	Lookups  int
}

func NewFakeTenantStore(tenant domain.TenantID) *FakeTenantStore {
	return &FakeTenantStore{
		tenant:    tenant,
		idColumn:  repository.SchemaFor(tenant).CandidateIDColumn,
		users:     make(map[string]*fakeUser),
		postcodes: make(map[string]string),
	}
}

func (s *FakeTenantStore) Tenant() domain.TenantID {
	return s.tenant
}

func (s *FakeTenantStore) down() error {
	if s.Unavailable {
		return apperr.Wrap(apperr.CodeUpstreamUnavailable, string(s.tenant)+" store unavailable", errors.New("connection refused"))
	}
	return nil
}

func notFound(what string) error {
	return apperr.New(apperr.CodeNotFound, what+" not found")
}

// AddUser 写入一个账户，passwordHash 需要调用方预先计算
func (s *FakeTenantStore) AddUser(email, passwordHash string, active bool) *domain.Profile {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.nextID++
	now := time.Now().UTC()
	u := &fakeUser{
		profile: domain.Profile{
			ID:          s.nextID,
			Tenant:      s.tenant,
			Email:       domain.NormalizeEmail(email),
			CandidateID: string(s.tenant[:1]) + "-" + strconv.FormatInt(s.nextID, 10),
			FullName:    "Test User",
			IsActive:    active,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		passwordHash: passwordHash,
	}
	s.users[u.profile.Email] = u

	profile := u.profile
	return &profile
}

func (s *FakeTenantStore) PasswordHash(email string) string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if u, ok := s.users[domain.NormalizeEmail(email)]; ok {
		return u.passwordHash
	}
	return ""
}

func (s *FakeTenantStore) AddCandidate(raw domain.RawCandidate, postcode string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.candidates = append(s.candidates, raw)
	if postcode != "" {
		if id, ok := raw[s.idColumn].(string); ok {
			s.postcodes[id] = postcode
		}
	}
}

func (s *FakeTenantStore) FindActiveCredential(_ context.Context, email string) (*domain.Credential, error) {
	if err := s.down(); err != nil {
		return nil, err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.Lookups++

	u, ok := s.users[domain.NormalizeEmail(email)]
	if !ok || !u.profile.IsActive {
		return nil, notFound("credential")
	}
	return &domain.Credential{
		UserID:       u.profile.ID,
		Email:        u.profile.Email,
		PasswordHash: u.passwordHash,
		IsActive:     u.profile.IsActive,
		LastLoginAt:  u.profile.LastLoginAt,
	}, nil
}

func (s *FakeTenantStore) FindProfileByEmail(_ context.Context, email string) (*domain.Profile, error) {
	if err := s.down(); err != nil {
		return nil, err
	}
	s.lock.RLock()
	defer s.lock.RUnlock()

	u, ok := s.users[domain.NormalizeEmail(email)]
	if !ok {
		return nil, notFound("profile")
	}
	profile := u.profile
	return &profile, nil
}

func (s *FakeTenantStore) UpdateProfile(_ context.Context, email string, update domain.ProfileUpdate) (*domain.Profile, error) {
	if err := s.down(); err != nil {
		return nil, err
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	u, ok := s.users[domain.NormalizeEmail(email)]
	if !ok {
		return nil, notFound("profile")
	}
	if update.FullName != nil {
		u.profile.FullName = *update.FullName
	}
	if update.Phone != nil {
		u.profile.Phone = *update.Phone
	}
	u.profile.UpdatedAt = time.Now().UTC()
	profile := u.profile
	return &profile, nil
}

func (s *FakeTenantStore) UpdatePasswordHash(_ context.Context, email string, passwordHash string) error {
	if err := s.down(); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	u, ok := s.users[domain.NormalizeEmail(email)]
	if !ok {
		return notFound("credential")
	}
	u.passwordHash = passwordHash
	return nil
}

func (s *FakeTenantStore) TouchLastLogin(_ context.Context, email string, at time.Time) error {
	if err := s.down(); err != nil {
		return err
	}
	if s.TouchErr != nil {
		return s.TouchErr
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	if u, ok := s.users[domain.NormalizeEmail(email)]; ok {
		u.profile.LastLoginAt = &at
	}
	return nil
}

func (s *FakeTenantStore) ListActiveCandidates(_ context.Context) ([]domain.RawCandidate, error) {
	if err := s.down(); err != nil {
		return nil, err
	}
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make([]domain.RawCandidate, len(s.candidates))
	copy(out, s.candidates)
	return out, nil
}

func (s *FakeTenantStore) FindCandidate(_ context.Context, candidateID string) (domain.RawCandidate, error) {
	if err := s.down(); err != nil {
		return nil, err
	}
	s.lock.RLock()
	defer s.lock.RUnlock()

	for _, raw := range s.candidates {
		if id, ok := raw[s.idColumn].(string); ok && id == candidateID {
			return raw, nil
		}
	}
	return nil, notFound("candidate")
}

func (s *FakeTenantStore) PostcodesByCandidateID(_ context.Context, candidateIDs []string) (map[string]string, error) {
	if err := s.down(); err != nil {
		return nil, err
	}
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make(map[string]string, len(candidateIDs))
	for _, id := range candidateIDs {
		if pc, ok := s.postcodes[id]; ok {
			out[id] = pc
		}
	}
	return out, nil
}
