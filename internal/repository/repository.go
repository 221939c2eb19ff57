package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stitchhire/candidate-directory/backend/internal/apperr"
	"github.com/stitchhire/candidate-directory/backend/internal/config"
	"github.com/stitchhire/candidate-directory/backend/internal/domain"
)

type CredentialStore interface {
	// FindActiveCredential 只在 is_active = true 的账户中查找
	FindActiveCredential(ctx context.Context, email string) (*domain.Credential, error)
	FindProfileByEmail(ctx context.Context, email string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, email string, update domain.ProfileUpdate) (*domain.Profile, error)
	UpdatePasswordHash(ctx context.Context, email string, passwordHash string) error
	TouchLastLogin(ctx context.Context, email string, at time.Time) error
}

type CandidateStore interface {
	ListActiveCandidates(ctx context.Context) ([]domain.RawCandidate, error)
	FindCandidate(ctx context.Context, candidateID string) (domain.RawCandidate, error)
	// PostcodesByCandidateID 读取受限的邮编表，结果只能交给 enrichment 使用
	PostcodesByCandidateID(ctx context.Context, candidateIDs []string) (map[string]string, error)
}

// TenantStore 是单个 tenant 后端存储的抽象，sewing 和 upholstery 各一个实例
type TenantStore interface {
	Tenant() domain.TenantID
	CredentialStore
	CandidateStore
}

// Schema 描述某个 tenant 的表名，表名只来自下面的常量
type Schema struct {
	Tenant            domain.TenantID
	UsersTable        string
	CandidatesTable   string
	CandidateIDColumn string
	PostcodesTable    string
}

var (
	SewingSchema = Schema{
		Tenant:            domain.TenantSewing,
		UsersTable:        "users",
		CandidatesTable:   "sewing_candidates",
		CandidateIDColumn: "candidate_id",
		PostcodesTable:    "candidate_postcodes",
	}
	UpholsterySchema = Schema{
		Tenant:            domain.TenantUpholstery,
		UsersTable:        "users",
		CandidatesTable:   "upholstery_candidates",
		CandidateIDColumn: "candidate_ref",
		PostcodesTable:    "candidate_postcodes",
	}
)

func SchemaFor(tenant domain.TenantID) Schema {
	if tenant == domain.TenantUpholstery {
		return UpholsterySchema
	}
	return SewingSchema
}

type Repository struct {
	cfg    *config.Config
	schema Schema
	dbpool *sql.DB
}

var _ TenantStore = (*Repository)(nil)

func NewRepository(cfg *config.Config, schema Schema, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		schema: schema,
		dbpool: dbpool,
	}
}

func (r *Repository) Tenant() domain.TenantID {
	return r.schema.Tenant
}

func (r *Repository) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

// translateError 把驱动层错误归类：没有数据是 NOT_FOUND，数据库返回的语句错误是内部错误，
// 其余（连接失败、超时）都视为上游不可用
func (r *Repository) translateError(err error, what string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperr.Wrap(apperr.CodeNotFound, what+" not found", err)
	case errors.As(err, &pgErr):
		return apperr.Wrap(apperr.CodeInternal, string(r.schema.Tenant)+" "+what+" query failed", err)
	default:
		return apperr.Wrap(apperr.CodeUpstreamUnavailable, string(r.schema.Tenant)+" store unavailable", err)
	}
}
