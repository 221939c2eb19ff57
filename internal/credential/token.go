package credential

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stitchhire/candidate-directory/backend/internal/apperr"
	"github.com/stitchhire/candidate-directory/backend/internal/domain"
)

// SchemeSigned 标记由本服务自签发的 token。部署中只接受这一种方案，
// 由外部身份提供方签发的 token 即使签名算法相同也会因为 scheme/issuer 不符而被拒绝。
const SchemeSigned = "signed"

var signingMethod = jwt.SigningMethodHS256

type TokenVerifier interface {
	Issue(identity domain.Identity, ttl time.Duration) (string, *domain.Identity, error)
	Verify(token string) (*domain.Identity, error)
}

type AuthClaims struct {
	Email  string `json:"email"`
	Tenant string `json:"tenant"`
	Scheme string `json:"scheme"`
	jwt.RegisteredClaims
}

type SignedTokenVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

var _ TokenVerifier = (*SignedTokenVerifier)(nil)

type Option func(*SignedTokenVerifier)

// WithClock 替换当前时间来源，测试使用
func WithClock(now func() time.Time) Option {
	return func(v *SignedTokenVerifier) {
		v.now = now
	}
}

func NewSignedTokenVerifier(secret, issuer string, opts ...Option) (*SignedTokenVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if issuer == "" {
		return nil, fmt.Errorf("jwt issuer is required")
	}

	v := &SignedTokenVerifier{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

func (v *SignedTokenVerifier) Issue(identity domain.Identity, ttl time.Duration) (string, *domain.Identity, error) {
	if ttl <= 0 {
		return "", nil, fmt.Errorf("token ttl must be positive")
	}

	now := v.now()
	identity.UnifiedID = domain.UnifiedID(identity.Tenant, identity.UserID)
	identity.IssuedAt = now.Truncate(time.Second)
	identity.ExpiresAt = now.Add(ttl).Truncate(time.Second)

	claims := AuthClaims{
		Email:  identity.Email,
		Tenant: string(identity.Tenant),
		Scheme: SchemeSigned,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   identity.UnifiedID,
			ExpiresAt: jwt.NewNumericDate(identity.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(identity.IssuedAt),
			NotBefore: jwt.NewNumericDate(identity.IssuedAt),
			ID:        uuid.NewString(),
		},
	}

	ss, err := jwt.NewWithClaims(signingMethod, claims).SignedString(v.secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing jwt: %w", err)
	}

	return ss, &identity, nil
}

func (v *SignedTokenVerifier) Verify(token string) (*domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.New(apperr.CodeMissingToken, "missing token")
	}

	claims := &AuthClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidToken, "invalid token", err)
	}

	if claims.Scheme != SchemeSigned {
		return nil, apperr.New(apperr.CodeInvalidToken, "unsupported token scheme")
	}

	tenant, err := domain.ParseTenantID(claims.Tenant)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidToken, "invalid token tenant", err)
	}

	userID, err := parseSubject(tenant, claims.Subject)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidToken, "invalid token subject", err)
	}

	identity := &domain.Identity{
		UnifiedID: claims.Subject,
		UserID:    userID,
		Email:     claims.Email,
		Tenant:    tenant,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	return identity, nil
}

// subject 的格式是 "<tenant>:<user id>"，tenant 必须和 claim 中的一致
func parseSubject(tenant domain.TenantID, subject string) (int64, error) {
	prefix, idPart, ok := strings.Cut(subject, ":")
	if !ok || prefix != string(tenant) {
		return 0, fmt.Errorf("subject %q does not match tenant %q", subject, tenant)
	}
	return strconv.ParseInt(idPart, 10, 64)
}
