package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stitchhire/candidate-directory/backend/internal/apperr"
	"github.com/stitchhire/candidate-directory/backend/internal/credential"
	"github.com/stitchhire/candidate-directory/backend/internal/domain"
	"github.com/stitchhire/candidate-directory/backend/internal/repository"
)

// lastLoginTimeout 限制登录时间戳写入的耗时，这一步失败不影响登录结果
const lastLoginTimeout = 3 * time.Second

// Notifier 发送账户相关的通知，失败只记录日志
type Notifier interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}

type LoginResult struct {
	Token    string          `json:"token"`
	Identity domain.Identity `json:"identity"`
}

// Resolver 按固定的优先级在多个 tenant 中解析登录凭据
type Resolver struct {
	stores   []repository.TenantStore
	byTenant map[domain.TenantID]repository.TenantStore
	hasher   *credential.PasswordHasher
	tokens   credential.TokenVerifier
	tokenTTL time.Duration
	notifier Notifier
	now      func() time.Time
}

type Options struct {
	TokenTTL time.Duration
	Notifier Notifier
	Now      func() time.Time
}

// NewResolver 中 stores 的顺序就是登录时的尝试顺序
func NewResolver(stores []repository.TenantStore, hasher *credential.PasswordHasher, tokens credential.TokenVerifier, opts Options) (*Resolver, error) {
	if len(stores) == 0 {
		return nil, fmt.Errorf("at least one tenant store is required")
	}

	byTenant := make(map[domain.TenantID]repository.TenantStore, len(stores))
	for _, store := range stores {
		if _, dup := byTenant[store.Tenant()]; dup {
			return nil, fmt.Errorf("duplicate tenant store %q", store.Tenant())
		}
		byTenant[store.Tenant()] = store
	}

	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Resolver{
		stores:   stores,
		byTenant: byTenant,
		hasher:   hasher,
		tokens:   tokens,
		tokenTTL: opts.TokenTTL,
		notifier: opts.Notifier,
		now:      opts.Now,
	}, nil
}

func invalidCredentials() error {
	return apperr.New(apperr.CodeInvalidCredentials, "invalid email or password")
}

// Login 依次尝试每个 tenant，直到某个 tenant 的有效账户密码匹配。
// 某个 tenant 中账户不存在、未激活或密码错误都不会阻止继续检查下一个 tenant。
func (r *Resolver) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.New(apperr.CodeValidation, "email and password are required")
	}

	var unavailable []error
	for _, store := range r.stores {
		cred, err := store.FindActiveCredential(ctx, email)
		if err != nil {
			switch apperr.CodeOf(err) {
			case apperr.CodeNotFound:
				r.hasher.VerifyDummy(password)
			default:
				slog.Warn("tenant 查询失败", "tenant", store.Tenant(), "error", err)
				unavailable = append(unavailable, err)
			}
			continue
		}

		if !r.hasher.Verify(password, cred.PasswordHash) {
			continue
		}

		return r.completeLogin(ctx, store, cred)
	}

	// 没有任何 tenant 匹配，但有 tenant 无法访问时不能断定凭据错误
	if len(unavailable) > 0 {
		return nil, apperr.Wrap(apperr.CodeUpstreamUnavailable, "credential stores unavailable", unavailable[0])
	}

	return nil, invalidCredentials()
}

func (r *Resolver) completeLogin(ctx context.Context, store repository.TenantStore, cred *domain.Credential) (*LoginResult, error) {
	now := r.now()

	touchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lastLoginTimeout)
	defer cancel()
	if err := store.TouchLastLogin(touchCtx, cred.Email, now); err != nil {
		slog.Warn("无法更新最后登录时间", "tenant", store.Tenant(), "error", err)
	}

	token, identity, err := r.tokens.Issue(domain.Identity{
		UserID: cred.UserID,
		Email:  cred.Email,
		Tenant: store.Tenant(),
	}, r.tokenTTL)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "issue token", err)
	}

	return &LoginResult{Token: token, Identity: *identity}, nil
}

// Authenticate 校验 token 并返回其中的身份
func (r *Resolver) Authenticate(token string) (*domain.Identity, error) {
	return r.tokens.Verify(token)
}

func (r *Resolver) storeFor(identity *domain.Identity) (repository.TenantStore, error) {
	store, ok := r.byTenant[identity.Tenant]
	if !ok {
		return nil, apperr.New(apperr.CodeInvalidToken, "unknown tenant")
	}
	return store, nil
}

func (r *Resolver) GetProfile(ctx context.Context, identity *domain.Identity) (*domain.Profile, error) {
	store, err := r.storeFor(identity)
	if err != nil {
		return nil, err
	}
	return store.FindProfileByEmail(ctx, identity.Email)
}

func (r *Resolver) UpdateProfile(ctx context.Context, identity *domain.Identity, update domain.ProfileUpdate) (*domain.Profile, error) {
	store, err := r.storeFor(identity)
	if err != nil {
		return nil, err
	}

	if update.FullName != nil {
		name := strings.TrimSpace(*update.FullName)
		if name == "" {
			return nil, apperr.New(apperr.CodeValidation, "fullName cannot be empty")
		}
		update.FullName = &name
	}
	if update.Phone != nil {
		phone := strings.TrimSpace(*update.Phone)
		update.Phone = &phone
	}

	return store.UpdateProfile(ctx, identity.Email, update)
}

// ChangePassword 只有在当前密码正确时才写入新密码
func (r *Resolver) ChangePassword(ctx context.Context, identity *domain.Identity, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperr.New(apperr.CodeValidation, "currentPassword and newPassword are required")
	}

	store, err := r.storeFor(identity)
	if err != nil {
		return err
	}

	cred, err := store.FindActiveCredential(ctx, identity.Email)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return invalidCredentials()
		}
		return err
	}

	if !r.hasher.Verify(currentPassword, cred.PasswordHash) {
		return invalidCredentials()
	}

	hash, err := r.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "hash password", err)
	}

	if err := store.UpdatePasswordHash(ctx, identity.Email, hash); err != nil {
		return err
	}

	r.notifyPasswordChanged(ctx, store, identity)
	return nil
}

func (r *Resolver) notifyPasswordChanged(ctx context.Context, store repository.TenantStore, identity *domain.Identity) {
	if r.notifier == nil {
		return
	}

	fullName := ""
	if profile, err := store.FindProfileByEmail(ctx, identity.Email); err == nil {
		fullName = profile.FullName
	}

	msg := domain.MailMessage{
		Type: domain.MailTypePasswordChanged,
		To:   identity.Email,
		Data: domain.PasswordChangedMailData{
			FullName:  fullName,
			Tenant:    string(identity.Tenant),
			ChangedAt: r.now().UTC().Format(time.RFC1123),
		},
	}
	if err := r.notifier.Publish(context.WithoutCancel(ctx), msg); err != nil {
		slog.Warn("无法发送密码修改通知", "tenant", identity.Tenant, "error", err)
	}
}
