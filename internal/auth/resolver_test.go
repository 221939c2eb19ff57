package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stitchhire/candidate-directory/backend/internal/apperr"
	"github.com/stitchhire/candidate-directory/backend/internal/auth"
	"github.com/stitchhire/candidate-directory/backend/internal/credential"
	"github.com/stitchhire/candidate-directory/backend/internal/domain"
	"github.com/stitchhire/candidate-directory/backend/internal/repository"
	"github.com/stitchhire/candidate-directory/backend/internal/repository/repofake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "password123"

type testFixture struct {
	sewing     *repofake.FakeTenantStore
	upholstery *repofake.FakeTenantStore
	hasher     *credential.PasswordHasher
	tokens     *credential.SignedTokenVerifier
	notifier   *recordingNotifier
	resolver   *auth.Resolver
}

type recordingNotifier struct {
	lock     sync.Mutex
	messages []domain.MailMessage
	err      error
}

func (n *recordingNotifier) Publish(_ context.Context, msg domain.MailMessage) error {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.messages = append(n.messages, msg)
	return n.err
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	hasher, err := credential.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := credential.NewSignedTokenVerifier("secret", "test")
	require.NoError(t, err)

	f := &testFixture{
		sewing:     repofake.NewFakeTenantStore(domain.TenantSewing),
		upholstery: repofake.NewFakeTenantStore(domain.TenantUpholstery),
		hasher:     hasher,
		tokens:     tokens,
		notifier:   &recordingNotifier{},
	}

	f.resolver, err = auth.NewResolver(
		[]repository.TenantStore{f.sewing, f.upholstery},
		hasher,
		tokens,
		auth.Options{TokenTTL: time.Hour, Notifier: f.notifier},
	)
	require.NoError(t, err)

	return f
}

func (f *testFixture) hash(t *testing.T, password string) string {
	t.Helper()
	h, err := f.hasher.Hash(password)
	require.NoError(t, err)
	return h
}

func TestLoginResolvesTenantThatHoldsTheAccount(t *testing.T) {
	f := setupTestFixture(t)
	f.upholstery.AddUser("ada@example.com", f.hash(t, testPassword), true)

	res, err := f.resolver.Login(context.Background(), "Ada@Example.com ", testPassword)
	require.NoError(t, err)
	assert.Equal(t, domain.TenantUpholstery, res.Identity.Tenant)
	assert.Equal(t, "ada@example.com", res.Identity.Email)
	assert.NotEmpty(t, res.Token)

	identity, err := f.resolver.Authenticate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.TenantUpholstery, identity.Tenant)
	assert.Equal(t, res.Identity.UnifiedID, identity.UnifiedID)

	profile, err := f.upholstery.FindProfileByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.NotNil(t, profile.LastLoginAt)
}

func TestLoginPrefersSewingWhenBothMatch(t *testing.T) {
	f := setupTestFixture(t)
	f.sewing.AddUser("both@example.com", f.hash(t, testPassword), true)
	f.upholstery.AddUser("both@example.com", f.hash(t, testPassword), true)

	res, err := f.resolver.Login(context.Background(), "both@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, domain.TenantSewing, res.Identity.Tenant)
	assert.Equal(t, 0, f.upholstery.Lookups)
}

func TestLoginContinuesPastWrongPasswordAndInactiveAccounts(t *testing.T) {
	t.Run("wrong password in first tenant", func(t *testing.T) {
		f := setupTestFixture(t)
		f.sewing.AddUser("sam@example.com", f.hash(t, "something-else"), true)
		f.upholstery.AddUser("sam@example.com", f.hash(t, testPassword), true)

		res, err := f.resolver.Login(context.Background(), "sam@example.com", testPassword)
		require.NoError(t, err)
		assert.Equal(t, domain.TenantUpholstery, res.Identity.Tenant)
	})

	t.Run("inactive in first tenant", func(t *testing.T) {
		f := setupTestFixture(t)
		f.sewing.AddUser("sam@example.com", f.hash(t, testPassword), false)
		f.upholstery.AddUser("sam@example.com", f.hash(t, testPassword), true)

		res, err := f.resolver.Login(context.Background(), "sam@example.com", testPassword)
		require.NoError(t, err)
		assert.Equal(t, domain.TenantUpholstery, res.Identity.Tenant)
	})
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := setupTestFixture(t)
	f.sewing.AddUser("known@example.com", f.hash(t, testPassword), true)
	f.upholstery.AddUser("inactive@example.com", f.hash(t, testPassword), false)

	attempts := []struct {
		email    string
		password string
	}{
		{"unknown@example.com", testPassword},
		{"known@example.com", "wrong-password"},
		{"inactive@example.com", testPassword},
	}

	var outcomes []string
	for _, a := range attempts {
		res, err := f.resolver.Login(context.Background(), a.email, a.password)
		require.Nil(t, res)
		require.Error(t, err)

		typed := apperr.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, apperr.CodeInvalidCredentials, typed.Code())
		outcomes = append(outcomes, typed.Error()+"|"+typed.PublicMessage())
	}

	for _, o := range outcomes[1:] {
		assert.Equal(t, outcomes[0], o)
	}
}

func TestLoginValidatesInputBeforeTouchingStores(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.resolver.Login(context.Background(), "", testPassword)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	_, err = f.resolver.Login(context.Background(), "a@example.com", "")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	assert.Equal(t, 0, f.sewing.Lookups)
	assert.Equal(t, 0, f.upholstery.Lookups)
}

func TestLoginSurfacesUnavailableStores(t *testing.T) {
	t.Run("both tenants down", func(t *testing.T) {
		f := setupTestFixture(t)
		f.sewing.Unavailable = true
		f.upholstery.Unavailable = true

		_, err := f.resolver.Login(context.Background(), "a@example.com", testPassword)
		assert.Equal(t, apperr.CodeUpstreamUnavailable, apperr.CodeOf(err))
	})

	t.Run("first tenant down, second matches", func(t *testing.T) {
		f := setupTestFixture(t)
		f.sewing.Unavailable = true
		f.upholstery.AddUser("a@example.com", f.hash(t, testPassword), true)

		res, err := f.resolver.Login(context.Background(), "a@example.com", testPassword)
		require.NoError(t, err)
		assert.Equal(t, domain.TenantUpholstery, res.Identity.Tenant)
	})

	t.Run("one tenant down, no match elsewhere", func(t *testing.T) {
		f := setupTestFixture(t)
		f.upholstery.Unavailable = true

		_, err := f.resolver.Login(context.Background(), "a@example.com", testPassword)
		assert.Equal(t, apperr.CodeUpstreamUnavailable, apperr.CodeOf(err))
	})
}

func TestLoginSucceedsWhenLastLoginUpdateFails(t *testing.T) {
	f := setupTestFixture(t)
	f.sewing.AddUser("a@example.com", f.hash(t, testPassword), true)
	f.sewing.TouchErr = errors.New("write timeout")

	res, err := f.resolver.Login(context.Background(), "a@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, domain.TenantSewing, res.Identity.Tenant)
}

func TestGetProfile(t *testing.T) {
	f := setupTestFixture(t)
	f.sewing.AddUser("a@example.com", f.hash(t, testPassword), true)

	res, err := f.resolver.Login(context.Background(), "a@example.com", testPassword)
	require.NoError(t, err)

	profile, err := f.resolver.GetProfile(context.Background(), &res.Identity)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", profile.Email)
	assert.Equal(t, domain.TenantSewing, profile.Tenant)

	missing := &domain.Identity{Email: "gone@example.com", Tenant: domain.TenantUpholstery}
	_, err = f.resolver.GetProfile(context.Background(), missing)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestUpdateProfile(t *testing.T) {
	f := setupTestFixture(t)
	f.sewing.AddUser("a@example.com", f.hash(t, testPassword), true)
	identity := &domain.Identity{Email: "a@example.com", Tenant: domain.TenantSewing}

	name := "  Ada Lovelace "
	profile, err := f.resolver.UpdateProfile(context.Background(), identity, domain.ProfileUpdate{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", profile.FullName)

	blank := "   "
	_, err = f.resolver.UpdateProfile(context.Background(), identity, domain.ProfileUpdate{FullName: &blank})
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestChangePassword(t *testing.T) {
	f := setupTestFixture(t)
	f.upholstery.AddUser("a@example.com", f.hash(t, testPassword), true)
	identity := &domain.Identity{Email: "a@example.com", Tenant: domain.TenantUpholstery}

	before := f.upholstery.PasswordHash("a@example.com")

	err := f.resolver.ChangePassword(context.Background(), identity, "wrong-current", "new-password-1")
	assert.Equal(t, apperr.CodeInvalidCredentials, apperr.CodeOf(err))
	assert.Equal(t, before, f.upholstery.PasswordHash("a@example.com"))
	assert.Empty(t, f.notifier.messages)

	err = f.resolver.ChangePassword(context.Background(), identity, testPassword, "new-password-1")
	require.NoError(t, err)
	after := f.upholstery.PasswordHash("a@example.com")
	assert.NotEqual(t, before, after)
	assert.True(t, f.hasher.Verify("new-password-1", after))

	require.Len(t, f.notifier.messages, 1)
	assert.Equal(t, domain.MailTypePasswordChanged, f.notifier.messages[0].Type)
	assert.Equal(t, "a@example.com", f.notifier.messages[0].To)

	_, err = f.resolver.Login(context.Background(), "a@example.com", testPassword)
	assert.Equal(t, apperr.CodeInvalidCredentials, apperr.CodeOf(err))
	_, err = f.resolver.Login(context.Background(), "a@example.com", "new-password-1")
	assert.NoError(t, err)
}

func TestChangePasswordIgnoresNotifierFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.sewing.AddUser("a@example.com", f.hash(t, testPassword), true)
	f.notifier.err = errors.New("channel closed")
	identity := &domain.Identity{Email: "a@example.com", Tenant: domain.TenantSewing}

	require.NoError(t, f.resolver.ChangePassword(context.Background(), identity, testPassword, "another-one"))
}

func TestNewResolverRejectsDuplicateTenants(t *testing.T) {
	f := setupTestFixture(t)
	_, err := auth.NewResolver(
		[]repository.TenantStore{f.sewing, repofake.NewFakeTenantStore(domain.TenantSewing)},
		f.hasher, f.tokens, auth.Options{},
	)
	assert.Error(t, err)

	_, err = auth.NewResolver(nil, f.hasher, f.tokens, auth.Options{})
	assert.Error(t, err)
}
