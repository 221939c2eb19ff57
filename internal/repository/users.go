package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/stitchhire/candidate-directory/backend/internal/domain"
)

const profileColumns = `id, email, candidate_id, full_name, phone, is_active, last_login_at, created_at, updated_at`

func (r *Repository) scanProfile(row interface{ Scan(...any) error }) (*domain.Profile, error) {
	profile := &domain.Profile{Tenant: r.schema.Tenant}

	var lastLogin *time.Time
	dst := []any{&profile.ID, &profile.Email, &profile.CandidateID, &profile.FullName, &profile.Phone, &profile.IsActive, &lastLogin, &profile.CreatedAt, &profile.UpdatedAt}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	profile.LastLoginAt = lastLogin

	return profile, nil
}

func (r *Repository) FindActiveCredential(ctx context.Context, email string) (*domain.Credential, error) {
	query := fmt.Sprintf(`
		SELECT id, email, password_hash, is_active, last_login_at
		FROM %s WHERE lower(email) = $1 AND is_active = true
	`, r.schema.UsersTable)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	cred := &domain.Credential{}
	dst := []any{&cred.UserID, &cred.Email, &cred.PasswordHash, &cred.IsActive, &cred.LastLoginAt}
	if err := r.dbpool.QueryRowContext(ctx, query, domain.NormalizeEmail(email)).Scan(dst...); err != nil {
		return nil, r.translateError(err, "credential")
	}

	return cred, nil
}

func (r *Repository) FindProfileByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE lower(email) = $1`, profileColumns, r.schema.UsersTable)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	profile, err := r.scanProfile(r.dbpool.QueryRowContext(ctx, query, domain.NormalizeEmail(email)))
	if err != nil {
		return nil, r.translateError(err, "profile")
	}

	return profile, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, email string, update domain.ProfileUpdate) (*domain.Profile, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET
			full_name = COALESCE($1, full_name),
			phone = COALESCE($2, phone),
			updated_at = now()
		WHERE lower(email) = $3
		RETURNING %s
	`, r.schema.UsersTable, profileColumns)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{update.FullName, update.Phone, domain.NormalizeEmail(email)}
	profile, err := r.scanProfile(r.dbpool.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, r.translateError(err, "profile")
	}

	return profile, nil
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, email string, passwordHash string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET password_hash = $1, updated_at = now()
		WHERE lower(email) = $2
		RETURNING id
	`, r.schema.UsersTable)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	var id int64
	if err := r.dbpool.QueryRowContext(ctx, query, passwordHash, domain.NormalizeEmail(email)).Scan(&id); err != nil {
		return r.translateError(err, "credential")
	}

	return nil
}

func (r *Repository) TouchLastLogin(ctx context.Context, email string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET last_login_at = $1 WHERE lower(email) = $2`, r.schema.UsersTable)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, at, domain.NormalizeEmail(email)); err != nil {
		return r.translateError(err, "credential")
	}

	return nil
}

func (r *Repository) CreateUser(ctx context.Context, user *domain.NewUser) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (email, password_hash, candidate_id, full_name, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, r.schema.UsersTable)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	var id int64
	args := []any{domain.NormalizeEmail(user.Email), user.PasswordHash, user.CandidateID, user.FullName, user.Phone}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}

	return id, nil
}
