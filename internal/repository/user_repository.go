package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnstack/api/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `
	id, email, country_code, mobile, password_hash, role,
	is_mobile_verified, is_email_verified, is_signup_complete,
	active, last_login_at, deleted_at, created_at, updated_at
`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.CountryCode,
		&user.Mobile,
		&user.PasswordHash,
		&user.Role,
		&user.IsMobileVerified,
		&user.IsEmailVerified,
		&user.IsSignupComplete,
		&user.Active,
		&user.LastLoginAt,
		&user.DeletedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (
			email, country_code, mobile, password_hash, role,
			is_mobile_verified, is_email_verified, is_signup_complete,
			active, last_login_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
		)
		RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query,
		user.Email,
		user.CountryCode,
		user.Mobile,
		user.PasswordHash,
		user.Role,
		user.IsMobileVerified,
		user.IsEmailVerified,
		user.IsSignupComplete,
		user.Active,
		user.LastLoginAt,
	)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// FindByMobile matches on the combined country code + national number.
func (r *UserRepository) FindByMobile(ctx context.Context, fullMobile string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE COALESCE(country_code, '') || COALESCE(mobile, '') = $1 AND deleted_at IS NULL
	`
	return scanUser(r.pool.QueryRow(ctx, query, fullMobile))
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id int64, hash []byte) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id, hash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	const query = `UPDATE users SET last_login_at = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateVerification persists the verification flags and the derived
// signup-complete flag in one write.
func (r *UserRepository) UpdateVerification(ctx context.Context, id int64, mobileVerified, emailVerified, signupComplete bool) error {
	const query = `
		UPDATE users
		SET is_mobile_verified = $2,
		    is_email_verified = $3,
		    is_signup_complete = $4,
		    updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, mobileVerified, emailVerified, signupComplete)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
