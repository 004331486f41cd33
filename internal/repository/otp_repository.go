package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnstack/api/internal/models"
)

var ErrOtpNotFound = errors.New("otp not found")

type OtpRepository struct {
	pool *pgxpool.Pool
}

func NewOtpRepository(pool *pgxpool.Pool) *OtpRepository {
	return &OtpRepository{pool: pool}
}

// Upsert keeps at most one row per (user, purpose): regenerating a
// code overwrites the hash and expiry, invalidating any unused code.
func (r *OtpRepository) Upsert(ctx context.Context, otp models.Otp) (models.Otp, error) {
	const query = `
		INSERT INTO otps (
			user_id, purpose, code_hash, expires_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, NOW(), NOW()
		)
		ON CONFLICT (user_id, purpose)
		DO UPDATE SET
			code_hash = EXCLUDED.code_hash,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
		RETURNING id, user_id, purpose, code_hash, expires_at, created_at, updated_at
	`

	row := r.pool.QueryRow(ctx, query, otp.UserID, otp.Purpose, otp.CodeHash, otp.ExpiresAt)
	return scanOtp(row)
}

func (r *OtpRepository) GetByUserAndPurpose(ctx context.Context, userID int64, purpose models.OtpPurpose) (models.Otp, error) {
	const query = `
		SELECT id, user_id, purpose, code_hash, expires_at, created_at, updated_at
		FROM otps
		WHERE user_id = $1 AND purpose = $2
	`
	return scanOtp(r.pool.QueryRow(ctx, query, userID, purpose))
}

func (r *OtpRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM otps WHERE expires_at < $1`
	cmd, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanOtp(row pgx.Row) (models.Otp, error) {
	var otp models.Otp
	if err := row.Scan(
		&otp.ID,
		&otp.UserID,
		&otp.Purpose,
		&otp.CodeHash,
		&otp.ExpiresAt,
		&otp.CreatedAt,
		&otp.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Otp{}, ErrOtpNotFound
		}
		return models.Otp{}, err
	}
	return otp, nil
}
