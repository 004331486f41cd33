package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnstack/api/internal/models"
)

var ErrResetTokenNotFound = errors.New("reset token not found")

type ResetTokenRepository struct {
	pool *pgxpool.Pool
}

func NewResetTokenRepository(pool *pgxpool.Pool) *ResetTokenRepository {
	return &ResetTokenRepository{pool: pool}
}

func (r *ResetTokenRepository) Create(ctx context.Context, token models.PasswordResetToken) (models.PasswordResetToken, error) {
	const query = `
		INSERT INTO password_reset_tokens (
			user_id, token_hash, expires_at, is_used, created_at
		) VALUES (
			$1, $2, $3, FALSE, NOW()
		)
		RETURNING id, user_id, token_hash, expires_at, is_used, used_at, created_at
	`
	row := r.pool.QueryRow(ctx, query, token.UserID, token.TokenHash, token.ExpiresAt)
	return scanResetToken(row)
}

// FindUnusedByHash returns the token row whether or not it has
// expired; the service distinguishes expired from missing.
func (r *ResetTokenRepository) FindUnusedByHash(ctx context.Context, tokenHash []byte) (models.PasswordResetToken, error) {
	const query = `
		SELECT id, user_id, token_hash, expires_at, is_used, used_at, created_at
		FROM password_reset_tokens
		WHERE token_hash = $1 AND is_used = FALSE
	`
	return scanResetToken(r.pool.QueryRow(ctx, query, tokenHash))
}

func (r *ResetTokenRepository) MarkUsed(ctx context.Context, id int64, at time.Time) error {
	const query = `
		UPDATE password_reset_tokens
		SET is_used = TRUE, used_at = $2
		WHERE id = $1 AND is_used = FALSE
	`
	cmd, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrResetTokenNotFound
	}
	return nil
}

func (r *ResetTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM password_reset_tokens WHERE expires_at < $1 OR is_used = TRUE`
	cmd, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanResetToken(row pgx.Row) (models.PasswordResetToken, error) {
	var token models.PasswordResetToken
	if err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.IsUsed,
		&token.UsedAt,
		&token.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PasswordResetToken{}, ErrResetTokenNotFound
		}
		return models.PasswordResetToken{}, err
	}
	return token, nil
}
