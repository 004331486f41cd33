package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnstack/api/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

const sessionColumns = `
	id, user_id, secret_hash, platform, is_revoked, revoked_at,
	last_activity_at, expires_at, created_at
`

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func scanSession(row pgx.Row) (models.RefreshSession, error) {
	var session models.RefreshSession
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.SecretHash,
		&session.Platform,
		&session.IsRevoked,
		&session.RevokedAt,
		&session.LastActivityAt,
		&session.ExpiresAt,
		&session.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RefreshSession{}, ErrSessionNotFound
		}
		return models.RefreshSession{}, err
	}
	return session, nil
}

func (r *SessionRepository) Create(ctx context.Context, session models.RefreshSession) (models.RefreshSession, error) {
	const query = `
		INSERT INTO refresh_sessions (
			user_id, secret_hash, platform, is_revoked,
			last_activity_at, expires_at, created_at
		) VALUES (
			$1, $2, $3, FALSE, $4, $5, NOW()
		)
		RETURNING ` + sessionColumns

	row := r.pool.QueryRow(ctx, query,
		session.UserID,
		session.SecretHash,
		session.Platform,
		session.LastActivityAt,
		session.ExpiresAt,
	)
	return scanSession(row)
}

func (r *SessionRepository) GetByID(ctx context.Context, id int64) (models.RefreshSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM refresh_sessions WHERE id = $1`
	return scanSession(r.pool.QueryRow(ctx, query, id))
}

// FindLiveByHash matches non-revoked rows only; expiry is the caller's
// concern so expired rows can be reported as expired, not missing.
func (r *SessionRepository) FindLiveByHash(ctx context.Context, secretHash []byte) (models.RefreshSession, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM refresh_sessions
		WHERE secret_hash = $1 AND is_revoked = FALSE
	`
	return scanSession(r.pool.QueryRow(ctx, query, secretHash))
}

func (r *SessionRepository) Revoke(ctx context.Context, id int64, at time.Time) error {
	const query = `
		UPDATE refresh_sessions
		SET is_revoked = TRUE, revoked_at = $2
		WHERE id = $1 AND is_revoked = FALSE
	`
	_, err := r.pool.Exec(ctx, query, id, at)
	return err
}

func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID int64, at time.Time) error {
	const query = `
		UPDATE refresh_sessions
		SET is_revoked = TRUE, revoked_at = $2
		WHERE user_id = $1 AND is_revoked = FALSE
	`
	_, err := r.pool.Exec(ctx, query, userID, at)
	return err
}

func (r *SessionRepository) UpdateActivity(ctx context.Context, id int64, at time.Time) error {
	const query = `UPDATE refresh_sessions SET last_activity_at = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, at)
	return err
}

// ListLive returns every non-revoked session that has not yet expired.
func (r *SessionRepository) ListLive(ctx context.Context, now time.Time) ([]models.RefreshSession, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM refresh_sessions
		WHERE is_revoked = FALSE AND expires_at > $1
	`
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

func (r *SessionRepository) ListLiveByUser(ctx context.Context, userID int64, now time.Time) ([]models.RefreshSession, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM refresh_sessions
		WHERE user_id = $1 AND is_revoked = FALSE AND expires_at > $2
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

func collectSessions(rows pgx.Rows) ([]models.RefreshSession, error) {
	var sessions []models.RefreshSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}
