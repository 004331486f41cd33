package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"learnstack/api/internal/config"
	"learnstack/api/internal/errs"
	"learnstack/api/internal/models"
	"learnstack/api/internal/repository"
	"learnstack/api/internal/security"
)

// SessionManager owns the refresh-session lifecycle: issuing
// access/refresh pairs, rotation, revocation, heartbeats, and the
// active/inactive stats partition.
type SessionManager struct {
	users    UserStore
	sessions SessionStore
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewSessionManager(users UserStore, sessions SessionStore, cfg *config.AppConfig, log zerolog.Logger) *SessionManager {
	return &SessionManager{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
	}
}

// TokenPair is handed to the client once. The refresh secret is not
// retrievable again; only its hash is stored.
type TokenPair struct {
	AccessToken   string
	RefreshSecret string
	ExpiresIn     int64
}

// Issue creates a new refresh session for the user and signs a
// matching access token.
func (m *SessionManager) Issue(ctx context.Context, user models.User, platform models.Platform) (TokenPair, error) {
	rawSecret, secretHash, err := security.GenerateRefreshSecret(48)
	if err != nil {
		return TokenPair{}, err
	}

	now := time.Now()
	if err := m.evictOverCap(ctx, user.ID, now); err != nil {
		return TokenPair{}, err
	}

	session, err := m.sessions.Create(ctx, models.RefreshSession{
		UserID:         user.ID,
		SecretHash:     secretHash,
		Platform:       platform,
		LastActivityAt: &now,
		ExpiresAt:      now.Add(m.cfg.Security.RefreshTokenTTL),
	})
	if err != nil {
		return TokenPair{}, err
	}

	accessToken, err := security.GenerateAccessToken(m.cfg.Security.JWTSigningSecret, security.AccessClaims{
		UserID:    user.ID,
		SessionID: session.ID,
		Email:     user.EmailOrEmpty(),
		Mobile:    user.FullMobile(),
		Role:      string(user.Role),
		LoginID:   user.LoginID(),
	}, m.cfg.Security.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:   accessToken,
		RefreshSecret: rawSecret,
		ExpiresIn:     int64(m.cfg.Security.AccessTokenTTL.Seconds()),
	}, nil
}

// evictOverCap revokes the stalest live sessions so a new issue never
// pushes the user past the configured per-user cap.
func (m *SessionManager) evictOverCap(ctx context.Context, userID int64, now time.Time) error {
	limit := m.cfg.Security.MaxSessions
	if limit <= 0 {
		return nil
	}

	live, err := m.sessions.ListLiveByUser(ctx, userID, now)
	if err != nil {
		return err
	}
	if len(live) < limit {
		return nil
	}

	sort.Slice(live, func(i, j int) bool {
		return live[i].LastSeen().Before(live[j].LastSeen())
	})
	for _, session := range live[:len(live)-limit+1] {
		if err := m.sessions.Revoke(ctx, session.ID, now); err != nil {
			return err
		}
		m.log.Info().Int64("user_id", userID).Int64("session_id", session.ID).Msg("session evicted over cap")
	}
	return nil
}

// Rotate exchanges a still-valid refresh secret for a brand-new
// session. The presented session is deliberately left un-revoked; it
// stays usable until its own expiry so concurrent tabs and briefly
// offline clients can refresh independently.
func (m *SessionManager) Rotate(ctx context.Context, rawSecret string, platformOverride models.Platform) (TokenPair, error) {
	session, err := m.Resolve(ctx, rawSecret)
	if err != nil {
		return TokenPair{}, err
	}

	user, err := m.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return TokenPair{}, errs.InvalidToken("refresh token is invalid")
		}
		return TokenPair{}, err
	}

	platform := session.Platform
	if platformOverride != "" {
		platform = platformOverride
	}

	return m.Issue(ctx, user, platform)
}

// Resolve looks up the live session backing a raw refresh secret.
func (m *SessionManager) Resolve(ctx context.Context, rawSecret string) (models.RefreshSession, error) {
	session, err := m.sessions.FindLiveByHash(ctx, security.HashSecret(rawSecret))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return models.RefreshSession{}, errs.InvalidToken("refresh token is invalid")
		}
		return models.RefreshSession{}, err
	}
	if session.Expired(time.Now()) {
		return models.RefreshSession{}, errs.Expired("refresh token has expired")
	}
	return session, nil
}

// Revoke marks the session behind rawSecret revoked. Unknown secrets
// are a no-op.
func (m *SessionManager) Revoke(ctx context.Context, rawSecret string) error {
	session, err := m.sessions.FindLiveByHash(ctx, security.HashSecret(rawSecret))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	return m.sessions.Revoke(ctx, session.ID, time.Now())
}

// RevokeByID revokes one of the user's own sessions.
func (m *SessionManager) RevokeByID(ctx context.Context, userID, sessionID int64) error {
	session, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return errs.NotFound("session not found")
		}
		return err
	}
	if session.UserID != userID {
		return errs.NotFound("session not found")
	}
	return m.sessions.Revoke(ctx, session.ID, time.Now())
}

func (m *SessionManager) RevokeAll(ctx context.Context, userID int64) error {
	return m.sessions.RevokeAllForUser(ctx, userID, time.Now())
}

// VerifyAccessToken checks signature and expiry. Every failure mode
// collapses into a single invalid-token error so callers cannot probe
// for the cause.
func (m *SessionManager) VerifyAccessToken(token string) (*security.AccessClaims, error) {
	claims, err := security.ParseAccessToken(token, m.cfg.Security.JWTSigningSecret)
	if err != nil {
		return nil, errs.InvalidToken("access token is invalid")
	}
	return claims, nil
}

// RecordActivity is the heartbeat write. It only touches the row when
// the current value is missing or older than the throttle window, to
// bound write volume under frequent client pings.
func (m *SessionManager) RecordActivity(ctx context.Context, sessionID int64) error {
	session, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	if session.IsRevoked {
		return nil
	}

	now := time.Now()
	if session.LastActivityAt != nil && now.Sub(*session.LastActivityAt) < m.cfg.Security.HeartbeatThrottle {
		return nil
	}
	return m.sessions.UpdateActivity(ctx, session.ID, now)
}

// Stats partitions live sessions into active and inactive by last-seen
// time and buckets them by platform. Active and inactive are disjoint
// and exhaustive over the snapshot.
func (m *SessionManager) Stats(ctx context.Context) (models.SessionStats, error) {
	now := time.Now()
	sessions, err := m.sessions.ListLive(ctx, now)
	if err != nil {
		return models.SessionStats{}, err
	}

	stats := models.SessionStats{
		ByPlatform: make(map[models.Platform]int),
	}
	cutoff := now.Add(-m.cfg.Security.InactivityWindow)
	for _, session := range sessions {
		stats.Total++
		if session.LastSeen().Before(cutoff) {
			stats.Inactive++
		} else {
			stats.Active++
		}
		stats.ByPlatform[models.NormalizePlatform(string(session.Platform))]++
	}
	return stats, nil
}

// ListForUser returns the user's live sessions for the introspection
// endpoint.
func (m *SessionManager) ListForUser(ctx context.Context, userID int64) ([]models.RefreshSession, error) {
	return m.sessions.ListLiveByUser(ctx, userID, time.Now())
}
