package service

import (
	"bytes"
	"context"
	"io"
	"time"

	"learnstack/api/internal/analytics"
	"learnstack/api/internal/config"
	"learnstack/api/internal/models"
	"learnstack/api/internal/notify"
	"learnstack/api/internal/repository"

	"github.com/rs/zerolog"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			JWTSigningSecret:  "test-signing-secret",
			AccessTokenTTL:    24 * time.Hour,
			RefreshTokenTTL:   30 * 24 * time.Hour,
			OTPTTL:            30 * time.Minute,
			ResetTokenTTL:     time.Hour,
			HeartbeatThrottle: time.Minute,
			InactivityWindow:  5 * time.Minute,
		},
	}
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type fakeUserStore struct {
	seq   int64
	users map[int64]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user models.User) (models.User, error) {
	s.seq++
	user.ID = s.seq
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	return user, nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id int64) (models.User, error) {
	user, ok := s.users[id]
	if !ok || user.DeletedAt != nil {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range s.users {
		if user.DeletedAt == nil && user.Email != nil && *user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *fakeUserStore) FindByMobile(_ context.Context, fullMobile string) (models.User, error) {
	for _, user := range s.users {
		if user.DeletedAt == nil && user.Mobile != nil && user.FullMobile() == fullMobile {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *fakeUserStore) UpdatePasswordHash(_ context.Context, id int64, hash []byte) error {
	user, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = hash
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	user, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.LastLoginAt = &at
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) UpdateVerification(_ context.Context, id int64, mobileVerified, emailVerified, signupComplete bool) error {
	user, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.IsMobileVerified = mobileVerified
	user.IsEmailVerified = emailVerified
	user.IsSignupComplete = signupComplete
	s.users[id] = user
	return nil
}

type fakeSessionStore struct {
	seq      int64
	sessions map[int64]models.RefreshSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[int64]models.RefreshSession)}
}

func (s *fakeSessionStore) Create(_ context.Context, session models.RefreshSession) (models.RefreshSession, error) {
	s.seq++
	session.ID = s.seq
	session.CreatedAt = time.Now()
	s.sessions[session.ID] = session
	return session, nil
}

func (s *fakeSessionStore) GetByID(_ context.Context, id int64) (models.RefreshSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return models.RefreshSession{}, repository.ErrSessionNotFound
	}
	return session, nil
}

func (s *fakeSessionStore) FindLiveByHash(_ context.Context, secretHash []byte) (models.RefreshSession, error) {
	for _, session := range s.sessions {
		if !session.IsRevoked && bytes.Equal(session.SecretHash, secretHash) {
			return session, nil
		}
	}
	return models.RefreshSession{}, repository.ErrSessionNotFound
}

func (s *fakeSessionStore) Revoke(_ context.Context, id int64, at time.Time) error {
	session, ok := s.sessions[id]
	if !ok || session.IsRevoked {
		return nil
	}
	session.IsRevoked = true
	session.RevokedAt = &at
	s.sessions[id] = session
	return nil
}

func (s *fakeSessionStore) RevokeAllForUser(_ context.Context, userID int64, at time.Time) error {
	for id, session := range s.sessions {
		if session.UserID == userID && !session.IsRevoked {
			session.IsRevoked = true
			session.RevokedAt = &at
			s.sessions[id] = session
		}
	}
	return nil
}

func (s *fakeSessionStore) UpdateActivity(_ context.Context, id int64, at time.Time) error {
	session, ok := s.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.LastActivityAt = &at
	s.sessions[id] = session
	return nil
}

func (s *fakeSessionStore) ListLive(_ context.Context, now time.Time) ([]models.RefreshSession, error) {
	var out []models.RefreshSession
	for _, session := range s.sessions {
		if session.Live(now) {
			out = append(out, session)
		}
	}
	return out, nil
}

func (s *fakeSessionStore) ListLiveByUser(_ context.Context, userID int64, now time.Time) ([]models.RefreshSession, error) {
	var out []models.RefreshSession
	for _, session := range s.sessions {
		if session.UserID == userID && session.Live(now) {
			out = append(out, session)
		}
	}
	return out, nil
}

// put replaces a row directly, for tests that need to age timestamps.
func (s *fakeSessionStore) put(session models.RefreshSession) {
	s.sessions[session.ID] = session
}

type otpKey struct {
	userID  int64
	purpose models.OtpPurpose
}

type fakeOtpStore struct {
	seq  int64
	otps map[otpKey]models.Otp
}

func newFakeOtpStore() *fakeOtpStore {
	return &fakeOtpStore{otps: make(map[otpKey]models.Otp)}
}

func (s *fakeOtpStore) Upsert(_ context.Context, otp models.Otp) (models.Otp, error) {
	key := otpKey{userID: otp.UserID, purpose: otp.Purpose}
	existing, ok := s.otps[key]
	if ok {
		existing.CodeHash = otp.CodeHash
		existing.ExpiresAt = otp.ExpiresAt
		existing.UpdatedAt = time.Now()
		s.otps[key] = existing
		return existing, nil
	}
	s.seq++
	otp.ID = s.seq
	otp.CreatedAt = time.Now()
	otp.UpdatedAt = otp.CreatedAt
	s.otps[key] = otp
	return otp, nil
}

func (s *fakeOtpStore) GetByUserAndPurpose(_ context.Context, userID int64, purpose models.OtpPurpose) (models.Otp, error) {
	otp, ok := s.otps[otpKey{userID: userID, purpose: purpose}]
	if !ok {
		return models.Otp{}, repository.ErrOtpNotFound
	}
	return otp, nil
}

func (s *fakeOtpStore) put(otp models.Otp) {
	s.otps[otpKey{userID: otp.UserID, purpose: otp.Purpose}] = otp
}

type fakeResetTokenStore struct {
	seq    int64
	tokens map[int64]models.PasswordResetToken
}

func newFakeResetTokenStore() *fakeResetTokenStore {
	return &fakeResetTokenStore{tokens: make(map[int64]models.PasswordResetToken)}
}

func (s *fakeResetTokenStore) Create(_ context.Context, token models.PasswordResetToken) (models.PasswordResetToken, error) {
	s.seq++
	token.ID = s.seq
	token.CreatedAt = time.Now()
	s.tokens[token.ID] = token
	return token, nil
}

func (s *fakeResetTokenStore) FindUnusedByHash(_ context.Context, tokenHash []byte) (models.PasswordResetToken, error) {
	for _, token := range s.tokens {
		if !token.IsUsed && bytes.Equal(token.TokenHash, tokenHash) {
			return token, nil
		}
	}
	return models.PasswordResetToken{}, repository.ErrResetTokenNotFound
}

func (s *fakeResetTokenStore) MarkUsed(_ context.Context, id int64, at time.Time) error {
	token, ok := s.tokens[id]
	if !ok || token.IsUsed {
		return repository.ErrResetTokenNotFound
	}
	token.IsUsed = true
	token.UsedAt = &at
	s.tokens[id] = token
	return nil
}

func (s *fakeResetTokenStore) put(token models.PasswordResetToken) {
	s.tokens[token.ID] = token
}

type fakeEmitter struct {
	events []analytics.Event
}

func (e *fakeEmitter) Emit(_ context.Context, event analytics.Event) {
	e.events = append(e.events, event)
}

type fakeDelivery struct {
	otps   []notify.OtpDelivery
	resets []notify.ResetDelivery
	err    error
}

func (d *fakeDelivery) SendOtp(_ context.Context, delivery notify.OtpDelivery) error {
	if d.err != nil {
		return d.err
	}
	d.otps = append(d.otps, delivery)
	return nil
}

func (d *fakeDelivery) SendPasswordReset(_ context.Context, delivery notify.ResetDelivery) error {
	if d.err != nil {
		return d.err
	}
	d.resets = append(d.resets, delivery)
	return nil
}
