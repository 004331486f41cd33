package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"learnstack/api/internal/analytics"
	"learnstack/api/internal/config"
	"learnstack/api/internal/errs"
	"learnstack/api/internal/models"
	"learnstack/api/internal/notify"
	"learnstack/api/internal/repository"
	"learnstack/api/internal/security"
)

// AuthService composes the session manager, credential hashing, and
// the persistence stores into the register/login/refresh/logout and
// password-recovery flows.
type AuthService struct {
	users       UserStore
	resetTokens ResetTokenStore
	sessions    *SessionManager
	emitter     EventEmitter
	delivery    DeliverySender
	cfg         *config.AppConfig
	log         zerolog.Logger
}

func NewAuthService(
	users UserStore,
	resetTokens ResetTokenStore,
	sessions *SessionManager,
	emitter EventEmitter,
	delivery DeliverySender,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		resetTokens: resetTokens,
		sessions:    sessions,
		emitter:     emitter,
		delivery:    delivery,
		cfg:         cfg,
		log:         log,
	}
}

type RegisterInput struct {
	Role        models.UserRole
	Email       string
	CountryCode string
	Mobile      string
	Password    string
	Platform    models.Platform
}

type AuthResult struct {
	AccessToken   string
	RefreshSecret string
	ExpiresIn     int64
	User          models.User
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.Mobile = strings.TrimSpace(input.Mobile)

	user := models.User{
		Role:   input.Role,
		Active: true,
	}

	switch input.Role {
	case models.UserRoleAdmin:
		if input.Email == "" {
			return AuthResult{}, errs.Validation("email is required for admin accounts")
		}
		if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
			return AuthResult{}, errs.Conflict("email is already registered")
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, err
		}
		user.Email = &input.Email
	case models.UserRoleTutor, models.UserRoleStudent:
		if input.Mobile == "" {
			return AuthResult{}, errs.Validation("mobile number is required")
		}
		fullMobile := input.CountryCode + input.Mobile
		if _, err := s.users.FindByMobile(ctx, fullMobile); err == nil {
			return AuthResult{}, errs.Conflict("mobile number is already registered")
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, err
		}
		user.CountryCode = &input.CountryCode
		user.Mobile = &input.Mobile
		if input.Email != "" {
			user.Email = &input.Email
		}
	default:
		return AuthResult{}, errs.Validation("unsupported role")
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, err
	}
	user.PasswordHash = passwordHash

	now := time.Now()
	user.LastLoginAt = &now

	user, err = s.users.Create(ctx, user)
	if err != nil {
		return AuthResult{}, err
	}

	pair, err := s.sessions.Issue(ctx, user, input.Platform)
	if err != nil {
		return AuthResult{}, err
	}

	s.emitter.Emit(ctx, analytics.Event{
		Name:     "signup",
		UserID:   user.ID,
		Platform: string(input.Platform),
		Props:    map[string]any{"role": string(user.Role)},
	})

	return authResult(pair, user), nil
}

type LoginKind string

const (
	LoginKindEmail  LoginKind = "email"
	LoginKindMobile LoginKind = "mobile"
)

// ClassifyLoginID applies the legacy transport heuristic: anything
// containing '@' is treated as an email, everything else as a mobile.
func ClassifyLoginID(loginID string) LoginKind {
	if strings.Contains(loginID, "@") {
		return LoginKindEmail
	}
	return LoginKindMobile
}

type LoginInput struct {
	Kind     LoginKind
	Value    string
	Password string
	Platform models.Platform
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	var (
		user models.User
		err  error
	)
	switch input.Kind {
	case LoginKindEmail:
		user, err = s.users.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(input.Value)))
	case LoginKindMobile:
		user, err = s.users.FindByMobile(ctx, strings.TrimSpace(input.Value))
	default:
		return AuthResult{}, errs.Validation("unsupported login kind")
	}
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Same message as a password mismatch so callers cannot
			// probe for account existence.
			return AuthResult{}, errs.Authentication("Invalid login credentials")
		}
		return AuthResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, errs.Authentication("Invalid login credentials")
	}

	if !user.Active {
		return AuthResult{}, errs.Authentication("Account is inactive")
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return AuthResult{}, err
	}
	user.LastLoginAt = &now

	pair, err := s.sessions.Issue(ctx, user, input.Platform)
	if err != nil {
		return AuthResult{}, err
	}

	s.emitter.Emit(ctx, analytics.Event{
		Name:     "login",
		UserID:   user.ID,
		Platform: string(input.Platform),
	})

	return authResult(pair, user), nil
}

// Refresh rotates the refresh secret and re-resolves the user from the
// new access token's subject.
func (s *AuthService) Refresh(ctx context.Context, rawSecret string, platformOverride models.Platform) (AuthResult, error) {
	pair, err := s.sessions.Rotate(ctx, rawSecret, platformOverride)
	if err != nil {
		return AuthResult{}, err
	}

	claims, err := s.sessions.VerifyAccessToken(pair.AccessToken)
	if err != nil {
		return AuthResult{}, errs.Authentication("unable to resolve user")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return AuthResult{}, errs.Authentication("unable to resolve user")
	}

	return authResult(pair, user), nil
}

// Logout revokes the presented refresh secret. User resolution is only
// for the analytics event; revocation proceeds without it.
func (s *AuthService) Logout(ctx context.Context, rawSecret string) error {
	if session, err := s.sessions.Resolve(ctx, rawSecret); err == nil {
		s.emitter.Emit(ctx, analytics.Event{
			Name:     "logout",
			UserID:   session.UserID,
			Platform: string(session.Platform),
		})
	}
	return s.sessions.Revoke(ctx, rawSecret)
}

func (s *AuthService) LogoutAll(ctx context.Context, userID int64) error {
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return err
	}
	s.emitter.Emit(ctx, analytics.Event{
		Name:   "logout_all",
		UserID: userID,
	})
	return nil
}

// ForgotPassword never reports whether the email exists. When it does,
// a single-use reset token is created and dispatched for delivery.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}

	rawToken, tokenHash, err := security.GenerateResetToken()
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(s.cfg.Security.ResetTokenTTL)
	if _, err := s.resetTokens.Create(ctx, models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
	}); err != nil {
		return err
	}

	if err := s.delivery.SendPasswordReset(ctx, notify.ResetDelivery{
		UserID:    user.ID,
		Email:     email,
		Token:     rawToken,
		ExpiresAt: expiresAt,
	}); err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("reset delivery dispatch failed")
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, rawToken string, newPassword string) error {
	token, err := s.resetTokens.FindUnusedByHash(ctx, security.HashSecret(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrResetTokenNotFound) {
			return errs.InvalidToken("reset token is invalid")
		}
		return err
	}
	if time.Now().After(token.ExpiresAt) {
		return errs.Expired("reset token has expired")
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, token.UserID, passwordHash); err != nil {
		return err
	}
	return s.resetTokens.MarkUsed(ctx, token.ID, time.Now())
}

// ValidateResetToken checks existence, expiry, and single-use without
// mutating anything.
func (s *AuthService) ValidateResetToken(ctx context.Context, rawToken string) (bool, error) {
	token, err := s.resetTokens.FindUnusedByHash(ctx, security.HashSecret(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrResetTokenNotFound) {
			return false, nil
		}
		return false, err
	}
	return !time.Now().After(token.ExpiresAt) && !token.IsUsed, nil
}

func authResult(pair TokenPair, user models.User) AuthResult {
	// Password hashes never leave the service layer.
	user.PasswordHash = nil
	return AuthResult{
		AccessToken:   pair.AccessToken,
		RefreshSecret: pair.RefreshSecret,
		ExpiresIn:     pair.ExpiresIn,
		User:          user,
	}
}
