package service

import (
	"context"
	"crypto/hmac"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"learnstack/api/internal/config"
	"learnstack/api/internal/errs"
	"learnstack/api/internal/models"
	"learnstack/api/internal/notify"
	"learnstack/api/internal/repository"
	"learnstack/api/internal/security"
)

// OtpService issues and verifies one-time codes scoped to
// (user, purpose). At most one code per pair is pending; regenerating
// invalidates the previous one.
type OtpService struct {
	users    UserStore
	otps     OtpStore
	delivery DeliverySender
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewOtpService(users UserStore, otps OtpStore, delivery DeliverySender, cfg *config.AppConfig, log zerolog.Logger) *OtpService {
	return &OtpService{
		users:    users,
		otps:     otps,
		delivery: delivery,
		cfg:      cfg,
		log:      log,
	}
}

// Generate mints a fresh code for the user and hands the plaintext to
// the delivery dispatcher. This is the only point where the code
// leaves the core unhashed.
func (s *OtpService) Generate(ctx context.Context, userID int64, purpose models.OtpPurpose) (notify.OtpDelivery, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return notify.OtpDelivery{}, errs.NotFound("user not found")
		}
		return notify.OtpDelivery{}, err
	}
	if !user.Active || user.DeletedAt != nil {
		return notify.OtpDelivery{}, errs.NotFound("user not found")
	}

	code, err := security.GenerateOTP()
	if err != nil {
		return notify.OtpDelivery{}, err
	}

	expiresAt := time.Now().Add(s.cfg.Security.OTPTTL)
	if _, err := s.otps.Upsert(ctx, models.Otp{
		UserID:    user.ID,
		Purpose:   purpose,
		CodeHash:  security.HashOTP(code),
		ExpiresAt: expiresAt,
	}); err != nil {
		return notify.OtpDelivery{}, err
	}

	delivery := notify.OtpDelivery{
		UserID:    user.ID,
		Purpose:   string(purpose),
		Code:      code,
		ExpiresAt: expiresAt,
	}
	if err := s.delivery.SendOtp(ctx, delivery); err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Str("purpose", string(purpose)).
			Msg("otp delivery dispatch failed")
	}
	return delivery, nil
}

// Verify checks the supplied code against the stored hash. Expiry is
// compared against the caller-supplied timestamp, not the server
// clock; that behavior is load-bearing for clients with skewed clocks
// and is covered by tests. Verification is idempotent until the row is
// overwritten by a new Generate.
func (s *OtpService) Verify(ctx context.Context, userID int64, purpose models.OtpPurpose, clientTimestamp string, code string) error {
	otp, err := s.otps.GetByUserAndPurpose(ctx, userID, purpose)
	if err != nil {
		if errors.Is(err, repository.ErrOtpNotFound) {
			return errs.NotFound("no code issued for this purpose")
		}
		return err
	}

	ts, err := time.Parse(time.RFC3339, clientTimestamp)
	if err != nil {
		return errs.Validation("timestamp is not a valid date")
	}
	if ts.After(otp.ExpiresAt) {
		return errs.Expired("code has expired")
	}

	if !hmac.Equal(security.HashOTP(code), otp.CodeHash) {
		return errs.InvalidCredential("incorrect code")
	}

	return s.markVerified(ctx, userID, purpose)
}

func (s *OtpService) markVerified(ctx context.Context, userID int64, purpose models.OtpPurpose) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	mobileVerified := user.IsMobileVerified
	emailVerified := user.IsEmailVerified
	switch purpose {
	case models.OtpPurposeMobileVerification, models.OtpPurposeWhatsappVerification:
		mobileVerified = true
	case models.OtpPurposeEmailVerification:
		emailVerified = true
	default:
		return nil
	}

	// Signup completes once both proofs are in, independent of role.
	signupComplete := user.IsSignupComplete || (mobileVerified && emailVerified)
	return s.users.UpdateVerification(ctx, userID, mobileVerified, emailVerified, signupComplete)
}
