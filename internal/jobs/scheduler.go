package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"learnstack/api/internal/repository"
)

// Scheduler runs the periodic storage hygiene jobs: purging expired
// OTP rows and consumed or expired reset tokens. Revoked sessions are
// kept for audit.
type Scheduler struct {
	cron        *cron.Cron
	otps        *repository.OtpRepository
	resetTokens *repository.ResetTokenRepository
	log         zerolog.Logger
}

func NewScheduler(otps *repository.OtpRepository, resetTokens *repository.ResetTokenRepository, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithSeconds()),
		otps:        otps,
		resetTokens: resetTokens,
		log:         log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 3 * * *", s.purgeExpired); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop, waiting up to 5s for a running job to
// finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) purgeExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := time.Now()

	otps, err := s.otps.DeleteExpired(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("purge expired otps failed")
	}

	tokens, err := s.resetTokens.DeleteExpired(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("purge reset tokens failed")
	}

	s.log.Info().
		Int64("otps", otps).
		Int64("reset_tokens", tokens).
		Msg("expired rows purged")
}
