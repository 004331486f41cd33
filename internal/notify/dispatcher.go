package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Dispatcher hands outbound deliveries (OTP codes, reset links) to the
// external notifier via a redis stream. The channel an item goes out
// on (email, SMS, WhatsApp) is the consumer's decision.
type Dispatcher struct {
	client *redis.Client
	stream string
	log    zerolog.Logger
}

func NewDispatcher(client *redis.Client, stream string, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{client: client, stream: stream, log: log}
}

// OtpDelivery carries the plaintext code; this is the only point where
// it leaves the core.
type OtpDelivery struct {
	UserID    int64
	Purpose   string
	Code      string
	ExpiresAt time.Time
}

func (d *Dispatcher) SendOtp(ctx context.Context, delivery OtpDelivery) error {
	return d.add(ctx, map[string]any{
		"type":       "otp",
		"user_id":    delivery.UserID,
		"purpose":    delivery.Purpose,
		"code":       delivery.Code,
		"expires_at": delivery.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

type ResetDelivery struct {
	UserID    int64
	Email     string
	Token     string
	ExpiresAt time.Time
}

func (d *Dispatcher) SendPasswordReset(ctx context.Context, delivery ResetDelivery) error {
	return d.add(ctx, map[string]any{
		"type":       "password_reset",
		"user_id":    delivery.UserID,
		"email":      delivery.Email,
		"token":      delivery.Token,
		"expires_at": delivery.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (d *Dispatcher) add(ctx context.Context, values map[string]any) error {
	if d == nil || d.client == nil {
		return nil
	}
	err := d.client.XAdd(ctx, &redis.XAddArgs{
		Stream: d.stream,
		Values: values,
	}).Err()
	if err != nil {
		d.log.Error().Err(err).Str("stream", d.stream).Msg("delivery dispatch failed")
	}
	return err
}
