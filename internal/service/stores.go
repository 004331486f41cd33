package service

import (
	"context"
	"io"
	"time"

	"learnstack/api/internal/analytics"
	"learnstack/api/internal/models"
	"learnstack/api/internal/notify"
)

// Narrow store interfaces so services compose against behavior, not
// against pgx. The repository package satisfies all of them; tests run
// on in-memory fakes.

type UserStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByMobile(ctx context.Context, fullMobile string) (models.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash []byte) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdateVerification(ctx context.Context, id int64, mobileVerified, emailVerified, signupComplete bool) error
}

type SessionStore interface {
	Create(ctx context.Context, session models.RefreshSession) (models.RefreshSession, error)
	GetByID(ctx context.Context, id int64) (models.RefreshSession, error)
	FindLiveByHash(ctx context.Context, secretHash []byte) (models.RefreshSession, error)
	Revoke(ctx context.Context, id int64, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID int64, at time.Time) error
	UpdateActivity(ctx context.Context, id int64, at time.Time) error
	ListLive(ctx context.Context, now time.Time) ([]models.RefreshSession, error)
	ListLiveByUser(ctx context.Context, userID int64, now time.Time) ([]models.RefreshSession, error)
}

type OtpStore interface {
	Upsert(ctx context.Context, otp models.Otp) (models.Otp, error)
	GetByUserAndPurpose(ctx context.Context, userID int64, purpose models.OtpPurpose) (models.Otp, error)
}

type ResetTokenStore interface {
	Create(ctx context.Context, token models.PasswordResetToken) (models.PasswordResetToken, error)
	FindUnusedByHash(ctx context.Context, tokenHash []byte) (models.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id int64, at time.Time) error
}

type TutorStore interface {
	UpsertProfile(ctx context.Context, profile models.TutorProfile) (models.TutorProfile, error)
	GetProfile(ctx context.Context, userID int64) (models.TutorProfile, error)
	UpdateCertificationStage(ctx context.Context, userID int64, stage models.CertificationStage) error
	CreateDocument(ctx context.Context, doc models.TutorDocument) (models.TutorDocument, error)
	GetDocument(ctx context.Context, id int64) (models.TutorDocument, error)
	ListDocuments(ctx context.Context, userID int64) ([]models.TutorDocument, error)
}

type EventEmitter interface {
	Emit(ctx context.Context, event analytics.Event)
}

type DeliverySender interface {
	SendOtp(ctx context.Context, delivery notify.OtpDelivery) error
	SendPasswordReset(ctx context.Context, delivery notify.ResetDelivery) error
}

type DocumentStore interface {
	PutDocument(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	GetDocument(ctx context.Context, key string) (io.ReadCloser, error)
}
