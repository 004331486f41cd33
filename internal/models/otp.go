package models

import "time"

type OtpPurpose string

const (
	OtpPurposeMobileVerification   OtpPurpose = "MOBILE_VERIFICATION"
	OtpPurposeEmailVerification    OtpPurpose = "EMAIL_VERIFICATION"
	OtpPurposeWhatsappVerification OtpPurpose = "WHATSAPP_VERIFICATION"
	OtpPurposePasswordReset        OtpPurpose = "PASSWORD_RESET"
	OtpPurposeOther                OtpPurpose = "OTHER"
)

func ParseOtpPurpose(s string) (OtpPurpose, bool) {
	switch OtpPurpose(s) {
	case OtpPurposeMobileVerification, OtpPurposeEmailVerification,
		OtpPurposeWhatsappVerification, OtpPurposePasswordReset, OtpPurposeOther:
		return OtpPurpose(s), true
	default:
		return "", false
	}
}

// Otp holds at most one pending code per (user, purpose). A new
// generation overwrites the row, invalidating any unused prior code.
type Otp struct {
	ID        int64
	UserID    int64
	Purpose   OtpPurpose
	CodeHash  []byte
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PasswordResetToken is consumed exactly once: IsUsed flips on a
// successful reset and the hash is never accepted again.
type PasswordResetToken struct {
	ID        int64
	UserID    int64
	TokenHash []byte
	ExpiresAt time.Time
	IsUsed    bool
	UsedAt    *time.Time
	CreatedAt time.Time
}
