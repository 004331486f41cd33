package service

import (
	"context"
	"testing"
	"time"

	"learnstack/api/internal/errs"
	"learnstack/api/internal/models"
)

func newTestOtpService() (*OtpService, *fakeUserStore, *fakeOtpStore, *fakeDelivery) {
	users := newFakeUserStore()
	otps := newFakeOtpStore()
	delivery := &fakeDelivery{}
	svc := NewOtpService(users, otps, delivery, testConfig(), testLogger())
	return svc, users, otps, delivery
}

func nowStamp() string {
	return time.Now().Format(time.RFC3339)
}

func TestGenerateAndVerifyMobileOtp(t *testing.T) {
	svc, users, _, delivery := newTestOtpService()
	user := seedUser(t, users, models.UserRoleTutor)

	out, err := svc.Generate(context.Background(), user.ID, models.OtpPurposeMobileVerification)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(out.Code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", out.Code)
	}
	for _, r := range out.Code {
		if r < '0' || r > '9' {
			t.Fatalf("expected numeric code, got %q", out.Code)
		}
	}
	if len(delivery.otps) != 1 {
		t.Fatalf("expected delivery dispatch, got %d", len(delivery.otps))
	}

	if err := svc.Verify(context.Background(), user.ID, models.OtpPurposeMobileVerification, nowStamp(), out.Code); err != nil {
		t.Fatalf("verify: %v", err)
	}

	updated, _ := users.GetByID(context.Background(), user.ID)
	if !updated.IsMobileVerified {
		t.Fatalf("expected mobile verified flag set")
	}
	if updated.IsEmailVerified {
		t.Fatalf("email flag should be untouched")
	}
	if updated.IsSignupComplete {
		t.Fatalf("signup should not complete with only one proof")
	}
}

func TestVerifyBothProofsCompletesSignup(t *testing.T) {
	svc, users, _, _ := newTestOtpService()
	user := seedUser(t, users, models.UserRoleTutor)

	mobile, err := svc.Generate(context.Background(), user.ID, models.OtpPurposeMobileVerification)
	if err != nil {
		t.Fatalf("generate mobile: %v", err)
	}
	if err := svc.Verify(context.Background(), user.ID, models.OtpPurposeMobileVerification, nowStamp(), mobile.Code); err != nil {
		t.Fatalf("verify mobile: %v", err)
	}

	email, err := svc.Generate(context.Background(), user.ID, models.OtpPurposeEmailVerification)
	if err != nil {
		t.Fatalf("generate email: %v", err)
	}
	if err := svc.Verify(context.Background(), user.ID, models.OtpPurposeEmailVerification, nowStamp(), email.Code); err != nil {
		t.Fatalf("verify email: %v", err)
	}

	updated, _ := users.GetByID(context.Background(), user.ID)
	if !updated.IsMobileVerified || !updated.IsEmailVerified {
		t.Fatalf("expected both flags set")
	}
	if !updated.IsSignupComplete {
		t.Fatalf("expected signup complete once both proofs are in")
	}
}

func TestRegenerateInvalidatesPriorCode(t *testing.T) {
	svc, users, _, _ := newTestOtpService()
	user := seedUser(t, users, models.UserRoleStudent)

	first, err := svc.Generate(context.Background(), user.ID, models.OtpPurposeMobileVerification)
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	second, err := svc.Generate(context.Background(), user.ID, models.OtpPurposeMobileVerification)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}

	if first.Code != second.Code {
		if err := svc.Verify(context.Background(), user.ID, models.OtpPurposeMobileVerification, nowStamp(), first.Code); !errs.IsKind(err, errs.KindInvalidCredential) {
			t.Fatalf("expected first code invalid after regenerate, got %v", err)
		}
	}
	if err := svc.Verify(context.Background(), user.ID, models.OtpPurposeMobileVerification, nowStamp(), second.Code); err != nil {
		t.Fatalf("second code should verify: %v", err)
	}
}

func TestVerifyIsIdempotentUntilRegenerated(t *testing.T) {
	svc, users, _, _ := newTestOtpService()
	user := seedUser(t, users, models.UserRoleStudent)

	out, err := svc.Generate(context.Background(), user.ID, models.OtpPurposeWhatsappVerification)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := svc.Verify(context.Background(), user.ID, models.OtpPurposeWhatsappVerification, nowStamp(), out.Code); err != nil {
			t.Fatalf("verify %d: %v", i, err)
		}
	}
}

func TestVerifyMissingRow(t *testing.T) {
	svc, users, _, _ := newTestOtpService()
	user := seedUser(t, users, models.UserRoleStudent)

	err := svc.Verify(context.Background(), user.ID, models.OtpPurposeEmailVerification, nowStamp(), "123456")
	if !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestVerifyBadTimestamp(t *testing.T) {
	svc, users, _, _ := newTestOtpService()
	user := seedUser(t, users, models.UserRoleStudent)

	out, err := svc.Generate(context.Background(), user.ID, models.OtpPurposeMobileVerification)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	err = svc.Verify(context.Background(), user.ID, models.OtpPurposeMobileVerification, "yesterday-ish", out.Code)
	if !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifyExpiryUsesClientTimestamp(t *testing.T) {
	svc, users, otps, _ := newTestOtpService()
	user := seedUser(t, users, models.UserRoleStudent)

	out, err := svc.Generate(context.Background(), user.ID, models.OtpPurposeMobileVerification)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Client clock past the stored expiry rejects.
	past := out.ExpiresAt.Add(time.Minute).Format(time.RFC3339)
	if err := svc.Verify(context.Background(), user.ID, models.OtpPurposeMobileVerification, past, out.Code); !errs.IsKind(err, errs.KindExpired) {
		t.Fatalf("expected expired, got %v", err)
	}

	// The check trusts the caller's clock: a timestamp inside the
	// window passes even when the row has actually expired.
	otp, _ := otps.GetByUserAndPurpose(context.Background(), user.ID, models.OtpPurposeMobileVerification)
	otp.ExpiresAt = time.Now().Add(-time.Minute)
	otps.put(otp)
	early := otp.ExpiresAt.Add(-time.Hour).Format(time.RFC3339)
	if err := svc.Verify(context.Background(), user.ID, models.OtpPurposeMobileVerification, early, out.Code); err != nil {
		t.Fatalf("expected client-clock verify to pass, got %v", err)
	}
}

func TestVerifyWrongCode(t *testing.T) {
	svc, users, _, _ := newTestOtpService()
	user := seedUser(t, users, models.UserRoleStudent)

	out, err := svc.Generate(context.Background(), user.ID, models.OtpPurposeMobileVerification)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	wrong := "000000"
	if wrong == out.Code {
		wrong = "000001"
	}
	if err := svc.Verify(context.Background(), user.ID, models.OtpPurposeMobileVerification, nowStamp(), wrong); !errs.IsKind(err, errs.KindInvalidCredential) {
		t.Fatalf("expected invalid credential, got %v", err)
	}
}

func TestGenerateForMissingOrInactiveUser(t *testing.T) {
	svc, users, _, _ := newTestOtpService()

	if _, err := svc.Generate(context.Background(), 999, models.OtpPurposeMobileVerification); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not found for unknown user, got %v", err)
	}

	user := seedUser(t, users, models.UserRoleStudent)
	stored := users.users[user.ID]
	stored.Active = false
	users.users[user.ID] = stored

	if _, err := svc.Generate(context.Background(), user.ID, models.OtpPurposeMobileVerification); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not found for inactive user, got %v", err)
	}
}

func TestGenerateSurvivesDeliveryFailure(t *testing.T) {
	users := newFakeUserStore()
	otps := newFakeOtpStore()
	delivery := &fakeDelivery{err: context.DeadlineExceeded}
	svc := NewOtpService(users, otps, delivery, testConfig(), testLogger())
	user := seedUser(t, users, models.UserRoleStudent)

	out, err := svc.Generate(context.Background(), user.ID, models.OtpPurposeMobileVerification)
	if err != nil {
		t.Fatalf("generate should not fail on delivery error: %v", err)
	}
	if err := svc.Verify(context.Background(), user.ID, models.OtpPurposeMobileVerification, nowStamp(), out.Code); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestPasswordResetPurposeTouchesNoFlags(t *testing.T) {
	svc, users, _, _ := newTestOtpService()
	user := seedUser(t, users, models.UserRoleStudent)

	out, err := svc.Generate(context.Background(), user.ID, models.OtpPurposePasswordReset)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := svc.Verify(context.Background(), user.ID, models.OtpPurposePasswordReset, nowStamp(), out.Code); err != nil {
		t.Fatalf("verify: %v", err)
	}

	updated, _ := users.GetByID(context.Background(), user.ID)
	if updated.IsMobileVerified || updated.IsEmailVerified || updated.IsSignupComplete {
		t.Fatalf("reset purpose must not touch verification flags")
	}
}
