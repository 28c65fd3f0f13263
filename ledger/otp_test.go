package ledger

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/Asabi89/ken/models"
)

func TestIssueOTPShape(t *testing.T) {
	engine, db := newTestEngine(t)
	userID := seedUser(t, db, "otpuser")

	verification, err := engine.IssueOTP(context.Background(), userID)
	if err != nil {
		t.Fatalf("IssueOTP: %v", err)
	}
	if len(verification.OTPCode) != 6 {
		t.Fatalf("expected 6-digit code, got %q", verification.OTPCode)
	}
	n, err := strconv.Atoi(verification.OTPCode)
	if err != nil || n < 100000 || n > 999999 {
		t.Fatalf("code out of range: %q", verification.OTPCode)
	}
	if !verification.IsValid(time.Now()) {
		t.Fatalf("fresh code must be valid")
	}
	if verification.IsValid(verification.ExpiresAt.Add(time.Second)) {
		t.Fatalf("code must not be valid past expiry")
	}
}

func TestWithdrawalVerificationFlow(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	userID := seedUser(t, db, "verifier")

	verification, err := engine.SetupWithdrawal(ctx, userID, "+22900000001", "moov", "4321")
	if err != nil {
		t.Fatalf("SetupWithdrawal: %v", err)
	}

	// wrong code first
	err = engine.VerifyWithdrawalEmail(ctx, userID, "000000")
	if !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid for wrong code, got %v", err)
	}

	if err := engine.VerifyWithdrawalEmail(ctx, userID, verification.OTPCode); err != nil {
		t.Fatalf("verify: %v", err)
	}

	profile := loadProfile(t, db, userID)
	if !profile.IsEmailVerified || !profile.IsWithdrawalVerified {
		t.Fatalf("verification must unlock both flags")
	}
	if !profile.HasWithdrawalSetup() {
		t.Fatalf("setup must persist the payout destination and PIN")
	}

	// a spent code cannot be redeemed again
	err = engine.VerifyWithdrawalEmail(ctx, userID, verification.OTPCode)
	if !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid on reuse, got %v", err)
	}
}

func TestSetupWithdrawalRearmsVerification(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	userID := seedUser(t, db, "rearm")

	first, err := engine.SetupWithdrawal(ctx, userID, "+22900000002", "mtn", "1111")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := engine.VerifyWithdrawalEmail(ctx, userID, first.OTPCode); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// changing the destination drops the withdrawal flag until re-verified
	if _, err := engine.SetupWithdrawal(ctx, userID, "+22900000003", "moov", "2222"); err != nil {
		t.Fatalf("re-setup: %v", err)
	}
	profile := loadProfile(t, db, userID)
	if profile.IsWithdrawalVerified {
		t.Fatalf("re-running setup must re-arm withdrawal verification")
	}
	if profile.PhoneNumber == nil || *profile.PhoneNumber != "+22900000003" {
		t.Fatalf("re-setup must overwrite the destination")
	}
}

func TestSetupWithdrawalUnknownUser(t *testing.T) {
	engine, _ := newTestEngine(t)
	if _, err := engine.SetupWithdrawal(context.Background(), 9999, "+22900000004", "mtn", "3333"); err == nil {
		t.Fatalf("expected error for missing profile")
	}
}

func TestExpiredOTPRejected(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	userID := seedUser(t, db, "stale")

	verification, err := engine.IssueOTP(ctx, userID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	err = db.Model(&models.EmailVerification{}).
		Where("id = ?", verification.ID).
		UpdateColumn("expires_at", time.Now().Add(-time.Minute)).Error
	if err != nil {
		t.Fatalf("backdate: %v", err)
	}

	err = engine.VerifyWithdrawalEmail(ctx, userID, verification.OTPCode)
	if !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid for expired code, got %v", err)
	}
}

func TestVerifyInfluencerEmail(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	userID := seedUser(t, db, "newbrand")
	profile := models.InfluencerProfile{
		UserID:      userID,
		CompanyName: "newbrand media",
		Status:      models.InfluencerStatusPending,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("seed influencer: %v", err)
	}

	verification, err := engine.IssueOTP(ctx, userID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := engine.VerifyInfluencerEmail(ctx, userID, verification.OTPCode); err != nil {
		t.Fatalf("verify: %v", err)
	}

	var got models.InfluencerProfile
	db.Where("user_id = ?", userID).First(&got)
	if !got.IsVerified {
		t.Fatalf("influencer profile must be verified")
	}
	// email verification does not approve; that is the admin's call
	if got.Status != models.InfluencerStatusPending {
		t.Fatalf("verification must not change status, got %s", got.Status)
	}
}

func TestVerifyInfluencerEmailNoProfile(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()
	userID := seedUser(t, db, "noprofile")

	verification, err := engine.IssueOTP(ctx, userID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	err = engine.VerifyInfluencerEmail(ctx, userID, verification.OTPCode)
	if !errors.Is(err, ErrInfluencerNotFound) {
		t.Fatalf("expected ErrInfluencerNotFound, got %v", err)
	}
}
