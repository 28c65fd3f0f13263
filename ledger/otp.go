package ledger

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/Asabi89/ken/models"

	"gorm.io/gorm"
)

// The OTP primitives gate the money-moving surfaces: withdrawal setup and
// influencer verification both have to redeem a code before their profile
// flags unlock. Redemption is a guarded update so a code can be spent
// exactly once even under concurrent submits.

// IssueOTP creates a fresh 6-digit code for a user. Previously issued codes
// stay valid until they expire or get used; the redeem guard matches on the
// exact code.
func (e *Engine) IssueOTP(ctx context.Context, userID uint) (*models.EmailVerification, error) {
	code, err := randomOTPCode()
	if err != nil {
		return nil, err
	}
	verification := models.EmailVerification{
		UserID:    userID,
		OTPCode:   code,
		ExpiresAt: time.Now().Add(e.cfg.OTPTTL),
	}
	if err := e.db.WithContext(ctx).Create(&verification).Error; err != nil {
		return nil, err
	}
	return &verification, nil
}

// redeemOTP flips is_used for a matching, unexpired, unused code. Zero rows
// affected means the code is wrong, spent or stale; the caller cannot tell
// which, and neither can an attacker.
func redeemOTP(tx *gorm.DB, userID uint, code string) error {
	res := tx.Model(&models.EmailVerification{}).
		Where("user_id = ? AND otp_code = ? AND is_used = ? AND expires_at > ?",
			userID, code, false, time.Now()).
		UpdateColumn("is_used", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOTPInvalid
	}
	return nil
}

// SetupWithdrawal stores the payout destination and PIN on the profile and
// issues the OTP that must be redeemed before withdrawals unlock. Re-running
// setup overwrites the destination and re-arms verification.
func (e *Engine) SetupWithdrawal(ctx context.Context, userID uint, phone, provider, pin string) (*models.EmailVerification, error) {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.UserProfile{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"phone_number":           phone,
				"mobile_money_provider":  provider,
				"withdrawal_pin":         pin,
				"is_withdrawal_verified": false,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("withdrawal setup: no profile for user %d", userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e.IssueOTP(ctx, userID)
}

// VerifyWithdrawalEmail redeems the code and unlocks both verification flags
// in one transaction.
func (e *Engine) VerifyWithdrawalEmail(ctx context.Context, userID uint, code string) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := redeemOTP(tx, userID, code); err != nil {
			return err
		}
		return tx.Model(&models.UserProfile{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"is_email_verified":      true,
				"is_withdrawal_verified": true,
			}).Error
	})
}

// VerifyInfluencerEmail redeems the code and marks the influencer profile
// verified. Admin approval is a separate, later step.
func (e *Engine) VerifyInfluencerEmail(ctx context.Context, userID uint, code string) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := redeemOTP(tx, userID, code); err != nil {
			return err
		}
		res := tx.Model(&models.InfluencerProfile{}).
			Where("user_id = ?", userID).
			UpdateColumn("is_verified", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInfluencerNotFound
		}
		return nil
	})
}

func randomOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
