package models

import "time"

// EmailVerification is a one-time 6-digit code. Valid while unused and
// before expiry; exactly one redemption is allowed (enforced by the guarded
// update in the ledger OTP service, not by this helper).
type EmailVerification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	OTPCode   string    `gorm:"size:6;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	IsUsed    bool      `gorm:"not null;default:false" json:"is_used"`
	CreatedAt time.Time `json:"created_at"`
}

func (EmailVerification) TableName() string {
	return "email_verifications"
}

func (v *EmailVerification) IsValid(now time.Time) bool {
	return !v.IsUsed && now.Before(v.ExpiresAt)
}
