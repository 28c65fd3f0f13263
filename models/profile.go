package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserProfile holds the earner-side ledger projection for one user. Money
// moves onto it through the ledger engine only; nothing else writes these
// columns.
type UserProfile struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	UserID              uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	TotalPoints         int             `gorm:"not null;default:0" json:"total_points"`
	TotalEarnedCFA      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_earned_cfa"`
	AvailableBalanceCFA decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"available_balance_cfa"`
	PhoneNumber         *string         `gorm:"size:20" json:"phone_number,omitempty"`
	MobileMoneyProvider *string         `gorm:"size:50" json:"mobile_money_provider,omitempty"`
	WithdrawalPIN       *string         `gorm:"size:6" json:"-"`
	IsEmailVerified     bool            `gorm:"not null;default:false" json:"is_email_verified"`
	IsWithdrawalVerified bool           `gorm:"not null;default:false" json:"is_withdrawal_verified"`
	CreatedAt           time.Time       `json:"-"`
	UpdatedAt           time.Time       `json:"-"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// HasWithdrawalSetup reports whether PIN and payout destination are on file.
func (p *UserProfile) HasWithdrawalSetup() bool {
	return p.WithdrawalPIN != nil && *p.WithdrawalPIN != "" &&
		p.PhoneNumber != nil && *p.PhoneNumber != "" &&
		p.MobileMoneyProvider != nil && *p.MobileMoneyProvider != ""
}
