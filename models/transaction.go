package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionTypeEarning    = "earning"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeBonus      = "bonus"

	TransactionStatusPending   = "pending"
	TransactionStatusApproved  = "approved"
	TransactionStatusRejected  = "rejected"
	TransactionStatusCompleted = "completed"
)

// Transaction is the append-only ledger. Rows are created by the ledger
// engine on every credit and withdrawal request; the only mutation ever
// allowed afterwards is an admin status transition.
type Transaction struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	UserID              uint            `gorm:"not null;index" json:"user_id"`
	TransactionType     string          `gorm:"size:20;not null" json:"transaction_type"`
	AmountCFA           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount_cfa"`
	Points              int             `gorm:"not null;default:0" json:"points"`
	Status              string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	PhoneNumber         *string         `gorm:"size:20" json:"phone_number,omitempty"`
	MobileMoneyProvider *string         `gorm:"size:50" json:"mobile_money_provider,omitempty"`
	Reference           string          `gorm:"size:100;uniqueIndex;not null" json:"reference"`
	Notes               *string         `gorm:"type:text" json:"notes,omitempty"`
	ProcessedBy         *int64          `json:"processed_by,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}
