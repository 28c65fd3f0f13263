package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InfluencerStatusPending   = "pending"
	InfluencerStatusApproved  = "approved"
	InfluencerStatusRejected  = "rejected"
	InfluencerStatusSuspended = "suspended"
)

type InfluencerProfile struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UserID            uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	CompanyName       string          `gorm:"size:255" json:"company_name"`
	PhoneNumber       *string         `gorm:"size:20" json:"phone_number,omitempty"`
	Website           *string         `gorm:"size:255" json:"website,omitempty"`
	SocialMedia       *string         `gorm:"size:255" json:"social_media,omitempty"`
	Bio               *string         `gorm:"type:text" json:"bio,omitempty"`
	Status            string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	IsVerified        bool            `gorm:"not null;default:false" json:"is_verified"`
	BudgetLimitCFA    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"budget_limit_cfa"`
	TotalBudgetSpent  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_budget_spent"`
	TotalTasksCreated int             `gorm:"not null;default:0" json:"total_tasks_created"`
	ApprovedAt        *time.Time      `json:"approved_at,omitempty"`
	ApprovedBy        *int64          `json:"approved_by,omitempty"`
	CreatedAt         time.Time       `json:"-"`
	UpdatedAt         time.Time       `json:"-"`
}

func (InfluencerProfile) TableName() string {
	return "influencer_profiles"
}

// HasUnlimitedBudget: a zero budget limit means no cap at all.
func (p *InfluencerProfile) HasUnlimitedBudget() bool {
	return p.BudgetLimitCFA.IsZero()
}

// RemainingBudget returns the unreserved budget, or nil when unlimited.
func (p *InfluencerProfile) RemainingBudget() *decimal.Decimal {
	if p.HasUnlimitedBudget() {
		return nil
	}
	rem := p.BudgetLimitCFA.Sub(p.TotalBudgetSpent)
	return &rem
}
