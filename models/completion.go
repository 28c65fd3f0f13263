package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaskCompletion is a user's claim on one task. The composite unique index is
// the primary double-earning safeguard: two racing submissions for the same
// (user, task) pair collide at the storage layer, not in application code.
// Reward amounts are snapshotted at completion time and never recomputed.
type TaskCompletion struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"not null;uniqueIndex:idx_user_task" json:"user_id"`
	TaskID         uint            `gorm:"not null;uniqueIndex:idx_user_task" json:"task_id"`
	PointsEarned   int             `gorm:"not null" json:"points_earned"`
	CFAEarned      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"cfa_earned"`
	ProofObjectKey *string         `gorm:"size:255" json:"proof_object_key,omitempty"`
	IsVerified     bool            `gorm:"not null;default:false;index" json:"is_verified"`
	VerifiedAt     *time.Time      `json:"verified_at,omitempty"`
	VerifiedBy     *uint           `json:"verified_by,omitempty"`
	CompletedAt    time.Time       `gorm:"autoCreateTime" json:"completed_at"`

	Task *Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
}

func (TaskCompletion) TableName() string {
	return "task_completions"
}
