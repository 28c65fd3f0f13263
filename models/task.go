package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TaskTypeWatch     = "watch"
	TaskTypeLike      = "like"
	TaskTypeSubscribe = "subscribe"
	TaskTypeQuestion  = "question"
	TaskTypeGame      = "game"

	TaskStatusActive    = "active"
	TaskStatusPaused    = "paused"
	TaskStatusCompleted = "completed"
)

type Task struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	Title              string          `gorm:"size:255;not null" json:"title"`
	TaskType           string          `gorm:"size:20;not null" json:"task_type"`
	Category           string          `gorm:"size:20;not null;default:'video'" json:"category"`
	VideoURL           string          `gorm:"size:500;not null" json:"video_url"`
	ChannelURL         *string         `gorm:"size:500" json:"channel_url,omitempty"`
	Points             int             `gorm:"not null" json:"points"`
	CFAValue           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"cfa_value"`
	DurationSeconds    int             `gorm:"not null;default:0" json:"duration_seconds"`
	ExpiresAt          *time.Time      `json:"expires_at,omitempty"`
	Status             string          `gorm:"size:20;not null;default:'active';index" json:"status"`
	MaxCompletions     int             `gorm:"not null;default:100" json:"max_completions"`
	CurrentCompletions int             `gorm:"not null;default:0" json:"current_completions"`
	CreatedBy          uint            `gorm:"not null;index" json:"created_by"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

// RequiresProof reports whether completions of this task go through the
// pending-verification workflow instead of crediting immediately.
func (t *Task) RequiresProof() bool {
	switch t.TaskType {
	case TaskTypeLike, TaskTypeSubscribe, TaskTypeQuestion:
		return true
	}
	return false
}

// IsAvailable is computed from the counter comparison, never from a cached
// status transition: a task that hits capacity stays "active" until its owner
// changes the status, but stops being available.
func (t *Task) IsAvailable(now time.Time) bool {
	if t.Status != TaskStatusActive {
		return false
	}
	if t.CurrentCompletions >= t.MaxCompletions {
		return false
	}
	if t.ExpiresAt != nil && !now.Before(*t.ExpiresAt) {
		return false
	}
	return true
}
