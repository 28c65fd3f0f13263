package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/Asabi89/ken/models"

	"gorm.io/gorm"
)

// Registry answers availability questions about tasks. It never touches
// balances; the only counter it knows about is current_completions, and that
// is mutated through the engine.
type Registry struct {
	db *gorm.DB
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// ListAvailable returns active, under-capacity, unexpired tasks the user has
// not already completed (pending submissions count as completed here: the
// slot is taken). Ordered by id DESC so pagination stays stable while new
// tasks are created.
func (r *Registry) ListAvailable(ctx context.Context, userID uint, category string, page, limit int) ([]models.Task, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 12
	}

	q := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("status = ?", models.TaskStatusActive).
		Where("current_completions < max_completions").
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Where("id NOT IN (?)", r.db.Model(&models.TaskCompletion{}).
			Select("task_id").Where("user_id = ?", userID))
	if category != "" && category != "all" {
		q = q.Where("category = ?", category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.Task
	err := q.Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *Registry) Get(ctx context.Context, taskID uint) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// HasCompleted reports whether a non-deleted completion exists for the pair.
func (r *Registry) HasCompleted(ctx context.Context, userID, taskID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TaskCompletion{}).
		Where("user_id = ? AND task_id = ?", userID, taskID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
