package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Asabi89/ken/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Engine is the only component allowed to mutate balances, points, budgets
// and the transaction log. Every operation runs as a single database
// transaction: a failed sub-step rolls back the whole mutation. Double
// completions are stopped by the unique (user_id, task_id) index, balance
// debits by compare-and-swap UPDATEs, so two racing requests cannot both win.
type Engine struct {
	db  *gorm.DB
	cfg Config
}

func NewEngine(db *gorm.DB, cfg Config) *Engine {
	return &Engine{db: db, cfg: cfg}
}

// RecordDirectEarning handles no-proof task types (watch, game): the
// completion is created verified and the user is credited immediately, all
// in one transaction.
func (e *Engine) RecordDirectEarning(ctx context.Context, userID, taskID uint) (*models.TaskCompletion, error) {
	var completion models.TaskCompletion
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := loadTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.RequiresProof() {
			return ErrProofRequired
		}
		if err := consumeCapacity(tx, taskID); err != nil {
			return err
		}

		now := time.Now()
		completion = models.TaskCompletion{
			UserID:       userID,
			TaskID:       taskID,
			PointsEarned: task.Points,
			CFAEarned:    task.CFAValue,
			IsVerified:   true,
			VerifiedAt:   &now,
		}
		if err := tx.Create(&completion).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyCompleted
			}
			return err
		}

		if err := e.credit(tx, userID, task.Points, task.CFAValue); err != nil {
			return err
		}
		trx := models.Transaction{
			UserID:          userID,
			TransactionType: models.TransactionTypeEarning,
			AmountCFA:       task.CFAValue,
			Points:          task.Points,
			Status:          models.TransactionStatusCompleted,
			Reference:       newReference(),
		}
		return tx.Create(&trx).Error
	})
	if err != nil {
		return nil, err
	}
	return &completion, nil
}

// RecordPendingSubmission handles proof task types (like, subscribe,
// question). Capacity is consumed at submission time, not at approval, so a
// task cannot be over-submitted while verifications are pending. The reward
// is snapshotted on the completion; no balance changes until approval.
func (e *Engine) RecordPendingSubmission(ctx context.Context, userID, taskID uint, proofKey string) (*models.TaskCompletion, error) {
	if proofKey == "" {
		return nil, ErrProofRequired
	}
	var completion models.TaskCompletion
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := loadTask(tx, taskID)
		if err != nil {
			return err
		}
		if !task.RequiresProof() {
			return ErrProofNotAccepted
		}
		if err := consumeCapacity(tx, taskID); err != nil {
			return err
		}

		completion = models.TaskCompletion{
			UserID:         userID,
			TaskID:         taskID,
			PointsEarned:   task.Points,
			CFAEarned:      task.CFAValue,
			ProofObjectKey: &proofKey,
			IsVerified:     false,
		}
		if err := tx.Create(&completion).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyCompleted
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &completion, nil
}

// ApproveSubmission flips a pending completion to verified and credits the
// snapshotted reward, not the task's current value. Approving an already
// verified completion is a no-op: the guarded update affects zero rows and
// no second credit is written.
func (e *Engine) ApproveSubmission(ctx context.Context, completionID uint, reviewerID uint) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var completion models.TaskCompletion
		if err := tx.First(&completion, completionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCompletionNotFound
			}
			return err
		}

		now := time.Now()
		res := tx.Model(&models.TaskCompletion{}).
			Where("id = ? AND is_verified = ?", completionID, false).
			Updates(map[string]interface{}{
				"is_verified": true,
				"verified_at": now,
				"verified_by": reviewerID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already verified: idempotent, never double-credit.
			return nil
		}

		if err := e.credit(tx, completion.UserID, completion.PointsEarned, completion.CFAEarned); err != nil {
			return err
		}
		trx := models.Transaction{
			UserID:          completion.UserID,
			TransactionType: models.TransactionTypeEarning,
			AmountCFA:       completion.CFAEarned,
			Points:          completion.PointsEarned,
			Status:          models.TransactionStatusCompleted,
			Reference:       newReference(),
		}
		return tx.Create(&trx).Error
	})
}

// RejectSubmission deletes a pending completion. No credit is ever granted
// and the user may not resubmit: the task's completion counter is NOT
// restored, so a rejected submission permanently consumes one capacity slot.
// That mirrors the production behavior; see DESIGN.md before changing it.
func (e *Engine) RejectSubmission(ctx context.Context, completionID uint) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var completion models.TaskCompletion
		if err := tx.First(&completion, completionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCompletionNotFound
			}
			return err
		}
		if completion.IsVerified {
			return ErrAlreadyVerified
		}
		return tx.Delete(&models.TaskCompletion{}, completionID).Error
	})
}

// RequestWithdrawal debits the available balance and opens a pending
// withdrawal transaction carrying the payout destination. The debit is a
// compare-and-swap: the WHERE clause re-checks the balance so concurrent
// requests cannot overdraw.
func (e *Engine) RequestWithdrawal(ctx context.Context, userID uint, amount decimal.Decimal, pin string) (*models.Transaction, error) {
	var trx models.Transaction
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile models.UserProfile
		if err := tx.Where("user_id = ?", userID).First(&profile).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSetupIncomplete
			}
			return err
		}
		if !profile.HasWithdrawalSetup() || !profile.IsEmailVerified || !profile.IsWithdrawalVerified {
			return ErrSetupIncomplete
		}
		if *profile.WithdrawalPIN != pin {
			return ErrInvalidPin
		}
		if amount.LessThan(e.cfg.MinWithdrawalCFA) {
			return ErrBelowMinimum
		}

		res := tx.Model(&models.UserProfile{}).
			Where("user_id = ? AND available_balance_cfa >= ?", userID, amount).
			UpdateColumn("available_balance_cfa", gorm.Expr("available_balance_cfa - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		trx = models.Transaction{
			UserID:              userID,
			TransactionType:     models.TransactionTypeWithdrawal,
			AmountCFA:           amount,
			Status:              models.TransactionStatusPending,
			PhoneNumber:         profile.PhoneNumber,
			MobileMoneyProvider: profile.MobileMoneyProvider,
			Reference:           newReference(),
		}
		return tx.Create(&trx).Error
	})
	if err != nil {
		return nil, err
	}
	return &trx, nil
}

// SettleWithdrawal is the admin settlement action. Approval only flips the
// status; rejection also refunds the debited amount so the ledger stays
// conservation-correct. Both transitions are guarded on status=pending and
// therefore settle at most once.
func (e *Engine) SettleWithdrawal(ctx context.Context, transactionID uint, adminID int64, approve bool) (*models.Transaction, error) {
	var trx models.Transaction
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&trx, transactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		if trx.TransactionType != models.TransactionTypeWithdrawal {
			return ErrTransactionNotFound
		}

		status := models.TransactionStatusApproved
		if !approve {
			status = models.TransactionStatusRejected
		}
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", transactionID, models.TransactionStatusPending).
			Updates(map[string]interface{}{
				"status":       status,
				"processed_by": adminID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadySettled
		}

		if !approve {
			refund := tx.Model(&models.UserProfile{}).
				Where("user_id = ?", trx.UserID).
				UpdateColumn("available_balance_cfa", gorm.Expr("available_balance_cfa + ?", trx.AmountCFA))
			if refund.Error != nil {
				return refund.Error
			}
			if refund.RowsAffected == 0 {
				return fmt.Errorf("refund: no profile for user %d", trx.UserID)
			}
		}
		trx.Status = status
		trx.ProcessedBy = &adminID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &trx, nil
}

// CreateTask enforces the influencer budget gate: the task's theoretical
// maximum spend is reserved against the budget up front, at creation time,
// regardless of how many completions the task ever reaches. A zero budget
// limit means unlimited.
func (e *Engine) CreateTask(ctx context.Context, influencerUserID uint, task *models.Task) error {
	if task.CFAValue.IsZero() {
		task.CFAValue = PointsToCFA(task.Points)
	}
	totalCost := task.CFAValue.Mul(decimal.NewFromInt(int64(task.MaxCompletions)))

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile models.InfluencerProfile
		if err := tx.Where("user_id = ?", influencerUserID).First(&profile).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInfluencerNotFound
			}
			return err
		}

		res := tx.Model(&models.InfluencerProfile{}).
			Where("user_id = ? AND (budget_limit_cfa = 0 OR total_budget_spent + ? <= budget_limit_cfa)",
				influencerUserID, totalCost).
			Updates(map[string]interface{}{
				"total_budget_spent":  gorm.Expr("total_budget_spent + ?", totalCost),
				"total_tasks_created": gorm.Expr("total_tasks_created + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBudgetExceeded
		}

		task.CreatedBy = influencerUserID
		task.Status = models.TaskStatusActive
		return tx.Create(task).Error
	})
}

// credit adds the earned points and money to the user's profile with
// in-database arithmetic (no read-modify-write in Go).
func (e *Engine) credit(tx *gorm.DB, userID uint, points int, amount decimal.Decimal) error {
	res := tx.Model(&models.UserProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_points":          gorm.Expr("total_points + ?", points),
			"total_earned_cfa":      gorm.Expr("total_earned_cfa + ?", amount),
			"available_balance_cfa": gorm.Expr("available_balance_cfa + ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("credit: no profile for user %d", userID)
	}
	return nil
}

// consumeCapacity increments the completion counter only while the task is
// available; the WHERE clause is the availability check, so the increment
// can never push the counter past max_completions.
func consumeCapacity(tx *gorm.DB, taskID uint) error {
	res := tx.Model(&models.Task{}).
		Where("id = ? AND status = ? AND current_completions < max_completions AND (expires_at IS NULL OR expires_at > ?)",
			taskID, models.TaskStatusActive, time.Now()).
		UpdateColumn("current_completions", gorm.Expr("current_completions + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTaskUnavailable
	}
	return nil
}

func loadTask(tx *gorm.DB, taskID uint) (*models.Task, error) {
	var task models.Task
	if err := tx.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func newReference() string {
	return "KEN-" + uuid.NewString()
}
