package influencers

import (
	"net/http"

	"github.com/Asabi89/ken/database"
	"github.com/Asabi89/ken/models"
	"github.com/Asabi89/ken/utils"
)

// GET /v1/influencers/dashboard
func DashboardHandler(w http.ResponseWriter, r *http.Request) {
	uid, profile, ok := requireApproved(w, r)
	if !ok {
		return
	}

	db := database.DB.WithContext(r.Context())

	var activeTasks int64
	db.Model(&models.Task{}).Where("created_by = ? AND status = ?", uid, models.TaskStatusActive).Count(&activeTasks)

	var totalCompletions int64
	db.Model(&models.TaskCompletion{}).
		Joins("JOIN tasks ON tasks.id = task_completions.task_id").
		Where("tasks.created_by = ? AND task_completions.is_verified = ?", uid, true).
		Count(&totalCompletions)

	var pendingReviews int64
	db.Model(&models.TaskCompletion{}).
		Joins("JOIN tasks ON tasks.id = task_completions.task_id").
		Where("tasks.created_by = ? AND task_completions.is_verified = ? AND task_completions.proof_object_key IS NOT NULL", uid, false).
		Count(&pendingReviews)

	data := map[string]interface{}{
		"company_name":       profile.CompanyName,
		"status":             profile.Status,
		"budget_limit_cfa":   profile.BudgetLimitCFA,
		"total_budget_spent": profile.TotalBudgetSpent,
		"unlimited_budget":   profile.HasUnlimitedBudget(),
		"tasks_created":      profile.TotalTasksCreated,
		"active_tasks":       activeTasks,
		"total_completions":  totalCompletions,
		"pending_reviews":    pendingReviews,
	}
	if rem := profile.RemainingBudget(); rem != nil {
		data["remaining_budget_cfa"] = rem
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: data})
}
