package influencers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Asabi89/ken/database"
	"github.com/Asabi89/ken/ledger"
	"github.com/Asabi89/ken/middleware"
	"github.com/Asabi89/ken/models"
	"github.com/Asabi89/ken/utils"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// requireApproved loads the caller's influencer profile and enforces the
// verified + approved gate shared by every task-management endpoint.
func requireApproved(w http.ResponseWriter, r *http.Request) (uint, *models.InfluencerProfile, bool) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return 0, nil, false
	}

	var profile models.InfluencerProfile
	if err := database.DB.Where("user_id = ?", uid).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Influencer account required"})
			return 0, nil, false
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return 0, nil, false
	}

	if !profile.IsVerified {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Verify your email first"})
		return 0, nil, false
	}
	if profile.Status != models.InfluencerStatusApproved {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Influencer account is not approved"})
		return 0, nil, false
	}
	return uid, &profile, true
}

type TaskCreateRequest struct {
	Title           string          `json:"title" validate:"required"`
	TaskType        string          `json:"task_type" validate:"required"`
	Category        string          `json:"category"`
	VideoURL        string          `json:"video_url" validate:"required"`
	ChannelURL      *string         `json:"channel_url,omitempty"`
	Points          int             `json:"points"`
	CFAValue        decimal.Decimal `json:"cfa_value"`
	DurationSeconds int             `json:"duration_seconds"`
	MaxCompletions  int             `json:"max_completions"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
}

func validTaskType(t string) bool {
	switch t {
	case models.TaskTypeWatch, models.TaskTypeLike, models.TaskTypeSubscribe,
		models.TaskTypeQuestion, models.TaskTypeGame:
		return true
	}
	return false
}

// POST /v1/influencers/tasks
func TaskCreateHandler(w http.ResponseWriter, r *http.Request) {
	uid, _, ok := requireApproved(w, r)
	if !ok {
		return
	}

	var req TaskCreateRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	if !validTaskType(req.TaskType) {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Unknown task type"})
		return
	}
	if req.Points <= 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "points must be positive"})
		return
	}
	if req.MaxCompletions <= 0 {
		req.MaxCompletions = 100
	}
	if req.Category == "" {
		req.Category = "video"
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now()) {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "expires_at must be in the future"})
		return
	}

	task := models.Task{
		Title:           req.Title,
		TaskType:        req.TaskType,
		Category:        req.Category,
		VideoURL:        req.VideoURL,
		ChannelURL:      req.ChannelURL,
		Points:          req.Points,
		CFAValue:        req.CFAValue,
		DurationSeconds: req.DurationSeconds,
		MaxCompletions:  req.MaxCompletions,
		ExpiresAt:       req.ExpiresAt,
	}

	if err := ledger.Default().CreateTask(r.Context(), uid, &task); err != nil {
		switch {
		case errors.Is(err, ledger.ErrBudgetExceeded):
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Task cost exceeds your remaining budget"})
		case errors.Is(err, ledger.ErrInfluencerNotFound):
			utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Influencer account required"})
		default:
			log.Printf("[task-create] user=%d error: %v", uid, err)
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		}
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Task created", Data: task})
}

// GET /v1/influencers/tasks
func MyTasksHandler(w http.ResponseWriter, r *http.Request) {
	uid, _, ok := requireApproved(w, r)
	if !ok {
		return
	}

	var tasks []models.Task
	err := database.DB.WithContext(r.Context()).
		Where("created_by = ?", uid).
		Order("id DESC").
		Find(&tasks).Error
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: tasks})
}

// GET /v1/influencers/tasks/{id}
func MyTaskDetailHandler(w http.ResponseWriter, r *http.Request) {
	uid, _, ok := requireApproved(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid task id"})
		return
	}

	db := database.DB.WithContext(r.Context())

	var task models.Task
	if err := db.Where("id = ? AND created_by = ?", id, uid).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Task not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error"})
		return
	}

	var verified, pending int64
	db.Model(&models.TaskCompletion{}).Where("task_id = ? AND is_verified = ?", task.ID, true).Count(&verified)
	db.Model(&models.TaskCompletion{}).Where("task_id = ? AND is_verified = ?", task.ID, false).Count(&pending)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"task":                task,
			"verified_count":      verified,
			"pending_count":       pending,
			"available":           task.IsAvailable(time.Now()),
			"spent_cfa":           task.CFAValue.Mul(decimal.NewFromInt(int64(verified))),
			"reserved_budget_cfa": task.CFAValue.Mul(decimal.NewFromInt(int64(task.MaxCompletions))),
		},
	})
}

type TaskStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// PATCH /v1/influencers/tasks/{id}/status
// Owners can pause and reactivate their tasks. The completed status is a
// terminal owner-side archive.
func TaskStatusHandler(w http.ResponseWriter, r *http.Request) {
	uid, _, ok := requireApproved(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid task id"})
		return
	}

	var req TaskStatusRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	switch req.Status {
	case models.TaskStatusActive, models.TaskStatusPaused, models.TaskStatusCompleted:
	default:
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Unknown status"})
		return
	}

	res := database.DB.WithContext(r.Context()).
		Model(&models.Task{}).
		Where("id = ? AND created_by = ?", id, uid).
		Update("status", req.Status)
	if res.Error != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error"})
		return
	}
	if res.RowsAffected == 0 {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Task not found"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Task status updated"})
}
