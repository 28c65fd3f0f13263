package admins

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Asabi89/ken/database"
	"github.com/Asabi89/ken/middleware"
	"github.com/Asabi89/ken/models"
	"github.com/Asabi89/ken/utils"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// GET /v1/admin/influencers
func GetInfluencers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	status := r.URL.Query().Get("status")

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := database.DB.Model(&models.InfluencerProfile{}).
		Joins("JOIN users ON influencer_profiles.user_id = users.id")
	if status != "" {
		query = query.Where("influencer_profiles.status = ?", status)
	}

	type InfluencerWithUser struct {
		models.InfluencerProfile
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	var total int64
	query.Count(&total)

	var influencers []InfluencerWithUser
	query.Select("influencer_profiles.*, users.username, users.email").
		Offset((page - 1) * limit).
		Limit(limit).
		Order("influencer_profiles.created_at DESC").
		Find(&influencers)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"influencers": influencers,
			"total":       total,
			"page":        page,
			"limit":       limit,
		},
	})
}

type ApproveInfluencerRequest struct {
	BudgetLimitCFA decimal.Decimal `json:"budget_limit_cfa"`
}

// POST /v1/admin/influencers/{id}/approve
// Approval optionally sets a budget cap; zero means unlimited.
func ApproveInfluencer(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetAdminID(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid influencer id"})
		return
	}

	// body is optional; absent or empty means unlimited budget
	var req ApproveInfluencerRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.BudgetLimitCFA.IsNegative() {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "budget_limit_cfa cannot be negative"})
		return
	}

	now := time.Now()
	res := database.DB.Model(&models.InfluencerProfile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           models.InfluencerStatusApproved,
			"budget_limit_cfa": req.BudgetLimitCFA,
			"approved_at":      now,
			"approved_by":      adminID,
		})
	if res.Error != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	if res.RowsAffected == 0 {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Influencer not found"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Influencer approved"})
}

func setInfluencerStatus(w http.ResponseWriter, r *http.Request, status, okMsg string) {
	if _, ok := middleware.GetAdminID(r); !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid influencer id"})
		return
	}

	res := database.DB.Model(&models.InfluencerProfile{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	if res.RowsAffected == 0 {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Influencer not found"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: okMsg})
}

// POST /v1/admin/influencers/{id}/reject
func RejectInfluencer(w http.ResponseWriter, r *http.Request) {
	setInfluencerStatus(w, r, models.InfluencerStatusRejected, "Influencer rejected")
}

// POST /v1/admin/influencers/{id}/suspend
// Suspension blocks new task creation; existing tasks keep running until
// paused individually.
func SuspendInfluencer(w http.ResponseWriter, r *http.Request) {
	setInfluencerStatus(w, r, models.InfluencerStatusSuspended, "Influencer suspended")
}
