package users

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Asabi89/ken/database"
	"github.com/Asabi89/ken/middleware"
	"github.com/Asabi89/ken/models"
	"github.com/Asabi89/ken/utils"

	"gorm.io/gorm"
)

// GET /v1/users/me
func ProfileHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	db := database.DB.WithContext(r.Context())

	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}
	var profile models.UserProfile
	if err := db.Where("user_id = ?", uid).First(&profile).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error"})
		return
	}

	var completedCount int64
	db.Model(&models.TaskCompletion{}).Where("user_id = ? AND is_verified = ?", uid, true).Count(&completedCount)
	var pendingCount int64
	db.Model(&models.TaskCompletion{}).Where("user_id = ? AND is_verified = ?", uid, false).Count(&pendingCount)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"user": map[string]interface{}{
				"id":       user.ID,
				"username": user.Username,
				"email":    user.Email,
				"role":     user.Role,
			},
			"profile":             profile,
			"has_withdrawal_setup": profile.HasWithdrawalSetup(),
			"completed_tasks":     completedCount,
			"pending_submissions": pendingCount,
		},
	})
}

type UpdateProfileRequest struct {
	Username string `json:"username" validate:"username"`
	Email    string `json:"email" validate:"email"`
}

// PUT /v1/users/me
// Changing the email drops both verification flags: withdrawals stay locked
// until the new address redeems a code.
func UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req UpdateProfileRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" && req.Email == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Nothing to update"})
		return
	}

	db := database.DB.WithContext(r.Context())

	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}

	emailChanged := req.Email != "" && req.Email != user.Email
	updates := map[string]interface{}{}
	if req.Username != "" && req.Username != user.Username {
		updates["username"] = req.Username
	}
	if emailChanged {
		updates["email"] = req.Email
	}
	if len(updates) == 0 {
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Nothing changed"})
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", uid).Updates(updates).Error; err != nil {
			return err
		}
		if emailChanged {
			return tx.Model(&models.UserProfile{}).Where("user_id = ?", uid).
				Updates(map[string]interface{}{
					"is_email_verified":      false,
					"is_withdrawal_verified": false,
				}).Error
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Username or email already taken"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Profile updated",
		Data: map[string]interface{}{
			"email_verification_required": emailChanged,
		},
	})
}
