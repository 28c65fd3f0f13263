package admins

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Asabi89/ken/database"
	"github.com/Asabi89/ken/middleware"
	"github.com/Asabi89/ken/models"
	"github.com/Asabi89/ken/utils"

	"gorm.io/gorm"
)

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,pwdmin"`
}

// POST /v1/admin/login
func AdminLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	var admin models.Admin
	err := database.DB.Where("username = ?", strings.TrimSpace(req.Username)).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Invalid username or password"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	if !admin.IsActive {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Account disabled"})
		return
	}

	if !admin.ValidatePassword(req.Password) {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Invalid username or password"})
		return
	}

	tokenExpiry := time.Hour
	exp := time.Now().Add(tokenExpiry)
	accessToken, err := utils.GenerateAccessTokenWithExpiry(uint(admin.ID), "admin", tokenExpiry)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Login failed"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Login successful",
		Data: map[string]interface{}{
			"access_token":  accessToken,
			"access_expire": exp.UTC().Format(time.RFC3339),
			"admin": map[string]interface{}{
				"id":       admin.ID,
				"username": admin.Username,
				"name":     admin.Name,
			},
		},
	})
}
