package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Asabi89/ken/database"
	"github.com/Asabi89/ken/middleware"
	"github.com/Asabi89/ken/models"
	"github.com/Asabi89/ken/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,pwdmin"`
}

func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	db := database.DB
	login := strings.TrimSpace(req.Username)

	var user models.User
	if err := db.Where("username = ? OR email = ?", login, strings.ToLower(login)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Invalid username or password"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	if locked, retry := middleware.IsAccountLocked(user.ID); locked {
		utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
			Success: false,
			Message: "Too many login attempts. Please try again later.",
			Data:    map[string]interface{}{"retry_after_seconds": int(retry.Seconds())},
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		middleware.RecordFailedLogin(user.ID)
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Invalid username or password"})
		return
	}

	middleware.ResetFailedLogin(user.ID)

	tokenExpiry := 15 * time.Minute
	exp := time.Now().Add(tokenExpiry)

	accessToken, err := utils.GenerateAccessTokenWithExpiry(user.ID, user.Role, tokenExpiry)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Login failed"})
		return
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to store refresh token"})
		return
	}

	var profile models.UserProfile
	_ = db.Where("user_id = ?", user.ID).First(&profile).Error

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Login successful",
		Data: map[string]interface{}{
			"access_token":  accessToken,
			"access_expire": exp.UTC().Format(time.RFC3339),
			"refresh_token": refreshToken,
			"user": map[string]interface{}{
				"id":                    user.ID,
				"username":              user.Username,
				"email":                 user.Email,
				"role":                  user.Role,
				"total_points":          profile.TotalPoints,
				"total_earned_cfa":      profile.TotalEarnedCFA,
				"available_balance_cfa": profile.AvailableBalanceCFA,
				"is_email_verified":     profile.IsEmailVerified,
			},
		},
	})
}
