package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Asabi89/ken/database"
	"github.com/Asabi89/ken/ledger"
	"github.com/Asabi89/ken/middleware"
	"github.com/Asabi89/ken/models"
	"github.com/Asabi89/ken/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Username             string `json:"username" validate:"required,username"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,pwdmin"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	db := database.DB

	var existing models.User
	if err := db.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error; err == nil {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Username or email already taken"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[register] DB error checking uniqueness: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	newUser := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		Role:     "user",
	}

	// user row and its empty profile are created together
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newUser).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserProfile{UserID: newUser.ID}).Error
	})
	if err != nil {
		log.Printf("[register] DB Create user error: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Registration failed, please try again"})
		return
	}

	// verification code goes out best-effort; a mail failure must not lose
	// the newly created account
	if verification, err := ledger.Default().IssueOTP(r.Context(), newUser.ID); err == nil {
		go utils.SendOTPEmail(newUser.Email, verification.OTPCode, time.Until(verification.ExpiresAt))
	} else {
		log.Printf("[register] IssueOTP error: %v", err)
	}

	tokenExpiry := 15 * time.Minute
	exp := time.Now().Add(tokenExpiry)

	accessToken, err := utils.GenerateAccessTokenWithExpiry(newUser.ID, "user", tokenExpiry)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to create token"})
		return
	}
	refreshToken, err := utils.GenerateRefreshToken(newUser.ID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to store refresh token"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Registration successful, welcome!",
		Data: map[string]interface{}{
			"access_token":  accessToken,
			"access_expire": exp.UTC().Format(time.RFC3339),
			"refresh_token": refreshToken,
			"user": map[string]interface{}{
				"id":       newUser.ID,
				"username": newUser.Username,
				"email":    newUser.Email,
				"role":     newUser.Role,
			},
		},
	})
}
