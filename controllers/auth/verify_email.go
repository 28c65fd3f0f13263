package auth

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Asabi89/ken/database"
	"github.com/Asabi89/ken/ledger"
	"github.com/Asabi89/ken/middleware"
	"github.com/Asabi89/ken/models"
	"github.com/Asabi89/ken/utils"
)

type VerifyEmailRequest struct {
	Code string `json:"code" validate:"required,pin"`
}

// VerifyEmailHandler redeems a pending verification code for the logged-in user.
func VerifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserID(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req VerifyEmailRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	if err := ledger.Default().VerifyWithdrawalEmail(r.Context(), userID, req.Code); err != nil {
		if errors.Is(err, ledger.ErrOTPInvalid) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid or expired code"})
			return
		}
		log.Printf("[verify-email] user=%d error: %v", userID, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err == nil {
		middleware.GetOTPRateLimiter().ResetEmailLimit(user.Email)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Email verified"})
}

// ResendCodeHandler issues a fresh verification code, throttled per email and IP.
func ResendCodeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserID(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}

	limiter := middleware.GetOTPRateLimiter()
	if allowed, wait, msg := limiter.CheckIPRateLimit(middleware.GetClientIP(r)); !allowed {
		utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
			Success: false, Message: msg,
			Data: map[string]interface{}{"retry_after_seconds": int(wait.Seconds())},
		})
		return
	}
	if allowed, wait, msg := limiter.CheckEmailRateLimit(user.Email); !allowed {
		utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
			Success: false, Message: msg,
			Data: map[string]interface{}{"retry_after_seconds": int(wait.Seconds())},
		})
		return
	}

	verification, err := ledger.Default().IssueOTP(r.Context(), userID)
	if err != nil {
		log.Printf("[resend-code] user=%d error: %v", userID, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	go utils.SendOTPEmail(user.Email, verification.OTPCode, time.Until(verification.ExpiresAt))

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Verification code sent"})
}
