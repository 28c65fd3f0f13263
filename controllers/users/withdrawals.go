package users

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

	"github.com/shopspring/decimal"
)

type WithdrawalSetupRequest struct {
	PhoneNumber         string `json:"phone_number" validate:"required,phone"`
	MobileMoneyProvider string `json:"mobile_money_provider" validate:"required"`
	PIN                 string `json:"pin" validate:"required,pin"`
}

// POST /v1/users/withdrawals/setup
// Stores PIN and payout destination, emails a verification code.
func WithdrawalSetupHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req WithdrawalSetupRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	verification, err := ledger.Default().SetupWithdrawal(r.Context(), uid, req.PhoneNumber, req.MobileMoneyProvider, req.PIN)
	if err != nil {
		log.Printf("[withdrawal-setup] user=%d error: %v", uid, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, uid).Error; err == nil {
		go utils.SendOTPEmail(user.Email, verification.OTPCode, time.Until(verification.ExpiresAt))
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Withdrawal setup saved, check your email for the verification code",
	})
}

type WithdrawalVerifyRequest struct {
	Code string `json:"code" validate:"required,pin"`
}

// POST /v1/users/withdrawals/verify
func WithdrawalVerifyHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req WithdrawalVerifyRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	if err := ledger.Default().VerifyWithdrawalEmail(r.Context(), uid, req.Code); err != nil {
		if errors.Is(err, ledger.ErrOTPInvalid) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid or expired code"})
			return
		}
		log.Printf("[withdrawal-verify] user=%d error: %v", uid, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Withdrawals unlocked"})
}

type WithdrawalRequest struct {
	AmountCFA decimal.Decimal `json:"amount_cfa"`
	PIN       string          `json:"pin" validate:"required,pin"`
}

// POST /v1/users/withdrawals
func WithdrawalRequestHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req WithdrawalRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if req.AmountCFA.LessThanOrEqual(decimal.Zero) {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "amount_cfa must be positive"})
		return
	}

	trx, err := ledger.Default().RequestWithdrawal(r.Context(), uid, req.AmountCFA, req.PIN)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrSetupIncomplete):
			utils.WriteJSON(w, http.StatusPreconditionFailed, utils.APIResponse{Success: false, Message: "Complete and verify withdrawal setup first"})
		case errors.Is(err, ledger.ErrInvalidPin):
			utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Incorrect PIN"})
		case errors.Is(err, ledger.ErrBelowMinimum):
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Amount is below the minimum withdrawal"})
		case errors.Is(err, ledger.ErrInsufficientBalance):
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Insufficient balance"})
		default:
			log.Printf("[withdrawal] user=%d error: %v", uid, err)
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		}
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Withdrawal requested, pending review",
		Data:    trx,
	})
}

// GET /v1/users/withdrawals
func WithdrawalListHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var withdrawals []models.Transaction
	err := database.DB.WithContext(r.Context()).
		Where("user_id = ? AND transaction_type = ?", uid, models.TransactionTypeWithdrawal).
		Order("id DESC").
		Find(&withdrawals).Error
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: withdrawals})
}
