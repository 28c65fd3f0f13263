package admins

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/Asabi89/ken/database"
	"github.com/Asabi89/ken/ledger"
	"github.com/Asabi89/ken/middleware"
	"github.com/Asabi89/ken/models"
	"github.com/Asabi89/ken/utils"

	"github.com/gorilla/mux"
)

// GET /v1/admin/withdrawals
func GetWithdrawals(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	status := r.URL.Query().Get("status")
	userID := r.URL.Query().Get("user_id")
	reference := r.URL.Query().Get("search")

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	db := database.DB
	query := db.Model(&models.Transaction{}).
		Joins("JOIN users ON transactions.user_id = users.id").
		Where("transactions.transaction_type = ?", models.TransactionTypeWithdrawal)

	if status != "" {
		query = query.Where("transactions.status = ?", status)
	}
	if userID != "" {
		query = query.Where("transactions.user_id = ?", userID)
	}
	if reference != "" {
		query = query.Where("transactions.reference LIKE ?", "%"+reference+"%")
	}

	type WithdrawalWithUser struct {
		models.Transaction
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	var total int64
	query.Count(&total)

	var withdrawals []WithdrawalWithUser
	query.Select("transactions.*, users.username, users.email").
		Offset(offset).
		Limit(limit).
		Order("transactions.created_at DESC").
		Find(&withdrawals)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"withdrawals": withdrawals,
			"total":       total,
			"page":        page,
			"limit":       limit,
		},
	})
}

func settleWithdrawal(w http.ResponseWriter, r *http.Request, approve bool) {
	adminID, ok := middleware.GetAdminID(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid withdrawal id"})
		return
	}

	trx, err := ledger.Default().SettleWithdrawal(r.Context(), uint(id), adminID, approve)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrTransactionNotFound):
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Withdrawal not found"})
		case errors.Is(err, ledger.ErrAlreadySettled):
			utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Withdrawal was already settled"})
		default:
			log.Printf("[settle-withdrawal] admin=%d id=%d error: %v", adminID, id, err)
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		}
		return
	}

	// notify the user best-effort
	var user models.User
	if err := database.DB.First(&user, trx.UserID).Error; err == nil {
		go utils.SendWithdrawalProcessedEmail(user.Email, trx.Reference, trx.Status)
	}

	msg := "Withdrawal approved"
	if !approve {
		msg = "Withdrawal rejected, balance refunded"
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: msg, Data: trx})
}

// POST /v1/admin/withdrawals/{id}/approve
func ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	settleWithdrawal(w, r, true)
}

// POST /v1/admin/withdrawals/{id}/reject
func RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	settleWithdrawal(w, r, false)
}
