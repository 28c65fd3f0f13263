package admins

import (
	"net/http"
	"strconv"

	"github.com/Asabi89/ken/database"
	"github.com/Asabi89/ken/models"
	"github.com/Asabi89/ken/utils"
)

// GET /v1/admin/transactions
func GetTransactions(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	txType := r.URL.Query().Get("type")
	status := r.URL.Query().Get("status")
	userID := r.URL.Query().Get("user_id")

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := database.DB.Model(&models.Transaction{})
	if txType != "" {
		query = query.Where("transaction_type = ?", txType)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error"})
		return
	}

	var transactions []models.Transaction
	err := query.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&transactions).Error
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"transactions": transactions,
			"total":        total,
			"page":         page,
			"limit":        limit,
		},
	})
}
