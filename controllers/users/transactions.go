package users

import (
	"net/http"
	"strconv"

	"github.com/Asabi89/ken/database"
	"github.com/Asabi89/ken/models"
	"github.com/Asabi89/ken/utils"
)

// GET /v1/users/transactions
func TransactionListHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := database.DB.WithContext(r.Context()).
		Model(&models.Transaction{}).
		Where("user_id = ?", uid)
	if t := q.Get("type"); t != "" {
		query = query.Where("transaction_type = ?", t)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error"})
		return
	}

	var transactions []models.Transaction
	err := query.Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&transactions).Error
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
