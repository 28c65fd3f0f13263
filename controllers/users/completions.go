package users

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/Asabi89/ken/database"
	"github.com/Asabi89/ken/ledger"
	"github.com/Asabi89/ken/models"
	"github.com/Asabi89/ken/utils"

	"github.com/gorilla/mux"
)

// POST /v1/users/tasks/{id}/complete
// Direct-credit path for task types that need no proof.
func TaskCompleteHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid task id"})
		return
	}

	completion, err := ledger.Default().RecordDirectEarning(r.Context(), uid, uint(id))
	if err != nil {
		writeCompletionError(w, uid, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Task completed, reward credited",
		Data: map[string]interface{}{
			"completion":    completion,
			"points_earned": completion.PointsEarned,
			"cfa_earned":    completion.CFAEarned,
		},
	})
}

// POST /v1/users/tasks/{id}/submit
// Proof path: multipart upload, object stored in R2, completion stays pending.
func TaskSubmitHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid task id"})
		return
	}
	taskID := uint(id)

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("proof")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "proof file is required"})
		return
	}
	defer file.Close()

	objectKey := utils.NewProofObjectKey(taskID, header.Filename)
	if err := utils.UploadToS3(objectKey, file, header.Size); err != nil {
		log.Printf("[submit] proof upload user=%d task=%d error: %v", uid, taskID, err)
		utils.WriteJSON(w, http.StatusBadGateway, utils.APIResponse{Success: false, Message: "Proof upload failed, please retry"})
		return
	}

	completion, err := ledger.Default().RecordPendingSubmission(r.Context(), uid, taskID, objectKey)
	if err != nil {
		// the submission never went through; the uploaded object is orphaned
		// and cleaned up here
		_ = utils.DeleteFromS3(objectKey)
		writeCompletionError(w, uid, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Proof submitted, pending review",
		Data:    map[string]interface{}{"completion": completion},
	})
}

// GET /v1/users/completions
func MyCompletionsHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var completions []models.TaskCompletion
	err := database.DB.WithContext(r.Context()).
		Preload("Task").
		Where("user_id = ?", uid).
		Order("completed_at DESC").
		Find(&completions).Error
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: completions})
}

func writeCompletionError(w http.ResponseWriter, uid uint, err error) {
	switch {
	case errors.Is(err, ledger.ErrTaskNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Task not found"})
	case errors.Is(err, ledger.ErrTaskUnavailable):
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Task is no longer available"})
	case errors.Is(err, ledger.ErrAlreadyCompleted):
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "You have already completed this task"})
	case errors.Is(err, ledger.ErrProofRequired):
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "This task requires a proof submission"})
	case errors.Is(err, ledger.ErrProofNotAccepted):
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "This task does not accept proof submissions"})
	default:
		log.Printf("[completion] user=%d error: %v", uid, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
	}
}
