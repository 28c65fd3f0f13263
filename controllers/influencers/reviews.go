package influencers

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

// GET /v1/influencers/submissions
// Pending proof submissions across the caller's tasks, with short-lived
// signed URLs so the proofs bucket never needs to be public.
func PendingSubmissionsHandler(w http.ResponseWriter, r *http.Request) {
	uid, _, ok := requireApproved(w, r)
	if !ok {
		return
	}

	var completions []models.TaskCompletion
	err := database.DB.WithContext(r.Context()).
		Preload("Task").
		Joins("JOIN tasks ON tasks.id = task_completions.task_id").
		Where("tasks.created_by = ? AND task_completions.is_verified = ? AND task_completions.proof_object_key IS NOT NULL", uid, false).
		Order("task_completions.completed_at ASC").
		Find(&completions).Error
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error"})
		return
	}

	resp := make([]map[string]interface{}, 0, len(completions))
	for _, c := range completions {
		var proofURL string
		if c.ProofObjectKey != nil {
			if url, err := utils.GenerateSignedURL(*c.ProofObjectKey, 900); err == nil {
				proofURL = url
			} else {
				log.Printf("[submissions] presign %s error: %v", *c.ProofObjectKey, err)
			}
		}
		resp = append(resp, map[string]interface{}{
			"completion":   c,
			"proof_url":    proofURL,
			"task_id":      c.TaskID,
			"submitted_at": c.CompletedAt,
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: resp})
}

// ownsCompletion checks that the completion's task belongs to the caller.
func ownsCompletion(uid uint, completionID uint) (bool, error) {
	var count int64
	err := database.DB.Model(&models.TaskCompletion{}).
		Joins("JOIN tasks ON tasks.id = task_completions.task_id").
		Where("task_completions.id = ? AND tasks.created_by = ?", completionID, uid).
		Count(&count).Error
	return count > 0, err
}

// POST /v1/influencers/submissions/{id}/approve
func ApproveSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	uid, _, ok := requireApproved(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid submission id"})
		return
	}

	owns, err := ownsCompletion(uid, uint(id))
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	if !owns {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Submission not found"})
		return
	}

	if err := ledger.Default().ApproveSubmission(r.Context(), uint(id), uid); err != nil {
		if errors.Is(err, ledger.ErrCompletionNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Submission not found"})
			return
		}
		log.Printf("[approve] user=%d completion=%d error: %v", uid, id, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Submission approved, reward credited"})
}

// POST /v1/influencers/submissions/{id}/reject
func RejectSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	uid, _, ok := requireApproved(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid submission id"})
		return
	}

	owns, err := ownsCompletion(uid, uint(id))
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	if !owns {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Submission not found"})
		return
	}

	// fetch the proof key before the row goes away
	var completion models.TaskCompletion
	_ = database.DB.First(&completion, id).Error

	if err := ledger.Default().RejectSubmission(r.Context(), uint(id)); err != nil {
		switch {
		case errors.Is(err, ledger.ErrCompletionNotFound):
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Submission not found"})
		case errors.Is(err, ledger.ErrAlreadyVerified):
			utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Submission was already approved"})
		default:
			log.Printf("[reject] user=%d completion=%d error: %v", uid, id, err)
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		}
		return
	}

	if completion.ProofObjectKey != nil {
		_ = utils.DeleteFromS3(*completion.ProofObjectKey)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Submission rejected"})
}
