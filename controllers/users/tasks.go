package users

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Asabi89/ken/ledger"
	"github.com/Asabi89/ken/utils"

	"github.com/gorilla/mux"
)

// GET /v1/users/tasks
func TaskListHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	q := r.URL.Query()
	category := q.Get("category")
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	tasks, total, err := ledger.DefaultRegistry().ListAvailable(r.Context(), uid, category, page, limit)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error"})
		return
	}

	resp := make([]map[string]interface{}, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, map[string]interface{}{
			"id":               t.ID,
			"title":            t.Title,
			"task_type":        t.TaskType,
			"category":         t.Category,
			"video_url":        t.VideoURL,
			"channel_url":      t.ChannelURL,
			"points":           t.Points,
			"cfa_value":        t.CFAValue,
			"duration_seconds": t.DurationSeconds,
			"expires_at":       t.ExpiresAt,
			"requires_proof":   t.RequiresProof(),
			"slots_left":       t.MaxCompletions - t.CurrentCompletions,
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"tasks": resp,
			"total": total,
		},
	})
}

// GET /v1/users/tasks/{id}
func TaskDetailHandler(w http.ResponseWriter, r *http.Request) {
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

	registry := ledger.DefaultRegistry()
	task, err := registry.Get(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, ledger.ErrTaskNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Task not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error"})
		return
	}

	completed, err := registry.HasCompleted(r.Context(), uid, task.ID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"task":           task,
			"requires_proof": task.RequiresProof(),
			"available":      task.IsAvailable(time.Now()) && !completed,
			"has_completed":  completed,
		},
	})
}
