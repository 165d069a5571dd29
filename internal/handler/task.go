package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rustamov/gift-market/internal/auth"
	"github.com/rustamov/gift-market/internal/model"
	"github.com/rustamov/gift-market/internal/service"
)

// TaskHandler serves the task list and completion endpoints.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

type listTasksResponse struct {
	Success bool         `json:"success"`
	Tasks   []model.Task `json:"tasks"`
}

// HandleList returns the active tasks.
//
// HTTP: GET /api/tasks
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List(r.Context())
	if err != nil {
		h.logger.Error("listing tasks failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	writeJSON(w, http.StatusOK, listTasksResponse{Success: true, Tasks: tasks})
}

type completeTaskResponse struct {
	Success bool `json:"success"`
	Reward  struct {
		Points int64 `json:"points"`
	} `json:"reward"`
}

// HandleComplete marks a task done for the authenticated user.
//
// HTTP: POST /api/tasks/complete/{taskId}
func (h *TaskHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := auth.TelegramIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	task, err := h.tasks.Complete(r.Context(), telegramID, chi.URLParam(r, "taskId"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := completeTaskResponse{Success: true}
	resp.Reward.Points = task.PointsReward
	writeJSON(w, http.StatusOK, resp)
}
