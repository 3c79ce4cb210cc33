package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smart-todo-backend/internal/scoring"
	"smart-todo-backend/internal/tasks"
)

// taskResponse adds the derived fields the model never stores.
type taskResponse struct {
	tasks.Task
	IsOverdue         bool `json:"is_overdue"`
	DaysUntilDeadline *int `json:"days_until_deadline"`
}

func (h *Handler) toTaskResponse(t tasks.Task) taskResponse {
	now := h.now()
	return taskResponse{
		Task:              t,
		IsOverdue:         t.IsOverdue(now),
		DaysUntilDeadline: t.DaysUntilDeadline(now),
	}
}

func (h *Handler) toTaskResponses(list []tasks.Task) []taskResponse {
	out := make([]taskResponse, 0, len(list))
	for _, t := range list {
		out = append(out, h.toTaskResponse(t))
	}
	return out
}

func (h *Handler) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListTasks(w, r)
	case http.MethodPost:
		h.handleCreateTask(w, r)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListTasks(r.Context())
	if err != nil {
		h.logger.Error("list tasks", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "db query error")
		return
	}
	writeJSON(w, http.StatusOK, h.toTaskResponses(list))
}

type createTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CategoryID  string   `json:"category_id"`
	Deadline    *string  `json:"deadline"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
}

// handleCreateTask persists a task with its deterministic priority computed
// at creation time.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deadline")
		return
	}

	workload, err := h.store.Workload(r.Context())
	if err != nil {
		h.logger.Error("load workload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "db query error")
		return
	}

	category := ""
	if req.CategoryID != "" {
		category, err = h.store.CategoryName(r.Context(), req.CategoryID)
		if err != nil {
			h.logger.Error("resolve category", zap.Error(err))
			category = ""
		}
	}

	scored, err := scoring.Score(scoring.Input{
		Title:       req.Title,
		Description: req.Description,
		Category:    category,
		Deadline:    deadline,
		Workload:    workload,
		Now:         h.now(),
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	created, err := h.store.CreateTask(r.Context(), tasks.CreateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		CategoryRef:   req.CategoryID,
		Priority:      scored.Label,
		PriorityScore: scored.Score,
		Deadline:      deadline,
		Status:        tasks.Status(req.Status),
		Tags:          req.Tags,
	})
	if err != nil {
		h.logger.Error("create task", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "db insert error")
		return
	}
	writeJSON(w, http.StatusCreated, h.toTaskResponse(created))
}

// handleTaskSubroutes serves /tasks/overdue and /tasks/{id}/status.
func (h *Handler) handleTaskSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/tasks/"), "/")
	parts := strings.Split(rest, "/")

	switch {
	case rest == "overdue" && r.Method == http.MethodGet:
		h.handleOverdueTasks(w, r)
	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPost:
		h.handleUpdateTaskStatus(w, r, parts[0])
	case r.Method == http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) handleOverdueTasks(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.OverdueTasks(r.Context(), h.now())
	if err != nil {
		h.logger.Error("list overdue tasks", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "db query error")
		return
	}
	writeJSON(w, http.StatusOK, h.toTaskResponses(list))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateTaskStatus(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	status := tasks.Status(req.Status)
	switch status {
	case tasks.StatusTodo, tasks.StatusInProgress, tasks.StatusCompleted:
	default:
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if err := h.store.UpdateTaskStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		h.logger.Error("update task status", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "db update error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("list categories", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "db query error")
		return
	}
	if list == nil {
		list = []tasks.Category{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handlePopularCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.PopularCategories(r.Context(), 5)
	if err != nil {
		h.logger.Error("popular categories", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "db query error")
		return
	}
	if list == nil {
		list = []tasks.Category{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleContexts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListContexts(w, r)
	case http.MethodPost:
		h.handleCreateContext(w, r)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleListContexts(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid days")
			return
		}
		days = n
	}

	entries, err := h.store.ContextsSince(r.Context(), h.now().AddDate(0, 0, -days))
	if err != nil {
		h.logger.Error("list contexts", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "db query error")
		return
	}
	if entries == nil {
		entries = []tasks.ContextEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type createContextRequest struct {
	Content    string `json:"content"`
	SourceType string `json:"source_type"`
}

// handleCreateContext analyzes the entry and stores it with its insights
// attached in one step; insights never change afterwards.
func (h *Handler) handleCreateContext(w http.ResponseWriter, r *http.Request) {
	var req createContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	sourceType := tasks.ValidSourceType(req.SourceType)
	insights, err := h.engine.ProcessContext(r.Context(), req.Content, sourceType)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	entry, err := h.store.CreateContext(r.Context(), req.Content, sourceType, insights)
	if err != nil {
		h.logger.Error("create context", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "db insert error")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
