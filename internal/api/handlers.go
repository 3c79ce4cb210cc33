// Package api exposes the engine and its persistence collaborator over HTTP.
// The four analysis endpoints mirror the orchestrator operations; the rest is
// the thin CRUD surface the store provides.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smart-todo-backend/internal/scoring"
	"smart-todo-backend/internal/suggest"
	"smart-todo-backend/internal/tasks"
)

// How many recent context entries inform a suggestion request.
const suggestionContextLimit = 10

// Store is the slice of the persistence collaborator the handlers consume.
// *tasks.Store satisfies it; tests substitute fakes.
type Store interface {
	ListTasks(ctx context.Context) ([]tasks.Task, error)
	OverdueTasks(ctx context.Context, now time.Time) ([]tasks.Task, error)
	CreateTask(ctx context.Context, in tasks.CreateTaskInput) (tasks.Task, error)
	UpdateTaskStatus(ctx context.Context, id uuid.UUID, status tasks.Status) error
	CategoryName(ctx context.Context, ref string) (string, error)
	ListCategories(ctx context.Context) ([]tasks.Category, error)
	PopularCategories(ctx context.Context, limit int) ([]tasks.Category, error)
	CreateContext(ctx context.Context, content string, sourceType tasks.SourceType, insights tasks.ProcessedInsights) (tasks.ContextEntry, error)
	RecentContexts(ctx context.Context, limit int) ([]tasks.ContextEntry, error)
	ContextsSince(ctx context.Context, cutoff time.Time) ([]tasks.ContextEntry, error)
	Workload(ctx context.Context) (tasks.Workload, error)
	Snapshot(ctx context.Context) ([]tasks.Task, []tasks.ContextEntry, error)
}

type Handler struct {
	store  Store
	engine *suggest.Orchestrator
	logger *zap.Logger
	now    func() time.Time
}

func New(store Store, engine *suggest.Orchestrator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:  store,
		engine: engine,
		logger: logger,
		now:    time.Now,
	}
}

// Register wires every route onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/suggestions", h.postOnly(h.handleSuggestions))
	mux.HandleFunc("/process-context", h.postOnly(h.handleProcessContext))
	mux.HandleFunc("/calculate-priority", h.postOnly(h.handleCalculatePriority))
	mux.HandleFunc("/generate-insights", h.postOnly(h.handleGenerateInsights))

	mux.HandleFunc("/tasks", h.handleTasks)
	mux.HandleFunc("/tasks/", h.handleTaskSubroutes)
	mux.HandleFunc("/categories", h.getOnly(h.handleListCategories))
	mux.HandleFunc("/categories/popular", h.getOnly(h.handlePopularCategories))
	mux.HandleFunc("/contexts", h.handleContexts)
}

func (h *Handler) postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			next(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (h *Handler) getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			next(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

// ----- engine endpoints -----

type suggestionsRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *Handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	var req suggestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	recent, err := h.store.RecentContexts(r.Context(), suggestionContextLimit)
	if err != nil {
		h.logger.Error("load recent contexts", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "db query error")
		return
	}
	workload, err := h.store.Workload(r.Context())
	if err != nil {
		h.logger.Error("load workload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "db query error")
		return
	}

	suggestion, err := h.engine.Suggest(r.Context(), req.Title, req.Description, recent, workload)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

type processContextRequest struct {
	Content    string `json:"content"`
	SourceType string `json:"source_type"`
}

func (h *Handler) handleProcessContext(w http.ResponseWriter, r *http.Request) {
	var req processContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	insights, err := h.engine.ProcessContext(r.Context(), req.Content, tasks.ValidSourceType(req.SourceType))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

type calculatePriorityRequest struct {
	TaskData struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		CategoryID  string  `json:"category_id"`
		Deadline    *string `json:"deadline"`
	} `json:"task_data"`
}

type priorityResponse struct {
	PriorityScore float64        `json:"priority_score"`
	Priority      tasks.Priority `json:"priority"`
	Reasoning     string         `json:"reasoning"`
}

func (h *Handler) handleCalculatePriority(w http.ResponseWriter, r *http.Request) {
	var req calculatePriorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	deadline, err := parseDeadline(req.TaskData.Deadline)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deadline")
		return
	}

	category := ""
	if req.TaskData.CategoryID != "" {
		// Unresolvable references degrade to the default category rather
		// than failing the request.
		category, err = h.store.CategoryName(r.Context(), req.TaskData.CategoryID)
		if err != nil {
			h.logger.Error("resolve category", zap.Error(err))
			category = ""
		}
	}

	workload, err := h.store.Workload(r.Context())
	if err != nil {
		h.logger.Error("load workload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "db query error")
		return
	}

	result, err := h.engine.CalculatePriority(r.Context(), scoring.Input{
		Title:       req.TaskData.Title,
		Description: req.TaskData.Description,
		Category:    category,
		Deadline:    deadline,
		Workload:    workload,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, priorityResponse{
		PriorityScore: result.Score,
		Priority:      result.Label,
		Reasoning:     result.Reasoning,
	})
}

func (h *Handler) handleGenerateInsights(w http.ResponseWriter, r *http.Request) {
	taskList, entries, err := h.store.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("load snapshot", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "db query error")
		return
	}
	writeJSON(w, http.StatusOK, h.engine.GenerateInsights(taskList, entries))
}

// parseDeadline accepts RFC 3339 timestamps and bare dates.
func parseDeadline(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, *raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
