package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-todo-backend/internal/suggest"
	"smart-todo-backend/internal/tasks"
)

var handlerNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

// fakeStore serves canned data in memory. Any error field set overrides the
// happy path for that method.
type fakeStore struct {
	tasks      []tasks.Task
	categories []tasks.Category
	contexts   []tasks.ContextEntry
	workload   tasks.Workload

	created       []tasks.CreateTaskInput
	statusUpdates map[uuid.UUID]tasks.Status

	failWorkload  bool
	missingStatus bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{statusUpdates: make(map[uuid.UUID]tasks.Status)}
}

func (f *fakeStore) ListTasks(ctx context.Context) ([]tasks.Task, error) {
	return f.tasks, nil
}

func (f *fakeStore) OverdueTasks(ctx context.Context, now time.Time) ([]tasks.Task, error) {
	out := []tasks.Task{}
	for _, t := range f.tasks {
		if t.IsOverdue(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateTask(ctx context.Context, in tasks.CreateTaskInput) (tasks.Task, error) {
	f.created = append(f.created, in)
	return tasks.Task{
		ID:            uuid.New(),
		Title:         in.Title,
		Description:   in.Description,
		Priority:      in.Priority,
		PriorityScore: in.PriorityScore,
		Deadline:      in.Deadline,
		Status:        tasks.StatusTodo,
		Tags:          in.Tags,
		CreatedAt:     handlerNow,
		UpdatedAt:     handlerNow,
	}, nil
}

func (f *fakeStore) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status tasks.Status) error {
	if f.missingStatus {
		return sql.ErrNoRows
	}
	f.statusUpdates[id] = status
	return nil
}

func (f *fakeStore) CategoryName(ctx context.Context, ref string) (string, error) {
	for _, c := range f.categories {
		if c.ID.String() == ref || c.Name == ref {
			return c.Name, nil
		}
	}
	return "", errors.New("no such category")
}

func (f *fakeStore) ListCategories(ctx context.Context) ([]tasks.Category, error) {
	return f.categories, nil
}

func (f *fakeStore) PopularCategories(ctx context.Context, limit int) ([]tasks.Category, error) {
	if len(f.categories) > limit {
		return f.categories[:limit], nil
	}
	return f.categories, nil
}

func (f *fakeStore) CreateContext(ctx context.Context, content string, sourceType tasks.SourceType, insights tasks.ProcessedInsights) (tasks.ContextEntry, error) {
	entry := tasks.ContextEntry{
		ID:         uuid.New(),
		Content:    content,
		SourceType: sourceType,
		Insights:   &insights,
		CreatedAt:  handlerNow,
		UpdatedAt:  handlerNow,
	}
	f.contexts = append(f.contexts, entry)
	return entry, nil
}

func (f *fakeStore) RecentContexts(ctx context.Context, limit int) ([]tasks.ContextEntry, error) {
	if len(f.contexts) > limit {
		return f.contexts[:limit], nil
	}
	return f.contexts, nil
}

func (f *fakeStore) ContextsSince(ctx context.Context, cutoff time.Time) ([]tasks.ContextEntry, error) {
	out := []tasks.ContextEntry{}
	for _, e := range f.contexts {
		if !e.CreatedAt.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) Workload(ctx context.Context) (tasks.Workload, error) {
	if f.failWorkload {
		return tasks.Workload{}, errors.New("boom")
	}
	return f.workload, nil
}

func (f *fakeStore) Snapshot(ctx context.Context) ([]tasks.Task, []tasks.ContextEntry, error) {
	return f.tasks, f.contexts, nil
}

func newTestHandler(store *fakeStore) *Handler {
	h := New(store, suggest.New(nil, time.Second, nil), nil)
	h.now = func() time.Time { return handlerNow }
	return h
}

func do(h *Handler, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	mux := http.NewServeMux()
	h.Register(mux)
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestHandleSuggestions(t *testing.T) {
	t.Run("returns the deterministic suggestion", func(t *testing.T) {
		store := newFakeStore()
		rec := do(newTestHandler(store), http.MethodPost, "/suggestions",
			map[string]string{"title": "Prepare the client report"})

		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[suggest.Suggestion](t, rec)
		require.NotNil(t, got.SuggestedCategory)
		assert.Equal(t, "Work", *got.SuggestedCategory)
		require.NotNil(t, got.SuggestedDeadline)
		require.NotNil(t, got.PriorityScore)
	})

	t.Run("empty title is a 400 naming the field", func(t *testing.T) {
		rec := do(newTestHandler(newFakeStore()), http.MethodPost, "/suggestions",
			map[string]string{"title": ""})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		got := decodeBody[map[string]string](t, rec)
		assert.Equal(t, "title is required", got["error"])
	})

	t.Run("invalid json is a 400", func(t *testing.T) {
		rec := do(newTestHandler(newFakeStore()), http.MethodPost, "/suggestions", "{not json")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store failure is a 500", func(t *testing.T) {
		store := newFakeStore()
		store.failWorkload = true
		rec := do(newTestHandler(store), http.MethodPost, "/suggestions",
			map[string]string{"title": "anything"})
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("GET is not allowed", func(t *testing.T) {
		rec := do(newTestHandler(newFakeStore()), http.MethodGet, "/suggestions", nil)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestHandleProcessContext(t *testing.T) {
	t.Run("analyzes the content", func(t *testing.T) {
		rec := do(newTestHandler(newFakeStore()), http.MethodPost, "/process-context",
			map[string]string{"content": "Need to send the invoice today!", "source_type": "email"})

		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[tasks.ProcessedInsights](t, rec)
		assert.NotEmpty(t, got.Keywords)
		assert.NotEmpty(t, got.ExtractedTasks)
	})

	t.Run("empty content is a 400 naming the field", func(t *testing.T) {
		rec := do(newTestHandler(newFakeStore()), http.MethodPost, "/process-context",
			map[string]string{"content": "", "source_type": "note"})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		got := decodeBody[map[string]string](t, rec)
		assert.Equal(t, "content is required", got["error"])
	})

	t.Run("unknown source type degrades to other", func(t *testing.T) {
		rec := do(newTestHandler(newFakeStore()), http.MethodPost, "/process-context",
			map[string]string{"content": "plain note", "source_type": "carrier-pigeon"})
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHandleCalculatePriority(t *testing.T) {
	t.Run("scores with a resolved category and deadline", func(t *testing.T) {
		store := newFakeStore()
		store.categories = []tasks.Category{{ID: uuid.New(), Name: "Work"}}

		body := map[string]any{"task_data": map[string]any{
			"title":       "File the compliance paperwork",
			"category_id": store.categories[0].ID.String(),
			"deadline":    handlerNow.AddDate(0, 0, 2).Format("2006-01-02"),
		}}
		rec := do(newTestHandler(store), http.MethodPost, "/calculate-priority", body)

		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[priorityResponse](t, rec)
		assert.Greater(t, got.PriorityScore, 0.0)
		assert.LessOrEqual(t, got.PriorityScore, 1.0)
		assert.NotEmpty(t, got.Priority)
		assert.NotEmpty(t, got.Reasoning)
	})

	t.Run("unresolvable category still scores", func(t *testing.T) {
		body := map[string]any{"task_data": map[string]any{
			"title":       "Water the plants",
			"category_id": "does-not-exist",
		}}
		rec := do(newTestHandler(newFakeStore()), http.MethodPost, "/calculate-priority", body)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bad deadline is a 400", func(t *testing.T) {
		body := map[string]any{"task_data": map[string]any{
			"title":    "Anything",
			"deadline": "next tuesday",
		}}
		rec := do(newTestHandler(newFakeStore()), http.MethodPost, "/calculate-priority", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		got := decodeBody[map[string]string](t, rec)
		assert.Equal(t, "invalid deadline", got["error"])
	})

	t.Run("missing title is a 400", func(t *testing.T) {
		body := map[string]any{"task_data": map[string]any{"description": "no title"}}
		rec := do(newTestHandler(newFakeStore()), http.MethodPost, "/calculate-priority", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleGenerateInsights(t *testing.T) {
	store := newFakeStore()
	deadline := handlerNow.AddDate(0, 0, -1)
	store.tasks = []tasks.Task{
		{ID: uuid.New(), Title: "done", Status: tasks.StatusCompleted, Priority: tasks.PriorityMedium, CreatedAt: handlerNow.AddDate(0, 0, -3)},
		{ID: uuid.New(), Title: "late", Status: tasks.StatusTodo, Priority: tasks.PriorityUrgent, Deadline: &deadline, CreatedAt: handlerNow.AddDate(0, 0, -3)},
	}

	rec := do(newTestHandler(store), http.MethodPost, "/generate-insights", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody[map[string]any](t, rec)
	assert.Contains(t, got, "productivity")
	assert.Contains(t, got, "burnout")
	assert.Contains(t, got, "recommendations")
}

func TestTaskRoutes(t *testing.T) {
	t.Run("create computes priority at creation time", func(t *testing.T) {
		store := newFakeStore()
		rec := do(newTestHandler(store), http.MethodPost, "/tasks", map[string]any{
			"title":    "Submit the urgent audit response",
			"deadline": handlerNow.AddDate(0, 0, 1).Format("2006-01-02"),
			"tags":     []string{"finance"},
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, store.created, 1)
		assert.NotZero(t, store.created[0].PriorityScore)
		assert.NotEmpty(t, store.created[0].Priority)

		got := decodeBody[map[string]any](t, rec)
		assert.Contains(t, got, "is_overdue")
		assert.Contains(t, got, "days_until_deadline")
	})

	t.Run("create without a title is a 400", func(t *testing.T) {
		rec := do(newTestHandler(newFakeStore()), http.MethodPost, "/tasks",
			map[string]any{"description": "orphan"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list decorates derived fields", func(t *testing.T) {
		store := newFakeStore()
		past := handlerNow.AddDate(0, 0, -2)
		store.tasks = []tasks.Task{{ID: uuid.New(), Title: "late", Status: tasks.StatusTodo, Deadline: &past}}

		rec := do(newTestHandler(store), http.MethodGet, "/tasks", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		got := decodeBody[[]map[string]any](t, rec)
		require.Len(t, got, 1)
		assert.Equal(t, true, got[0]["is_overdue"])
	})

	t.Run("overdue filters by deadline and status", func(t *testing.T) {
		store := newFakeStore()
		past := handlerNow.AddDate(0, 0, -2)
		future := handlerNow.AddDate(0, 0, 2)
		store.tasks = []tasks.Task{
			{ID: uuid.New(), Title: "late", Status: tasks.StatusTodo, Deadline: &past},
			{ID: uuid.New(), Title: "done late", Status: tasks.StatusCompleted, Deadline: &past},
			{ID: uuid.New(), Title: "upcoming", Status: tasks.StatusTodo, Deadline: &future},
		}

		rec := do(newTestHandler(store), http.MethodGet, "/tasks/overdue", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[[]map[string]any](t, rec)
		require.Len(t, got, 1)
		assert.Equal(t, "late", got[0]["title"])
	})

	t.Run("status update", func(t *testing.T) {
		store := newFakeStore()
		id := uuid.New()

		rec := do(newTestHandler(store), http.MethodPost, "/tasks/"+id.String()+"/status",
			map[string]string{"status": "completed"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, tasks.StatusCompleted, store.statusUpdates[id])
	})

	t.Run("status update rejects unknown status", func(t *testing.T) {
		rec := do(newTestHandler(newFakeStore()), http.MethodPost, "/tasks/"+uuid.NewString()+"/status",
			map[string]string{"status": "paused"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("status update on a missing task is a 404", func(t *testing.T) {
		store := newFakeStore()
		store.missingStatus = true
		rec := do(newTestHandler(store), http.MethodPost, "/tasks/"+uuid.NewString()+"/status",
			map[string]string{"status": "todo"})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed task id is a 400", func(t *testing.T) {
		rec := do(newTestHandler(newFakeStore()), http.MethodPost, "/tasks/not-a-uuid/status",
			map[string]string{"status": "todo"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestContextRoutes(t *testing.T) {
	t.Run("create analyzes and persists in one step", func(t *testing.T) {
		store := newFakeStore()
		rec := do(newTestHandler(store), http.MethodPost, "/contexts",
			map[string]string{"content": "Remember to call the vendor about pricing.", "source_type": "note"})

		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, store.contexts, 1)
		require.NotNil(t, store.contexts[0].Insights)
		assert.NotEmpty(t, store.contexts[0].Insights.Keywords)
	})

	t.Run("list filters by window", func(t *testing.T) {
		store := newFakeStore()
		store.contexts = []tasks.ContextEntry{
			{ID: uuid.New(), Content: "recent", CreatedAt: handlerNow.AddDate(0, 0, -1)},
			{ID: uuid.New(), Content: "stale", CreatedAt: handlerNow.AddDate(0, 0, -30)},
		}

		rec := do(newTestHandler(store), http.MethodGet, "/contexts?days=7", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[[]tasks.ContextEntry](t, rec)
		require.Len(t, got, 1)
		assert.Equal(t, "recent", got[0].Content)
	})

	t.Run("invalid days is a 400", func(t *testing.T) {
		rec := do(newTestHandler(newFakeStore()), http.MethodGet, "/contexts?days=zero", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCategoryRoutes(t *testing.T) {
	store := newFakeStore()
	for i, name := range []string{"Work", "Personal", "Health", "Learning", "Social", "Errands"} {
		store.categories = append(store.categories, tasks.Category{
			ID: uuid.New(), Name: name, UsageFrequency: 10 - i,
		})
	}

	t.Run("list", func(t *testing.T) {
		rec := do(newTestHandler(store), http.MethodGet, "/categories", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[[]tasks.Category](t, rec)
		assert.Len(t, got, 6)
	})

	t.Run("popular caps at five", func(t *testing.T) {
		rec := do(newTestHandler(store), http.MethodGet, "/categories/popular", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[[]tasks.Category](t, rec)
		assert.Len(t, got, 5)
	})

	t.Run("POST is not allowed", func(t *testing.T) {
		rec := do(newTestHandler(store), http.MethodPost, "/categories", nil)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
