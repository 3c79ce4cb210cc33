package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

const defaultCategoryColor = "#3b82f6"

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type CreateTaskInput struct {
	Title         string
	Description   string
	CategoryRef   string // id or name; empty means uncategorized
	Priority      Priority
	PriorityScore float64
	Deadline      *time.Time
	Status        Status
	Tags          []string
}

const taskColumns = `
	t.id, t.title, t.description, t.priority, t.priority_score,
	t.deadline, t.status, t.tags, t.created_at, t.updated_at,
	c.id, c.name, c.color, c.usage_frequency, c.created_at, c.updated_at
`

// ListTasks returns every task, highest priority first.
func (s *Store) ListTasks(ctx context.Context) ([]Task, error) {
	return s.queryTasks(ctx, `
		SELECT `+taskColumns+`
		FROM tasks t
		LEFT JOIN categories c ON c.id = t.category_id
		ORDER BY t.priority_score DESC, t.deadline ASC NULLS LAST, t.created_at DESC`)
}

// OverdueTasks returns unfinished tasks whose deadline has passed.
func (s *Store) OverdueTasks(ctx context.Context, now time.Time) ([]Task, error) {
	return s.queryTasks(ctx, `
		SELECT `+taskColumns+`
		FROM tasks t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.deadline < $1 AND t.status <> 'completed'
		ORDER BY t.deadline ASC`, now)
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTask(rows *sql.Rows) (Task, error) {
	var t Task
	var deadline sql.NullTime
	var tags pq.StringArray
	var catID, catName, catColor sql.NullString
	var catUsage sql.NullInt64
	var catCreated, catUpdated sql.NullTime

	err := rows.Scan(
		&t.ID, &t.Title, &t.Description, &t.Priority, &t.PriorityScore,
		&deadline, &t.Status, &tags, &t.CreatedAt, &t.UpdatedAt,
		&catID, &catName, &catColor, &catUsage, &catCreated, &catUpdated,
	)
	if err != nil {
		return Task{}, fmt.Errorf("scan task: %w", err)
	}

	if deadline.Valid {
		d := deadline.Time
		t.Deadline = &d
	}
	t.Tags = []string(tags)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if catID.Valid {
		id, err := uuid.Parse(catID.String)
		if err != nil {
			return Task{}, fmt.Errorf("parse category id: %w", err)
		}
		t.Category = &Category{
			ID:             id,
			Name:           catName.String,
			Color:          catColor.String,
			UsageFrequency: int(catUsage.Int64),
			CreatedAt:      catCreated.Time,
			UpdatedAt:      catUpdated.Time,
		}
	}
	return t, nil
}

// CreateTask inserts a task, resolving its category by id, then by name,
// creating it if unknown. The category's usage counter is bumped in the same
// transaction, so it only ever moves forward with a successful insert.
func (s *Store) CreateTask(ctx context.Context, in CreateTaskInput) (Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Task{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var category *Category
	if in.CategoryRef != "" {
		category, err = resolveCategory(ctx, tx, in.CategoryRef)
		if err != nil {
			return Task{}, err
		}
	}

	t := Task{
		ID:            uuid.New(),
		Title:         in.Title,
		Description:   in.Description,
		Category:      category,
		Priority:      in.Priority,
		PriorityScore: in.PriorityScore,
		Deadline:      in.Deadline,
		Status:        in.Status,
		Tags:          in.Tags,
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}

	var categoryID any
	if category != nil {
		categoryID = category.ID
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO tasks (id, title, description, category_id, priority, priority_score, deadline, status, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		t.ID, t.Title, t.Description, categoryID, t.Priority, t.PriorityScore,
		nullTime(t.Deadline), t.Status, pq.Array(t.Tags),
	)
	if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}

	if category != nil {
		_, err = tx.ExecContext(ctx, `
			UPDATE categories SET usage_frequency = usage_frequency + 1, updated_at = now()
			WHERE id = $1`, category.ID)
		if err != nil {
			return Task{}, fmt.Errorf("bump category usage: %w", err)
		}
		category.UsageFrequency++
	}

	if err := tx.Commit(); err != nil {
		return Task{}, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}

// UpdateTaskStatus moves a task to a new status.
func (s *Store) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status Status) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func resolveCategory(ctx context.Context, tx *sql.Tx, ref string) (*Category, error) {
	var c Category

	query := `SELECT id, name, color, usage_frequency, created_at, updated_at FROM categories WHERE name = $1`
	if id, err := uuid.Parse(ref); err == nil {
		query = `SELECT id, name, color, usage_frequency, created_at, updated_at FROM categories WHERE id = $1`
		ref = id.String()
	}

	err := tx.QueryRowContext(ctx, query, ref).
		Scan(&c.ID, &c.Name, &c.Color, &c.UsageFrequency, &c.CreatedAt, &c.UpdatedAt)
	if err == nil {
		return &c, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("resolve category: %w", err)
	}

	// Unknown reference: create the category under that name.
	c = Category{ID: uuid.New(), Name: ref, Color: defaultCategoryColor}
	row := tx.QueryRowContext(ctx, `
		INSERT INTO categories (id, name, color) VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`, c.ID, c.Name, c.Color)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

// CategoryName resolves a category reference (id or name) to its name,
// returning "" when nothing matches.
func (s *Store) CategoryName(ctx context.Context, ref string) (string, error) {
	query := `SELECT name FROM categories WHERE name = $1`
	if id, err := uuid.Parse(ref); err == nil {
		query = `SELECT name FROM categories WHERE id = $1`
		ref = id.String()
	}
	var name string
	err := s.db.QueryRowContext(ctx, query, ref).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("category name: %w", err)
	}
	return name, nil
}

// ListCategories returns all categories, most used first.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	return s.queryCategories(ctx, `
		SELECT id, name, color, usage_frequency, created_at, updated_at
		FROM categories
		ORDER BY usage_frequency DESC, name ASC`)
}

// PopularCategories returns the most used categories, capped at limit.
func (s *Store) PopularCategories(ctx context.Context, limit int) ([]Category, error) {
	return s.queryCategories(ctx, `
		SELECT id, name, color, usage_frequency, created_at, updated_at
		FROM categories
		ORDER BY usage_frequency DESC, name ASC
		LIMIT $1`, limit)
}

func (s *Store) queryCategories(ctx context.Context, query string, args ...any) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.UsageFrequency, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateContext stores one entry with its insights attached. Insights are
// written once here and never updated afterwards.
func (s *Store) CreateContext(ctx context.Context, content string, sourceType SourceType, insights ProcessedInsights) (ContextEntry, error) {
	raw, err := json.Marshal(insights)
	if err != nil {
		return ContextEntry{}, fmt.Errorf("marshal insights: %w", err)
	}

	e := ContextEntry{
		ID:         uuid.New(),
		Content:    content,
		SourceType: sourceType,
		Insights:   &insights,
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO context_entries (id, content, source_type, processed_insights)
		VALUES ($1, $2, $3, $4::jsonb)
		RETURNING created_at, updated_at`,
		e.ID, e.Content, e.SourceType, string(raw),
	)
	if err := row.Scan(&e.CreatedAt, &e.UpdatedAt); err != nil {
		return ContextEntry{}, fmt.Errorf("insert context: %w", err)
	}
	return e, nil
}

// RecentContexts returns the newest entries, capped at limit.
func (s *Store) RecentContexts(ctx context.Context, limit int) ([]ContextEntry, error) {
	return s.queryContexts(ctx, `
		SELECT id, content, source_type, processed_insights, created_at, updated_at
		FROM context_entries
		ORDER BY created_at DESC
		LIMIT $1`, limit)
}

// ContextsSince returns entries created at or after the cutoff, newest first.
func (s *Store) ContextsSince(ctx context.Context, cutoff time.Time) ([]ContextEntry, error) {
	return s.queryContexts(ctx, `
		SELECT id, content, source_type, processed_insights, created_at, updated_at
		FROM context_entries
		WHERE created_at >= $1
		ORDER BY created_at DESC`, cutoff)
}

// AllContexts returns every entry, newest first.
func (s *Store) AllContexts(ctx context.Context) ([]ContextEntry, error) {
	return s.queryContexts(ctx, `
		SELECT id, content, source_type, processed_insights, created_at, updated_at
		FROM context_entries
		ORDER BY created_at DESC`)
}

func (s *Store) queryContexts(ctx context.Context, query string, args ...any) ([]ContextEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query contexts: %w", err)
	}
	defer rows.Close()

	var out []ContextEntry
	for rows.Next() {
		var e ContextEntry
		var raw sql.NullString
		if err := rows.Scan(&e.ID, &e.Content, &e.SourceType, &raw, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan context: %w", err)
		}
		if raw.Valid && raw.String != "" {
			var insights ProcessedInsights
			if err := json.Unmarshal([]byte(raw.String), &insights); err == nil {
				e.Insights = &insights
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Workload counts existing tasks per priority label.
func (s *Store) Workload(ctx context.Context) (Workload, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT priority, COUNT(*) FROM tasks GROUP BY priority`)
	if err != nil {
		return Workload{}, fmt.Errorf("query workload: %w", err)
	}
	defer rows.Close()

	var w Workload
	for rows.Next() {
		var priority Priority
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			return Workload{}, fmt.Errorf("scan workload: %w", err)
		}
		switch priority {
		case PriorityUrgent:
			w.Urgent = count
		case PriorityHigh:
			w.High = count
		case PriorityMedium:
			w.Medium = count
		case PriorityLow:
			w.Low = count
		}
	}
	return w, rows.Err()
}

// Snapshot reads the task and context collections in parallel, giving the
// aggregator one consistent point-in-time view.
func (s *Store) Snapshot(ctx context.Context) ([]Task, []ContextEntry, error) {
	var (
		taskList []Task
		entries  []ContextEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		taskList, err = s.ListTasks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.AllContexts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return taskList, entries, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
