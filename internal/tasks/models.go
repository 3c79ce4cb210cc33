// Package tasks holds the task, category and context-entry domain model and
// its Postgres store. The store owns entity lifecycle and derived counters;
// the analysis packages only read these types.
package tasks

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"smart-todo-backend/internal/signals"
)

type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

type SourceType string

const (
	SourceEmail   SourceType = "email"
	SourceMessage SourceType = "message"
	SourceNote    SourceType = "note"
	SourceOther   SourceType = "other"
)

// ValidSourceType normalizes s, falling back to "other" for anything unknown.
func ValidSourceType(s string) SourceType {
	switch SourceType(s) {
	case SourceEmail, SourceMessage, SourceNote:
		return SourceType(s)
	default:
		return SourceOther
	}
}

type Category struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Color          string    `json:"color"`
	UsageFrequency int       `json:"usage_frequency"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Task struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Category      *Category  `json:"category,omitempty"`
	Priority      Priority   `json:"priority"`
	PriorityScore float64    `json:"priority_score"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Status        Status     `json:"status"`
	Tags          []string   `json:"tags"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsOverdue is always derived from deadline and status, never stored.
func (t Task) IsOverdue(now time.Time) bool {
	return t.Deadline != nil && t.Status != StatusCompleted && t.Deadline.Before(now)
}

// DaysUntilDeadline returns whole days until the deadline, nil without one.
func (t Task) DaysUntilDeadline(now time.Time) *int {
	if t.Deadline == nil {
		return nil
	}
	days := int(t.Deadline.Sub(now).Hours() / 24)
	return &days
}

// ProcessedInsights is the immutable analysis attached to a context entry
// exactly once, at creation.
type ProcessedInsights struct {
	Keywords       []string          `json:"keywords"`
	Sentiment      signals.Sentiment `json:"sentiment"`
	Urgency        float64           `json:"urgency"`
	ExtractedTasks []string          `json:"extracted_tasks"`
}

type ContextEntry struct {
	ID         uuid.UUID          `json:"id"`
	Content    string             `json:"content"`
	SourceType SourceType         `json:"source_type"`
	Insights   *ProcessedInsights `json:"processed_insights,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Workload counts existing tasks per priority label. It de-biases new-task
// scoring against runaway urgent inflation.
type Workload struct {
	Urgent int `json:"urgent"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

func (w Workload) Total() int {
	return w.Urgent + w.High + w.Medium + w.Low
}

// ValidationError reports a missing or empty required field. It is surfaced
// to the caller directly, with no fallback.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// NewValidationError names the offending field.
func NewValidationError(field string) *ValidationError {
	return &ValidationError{Field: field}
}
