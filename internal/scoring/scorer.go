// Package scoring turns task metadata into a priority label, a continuous
// score and a short explanation. The model is a weighted linear combination of
// four factors, each normalized to [0,1]; identical inputs always produce
// identical output.
package scoring

import (
	"fmt"
	"strings"
	"time"

	"smart-todo-backend/internal/signals"
	"smart-todo-backend/internal/tasks"
)

// Factor weights. They sum to 1.
const (
	deadlineWeight   = 0.45
	textWeight       = 0.30
	complexityWeight = 0.15
	workloadWeight   = 0.10
)

// Label thresholds on the final score.
const (
	urgentThreshold = 0.75
	highThreshold   = 0.50
	mediumThreshold = 0.25
)

// Horizon after which a deadline stops contributing urgency.
const deadlineHorizonDays = 14.0

// DefaultDeadlineDays stands in when a task has no deadline. It affects the
// computed score only, never the task itself.
const DefaultDeadlineDays = 7

// DefaultCategory stands in when no category is supplied.
const DefaultCategory = "Personal"

type Input struct {
	Title       string
	Description string
	Category    string
	Deadline    *time.Time
	Workload    tasks.Workload
	Now         time.Time
}

// Factors are the weighted contributions of each term to the final score.
type Factors struct {
	DeadlineUrgency  float64 `json:"deadline_urgency"`
	TextUrgency      float64 `json:"text_urgency"`
	Complexity       float64 `json:"complexity"`
	WorkloadPressure float64 `json:"workload_pressure"`
}

type Result struct {
	Label     tasks.Priority `json:"priority"`
	Score     float64        `json:"priority_score"`
	Reasoning string         `json:"reasoning"`
	Factors   Factors        `json:"factors"`
}

// Score evaluates one task. An empty or whitespace-only title is rejected
// before anything is computed.
func Score(in Input) (Result, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Result{}, tasks.NewValidationError("title")
	}
	if in.Category == "" {
		in.Category = DefaultCategory
	}

	deadline := in.Now.AddDate(0, 0, DefaultDeadlineDays)
	if in.Deadline != nil {
		deadline = *in.Deadline
	}

	f := Factors{
		DeadlineUrgency:  deadlineWeight * deadlineUrgency(deadline, in.Now),
		TextUrgency:      textWeight * signals.Analyze(in.Title+" "+in.Description).Urgency,
		Complexity:       complexityWeight * complexity(in.Description),
		WorkloadPressure: workloadWeight * (1 - workloadPressure(in.Workload)),
	}

	score := clamp01(f.DeadlineUrgency + f.TextUrgency + f.Complexity + f.WorkloadPressure)
	label := Label(score)

	return Result{
		Label:     label,
		Score:     score,
		Reasoning: reasoning(label, f),
		Factors:   f,
	}, nil
}

// Label maps a [0,1] score onto a priority label.
func Label(score float64) tasks.Priority {
	switch {
	case score >= urgentThreshold:
		return tasks.PriorityUrgent
	case score >= highThreshold:
		return tasks.PriorityHigh
	case score >= mediumThreshold:
		return tasks.PriorityMedium
	default:
		return tasks.PriorityLow
	}
}

// deadlineUrgency is 1.0 for a past or same-day deadline, 0.0 at fourteen or
// more days out, and linear in between.
func deadlineUrgency(deadline, now time.Time) float64 {
	if !deadline.After(now) || sameDay(deadline, now) {
		return 1
	}
	days := deadline.Sub(now).Hours() / 24
	return clamp01(1 - days/deadlineHorizonDays)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// complexity buckets description length as a stand-in for effort.
func complexity(description string) float64 {
	switch n := len(strings.TrimSpace(description)); {
	case n <= 50:
		return 0.2
	case n <= 200:
		return 0.5
	default:
		return 0.8
	}
}

// workloadPressure is the share of existing tasks already marked urgent. The
// scorer subtracts it from the workload term, so a backlog full of urgent
// work pulls new scores down instead of inflating them further.
func workloadPressure(w tasks.Workload) float64 {
	total := w.Total()
	if total < 1 {
		total = 1
	}
	return clamp01(float64(w.Urgent) / float64(total))
}

func reasoning(label tasks.Priority, f Factors) string {
	cause := "due to an approaching deadline"
	max := f.DeadlineUrgency
	if f.TextUrgency > max {
		cause, max = "due to urgent language in the task text", f.TextUrgency
	}
	if f.Complexity > max {
		cause, max = "due to the scope of the work described", f.Complexity
	}
	if f.WorkloadPressure > max {
		cause = "because the current workload leaves room for it"
	}
	return fmt.Sprintf("%s priority primarily %s.", titleCase(string(label)), cause)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
