// Package analytics computes the productivity and burnout summary over the
// full task and context collections. Aggregate is a pure function of the
// snapshot it is handed: nothing is cached or incrementally updated, so it can
// never drift from the data.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"smart-todo-backend/internal/tasks"
)

// Snapshot is the on-demand analytics summary. It is recomputed per call and
// never persisted.
type Snapshot struct {
	Productivity    float64  `json:"productivity"`
	Burnout         float64  `json:"burnout"`
	Focus           []string `json:"focus"`
	Recommendations []string `json:"recommendations"`
}

const (
	maxFocusAreas = 5

	// Completions older than this many days count at half weight in the
	// productivity numerator, rewarding recent momentum.
	staleAfterDays = 30
	staleWeight    = 0.5

	// Burnout factor weights.
	urgentRatioWeight  = 0.6
	overdueRatioWeight = 0.4
)

// Recommendation trigger thresholds, evaluated in order.
const (
	burnoutAlert           = 70.0
	overdueAlertRatio      = 0.2
	focusImbalanceShare    = 0.5
	lowProductivity        = 40.0
	lowProductivityMinimum = 5
)

// Aggregate computes the summary for a point-in-time read of the task and
// context collections. Empty collections yield a zero snapshot with no
// recommendations, not an error.
func Aggregate(taskList []tasks.Task, entries []tasks.ContextEntry, now time.Time) Snapshot {
	if len(taskList) == 0 {
		return Snapshot{Focus: []string{}, Recommendations: []string{}}
	}

	total := len(taskList)
	var weightedCompleted float64
	var urgentCount, overdueCount int
	categoryCounts := make(map[string]int)

	for _, t := range taskList {
		if t.Status == tasks.StatusCompleted {
			weightedCompleted += completionWeight(t.UpdatedAt, now)
		}
		if t.Priority == tasks.PriorityUrgent {
			urgentCount++
		}
		if t.IsOverdue(now) {
			overdueCount++
		}
		if t.Category != nil {
			categoryCounts[t.Category.Name]++
		}
	}

	productivity := clamp(100*weightedCompleted/float64(total), 0, 100)
	urgentRatio := float64(urgentCount) / float64(total)
	overdueRatio := float64(overdueCount) / float64(total)
	burnout := clamp(100*(urgentRatioWeight*urgentRatio+overdueRatioWeight*overdueRatio), 0, 100)

	return Snapshot{
		Productivity:    productivity,
		Burnout:         burnout,
		Focus:           focusAreas(categoryCounts),
		Recommendations: recommendations(productivity, burnout, overdueRatio, categoryCounts, total),
	}
}

// completionWeight rewards recent momentum: completions inside the recent
// window count fully, completions older than the stale horizon at half.
func completionWeight(completedAt, now time.Time) float64 {
	age := now.Sub(completedAt)
	if age > time.Duration(staleAfterDays)*24*time.Hour {
		return staleWeight
	}
	return 1
}

// focusAreas returns the top category names by task count, descending, ties
// broken alphabetically.
func focusAreas(categoryCounts map[string]int) []string {
	names := make([]string, 0, len(categoryCounts))
	for name := range categoryCounts {
		names = append(names, name)
	}
	sort.Slice(names, func(a, b int) bool {
		if categoryCounts[names[a]] != categoryCounts[names[b]] {
			return categoryCounts[names[a]] > categoryCounts[names[b]]
		}
		return names[a] < names[b]
	})
	if len(names) > maxFocusAreas {
		names = names[:maxFocusAreas]
	}
	return names
}

// recommendations evaluates the fixed trigger rules in priority order,
// emitting at most one sentence per rule that fires.
func recommendations(productivity, burnout, overdueRatio float64, categoryCounts map[string]int, total int) []string {
	out := []string{}

	if burnout >= burnoutAlert {
		out = append(out, "Burnout risk is high: defer non-urgent work and protect recovery time.")
	}
	if overdueRatio > overdueAlertRatio {
		out = append(out, "Several tasks are past their deadline: schedule a deadline review session.")
	}
	if name, share := dominantCategory(categoryCounts, total); share > focusImbalanceShare {
		out = append(out, fmt.Sprintf("Over half of your tasks sit in %s: consider rebalancing focus across areas.", name))
	}
	if productivity < lowProductivity && total >= lowProductivityMinimum {
		out = append(out, "Completion rate is low: break larger tasks into smaller, finishable units.")
	}

	return out
}

func dominantCategory(categoryCounts map[string]int, total int) (string, float64) {
	var best string
	bestCount := 0
	for name, count := range categoryCounts {
		if count > bestCount || (count == bestCount && name < best) {
			best, bestCount = name, count
		}
	}
	if total == 0 {
		return best, 0
	}
	return best, float64(bestCount) / float64(total)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
