package suggest

import (
	"strings"

	"smart-todo-backend/internal/scoring"
	"smart-todo-backend/internal/tasks"
)

// categoryKeywords maps category names to their trigger words. Order is
// checked as listed; the first category with a hit wins.
var categoryOrder = []string{"Work", "Health", "Learning", "Social", "Personal"}

var categoryKeywords = map[string][]string{
	"Work":     {"meeting", "project", "client", "work", "office", "report", "presentation", "stakeholder"},
	"Health":   {"health", "doctor", "exercise", "gym", "workout", "appointment"},
	"Learning": {"learn", "study", "course", "book", "read", "tutorial"},
	"Social":   {"friend", "social", "party", "event", "dinner", "birthday"},
	"Personal": {"home", "family", "personal", "shopping", "errand"},
}

// SuggestCategory picks a category for the task text, defaulting to Personal
// when nothing matches.
func SuggestCategory(text string) string {
	lower := strings.ToLower(text)
	for _, name := range categoryOrder {
		for _, keyword := range categoryKeywords[name] {
			if strings.Contains(lower, keyword) {
				return name
			}
		}
	}
	return scoring.DefaultCategory
}

// deadlineDays maps a priority label to a suggested deadline offset.
func deadlineDays(label tasks.Priority) int {
	switch label {
	case tasks.PriorityUrgent:
		return 1
	case tasks.PriorityHigh:
		return 3
	case tasks.PriorityMedium:
		return 7
	default:
		return 14
	}
}
