package suggest

import (
	"encoding/json"
	"fmt"
	"strings"

	"smart-todo-backend/internal/contexts"
	"smart-todo-backend/internal/signals"
	"smart-todo-backend/internal/tasks"
)

// parseSuggestion decodes the provider's enhancement payload. Field-level
// validation happens at merge time; this only rejects unparseable JSON.
func parseSuggestion(raw string) (Suggestion, error) {
	var s Suggestion
	if err := json.Unmarshal([]byte(extractJSON(raw)), &s); err != nil {
		return Suggestion{}, fmt.Errorf("parse suggestion payload: %w", err)
	}
	return s, nil
}

type priorityPayload struct {
	PriorityScore *float64 `json:"priority_score"`
	Reasoning     string   `json:"reasoning"`
}

func parsePriority(raw string) (priorityPayload, error) {
	var p priorityPayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &p); err != nil {
		return priorityPayload{}, fmt.Errorf("parse priority payload: %w", err)
	}
	if p.PriorityScore == nil {
		return priorityPayload{}, fmt.Errorf("priority payload missing priority_score")
	}
	if *p.PriorityScore < 0 || *p.PriorityScore > 1 {
		return priorityPayload{}, fmt.Errorf("priority_score %v out of range", *p.PriorityScore)
	}
	return p, nil
}

type insightsPayload struct {
	Keywords       []string `json:"keywords"`
	Sentiment      string   `json:"sentiment"`
	Urgency        *float64 `json:"urgency"`
	ExtractedTasks []string `json:"extracted_tasks"`
}

// parseInsights validates a provider context analysis and normalizes it to
// the same caps and dedup rules the local analyzer guarantees.
func parseInsights(raw string) (tasks.ProcessedInsights, error) {
	var p insightsPayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &p); err != nil {
		return tasks.ProcessedInsights{}, fmt.Errorf("parse insights payload: %w", err)
	}

	sentiment := signals.Sentiment(p.Sentiment)
	switch sentiment {
	case signals.SentimentPositive, signals.SentimentNeutral, signals.SentimentNegative:
	default:
		return tasks.ProcessedInsights{}, fmt.Errorf("invalid sentiment %q", p.Sentiment)
	}

	if p.Urgency == nil || *p.Urgency < 0 || *p.Urgency > 1 {
		return tasks.ProcessedInsights{}, fmt.Errorf("urgency missing or out of range")
	}

	return tasks.ProcessedInsights{
		Keywords:       dedupe(p.Keywords, signals.DefaultKeywordCount),
		Sentiment:      sentiment,
		Urgency:        *p.Urgency,
		ExtractedTasks: dedupe(p.ExtractedTasks, contexts.MaxExtractedTasks),
	}, nil
}

// dedupe trims entries, drops case-insensitive duplicates and empties, and
// caps the result, preserving first-occurrence order.
func dedupe(items []string, limit int) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}

// extractJSON tolerates prose or code fences around the object a provider
// was told to return bare.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return raw
	}
	return raw[start : end+1]
}
