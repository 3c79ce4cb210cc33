// Package contexts turns one free-text context entry (an email, a message, a
// note) into structured insights: ranked keywords, sentiment, an urgency
// score and candidate tasks lifted from actionable sentences.
package contexts

import (
	"strings"

	"smart-todo-backend/internal/signals"
	"smart-todo-backend/internal/tasks"
)

// MaxExtractedTasks caps the candidate tasks pulled from one entry.
const MaxExtractedTasks = 5

// Sentences starting with one of these verbs read as direct instructions.
var imperativeVerbs = map[string]struct{}{
	"review": {}, "send": {}, "prepare": {}, "schedule": {}, "call": {},
	"finish": {}, "submit": {}, "update": {}, "fix": {}, "complete": {},
	"check": {}, "email": {}, "buy": {}, "write": {}, "plan": {},
}

// Obligation phrases anywhere in a sentence also mark it actionable.
var obligationCues = []string{
	"need", "have to", "must", "should", "remember to",
}

// Analyze produces the insights for content. Empty or whitespace-only
// content is rejected. The returned value is a snapshot; callers attach it to
// the owning entry exactly once.
func Analyze(content string, sourceType tasks.SourceType) (tasks.ProcessedInsights, error) {
	if strings.TrimSpace(content) == "" {
		return tasks.ProcessedInsights{}, tasks.NewValidationError("content")
	}

	sig := signals.Analyze(content)

	return tasks.ProcessedInsights{
		Keywords:       sig.Keywords,
		Sentiment:      sig.Sentiment,
		Urgency:        sig.Urgency,
		ExtractedTasks: ExtractTasks(content),
	}, nil
}

// ExtractTasks returns the actionable sentences of content, trimmed,
// case-insensitively deduplicated, in first-occurrence order, at most
// MaxExtractedTasks of them.
func ExtractTasks(content string) []string {
	var out []string
	seen := make(map[string]struct{})

	for _, sentence := range signals.SplitSentences(content) {
		if !isActionable(sentence) {
			continue
		}
		key := strings.ToLower(sentence)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, sentence)
		if len(out) == MaxExtractedTasks {
			break
		}
	}
	return out
}

func isActionable(sentence string) bool {
	lower := strings.ToLower(sentence)

	if words := strings.Fields(lower); len(words) > 0 {
		if _, ok := imperativeVerbs[strings.Trim(words[0], ",:;")]; ok {
			return true
		}
	}
	for _, cue := range obligationCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}
