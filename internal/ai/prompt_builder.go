package ai

import (
	"strconv"
	"strings"
	"time"

	"smart-todo-backend/internal/tasks"
)

// BuildSuggestionPrompt lays out one task and the recent context entries as
// plain labelled lines for the provider.
func BuildSuggestionPrompt(title, description string, recent []tasks.ContextEntry, workload tasks.Workload) string {
	var b strings.Builder

	b.WriteString("task_title: ")
	b.WriteString(title)
	b.WriteString("\n")

	if description != "" {
		b.WriteString("task_description: ")
		b.WriteString(description)
		b.WriteString("\n")
	}

	b.WriteString("workload: ")
	b.WriteString(workloadLine(workload))
	b.WriteString("\n")

	if len(recent) > 0 {
		b.WriteString("recent_context:\n")
		for _, entry := range recent {
			b.WriteString("- ")
			b.WriteString(string(entry.SourceType))
			b.WriteString(": ")
			b.WriteString(truncate(entry.Content, 100))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// BuildContextPrompt lays out one context entry for analysis.
func BuildContextPrompt(content string, sourceType tasks.SourceType) string {
	var b strings.Builder

	b.WriteString("source_type: ")
	b.WriteString(string(sourceType))
	b.WriteString("\n")

	b.WriteString("content: ")
	b.WriteString(content)
	b.WriteString("\n")

	return b.String()
}

// BuildPriorityPrompt lays out one task plus its scheduling inputs.
func BuildPriorityPrompt(title, description, category string, deadline *time.Time, workload tasks.Workload) string {
	var b strings.Builder

	b.WriteString("task_title: ")
	b.WriteString(title)
	b.WriteString("\n")

	if description != "" {
		b.WriteString("task_description: ")
		b.WriteString(description)
		b.WriteString("\n")
	}

	if category != "" {
		b.WriteString("category: ")
		b.WriteString(category)
		b.WriteString("\n")
	}

	if deadline != nil {
		b.WriteString("deadline: ")
		b.WriteString(deadline.Format("2006-01-02"))
		b.WriteString("\n")
	}

	b.WriteString("workload: ")
	b.WriteString(workloadLine(workload))
	b.WriteString("\n")

	return b.String()
}

func workloadLine(w tasks.Workload) string {
	var b strings.Builder
	b.WriteString("urgent=")
	b.WriteString(strconv.Itoa(w.Urgent))
	b.WriteString(" high=")
	b.WriteString(strconv.Itoa(w.High))
	b.WriteString(" medium=")
	b.WriteString(strconv.Itoa(w.Medium))
	b.WriteString(" low=")
	b.WriteString(strconv.Itoa(w.Low))
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
