// Package suggest coordinates the deterministic engine with the optional
// external provider. Every operation computes the local rule-based answer
// first; the provider gets exactly one bounded attempt to enhance it, and any
// timeout, transport failure or malformed response silently resolves to the
// local result. Callers never see a provider error.
package suggest

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"smart-todo-backend/internal/ai"
	"smart-todo-backend/internal/analytics"
	"smart-todo-backend/internal/contexts"
	"smart-todo-backend/internal/scoring"
	"smart-todo-backend/internal/tasks"
)

// DefaultTimeout bounds the single external attempt.
const DefaultTimeout = 5 * time.Second

// Suggestion is the closed enhancement payload: every field independently
// optional, nothing dynamic.
type Suggestion struct {
	SuggestedCategory   *string  `json:"suggested_category,omitempty"`
	SuggestedDeadline   *string  `json:"suggested_deadline,omitempty"`
	EnhancedDescription *string  `json:"enhanced_description,omitempty"`
	Reasoning           *string  `json:"reasoning,omitempty"`
	PriorityScore       *float64 `json:"priority_score,omitempty"`
}

type Orchestrator struct {
	provider ai.Provider
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// New builds an orchestrator. provider may be nil, which disables the
// external attempt entirely; the deterministic path always works.
func New(provider ai.Provider, timeout time.Duration, logger *zap.Logger) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// Suggest produces category, deadline, description and priority suggestions
// for a task being drafted. recent feeds the provider prompt only; the
// deterministic path is a pure function of title, description and workload.
func (o *Orchestrator) Suggest(ctx context.Context, title, description string, recent []tasks.ContextEntry, workload tasks.Workload) (Suggestion, error) {
	now := o.now()

	scored, err := scoring.Score(scoring.Input{
		Title:       title,
		Description: description,
		Workload:    workload,
		Now:         now,
	})
	if err != nil {
		return Suggestion{}, err
	}

	local := Suggestion{
		SuggestedCategory: ptr(SuggestCategory(title + " " + description)),
		SuggestedDeadline: ptr(now.AddDate(0, 0, deadlineDays(scored.Label)).Format("2006-01-02")),
		Reasoning:         ptr(scored.Reasoning),
		PriorityScore:     ptr(scored.Score),
	}
	if description != "" {
		local.EnhancedDescription = ptr(description)
	}

	if o.provider == nil {
		return local, nil
	}

	raw, err := o.attempt(ctx, ai.SuggestionSystemPrompt,
		ai.BuildSuggestionPrompt(title, description, recent, workload))
	if err != nil {
		o.logger.Warn("suggestion provider failed, using local result", zap.Error(err))
		return local, nil
	}

	external, err := parseSuggestion(raw)
	if err != nil {
		o.logger.Warn("suggestion provider returned malformed payload", zap.Error(err))
		return local, nil
	}

	return mergeSuggestion(local, external), nil
}

// ProcessContext analyzes one context entry. The provider may fully replace
// the insights, but only with a payload that passes validation; the caps and
// dedup rules hold either way.
func (o *Orchestrator) ProcessContext(ctx context.Context, content string, sourceType tasks.SourceType) (tasks.ProcessedInsights, error) {
	local, err := contexts.Analyze(content, sourceType)
	if err != nil {
		return tasks.ProcessedInsights{}, err
	}

	if o.provider == nil {
		return local, nil
	}

	raw, err := o.attempt(ctx, ai.ContextSystemPrompt, ai.BuildContextPrompt(content, sourceType))
	if err != nil {
		o.logger.Warn("context provider failed, using local insights", zap.Error(err))
		return local, nil
	}

	external, err := parseInsights(raw)
	if err != nil {
		o.logger.Warn("context provider returned malformed payload", zap.Error(err))
		return local, nil
	}

	return external, nil
}

// CalculatePriority scores one task. A provider answer replaces the score
// only when it is a validated value within [0,1]; the label is always derived
// from whichever score wins.
func (o *Orchestrator) CalculatePriority(ctx context.Context, in scoring.Input) (scoring.Result, error) {
	if in.Now.IsZero() {
		in.Now = o.now()
	}

	local, err := scoring.Score(in)
	if err != nil {
		return scoring.Result{}, err
	}

	if o.provider == nil {
		return local, nil
	}

	raw, err := o.attempt(ctx, ai.PrioritySystemPrompt,
		ai.BuildPriorityPrompt(in.Title, in.Description, in.Category, in.Deadline, in.Workload))
	if err != nil {
		o.logger.Warn("priority provider failed, using local score", zap.Error(err))
		return local, nil
	}

	external, err := parsePriority(raw)
	if err != nil {
		o.logger.Warn("priority provider returned malformed payload", zap.Error(err))
		return local, nil
	}

	result := local
	result.Score = *external.PriorityScore
	result.Label = scoring.Label(result.Score)
	if external.Reasoning != "" {
		result.Reasoning = external.Reasoning
	}
	return result, nil
}

// GenerateInsights aggregates the analytics snapshot. This path is fully
// deterministic; no provider is consulted.
func (o *Orchestrator) GenerateInsights(taskList []tasks.Task, entries []tasks.ContextEntry) analytics.Snapshot {
	return analytics.Aggregate(taskList, entries, o.now())
}

// attempt makes the single bounded provider call.
func (o *Orchestrator) attempt(ctx context.Context, system, user string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.provider.Complete(callCtx, system, user)
}

func mergeSuggestion(local, external Suggestion) Suggestion {
	merged := local
	if external.SuggestedCategory != nil && strings.TrimSpace(*external.SuggestedCategory) != "" {
		merged.SuggestedCategory = external.SuggestedCategory
	}
	if external.SuggestedDeadline != nil {
		if _, err := time.Parse("2006-01-02", *external.SuggestedDeadline); err == nil {
			merged.SuggestedDeadline = external.SuggestedDeadline
		}
	}
	if external.EnhancedDescription != nil && strings.TrimSpace(*external.EnhancedDescription) != "" {
		merged.EnhancedDescription = external.EnhancedDescription
	}
	if external.Reasoning != nil && strings.TrimSpace(*external.Reasoning) != "" {
		merged.Reasoning = external.Reasoning
	}
	if external.PriorityScore != nil && *external.PriorityScore >= 0 && *external.PriorityScore <= 1 {
		merged.PriorityScore = external.PriorityScore
	}
	return merged
}

func ptr[T any](v T) *T {
	return &v
}
