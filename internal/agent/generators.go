package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"planwise/internal/extract"
	"planwise/internal/llm"
)

// Per-capability sampling budgets. Interpretation runs near-deterministic;
// creative generation runs hot with room for long plans.
var (
	optsPlan           = llm.Options{Temperature: 0.7, MaxTokens: 4000}
	optsTaskList       = llm.Options{Temperature: 0.7, MaxTokens: 4000}
	optsBreakdown      = llm.Options{Temperature: 0.7, MaxTokens: 1500}
	optsEstimates      = llm.Options{Temperature: 0.5, MaxTokens: 1500}
	optsHealth         = llm.Options{Temperature: 0.6, MaxTokens: 1500}
	optsPrioritization = llm.Options{Temperature: 0.6, MaxTokens: 1500}
	optsModification   = llm.Options{Temperature: 0.1, MaxTokens: 1000}
	optsSummary        = llm.Options{Temperature: 0.7}
)

// questionFallbackLimit caps how long an unparsable completion may be
// before it stops being treated as a clarification question.
const questionFallbackLimit = 500

const summaryApology = "I completed the action, but I'm having trouble summarizing it right now."

// Generator wraps the backend with one method per structured output.
// Every method is a single call followed by a single decode; failures
// surface immediately, there is no retry.
type Generator struct {
	backend llm.Client
	log     *zap.Logger
}

func NewGenerator(backend llm.Client, log *zap.Logger) *Generator {
	return &Generator{backend: backend, log: log}
}

func (g *Generator) ready() error {
	if !g.backend.Enabled() {
		return llm.ErrNotConfigured
	}
	return nil
}

// GeneratePlan produces a full project plan from a free-form brief.
func (g *Generator) GeneratePlan(ctx context.Context, brief string, constraints map[string]any) (*Plan, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(planGenerationPrompt, brief, jsonIndent(constraints))
	content, err := g.backend.Complete(ctx, systemPrompt, prompt, optsPlan)
	if err != nil {
		return nil, fmt.Errorf("generate plan: %w", err)
	}
	var plan Plan
	if err := extract.Decode(content, &plan); err != nil {
		return nil, fmt.Errorf("generate plan: %w", err)
	}
	return &plan, nil
}

// BreakdownTask decomposes one task description into subtasks.
func (g *Generator) BreakdownTask(ctx context.Context, taskDescription, level, extraContext string) (*Breakdown, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	if level == "" {
		level = "epic"
	}
	if extraContext == "" {
		extraContext = "No additional context"
	}
	prompt := fmt.Sprintf(taskBreakdownPrompt, taskDescription, level, extraContext)
	content, err := g.backend.Complete(ctx, systemPrompt, prompt, optsBreakdown)
	if err != nil {
		return nil, fmt.Errorf("breakdown task: %w", err)
	}
	var breakdown Breakdown
	if err := extract.Decode(content, &breakdown); err != nil {
		return nil, fmt.Errorf("breakdown task: %w", err)
	}
	return &breakdown, nil
}

// GenerateEstimates produces time and cost estimates for caller-supplied tasks.
func (g *Generator) GenerateEstimates(ctx context.Context, tasks []map[string]any, teamInfo string, hourlyRate float64) (*EstimateReport, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	if teamInfo == "" {
		teamInfo = "Standard development team"
	}
	if hourlyRate == 0 {
		hourlyRate = 100
	}
	prompt := fmt.Sprintf(estimationPrompt, jsonIndent(tasks), teamInfo, hourlyRate)
	content, err := g.backend.Complete(ctx, systemPrompt, prompt, optsEstimates)
	if err != nil {
		return nil, fmt.Errorf("generate estimates: %w", err)
	}
	var report EstimateReport
	if err := extract.Decode(content, &report); err != nil {
		return nil, fmt.Errorf("generate estimates: %w", err)
	}
	return &report, nil
}

// GenerateHealthReport writes a narrative health summary from project,
// task and team snapshots.
func (g *Generator) GenerateHealthReport(ctx context.Context, projectData any, tasks any, team any) (*HealthReport, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(healthSummaryPrompt, jsonIndent(projectData), jsonIndent(tasks), jsonIndent(team))
	content, err := g.backend.Complete(ctx, systemPrompt, prompt, optsHealth)
	if err != nil {
		return nil, fmt.Errorf("health summary: %w", err)
	}
	var report HealthReport
	if err := extract.Decode(content, &report); err != nil {
		return nil, fmt.Errorf("health summary: %w", err)
	}
	return &report, nil
}

// PrioritizeBacklog ranks backlog items against the stated goals.
func (g *Generator) PrioritizeBacklog(ctx context.Context, backlog []map[string]any, goals string, capacity int) (*Prioritization, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	capacityStr := "Not specified"
	if capacity > 0 {
		capacityStr = fmt.Sprintf("%d", capacity)
	}
	prompt := fmt.Sprintf(prioritizationPrompt, jsonIndent(backlog), goals, capacityStr)
	content, err := g.backend.Complete(ctx, systemPrompt, prompt, optsPrioritization)
	if err != nil {
		return nil, fmt.Errorf("prioritize backlog: %w", err)
	}
	var p Prioritization
	if err := extract.Decode(content, &p); err != nil {
		return nil, fmt.Errorf("prioritize backlog: %w", err)
	}
	return &p, nil
}

// GenerateTaskList produces assignable task drafts for a goal. A short
// completion that is not JSON comes back as a clarification question
// instead of an error.
func (g *Generator) GenerateTaskList(ctx context.Context, goal, projectContext string, history []Message, team []Member) (*TaskListResult, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	if projectContext == "" {
		projectContext = "No additional context"
	}
	prompt := fmt.Sprintf(taskListGenerationPrompt, goal, projectContext, formatTeam(team), formatHistory(history))
	content, err := g.backend.Complete(ctx, systemPrompt, prompt, optsTaskList)
	if err != nil {
		return nil, fmt.Errorf("generate task list: %w", err)
	}
	var result TaskListResult
	if err := extract.Decode(content, &result); err != nil {
		var pe *extract.ParseError
		if errors.As(err, &pe) && len(pe.Raw) < questionFallbackLimit {
			return &TaskListResult{Question: strings.TrimSpace(pe.Raw)}, nil
		}
		return nil, fmt.Errorf("generate task list: %w", err)
	}
	return &result, nil
}

// InterpretModification translates an update/delete request into a
// structured intent.
func (g *Generator) InterpretModification(ctx context.Context, request, modContext string) (*ModificationIntent, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(taskModificationPrompt, request, modContext)
	content, err := g.backend.Complete(ctx, "You are an expert Project Manager AI.", prompt, optsModification)
	if err != nil {
		return nil, fmt.Errorf("interpret modification: %w", err)
	}
	var intent ModificationIntent
	if err := extract.Decode(content, &intent); err != nil {
		return nil, fmt.Errorf("interpret modification: %w", err)
	}
	return &intent, nil
}

// Summarize narrates an action outcome in plain language. It never
// fails: a backend error is logged and a fixed apology returned, so a
// completed action is always acknowledged.
func (g *Generator) Summarize(ctx context.Context, action string, result any, userPrompt string) string {
	prompt := fmt.Sprintf(responseGenerationPrompt, action, jsonCompact(result), userPrompt)
	content, err := g.backend.Complete(ctx, "", prompt, optsSummary)
	if err != nil {
		g.log.Warn("summary generation failed", zap.String("action", action), zap.Error(err))
		return summaryApology
	}
	return content
}

func formatHistory(history []Message) string {
	if len(history) == 0 {
		return "No history"
	}
	var b strings.Builder
	for _, msg := range history {
		role := msg.Role
		if role == "" {
			role = "user"
		}
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(role), msg.Content)
	}
	return b.String()
}

func formatTeam(team []Member) string {
	if len(team) == 0 {
		return "No team members provided"
	}
	var b strings.Builder
	for _, m := range team {
		name := m.Name
		if name == "" {
			name = "Unknown"
		}
		role := m.Role
		if role == "" {
			role = "No Role"
		}
		fmt.Fprintf(&b, "- %s (ID: %s) - %s", name, m.ID, role)
		if m.Status != "" {
			fmt.Fprintf(&b, " [%s]", m.Status)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func jsonIndent(v any) string {
	if v == nil {
		return "{}"
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func jsonCompact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
