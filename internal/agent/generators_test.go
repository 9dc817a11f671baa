package agent_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"planwise/internal/agent"
	"planwise/internal/extract"
	"planwise/internal/llm"
)

func TestGeneratorsRequireBackend(t *testing.T) {
	gen := agent.NewGenerator(&fakeBackend{down: true}, zap.NewNop())
	ctx := context.Background()
	if _, err := gen.GeneratePlan(ctx, "brief", nil); !errors.Is(err, llm.ErrNotConfigured) {
		t.Errorf("GeneratePlan err = %v", err)
	}
	if _, err := gen.GenerateTaskList(ctx, "goal", "", nil, nil); !errors.Is(err, llm.ErrNotConfigured) {
		t.Errorf("GenerateTaskList err = %v", err)
	}
	if _, err := gen.InterpretModification(ctx, "req", "ctx"); !errors.Is(err, llm.ErrNotConfigured) {
		t.Errorf("InterpretModification err = %v", err)
	}
}

func TestGeneratePlanFromFencedReply(t *testing.T) {
	reply := "Here you go:\n```json\n" + planReply + "\n```"
	gen := agent.NewGenerator(&fakeBackend{replies: []string{reply}}, zap.NewNop())
	plan, err := gen.GeneratePlan(context.Background(), "Revamp onboarding", nil)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if plan.ProjectName != "Onboarding Revamp" || len(plan.Tasks) != 1 {
		t.Errorf("plan = %+v", plan)
	}
}

func TestGeneratePlanParseFailure(t *testing.T) {
	gen := agent.NewGenerator(&fakeBackend{replies: []string{"I cannot produce a plan right now."}}, zap.NewNop())
	_, err := gen.GeneratePlan(context.Background(), "brief", nil)
	var pe *extract.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ParseError", err)
	}
}

func TestGenerateTaskListQuestionFallback(t *testing.T) {
	question := "What roles are on the team, and what are this sprint's priorities?"
	gen := agent.NewGenerator(&fakeBackend{replies: []string{question}}, zap.NewNop())
	result, err := gen.GenerateTaskList(context.Background(), "Build search", "", nil, nil)
	if err != nil {
		t.Fatalf("GenerateTaskList: %v", err)
	}
	if result.Question != question {
		t.Errorf("question = %q", result.Question)
	}
	if len(result.Tasks) != 0 {
		t.Errorf("tasks = %v", result.Tasks)
	}
}

func TestGenerateTaskListLongGarbageFails(t *testing.T) {
	garbage := strings.Repeat("definitely not json ", 30)
	gen := agent.NewGenerator(&fakeBackend{replies: []string{garbage}}, zap.NewNop())
	_, err := gen.GenerateTaskList(context.Background(), "Build search", "", nil, nil)
	var pe *extract.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ParseError for long non-JSON reply", err)
	}
}

func TestGenerateTaskListParsesDrafts(t *testing.T) {
	reply := `{"tasks":[{"name":"Wire search index","priority":"high","assignee":"AL","sub_tasks":["Pick store"]}]}`
	gen := agent.NewGenerator(&fakeBackend{replies: []string{reply}}, zap.NewNop())
	result, err := gen.GenerateTaskList(context.Background(), "Build search", "", nil, []agent.Member{{ID: "AL", Name: "Alice", Role: "Backend", Status: "Online"}})
	if err != nil {
		t.Fatalf("GenerateTaskList: %v", err)
	}
	if len(result.Tasks) != 1 || result.Tasks[0].Assignee != "AL" {
		t.Errorf("result = %+v", result)
	}
}

func TestGenerateHealthReportFromFencedReply(t *testing.T) {
	reply := "```json\n{\"health_status\":\"At Risk\",\"on_track\":false,\"blockers\":[{\"task\":\"Payments\",\"blocker\":\"Waiting on gateway creds\",\"severity\":\"High\"}]}\n```"
	gen := agent.NewGenerator(&fakeBackend{replies: []string{reply}}, zap.NewNop())
	report, err := gen.GenerateHealthReport(context.Background(), map[string]any{"name": "Mobile App"}, nil, nil)
	if err != nil {
		t.Fatalf("GenerateHealthReport: %v", err)
	}
	if report.HealthStatus != "At Risk" || len(report.Blockers) != 1 {
		t.Errorf("report = %+v", report)
	}
	if report.Blockers[0].Severity != "High" {
		t.Errorf("blocker = %+v", report.Blockers[0])
	}
}

func TestSummarizeNeverFails(t *testing.T) {
	gen := agent.NewGenerator(&fakeBackend{err: errors.New("backend down")}, zap.NewNop())
	got := gen.Summarize(context.Background(), "create_task", map[string]any{"ok": true}, "Add a task")
	if !strings.Contains(got, "trouble summarizing") {
		t.Errorf("Summarize = %q, want apology", got)
	}
}

func TestSummarizePassesThroughReply(t *testing.T) {
	gen := agent.NewGenerator(&fakeBackend{replies: []string{"All set, the task is created."}}, zap.NewNop())
	got := gen.Summarize(context.Background(), "create_task", nil, "Add a task")
	if got != "All set, the task is created." {
		t.Errorf("Summarize = %q", got)
	}
}

func TestInterpretModificationIntent(t *testing.T) {
	reply := "```json\n{\"action\":\"delete\",\"target_task_name\":\"old spike\"}\n```"
	gen := agent.NewGenerator(&fakeBackend{replies: []string{reply}}, zap.NewNop())
	intent, err := gen.InterpretModification(context.Background(), "Delete the old spike", "Project ID: p1")
	if err != nil {
		t.Fatalf("InterpretModification: %v", err)
	}
	if intent.Action != "delete" || intent.TargetTaskName != "old spike" {
		t.Errorf("intent = %+v", intent)
	}
}
