package agent_test

import (
	"errors"
	"strings"
	"testing"

	"planwise/internal/agent"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		prompt string
		want   agent.Capability
	}{
		{"Create a new project for food delivery", agent.CapCreateProject},
		{"Generate tasks for the onboarding flow", agent.CapCreateTasks},
		{"Move the login task to Done", agent.CapModifyTask},
		{"How is the project progress this week?", agent.CapProjectHealth},
		{"Add a task to implement rate limiting", agent.CapCreateTask},
		{"Break down the payment integration epic", agent.CapBreakdownTask},
		{"Estimate time for the auth work", agent.CapGenerateEstimates},
		{"Prioritize my backlog for Q1", agent.CapPrioritizeBacklog},
		{"Build me something useful", agent.CapGeneratePlan},
	}
	for _, tc := range cases {
		if got := agent.Classify(tc.prompt); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.prompt, got, tc.want)
		}
	}
}

func TestClassifyEarlierRuleWins(t *testing.T) {
	// Both a project-creation phrase and a task phrase are present; the
	// project-creation rule sits higher so it must win.
	got := agent.Classify("Create a new project and add a task for login")
	if got != agent.CapCreateProject {
		t.Fatalf("Classify = %s, want %s", got, agent.CapCreateProject)
	}
	// Modification verbs outrank single-task creation.
	got = agent.Classify("Update the task for login")
	if got != agent.CapModifyTask {
		t.Fatalf("Classify = %s, want %s", got, agent.CapModifyTask)
	}
	// Project creation outranks health even when both phrases appear.
	got = agent.Classify("Create project and show me its health")
	if got != agent.CapCreateProject {
		t.Fatalf("Classify = %s, want %s", got, agent.CapCreateProject)
	}
}

func TestExecuteRequiresProjectID(t *testing.T) {
	prompts := []string{
		"Move the login task to Done",
		"How is the project progress?",
		"Add a task to implement caching",
		"Prioritize my backlog",
	}
	for _, prompt := range prompts {
		env := newTestEnv(t, &fakeBackend{})
		_, err := env.Agent.Execute(env.Ctx, agent.Request{Prompt: prompt})
		var mce *agent.MissingContextError
		if !errors.As(err, &mce) {
			t.Errorf("Execute(%q) err = %v, want MissingContextError", prompt, err)
		}
	}
}

func TestExecuteEstimatesWithoutTasks(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{})
	resp, err := env.Agent.Execute(env.Ctx, agent.Request{Prompt: "Estimate time for my work"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Success {
		t.Error("success = true, want false")
	}
	if !strings.Contains(resp.Message, "provide tasks") {
		t.Errorf("message = %q", resp.Message)
	}
}

const planReply = `{
  "project_name": "Onboarding Revamp",
  "overview": "Improve the signup funnel",
  "milestones": [{"name": "Discovery", "description": "Understand the funnel"}],
  "tasks": [{"name": "Audit current flow", "priority": "high"}]
}`

func TestExecuteCreateTasksFallsBackToProject(t *testing.T) {
	backend := &fakeBackend{replies: []string{planReply, "Created your project."}}
	env := newTestEnv(t, backend)
	resp, err := env.Agent.Execute(env.Ctx, agent.Request{Prompt: "Generate tasks for onboarding"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Action != string(agent.CapCreateProject) {
		t.Errorf("action = %q, want create_project", resp.Action)
	}
	projects, err := env.Store.ListProjects(env.Ctx)
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(projects) != 1 || projects[0].Name != "Onboarding Revamp" {
		t.Errorf("projects = %+v", projects)
	}
}

func TestExecuteClarificationQuestion(t *testing.T) {
	backend := &fakeBackend{replies: []string{"Which team members should I consider for assignment?"}}
	env := newTestEnv(t, backend)
	env.seedProject(t, "p1", "Platform")
	resp, err := env.Agent.Execute(env.Ctx, agent.Request{
		Prompt:  "Add a task to improve search",
		Context: &agent.RequestContext{ProjectID: "p1"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Action != "clarification_needed" {
		t.Errorf("action = %q", resp.Action)
	}
	if !strings.Contains(resp.Message, "team members") {
		t.Errorf("message = %q", resp.Message)
	}
	tasks, err := env.Store.ListTasksByProject(env.Ctx, "p1")
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("tasks created on clarification: %d", len(tasks))
	}
}

func TestExecuteCreateTaskWithSubtasks(t *testing.T) {
	taskList := `{
  "tasks": [{
    "name": "Implement rate limiting",
    "description": "Token bucket per API key",
    "priority": "high",
    "assignee": "JD",
    "assignment_reasoning": "JD owns the gateway",
    "sub_tasks": ["Pick algorithm", "Add middleware"]
  }]
}`
	backend := &fakeBackend{replies: []string{taskList, "Done, I created the task."}}
	env := newTestEnv(t, backend)
	env.seedProject(t, "p1", "Platform")
	resp, err := env.Agent.Execute(env.Ctx, agent.Request{
		Prompt:  "Add a task to implement rate limiting",
		Context: &agent.RequestContext{ProjectID: "p1"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.Success || resp.Action != string(agent.CapCreateTask) {
		t.Fatalf("resp = %+v", resp)
	}
	tasks, err := env.Store.ListTasksByProject(env.Ctx, "p1")
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("tasks = %d, want parent plus two subtasks", len(tasks))
	}
	var parents, subs int
	for _, task := range tasks {
		if task.ParentID == nil {
			parents++
			if !strings.Contains(task.Description, "JD owns the gateway") {
				t.Errorf("description missing reasoning: %q", task.Description)
			}
		} else {
			subs++
		}
	}
	if parents != 1 || subs != 2 {
		t.Errorf("parents = %d subs = %d", parents, subs)
	}
}

func TestExecuteProjectHealth(t *testing.T) {
	backend := &fakeBackend{replies: []string{"The project looks healthy."}}
	env := newTestEnv(t, backend)
	env.seedProject(t, "p1", "Platform")
	env.seedTask(t, "p1", "t1", "Implement login", "")
	resp, err := env.Agent.Execute(env.Ctx, agent.Request{
		Prompt:  "Give me the project health",
		Context: &agent.RequestContext{ProjectID: "p1"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	snapshot, ok := resp.Result.(agent.HealthSnapshot)
	if !ok {
		t.Fatalf("result type %T", resp.Result)
	}
	if snapshot.TotalTasks != 1 || snapshot.CompletionRate != 0 {
		t.Errorf("snapshot = %+v", snapshot)
	}
	if resp.Message != "The project looks healthy." {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestStatusReflectsBackend(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{})
	s := env.Agent.Status()
	if !s.Enabled || s.Model != "fake-model" {
		t.Errorf("status = %+v", s)
	}
	down := newTestEnv(t, &fakeBackend{down: true})
	s = down.Agent.Status()
	if s.Enabled || s.Model != "" {
		t.Errorf("status = %+v", s)
	}
	if s.CapabilitiesCount != len(agent.Capabilities()) {
		t.Errorf("capabilities_count = %d", s.CapabilitiesCount)
	}
}
