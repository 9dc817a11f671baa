package agent_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"planwise/internal/agent"
	"planwise/internal/db"
	"planwise/internal/domain"
	"planwise/internal/llm"
	"planwise/internal/migrate"
	"planwise/internal/repo"
)

// fakeBackend replays scripted completions in order. Once the script
// runs out it answers "ok", which keeps summary calls out of the way.
type fakeBackend struct {
	replies []string
	err     error
	down    bool
	calls   int
}

func (f *fakeBackend) Complete(ctx context.Context, system, user string, opts llm.Options) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "ok", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeBackend) Model() string { return "fake-model" }
func (f *fakeBackend) Enabled() bool { return !f.down }

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	Agent *agent.Agent
	Store repo.Repo
	Ctx   context.Context
}

func newTestEnv(t *testing.T, backend llm.Client) testEnv {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := repo.Repo{DB: conn}
	ag := agent.New(backend, store, zap.NewNop())
	ag.Now = func() time.Time { return testNow }
	n := 0
	ag.NewID = func() string { n++; return fmt.Sprintf("id-%d", n) }
	return testEnv{Agent: ag, Store: store, Ctx: context.Background()}
}

func (env testEnv) seedProject(t *testing.T, id, name string) {
	t.Helper()
	err := env.Store.InsertProject(env.Ctx, domain.Project{
		ID:        id,
		Name:      name,
		Key:       "SEED" + id,
		Status:    "active",
		CreatedAt: testNow.Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
}

func (env testEnv) seedTask(t *testing.T, projectID, id, content, description string) {
	t.Helper()
	stamp := testNow.Format(time.RFC3339)
	err := env.Store.InsertTask(env.Ctx, domain.Task{
		ID:          id,
		ProjectID:   projectID,
		Content:     content,
		Description: description,
		Status:      "To Do",
		Priority:    "medium",
		CreatedBy:   "tester",
		CreatedAt:   stamp,
		UpdatedAt:   stamp,
	})
	if err != nil {
		t.Fatalf("seed task: %v", err)
	}
}
