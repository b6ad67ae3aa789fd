package query

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nibzard/taskspec/internal/docstore"
)

const sampleDoc = `# Tasks

- [x] 1. Set up project
  - File: src/setup.ts
- [ ] 2. Build models
  - _Depends: 1_
  - Create: src/models/user.ts
- [ ] 3. Wire API
  - _Depends: 2, 99_
- [ ] 4. Write docs
`

type recorder struct {
	mu      sync.Mutex
	entries []string
}

func (r *recorder) RecordCompletion(spec, path, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, spec+":"+taskID)
	return nil
}

func setup(t *testing.T, content string, opts ...Option) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	loc := docstore.Locator{Root: root, SpecsDir: ".claude/specs", TasksFile: "tasks.md"}
	path, err := loc.Path("demo")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return NewService(loc, docstore.NewStore(), opts...), path
}

func TestExecute_All(t *testing.T) {
	svc, path := setup(t, sampleDoc)

	resp, err := svc.Execute(context.Background(), Request{Spec: "demo", Mode: ModeAll})
	require.NoError(t, err)
	assert.Equal(t, path, resp.Path)
	assert.Len(t, resp.Tasks, 4)
	assert.False(t, resp.Failed())
	assert.Equal(t, resp.Tasks, resp.Payload())
}

func TestExecute_DefaultModeIsAll(t *testing.T) {
	svc, _ := setup(t, sampleDoc)
	resp, err := svc.Execute(context.Background(), Request{Spec: "demo"})
	require.NoError(t, err)
	assert.Equal(t, ModeAll, resp.Mode)
	assert.Len(t, resp.Tasks, 4)
}

func TestExecute_Single(t *testing.T) {
	svc, _ := setup(t, sampleDoc)

	resp, err := svc.Execute(context.Background(), Request{Spec: "demo", TaskID: "2", Mode: ModeSingle})
	require.NoError(t, err)
	require.NotNil(t, resp.Task)
	assert.Equal(t, "Build models", resp.Task.Description)
	assert.Equal(t, resp.Task, resp.Payload())

	_, err = svc.Execute(context.Background(), Request{Spec: "demo", TaskID: "2.1", Mode: ModeSingle})
	assert.True(t, errors.Is(err, ErrTaskNotFound))
}

func TestExecute_NextPending(t *testing.T) {
	svc, _ := setup(t, sampleDoc)
	resp, err := svc.Execute(context.Background(), Request{Spec: "demo", Mode: ModeNextPending})
	require.NoError(t, err)
	require.NotNil(t, resp.Task)
	assert.Equal(t, "2", resp.Task.ID)

	done, _ := setup(t, "- [x] 1. A\n")
	resp, err = done.Execute(context.Background(), Request{Spec: "demo", Mode: ModeNextPending})
	require.NoError(t, err)
	assert.Equal(t, "No pending tasks found", resp.Message)
	assert.Nil(t, resp.Payload())
}

func TestExecute_NoTasks(t *testing.T) {
	svc, _ := setup(t, "# Nothing here\n")
	for _, mode := range []Mode{ModeAll, ModeSingle, ModeComplete} {
		resp, err := svc.Execute(context.Background(), Request{Spec: "demo", TaskID: "1", Mode: mode})
		require.NoError(t, err)
		assert.Equal(t, "No tasks found", resp.Message)
	}
}

func TestExecute_UsageErrors(t *testing.T) {
	svc, _ := setup(t, sampleDoc)

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"unknown mode", Request{Spec: "demo", Mode: "explode"}, "Unknown mode explode"},
		{"single without id", Request{Spec: "demo", Mode: ModeSingle}, "Task ID required for single task mode"},
		{"complete without id", Request{Spec: "demo", Mode: ModeComplete}, "Task ID required for complete task mode"},
		{"deps without id", Request{Spec: "demo", Mode: ModeCheckDependencies}, "Task ID required for check-dependencies mode"},
		{"verify without id", Request{Spec: "demo", Mode: ModeVerify}, "Task ID required for verify mode"},
		{"bad spec", Request{Spec: "../x", Mode: ModeAll}, "Invalid spec name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Execute(context.Background(), tt.req)
			var ue *UsageError
			require.True(t, errors.As(err, &ue), "got %v", err)
			assert.Contains(t, ue.Error(), tt.want)
		})
	}
}

func TestExecute_DocumentNotFound(t *testing.T) {
	svc, _ := setup(t, sampleDoc)
	_, err := svc.Execute(context.Background(), Request{Spec: "other", Mode: ModeAll})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDocumentNotFound))
	assert.Contains(t, err.Error(), filepath.Join("other", "tasks.md"))
}

func TestExecute_Complete(t *testing.T) {
	rec := &recorder{}
	svc, path := setup(t, sampleDoc, WithRecorder(rec))

	resp, err := svc.Execute(context.Background(), Request{Spec: "demo", TaskID: "2", Mode: ModeComplete})
	require.NoError(t, err)
	assert.True(t, resp.Changed)
	assert.Equal(t, "Task 2 marked as complete", resp.Message)
	assert.True(t, resp.Task.Completed)
	assert.Nil(t, resp.Payload())
	assert.Equal(t, []string{"demo:2"}, rec.entries)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := sampleDoc[:len("# Tasks\n\n- [x] 1. Set up project\n  - File: src/setup.ts\n- [")] + "x" +
		sampleDoc[len("# Tasks\n\n- [x] 1. Set up project\n  - File: src/setup.ts\n- [ "):]
	assert.Equal(t, want, string(data))

	resp, err = svc.Execute(context.Background(), Request{Spec: "demo", TaskID: "2", Mode: ModeComplete})
	require.NoError(t, err)
	assert.False(t, resp.Changed)
	assert.Equal(t, "Task 2 is already completed", resp.Message)
	assert.Len(t, rec.entries, 1)

	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, again, "already-completed is a byte-identical no-op")
}

func TestExecute_CompleteDuplicateID(t *testing.T) {
	svc, path := setup(t, "- [ ] 1. First\n- [ ] 1. Second\n")
	ctx := context.Background()

	resp, err := svc.Execute(ctx, Request{Spec: "demo", TaskID: "1", Mode: ModeComplete})
	require.NoError(t, err)
	assert.True(t, resp.Changed)
	require.NotNil(t, resp.Task)
	assert.Equal(t, "Second", resp.Task.Description)
	assert.True(t, resp.Task.Completed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "- [ ] 1. First\n- [x] 1. Second\n", string(data))

	resp, err = svc.Execute(ctx, Request{Spec: "demo", TaskID: "1", Mode: ModeSingle})
	require.NoError(t, err)
	assert.True(t, resp.Task.Completed, "lookup and rewrite agree on the last occurrence")

	resp, err = svc.Execute(ctx, Request{Spec: "demo", TaskID: "1", Mode: ModeComplete})
	require.NoError(t, err)
	assert.False(t, resp.Changed)
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestExecute_CompleteErrors(t *testing.T) {
	svc, _ := setup(t, "- [xx] 1. Odd checkbox\n- [ ] 2. B\n")

	_, err := svc.Execute(context.Background(), Request{Spec: "demo", TaskID: "1", Mode: ModeComplete})
	var me *MutationError
	require.True(t, errors.As(err, &me), "got %v", err)
	assert.Equal(t, "1", me.TaskID)
	assert.False(t, errors.Is(err, ErrTaskNotFound))

	_, err = svc.Execute(context.Background(), Request{Spec: "demo", TaskID: "7", Mode: ModeComplete})
	assert.True(t, errors.Is(err, ErrTaskNotFound))
}

func TestExecute_CheckDependencies(t *testing.T) {
	svc, _ := setup(t, sampleDoc)
	ctx := context.Background()

	resp, err := svc.Execute(ctx, Request{Spec: "demo", TaskID: "2", Mode: ModeCheckDependencies})
	require.NoError(t, err)
	assert.True(t, resp.Dependencies.CanExecute)
	assert.False(t, resp.Failed())

	resp, err = svc.Execute(ctx, Request{Spec: "demo", TaskID: "3", Mode: ModeCheckDependencies})
	require.NoError(t, err)
	assert.False(t, resp.Dependencies.CanExecute)
	assert.Equal(t, []string{"99"}, resp.Dependencies.BlockedBy)
	assert.Contains(t, resp.Dependencies.Message, "not found")
	assert.True(t, resp.Failed())
}

func TestExecute_Verify(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := setup(t, sampleDoc, WithClock(func() time.Time { return now }), WithMaxAge(time.Hour))
	root := svc.Locator().Root

	file := filepath.Join(root, "src", "models", "user.ts")
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte("export {}"), 0o644))
	recent := now.Add(-10 * time.Minute)
	require.NoError(t, os.Chtimes(file, recent, recent))

	resp, err := svc.Execute(context.Background(), Request{Spec: "demo", TaskID: "2", Mode: ModeVerify})
	require.NoError(t, err)
	require.NotNil(t, resp.Verification)
	assert.True(t, resp.Verification.AutoVerified)
	assert.False(t, resp.Failed())
	assert.Contains(t, resp.Report, "PASSED")

	// A narrower window from the request makes the same file stale.
	resp, err = svc.Execute(context.Background(), Request{Spec: "demo", TaskID: "2", Mode: ModeVerify, MaxAge: 5 * time.Minute})
	require.NoError(t, err)
	assert.False(t, resp.Verification.AutoVerified)
	assert.True(t, resp.Failed())
	assert.Contains(t, resp.Report, "within 5 minutes")

	resp, err = svc.Execute(context.Background(), Request{Spec: "demo", TaskID: "1", Mode: ModeVerify})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/setup.ts"}, resp.Verification.FilesMissing)
	assert.True(t, resp.Failed())
}

func TestExecute_WithCache(t *testing.T) {
	root := t.TempDir()
	loc := docstore.Locator{Root: root, SpecsDir: "specs", TasksFile: "tasks.md"}
	path, err := loc.Path("demo")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("- [ ] 1. A\n- [ ] 2. B\n  - _Depends: 1_\n"), 0o644))

	cache := docstore.NewCache(docstore.NewStore(), 8, time.Minute)
	svc := NewService(loc, cache)
	ctx := context.Background()

	_, err = svc.Execute(ctx, Request{Spec: "demo", TaskID: "1", Mode: ModeComplete})
	require.NoError(t, err)

	resp, err := svc.Execute(ctx, Request{Spec: "demo", TaskID: "2", Mode: ModeCheckDependencies})
	require.NoError(t, err)
	assert.True(t, resp.Dependencies.CanExecute, "completion is visible through the cache")
}
