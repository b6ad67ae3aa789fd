// Package cmd provides tests for CLI command handlers.
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nibzard/taskspec/internal/query"
	"github.com/nibzard/taskspec/internal/ui"
)

const demoDoc = `# Tasks

- [x] 1. Scaffold project
  - File: src/app.ts
- [ ] 2. Build models
  - _Depends: 1_
  - Create: src/models/user.ts
- [ ] 2.1 Add user fields
- [ ] 3. Wire API
  - _Depends: 2_
`

func TestMain(m *testing.M) {
	ui.SetColor(false)
	os.Exit(m.Run())
}

// isolateEnv points every config location at a temp dir and clears TASKSPEC_*.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, "TASKSPEC_") {
			t.Setenv(name, "")
		}
	}
	return home
}

// newProject writes the demo spec into a fresh project root.
func newProject(t *testing.T, content string) string {
	t.Helper()
	isolateEnv(t)
	root := t.TempDir()
	writeSpec(t, root, "demo", content)
	return root
}

func writeSpec(t *testing.T, root, spec, content string) string {
	t.Helper()
	path := filepath.Join(root, ".claude", "specs", spec, "tasks.md")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return path
}

// run executes the CLI against root and returns stdout, stderr and the error.
func run(t *testing.T, root string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"-project", root}, args...)
	err := Execute(context.Background(), full, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestExecute_HelpAndVersion(t *testing.T) {
	root := newProject(t, demoDoc)

	for _, arg := range []string{"-help", "-h", "help"} {
		out, _, err := run(t, root, arg)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", arg, err)
		}
		if !strings.Contains(out, "Usage:") || !strings.Contains(out, "check-dependencies") {
			t.Errorf("%s: usage missing content:\n%s", arg, out)
		}
	}

	for _, arg := range []string{"-version", "version"} {
		out, _, err := run(t, root, arg)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", arg, err)
		}
		if strings.TrimSpace(out) != "taskspec version "+Version {
			t.Errorf("%s: got %q", arg, out)
		}
	}
}

func TestExecute_NoCommand(t *testing.T) {
	root := newProject(t, demoDoc)
	_, stderr, err := run(t, root)
	if err == nil || err.Error() != "no command given" {
		t.Fatalf("expected no command error, got %v", err)
	}
	if !strings.Contains(stderr, "Usage:") {
		t.Errorf("expected usage on stderr, got %q", stderr)
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	root := newProject(t, demoDoc)
	_, stderr, err := run(t, root, "frobnicate")
	if err == nil || !strings.Contains(err.Error(), "unknown command: frobnicate") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
	if !strings.Contains(stderr, "Unknown command: frobnicate") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestExecute_InvalidConfig(t *testing.T) {
	root := newProject(t, demoDoc)
	_, _, err := run(t, root, "-format", "xml", "tasks", "demo")
	if err == nil || !strings.Contains(err.Error(), "loading config") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestTasks_All(t *testing.T) {
	root := newProject(t, demoDoc)
	out, _, err := run(t, root, "tasks", "demo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 tasks, got %d", len(got))
	}
	if got[2]["id"] != "2.1" || got[2]["parentId"] != "2" {
		t.Errorf("unexpected subtask: %v", got[2])
	}
	if blocked, _ := got[3]["blockedBy"].([]any); len(blocked) != 1 || blocked[0] != "2" {
		t.Errorf("task 3 blockedBy = %v", got[3]["blockedBy"])
	}
}

func TestTasks_SingleImpliedByID(t *testing.T) {
	root := newProject(t, demoDoc)
	out, _, err := run(t, root, "tasks", "demo", "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got["description"] != "Build models" {
		t.Errorf("description = %v", got["description"])
	}
}

func TestTasks_YAML(t *testing.T) {
	root := newProject(t, demoDoc)
	out, _, err := run(t, root, "tasks", "demo", "-mode", "next-pending", "-format", "yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "id: \"2\"") || !strings.Contains(out, "description: Build models") {
		t.Errorf("unexpected yaml:\n%s", out)
	}
}

func TestTasks_UnsupportedFormat(t *testing.T) {
	root := newProject(t, demoDoc)
	_, _, err := run(t, root, "tasks", "demo", "-format", "xml")
	var ue *query.UsageError
	if !errors.As(err, &ue) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestTasks_Complete(t *testing.T) {
	root := newProject(t, demoDoc)

	out, _, err := run(t, root, "tasks", "demo", "2", "-mode", "complete")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "✓ Task 2 marked as complete" {
		t.Errorf("got %q", out)
	}

	data, err := os.ReadFile(filepath.Join(root, ".claude", "specs", "demo", "tasks.md"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "- [x] 2. Build models") {
		t.Errorf("task 2 not checked:\n%s", data)
	}
	if !strings.Contains(string(data), "- [ ] 2.1 Add user fields") {
		t.Errorf("subtask changed:\n%s", data)
	}

	out, _, err = run(t, root, "tasks", "demo", "2", "-mode", "complete")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "Task 2 is already completed" {
		t.Errorf("got %q", out)
	}
}

func TestTasks_CheckDependencies(t *testing.T) {
	root := newProject(t, demoDoc)

	out, _, err := run(t, root, "tasks", "demo", "2", "-mode", "check-dependencies")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"canExecute": true`) {
		t.Errorf("expected executable task:\n%s", out)
	}

	out, _, err = run(t, root, "tasks", "demo", "3", "-mode", "check-dependencies")
	if !errors.Is(err, ErrReported) {
		t.Fatalf("expected ErrReported, got %v", err)
	}
	if !strings.Contains(out, "Waiting for tasks 2 to complete") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestTasks_Verify(t *testing.T) {
	root := newProject(t, demoDoc)

	_, _, err := run(t, root, "tasks", "demo", "2", "-mode", "verify")
	if !errors.Is(err, ErrReported) {
		t.Fatalf("expected ErrReported for missing file, got %v", err)
	}

	file := filepath.Join(root, "src", "models", "user.ts")
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file, []byte("export {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, root, "tasks", "demo", "2", "-mode", "verify")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "## Task Verification Result") || !strings.Contains(out, "PASSED") {
		t.Errorf("unexpected report:\n%s", out)
	}

	out, _, err = run(t, root, "tasks", "demo", "2", "-mode", "verify", "-raw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("raw output is not JSON: %v\n%s", err, out)
	}
	if got["autoVerified"] != true {
		t.Errorf("autoVerified = %v", got["autoVerified"])
	}
}

func TestTasks_MissingSpec(t *testing.T) {
	root := newProject(t, demoDoc)
	_, _, err := run(t, root, "tasks")
	var ue *query.UsageError
	if !errors.As(err, &ue) || !strings.Contains(ue.Error(), "Please provide a spec name") {
		t.Fatalf("expected usage error, got %v", err)
	}

	_, _, err = run(t, root, "tasks", "nope")
	if !errors.Is(err, query.ErrDocumentNotFound) {
		t.Fatalf("expected document not found, got %v", err)
	}
}

func TestTasks_BareSpecFallback(t *testing.T) {
	root := newProject(t, demoDoc)
	out, _, err := run(t, root, "demo", "3", "-mode", "single")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"description": "Wire API"`) {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestTasks_ProjectFlag(t *testing.T) {
	root := newProject(t, demoDoc)
	other := t.TempDir()
	writeSpec(t, other, "demo", "- [ ] 9. Elsewhere\n")

	out, _, err := run(t, root, "tasks", "-project", other, "demo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Elsewhere") {
		t.Errorf("expected tasks from the other project:\n%s", out)
	}
}

func TestLs_Specs(t *testing.T) {
	root := newProject(t, demoDoc)
	writeSpec(t, root, "billing", "- [x] 1. Done\n")

	out, _, err := run(t, root, "ls")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"specs (2):", "billing 1/1 done", "demo 1/4 done, 1 blocked"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestLs_NoSpecs(t *testing.T) {
	isolateEnv(t)
	root := t.TempDir()
	out, _, err := run(t, root, "ls")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No specs found in") {
		t.Errorf("got %q", out)
	}
}

func TestLs_Spec(t *testing.T) {
	root := newProject(t, demoDoc)
	out, _, err := run(t, root, "ls", "demo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"pending (3):",
		"◌ 2 Build models",
		"    ◌ 2.1 Add user fields",
		"⊘ 3 Wire API (waiting on 2)",
		"completed (1):",
		"✓ 1 Scaffold project",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Index(out, "pending") > strings.Index(out, "completed") {
		t.Errorf("pending group should come first:\n%s", out)
	}
}

func TestLs_StatusFilter(t *testing.T) {
	root := newProject(t, demoDoc)

	out, _, err := run(t, root, "ls", "demo", "-status", "blocked")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "3 Wire API") || strings.Contains(out, "Build models") {
		t.Errorf("unexpected blocked list:\n%s", out)
	}

	out, _, err = run(t, root, "ls", "demo", "-status", "done", "-v")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Scaffold project") || !strings.Contains(out, "File: src/app.ts") {
		t.Errorf("unexpected completed list:\n%s", out)
	}

	_, _, err = run(t, root, "ls", "demo", "-status", "sideways")
	if err == nil || !strings.Contains(err.Error(), "unknown status") {
		t.Errorf("expected unknown status error, got %v", err)
	}
}

func TestDoctor(t *testing.T) {
	root := newProject(t, demoDoc)
	out, _, err := run(t, root, "doctor")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}
	for _, want := range []string{"taskspec doctor", "1 spec(s) found", "Parsed 4 task(s)", "✅ All checks passed!"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestDoctor_Failures(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown dependency",
			doc:  "- [ ] 1. A\n  - _Depends: 7_\n",
			want: "depends on unknown task 7",
		},
		{
			name: "cycle",
			doc:  "- [ ] 1. A\n  - _Depends: 2_\n- [ ] 2. B\n  - _Depends: 1_\n",
			want: "cycle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newProject(t, tt.doc)
			out, _, err := run(t, root, "doctor", "demo")
			if err == nil {
				t.Fatalf("expected doctor to fail:\n%s", out)
			}
			if !strings.Contains(out, tt.want) || !strings.Contains(out, "Some checks failed") {
				t.Errorf("missing %q in:\n%s", tt.want, out)
			}
		})
	}
}

func TestExport(t *testing.T) {
	root := newProject(t, demoDoc)

	out, _, err := run(t, root, "export", "demo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "- [x] 1. Scaffold project\n") || !strings.Contains(out, "  - _Depends: 2_\n") {
		t.Errorf("unexpected markdown:\n%s", out)
	}

	out, _, err = run(t, root, "export", "demo", "-format", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var list []map[string]any
	if err := json.Unmarshal([]byte(out), &list); err != nil || len(list) != 4 {
		t.Errorf("unexpected json export (%v):\n%s", err, out)
	}

	_, _, err = run(t, root, "export", "demo", "-o", "out/tasks.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "out", "tasks.md"))
	if err != nil {
		t.Fatalf("export file: %v", err)
	}
	if !strings.Contains(string(data), "- [ ] 2.1. Add user fields") {
		t.Errorf("unexpected export file:\n%s", data)
	}

	if _, _, err := run(t, root, "export"); err == nil {
		t.Error("expected error without a spec")
	}
}

func TestConfigCommand(t *testing.T) {
	root := newProject(t, demoDoc)
	if err := os.WriteFile(filepath.Join(root, "taskspec.toml"), []byte("cache_size = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, root, "config", "-v")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"cache_size = 3", "# sources", "project file"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	out, _, err = run(t, root, "config", "path")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != filepath.Join(root, "taskspec.toml") {
		t.Errorf("config path = %q", out)
	}

	out, _, err = run(t, root, "config", "example")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "[verify]") {
		t.Errorf("example missing [verify] table:\n%s", out)
	}

	if _, _, err := run(t, root, "config", "nuke"); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestAudit(t *testing.T) {
	root := newProject(t, demoDoc)
	logDir := t.TempDir()

	out, _, err := run(t, root, "-log-dir", logDir, "audit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No completions recorded") || !strings.Contains(out, "Audit logging is off") {
		t.Errorf("unexpected empty audit output:\n%s", out)
	}

	if _, _, err := run(t, root, "-audit", "-log-dir", logDir, "tasks", "demo", "2", "-mode", "complete"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	out, _, err = run(t, root, "-audit", "-log-dir", logDir, "audit", "-format", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var entries []map[string]any
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("audit output is not JSON: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0]["spec"] != "demo" || entries[0]["taskId"] != "2" {
		t.Errorf("unexpected entries: %v", entries)
	}

	out, _, err = run(t, root, "-audit", "-log-dir", logDir, "audit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "✓ demo 2") {
		t.Errorf("unexpected text output:\n%s", out)
	}
}

func TestParseInterspersed(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantPos  []string
		wantMode string
		wantRaw  bool
	}{
		{"flags first", []string{"-mode", "complete", "demo", "1"}, []string{"demo", "1"}, "complete", false},
		{"flags last", []string{"demo", "1", "-mode", "verify", "-raw"}, []string{"demo", "1"}, "verify", true},
		{"flags between", []string{"demo", "-raw", "1"}, []string{"demo", "1"}, "", true},
		{"double dash", []string{"demo", "--", "-1"}, []string{"demo", "-1"}, "", false},
		{"none", nil, nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			mode := fs.String("mode", "", "")
			raw := fs.Bool("raw", false, "")

			pos, err := parseInterspersed(fs, tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(pos, tt.wantPos) {
				t.Errorf("positional = %v, want %v", pos, tt.wantPos)
			}
			if *mode != tt.wantMode || *raw != tt.wantRaw {
				t.Errorf("mode=%q raw=%v, want %q %v", *mode, *raw, tt.wantMode, tt.wantRaw)
			}
		})
	}
}
