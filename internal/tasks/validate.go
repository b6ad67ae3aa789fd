package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/taskspec/internal/utils"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // dot path to the offending field, e.g. tasks[2].dependsOn
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ErrDependencyCycle is wrapped by validation errors that report a cycle.
var ErrDependencyCycle = errors.New("dependency cycle")

// ValidationOptions controls validation behavior.
type ValidationOptions struct {
	// SchemaPath overrides the built-in schema with a schema file on disk.
	SchemaPath string
	// SkipSchema disables JSON Schema validation entirely.
	SkipSchema bool
}

// ValidationResult contains validation results. Errors make a document
// invalid; warnings point at ambiguities the parser tolerates.
type ValidationResult struct {
	Valid      bool
	Errors     []error
	Warnings   []string
	UsedSchema bool
}

// Validate checks a resolved task list for problems the parser accepts
// silently: duplicate ids, dangling or circular dependencies, orphaned
// subtasks, and schema violations of the serialized form.
func Validate(list []Task, opts ValidationOptions) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]error, 0),
		Warnings: make([]string, 0),
	}

	if len(list) == 0 {
		result.Warnings = append(result.Warnings, "no tasks found")
		return result
	}

	if !opts.SkipSchema {
		validateWithSchema(list, opts.SchemaPath, result)
	}
	validateStructure(list, result)

	if cycle := DetectCycle(list); cycle != nil {
		result.addError("", fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(cycle, " -> ")))
	}

	return result
}

func (r *ValidationResult) addError(path string, err error) {
	r.Valid = false
	r.Errors = append(r.Errors, &ValidationError{Path: path, Err: err})
}

func validateStructure(list []Task, result *ValidationResult) {
	idx := NewIndex(list)
	seen := make(map[string]int, len(list))
	for i := range list {
		seen[list[i].ID]++
	}

	reported := make(map[string]bool)
	for i := range list {
		t := &list[i]
		path := fmt.Sprintf("tasks[%d]", i)

		if n := seen[t.ID]; n > 1 && !reported[t.ID] {
			reported[t.ID] = true
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("task id %s appears %d times; lookups use the last occurrence", t.ID, n))
		}

		for j, dep := range t.DependsOn {
			depPath := fmt.Sprintf("%s.dependsOn[%d]", path, j)
			if dep == t.ID {
				result.addError(depPath, fmt.Errorf("task %s depends on itself", t.ID))
				continue
			}
			if _, ok := idx[dep]; !ok {
				result.addError(depPath, fmt.Errorf("task %s depends on unknown task %s", t.ID, dep))
			}
		}

		if t.ParentID != "" {
			if _, ok := idx[t.ParentID]; !ok {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("task %s has no parent task %s", t.ID, t.ParentID))
			}
		}

		if t.Completed && t.IsBlocked() {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("task %s is completed but depends on incomplete tasks %s",
					t.ID, strings.Join(t.BlockedBy, ", ")))
		}
	}
}

// DetectCycle returns a dependency cycle as a list of ids ending where it
// started, or nil if the dependency graph is acyclic. Dependencies on unknown
// ids and self-dependencies, which validateStructure reports on its own, are
// ignored. Traversal follows document order so the result is stable.
func DetectCycle(list []Task) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	idx := NewIndex(list)
	color := make(map[string]int, len(list))
	parent := make(map[string]string, len(list))

	var dfs func(id string) []string
	dfs = func(id string) []string {
		color[id] = gray
		t := idx.Lookup(list, id)
		for _, next := range t.DependsOn {
			if next == id {
				continue
			}
			if _, ok := idx[next]; !ok {
				continue
			}
			if color[next] == gray {
				cycle := []string{next}
				for cur := id; cur != next; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, next)
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = id
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[id] = black
		return nil
	}

	for i := range list {
		if color[list[i].ID] == white {
			if cycle := dfs(list[i].ID); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

func validateWithSchema(list []Task, schemaPath string, result *ValidationResult) {
	schema, err := compileSchema(schemaPath)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("schema validation skipped: %v", err))
		return
	}
	result.UsedSchema = true

	// The validator works on decoded JSON values, not Go structs.
	data, err := json.Marshal(map[string]any{"tasks": list})
	if err != nil {
		result.addError("", fmt.Errorf("marshal tasks for validation: %w", err))
		return
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		result.addError("", fmt.Errorf("unmarshal tasks for validation: %w", err))
		return
	}

	if err := schema.Validate(doc); err != nil {
		appendSchemaErrors(result, err)
	}
}

func compileSchema(schemaPath string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	if schemaPath == "" {
		if err := compiler.AddResource(embeddedSchemaURL, strings.NewReader(TaskListSchema)); err != nil {
			return nil, fmt.Errorf("load built-in schema: %w", err)
		}
		return compiler.Compile(embeddedSchemaURL)
	}

	absPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("invalid schema path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("schema file not found: %s", absPath)
		}
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	schema, err := compiler.Compile(absPath)
	if err != nil {
		return nil, fmt.Errorf("invalid schema file: %w", err)
	}
	return schema, nil
}

func appendSchemaErrors(result *ValidationResult, err error) {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		result.addError("", err)
		return
	}
	collectSchemaErrors(result, ve)
}

func collectSchemaErrors(result *ValidationResult, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		result.addError(utils.JSONPointerToPath(err.InstanceLocation), errors.New(err.Message))
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}
