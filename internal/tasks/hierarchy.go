package tasks

import (
	"fmt"
	"strings"
)

// Hierarchy returns the parent id and depth implied by a dot-path id.
// "1" -> ("", 0), "2.1" -> ("2", 1), "3.2.1" -> ("3.2", 2).
func Hierarchy(id string) (parentID string, level int) {
	parts := strings.Split(id, ".")
	level = len(parts) - 1
	if level > 0 {
		parentID = strings.Join(parts[:level], ".")
	}
	return parentID, level
}

// Index maps task ids to their position in a task list. When an id occurs
// more than once the last occurrence wins.
type Index map[string]int

// NewIndex builds an Index over list.
func NewIndex(list []Task) Index {
	idx := make(Index, len(list))
	for i := range list {
		idx[list[i].ID] = i
	}
	return idx
}

// Lookup returns the task for id, or nil if the id is not in list.
func (idx Index) Lookup(list []Task, id string) *Task {
	i, ok := idx[id]
	if !ok {
		return nil
	}
	return &list[i]
}

// Resolve fills ParentID, Level and BlockedBy for every task in list. It runs
// over the complete list so BlockedBy always reflects the final completion
// state of the whole document. Completed tasks are annotated too.
func Resolve(list []Task) {
	idx := NewIndex(list)
	for i := range list {
		t := &list[i]
		t.ParentID, t.Level = Hierarchy(t.ID)
		t.BlockedBy = nil
		for _, dep := range t.DependsOn {
			if d := idx.Lookup(list, dep); d != nil && !d.Completed {
				t.BlockedBy = append(t.BlockedBy, dep)
			}
		}
	}
}

// DependencyCheck is the outcome of checking one task's prerequisites.
type DependencyCheck struct {
	CanExecute bool     `json:"canExecute" yaml:"canExecute"`
	BlockedBy  []string `json:"blockedBy" yaml:"blockedBy"`
	Missing    []string `json:"missing,omitempty" yaml:"missing,omitempty"`
	Message    string   `json:"message" yaml:"message"`
}

// CheckDependencies reports whether task can run given the state of all.
// Dependencies on ids absent from all are reported as missing and take
// precedence over incomplete ones.
func CheckDependencies(task *Task, all []Task) DependencyCheck {
	if len(task.DependsOn) == 0 {
		return DependencyCheck{
			CanExecute: true,
			BlockedBy:  []string{},
			Message:    fmt.Sprintf("Task %s has no dependencies and can be executed.", task.ID),
		}
	}

	idx := NewIndex(all)
	var missing, incomplete []string
	for _, dep := range task.DependsOn {
		d := idx.Lookup(all, dep)
		switch {
		case d == nil:
			missing = append(missing, dep)
		case !d.Completed:
			incomplete = append(incomplete, dep)
		}
	}

	if len(missing) > 0 {
		return DependencyCheck{
			CanExecute: false,
			BlockedBy:  missing,
			Missing:    missing,
			Message: fmt.Sprintf("Task %s cannot execute: Referenced tasks not found: %s",
				task.ID, strings.Join(missing, ", ")),
		}
	}
	if len(incomplete) > 0 {
		return DependencyCheck{
			CanExecute: false,
			BlockedBy:  incomplete,
			Message: fmt.Sprintf("Task %s cannot execute: Waiting for tasks %s to complete.",
				task.ID, strings.Join(incomplete, ", ")),
		}
	}
	return DependencyCheck{
		CanExecute: true,
		BlockedBy:  []string{},
		Message:    fmt.Sprintf("Task %s dependencies satisfied. Ready to execute.", task.ID),
	}
}

// Children returns the direct subtasks of parentID in document order.
func Children(list []Task, parentID string) []Task {
	var out []Task
	for i := range list {
		if p, _ := Hierarchy(list[i].ID); p == parentID && list[i].ID != parentID {
			out = append(out, list[i])
		}
	}
	return out
}
