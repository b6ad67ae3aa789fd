package tasks

import (
	"strconv"
	"strings"
)

// Task is a single checklist entry and its derived annotations.
type Task struct {
	ID             string   `json:"id" yaml:"id"`
	Description    string   `json:"description" yaml:"description"`
	Leverage       string   `json:"leverage,omitempty" yaml:"leverage,omitempty"`
	Requirements   string   `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	Completed      bool     `json:"completed" yaml:"completed"`
	Details        []string `json:"details" yaml:"details,omitempty"`
	DependsOn      []string `json:"dependsOn" yaml:"dependsOn"`
	CanRunParallel bool     `json:"canRunParallel" yaml:"canRunParallel"`
	BlockedBy      []string `json:"blockedBy,omitempty" yaml:"blockedBy,omitempty"`
	ParentID       string   `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Level          int      `json:"level" yaml:"level"`
}

// IsZero returns true if the task is empty (has no ID).
func (t *Task) IsZero() bool {
	return t.ID == ""
}

// IsBlocked reports whether any existing dependency is still pending.
func (t *Task) IsBlocked() bool {
	return len(t.BlockedBy) > 0
}

// newTask returns a task with non-nil slices so that empty lists serialize
// as [] rather than null.
func newTask(id, description string, completed bool) Task {
	return Task{
		ID:          id,
		Description: description,
		Completed:   completed,
		Details:     []string{},
		DependsOn:   []string{},
	}
}

// CompareIDs returns true if id1 should come before id2 in numeric-aware
// dot-path ordering: "2" < "2.1" < "2.10" < "10". Segments that are not
// numbers fall back to lexicographic comparison.
func CompareIDs(id1, id2 string) bool {
	a := strings.Split(id1, ".")
	b := strings.Split(id2, ".")
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] == b[i] {
			continue
		}
		na, errA := strconv.Atoi(a[i])
		nb, errB := strconv.Atoi(b[i])
		if errA == nil && errB == nil && na != nb {
			return na < nb
		}
		return a[i] < b[i]
	}
	return len(a) < len(b)
}

// Counts summarizes completion state across a task list.
type Counts struct {
	Total     int `json:"total" yaml:"total"`
	Completed int `json:"completed" yaml:"completed"`
	Pending   int `json:"pending" yaml:"pending"`
	Blocked   int `json:"blocked" yaml:"blocked"`
}

// Count tallies tasks. Blocked counts pending tasks with a non-empty BlockedBy.
func Count(list []Task) Counts {
	c := Counts{Total: len(list)}
	for i := range list {
		if list[i].Completed {
			c.Completed++
			continue
		}
		c.Pending++
		if list[i].IsBlocked() {
			c.Blocked++
		}
	}
	return c
}
