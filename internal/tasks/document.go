package tasks

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrCheckboxNotFound is returned by MarkComplete when no checkbox line in
// the document text matches the task id.
var ErrCheckboxNotFound = errors.New("checkbox line not found")

// Document is a parsed task document together with the text it came from.
type Document struct {
	Path    string
	Content string
	Tasks   []Task

	index Index
}

// NewDocument parses content and returns the resulting Document.
func NewDocument(path, content string) *Document {
	list := Parse(content)
	return &Document{
		Path:    path,
		Content: content,
		Tasks:   list,
		index:   NewIndex(list),
	}
}

// GetTask returns a task by exact ID, or nil if not found.
func (d *Document) GetTask(id string) *Task {
	return d.index.Lookup(d.Tasks, id)
}

// NextPending returns the first task in document order that is not
// completed, or nil if every task is done.
func (d *Document) NextPending() *Task {
	for i := range d.Tasks {
		if !d.Tasks[i].Completed {
			return &d.Tasks[i]
		}
	}
	return nil
}

// Counts tallies the document's tasks.
func (d *Document) Counts() Counts {
	return Count(d.Tasks)
}

// Complete marks the task complete in the document text and re-parses it.
// It returns false without touching the text if the task is already
// complete.
func (d *Document) Complete(id string) (bool, error) {
	t := d.GetTask(id)
	if t == nil {
		return false, fmt.Errorf("task %q not found", id)
	}
	if t.Completed {
		return false, nil
	}

	updated, err := MarkComplete(d.Content, id)
	if err != nil {
		return false, err
	}

	d.Content = updated
	d.Tasks = Parse(updated)
	d.index = NewIndex(d.Tasks)
	return true, nil
}

// pendingCheckboxPattern locates a whitespace-only checkbox at the start of
// a line. Group 2 is the checkbox interior.
var pendingCheckboxPattern = regexp.MustCompile(`^(\s*-\s*\[)(\s*)\]`)

// MarkComplete rewrites the checkbox of the last task line for id to "x",
// the same occurrence GetTask resolves when ids repeat. Every other byte of
// content is left as is. A line is matched with the same task-line pattern
// the parser uses, so "1" never matches "1.1". It fails if that line's
// checkbox holds anything but whitespace.
func MarkComplete(content, id string) (string, error) {
	target, offset := -1, 0
	var targetBody string
	for _, line := range strings.SplitAfter(content, "\n") {
		body := strings.TrimRight(line, "\r\n")
		if m := taskLinePattern.FindStringSubmatch(strings.TrimSpace(body)); m != nil && m[2] == id {
			target, targetBody = offset, body
		}
		offset += len(line)
	}
	if target < 0 {
		return content, fmt.Errorf("task %s: %w", id, ErrCheckboxNotFound)
	}

	loc := pendingCheckboxPattern.FindStringSubmatchIndex(targetBody)
	if loc == nil {
		return content, fmt.Errorf("task %s: %w", id, ErrCheckboxNotFound)
	}
	return content[:target+loc[4]] + "x" + content[target+loc[5]:], nil
}

// Clone returns a deep copy of d, so callers may mutate the copy without
// affecting d.
func (d *Document) Clone() *Document {
	list := make([]Task, len(d.Tasks))
	for i, t := range d.Tasks {
		t.Details = append([]string{}, t.Details...)
		t.DependsOn = append([]string{}, t.DependsOn...)
		if t.BlockedBy != nil {
			t.BlockedBy = append([]string(nil), t.BlockedBy...)
		}
		list[i] = t
	}
	return &Document{
		Path:    d.Path,
		Content: d.Content,
		Tasks:   list,
		index:   NewIndex(list),
	}
}
