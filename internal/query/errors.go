package query

import (
	"errors"
	"fmt"

	"github.com/nibzard/taskspec/internal/docstore"
)

var (
	// ErrDocumentNotFound is returned when the task document does not exist.
	ErrDocumentNotFound = docstore.ErrNotFound

	// ErrTaskNotFound is returned when no task has the requested id.
	ErrTaskNotFound = errors.New("task not found")
)

// UsageError reports a malformed request: an unknown mode, a missing task id
// or an invalid spec name.
type UsageError struct {
	Msg string
	Err error
}

func (e *UsageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// MutationError reports that a task exists but its checkbox line could not
// be rewritten, which points at irregular formatting in the document.
type MutationError struct {
	TaskID string
	Err    error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("Could not find task %s to mark as complete: %v", e.TaskID, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}
