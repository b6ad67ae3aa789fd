// Package query answers questions about one spec's task document and applies
// its single mutation, marking a task complete.
//
// Every call to Execute reads and parses the document afresh. Hard failures
// come back as errors (UsageError, ErrDocumentNotFound, ErrTaskNotFound,
// MutationError); outcomes that are negative but well-formed, such as a
// blocked task or an unverified one, come back as a Response whose Failed
// method reports true.
package query

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskspec/internal/docstore"
	"github.com/nibzard/taskspec/internal/tasks"
	"github.com/nibzard/taskspec/internal/verify"
)

// Request identifies a document and what to do with it.
type Request struct {
	Spec   string
	TaskID string
	Mode   Mode
	// MaxAge overrides the verification freshness window when positive.
	MaxAge time.Duration
}

// Response is the result of Execute. Exactly one of Tasks, Task,
// Dependencies or Verification is set for a successful query; Message alone
// is set for informational outcomes such as "No pending tasks found".
type Response struct {
	Mode    Mode
	Path    string
	Message string
	// Changed is true when a completion was written.
	Changed bool

	Tasks        []tasks.Task
	Task         *tasks.Task
	Dependencies *tasks.DependencyCheck
	Verification *verify.Result
	// Report is the rendered verification report.
	Report string

	failed bool
}

// Failed reports whether the outcome should produce a non-zero exit status:
// a blocked dependency check or a verification that did not pass.
func (r *Response) Failed() bool {
	return r.failed
}

// Payload returns the structured value to serialize, or nil when the
// response carries only a message.
func (r *Response) Payload() any {
	switch {
	case r.Tasks != nil:
		return r.Tasks
	case r.Dependencies != nil:
		return r.Dependencies
	case r.Verification != nil:
		return r.Verification
	case r.Task != nil && r.Mode != ModeComplete:
		return r.Task
	}
	return nil
}

// CompletionRecorder receives an entry for every completion written.
type CompletionRecorder interface {
	RecordCompletion(spec, path, taskID string) error
}

// Service executes requests against task documents.
type Service struct {
	locator   docstore.Locator
	store     docstore.ReadWriter
	logger    *log.Logger
	recorder  CompletionRecorder
	extractor *verify.Extractor
	maxAge    time.Duration
	clock     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets where completions are recorded.
func WithRecorder(r CompletionRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithExtractor sets the file path extractor used by verification.
func WithExtractor(e *verify.Extractor) Option {
	return func(s *Service) { s.extractor = e }
}

// WithMaxAge sets the default verification freshness window.
func WithMaxAge(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.maxAge = d
		}
	}
}

// WithClock replaces time.Now for verification.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.clock = now }
}

// NewService returns a Service that finds documents with locator and reads
// and writes them through store.
func NewService(locator docstore.Locator, store docstore.ReadWriter, opts ...Option) *Service {
	s := &Service{
		locator: locator,
		store:   store,
		logger:  log.New(io.Discard),
		maxAge:  verify.DefaultMaxAge,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Locator returns the service's document locator.
func (s *Service) Locator() docstore.Locator {
	return s.locator
}

// Load reads and parses the document for spec.
func (s *Service) Load(ctx context.Context, spec string) (*tasks.Document, error) {
	path, err := s.locator.Path(spec)
	if err != nil {
		return nil, &UsageError{Msg: "Invalid spec name", Err: err}
	}
	return s.store.Read(ctx, path)
}

// Execute runs req and returns its outcome.
func (s *Service) Execute(ctx context.Context, req Request) (*Response, error) {
	if req.Mode == "" {
		req.Mode = ModeAll
	}
	if !req.Mode.Valid() {
		return nil, &UsageError{Msg: fmt.Sprintf("Unknown mode %s", req.Mode)}
	}
	if req.Mode.RequiresTaskID() && req.TaskID == "" {
		return nil, &UsageError{Msg: fmt.Sprintf("Task ID required for %s mode", req.Mode.label())}
	}

	s.logger.Debug("executing request", "spec", req.Spec, "mode", req.Mode, "task", req.TaskID)

	doc, err := s.Load(ctx, req.Spec)
	if err != nil {
		return nil, err
	}

	resp := &Response{Mode: req.Mode, Path: doc.Path}
	if len(doc.Tasks) == 0 {
		resp.Message = "No tasks found"
		return resp, nil
	}

	switch req.Mode {
	case ModeAll:
		resp.Tasks = doc.Tasks
		return resp, nil
	case ModeNextPending:
		if next := doc.NextPending(); next != nil {
			resp.Task = next
		} else {
			resp.Message = "No pending tasks found"
		}
		return resp, nil
	}

	task := doc.GetTask(req.TaskID)
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, req.TaskID)
	}

	switch req.Mode {
	case ModeSingle:
		resp.Task = task
	case ModeComplete:
		return s.complete(ctx, req, doc, resp)
	case ModeCheckDependencies:
		check := tasks.CheckDependencies(task, doc.Tasks)
		resp.Dependencies = &check
		resp.failed = !check.CanExecute
	case ModeVerify:
		s.verify(req, task, resp)
	}
	return resp, nil
}

func (s *Service) complete(ctx context.Context, req Request, doc *tasks.Document, resp *Response) (*Response, error) {
	changed, err := doc.Complete(req.TaskID)
	if err != nil {
		if errors.Is(err, tasks.ErrCheckboxNotFound) {
			return nil, &MutationError{TaskID: req.TaskID, Err: err}
		}
		return nil, err
	}
	resp.Task = doc.GetTask(req.TaskID)

	if !changed {
		resp.Message = fmt.Sprintf("Task %s is already completed", req.TaskID)
		return resp, nil
	}

	if err := s.store.Write(ctx, doc.Path, doc.Content); err != nil {
		return nil, err
	}
	resp.Changed = true
	resp.Message = fmt.Sprintf("Task %s marked as complete", req.TaskID)
	s.logger.Info("task completed", "spec", req.Spec, "task", req.TaskID)

	if s.recorder != nil {
		if err := s.recorder.RecordCompletion(req.Spec, doc.Path, req.TaskID); err != nil {
			s.logger.Warn("failed to record completion", "err", err)
		}
	}
	return resp, nil
}

func (s *Service) verify(req Request, task *tasks.Task, resp *Response) {
	maxAge := s.maxAge
	if req.MaxAge > 0 {
		maxAge = req.MaxAge
	}

	v := verify.New(
		verify.WithMaxAge(maxAge),
		verify.WithBaseDir(s.locator.Root),
		verify.WithExtractor(s.extractor),
		verify.WithClock(s.clock),
		verify.WithLogger(s.logger),
	)
	result := v.Verify(task)
	resp.Verification = result
	resp.Report = verify.Format(result)
	resp.failed = !result.AutoVerified
}
