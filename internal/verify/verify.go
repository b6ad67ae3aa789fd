package verify

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskspec/internal/tasks"
)

// DefaultMaxAge is the default freshness window.
const DefaultMaxAge = time.Hour

// Result is the outcome of verifying one task.
type Result struct {
	AutoVerified       bool     `json:"autoVerified" yaml:"autoVerified"`
	Issues             []string `json:"issues" yaml:"issues"`
	Warnings           []string `json:"warnings" yaml:"warnings"`
	NeedsManualConfirm bool     `json:"needsManualConfirm" yaml:"needsManualConfirm"`
	FilesChecked       []string `json:"filesChecked" yaml:"filesChecked"`
	FilesModified      []string `json:"filesModified" yaml:"filesModified"`
	FilesMissing       []string `json:"filesMissing" yaml:"filesMissing"`
}

func newResult() *Result {
	return &Result{
		Issues:        []string{},
		Warnings:      []string{},
		FilesChecked:  []string{},
		FilesModified: []string{},
		FilesMissing:  []string{},
	}
}

// Verifier checks task completion evidence on the filesystem.
type Verifier struct {
	maxAge    time.Duration
	baseDir   string
	now       func() time.Time
	extractor *Extractor
	logger    *log.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithMaxAge sets the freshness window. Non-positive values are ignored.
func WithMaxAge(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.maxAge = d
		}
	}
}

// WithBaseDir sets the directory relative paths are resolved against.
func WithBaseDir(dir string) Option {
	return func(v *Verifier) { v.baseDir = dir }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// WithExtractor replaces the default path extractor.
func WithExtractor(e *Extractor) Option {
	return func(v *Verifier) {
		if e != nil {
			v.extractor = e
		}
	}
}

// WithLogger sets the logger used for per-file debug output.
func WithLogger(l *log.Logger) Option {
	return func(v *Verifier) {
		if l != nil {
			v.logger = l
		}
	}
}

// New returns a Verifier with the given options applied.
func New(opts ...Option) *Verifier {
	v := &Verifier{
		maxAge:    DefaultMaxAge,
		now:       time.Now,
		extractor: defaultExtractor,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// MaxAge returns the configured freshness window.
func (v *Verifier) MaxAge() time.Duration {
	return v.maxAge
}

// Verify inspects the files mentioned in the task's description and details.
func (v *Verifier) Verify(task *tasks.Task) *Result {
	result := newResult()

	text := strings.Join(append([]string{task.Description}, task.Details...), "\n")
	paths := v.extractor.Extract(text)

	if len(paths) == 0 {
		result.Warnings = append(result.Warnings, "No file paths found in task description - cannot auto-verify")
		result.NeedsManualConfirm = true
		return result
	}

	now := v.now()
	for _, p := range paths {
		result.FilesChecked = append(result.FilesChecked, p)

		info, err := os.Stat(v.resolve(p))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			v.logger.Debug("file missing", "task", task.ID, "path", p)
			result.FilesMissing = append(result.FilesMissing, p)
			result.Issues = append(result.Issues, "File not found: "+p)
		case err != nil:
			v.logger.Debug("stat failed", "task", task.ID, "path", p, "err", err)
			result.Warnings = append(result.Warnings, "Could not check modification time for: "+p)
		default:
			age := now.Sub(info.ModTime())
			v.logger.Debug("file checked", "task", task.ID, "path", p, "age", age)
			if age < v.maxAge {
				result.FilesModified = append(result.FilesModified, p)
			}
		}
	}

	result.AutoVerified = len(result.FilesMissing) == 0 && len(result.FilesModified) > 0

	if n := len(result.FilesMissing); n > 0 {
		result.Issues = append(result.Issues, fmt.Sprintf("%d file(s) not found - task may not be complete", n))
	}
	if len(result.FilesModified) == 0 && len(result.FilesMissing) == 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"No files modified recently (within %d minutes) - task may have been completed earlier or files not changed",
			int(v.maxAge/time.Minute)))
	}

	result.NeedsManualConfirm = !result.AutoVerified || len(result.Warnings) > 0
	return result
}

func (v *Verifier) resolve(p string) string {
	if v.baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(v.baseDir, p)
}
