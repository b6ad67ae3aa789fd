// Package docstore locates, reads and writes task documents.
//
// Documents live at <root>/<specs dir>/<spec name>/<tasks file>. Writes go
// through a temp file and rename so a reader never sees a half-written
// document. A Cache can sit in front of a Store to skip re-parsing unchanged
// files.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/natefinch/atomic"

	"github.com/nibzard/taskspec/internal/tasks"
)

// ErrNotFound is returned when the task document does not exist.
var ErrNotFound = errors.New("task document not found")

// ErrInvalidSpecName is returned for spec names that would escape the specs
// directory.
var ErrInvalidSpecName = errors.New("invalid spec name")

// Reader loads and parses a task document.
type Reader interface {
	Read(ctx context.Context, path string) (*tasks.Document, error)
}

// Writer replaces a task document's text.
type Writer interface {
	Write(ctx context.Context, path, content string) error
}

// ReadWriter groups Reader and Writer.
type ReadWriter interface {
	Reader
	Writer
}

// Locator maps spec names to document paths.
type Locator struct {
	Root      string
	SpecsDir  string
	TasksFile string
}

// Path returns the document path for spec.
func (l Locator) Path(spec string) (string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidSpecName)
	}
	if !filepath.IsLocal(spec) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSpecName, spec)
	}

	specsDir := l.SpecsDir
	if !filepath.IsAbs(specsDir) {
		specsDir = filepath.Join(l.Root, specsDir)
	}
	return filepath.Join(specsDir, spec, l.TasksFile), nil
}

// SpecsPath returns the absolute specs directory.
func (l Locator) SpecsPath() string {
	if filepath.IsAbs(l.SpecsDir) {
		return l.SpecsDir
	}
	return filepath.Join(l.Root, l.SpecsDir)
}

// Specs lists spec directories that contain a task document, sorted by name.
func (l Locator) Specs() ([]string, error) {
	entries, err := os.ReadDir(l.SpecsPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read specs directory: %w", err)
	}

	specs := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(l.SpecsPath(), e.Name(), l.TasksFile)); err == nil {
			specs = append(specs, e.Name())
		}
	}
	return specs, nil
}

// Store reads and writes documents on the local filesystem.
type Store struct {
	backup bool
	logger *log.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithBackup copies the previous document to <path>.bak before each write.
func WithBackup(enabled bool) StoreOption {
	return func(s *Store) { s.backup = enabled }
}

// WithStoreLogger sets the logger for write events.
func WithStoreLogger(l *log.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore returns a filesystem Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read loads and parses the document at path.
func (s *Store) Read(ctx context.Context, path string) (*tasks.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read task document: %w", err)
	}
	return tasks.NewDocument(path, string(data)), nil
}

// Write atomically replaces the document at path with content.
func (s *Store) Write(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.backup {
		if err := s.writeBackup(path); err != nil {
			return err
		}
	}

	if err := atomic.WriteFile(path, strings.NewReader(content)); err != nil {
		return fmt.Errorf("write task document: %w", err)
	}
	s.logger.Debug("document written", "path", path, "bytes", len(content))
	return nil
}

func (s *Store) writeBackup(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open document for backup: %w", err)
	}
	defer f.Close()

	bakPath := path + ".bak"
	if err := atomic.WriteFile(bakPath, f); err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	s.logger.Debug("backup written", "path", bakPath)
	return nil
}
