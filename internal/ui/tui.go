// Package ui provides terminal output helpers and the interactive viewer.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/nibzard/taskspec/internal/docstore"
	"github.com/nibzard/taskspec/internal/tasks"
)

// Loader reads the current task document.
type Loader func(ctx context.Context) (*tasks.Document, error)

// TUIOptions configures the viewer.
type TUIOptions struct {
	// Spec is shown in the title.
	Spec string
	// Path is the task document to watch for changes. Empty disables watching.
	Path string
	Load Loader
	// PollInterval is used when the file cannot be watched.
	PollInterval time.Duration
	Logger       *log.Logger
}

const defaultPollInterval = 2 * time.Second

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// RunTUI starts the viewer and blocks until the user quits or ctx ends.
func RunTUI(ctx context.Context, opts TUIOptions) error {
	if opts.Load == nil {
		return fmt.Errorf("tui: no loader configured")
	}
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var changes <-chan struct{}
	if opts.Path != "" {
		ch, err := docstore.Watch(ctx, opts.Path, opts.Logger)
		if err != nil {
			opts.Logger.Warn("file watch unavailable, polling instead", "path", opts.Path, "err", err)
		} else {
			changes = ch
		}
	}

	program := tea.NewProgram(newTUIModel(ctx, opts, changes), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type taskFilter int

const (
	filterAll taskFilter = iota
	filterPending
	filterCompleted
	filterBlocked
)

func (f taskFilter) String() string {
	switch f {
	case filterPending:
		return "pending"
	case filterCompleted:
		return "completed"
	case filterBlocked:
		return "blocked"
	default:
		return "all"
	}
}

func (f taskFilter) match(t *tasks.Task) bool {
	switch f {
	case filterPending:
		return !t.Completed
	case filterCompleted:
		return t.Completed
	case filterBlocked:
		return !t.Completed && t.IsBlocked()
	default:
		return true
	}
}

type tuiModel struct {
	ctx      context.Context
	spec     string
	path     string
	load     Loader
	changes  <-chan struct{}
	poll     time.Duration
	doc      *tasks.Document
	loadErr  error
	loadedAt time.Time
	filter   taskFilter
	showHelp bool
}

type (
	tickMsg        time.Time
	fileChangedMsg struct{}
	watchClosedMsg struct{}
)

func newTUIModel(ctx context.Context, opts TUIOptions, changes <-chan struct{}) *tuiModel {
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &tuiModel{
		ctx:     ctx,
		spec:    opts.Spec,
		path:    opts.Path,
		load:    opts.Load,
		changes: changes,
		poll:    poll,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	m.refresh()
	return m.next()
}

// next schedules the following refresh trigger.
func (m *tuiModel) next() tea.Cmd {
	if m.changes != nil {
		return waitForChange(m.changes)
	}
	return tickCmd(m.poll)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r", "f5":
			m.refresh()
		case "h", "?":
			m.showHelp = !m.showHelp
		case "1":
			m.filter = filterPending
		case "2":
			m.filter = filterCompleted
		case "3":
			m.filter = filterBlocked
		case "0":
			m.filter = filterAll
		}
		return m, nil
	case fileChangedMsg:
		m.refresh()
		return m, m.next()
	case watchClosedMsg:
		m.changes = nil
		return m, m.next()
	case tickMsg:
		m.refresh()
		return m, m.next()
	}
	return m, nil
}

func (m *tuiModel) refresh() {
	doc, err := m.load(m.ctx)
	if err != nil {
		m.loadErr = err
		m.doc = nil
		return
	}
	m.loadErr = nil
	m.doc = doc
	m.loadedAt = time.Now()
}

func (m *tuiModel) View() string {
	var b strings.Builder
	title := "taskspec"
	if m.spec != "" {
		title += " · " + m.spec
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b, m)
		return b.String()
	}

	if m.loadErr != nil {
		b.WriteString(errStyle.Render("Error loading task document:") + "\n")
		b.WriteString("  " + m.loadErr.Error() + "\n\n")
		writeFooter(&b, m)
		return b.String()
	}
	if m.doc == nil {
		b.WriteString("Loading...\n\n")
		writeFooter(&b, m)
		return b.String()
	}

	writeOverview(&b, m.doc)
	writeNext(&b, m.doc)
	writeBlocked(&b, m.doc)
	writeTasks(&b, m.doc, m.filter)
	writeFooter(&b, m)
	return b.String()
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return watchClosedMsg{}
		}
		return fileChangedMsg{}
	}
}

func writeOverview(b *strings.Builder, doc *tasks.Document) {
	c := doc.Counts()
	b.WriteString(headingStyle.Render("Overview") + "\n\n")
	pct := 0
	if c.Total > 0 {
		pct = c.Completed * 100 / c.Total
	}
	b.WriteString(fmt.Sprintf("  Total: %d  Completed: %d  Pending: %d  Blocked: %d  (%d%% done)\n\n",
		c.Total, c.Completed, c.Pending, c.Blocked, pct))
}

func writeNext(b *strings.Builder, doc *tasks.Document) {
	b.WriteString(headingStyle.Render("Next Task") + "\n\n")
	next := doc.NextPending()
	if next == nil {
		if len(doc.Tasks) == 0 {
			b.WriteString("  No tasks found.\n\n")
		} else {
			b.WriteString(doneStyle.Render("  All tasks complete.") + "\n\n")
		}
		return
	}
	b.WriteString(fmt.Sprintf("  %s. %s\n", next.ID, next.Description))
	check := tasks.CheckDependencies(next, doc.Tasks)
	style := doneStyle
	if !check.CanExecute {
		style = warnStyle
	}
	b.WriteString("  " + style.Render(check.Message) + "\n\n")
}

func writeBlocked(b *strings.Builder, doc *tasks.Document) {
	var blocked []*tasks.Task
	for i := range doc.Tasks {
		if t := &doc.Tasks[i]; !t.Completed && t.IsBlocked() {
			blocked = append(blocked, t)
		}
	}
	if len(blocked) == 0 {
		return
	}
	b.WriteString(headingStyle.Render("Blocked") + "\n\n")
	for _, t := range blocked {
		b.WriteString(fmt.Sprintf("  %s %s %s\n", t.ID, t.Description,
			warnStyle.Render("waiting on "+strings.Join(t.BlockedBy, ", "))))
	}
	b.WriteString("\n")
}

func writeTasks(b *strings.Builder, doc *tasks.Document, filter taskFilter) {
	heading := "Tasks"
	if filter != filterAll {
		heading += " (" + filter.String() + ", 0 to clear)"
	}
	b.WriteString(headingStyle.Render(heading) + "\n\n")

	shown := 0
	for i := range doc.Tasks {
		t := &doc.Tasks[i]
		if !filter.match(t) {
			continue
		}
		shown++
		box := "[ ]"
		line := t.ID + ". " + t.Description
		if t.Completed {
			box = "[x]"
			line = dimStyle.Render(line)
		}
		b.WriteString("  " + strings.Repeat("  ", t.Level) + box + " " + line + "\n")
	}
	if shown == 0 {
		b.WriteString("  Nothing to show.\n")
	}
	b.WriteString("\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString(headingStyle.Render("Keyboard Shortcuts") + "\n\n")
	b.WriteString("  q, ctrl+c    Quit\n")
	b.WriteString("  r, F5        Reload the task document\n")
	b.WriteString("  h, ?         Toggle this help screen\n")
	b.WriteString("  1            Show pending tasks\n")
	b.WriteString("  2            Show completed tasks\n")
	b.WriteString("  3            Show blocked tasks\n")
	b.WriteString("  0            Clear filter\n\n")
}

func writeFooter(b *strings.Builder, m *tuiModel) {
	mode := fmt.Sprintf("polling every %s", m.poll)
	if m.changes != nil {
		mode = "watching for changes"
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("Press h for help | q to quit | %s", mode)) + "\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
