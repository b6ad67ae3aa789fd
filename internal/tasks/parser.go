package tasks

import (
	"regexp"
	"strings"

	"github.com/nibzard/taskspec/internal/utils"
)

var (
	// taskLinePattern matches a complete task line after trimming:
	// bullet, checkbox, dot-path id, optional period, description.
	taskLinePattern = regexp.MustCompile(`^-\s*\[\s*([xX\s]*)\s*\]\s*([0-9]+(?:\.[0-9]+)*)\s*\.?\s*(.+)$`)

	// taskOpenerPattern matches anything that starts like a task line, even
	// when the rest of it is malformed.
	taskOpenerPattern = regexp.MustCompile(`^-\s*\[\s*[xX\s]*\s*\]\s*[0-9]`)
)

// metadataMatcher extracts one optional annotation from a line. Matchers are
// applied independently; one line may carry several markers.
type metadataMatcher struct {
	pattern *regexp.Regexp
	apply   func(t *Task, value string)
}

var metadataMatchers = []metadataMatcher{
	{
		pattern: regexp.MustCompile(`_Requirements:\s*(.+?)(?:_|$)`),
		apply:   func(t *Task, v string) { t.Requirements = v },
	},
	{
		pattern: regexp.MustCompile(`_Leverage:\s*(.+?)(?:_|$)`),
		apply:   func(t *Task, v string) { t.Leverage = v },
	},
	{
		pattern: regexp.MustCompile(`(?i)_Depends:\s*(.+?)(?:_|$)`),
		apply: func(t *Task, v string) {
			if strings.ToLower(v) == "none" {
				return
			}
			t.DependsOn = utils.SplitAndTrim(v, ",")
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)_Parallel:\s*(.+?)(?:_|$)`),
		apply: func(t *Task, v string) {
			v = strings.ToLower(v)
			t.CanRunParallel = v == "yes" || v == "true"
		},
	},
}

type parseState int

const (
	stateIdle parseState = iota
	stateCollecting
)

// parser is a line-driven state machine. current is the open task, which is
// flushed to tasks when the next task line opens or input ends.
type parser struct {
	lines   []string
	state   parseState
	current *Task
	tasks   []Task
}

// Parse reads a checklist document and returns its tasks in document order
// with hierarchy and BlockedBy resolved.
func Parse(content string) []Task {
	list := Scan(content)
	Resolve(list)
	return list
}

// Scan reads a checklist document into raw task records without running the
// resolver pass. Derived fields are left at their zero values.
func Scan(content string) []Task {
	p := &parser{lines: splitLines(content)}
	p.run()
	return p.tasks
}

func (p *parser) run() {
	for i := 0; i < len(p.lines); i++ {
		line := p.lines[i]
		trimmed := strings.TrimSpace(line)

		if m := taskLinePattern.FindStringSubmatch(trimmed); m != nil {
			p.open(m)
			continue
		}
		if p.state != stateCollecting {
			continue
		}

		// A malformed task opener still ends the current block.
		if taskOpenerPattern.MatchString(trimmed) {
			p.state = stateIdle
			continue
		}

		p.collect(line, trimmed)

		if trimmed == "" && i+1 < len(p.lines) && endsBlock(p.lines[i+1]) {
			p.state = stateIdle
		}
	}
	p.flush()
}

func (p *parser) open(m []string) {
	p.flush()
	completed := strings.ToLower(strings.TrimSpace(m[1])) == "x"
	t := newTask(m[2], strings.TrimSpace(m[3]), completed)
	p.current = &t
	p.state = stateCollecting
}

func (p *parser) flush() {
	if p.current == nil {
		return
	}
	p.tasks = append(p.tasks, *p.current)
	p.current = nil
}

func (p *parser) collect(line, trimmed string) {
	matched := false
	for _, mm := range metadataMatchers {
		m := mm.pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		matched = true
		mm.apply(p.current, strings.TrimSpace(m[1]))
	}
	if matched || trimmed == "" {
		return
	}
	if isIndented(line) && !strings.HasPrefix(trimmed, "_") {
		p.current.Details = append(p.current.Details, trimmed)
	}
}

// endsBlock reports whether next, the line after a blank one, closes the
// current task's content.
func endsBlock(next string) bool {
	if next == "" {
		return false
	}
	if next[0] == ' ' || next[0] == '\t' {
		return false
	}
	return !strings.HasPrefix(next, "  -")
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "\t")
}

// splitLines splits on "\n" and drops a trailing "\r" so CRLF documents parse
// the same as LF ones.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
