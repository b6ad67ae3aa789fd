// Package verify estimates whether a task's work is actually done by looking
// for the files its text mentions and checking how recently they changed.
//
// Verification is a heuristic. A task passes only when every mentioned file
// exists and at least one was modified inside the freshness window; anything
// else asks for a human to confirm.
package verify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/nibzard/taskspec/internal/utils"
)

// Patterns configures file path extraction.
type Patterns struct {
	// Keywords introduce an explicit list of paths, e.g. "Files: a.go, b.go".
	Keywords []string `toml:"keywords"`
	// DirHints are the leading directories an inline path must start with.
	DirHints []string `toml:"dir_hints"`
	// Extensions are the file extensions, without the dot, an inline path
	// must end with.
	Extensions []string `toml:"extensions"`
}

// DefaultPatterns returns the built-in keyword, directory and extension lists.
func DefaultPatterns() Patterns {
	return Patterns{
		Keywords: []string{"File", "Files", "Modify", "Create", "Update"},
		DirHints: []string{
			"src", "test", "tests", "lib", "dist",
			"component", "components", "util", "utils",
			"service", "services", "model", "models",
			"api", "route", "routes",
		},
		Extensions: []string{"ts", "js", "tsx", "jsx", "py", "java", "go", "rs", "cpp", "c", "h"},
	}
}

// Extractor finds file paths in free text.
type Extractor struct {
	prefix *regexp.Regexp
	inline *regexp.Regexp
}

// NewExtractor compiles p into an Extractor. Empty lists fall back to the
// defaults for that list.
func NewExtractor(p Patterns) (*Extractor, error) {
	def := DefaultPatterns()
	if len(p.Keywords) == 0 {
		p.Keywords = def.Keywords
	}
	if len(p.DirHints) == 0 {
		p.DirHints = def.DirHints
	}
	if len(p.Extensions) == 0 {
		p.Extensions = def.Extensions
	}

	prefix, err := regexp.Compile(`(?i)(?:` + alternation(p.Keywords) + `):\s*([^\n]+)`)
	if err != nil {
		return nil, fmt.Errorf("compile keyword pattern: %w", err)
	}
	inline, err := regexp.Compile(`(?i)(?:^|\s)((?:` + alternation(p.DirHints) + `)/[a-zA-Z0-9_\-/.]+\.(?:` +
		alternation(p.Extensions) + `))`)
	if err != nil {
		return nil, fmt.Errorf("compile inline pattern: %w", err)
	}
	return &Extractor{prefix: prefix, inline: inline}, nil
}

// alternation quotes words and joins them longest first, so "tsx" is tried
// before "ts" and a match is never cut short.
func alternation(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(w), "."))
		if w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return strings.Join(quoted, "|")
}

// Extract returns the paths mentioned in text: keyword lists first, then
// inline paths, deduplicated in first-seen order.
func (e *Extractor) Extract(text string) []string {
	paths := make([]string, 0)
	seen := make(map[string]bool)
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	for _, m := range e.prefix.FindAllStringSubmatch(text, -1) {
		for _, p := range utils.SplitAndTrim(m[1], ",") {
			if !strings.HasPrefix(p, "-") {
				add(p)
			}
		}
	}
	for _, m := range e.inline.FindAllStringSubmatch(text, -1) {
		add(strings.TrimSpace(m[1]))
	}
	return paths
}

var defaultExtractor = func() *Extractor {
	e, err := NewExtractor(DefaultPatterns())
	if err != nil {
		panic(err)
	}
	return e
}()

// ExtractFilePaths extracts paths from text using the default patterns.
func ExtractFilePaths(text string) []string {
	return defaultExtractor.Extract(text)
}
