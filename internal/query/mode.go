package query

import (
	"fmt"

	"github.com/nibzard/taskspec/internal/utils"
)

// Mode selects what Execute does with a parsed document.
type Mode string

const (
	ModeAll               Mode = "all"
	ModeSingle            Mode = "single"
	ModeNextPending       Mode = "next-pending"
	ModeComplete          Mode = "complete"
	ModeCheckDependencies Mode = "check-dependencies"
	ModeVerify            Mode = "verify"
)

// Modes lists every mode in help order.
var Modes = []Mode{
	ModeAll,
	ModeSingle,
	ModeNextPending,
	ModeComplete,
	ModeCheckDependencies,
	ModeVerify,
}

var modeAliases = map[string]string{
	"next":  string(ModeNextPending),
	"done":  string(ModeComplete),
	"deps":  string(ModeCheckDependencies),
	"check": string(ModeCheckDependencies),
	"task":  string(ModeSingle),
	"get":   string(ModeSingle),
	"list":  string(ModeAll),
}

// ParseMode parses a mode name. Matching is case-insensitive and accepts a
// few short aliases such as "next" and "deps".
func ParseMode(s string) (Mode, error) {
	choices := make([]string, len(Modes))
	for i, m := range Modes {
		choices[i] = string(m)
	}
	name, ok := utils.NormalizeChoice(s, choices, modeAliases)
	if !ok {
		return "", &UsageError{Msg: fmt.Sprintf("Unknown mode %s", s)}
	}
	return Mode(name), nil
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

// RequiresTaskID reports whether the mode operates on a single task.
func (m Mode) RequiresTaskID() bool {
	switch m {
	case ModeSingle, ModeComplete, ModeCheckDependencies, ModeVerify:
		return true
	}
	return false
}

// label is how usage errors name the mode.
func (m Mode) label() string {
	switch m {
	case ModeSingle:
		return "single task"
	case ModeComplete:
		return "complete task"
	default:
		return string(m)
	}
}
