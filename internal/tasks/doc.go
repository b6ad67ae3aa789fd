// Package tasks parses, resolves, validates, and updates checklist task documents.
//
// A task document (tasks.md) is a markdown checklist:
//
//	- [ ] 1. Task description
//	  - _Requirements: 1.1, 2.2_
//	  - _Leverage: existing component X_
//	  - _Depends: 1, 2_
//	  - _Parallel: yes_
//	  - free-form detail line
//	- [x] 1.1 Completed subtask
//
// # Task Lines
//
// A task line is a bullet, a checkbox, a dot-separated numeric id, an optional
// period, and a description. The checkbox holds blank space (pending) or an
// "x" in either case (completed); any other mix of x and whitespace is read as
// pending rather than rejected.
//
// # Metadata
//
// Indented lines below a task line belong to it until the next task line, or
// until a blank line is followed by unindented text. Each of those lines is
// checked independently for _Requirements:_, _Leverage:_, _Depends:_ and
// _Parallel:_ markers. Other indented lines are kept as details.
//
// # Derived Fields
//
// ParentID and Level follow from the id alone ("3.2.1" has parent "3.2" and
// level 2). BlockedBy is computed after the whole document is read, from the
// completion state of every task in it. Dependencies on ids that do not exist
// are not reported in BlockedBy; CheckDependencies reports them as missing.
//
// # Malformed Input
//
// Parsing never fails. Lines that do not fit the format are skipped.
package tasks
