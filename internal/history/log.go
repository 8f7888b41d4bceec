// Package history implements a linear undo/redo log of document snapshots.
//
// The log is a sequence of immutable entries plus a cursor. Committing while the cursor is
// behind the newest entry discards everything after the cursor before appending, so a new
// edit after an undo permanently drops the redo branch.
package history

import (
	"github.com/jonathan/resume-editor/internal/types"
)

// Log is the undo/redo state machine. The zero value is not usable; call New.
type Log struct {
	entries  []types.Document
	cursor   int
	capacity int
}

// Option configures a Log.
type Option func(*Log)

// WithCapacity bounds the number of retained entries. When a commit exceeds the bound the
// oldest entry is dropped. Values below 2 mean unbounded.
func WithCapacity(n int) Option {
	return func(l *Log) {
		if n >= 2 {
			l.capacity = n
		}
	}
}

// New returns a log holding only initial.
func New(initial types.Document, opts ...Option) *Log {
	l := &Log{}
	for _, opt := range opts {
		opt(l)
	}
	l.Reset(initial)
	return l
}

// Reset reinitializes the log to a single entry.
func (l *Log) Reset(initial types.Document) {
	l.entries = []types.Document{initial.Clone()}
	l.cursor = 0
}

// Commit truncates the redo branch and appends snapshot as the newest entry.
func (l *Log) Commit(snapshot types.Document) {
	if l.cursor < len(l.entries)-1 {
		clear(l.entries[l.cursor+1:])
		l.entries = l.entries[:l.cursor+1]
	}
	l.entries = append(l.entries, snapshot.Clone())

	if l.capacity > 0 && len(l.entries) > l.capacity {
		drop := len(l.entries) - l.capacity
		clear(l.entries[:drop])
		l.entries = l.entries[drop:]
	}
	l.cursor = len(l.entries) - 1
}

// Undo moves the cursor back one entry and returns the snapshot to adopt.
func (l *Log) Undo() (types.Document, bool) {
	if !l.CanUndo() {
		return types.Document{}, false
	}
	l.cursor--
	return l.entries[l.cursor].Clone(), true
}

// Redo moves the cursor forward one entry and returns the snapshot to adopt.
func (l *Log) Redo() (types.Document, bool) {
	if !l.CanRedo() {
		return types.Document{}, false
	}
	l.cursor++
	return l.entries[l.cursor].Clone(), true
}

// CanUndo reports whether an older entry exists.
func (l *Log) CanUndo() bool {
	return l.cursor > 0
}

// CanRedo reports whether a newer entry exists.
func (l *Log) CanRedo() bool {
	return l.cursor < len(l.entries)-1
}

// Current returns the entry under the cursor.
func (l *Log) Current() types.Document {
	return l.entries[l.cursor].Clone()
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Cursor returns the index of the current entry.
func (l *Log) Cursor() int {
	return l.cursor
}

// State is a read-only view of the log position.
type State struct {
	Cursor  int  `json:"cursor"`
	Length  int  `json:"length"`
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
}

// State returns the current position of the log.
func (l *Log) State() State {
	return State{
		Cursor:  l.cursor,
		Length:  len(l.entries),
		CanUndo: l.CanUndo(),
		CanRedo: l.CanRedo(),
	}
}
