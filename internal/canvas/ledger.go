package canvas

// Ledger owns a room's committed stroke history and its redo stack. It is the
// single source of truth for what has been drawn. Undo and redo operate on
// the shared room timeline, not per participant: any participant's undo
// removes the most recently committed stroke regardless of who drew it.
//
// The ledger is not safe for concurrent use; the owning room serializes
// access.
type Ledger struct {
	history   []Stroke
	redoStack []Stroke
}

func NewLedger() *Ledger {
	return &Ledger{
		history:   make([]Stroke, 0),
		redoStack: make([]Stroke, 0),
	}
}

// Commit appends a finished stroke to the history. Any new commit forks the
// timeline, so the redo stack is cleared.
func (l *Ledger) Commit(s Stroke) {
	l.history = append(l.history, s)
	l.redoStack = l.redoStack[:0]
}

// Undo moves the most recently committed stroke onto the redo stack and
// returns it. Returns nil when the history is empty.
func (l *Ledger) Undo() *Stroke {
	if len(l.history) == 0 {
		return nil
	}
	s := l.history[len(l.history)-1]
	l.history = l.history[:len(l.history)-1]
	l.redoStack = append(l.redoStack, s)
	return &s
}

// Redo moves the most recently undone stroke back onto the history and
// returns it. Returns nil when there is nothing to redo.
func (l *Ledger) Redo() *Stroke {
	if len(l.redoStack) == 0 {
		return nil
	}
	s := l.redoStack[len(l.redoStack)-1]
	l.redoStack = l.redoStack[:len(l.redoStack)-1]
	l.history = append(l.history, s)
	return &s
}

// Snapshot returns a copy of the history for full-state sync.
func (l *Ledger) Snapshot() []Stroke {
	out := make([]Stroke, len(l.history))
	copy(out, l.history)
	return out
}

func (l *Ledger) Len() int {
	return len(l.history)
}

func (l *Ledger) RedoLen() int {
	return len(l.redoStack)
}
