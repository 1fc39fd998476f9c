// Package undo records reversible actors per document and replays them
// backwards (undo) or forwards again (redo).
package undo

// Actor is a reversible unit of work. Act applies the change, Undo reverts
// exactly what the preceding Act did.
type Actor interface {
	Act()
	Undo()
	Description() string
}

// Funcs adapts a pair of closures to the Actor interface.
type Funcs struct {
	Name   string
	ActFn  func()
	UndoFn func()
}

// Act implements Actor
func (f *Funcs) Act() {
	if f.ActFn != nil {
		f.ActFn()
	}
}

// Undo implements Actor
func (f *Funcs) Undo() {
	if f.UndoFn != nil {
		f.UndoFn()
	}
}

// Description implements Actor
func (f *Funcs) Description() string {
	return f.Name
}

// History is the ordered stack of actors executed against one document.
// It is not safe for concurrent use; callers serialise access.
type History struct {
	done   []Actor
	undone []Actor
	limit  int
}

// NewHistory creates a history keeping at most limit actors. A limit of zero
// or less keeps everything.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Record appends an already applied actor and drops the redo stack.
func (h *History) Record(a Actor) {
	h.done = append(h.done, a)
	h.undone = nil
	if h.limit > 0 && len(h.done) > h.limit {
		drop := len(h.done) - h.limit
		h.done = append(h.done[:0], h.done[drop:]...)
	}
}

// Undo reverts the most recently executed actor.
func (h *History) Undo() bool {
	if len(h.done) == 0 {
		return false
	}
	last := h.done[len(h.done)-1]
	h.done = h.done[:len(h.done)-1]
	last.Undo()
	h.undone = append(h.undone, last)
	return true
}

// Redo re-applies the most recently undone actor.
func (h *History) Redo() bool {
	if len(h.undone) == 0 {
		return false
	}
	next := h.undone[len(h.undone)-1]
	h.undone = h.undone[:len(h.undone)-1]
	next.Act()
	h.done = append(h.done, next)
	return true
}

// CanUndo reports whether Undo would do anything.
func (h *History) CanUndo() bool { return len(h.done) > 0 }

// CanRedo reports whether Redo would do anything.
func (h *History) CanRedo() bool { return len(h.undone) > 0 }

// Len returns the number of undoable actors.
func (h *History) Len() int { return len(h.done) }

// UndoDescription returns the description of the actor Undo would revert.
func (h *History) UndoDescription() string {
	if len(h.done) == 0 {
		return ""
	}
	return h.done[len(h.done)-1].Description()
}

// RedoDescription returns the description of the actor Redo would apply.
func (h *History) RedoDescription() string {
	if len(h.undone) == 0 {
		return ""
	}
	return h.undone[len(h.undone)-1].Description()
}

// Clear forgets every recorded actor. Called when the document closes.
func (h *History) Clear() {
	h.done = nil
	h.undone = nil
}
