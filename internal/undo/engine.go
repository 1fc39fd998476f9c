package undo

import (
	"go.uber.org/zap"
)

// Scope owns the history that executed actors are recorded against,
// typically an open document.
type Scope interface {
	History() *History
}

// Engine applies actors and records them on the history of their scope.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates an execution engine
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Execute applies the actor immediately and records it against scope.
func (e *Engine) Execute(a Actor, scope Scope) {
	a.Act()
	scope.History().Record(a)
	e.logger.Debug("Executed action",
		zap.String("action", a.Description()),
		zap.Int("history_size", scope.History().Len()))
}

// Undo reverts the newest actor of scope.
func (e *Engine) Undo(scope Scope) bool {
	h := scope.History()
	desc := h.UndoDescription()
	if !h.Undo() {
		return false
	}
	e.logger.Debug("Undid action", zap.String("action", desc))
	return true
}

// Redo re-applies the newest undone actor of scope.
func (e *Engine) Redo(scope Scope) bool {
	h := scope.History()
	desc := h.RedoDescription()
	if !h.Redo() {
		return false
	}
	e.logger.Debug("Redid action", zap.String("action", desc))
	return true
}
