// Package history keeps the undo/redo timeline of raster snapshots.
//
// The undo stack holds the state before each recorded action, oldest
// first. Its first entry is the floor: Undo never pops it, so after Reset
// the stack is never empty. Any new checkpoint discards the redo stack.
package history

import "sketchpad/internal/domain"

// DefaultMaxDepth bounds the undo stack. Older entries are evicted first.
const DefaultMaxDepth = 40

// Manager owns both stacks. It is not safe for concurrent use.
type Manager struct {
	undo     []domain.Snapshot
	redo     []domain.Snapshot
	maxDepth int // 0 means unbounded
}

// New returns a Manager seeded with initial as its only undo entry.
func New(initial domain.Snapshot, maxDepth int) *Manager {
	m := &Manager{maxDepth: max(maxDepth, 0)}
	m.Reset(initial)
	return m
}

// Reset discards all history and seeds the undo stack with initial.
func (m *Manager) Reset(initial domain.Snapshot) {
	m.undo = []domain.Snapshot{initial}
	m.redo = nil
}

// Replace installs previously persisted stacks. An empty undo stack is
// seeded with fallback so the floor invariant holds.
func (m *Manager) Replace(undo, redo []domain.Snapshot, fallback domain.Snapshot) {
	if len(undo) == 0 {
		undo = []domain.Snapshot{fallback}
	}
	m.undo = append([]domain.Snapshot(nil), undo...)
	m.redo = append([]domain.Snapshot(nil), redo...)
	m.evict()
}

// Checkpoint records the pre-mutation state and drops any redo history.
func (m *Manager) Checkpoint(s domain.Snapshot) {
	m.undo = append(m.undo, s)
	m.redo = nil
	m.evict()
}

// Undo moves the top undo entry onto the redo stack and returns the new
// top, which is the state to render. It is a no-op at the floor.
func (m *Manager) Undo() (domain.Snapshot, bool) {
	if len(m.undo) <= 1 {
		return "", false
	}
	top := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, top)
	return m.undo[len(m.undo)-1], true
}

// Redo moves the top redo entry back onto the undo stack and returns it.
func (m *Manager) Redo() (domain.Snapshot, bool) {
	if len(m.redo) == 0 {
		return "", false
	}
	top := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, top)
	return top, true
}

// DiscardRedo drops the redo stack without recording a new entry. Used
// when the pre-mutation state is already the top of the undo stack.
func (m *Manager) DiscardRedo() {
	m.redo = nil
}

// Top returns the newest undo entry.
func (m *Manager) Top() (domain.Snapshot, bool) {
	if len(m.undo) == 0 {
		return "", false
	}
	return m.undo[len(m.undo)-1], true
}

// CanUndo reports whether Undo would do anything.
func (m *Manager) CanUndo() bool { return len(m.undo) > 1 }

// CanRedo reports whether Redo would do anything.
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// UndoStack returns a copy of the undo stack, oldest first.
func (m *Manager) UndoStack() []domain.Snapshot {
	return append([]domain.Snapshot(nil), m.undo...)
}

// RedoStack returns a copy of the redo stack, oldest first.
func (m *Manager) RedoStack() []domain.Snapshot {
	return append([]domain.Snapshot(nil), m.redo...)
}

// MaxDepth returns the undo cap, 0 when unbounded.
func (m *Manager) MaxDepth() int { return m.maxDepth }

// SetMaxDepth changes the cap and evicts immediately if needed.
func (m *Manager) SetMaxDepth(n int) {
	m.maxDepth = max(n, 0)
	m.evict()
}

func (m *Manager) evict() {
	if m.maxDepth == 0 || len(m.undo) <= m.maxDepth {
		return
	}
	drop := len(m.undo) - m.maxDepth
	// Copy so the evicted snapshots can be collected.
	m.undo = append([]domain.Snapshot(nil), m.undo[drop:]...)
}
