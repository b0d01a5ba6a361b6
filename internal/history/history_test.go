package history_test

import (
	"fmt"
	"reflect"
	"testing"

	"sketchpad/internal/domain"
	"sketchpad/internal/history"
)

func snap(i int) domain.Snapshot {
	return domain.Snapshot(fmt.Sprintf("S%d", i))
}

func assertStacks(t *testing.T, m *history.Manager, undo, redo []domain.Snapshot) {
	t.Helper()
	if got := m.UndoStack(); !reflect.DeepEqual(got, undo) {
		t.Errorf("undo stack = %v, want %v", got, undo)
	}
	got := m.RedoStack()
	if len(got) == 0 && len(redo) == 0 {
		return
	}
	if !reflect.DeepEqual(got, redo) {
		t.Errorf("redo stack = %v, want %v", got, redo)
	}
}

// ─────────────────────────────────────────────────────────────
// Checkpoint
// ─────────────────────────────────────────────────────────────

func TestNew_SeedsFloor(t *testing.T) {
	m := history.New(snap(0), 0)
	assertStacks(t, m, []domain.Snapshot{snap(0)}, nil)
	if m.CanUndo() || m.CanRedo() {
		t.Fatal("fresh manager should not be able to undo or redo")
	}
}

func TestCheckpoint_GrowsUndoOnly(t *testing.T) {
	for _, n := range []int{1, 2, 5, 17} {
		m := history.New(snap(0), 0)
		for i := 1; i < n; i++ {
			m.Checkpoint(snap(i))
		}
		if got := len(m.UndoStack()); got != n {
			t.Errorf("after %d checkpoints undo len = %d", n, got)
		}
		if got := len(m.RedoStack()); got != 0 {
			t.Errorf("after %d checkpoints redo len = %d", n, got)
		}
	}
}

func TestCheckpoint_AfterUndoClearsRedo(t *testing.T) {
	m := history.New(snap(0), 0)
	m.Checkpoint(snap(1))
	m.Checkpoint(snap(2))
	m.Undo()
	m.Undo()
	if !m.CanRedo() {
		t.Fatal("expected redo entries after undo")
	}

	m.Checkpoint(snap(9))
	assertStacks(t, m, []domain.Snapshot{snap(0), snap(9)}, nil)
	if _, ok := m.Redo(); ok {
		t.Fatal("redo after branching checkpoint must be a no-op")
	}
}

// ─────────────────────────────────────────────────────────────
// Undo / Redo
// ─────────────────────────────────────────────────────────────

func TestUndo_AtFloorIsNoop(t *testing.T) {
	m := history.New(snap(0), 0)
	got, ok := m.Undo()
	if ok || got != "" {
		t.Fatalf("undo at floor = (%q, %v), want none", got, ok)
	}
	assertStacks(t, m, []domain.Snapshot{snap(0)}, nil)
}

func TestRedo_EmptyIsNoop(t *testing.T) {
	m := history.New(snap(0), 0)
	m.Checkpoint(snap(1))
	got, ok := m.Redo()
	if ok || got != "" {
		t.Fatalf("redo on empty stack = (%q, %v), want none", got, ok)
	}
	assertStacks(t, m, []domain.Snapshot{snap(0), snap(1)}, nil)
}

func TestUndoRedo_RoundTrip(t *testing.T) {
	m := history.New(snap(0), 0)
	m.Checkpoint(snap(1))
	m.Checkpoint(snap(2))
	before, _ := m.Top()

	if _, ok := m.Undo(); !ok {
		t.Fatal("expected undo to succeed")
	}
	got, ok := m.Redo()
	if !ok {
		t.Fatal("expected redo to succeed")
	}
	if got != before {
		t.Errorf("redo returned %q, want %q", got, before)
	}
	assertStacks(t, m, []domain.Snapshot{snap(0), snap(1), snap(2)}, nil)
}

func TestScenario_UndoToFloor(t *testing.T) {
	m := history.New(snap(0), 0)
	m.Checkpoint(snap(1))
	m.Checkpoint(snap(2))

	got, ok := m.Undo()
	if !ok || got != snap(1) {
		t.Fatalf("first undo = (%q, %v), want S1", got, ok)
	}
	assertStacks(t, m, []domain.Snapshot{snap(0), snap(1)}, []domain.Snapshot{snap(2)})

	got, ok = m.Undo()
	if !ok || got != snap(0) {
		t.Fatalf("second undo = (%q, %v), want S0", got, ok)
	}
	assertStacks(t, m, []domain.Snapshot{snap(0)}, []domain.Snapshot{snap(2), snap(1)})

	got, ok = m.Undo()
	if ok || got != "" {
		t.Fatalf("third undo = (%q, %v), want none", got, ok)
	}
	assertStacks(t, m, []domain.Snapshot{snap(0)}, []domain.Snapshot{snap(2), snap(1)})

	got, _ = m.Redo()
	if got != snap(1) {
		t.Errorf("redo = %q, want S1", got)
	}
	got, _ = m.Redo()
	if got != snap(2) {
		t.Errorf("redo = %q, want S2", got)
	}
}

// ─────────────────────────────────────────────────────────────
// Depth cap
// ─────────────────────────────────────────────────────────────

func TestMaxDepth_EvictsOldest(t *testing.T) {
	m := history.New(snap(0), 3)
	for i := 1; i <= 5; i++ {
		m.Checkpoint(snap(i))
	}
	assertStacks(t, m, []domain.Snapshot{snap(3), snap(4), snap(5)}, nil)

	m.Undo()
	m.Undo()
	if _, ok := m.Undo(); ok {
		t.Fatal("undo past the evicted floor must be a no-op")
	}
	assertStacks(t, m, []domain.Snapshot{snap(3)}, []domain.Snapshot{snap(5), snap(4)})
}

func TestSetMaxDepth_ShrinksImmediately(t *testing.T) {
	m := history.New(snap(0), 0)
	for i := 1; i <= 4; i++ {
		m.Checkpoint(snap(i))
	}
	m.SetMaxDepth(2)
	assertStacks(t, m, []domain.Snapshot{snap(3), snap(4)}, nil)
	if m.MaxDepth() != 2 {
		t.Errorf("MaxDepth = %d, want 2", m.MaxDepth())
	}
}

// ─────────────────────────────────────────────────────────────
// Replace / DiscardRedo
// ─────────────────────────────────────────────────────────────

func TestReplace_EmptyUndoUsesFallback(t *testing.T) {
	m := history.New(snap(0), 0)
	m.Replace(nil, []domain.Snapshot{snap(7)}, snap(5))
	assertStacks(t, m, []domain.Snapshot{snap(5)}, []domain.Snapshot{snap(7)})
}

func TestReplace_CopiesInput(t *testing.T) {
	undo := []domain.Snapshot{snap(0), snap(1)}
	m := history.New(snap(9), 0)
	m.Replace(undo, nil, snap(9))
	undo[0] = snap(42)
	if got := m.UndoStack()[0]; got != snap(0) {
		t.Errorf("manager aliased caller slice: got %q", got)
	}
}

func TestDiscardRedo(t *testing.T) {
	m := history.New(snap(0), 0)
	m.Checkpoint(snap(1))
	m.Undo()
	m.DiscardRedo()
	assertStacks(t, m, []domain.Snapshot{snap(0)}, nil)
}
