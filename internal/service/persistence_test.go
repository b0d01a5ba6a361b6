package service_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"sketchpad/internal/domain"
	"sketchpad/internal/service"
)

// ─────────────────────────────────────────────────────────────
// Gateway Save / Load
// ─────────────────────────────────────────────────────────────

const blankSnap = domain.Snapshot("data:image/png;base64,blank")

func TestGateway_LoadEmptyStore(t *testing.T) {
	gw := service.NewGateway(newMemKV(), "ns", nil)

	state, ok := gw.Load(blankSnap)
	if ok {
		t.Fatal("expected ok=false on an empty store")
	}
	if state.Surface != blankSnap {
		t.Errorf("expected blank surface, got %q", state.Surface)
	}
	if len(state.Undo) != 1 || state.Undo[0] != blankSnap {
		t.Errorf("expected undo=[blank], got %v", state.Undo)
	}
	if len(state.Redo) != 0 {
		t.Errorf("expected empty redo, got %v", state.Redo)
	}
	if state.Tool != domain.DefaultToolState() {
		t.Errorf("expected default tool, got %+v", state.Tool)
	}
}

func TestGateway_SaveLoadRoundTrip(t *testing.T) {
	kv := newMemKV()
	gw := service.NewGateway(kv, "ns", nil)
	want := domain.PersistedState{
		Surface: "data:image/png;base64,c3VyZmFjZQ==",
		Undo:    []domain.Snapshot{"data:image/png;base64,YQ==", "data:image/png;base64,Yg=="},
		Redo:    []domain.Snapshot{"data:image/png;base64,Yw=="},
		Tool:    domain.ToolState{Color: "#ff0000", Width: 8, Erasing: true},
	}
	if err := gw.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	wantKeys := []string{"ns.canvasImage", "ns.currentColor", "ns.erasing", "ns.pencilSize", "ns.redoStack", "ns.undoStack"}
	got := kv.keys()
	if len(got) != len(wantKeys) {
		t.Fatalf("expected keys %v, got %v", wantKeys, got)
	}
	for i := range wantKeys {
		if got[i] != wantKeys[i] {
			t.Errorf("key %d: expected %q, got %q", i, wantKeys[i], got[i])
		}
	}
	if v, _ := kv.value("ns.erasing"); v != "true" {
		t.Errorf("expected erasing flag \"true\", got %q", v)
	}
	if v, _ := kv.value("ns.pencilSize"); v != "8" {
		t.Errorf("expected pencil size \"8\", got %q", v)
	}

	state, ok := gw.Load(blankSnap)
	if !ok {
		t.Fatal("expected ok=true after save")
	}
	if state.Surface != want.Surface || state.Tool != want.Tool {
		t.Errorf("unexpected state %+v", state)
	}
	if len(state.Undo) != 2 || state.Undo[1] != want.Undo[1] {
		t.Errorf("unexpected undo %v", state.Undo)
	}
	if len(state.Redo) != 1 || state.Redo[0] != want.Redo[0] {
		t.Errorf("unexpected redo %v", state.Redo)
	}
}

func TestGateway_SaveEmptyStacksAsJSONArrays(t *testing.T) {
	kv := newMemKV()
	gw := service.NewGateway(kv, "", nil)
	if err := gw.Save(domain.PersistedState{Surface: blankSnap, Tool: domain.DefaultToolState()}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if v, _ := kv.value("redoStack"); v != "[]" {
		t.Errorf("expected [] for an empty stack, got %q", v)
	}
}

func TestGateway_LoadFallsBackPerField(t *testing.T) {
	kv := newMemKV()
	kv.data["ns.canvasImage"] = "data:image/png;base64,c3VyZmFjZQ=="
	kv.data["ns.undoStack"] = "{not json"
	kv.data["ns.redoStack"] = `["data:image/png;base64,cg==", ""]`
	kv.data["ns.currentColor"] = "not-a-colour"
	kv.data["ns.pencilSize"] = "-4"
	kv.data["ns.erasing"] = "yes"
	gw := service.NewGateway(kv, "ns", nil)

	state, ok := gw.Load(blankSnap)
	if !ok {
		t.Fatal("expected ok=true with keys present")
	}
	if len(state.Undo) != 1 || state.Undo[0] != state.Surface {
		t.Errorf("corrupt undo stack should fall back to [surface], got %v", state.Undo)
	}
	if len(state.Redo) != 1 {
		t.Errorf("empty entries should be dropped from redo, got %v", state.Redo)
	}
	if state.Tool != domain.DefaultToolState() {
		t.Errorf("invalid tool fields should fall back, got %+v", state.Tool)
	}
}

func TestGateway_LoadTreatsReadErrorsAsMissing(t *testing.T) {
	kv := newMemKV()
	kv.data["canvasImage"] = "data:image/png;base64,c3VyZmFjZQ=="
	kv.failGet = true
	gw := service.NewGateway(kv, "", nil)

	state, ok := gw.Load(blankSnap)
	if ok {
		t.Error("expected ok=false when every read fails")
	}
	if state.Surface != blankSnap {
		t.Errorf("expected blank surface, got %q", state.Surface)
	}
}

func TestGateway_SaveReportsStoreUnavailable(t *testing.T) {
	kv := newMemKV()
	kv.failSet = true
	gw := service.NewGateway(kv, "", nil)

	err := gw.Save(domain.PersistedState{Surface: blankSnap})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if err := gw.SaveTool(domain.DefaultToolState()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable from SaveTool, got %v", err)
	}
}

// ─────────────────────────────────────────────────────────────
// Export
// ─────────────────────────────────────────────────────────────

func smallImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(1, 1, color.RGBA{R: 255, A: 255})
	return img
}

func TestGateway_ExportToFileSink(t *testing.T) {
	dir := t.TempDir()
	gw := service.NewGateway(newMemKV(), "", nil)

	if err := gw.Export(context.Background(), smallImage(), "out.png", service.FileSink{Dir: dir}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "out.png"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Errorf("export is not a PNG")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %d entries", len(entries))
	}
}

func TestGateway_ExportCancelled(t *testing.T) {
	gw := service.NewGateway(newMemKV(), "", nil)
	err := gw.Export(context.Background(), smallImage(), "out.png", service.FileSink{})
	if !errors.Is(err, domain.ErrExportCancelled) {
		t.Fatalf("expected ErrExportCancelled, got %v", err)
	}
}

func TestFileSink_ExplicitPath(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "nested", "pic.png")
	sink := service.FileSink{Path: dest}
	if err := sink.Write(context.Background(), "ignored.png", []byte("png")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if data, err := os.ReadFile(dest); err != nil || string(data) != "png" {
		t.Errorf("unexpected file content %q, err %v", data, err)
	}
}
