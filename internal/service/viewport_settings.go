package service

import (
	"fmt"
	"strconv"

	"sketchpad/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Viewport Persistence
// ─────────────────────────────────────────────────────────────
//
// Saves and restores the main window size between sessions. The canvas
// raster follows the window, so this is also the surface size at startup.
// Stored as two plain rows next to the canvas keys.

// Viewport holds the saved window dimensions.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ViewportSettingsService persists the viewport between sessions.
type ViewportSettingsService struct {
	store     domain.KVStore
	namespace string
	fallback  Viewport
}

const (
	settingViewportWidth  = "viewportWidth"
	settingViewportHeight = "viewportHeight"
	minViewportWidth      = 320
	minViewportHeight     = 240
)

// NewViewportSettingsService creates a ViewportSettingsService. fallback is
// returned for missing or undersized values.
func NewViewportSettingsService(store domain.KVStore, namespace string, fallback Viewport) *ViewportSettingsService {
	return &ViewportSettingsService{store: store, namespace: namespace, fallback: fallback}
}

func (s *ViewportSettingsService) key(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + "." + name
}

// LoadViewport returns the saved dimensions, or the fallback.
func (s *ViewportSettingsService) LoadViewport() Viewport {
	if s.store == nil {
		return s.fallback
	}
	w := s.readInt(settingViewportWidth, s.fallback.Width)
	h := s.readInt(settingViewportHeight, s.fallback.Height)

	if w < minViewportWidth {
		w = s.fallback.Width
	}
	if h < minViewportHeight {
		h = s.fallback.Height
	}
	return Viewport{Width: w, Height: h}
}

func (s *ViewportSettingsService) readInt(name string, def int) int {
	v, ok, err := s.store.Get(s.key(name))
	if err != nil || !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// SaveViewport persists the current dimensions.
func (s *ViewportSettingsService) SaveViewport(width, height int) error {
	if s.store == nil {
		return fmt.Errorf("viewport settings: %w", domain.ErrStoreUnavailable)
	}
	if err := s.store.Set(s.key(settingViewportWidth), strconv.Itoa(width)); err != nil {
		return fmt.Errorf("save viewport width: %w", err)
	}
	if err := s.store.Set(s.key(settingViewportHeight), strconv.Itoa(height)); err != nil {
		return fmt.Errorf("save viewport height: %w", err)
	}
	return nil
}
