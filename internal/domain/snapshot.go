package domain

// Snapshot is an immutable, text-safe encoding of the full raster at one
// instant, stored as a data URL (e.g. "data:image/png;base64,...").
// Only the codec interprets its contents.
type Snapshot string

// SnapshotPrefixPNG is the data URL header used for captured snapshots.
const SnapshotPrefixPNG = "data:image/png;base64,"

// PersistedState is everything the gateway writes to the durable store.
type PersistedState struct {
	Surface Snapshot   `json:"surface"`
	Undo    []Snapshot `json:"undo"`
	Redo    []Snapshot `json:"redo"`
	Tool    ToolState  `json:"tool"`
}

// Point is a coordinate in device-pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
