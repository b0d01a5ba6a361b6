package domain

const (
	DefaultColor = "black"
	DefaultWidth = 3.0
)

// WidthPresets are the stroke widths offered by the line picker.
var WidthPresets = []float64{2, 5, 8, 12}

// ToolState holds the active drawing parameters.
type ToolState struct {
	Color   string  `json:"color"`
	Width   float64 `json:"width"`
	Erasing bool    `json:"erasing"`
}

// DefaultToolState returns the tool used on a fresh canvas.
func DefaultToolState() ToolState {
	return ToolState{Color: DefaultColor, Width: DefaultWidth}
}
