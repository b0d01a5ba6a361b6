package mcpserver

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"sketchpad/internal/domain"
)

// parsePoints accepts [{"x":1,"y":2}, ...] or [[1,2], ...].
func parsePoints(data string) ([]domain.Point, error) {
	if data == "" {
		return nil, fmt.Errorf("points is required")
	}
	var objs []domain.Point
	if err := json.Unmarshal([]byte(data), &objs); err == nil {
		return objs, nil
	}
	var pairs [][2]float64
	if err := json.Unmarshal([]byte(data), &pairs); err != nil {
		return nil, fmt.Errorf("invalid points JSON: %w", err)
	}
	out := make([]domain.Point, len(pairs))
	for i, p := range pairs {
		out[i] = domain.Point{X: p[0], Y: p[1]}
	}
	return out, nil
}

func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
