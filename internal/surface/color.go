package surface

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor accepts the colour forms a swatch can produce: "#rgb",
// "#rgba", "#rrggbb", "#rrggbbaa", "rgb(r, g, b)", "rgba(r, g, b, a)" and
// SVG colour names.
func ParseColor(s string) (color.Color, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "":
		return nil, fmt.Errorf("parse color: empty")
	case v == "transparent":
		return color.NRGBA{}, nil
	case strings.HasPrefix(v, "#"):
		return parseHexColor(v)
	case strings.HasPrefix(v, "rgb"):
		return parseFuncColor(v)
	}
	if c, ok := colornames.Map[v]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("parse color %q: unknown name", s)
}

func parseHexColor(v string) (color.Color, error) {
	digits := v[1:]
	switch len(digits) {
	case 3, 4:
		long := make([]byte, 0, len(digits)*2)
		for i := 0; i < len(digits); i++ {
			long = append(long, digits[i], digits[i])
		}
		digits = string(long)
	case 6, 8:
	default:
		return nil, fmt.Errorf("parse color %q: bad hex length", v)
	}
	ch := [4]uint8{3: 255}
	for i := 0; i*2 < len(digits); i++ {
		n, err := strconv.ParseUint(digits[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("parse color %q: bad hex digit", v)
		}
		ch[i] = uint8(n)
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

func parseFuncColor(v string) (color.Color, error) {
	open := strings.IndexByte(v, '(')
	if open < 0 || !strings.HasSuffix(v, ")") {
		return nil, fmt.Errorf("parse color %q: malformed", v)
	}
	name := strings.TrimSpace(v[:open])
	parts := strings.Split(v[open+1:len(v)-1], ",")
	want := 3
	if name == "rgba" {
		want = 4
	} else if name != "rgb" {
		return nil, fmt.Errorf("parse color %q: unknown function", v)
	}
	if len(parts) != want {
		return nil, fmt.Errorf("parse color %q: want %d components", v, want)
	}

	var ch [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 || n > 255 {
			return nil, fmt.Errorf("parse color %q: component %d out of range", v, i)
		}
		ch[i] = uint8(n)
	}
	alpha := uint8(255)
	if want == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return nil, fmt.Errorf("parse color %q: alpha out of range", v)
		}
		alpha = uint8(a*255 + 0.5)
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: alpha}, nil
}
