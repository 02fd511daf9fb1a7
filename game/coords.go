package game

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCoord reads a coordinate in the classic "A1" notation: one row
// letter followed by a 1-based column number. Accepts lowercase and
// multi-digit columns ("j10"). The result is range-checked against s.
func ParseCoord(s *GameState, text string) (Point, error) {
	t := strings.TrimSpace(text)
	if len(t) < 2 {
		return Point{}, fmt.Errorf("coordinate %q too short, want letter then number (e.g. B7)", text)
	}

	row := t[0]
	switch {
	case row >= 'a' && row <= 'z':
		row -= 'a' - 'A'
	case row >= 'A' && row <= 'Z':
	default:
		return Point{}, fmt.Errorf("coordinate %q must start with a row letter", text)
	}

	col, err := strconv.Atoi(t[1:])
	if err != nil {
		return Point{}, fmt.Errorf("coordinate %q has no column number", text)
	}

	p := Point{X: col - 1, Y: int(row - 'A')}
	if !s.InBounds(p) {
		return Point{}, fmt.Errorf("coordinate %q is off the %dx%d board", text, s.Width, s.Height)
	}
	return p, nil
}

// FormatCoord renders p in the same notation ParseCoord reads.
func FormatCoord(p Point) string {
	return fmt.Sprintf("%c%d", 'A'+p.Y, p.X+1)
}
