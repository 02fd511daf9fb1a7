package game

import (
	"fmt"
	"strings"
)

// Render draws the board as plain text: column numbers across the top
// starting at 1, row letters down the side starting at A, one glyph per
// cell. Suitable for logs and debug tools; the interactive console styles
// its own board.
func Render(s *GameState) string {
	var b strings.Builder

	b.WriteString("   ")
	for x := 0; x < s.Width; x++ {
		fmt.Fprintf(&b, "%-3d", x+1)
	}
	b.WriteByte('\n')

	for y := 0; y < s.Height; y++ {
		fmt.Fprintf(&b, "%c  ", 'A'+y)
		for x := 0; x < s.Width; x++ {
			b.WriteByte(byte(s.Board[x][y]))
			b.WriteString("  ")
		}
		b.WriteByte('\n')
	}

	return b.String()
}
