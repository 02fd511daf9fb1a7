// Package guru implements the prediction core of the Battleship advisor.
//
// The advisor plays one side of the classic pen-and-paper game: given the
// marks accumulated so far, recommend the cell most likely to hold an enemy
// ship. It knows nothing about the opponent beyond the remaining ship
// lengths. All functions mutate or read a game.GameState and are safe to
// call from a single goroutine; callers that share a state own the locking.
package guru

import (
	"fmt"
	"strings"

	"battleship-guru/game"
)

// ProbMap counts candidate ship placements per cell, indexed [x][y] like
// the board it was built from.
type ProbMap [][]int

// BuildProbMap counts, for every cell, how many placements of the
// remaining fleet would cover it. A placement is one ship length at one
// origin in one orientation whose run stays on the board and touches only
// Unknown cells; every cell of such a run gets one count. Cells that are
// not Unknown always end at zero.
func BuildProbMap(state *game.GameState) ProbMap {
	m := make(ProbMap, state.Width)
	for x := range m {
		m[x] = make([]int, state.Height)
	}

	for _, length := range state.Ships {
		for x := 0; x < state.Width; x++ {
			for y := 0; y < state.Height; y++ {
				if runIsOpen(state, x, y, length, false) {
					for i := 0; i < length; i++ {
						m[x+i][y]++
					}
				}
				if runIsOpen(state, x, y, length, true) {
					for i := 0; i < length; i++ {
						m[x][y+i]++
					}
				}
			}
		}
	}

	return m
}

// runIsOpen reports whether a ship of the given length starting at (x,y)
// and extending rightward (or downward when vertical) fits entirely on
// Unknown cells.
func runIsOpen(state *game.GameState, x, y, length int, vertical bool) bool {
	for i := 0; i < length; i++ {
		px, py := x+i, y
		if vertical {
			px, py = x, y+i
		}
		if px >= state.Width || py >= state.Height {
			return false
		}
		if state.Board[px][py] != game.Unknown {
			return false
		}
	}
	return true
}

// Max returns the highest count anywhere on the map.
func (m ProbMap) Max() int {
	best := 0
	for x := range m {
		for _, v := range m[x] {
			if v > best {
				best = v
			}
		}
	}
	return best
}

// Best returns every cell achieving Max, in row-major order. Empty when
// the map is all zero.
func (m ProbMap) Best() []game.Point {
	max := m.Max()
	if max == 0 {
		return nil
	}

	var out []game.Point
	h := len(m[0])
	for y := 0; y < h; y++ {
		for x := range m {
			if m[x][y] == max {
				out = append(out, game.Point{X: x, Y: y})
			}
		}
	}
	return out
}

// String lays the counts out like the rendered board, one row per line.
func (m ProbMap) String() string {
	if len(m) == 0 {
		return ""
	}

	var b strings.Builder
	for y := 0; y < len(m[0]); y++ {
		for x := range m {
			fmt.Fprintf(&b, "%4d", m[x][y])
		}
		b.WriteByte('\n')
	}
	return b.String()
}
