package guru

import (
	"fmt"

	"battleship-guru/game"
)

// ReportSink applies an operator's report that the ship spanning a to b
// (inclusive, endpoints in either order) was sunk. It returns true when
// that was the last ship afloat.
//
// Everything is validated before the board changes: endpoint bounds and
// alignment, every span cell present in hit memory, and a fleet entry of
// the span's length. A rejected sink therefore leaves the game untouched.
func (e *Engine) ReportSink(state *game.GameState, a, b game.Point) (bool, error) {
	if !state.InBounds(a) || !state.InBounds(b) {
		return false, fmt.Errorf("sink endpoints %s %s: off the %dx%d board",
			game.FormatCoord(a), game.FormatCoord(b), state.Width, state.Height)
	}

	span, err := sinkSpan(a, b)
	if err != nil {
		return false, err
	}

	for _, p := range span {
		if !hitRemembered(state, p) {
			return false, fmt.Errorf("sink cell %s: %w", game.FormatCoord(p), ErrHitNotRecorded)
		}
	}

	shipIdx := -1
	for i, l := range state.Ships {
		if l == len(span) {
			shipIdx = i
			break
		}
	}
	if shipIdx < 0 {
		return false, fmt.Errorf("sink of length %d: %w", len(span), ErrNoShipOfLength)
	}

	for _, p := range span {
		state.Board[p.X][p.Y] = game.Sunk
		forgetHit(state, p)
	}

	if state.Mode == game.ModeNoTouch {
		for _, p := range span {
			clearAround(state, p)
		}
	}

	state.Ships = append(state.Ships[:shipIdx], state.Ships[shipIdx+1:]...)
	return len(state.Ships) == 0, nil
}

// sinkSpan normalizes the endpoints and expands them into the inclusive
// run of cells between them. Endpoints sharing a column make a vertical
// ship; sharing only a row, horizontal. A single-cell ship shares both and
// takes the vertical path, which degenerates to the same one cell.
func sinkSpan(a, b game.Point) ([]game.Point, error) {
	switch {
	case a.X == b.X:
		if a.Y > b.Y {
			a, b = b, a
		}
		span := make([]game.Point, 0, b.Y-a.Y+1)
		for y := a.Y; y <= b.Y; y++ {
			span = append(span, game.Point{X: a.X, Y: y})
		}
		return span, nil

	case a.Y == b.Y:
		if a.X > b.X {
			a, b = b, a
		}
		span := make([]game.Point, 0, b.X-a.X+1)
		for x := a.X; x <= b.X; x++ {
			span = append(span, game.Point{X: x, Y: a.Y})
		}
		return span, nil

	default:
		return nil, fmt.Errorf("sink endpoints %s %s: %w",
			game.FormatCoord(a), game.FormatCoord(b), ErrSinkNotAligned)
	}
}

func hitRemembered(state *game.GameState, p game.Point) bool {
	for _, h := range state.HitMem {
		if h == p {
			return true
		}
	}
	return false
}

func forgetHit(state *game.GameState, p game.Point) {
	for i, h := range state.HitMem {
		if h == p {
			state.HitMem = append(state.HitMem[:i], state.HitMem[i+1:]...)
			return
		}
	}
}

// clearAround marks the neighbors of a sunk cell as Miss. Ships cannot
// touch in a no-touch game, so the whole ring around a sunk ship is ruled
// out. Sunk neighbors keep their mark and off-board neighbors are skipped.
func clearAround(state *game.GameState, p game.Point) {
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			n := game.Point{X: p.X + dx, Y: p.Y + dy}
			if !state.InBounds(n) || state.At(n) == game.Sunk {
				continue
			}
			state.Board[n.X][n.Y] = game.Miss
		}
	}
}
