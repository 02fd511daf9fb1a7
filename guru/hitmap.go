package guru

import "battleship-guru/game"

// HitScores walks outward from tile in the four cardinal directions and
// counts consecutive Unknown cells, starting at the immediate neighbor and
// stopping at the first other mark or the board edge. The result maps each
// of the four adjacent coordinates to its run length. Adjacent coordinates
// that fall off the board are still present with score zero, so callers
// must guard before targeting a key. A zero score always means the
// neighbor itself is off the board or already marked.
func HitScores(state *game.GameState, tile game.Point) map[game.Point]int {
	dirs := [4]game.Point{
		{X: 1, Y: 0},
		{X: -1, Y: 0},
		{X: 0, Y: 1},
		{X: 0, Y: -1},
	}

	scores := make(map[game.Point]int, 4)
	for _, d := range dirs {
		adj := game.Point{X: tile.X + d.X, Y: tile.Y + d.Y}
		n := 0
		for p := adj; state.InBounds(p) && state.At(p) == game.Unknown; p = (game.Point{X: p.X + d.X, Y: p.Y + d.Y}) {
			n++
		}
		scores[adj] = n
	}
	return scores
}
