// Package selfplay plays complete games against randomly placed fleets,
// measuring how many shots the advisor needs to sink everything.
package selfplay

import (
	"fmt"
	"math/rand"

	"battleship-guru/game"
	"battleship-guru/guru"
	"battleship-guru/store"
)

const placementAttempts = 1000

// Defender owns the hidden fleet for one simulated game and answers shots
// truthfully.
type Defender struct {
	ships [][]game.Point
	left  []int // unhit cells per ship
	at    map[game.Point]int
}

// NewDefender places cfg.Ships at random, honoring cfg.Mode. Each ship
// retries random spots; if a ship cannot be placed the whole board is
// scrapped and placement starts over, so unlucky early picks cannot wedge
// a legal fleet.
func NewDefender(rng *rand.Rand, cfg game.Config) (*Defender, error) {
	for restart := 0; restart < 100; restart++ {
		d := &Defender{at: make(map[game.Point]int)}
		placed := true
		for _, length := range cfg.Ships {
			if !d.placeShip(rng, cfg, length) {
				placed = false
				break
			}
		}
		if placed {
			return d, nil
		}
	}
	return nil, fmt.Errorf("could not place fleet %v on a %dx%d %s board", cfg.Ships, cfg.Width, cfg.Height, cfg.Mode)
}

func (d *Defender) placeShip(rng *rand.Rand, cfg game.Config, length int) bool {
	for attempt := 0; attempt < placementAttempts; attempt++ {
		vertical := rng.Intn(2) == 1
		maxX, maxY := cfg.Width-length, cfg.Height-1
		if vertical {
			maxX, maxY = cfg.Width-1, cfg.Height-length
		}
		if maxX < 0 || maxY < 0 {
			return false
		}
		origin := game.Point{X: rng.Intn(maxX + 1), Y: rng.Intn(maxY + 1)}

		cells := make([]game.Point, length)
		for i := range cells {
			if vertical {
				cells[i] = game.Point{X: origin.X, Y: origin.Y + i}
			} else {
				cells[i] = game.Point{X: origin.X + i, Y: origin.Y}
			}
		}
		if !d.fits(cfg, cells) {
			continue
		}

		idx := len(d.ships)
		d.ships = append(d.ships, cells)
		d.left = append(d.left, length)
		for _, c := range cells {
			d.at[c] = idx
		}
		return true
	}
	return false
}

// fits checks that every cell is free and, in no-touch mode, that the
// surrounding ring is free too. Off-board neighbors simply miss the map.
func (d *Defender) fits(cfg game.Config, cells []game.Point) bool {
	for _, c := range cells {
		if _, taken := d.at[c]; taken {
			return false
		}
		if cfg.Mode != game.ModeNoTouch {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				n := game.Point{X: c.X + dx, Y: c.Y + dy}
				if _, taken := d.at[n]; taken {
					return false
				}
			}
		}
	}
	return true
}

// Shoot answers one shot. When it sinks a ship the true endpoints come
// back so the caller can relay them to the advisor. Cells are never shot
// twice because the advisor only targets unknown cells.
func (d *Defender) Shoot(p game.Point) (hit bool, sunk bool, endpoints [2]game.Point) {
	idx, ok := d.at[p]
	if !ok {
		return false, false, endpoints
	}
	d.left[idx]--
	if d.left[idx] > 0 {
		return true, false, endpoints
	}
	cells := d.ships[idx]
	return true, true, [2]game.Point{cells[0], cells[len(cells)-1]}
}

// Result of one simulated game.
type Result struct {
	GameID string
	Shots  int
	Rows   []store.TurnRow
	Final  *game.GameState
}

// Play runs one complete game: the advisor predicts, the defender
// answers, and sinks are reported back with their true endpoints. All
// randomness (fleet placement and the advisor's tie-breaks) is drawn from
// rng, so a seed fully determines the game. The shot cap exists only to
// catch advisor bugs; an honest game always finishes under it.
func Play(cfg game.Config, rng *rand.Rand) (Result, error) {
	cfg.Seed = rng.Int63()

	state, err := game.New(cfg)
	if err != nil {
		return Result{}, err
	}
	def, err := NewDefender(rng, cfg)
	if err != nil {
		return Result{}, err
	}

	var eng guru.Engine
	res := Result{GameID: state.ID}

	maxShots := state.Width * state.Height
	for shot := 0; shot < maxShots; shot++ {
		p, err := eng.Predict(state)
		if err != nil {
			return Result{}, fmt.Errorf("game %s turn %d: %w", state.ID, state.Turn, err)
		}

		hit, sunk, ends := def.Shoot(p)
		outcome := guru.OutcomeMiss
		if hit {
			outcome = guru.OutcomeHit
		}
		if err := eng.ReportResult(state, p, outcome); err != nil {
			return Result{}, fmt.Errorf("game %s turn %d: %w", state.ID, state.Turn, err)
		}

		sunkLen := 0
		gameOver := false
		if sunk {
			over, err := eng.ReportSink(state, ends[0], ends[1])
			if err != nil {
				return Result{}, fmt.Errorf("game %s turn %d sink: %w", state.ID, state.Turn, err)
			}
			sunkLen = abs(ends[1].X-ends[0].X) + abs(ends[1].Y-ends[0].Y) + 1
			gameOver = over
		}

		res.Rows = append(res.Rows, store.SnapshotTurn(state, "selfplay", p, string(outcome), sunkLen))

		if gameOver {
			res.Shots = state.Turn
			res.Final = state
			for i := range res.Rows {
				res.Rows[i].ShotsToWin = int32(res.Shots)
			}
			return res, nil
		}
	}

	return Result{}, fmt.Errorf("game %s did not finish within %d shots", state.ID, maxShots)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
