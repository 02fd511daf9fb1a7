package guru

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"battleship-guru/game"
)

// Outcome of a shot, as reported by the operator.
type Outcome string

const (
	OutcomeHit  Outcome = "hit"
	OutcomeMiss Outcome = "miss"
)

// Consistency errors. They mean the reports the advisor has received
// cannot all be true; state is left unchanged when one is returned.
var (
	ErrNoPlacement    = errors.New("no remaining ship placement fits the board")
	ErrNotPredicted   = errors.New("cell is not the pending prediction")
	ErrSinkNotAligned = errors.New("sink endpoints share neither row nor column")
	ErrHitNotRecorded = errors.New("sunk span covers a cell never reported as a hit")
	ErrNoShipOfLength = errors.New("no remaining ship of the sunk length")
)

// Prediction stages, named by what the advisor is doing.
const (
	StageSearch = "search" // no remembered hits, probability map
	StageTarget = "target" // one remembered hit, four directions
	StageFinish = "finish" // a line of hits, extend past the endpoints
)

// ScoredCell pairs a candidate cell with its score: a placement count in
// the search stage, an open run length otherwise.
type ScoredCell struct {
	Cell  game.Point `json:"cell"`
	Score int        `json:"score"`
}

// TraceEvent is the diagnostic emitted just before each prediction when
// tracing is enabled. Exactly one of Prob and Scores is set, depending on
// the stage. Emitting never changes the prediction.
type TraceEvent struct {
	GameID string       `json:"game_id"`
	Turn   int          `json:"turn"`
	Stage  string       `json:"stage"`
	Prob   ProbMap      `json:"prob,omitempty"`
	Scores []ScoredCell `json:"scores,omitempty"`
}

// Engine advises one shot at a time. The zero value is ready to use;
// setting Trace enables diagnostics. The Engine itself holds no game data,
// so one Engine may serve any number of games.
type Engine struct {
	Trace func(TraceEvent)
}

// Predict recommends the next cell to shoot, marks it Predicted on the
// board and records it as the game's pending prediction.
//
// With no remembered hits it picks a highest-count cell of the probability
// map. With one remembered hit it targets the longest open run of the four
// directions around it. With two or more it extends the hit line past
// whichever endpoint has the longer open run. Ties break uniformly using
// the game's stored random state. A target or finish stage with no open
// candidate, which can only happen after a misreported result, falls back
// to the search stage instead of failing.
func (e *Engine) Predict(state *game.GameState) (game.Point, error) {
	var cands []ScoredCell
	switch {
	case len(state.HitMem) == 1:
		cands = viable(HitScores(state, state.HitMem[0]))
		e.emit(state, TraceEvent{Stage: StageTarget, Scores: cands})
	case len(state.HitMem) >= 2:
		cands = viable(extensionScores(state))
		e.emit(state, TraceEvent{Stage: StageFinish, Scores: cands})
	}

	if len(cands) == 0 {
		prob := BuildProbMap(state)
		e.emit(state, TraceEvent{Stage: StageSearch, Prob: prob})
		max := prob.Max()
		if max == 0 {
			return game.Point{}, ErrNoPlacement
		}
		for _, p := range prob.Best() {
			cands = append(cands, ScoredCell{Cell: p, Score: max})
		}
	} else {
		cands = topScored(cands)
	}

	pick := cands[e.draw(state, len(cands))].Cell
	state.Board[pick.X][pick.Y] = game.Predicted
	state.Pending = &pick
	return pick, nil
}

// ReportResult records the observed outcome of the pending prediction.
// Hits are appended to hit memory; either way the prediction is consumed
// and the turn counter advances.
func (e *Engine) ReportResult(state *game.GameState, p game.Point, outcome Outcome) error {
	if state.Pending == nil || *state.Pending != p {
		return fmt.Errorf("result for %s: %w", game.FormatCoord(p), ErrNotPredicted)
	}

	switch outcome {
	case OutcomeMiss:
		state.Board[p.X][p.Y] = game.Miss
	case OutcomeHit:
		state.Board[p.X][p.Y] = game.Hit
		state.HitMem = append(state.HitMem, p)
	default:
		return fmt.Errorf("unknown outcome %q", outcome)
	}

	state.Pending = nil
	state.Turn++
	return nil
}

// extensionScores scores the two cells one past the endpoints of the hit
// line. Orientation comes from sorting a copy of hit memory by row: if the
// first and last entries then share a column the ship is vertical,
// otherwise it is treated as horizontal.
func extensionScores(state *game.GameState) map[game.Point]int {
	mem := make([]game.Point, len(state.HitMem))
	copy(mem, state.HitMem)

	sort.Slice(mem, func(i, j int) bool {
		if mem[i].Y != mem[j].Y {
			return mem[i].Y < mem[j].Y
		}
		return mem[i].X < mem[j].X
	})
	vertical := mem[0].X == mem[len(mem)-1].X

	if !vertical {
		sort.Slice(mem, func(i, j int) bool {
			if mem[i].X != mem[j].X {
				return mem[i].X < mem[j].X
			}
			return mem[i].Y < mem[j].Y
		})
	}

	first, last := mem[0], mem[len(mem)-1]
	var before, after game.Point
	if vertical {
		before = game.Point{X: first.X, Y: first.Y - 1}
		after = game.Point{X: last.X, Y: last.Y + 1}
	} else {
		before = game.Point{X: first.X - 1, Y: first.Y}
		after = game.Point{X: last.X + 1, Y: last.Y}
	}

	return map[game.Point]int{
		before: HitScores(state, first)[before],
		after:  HitScores(state, last)[after],
	}
}

// viable drops the candidates that cannot be targeted. A positive run
// length already implies the cell is on the board and Unknown, so the
// filter is just the score. The survivors are sorted row-major so the
// tie-break draw is reproducible for a given seed.
func viable(scores map[game.Point]int) []ScoredCell {
	out := make([]ScoredCell, 0, len(scores))
	for p, n := range scores {
		if n < 1 {
			continue
		}
		out = append(out, ScoredCell{Cell: p, Score: n})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Cell.Y != out[j].Cell.Y {
			return out[i].Cell.Y < out[j].Cell.Y
		}
		return out[i].Cell.X < out[j].Cell.X
	})
	return out
}

func topScored(cands []ScoredCell) []ScoredCell {
	best := 0
	for _, c := range cands {
		if c.Score > best {
			best = c.Score
		}
	}
	top := make([]ScoredCell, 0, len(cands))
	for _, c := range cands {
		if c.Score == best {
			top = append(top, c)
		}
	}
	return top
}

// draw consumes one uniform pick from the game's stored random state and
// advances that state. Keeping the PRNG state inside GameState makes
// predictions identical whether or not the game was checkpointed in
// between.
func (e *Engine) draw(state *game.GameState, n int) int {
	rng := rand.New(rand.NewSource(state.RNGSeed))
	pick := rng.Intn(n)
	state.RNGSeed = rng.Int63()
	return pick
}

func (e *Engine) emit(state *game.GameState, ev TraceEvent) {
	if e.Trace == nil {
		return
	}
	ev.GameID = state.ID
	ev.Turn = state.Turn
	e.Trace(ev)
}
