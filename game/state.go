// Package game defines the core board state types for the Battleship advisor.
//
// A GameState carries everything needed to resume advising a game in
// progress: the mark on every cell, the lengths of the ships still afloat,
// the hits not yet attributed to a sunk ship, and the advisor's random
// state. The struct is designed to round-trip through a checkpoint file
// without changing behavior.
package game

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mark is the advisor's knowledge about a single cell. The values are the
// glyphs used when rendering, so a row of marks is directly printable.
type Mark byte

const (
	Unknown   Mark = '.'
	Predicted Mark = '+'
	Miss      Mark = 'o'
	Hit       Mark = 'x'
	Sunk      Mark = '#'
)

// ParseMark validates a glyph read back from a checkpoint.
func ParseMark(b byte) (Mark, error) {
	switch m := Mark(b); m {
	case Unknown, Predicted, Miss, Hit, Sunk:
		return m, nil
	}
	return 0, fmt.Errorf("unknown board mark %q", b)
}

// Mode controls whether enemy ships may occupy adjacent cells.
// In no-touch games sinking a ship also rules out its whole perimeter.
type Mode string

const (
	ModeNoTouch  Mode = "no-touch"
	ModeTouching Mode = "touching"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeNoTouch, ModeTouching:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeNoTouch, ModeTouching)
}

// ParseShips turns a comma-separated fleet like "5,4,3,3,2" into ship
// lengths. Validation of the lengths themselves happens in New.
func ParseShips(s string) ([]int, error) {
	var ships []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad ship length %q", part)
		}
		ships = append(ships, n)
	}
	if len(ships) == 0 {
		return nil, fmt.Errorf("fleet %q holds no ships", s)
	}
	return ships, nil
}

// Point is a board coordinate. X is the column, Y the row, both 0-based
// with (0,0) in the top-left corner of the rendered grid.
type Point struct {
	X int
	Y int
}

// Config is everything needed to start a fresh game.
type Config struct {
	// ID of the new game. Empty means generate one.
	ID     string
	Width  int
	Height int
	Mode   Mode
	// Ships holds the length of every enemy ship, duplicates allowed.
	Ships []int
	// Seed for the prediction tie-breaker. Zero means derive from the clock.
	Seed int64
}

// GameState is the complete state of one advised game.
//
// Board is indexed [x][y]. HitMem keeps insertion order; it holds exactly
// the cells currently marked Hit. Pending is the cell recommended by the
// last prediction whose outcome has not been reported yet. RNGSeed is the
// advisor's entire random state: each prediction derives a PRNG from it and
// stores the PRNG's next output back, so checkpointing is transparent.
type GameState struct {
	ID      string
	Width   int
	Height  int
	Mode    Mode
	Board   [][]Mark
	Ships   []int
	HitMem  []Point
	Pending *Point
	Turn    int
	RNGSeed int64
}

// New validates cfg and builds a fresh game with an all-Unknown board.
func New(cfg Config) (*GameState, error) {
	if cfg.Width < 1 || cfg.Height < 1 {
		return nil, fmt.Errorf("invalid board size %dx%d", cfg.Width, cfg.Height)
	}
	if _, err := ParseMode(string(cfg.Mode)); err != nil {
		return nil, err
	}
	if len(cfg.Ships) == 0 {
		return nil, fmt.Errorf("fleet is empty")
	}
	longest := cfg.Width
	if cfg.Height > longest {
		longest = cfg.Height
	}
	for _, l := range cfg.Ships {
		if l < 1 || l > longest {
			return nil, fmt.Errorf("ship length %d does not fit a %dx%d board", l, cfg.Width, cfg.Height)
		}
	}

	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	board := make([][]Mark, cfg.Width)
	for x := range board {
		board[x] = make([]Mark, cfg.Height)
		for y := range board[x] {
			board[x][y] = Unknown
		}
	}

	ships := make([]int, len(cfg.Ships))
	copy(ships, cfg.Ships)

	return &GameState{
		ID:      id,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Mode:    cfg.Mode,
		Board:   board,
		Ships:   ships,
		RNGSeed: seed,
	}, nil
}

// Clone performs a deep copy of the game state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}

	out := &GameState{
		ID:      s.ID,
		Width:   s.Width,
		Height:  s.Height,
		Mode:    s.Mode,
		Turn:    s.Turn,
		RNGSeed: s.RNGSeed,
	}

	out.Board = make([][]Mark, len(s.Board))
	for x := range s.Board {
		out.Board[x] = make([]Mark, len(s.Board[x]))
		copy(out.Board[x], s.Board[x])
	}

	if len(s.Ships) > 0 {
		out.Ships = make([]int, len(s.Ships))
		copy(out.Ships, s.Ships)
	}

	if len(s.HitMem) > 0 {
		out.HitMem = make([]Point, len(s.HitMem))
		copy(out.HitMem, s.HitMem)
	}

	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}

	return out
}

// InBounds reports whether p lies on the board.
func (s *GameState) InBounds(p Point) bool {
	return p.X >= 0 && p.X < s.Width && p.Y >= 0 && p.Y < s.Height
}

// At returns the mark at p. Callers must bounds-check first.
func (s *GameState) At(p Point) Mark {
	return s.Board[p.X][p.Y]
}

// BoardString flattens the board into one glyph per cell, row-major
// (row 0 first, left to right). Used by the turn archive and the viewer.
func (s *GameState) BoardString() string {
	b := make([]byte, 0, s.Width*s.Height)
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			b = append(b, byte(s.Board[x][y]))
		}
	}
	return string(b)
}
