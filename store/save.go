// Package store persists advised games: JSON checkpoints for games in
// progress, a parquet archive of finished turns, and an append-only ledger
// of game IDs already archived.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"battleship-guru/game"
)

// checkpoint is the on-disk form of a game in progress. The board is one
// string per row so the file stays hand-readable; everything else maps
// straight onto game.GameState. RNGSeed makes the round trip behavior
// preserving: the reloaded game predicts exactly what the unsaved one
// would have.
type checkpoint struct {
	ID      string   `json:"id"`
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Mode    string   `json:"mode"`
	Rows    []string `json:"rows"`
	Ships   []int    `json:"ships"`
	HitMem  []xy     `json:"hit_mem"`
	Pending *xy      `json:"pending,omitempty"`
	Turn    int      `json:"turn"`
	RNGSeed int64    `json:"rng_seed"`
	SavedNs int64    `json:"saved_ns"`
}

type xy struct {
	X int `json:"x"`
	Y int `json:"y"`
}

const saveExt = ".json"

// cleanName rejects save names that could escape the save directory.
func cleanName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("save name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid save name %q", name)
	}
	return name, nil
}

// Save checkpoints state under dir/name.json, written via a temp file and
// rename so a crash never leaves a torn checkpoint behind.
func Save(dir, name string, state *game.GameState) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create save dir: %w", err)
	}

	cp := checkpoint{
		ID:      state.ID,
		Width:   state.Width,
		Height:  state.Height,
		Mode:    string(state.Mode),
		Ships:   state.Ships,
		Turn:    state.Turn,
		RNGSeed: state.RNGSeed,
		SavedNs: time.Now().UnixNano(),
	}
	for y := 0; y < state.Height; y++ {
		row := make([]byte, state.Width)
		for x := 0; x < state.Width; x++ {
			row[x] = byte(state.Board[x][y])
		}
		cp.Rows = append(cp.Rows, string(row))
	}
	for _, h := range state.HitMem {
		cp.HitMem = append(cp.HitMem, xy{X: h.X, Y: h.Y})
	}
	if state.Pending != nil {
		cp.Pending = &xy{X: state.Pending.X, Y: state.Pending.Y}
	}

	b, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	outPath := filepath.Join(dir, name+saveExt)
	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}

// Load reads a checkpoint back into a playable game state, re-validating
// everything that came off disk.
func Load(dir, name string) (*game.GameState, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(filepath.Join(dir, name+saveExt))
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp checkpoint
	if err := json.Unmarshal(b, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", name, err)
	}

	mode, err := game.ParseMode(cp.Mode)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", name, err)
	}
	if cp.Width < 1 || cp.Height < 1 {
		return nil, fmt.Errorf("checkpoint %s: invalid board size %dx%d", name, cp.Width, cp.Height)
	}
	if len(cp.Ships) == 0 {
		return nil, fmt.Errorf("checkpoint %s: fleet is empty", name)
	}
	if len(cp.Rows) != cp.Height {
		return nil, fmt.Errorf("checkpoint %s: %d rows for height %d", name, len(cp.Rows), cp.Height)
	}

	state := &game.GameState{
		ID:      cp.ID,
		Width:   cp.Width,
		Height:  cp.Height,
		Mode:    mode,
		Ships:   cp.Ships,
		Turn:    cp.Turn,
		RNGSeed: cp.RNGSeed,
	}

	state.Board = make([][]game.Mark, cp.Width)
	for x := range state.Board {
		state.Board[x] = make([]game.Mark, cp.Height)
	}
	for y, row := range cp.Rows {
		if len(row) != cp.Width {
			return nil, fmt.Errorf("checkpoint %s: row %d is %d cells, want %d", name, y, len(row), cp.Width)
		}
		for x := 0; x < cp.Width; x++ {
			m, err := game.ParseMark(row[x])
			if err != nil {
				return nil, fmt.Errorf("checkpoint %s: row %d: %w", name, y, err)
			}
			state.Board[x][y] = m
		}
	}

	for _, h := range cp.HitMem {
		p := game.Point{X: h.X, Y: h.Y}
		if !state.InBounds(p) {
			return nil, fmt.Errorf("checkpoint %s: hit memory %v off the board", name, p)
		}
		state.HitMem = append(state.HitMem, p)
	}
	if cp.Pending != nil {
		p := game.Point{X: cp.Pending.X, Y: cp.Pending.Y}
		if !state.InBounds(p) {
			return nil, fmt.Errorf("checkpoint %s: pending %v off the board", name, p)
		}
		state.Pending = &p
	}

	return state, nil
}

// Delete removes a checkpoint, typically once its game is over.
func Delete(dir, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(dir, name+saveExt)); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// List returns the checkpoint names in dir, sorted. A missing directory is
// just an empty list.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), saveExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), saveExt))
	}
	sort.Strings(names)
	return names, nil
}
