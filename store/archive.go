package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"battleship-guru/game"
)

const turnSchema = "turn_row_v1"

// TurnRow is a single (game, turn) snapshot intended for long-term
// storage and analytics.
//
// Board is the position after the turn's result (and any sink) was
// applied: one glyph per cell, row-major, matching GameState.BoardString.
// SunkLen is zero on turns without a sink. ShotsToWin is stamped on every
// row of a game once it completes; zero means the game never finished.
type TurnRow struct {
	GameID string `parquet:"game_id,dict"`
	Source string `parquet:"source,dict"`
	Turn   int32  `parquet:"turn"`
	Width  int32  `parquet:"width"`
	Height int32  `parquet:"height"`
	Mode   string `parquet:"mode,dict"`

	TargetX int32  `parquet:"target_x"`
	TargetY int32  `parquet:"target_y"`
	Outcome string `parquet:"outcome,dict"`
	SunkLen int32  `parquet:"sunk_len"`

	Ships   []int32 `parquet:"ships"`
	HitMemX []int32 `parquet:"hit_mem_x"`
	HitMemY []int32 `parquet:"hit_mem_y"`

	Board string `parquet:"board"`

	ShotsToWin int32 `parquet:"shots_to_win"`
	CreatedNs  int64 `parquet:"created_ns"`
}

// SnapshotTurn captures state as a TurnRow right after a result (and any
// sink) has been applied to it.
func SnapshotTurn(state *game.GameState, source string, target game.Point, outcome string, sunkLen int) TurnRow {
	row := TurnRow{
		GameID:    state.ID,
		Source:    source,
		Turn:      int32(state.Turn),
		Width:     int32(state.Width),
		Height:    int32(state.Height),
		Mode:      string(state.Mode),
		TargetX:   int32(target.X),
		TargetY:   int32(target.Y),
		Outcome:   outcome,
		SunkLen:   int32(sunkLen),
		Board:     state.BoardString(),
		CreatedNs: time.Now().UnixNano(),
	}
	for _, l := range state.Ships {
		row.Ships = append(row.Ships, int32(l))
	}
	for _, h := range state.HitMem {
		row.HitMemX = append(row.HitMemX, int32(h.X))
		row.HitMemY = append(row.HitMemY, int32(h.Y))
	}
	return row
}

// WriteGameParquet writes one finished game as turns_<gameID>.parquet in
// outDir. The file lands via outDir/tmp and a rename, so readers watching
// outDir never observe a partial file.
func WriteGameParquet(outDir string, gameID string, rows []TurnRow) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("no rows for game %s", gameID)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}
	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("turns_%s.parquet", gameID)
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", turnSchema),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}

// ReadTurns loads every TurnRow from one archive file.
func ReadTurns(path string) ([]TurnRow, error) {
	rows, err := parquet.ReadFile[TurnRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}

// BatchWriter streams many games' turn rows into one parquet file. Rows go
// to outDir/tmp while the batch is open; Finalize closes the writer and
// renames the file into outDir. Long-running producers roll to a fresh
// BatchWriter once BufferedRows crosses their threshold.
type BatchWriter struct {
	outDir string

	name    string
	tmpPath string
	outPath string

	file   *os.File
	writer *parquet.GenericWriter[TurnRow]

	bufferedGames int
	bufferedRows  int
}

func NewBatchWriter(outDir string) (*BatchWriter, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		absOut = outDir
	}
	tmpDir := filepath.Join(absOut, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("turns_batch_%d.parquet", time.Now().UnixNano())
	tmpPath := filepath.Join(tmpDir, name)
	outPath := filepath.Join(absOut, name)

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open tmp parquet: %w", err)
	}

	w := parquet.NewGenericWriter[TurnRow](
		f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
	)
	w.SetKeyValueMetadata("schema", turnSchema)

	return &BatchWriter{
		outDir:  absOut,
		name:    name,
		tmpPath: tmpPath,
		outPath: outPath,
		file:    f,
		writer:  w,
	}, nil
}

func (b *BatchWriter) OutPath() string    { return b.outPath }
func (b *BatchWriter) BufferedGames() int { return b.bufferedGames }
func (b *BatchWriter) BufferedRows() int  { return b.bufferedRows }

// WriteGame appends one finished game's rows to the batch.
func (b *BatchWriter) WriteGame(rows []TurnRow) error {
	if b.writer == nil || b.file == nil {
		return fmt.Errorf("batch writer is closed")
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := b.writer.Write(rows); err != nil {
		return err
	}
	b.bufferedRows += len(rows)
	b.bufferedGames++
	return nil
}

// Finalize closes the parquet writer and moves the file from tmp/ into
// outDir. If no rows were written the tmp file is removed and outPath
// comes back empty.
func (b *BatchWriter) Finalize() (outPath string, rows int, games int, err error) {
	if b.writer == nil && b.file == nil {
		return "", 0, 0, nil
	}

	rows = b.bufferedRows
	games = b.bufferedGames
	outPath = b.outPath

	var closeErr error
	if b.writer != nil {
		closeErr = b.writer.Close()
		b.writer = nil
	}
	var fileErr error
	if b.file != nil {
		_ = b.file.Sync()
		fileErr = b.file.Close()
		b.file = nil
	}
	if closeErr != nil {
		return "", 0, 0, fmt.Errorf("close parquet writer: %w", closeErr)
	}
	if fileErr != nil {
		return "", 0, 0, fmt.Errorf("close parquet file: %w", fileErr)
	}

	if rows == 0 {
		_ = os.Remove(b.tmpPath)
		return "", 0, 0, nil
	}

	if err := os.Rename(b.tmpPath, b.outPath); err != nil {
		return "", 0, 0, fmt.Errorf("rename parquet: %w", err)
	}
	return outPath, rows, games, nil
}
