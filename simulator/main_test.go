package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"battleship-guru/game"
	"battleship-guru/guru"
	"battleship-guru/store"
)

func batchRows(t *testing.T, gameID string, turns int) []store.TurnRow {
	t.Helper()
	s, err := game.New(game.Config{
		ID:     gameID,
		Width:  10,
		Height: 10,
		Mode:   game.ModeNoTouch,
		Ships:  []int{5, 4, 3, 3, 2},
		Seed:   9,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var eng guru.Engine
	var rows []store.TurnRow
	for i := 0; i < turns; i++ {
		p, err := eng.Predict(s)
		if err != nil {
			t.Fatalf("predict: %v", err)
		}
		if err := eng.ReportResult(s, p, guru.OutcomeMiss); err != nil {
			t.Fatalf("report: %v", err)
		}
		rows = append(rows, store.SnapshotTurn(s, "selfplay", p, string(guru.OutcomeMiss), 0))
	}
	return rows
}

func TestFlushBatch_LedgersGamesOnlyAfterRowsLand(t *testing.T) {
	dir := t.TempDir()
	ledger, err := store.OpenArchivedLog(filepath.Join(dir, "ledger.log"))
	if err != nil {
		t.Fatalf("OpenArchivedLog: %v", err)
	}
	defer ledger.Close()

	writer, err := store.NewBatchWriter(filepath.Join(dir, "archive"))
	if err != nil {
		t.Fatalf("NewBatchWriter: %v", err)
	}

	const id = "selfplay_9_0"
	if err := writer.WriteGame(batchRows(t, id, 3)); err != nil {
		t.Fatalf("WriteGame: %v", err)
	}
	if ledger.Has(id) {
		t.Fatalf("game ledgered while its rows were still buffered")
	}

	logger := log.New(io.Discard)
	path, rows, games, err := flushBatch(logger, writer, ledger, []string{id})
	if err != nil {
		t.Fatalf("flushBatch: %v", err)
	}
	if rows != 3 || games != 1 {
		t.Fatalf("flushed rows=%d games=%d want 3/1", rows, games)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("batch file missing: %v", err)
	}
	if !ledger.Has(id) {
		t.Fatalf("game missing from ledger after its rows landed")
	}
}

func TestFlushBatch_FailedFlushKeepsGamesOutOfLedger(t *testing.T) {
	dir := t.TempDir()
	ledger, err := store.OpenArchivedLog(filepath.Join(dir, "ledger.log"))
	if err != nil {
		t.Fatalf("OpenArchivedLog: %v", err)
	}
	defer ledger.Close()

	outDir := filepath.Join(dir, "archive")
	writer, err := store.NewBatchWriter(outDir)
	if err != nil {
		t.Fatalf("NewBatchWriter: %v", err)
	}

	const id = "selfplay_9_1"
	if err := writer.WriteGame(batchRows(t, id, 2)); err != nil {
		t.Fatalf("WriteGame: %v", err)
	}

	// Pull the buffered tmp file out from under the writer so Finalize
	// cannot rename the batch into place.
	tmpPath := filepath.Join(outDir, "tmp", filepath.Base(writer.OutPath()))
	if err := os.Remove(tmpPath); err != nil {
		t.Fatalf("remove tmp: %v", err)
	}

	logger := log.New(io.Discard)
	if _, _, _, err := flushBatch(logger, writer, ledger, []string{id}); err == nil {
		t.Fatalf("expected an error once the batch could not land")
	}
	if ledger.Has(id) {
		t.Fatalf("failed flush must leave the ledger untouched")
	}
}
