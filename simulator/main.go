// Command simulator benchmarks the advisor by playing it against randomly
// placed fleets. Each worker runs complete games in a loop; every finished
// game is appended to the parquet archive and the run ends with a
// shots-to-win summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"battleship-guru/game"
	"battleship-guru/simulator/selfplay"
	"battleship-guru/store"
)

var (
	gamesLaunched  atomic.Int64
	gamesCompleted atomic.Int64
	gamesSkipped   atomic.Int64
	gamesFailed    atomic.Int64
)

type gameReport struct {
	workerID int
	result   selfplay.Result
	err      error
}

func main() {
	games := flag.Int("games", 100, "Number of games to simulate")
	workers := flag.Int("workers", 4, "Number of parallel game workers")
	width := flag.Int("width", 10, "Board width")
	height := flag.Int("height", 10, "Board height")
	mode := flag.String("mode", string(game.ModeNoTouch), "Placement rules: no-touch or touching")
	ships := flag.String("ships", "5,4,3,3,2", "Comma-separated fleet lengths")
	seed := flag.Int64("seed", 0, "Base RNG seed (0 = derive from the clock)")
	outDir := flag.String("out", "archive", "Directory for parquet turn archives")
	ledgerPath := flag.String("ledger", "", "Archive ledger file; listed games are skipped on rerun")
	flushRows := flag.Int("flush-rows", 20000, "Roll to a new parquet file after this many buffered rows")
	verbose := flag.Bool("v", false, "Log every finished game")
	progress := flag.Duration("progress", 5*time.Second, "Progress report interval (0 disables)")
	debug := flag.Bool("debug", false, "Debug logging")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "simulator",
	})
	if *debug {
		logger.SetLevel(log.DebugLevel)
	}

	fleet, err := game.ParseShips(*ships)
	if err != nil {
		logger.Fatal("bad fleet", "err", err)
	}
	parsedMode, err := game.ParseMode(*mode)
	if err != nil {
		logger.Fatal("bad mode", "err", err)
	}
	if *games < 1 {
		logger.Fatal("need at least one game")
	}
	if *workers < 1 {
		*workers = 1
	}

	baseSeed := *seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ledger *store.ArchivedLog
	if *ledgerPath != "" {
		ledger, err = store.OpenArchivedLog(*ledgerPath)
		if err != nil {
			logger.Fatal("open ledger", "path", *ledgerPath, "err", err)
		}
		defer ledger.Close()
		logger.Info("ledger loaded", "path", *ledgerPath, "known", ledger.Count())
	}

	logger.Info("starting simulation",
		"games", *games, "workers", *workers,
		"board", fmt.Sprintf("%dx%d", *width, *height),
		"mode", parsedMode, "ships", fleet, "seed", baseSeed)

	reports := make(chan gameReport, *workers)
	runStart := time.Now()

	var workerWG sync.WaitGroup
	for i := 0; i < *workers; i++ {
		workerWG.Add(1)
		go func(workerID int) {
			defer workerWG.Done()
			runWorker(ctx, workerID, baseSeed, game.Config{
				Width:  *width,
				Height: *height,
				Mode:   parsedMode,
				Ships:  fleet,
			}, int64(*games), ledger, reports, logger)
		}(i)
	}

	// Close reports once every worker has drained out, so the collector
	// below can range to completion.
	go func() {
		workerWG.Wait()
		close(reports)
	}()

	writer, err := store.NewBatchWriter(*outDir)
	if err != nil {
		logger.Fatal("open archive writer", "dir", *outDir, "err", err)
	}

	var ticker *time.Ticker
	var tick <-chan time.Time
	if *progress > 0 {
		ticker = time.NewTicker(*progress)
		tick = ticker.C
		defer ticker.Stop()
	}

	var shots []int
	var archivedRows, archivedFiles int
	var batchGames []string

	// roll finalizes the current parquet batch and opens a fresh writer
	// so the next games land in a new file.
	roll := func() {
		path, rows, n, ferr := flushBatch(logger, writer, ledger, batchGames)
		switch {
		case ferr != nil:
			logger.Error("parquet flush failed", "err", ferr, "games", len(batchGames))
			gamesFailed.Add(1)
		case rows > 0:
			archivedRows += rows
			archivedFiles++
			logger.Debug("parquet flush", "path", path, "rows", rows, "games", n)
		}
		batchGames = batchGames[:0]
		writer, err = store.NewBatchWriter(*outDir)
		if err != nil {
			logger.Fatal("reopen archive writer", "dir", *outDir, "err", err)
		}
	}

collect:
	for {
		select {
		case rep, ok := <-reports:
			if !ok {
				break collect
			}
			if rep.err != nil {
				gamesFailed.Add(1)
				logger.Error("game failed", "worker", rep.workerID, "err", rep.err)
				continue
			}
			shots = append(shots, rep.result.Shots)
			if err := writer.WriteGame(rep.result.Rows); err != nil {
				gamesFailed.Add(1)
				logger.Error("archive game", "game", rep.result.GameID, "err", err)
				continue
			}
			batchGames = append(batchGames, rep.result.GameID)
			if *verbose {
				logger.Info("game finished",
					"worker", rep.workerID,
					"game", rep.result.GameID,
					"shots", rep.result.Shots)
			}
			if writer.BufferedRows() >= *flushRows {
				roll()
			}
		case <-tick:
			done := gamesCompleted.Load()
			elapsed := time.Since(runStart)
			rate := float64(done) / elapsed.Seconds()
			logger.Info("progress",
				"done", done, "target", *games,
				"failed", gamesFailed.Load(),
				"games/s", fmt.Sprintf("%.1f", rate))
		}
	}

	if path, rows, n, ferr := flushBatch(logger, writer, ledger, batchGames); ferr != nil {
		logger.Error("final parquet flush failed", "err", ferr, "games", len(batchGames))
		gamesFailed.Add(1)
	} else if rows > 0 {
		archivedRows += rows
		archivedFiles++
		logger.Info("archive written", "path", path, "rows", rows, "games", n)
	}

	if len(shots) == 0 {
		if skipped := gamesSkipped.Load(); skipped > 0 && gamesFailed.Load() == 0 {
			logger.Info("all games already archived", "skipped", skipped)
			return
		}
		logger.Error("no games completed")
		os.Exit(1)
	}

	printSummary(logger, shots, archivedRows, archivedFiles, time.Since(runStart))

	if gamesFailed.Load() > 0 {
		os.Exit(1)
	}
}

// flushBatch finalizes the open parquet batch and then records its game
// IDs in the ledger. An ID in the ledger promises its rows are on disk,
// so a failed flush returns before any ledger append and a rerun with
// the same seed replays those games instead of skipping them.
func flushBatch(logger *log.Logger, writer *store.BatchWriter, ledger *store.ArchivedLog, gameIDs []string) (string, int, int, error) {
	path, rows, games, err := writer.Finalize()
	if err != nil || rows == 0 {
		return path, rows, games, err
	}
	if ledger != nil {
		if lerr := ledger.AddMany(gameIDs); lerr != nil {
			// Not fatal: the batch file is already in place. Worst case a
			// rerun plays these games again and archives duplicate rows.
			logger.Error("ledger append", "games", len(gameIDs), "err", lerr)
		}
	}
	return path, rows, games, nil
}

// runWorker plays games until the shared launch counter reaches target or
// the context is cancelled. Game n always gets the same ID and RNG stream
// no matter which worker picks it up, so a rerun with the same base seed
// replays identical games and the ledger can skip the archived ones.
func runWorker(ctx context.Context, workerID int, baseSeed int64, cfg game.Config, target int64, ledger *store.ArchivedLog, reports chan<- gameReport, logger *log.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n := gamesLaunched.Add(1)
		if n > target {
			return
		}

		cfg.ID = fmt.Sprintf("selfplay_%d_%d", baseSeed, n-1)
		if ledger != nil && ledger.Has(cfg.ID) {
			logger.Debug("skipping archived game", "game", cfg.ID)
			gamesSkipped.Add(1)
			gamesCompleted.Add(1)
			continue
		}

		rng := newGameRNG(baseSeed, n-1)
		res, err := selfplay.Play(cfg, rng)
		gamesCompleted.Add(1)
		select {
		case reports <- gameReport{workerID: workerID, result: res, err: err}:
		case <-ctx.Done():
			return
		}
	}
}

func printSummary(logger *log.Logger, shots []int, rows, files int, elapsed time.Duration) {
	sort.Ints(shots)
	total := 0
	for _, s := range shots {
		total += s
	}
	mean := float64(total) / float64(len(shots))
	median := shots[len(shots)/2]

	logger.Info("simulation done",
		"games", len(shots),
		"min", shots[0],
		"mean", fmt.Sprintf("%.1f", mean),
		"median", median,
		"max", shots[len(shots)-1],
		"rows", rows,
		"files", files,
		"elapsed", elapsed.Round(time.Millisecond))

	fmt.Println(histogram(shots, 60))
}

// histogram renders shot counts as rows of '#' bars, bucketed by 5.
func histogram(sorted []int, barWidth int) string {
	if len(sorted) == 0 {
		return ""
	}
	lo := sorted[0] / 5 * 5
	hi := sorted[len(sorted)-1]/5*5 + 5

	counts := make(map[int]int)
	peak := 0
	for _, s := range sorted {
		b := s / 5 * 5
		counts[b]++
		if counts[b] > peak {
			peak = counts[b]
		}
	}

	var sb strings.Builder
	sb.WriteString("shots to win\n")
	for b := lo; b < hi; b += 5 {
		n := counts[b]
		bar := n * barWidth / peak
		fmt.Fprintf(&sb, "%3d-%3d %6d %s\n", b, b+4, n, strings.Repeat("#", bar))
	}
	return sb.String()
}

// newGameRNG spreads per-game streams far apart in seed space.
func newGameRNG(baseSeed, gameIndex int64) *rand.Rand {
	return rand.New(rand.NewSource(baseSeed + gameIndex*1000003))
}
