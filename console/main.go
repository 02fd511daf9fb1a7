// Command console is the interactive advisor. It recommends the next shot,
// takes hit/miss/sunk reports from the operator, checkpoints the game
// before every prediction, and archives finished games.
package main

import (
	"flag"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"battleship-guru/game"
)

func main() {
	width := flag.Int("width", 10, "Board width")
	height := flag.Int("height", 10, "Board height")
	mode := flag.String("mode", string(game.ModeNoTouch), "Placement rules: no-touch or touching")
	seed := flag.Int64("seed", 0, "Tie-break RNG seed (0 = derive from the clock)")
	savesDir := flag.String("saves", "saves", "Directory for game checkpoints")
	archiveDir := flag.String("archive", "archive", "Directory for finished game parquet archives (empty disables)")
	feedURL := flag.String("feed", "", "Viewer live feed websocket URL, e.g. ws://localhost:8714/api/live/feed (empty disables)")
	trace := flag.Bool("trace", false, "Show the advisor's diagnostic maps next to the board")
	debug := flag.Bool("debug", false, "Debug logging (redirect stderr to keep the board clean)")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "console",
	})
	if *debug {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.ErrorLevel)
	}

	parsedMode, err := game.ParseMode(*mode)
	if err != nil {
		logger.Fatal("bad mode", "err", err)
	}
	if *width < 1 || *height < 1 {
		logger.Fatal("bad board size", "width", *width, "height", *height)
	}

	var feed *feedClient
	if *feedURL != "" {
		feed = newFeedClient(*feedURL, logger)
		defer feed.Close()
	}

	m := newModel(options{
		width:      *width,
		height:     *height,
		mode:       parsedMode,
		seed:       *seed,
		savesDir:   *savesDir,
		archiveDir: *archiveDir,
		trace:      *trace,
	}, logger, feed)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Fatal("console failed", "err", err)
	}
}
