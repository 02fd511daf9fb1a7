package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"battleship-guru/game"
	"battleship-guru/guru"
	"battleship-guru/store"
)

// mapdump loads a checkpoint and shows what the advisor sees: the board,
// the remembered hits, and the probability map or directional scores
// behind the next recommendation. The prediction runs on a clone, so the
// checkpoint on disk is never touched.
func main() {
	savesDir := flag.String("saves", "saves", "Checkpoint directory")
	name := flag.String("name", "", "Game to inspect (empty lists the directory)")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Prefix:          "mapdump",
	})

	if *name == "" {
		names, err := store.List(*savesDir)
		if err != nil {
			logger.Fatal("could not list checkpoints", "dir", *savesDir, "err", err)
		}
		if len(names) == 0 {
			fmt.Printf("no checkpoints in %s\n", *savesDir)
			return
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	state, err := store.Load(*savesDir, *name)
	if err != nil {
		logger.Fatal("could not load checkpoint", "name", *name, "err", err)
	}

	fmt.Printf("%s  %dx%d %s  turn %d  fleet %v\n\n",
		state.ID, state.Width, state.Height, state.Mode, state.Turn, state.Ships)
	fmt.Println(game.Render(state))

	if len(state.HitMem) > 0 {
		coords := make([]string, len(state.HitMem))
		for i, p := range state.HitMem {
			coords[i] = game.FormatCoord(p)
		}
		fmt.Printf("remembered hits: %s\n", strings.Join(coords, " "))
	}
	if state.Pending != nil {
		fmt.Printf("pending prediction: %s\n", game.FormatCoord(*state.Pending))
	}
	fmt.Println()

	// Predict on a clone with tracing on. The trace fires once per stage
	// the engine passes through, so a dead-ended target stage shows both
	// its empty candidate list and the search map it fell back to.
	var events []guru.TraceEvent
	eng := &guru.Engine{Trace: func(ev guru.TraceEvent) {
		events = append(events, ev)
	}}

	pick, err := eng.Predict(state.Clone())
	for _, ev := range events {
		printEvent(ev)
	}
	if err != nil {
		fmt.Printf("advisor: %v\n", err)
		return
	}
	fmt.Printf("advisor recommends %s\n", game.FormatCoord(pick))
}

func printEvent(ev guru.TraceEvent) {
	fmt.Printf("stage: %s\n", ev.Stage)
	if ev.Stage == guru.StageSearch {
		fmt.Println(ev.Prob.String())
		return
	}
	if len(ev.Scores) == 0 {
		fmt.Println("  no open candidate, falling back to search")
		return
	}
	for _, c := range ev.Scores {
		fmt.Printf("  %-4s run %d\n", game.FormatCoord(c.Cell), c.Score)
	}
	fmt.Println()
}
