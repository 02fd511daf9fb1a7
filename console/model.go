package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"battleship-guru/game"
	"battleship-guru/guru"
	"battleship-guru/store"
)

type phase int

const (
	phaseMenu phase = iota
	phasePickSave
	phaseShips
	phaseName
	phasePlay
	phaseSunkAsk
	phaseSinkCoords
	phaseOver
)

type options struct {
	width      int
	height     int
	mode       game.Mode
	seed       int64
	savesDir   string
	archiveDir string
	trace      bool
}

// traceBox is shared by pointer between the engine's trace hook and every
// copy of the model, so the view always shows the latest diagnostic.
type traceBox struct {
	ev guru.TraceEvent
	ok bool
}

type model struct {
	opts   options
	logger *log.Logger
	feed   *feedClient

	eng   *guru.Engine
	trace *traceBox

	phase  phase
	saves  []string
	cursor int
	input  string
	status string

	state      *game.GameState
	saveName   string
	prediction game.Point
	fleet      []int
	rows       []store.TurnRow

	finalShots int
	stuck      bool
}

func newModel(opts options, logger *log.Logger, feed *feedClient) model {
	box := &traceBox{}
	eng := &guru.Engine{}
	if opts.trace || feed != nil {
		eng.Trace = func(ev guru.TraceEvent) {
			box.ev, box.ok = ev, true
			logger.Debug("trace", "game", ev.GameID, "turn", ev.Turn, "stage", ev.Stage)
			feed.Send("trace", ev)
		}
	}

	m := model{
		opts:   opts,
		logger: logger,
		feed:   feed,
		eng:    eng,
		trace:  box,
		phase:  phaseMenu,
	}
	m.refreshSaves()
	return m
}

func (m *model) refreshSaves() {
	saves, err := store.List(m.opts.savesDir)
	if err != nil {
		m.logger.Error("list saves", "dir", m.opts.savesDir, "err", err)
	}
	m.saves = saves
	if m.cursor >= len(saves) {
		m.cursor = 0
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if key.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.phase {
	case phaseMenu:
		return m.updateMenu(key)
	case phasePickSave:
		return m.updatePickSave(key)
	case phaseShips, phaseName, phaseSinkCoords:
		return m.updateTextInput(key)
	case phasePlay:
		return m.updatePlay(key)
	case phaseSunkAsk:
		return m.updateSunkAsk(key)
	case phaseOver:
		return m.updateOver(key)
	}
	return m, nil
}

func (m model) updateMenu(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "n":
		m.phase = phaseShips
		m.input = ""
		m.status = ""
	case "l":
		if len(m.saves) == 0 {
			m.status = "no saved games"
			break
		}
		m.phase = phasePickSave
		m.cursor = 0
		m.status = ""
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m model) updatePickSave(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.saves)-1 {
			m.cursor++
		}
	case "esc":
		m.phase = phaseMenu
	case "enter":
		name := m.saves[m.cursor]
		state, err := store.Load(m.opts.savesDir, name)
		if err != nil {
			m.status = err.Error()
			break
		}
		m.state = state
		m.saveName = name
		m.rows = nil
		m.logger.Info("resumed game", "save", name, "turn", state.Turn)
		return m.startTurn()
	}
	return m, nil
}

// updateTextInput drives the three line-entry phases: fleet lengths, save
// name, and sink endpoints.
func (m model) updateTextInput(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyRunes:
		m.input += string(key.Runes)
	case tea.KeySpace:
		m.input += " "
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeyEsc:
		switch m.phase {
		case phaseShips:
			m.phase = phaseMenu
		case phaseName:
			m.phase = phaseShips
		case phaseSinkCoords:
			m.phase = phaseSunkAsk
		}
		m.input = ""
		m.status = ""
	case tea.KeyEnter:
		return m.submitInput()
	}
	return m, nil
}

func (m model) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input)

	switch m.phase {
	case phaseShips:
		if text == "" {
			text = "5 4 3 3 2"
		}
		fleet, err := game.ParseShips(strings.Join(strings.Fields(text), ","))
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.fleet = fleet
		m.phase = phaseName
		m.input = ""
		m.status = ""

	case phaseName:
		if text == "" {
			text = time.Now().Format("game-20060102-150405")
		}
		return m.newGame(text)

	case phaseSinkCoords:
		return m.submitSink(text)
	}
	return m, nil
}

func (m model) newGame(name string) (tea.Model, tea.Cmd) {
	state, err := game.New(game.Config{
		ID:     name,
		Width:  m.opts.width,
		Height: m.opts.height,
		Mode:   m.opts.mode,
		Ships:  m.fleet,
		Seed:   m.opts.seed,
	})
	if err != nil {
		m.status = err.Error()
		m.phase = phaseShips
		m.input = ""
		return m, nil
	}

	// Saving up front also validates the name before the game starts.
	if err := store.Save(m.opts.savesDir, name, state); err != nil {
		m.status = err.Error()
		return m, nil
	}

	m.state = state
	m.saveName = name
	m.rows = nil
	m.logger.Info("new game", "save", name,
		"board", fmt.Sprintf("%dx%d", state.Width, state.Height),
		"mode", state.Mode, "ships", state.Ships)
	return m.startTurn()
}

// startTurn checkpoints the game and asks the engine for the next shot.
// Checkpointing before the prediction is deliberate: reloading the save
// replays the same prediction, so nothing is lost by quitting mid-question.
func (m model) startTurn() (tea.Model, tea.Cmd) {
	if err := store.Save(m.opts.savesDir, m.saveName, m.state); err != nil {
		m.logger.Error("checkpoint failed", "save", m.saveName, "err", err)
	}

	p, err := m.eng.Predict(m.state)
	if err != nil {
		m.logger.Error("prediction failed", "game", m.state.ID, "err", err)
		m.status = err.Error()
		m.stuck = true
		m.phase = phaseOver
		return m, nil
	}

	m.prediction = p
	m.phase = phasePlay
	m.input = ""
	m.status = ""
	m.sendBoard()
	return m, nil
}

func (m model) updatePlay(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "h":
		if err := m.eng.ReportResult(m.state, m.prediction, guru.OutcomeHit); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.phase = phaseSunkAsk
		m.status = ""
	case "m":
		if err := m.eng.ReportResult(m.state, m.prediction, guru.OutcomeMiss); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.recordTurn(guru.OutcomeMiss, 0)
		return m.startTurn()
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m model) updateSunkAsk(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "y":
		m.phase = phaseSinkCoords
		m.input = ""
		m.status = ""
	case "n":
		m.recordTurn(guru.OutcomeHit, 0)
		return m.startTurn()
	}
	return m, nil
}

func (m model) submitSink(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		m.status = "enter the two endpoints, e.g. A1 A4"
		return m, nil
	}

	a, err := game.ParseCoord(m.state, fields[0])
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	b, err := game.ParseCoord(m.state, fields[1])
	if err != nil {
		m.status = err.Error()
		return m, nil
	}

	over, err := m.eng.ReportSink(m.state, a, b)
	if err != nil {
		// State is untouched on a failed sink, so the endpoints can
		// simply be re-entered.
		m.status = err.Error()
		m.input = ""
		return m, nil
	}

	length := abs(b.X-a.X) + abs(b.Y-a.Y) + 1
	m.recordTurn(guru.OutcomeHit, length)
	m.logger.Info("ship sunk", "game", m.state.ID, "length", length, "left", len(m.state.Ships))

	if over {
		return m.finishGame()
	}
	return m.startTurn()
}

func (m *model) recordTurn(outcome guru.Outcome, sunkLen int) {
	m.rows = append(m.rows, store.SnapshotTurn(m.state, "console", m.prediction, string(outcome), sunkLen))
	m.sendBoard()
}

func (m *model) sendBoard() {
	m.feed.Send("board", boardEvent{
		GameID:  m.state.ID,
		Turn:    m.state.Turn,
		Width:   m.state.Width,
		Height:  m.state.Height,
		Mode:    string(m.state.Mode),
		Board:   m.state.BoardString(),
		Ships:   m.state.Ships,
		Pending: m.state.Pending,
	})
}

func (m model) finishGame() (tea.Model, tea.Cmd) {
	m.finalShots = m.state.Turn
	m.stuck = false
	m.phase = phaseOver

	for i := range m.rows {
		m.rows[i].ShotsToWin = int32(m.finalShots)
	}

	m.feed.Send("gameover", gameOverEvent{GameID: m.state.ID, Shots: m.finalShots})
	m.logger.Info("game over", "game", m.state.ID, "shots", m.finalShots)

	if err := store.Delete(m.opts.savesDir, m.saveName); err != nil {
		m.logger.Error("delete checkpoint", "save", m.saveName, "err", err)
	}

	if m.opts.archiveDir != "" {
		path, err := store.WriteGameParquet(m.opts.archiveDir, m.state.ID, m.rows)
		if err != nil {
			m.logger.Error("archive game", "game", m.state.ID, "err", err)
		} else {
			m.logger.Info("game archived", "path", path, "rows", len(m.rows))
		}
	}

	m.refreshSaves()
	return m, nil
}

func (m model) updateOver(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "n":
		m.phase = phaseMenu
		m.status = ""
		m.stuck = false
		m.trace.ok = false
		m.refreshSaves()
	case "q", "enter":
		return m, tea.Quit
	}
	return m, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
