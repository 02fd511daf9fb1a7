package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"battleship-guru/game"
	"battleship-guru/guru"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	pickStyle   = lipgloss.NewStyle().Reverse(true)
	traceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	markStyles = map[game.Mark]lipgloss.Style{
		game.Unknown:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		game.Predicted: lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
		game.Miss:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		game.Hit:       lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		game.Sunk:      lipgloss.NewStyle().Foreground(lipgloss.Color("129")),
	}
)

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("battleship guru"))
	b.WriteString("\n\n")

	switch m.phase {
	case phaseMenu:
		b.WriteString("[n] new game\n")
		if len(m.saves) > 0 {
			fmt.Fprintf(&b, "[l] resume a saved game (%d)\n", len(m.saves))
		}
		b.WriteString("[q] quit\n")

	case phasePickSave:
		b.WriteString("resume which game?\n\n")
		for i, name := range m.saves {
			line := "  " + name
			if i == m.cursor {
				line = pickStyle.Render("> " + name)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n" + helpStyle.Render("up/down to move, enter to load, esc to go back") + "\n")

	case phaseShips:
		b.WriteString("ship lengths, longest first (enter for 5 4 3 3 2)\n\n")
		b.WriteString("> " + m.input + "_\n")

	case phaseName:
		b.WriteString("save name (enter for a dated default)\n\n")
		b.WriteString("> " + m.input + "_\n")

	case phasePlay:
		b.WriteString(m.renderGame())
		fmt.Fprintf(&b, "\nrecommend %s. hit or miss? ", titleStyle.Render(game.FormatCoord(m.prediction)))
		b.WriteString(helpStyle.Render("[h/m, q to quit]"))
		b.WriteByte('\n')

	case phaseSunkAsk:
		b.WriteString(m.renderGame())
		b.WriteString("\ndid that sink a ship? ")
		b.WriteString(helpStyle.Render("[y/n]"))
		b.WriteByte('\n')

	case phaseSinkCoords:
		b.WriteString(m.renderGame())
		b.WriteString("\nsunk ship endpoints, e.g. A1 A4\n")
		b.WriteString("> " + m.input + "_\n")

	case phaseOver:
		if m.state != nil {
			b.WriteString(m.renderGame())
			b.WriteByte('\n')
		}
		if m.stuck {
			b.WriteString(statusStyle.Render("the reports cannot all be true; the save was kept for inspection"))
		} else {
			fmt.Fprintf(&b, "all ships sunk in %s shots", titleStyle.Render(fmt.Sprintf("%d", m.finalShots)))
		}
		b.WriteString("\n\n" + helpStyle.Render("[n] menu, [q] quit") + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}
	return b.String()
}

// renderGame draws the styled board, a one-line summary, and the trace
// panel when tracing is on.
func (m model) renderGame() string {
	s := m.state

	var board strings.Builder
	board.WriteString(labelStyle.Render(columnHeader(s.Width)))
	board.WriteByte('\n')
	for y := 0; y < s.Height; y++ {
		board.WriteString(labelStyle.Render(fmt.Sprintf("%c  ", 'A'+y)))
		for x := 0; x < s.Width; x++ {
			mark := s.Board[x][y]
			board.WriteString(markStyles[mark].Render(string(byte(mark))))
			board.WriteString("  ")
		}
		board.WriteByte('\n')
	}

	grid := board.String()
	if m.opts.trace {
		if panel := m.renderTrace(); panel != "" {
			grid = lipgloss.JoinHorizontal(lipgloss.Top, grid, "   ", panel)
		}
	}

	summary := labelStyle.Render(fmt.Sprintf("game %s  turn %d  ships left %v", s.ID, s.Turn, s.Ships))
	return grid + "\n" + summary + "\n"
}

func columnHeader(width int) string {
	var b strings.Builder
	b.WriteString("   ")
	for x := 0; x < width; x++ {
		fmt.Fprintf(&b, "%-3d", x+1)
	}
	return b.String()
}

func (m model) renderTrace() string {
	if !m.trace.ok {
		return ""
	}
	ev := m.trace.ev

	var b strings.Builder
	fmt.Fprintf(&b, "stage: %s\n", ev.Stage)
	if ev.Stage == guru.StageSearch {
		b.WriteString(ev.Prob.String())
	} else {
		for _, c := range ev.Scores {
			fmt.Fprintf(&b, "%-4s run=%d\n", game.FormatCoord(c.Cell), c.Score)
		}
	}
	return traceStyle.Render(b.String())
}
