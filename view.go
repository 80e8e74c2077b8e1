package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"nowcast/internal/artwork"
	"nowcast/internal/conn"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	artistStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#c8c8c8"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff"))
	connectedFg  = lipgloss.Color("#4caf50")
	lostFg       = lipgloss.Color("#fa8072")
	connectingFg = lipgloss.Color("245")
)

// line is one row of the text column.
type line struct {
	text  string
	style lipgloss.Style
}

// textWidth is the width of the text column beside the cover.
func (m model) textWidth() int {
	ui := m.cfg.Get().UI
	return max(ui.MaxWidth-ui.CoverColumns-6, 8)
}

func statusBadge(s conn.Status) line {
	switch s {
	case conn.StatusConnected:
		return line{"● Connected", lipgloss.NewStyle().Foreground(connectedFg)}
	case conn.StatusDisconnected:
		return line{"● Disconnected", lipgloss.NewStyle().Foreground(lostFg)}
	default:
		return line{"● Connecting…", lipgloss.NewStyle().Foreground(connectingFg)}
	}
}

func (m model) textLines(width, rows int) []line {
	badge := statusBadge(m.status)
	if !m.frame.HasState {
		lines := []line{{"Waiting for hub", mutedStyle}}
		for len(lines) < rows-1 {
			lines = append(lines, line{})
		}
		return append(lines, badge)
	}

	s := m.frame.State
	icon, label := "⏸", "Paused"
	if s.IsPlaying {
		icon, label = "▶", "Playing"
	}

	lines := []line{
		{scrollText(s.Track, width, m.scrollOffset), titleStyle},
		{scrollText(s.Artist, width, m.scrollOffset), artistStyle},
		{},
		{icon + " " + label, artistStyle},
	}
	if s.Duration > 0 {
		lines = append(lines,
			line{progressBar(s.Position, s.Duration, width), barStyle},
			line{formatTime(s.Position) + " / " + formatTime(s.Duration), mutedStyle},
		)
	}
	for len(lines) < rows-1 {
		lines = append(lines, line{})
	}
	if len(lines) > rows-1 {
		lines = lines[:max(rows-1, 0)]
	}
	return append(lines, badge)
}

func progressBar(position, duration, width int) string {
	filled := 0
	if duration > 0 {
		filled = width * min(max(position, 0), duration) / duration
	}
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

func (m model) View() string {
	ui := m.cfg.Get().UI
	rows := max(ui.CoverRows, 1)
	cols := max(ui.CoverColumns, 0)
	height := rows + 2
	textW := m.textWidth()
	width := cols + textW + 6

	backgrounds := cardBackgrounds(m.frame.Gradient, m.frame.HasGradient, height)
	bgAt := func(y int) artwork.RGB { return backgrounds[y] }

	var cells [][]cell
	if m.frame.Cover != nil {
		cells = coverCells(m.frame.Cover, cols, rows, m.frame.CoverOpacity, func(y int) artwork.RGB {
			return bgAt(y + 1)
		})
	}
	text := m.textLines(textW, rows)

	out := make([]string, height)
	for y := range out {
		fill := lipgloss.NewStyle().Background(lipgloss.Color(bgAt(y).Hex()))
		r := y - 1
		if r < 0 || r >= rows {
			out[y] = fill.Width(width).Render("")
			continue
		}

		cover := fill.Width(cols).Render("")
		if r < len(cells) {
			cover = renderCells(cells[r])
		}
		body := fill.Width(textW).Render("")
		if r < len(text) {
			body = text[r].style.Inherit(fill).Width(textW).MaxWidth(textW).Render(text[r].text)
		}
		out[y] = fill.Render("  ") + cover + fill.Render("  ") + body + fill.Render("  ")
	}
	card := lipgloss.JoinVertical(lipgloss.Left, out...)

	var helpText string
	if m.showHelp {
		key := lipgloss.NewStyle().Bold(true)
		helpText = lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Render(lipgloss.JoinHorizontal(
				lipgloss.Center,
				"Play/Pause: "+key.Render("p"),
				"  Next: "+key.Render("n"),
				"  Previous: "+key.Render("b"),
				"  Quit: "+key.Render("q"),
			))
	} else {
		helpText = mutedStyle.Render("Press ? for help")
	}

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, card, "\n"+helpText),
	)
}
