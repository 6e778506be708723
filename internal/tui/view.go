package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
)

func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var body string

	switch m.screen {
	case ScreenSetup:
		body = m.viewSetup()
	case ScreenBoard:
		body = m.viewBoard()
	case ScreenPopup:
		body = lipgloss.JoinVertical(lipgloss.Left, m.viewBoard(), m.viewPopup())
	default:
		body = m.viewMenu()
	}

	if m.err != nil {
		body += "\n" + errorStyle.Render(m.err.Error())
	}

	return body + "\n"
}

func (m Model) viewMenu() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tic-Tac-Toe") + "\n")
	b.WriteString(renderList(menuItems, m.menuIdx))
	b.WriteString(helpStyle.Render("↑/↓: move │ enter: select │ q: quit"))

	return b.String()
}

func (m Model) viewSetup() string {
	items := []string{
		"Player vs Player",
		"Player vs Computer",
		fmt.Sprintf("Play as: %s", m.humanMark),
		"Back",
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("New game") + "\n")
	b.WriteString(renderList(items, m.setupIdx))
	b.WriteString(helpStyle.Render("↑/↓: move │ ←/→ or x/o: pick mark │ enter: select │ esc: back"))

	return b.String()
}

func (m Model) viewBoard() string {
	if m.session == nil {
		return ""
	}

	var b strings.Builder

	title := "Player vs Player"
	if m.session.IsWithComputer() {
		title = fmt.Sprintf("Player vs Computer (you are %s)", m.session.HumanMark)
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s · game %d", title, m.session.Counter)) + "\n")

	b.WriteString(m.renderBoard() + "\n\n")

	if m.session.Outcome.IsTerminal() {
		b.WriteString(bannerStyle.Render(m.status))
	} else {
		b.WriteString(activeStyle.Render(m.status))
	}
	b.WriteString("\n")

	if m.lastEvent != "" {
		b.WriteString(infoStyle.Render(m.lastEvent) + "\n")
	}

	if m.screen == ScreenBoard {
		b.WriteString(helpStyle.Render("arrows/1-9: select │ enter: place │ esc: menu"))
	}

	return b.String()
}

func (m Model) renderBoard() string {
	winning := map[int]bool{}
	if m.session.Outcome.Kind == entity.OutcomeWin {
		if line, ok := m.session.Board.WinningLine(m.session.Outcome.Winner); ok {
			for _, cell := range line {
				winning[cell] = true
			}
		}
	}

	rows := make([]string, 0, 5)

	for row := 0; row < 3; row++ {
		cells := make([]string, 0, 5)

		for col := 0; col < 3; col++ {
			index := row*3 + col

			style := cellStyle
			switch {
			case winning[index]:
				style = winLineStyle
			case index == m.cursor && m.screen == ScreenBoard:
				style = cursorStyle
			}

			cells = append(cells, style.Render(renderMark(m.session.Board[index], index)))
			if col < 2 {
				cells = append(cells, infoStyle.Render("│"))
			}
		}

		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		if row < 2 {
			rows = append(rows, infoStyle.Render("─────┼─────┼─────"))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) viewPopup() string {
	buttons := make([]string, 0, len(popupItems))
	for i, item := range popupItems {
		if i == m.popupIdx {
			buttons = append(buttons, activeStyle.Render("[ "+item+" ]"))
		} else {
			buttons = append(buttons, itemStyle.Render("  "+item+"  "))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		bannerStyle.Render(m.popup),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, buttons...),
	)

	return popupStyle.Render(content)
}

func renderMark(mark entity.Mark, index int) string {
	switch mark {
	case entity.PlayerX:
		return markXStyle.Render("X")
	case entity.PlayerO:
		return markOStyle.Render("O")
	default:
		return infoStyle.Render(fmt.Sprintf("%d", index+1))
	}
}

func renderList(items []string, selected int) string {
	var b strings.Builder

	for i, item := range items {
		if i == selected {
			b.WriteString(activeStyle.Render("▶ "+item) + "\n")
			continue
		}

		b.WriteString(itemStyle.Render("  "+item) + "\n")
	}

	return b.String()
}
