package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type confirmResult int

const (
	confirmPending confirmResult = iota
	confirmYes
	confirmNo
)

// confirmDialog is a yes/no prompt. No is preselected.
type confirmDialog struct {
	Title       string
	Message     string
	YesSelected bool
}

func newConfirmDialog(title, message string) confirmDialog {
	return confirmDialog{Title: title, Message: message}
}

func (d *confirmDialog) Update(msg tea.KeyMsg) confirmResult {
	switch msg.String() {
	case "left", "h":
		d.YesSelected = true
	case "right", "l":
		d.YesSelected = false
	case "y":
		return confirmYes
	case "n", "esc", "q":
		return confirmNo
	case "enter":
		if d.YesSelected {
			return confirmYes
		}
		return confirmNo
	}
	return confirmPending
}

func (d confirmDialog) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(d.Title))
	b.WriteString("\n")
	b.WriteString(d.Message)
	b.WriteString("\n\n")

	yes := inactiveButtonStyle.Render("Yes")
	no := inactiveButtonStyle.Render("No")
	if d.YesSelected {
		yes = activeButtonStyle.Render("Yes")
	} else {
		no = activeButtonStyle.Render("No")
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Left, yes, "  ", no))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(formatKey("←/→", "choose") + " • " + formatKey("enter", "confirm") + " • " + formatKey("esc", "cancel")))

	return boxStyle.Render(b.String())
}
