package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/citadel-abi/inspect"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	input   textinput.Model
	info    *inspect.Info
	history []string
}

func newInteractiveModel() *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "bc1q… / rgb1… / i1…"
	ti.Prompt = "bech32: "
	ti.Width = 72
	ti.CharLimit = 4096
	ti.Focus()
	return &interactiveModel{input: ti}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			s := strings.TrimSpace(m.input.Value())
			if s == "" {
				return m, nil
			}
			info := inspect.Inspect(s)
			m.info = &info
			m.history = append(m.history, s)
			m.input.SetValue("")
			return m, nil

		case "ctrl+l":
			m.info = nil
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Citadel bech32 inspector"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.info != nil {
		b.WriteString(renderInfo(m.history[len(m.history)-1], *m.info))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("enter inspect • ctrl+l clear • esc quit"))
	return b.String()
}

func renderInfo(s string, info inspect.Info) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-9s", label)))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("input", s)
	status := info.Status.String()
	if info.Status == inspect.StatusOK {
		row("status", resultStyle.Render(status))
	} else {
		row("status", errorStyle.Render(status))
	}
	row("category", info.Category.String())
	row("bech32m", fmt.Sprintf("%t", info.Bech32m))

	details := info.Details
	var v any
	if json.Unmarshal([]byte(details), &v) == nil {
		if pretty, err := json.MarshalIndent(v, "         ", "  "); err == nil {
			details = string(pretty)
		}
	}
	row("details", details)
	return b.String()
}

func runInteractive() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("interactive mode requires a terminal")
	}
	p := tea.NewProgram(newInteractiveModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
