package main

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ebnarten/margin"
	"github.com/ebnarten/margin/assist"
	"github.com/ebnarten/margin/markdown"
)

// Messages from the runner goroutine.
type fragmentMsg margin.Fragment

type doneMsg struct{ result assist.Result }

type errMsg struct{ err error }

// tuiModel displays a single streaming answer: reasoning first, dimmed, then
// the answer text, re-rendered as markdown once the stream completes.
type tuiModel struct {
	spinner spinner.Model
	theme   margin.Theme
	width   int

	text      string
	reasoning string
	result    assist.Result
	done      bool
	err       error

	reasoningStyle lipgloss.Style
	errorStyle     lipgloss.Style
	mutedStyle     lipgloss.Style
}

func newModel(theme margin.Theme) tuiModel {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(ansiColor(theme.Accent))
	return tuiModel{
		spinner:        sp,
		theme:          theme,
		width:          80,
		reasoningStyle: lipgloss.NewStyle().Foreground(ansiColor(theme.Reasoning)).Faint(true).Italic(true),
		errorStyle:     lipgloss.NewStyle().Foreground(ansiColor(theme.Error)),
		mutedStyle:     lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (m tuiModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if m.done || m.err != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case fragmentMsg:
		if msg.Text != nil {
			m.text += *msg.Text
		}
		if msg.Reasoning != nil {
			m.reasoning += *msg.Reasoning
		}
		return m, nil

	case doneMsg:
		m.done = true
		m.result = msg.result
		return m, tea.Quit

	case errMsg:
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m tuiModel) View() string {
	if m.err != nil {
		return m.errorStyle.Render("error: "+m.err.Error()) + "\n"
	}

	var b strings.Builder

	if m.reasoning != "" {
		wrapped := lipgloss.NewStyle().Width(m.width).Render(m.reasoning)
		b.WriteString(m.reasoningStyle.Render(wrapped))
		b.WriteString("\n\n")
	}

	switch {
	case m.done:
		b.WriteString(markdown.Render(m.text, m.width, m.theme))
		b.WriteString("\n")
		if m.result.Retried {
			b.WriteString(m.mutedStyle.Render("(retried once after a parameter rejection)"))
			b.WriteString("\n")
		}
	case m.text != "":
		b.WriteString(lipgloss.NewStyle().Width(m.width).Render(m.text))
		b.WriteString("\n")
	default:
		b.WriteString(m.spinner.View())
		b.WriteString(m.mutedStyle.Render(" thinking"))
		b.WriteString("\n")
	}

	return b.String()
}
