package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type doneMsg struct{}

// spinnerModel shows a label next to a spinner until doneMsg arrives.
type spinnerModel struct {
	spinner     spinner.Model
	label       string
	done        bool
	interrupted bool
}

func newSpinnerModel(label string) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return spinnerModel{spinner: s, label: label}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.interrupted = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.label)
}

// withSpinner runs fn while a spinner with label is shown. The spinner is
// cleared before withSpinner returns. Ctrl+C on the spinner cancels ctx; a
// spinner that cannot draw is logged and fn runs to completion.
func withSpinner(ctx context.Context, logger *slog.Logger, label string, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newSpinnerModel(label), tea.WithContext(ctx))

	errc := make(chan error, 1)
	go func() {
		errc <- fn(ctx)
		p.Send(doneMsg{})
	}()

	final, err := p.Run()
	if err != nil {
		logger.Debug("spinner stopped", "err", err)
	} else if m, ok := final.(spinnerModel); ok && m.interrupted {
		cancel()
	}
	return <-errc
}
