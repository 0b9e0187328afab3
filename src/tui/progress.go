package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"weld-agent/src/contracts"
	"weld-agent/src/run"
)

const maxPathWidth = 48

// EventMsg wraps a merge run progress event for the bubbletea loop.
type EventMsg run.Event

// streamClosedMsg signals that the event channel closed without a terminal
// event (consumer cancelled).
type streamClosedMsg struct{}

// Model displays a merge run as it proceeds: stage, per-file progress bar,
// and the result summary once the run terminates.
type Model struct {
	events <-chan run.Event

	spinner  spinner.Model
	bar      progress.Model
	stage    run.Stage
	file     string
	percent  float64
	done     bool
	output   *contracts.IntegratorOutput
	errMsg   string
	quitting bool
}

// NewModel creates a progress model consuming the given event stream.
func NewModel(events <-chan run.Event) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))

	return Model{
		events:  events,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient()),
		stage:   run.StageAnalyzing,
	}
}

// Init starts the spinner and the event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

// waitForEvent reads one event from the run's stream.
func waitForEvent(events <-chan run.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return EventMsg(ev)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case EventMsg:
		ev := run.Event(msg)
		m.stage = ev.Stage
		switch ev.Stage {
		case run.StageMerging:
			m.file = ev.FilePath
			m.percent = ev.Percent
		case run.StageComplete:
			m.done = true
			m.percent = 100
			m.output = ev.Output
			return m, tea.Quit
		case run.StageError:
			m.done = true
			m.errMsg = ev.Err
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)

	case streamClosedMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("weld - merge run"))
	sb.WriteString("\n\n")

	if m.errMsg != "" {
		sb.WriteString(failStyle.Render(fmt.Sprintf("✗ run failed: %s", m.errMsg)))
		sb.WriteString("\n")
		return sb.String()
	}

	if m.done && m.output != nil {
		sb.WriteString(renderSummary(m.output))
		return sb.String()
	}

	line := fmt.Sprintf("%s %s", m.spinner.View(), stageStyle.Render(string(m.stage)))
	if m.file != "" {
		line += fileStyle.Render(fmt.Sprintf("  %s", Truncate(m.file, maxPathWidth)))
	}
	sb.WriteString(line)
	sb.WriteString("\n")
	sb.WriteString(m.bar.ViewAs(m.percent / 100))
	sb.WriteString("\n")

	return sb.String()
}

// renderSummary lists the per-file outcomes of a finished run.
func renderSummary(output *contracts.IntegratorOutput) string {
	var sb strings.Builder

	if output.Success {
		sb.WriteString(okStyle.Render(fmt.Sprintf("✓ %s complete", output.RunID)))
	} else {
		sb.WriteString(failStyle.Render(fmt.Sprintf("✗ %s completed with unresolved files", output.RunID)))
	}
	sb.WriteString("\n\n")

	for _, mf := range output.MergedFiles {
		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			Pad(Truncate(mf.FilePath, maxPathWidth), maxPathWidth),
			strategyStyle.Render(Pad(string(mf.Strategy), 10)),
			fileStyle.Render(Truncate(mf.Reasoning, 60))))
	}

	for _, uf := range output.Unresolved {
		sb.WriteString(failStyle.Render(fmt.Sprintf("  %s unresolved: %s\n",
			Pad(Truncate(uf.FilePath, maxPathWidth), maxPathWidth),
			Truncate(uf.Reason, 60))))
	}

	return sb.String()
}

// Run drives the TUI to completion over the event stream and returns the
// run's terminal output, if any.
func Run(events <-chan run.Event) (*contracts.IntegratorOutput, error) {
	final, err := tea.NewProgram(NewModel(events)).Run()
	if err != nil {
		return nil, fmt.Errorf("TUI failed: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("unexpected final model type")
	}
	if m.errMsg != "" {
		return nil, fmt.Errorf("%s", m.errMsg)
	}
	return m.output, nil
}
