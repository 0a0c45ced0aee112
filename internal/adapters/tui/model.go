package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/core/ports"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	transcriptBox  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBox       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	defaultTimeout = 2 * time.Minute
)

type answerMsg struct {
	question string
	answer   *domain.Answer
	err      error
}

// Model is a terminal chat over the assistant. The conversation lives only
// in memory and only the last window turns are kept.
type Model struct {
	assistant ports.Assistant
	window    int
	timeout   time.Duration

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	turns      []domain.Turn
	transcript []string
	pending    bool
	status     string
	ready      bool
	width      int
}

func New(assistant ports.Assistant, window int, timeout time.Duration) Model {
	if window <= 0 {
		window = 6
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the manual and press Enter"
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		assistant: assistant,
		window:    window,
		timeout:   timeout,
		input:     ti,
		viewport:  viewport.New(0, 0),
		spinner:   sp,
		status:    "Ready. Esc or Ctrl+C to quit.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, th := transcriptBox.GetFrameSize()
		_, ih := inputBox.GetFrameSize()
		height := msg.Height - th - ih - 3 // title, input line, status
		if height < 3 {
			height = 3
		}
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = height
		m.renderer = newRenderer(m.viewport.Width - 2)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			question := strings.TrimSpace(m.input.Value())
			if question == "" || m.pending {
				return m, nil
			}
			m.input.Reset()
			m.pending = true
			m.status = "Thinking..."
			m.transcript = append(m.transcript, userStyle.Render("You: ")+question)
			m.refresh()
			return m, tea.Batch(m.ask(question), m.spinner.Tick)
		}

	case answerMsg:
		m.pending = false
		if msg.err != nil {
			m.status = errorStyle.Render("Error: " + msg.err.Error())
			m.refresh()
			return m, nil
		}
		m.remember(msg.question, msg.answer.Text)
		m.transcript = append(m.transcript, m.render(msg.answer.Text))
		m.status = "Answered from " + string(msg.answer.Route) + "."
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	status := statusStyle.Render(m.status)
	if m.pending {
		status = m.spinner.View() + " " + status
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Expert Assistant"),
		transcriptBox.Render(m.viewport.View()),
		inputBox.Render(m.input.View()),
		status,
	)
}

// ask snapshots the history window before the command runs off the
// update loop.
func (m Model) ask(question string) tea.Cmd {
	history := append([]domain.Turn(nil), m.turns...)
	assistant := m.assistant
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		answer, err := assistant.Ask(ctx, domain.AskRequest{Question: question, History: history})
		return answerMsg{question: question, answer: answer, err: err}
	}
}

func (m *Model) remember(question, answer string) {
	m.turns = append(m.turns,
		domain.Turn{Role: domain.RoleUser, Content: question},
		domain.Turn{Role: domain.RoleAssistant, Content: answer},
	)
	m.turns = append([]domain.Turn(nil), domain.RecentTurns(m.turns, m.window)...)
}

func (m Model) render(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (m *Model) refresh() {
	m.viewport.SetContent(strings.Join(m.transcript, "\n\n"))
	m.viewport.GotoBottom()
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(20, width)),
	)
	if err != nil {
		return nil
	}
	return r
}
