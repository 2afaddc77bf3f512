package tui

import (
	"context"
	"fmt"
	"strings"

	"cortex/internal/domain"
	"cortex/internal/llm"
	"cortex/internal/rag"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const maxHistoryTurns = 20

type chatModel struct {
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	svc  *rag.Service
	opts rag.ChatOptions

	messages []chatMessage
	history  []llm.Message

	// Live stream state. stream and cancel are non-nil while a request is
	// in flight; partial accumulates the answer as deltas arrive.
	stream  <-chan rag.Delta
	cancel  context.CancelFunc
	partial string
	state   rag.ChatState

	width       int
	height      int
	initialized bool
}

type chatMessage struct {
	role    string
	content string
}

// deltaMsg wraps one stream event for the Bubble Tea update loop.
type deltaMsg struct {
	delta rag.Delta
	ok    bool
}

func newChatModel(svc *rag.Service, opts rag.ChatOptions) chatModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	ti := textinput.New()
	ti.Placeholder = "Ask a question about your documents..."
	ti.CharLimit = 2000
	ti.Focus()

	return chatModel{
		spinner: sp,
		input:   ti,
		svc:     svc,
		opts:    opts,
		state:   rag.StateIdle,
	}
}

func (m *chatModel) initViewport(width, height int) {
	m.width = width
	m.height = height

	// Layout: viewport + status bar (1 line) + input (1 line) + gap.
	vpHeight := height - 3
	if vpHeight < 5 {
		vpHeight = 5
	}
	m.viewport = viewport.New(width, vpHeight)
	m.viewport.SetContent(dimStyle.Render("Welcome to Cortex chat! Ask a question about your documents.\n\nCommands: /help, /clear, /exit — esc cancels a running answer"))

	m.input.Width = width - 4

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err == nil {
		m.renderer = r
	}

	m.initialized = true
}

// waitForDelta receives the next stream event as a tea.Msg.
func waitForDelta(ch <-chan rag.Delta) tea.Cmd {
	return func() tea.Msg {
		d, ok := <-ch
		return deltaMsg{delta: d, ok: ok}
	}
}

func (m *chatModel) startRequest(question string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.partial = ""
	m.state = rag.StateRetrieving
	m.stream = m.svc.StreamChat(ctx, m.history[:len(m.history)-1], question, m.opts)
	return waitForDelta(m.stream)
}

func (m *chatModel) finishRequest() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.stream = nil
	m.state = rag.StateIdle
}

func (m chatModel) busy() bool { return m.stream != nil }

func (m chatModel) Update(msg tea.Msg) (chatModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.initViewport(msg.Width, msg.Height)
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
		return m, nil

	case deltaMsg:
		if !msg.ok {
			// Channel closed: the terminal marker already arrived (or the
			// request was cancelled).
			m.finishRequest()
			m.viewport.SetContent(m.renderMessages())
			m.viewport.GotoBottom()
			return m, nil
		}
		d := msg.delta
		m.state = d.State
		switch {
		case d.Err != nil:
			m.messages = append(m.messages, chatMessage{role: "error", content: d.Err.Error()})
			m.finishRequest()
		case d.Done:
			answer := m.partial
			m.messages = append(m.messages, chatMessage{role: "assistant", content: answer})
			m.history = append(m.history, llm.Message{Role: "assistant", Content: answer})
			if len(m.history) > maxHistoryTurns {
				m.history = m.history[len(m.history)-maxHistoryTurns:]
			}
			if len(d.Sources) > 0 {
				m.messages = append(m.messages, chatMessage{role: "system", content: renderSources(d.Sources)})
			}
			m.finishRequest()
		default:
			m.partial += d.Content
		}
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
		if m.stream != nil {
			cmds = append(cmds, waitForDelta(m.stream))
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.viewport.SetContent(m.renderMessages())
			m.viewport.GotoBottom()
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if m.busy() {
			if msg.Type == tea.KeyEsc {
				m.messages = append(m.messages, chatMessage{role: "system", content: "Cancelled."})
				m.finishRequest()
				m.viewport.SetContent(m.renderMessages())
				m.viewport.GotoBottom()
			}
			return m, nil
		}
		switch msg.Type {
		case tea.KeyEnter:
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.input.Reset()

			switch question {
			case "/exit", "/quit":
				return m, tea.Quit
			case "/clear":
				m.messages = nil
				m.history = nil
				m.viewport.SetContent(dimStyle.Render("Conversation cleared."))
				return m, nil
			case "/help":
				helpText := "Commands:\n  /clear  - clear conversation history\n  /exit   - quit\n  /help   - show this help\n  esc     - cancel a running answer"
				m.messages = append(m.messages, chatMessage{role: "system", content: helpText})
				m.viewport.SetContent(m.renderMessages())
				m.viewport.GotoBottom()
				return m, nil
			}

			m.messages = append(m.messages, chatMessage{role: "user", content: question})
			m.history = append(m.history, llm.Message{Role: "user", Content: question})
			m.viewport.SetContent(m.renderMessages())
			m.viewport.GotoBottom()

			return m, tea.Batch(m.spinner.Tick, m.startRequest(question))
		}
	}

	if !m.busy() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m chatModel) renderMarkdown(content string) string {
	if m.renderer == nil {
		return assistantMsgStyle.Render(content)
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return assistantMsgStyle.Render(content)
	}
	return strings.TrimRight(rendered, "\n")
}

func renderSources(sources []domain.RetrievalResult) string {
	var sb strings.Builder
	sb.WriteString("Sources:\n")
	for _, s := range sources {
		sb.WriteString(fmt.Sprintf("  %s (similarity %.2f)\n", s.SourcePath, s.Similarity))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m chatModel) renderMessages() string {
	var sb strings.Builder
	for _, msg := range m.messages {
		switch msg.role {
		case "user":
			sb.WriteString(userMsgStyle.Render("You: ") + msg.content + "\n\n")
		case "assistant":
			sb.WriteString(m.renderMarkdown(msg.content) + "\n\n")
		case "error":
			sb.WriteString(errorStyle.Render("Error: "+msg.content) + "\n\n")
		case "system":
			sb.WriteString(dimStyle.Render(msg.content) + "\n\n")
		}
	}

	if m.busy() {
		label := m.state.String() + "..."
		if m.partial != "" {
			sb.WriteString(m.renderMarkdown(m.partial) + "\n")
		}
		sb.WriteString(m.spinner.View() + " " + dimStyle.Render(label) + "\n")
	}

	return sb.String()
}

func (m chatModel) View(width, height int) string {
	if !m.initialized {
		return ""
	}

	statusText := "idle"
	if m.busy() {
		statusText = m.state.String() + "..."
	}
	statusBar := statusBarStyle.
		Width(m.width).
		Render(fmt.Sprintf(" cortex chat • %s", statusText))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		statusBar,
		m.input.View(),
	)
}
