package tui

import (
	"cortex/internal/rag"

	tea "github.com/charmbracelet/bubbletea"
)

// Model is the top-level Bubble Tea model wrapping the chat view.
type Model struct {
	chat   chatModel
	width  int
	height int
}

// New creates a TUI model over a retrieval service.
func New(svc *rag.Service, opts rag.ChatOptions) Model {
	return Model{chat: newChatModel(svc, opts)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			// Release any in-flight generation before exiting.
			m.chat.finishRequest()
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.chat.View(m.width, m.height)
}

// Run starts the chat TUI and blocks until it exits.
func Run(svc *rag.Service, opts rag.ChatOptions) error {
	p := tea.NewProgram(New(svc, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
