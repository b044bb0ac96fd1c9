package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pdfchat/internal/domain"
	"pdfchat/internal/session"
)

// QueryPort is the TUI-facing subset of the question answering pipeline.
type QueryPort interface {
	ProcessQuery(question string) domain.QueryResponse
}

// IngestPort is the TUI-facing subset of the document indexing pipeline.
type IngestPort interface {
	IngestPDF(data []byte, filename string) (int, error)
}

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	pipeline QueryPort
	ingester IngestPort
	state    *session.State
	input    textinput.Model
	viewport viewport.Model
	status   string
	ready    bool
	thinking bool
}

// answerMsg carries a completed pipeline response back into Update.
type answerMsg struct {
	question string
	response domain.QueryResponse
}

// ingestMsg carries the result of an in-session document upload.
type ingestMsg struct {
	filename string
	chunks   int
	err      error
}

// New creates a chat model over the given pipelines and session state.
func New(pipeline QueryPort, ingester IngestPort, state *session.State) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question, or /ingest <path> to index a PDF"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		pipeline: pipeline,
		ingester: ingester,
		state:    state,
		input:    ti,
		viewport: vp,
		status:   statusHint(state),
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := chatBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved - fh
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.thinking {
				return m, nil
			}
			m.input.SetValue("")
			if path, ok := strings.CutPrefix(q, "/ingest "); ok {
				m.thinking = true
				m.status = "Indexing..."
				return m, m.ingestCmd(strings.TrimSpace(path))
			}
			m.thinking = true
			m.status = "Thinking..."
			m.state.AppendMessage(session.Message{Role: "user", Content: q})
			m.viewport.SetContent(m.renderHistory())
			m.viewport.GotoBottom()
			return m, m.askCmd(q)
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	case answerMsg:
		m.thinking = false
		m.status = statusHint(m.state)
		m.state.AppendMessage(session.Message{
			Role:    "assistant",
			Content: msg.response.Answer,
			Sources: msg.response.Sources,
		})
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil
	case ingestMsg:
		m.thinking = false
		var notice string
		if msg.err != nil {
			notice = fmt.Sprintf("Failed to index %s: %v", msg.filename, msg.err)
		} else {
			m.state.MarkProcessed(msg.filename)
			notice = fmt.Sprintf("Indexed %s (%d chunks).", msg.filename, msg.chunks)
		}
		m.status = statusHint(m.state)
		m.state.AppendMessage(session.Message{Role: "assistant", Content: notice})
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// askCmd runs the pipeline off the UI goroutine. The pipeline never
// returns an error; failures come back as answer text.
func (m Model) askCmd(question string) tea.Cmd {
	return func() tea.Msg {
		return answerMsg{question: question, response: m.pipeline.ProcessQuery(question)}
	}
}

// ingestCmd reads and indexes a document off the UI goroutine.
func (m Model) ingestCmd(path string) tea.Cmd {
	return func() tea.Msg {
		filename := filepath.Base(path)
		data, err := os.ReadFile(path)
		if err != nil {
			return ingestMsg{filename: filename, err: err}
		}
		n, err := m.ingester.IngestPDF(data, filename)
		return ingestMsg{filename: filename, chunks: n, err: err}
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("PDF Chat")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + chat + "\n" + input + "\n" + status
}

func (m Model) renderHistory() string {
	history := m.state.History()
	if len(history) == 0 {
		return "No messages yet. Ask a question about your documents."
	}
	var b strings.Builder
	for i, msg := range history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch msg.Role {
		case "user":
			b.WriteString(userStyle.Render("You: ") + msg.Content)
		default:
			b.WriteString(assistantStyle.Render("Assistant: ") + msg.Content)
			if len(msg.Sources) > 0 {
				b.WriteString("\n" + sourceStyle.Render("Sources: "+strings.Join(msg.Sources, ", ")))
			}
		}
	}
	return b.String()
}

func statusHint(state *session.State) string {
	docs := state.ProcessedDocuments()
	if len(docs) == 0 {
		return "Ready. Ctrl+C to quit."
	}
	return "Indexed this session: " + strings.Join(docs, ", ")
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
