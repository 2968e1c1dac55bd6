package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"handbookbot/internal/chat"
	"handbookbot/internal/client"
	"handbookbot/internal/domain"
)

// Asker is the TUI-facing subset of the query API client.
type Asker interface {
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}

// answerMsg carries the outcome of one question back into Update.
type answerMsg struct {
	question string
	answer   *domain.Answer
	err      error
}

// Model is the Bubble Tea model for the chat UI.
type Model struct {
	asker    Asker
	ctx      context.Context
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	state    chat.State
	ready    bool

	// selected indexes state.Messages; -1 when nothing is selected.
	selected  int
	expanded  map[string]bool
	// questions maps an assistant message ID to the question it answers.
	questions map[string]string

	now   func() time.Time
	newID func() string
}

// New creates a chat model that sends questions through asker.
func New(ctx context.Context, asker Asker) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about company policies, benefits, procedures..."
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		asker:     asker,
		ctx:       ctx,
		input:     ti,
		viewport:  viewport.New(0, 0),
		spinner:   sp,
		state:     chat.Initial(time.Now()),
		selected:  -1,
		expanded:  map[string]bool{},
		questions: map[string]string{},
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and reply events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // title + subtitle
		totalFooterLines := 1                                    // help
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 for the typing line
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.input.Width = max(10, msg.Width-6)
		m.refresh(true)
		return m, nil

	case answerMsg:
		m.state = chat.Reduce(m.state, m.replyEvent(msg))
		m.questions[m.state.Messages[len(m.state.Messages)-1].ID] = msg.question
		m.refresh(true)
		return m, nil

	case spinner.TickMsg:
		if !m.state.Typing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			if m.state.ShowSamples() {
				if sample, ok := sampleByNumber(q); ok {
					q = sample
				}
			}
			m.input.Reset()
			return m.send(q)
		case tea.KeyTab:
			m.selectNextWithSources()
			m.refresh(false)
			return m, nil
		case tea.KeyCtrlS:
			if m.selected >= 0 {
				id := m.state.Messages[m.selected].ID
				m.expanded[id] = !m.expanded[id]
				m.refresh(false)
			}
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send appends the question and starts the request without blocking input.
func (m Model) send(question string) (tea.Model, tea.Cmd) {
	m.state = chat.Reduce(m.state, chat.UserSent{ID: m.newID(), At: m.now(), Content: question})
	m.refresh(true)
	return m, tea.Batch(m.spinner.Tick, m.ask(question))
}

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		ans, err := m.asker.Ask(m.ctx, question)
		return answerMsg{question: question, answer: ans, err: err}
	}
}

func (m Model) replyEvent(msg answerMsg) chat.Event {
	id, at := m.newID(), m.now()
	var respErr *client.ResponseError
	switch {
	case msg.err == nil && msg.answer != nil:
		return chat.AnswerReceived{ID: id, At: at, Answer: *msg.answer}
	case errors.As(msg.err, &respErr):
		return chat.ErrorResponse{ID: id, At: at, Error: respErr.Error()}
	default:
		return chat.NetworkFailed{ID: id, At: at}
	}
}

func (m *Model) selectNextWithSources() {
	n := len(m.state.Messages)
	for step := 1; step <= n; step++ {
		i := (m.selected + step + n) % n
		if msg := m.state.Messages[i]; msg.Role == chat.RoleAssistant && msg.HasSources() {
			m.selected = i
			return
		}
	}
	m.selected = -1
}

func (m *Model) refresh(toBottom bool) {
	m.viewport.SetContent(m.renderMessages())
	if toBottom {
		m.viewport.GotoBottom()
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Employee Handbook Bot")
	subtitle := dimStyle.Render("Ask questions about the employee handbook")
	typing := ""
	if m.state.Typing {
		typing = m.spinner.View() + " " + dimStyle.Render("Searching handbook...")
	}
	messages := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	help := dimStyle.Render("enter send • tab select answer • ctrl+s toggle sources • pgup/pgdn scroll • ctrl+c quit")
	return header + "\n" + subtitle + "\n" + messages + "\n" + typing + "\n" + input + "\n" + help
}

func sampleByNumber(s string) (string, bool) {
	if len(s) != 1 || s[0] < '1' || int(s[0]-'0') > len(chat.SampleQuestions) {
		return "", false
	}
	return chat.SampleQuestions[s[0]-'1'], true
}
