package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/mentalmatters/mentalmatters/internal/model/chat"
	"github.com/mentalmatters/mentalmatters/internal/model/question"
	"github.com/mentalmatters/mentalmatters/internal/service/conversation"
)

const questionsPaneWidth = 34

type chatFocus int

const (
	focusInput chatFocus = iota
	focusQuestions
)

type (
	eventMsg          struct{ event chat.Event }
	sessionClosedMsg  struct{}
	feedbackResultMsg struct{ err error }
	ratingResultMsg   struct{ err error }
)

type chatModel struct {
	ctrl      *conversation.Controller
	events    <-chan chat.Event
	questions []question.Question

	state    chat.State
	input    textinput.Model
	feedback textarea.Model
	spin     spinner.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer

	focus          chatFocus
	questionCursor int
	ratingCursor   int
	width          int
	height         int
}

func newChatModel(ctrl *conversation.Controller, questions []question.Question) chatModel {
	events, _ := ctrl.Subscribe()

	in := textinput.New()
	in.Placeholder = "Type your message..."
	in.Prompt = "You> "
	in.CharLimit = 0
	in.Width = 60
	in.Focus()

	ta := textarea.New()
	ta.Placeholder = "Tell us what you think..."
	ta.ShowLineNumbers = false
	ta.SetWidth(50)
	ta.SetHeight(4)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorBot)

	m := chatModel{
		ctrl:         ctrl,
		events:       events,
		questions:    questions,
		state:        ctrl.Snapshot(),
		input:        in,
		feedback:     ta,
		spin:         s,
		viewport:     viewport.New(60, 16),
		ratingCursor: chat.MaxRating,
	}
	m.refreshTranscript()
	return m
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(listen(m.events), m.spin.Tick, textinput.Blink)
}

// listen waits for the next controller event.
func listen(events <-chan chat.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return sessionClosedMsg{}
		}
		return eventMsg{event: event}
	}
}

func (m chatModel) Update(msg tea.Msg) (chatModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case eventMsg:
		m.state = msg.event.State
		m.refreshTranscript()
		return m, listen(m.events)

	case sessionClosedMsg:
		return m, nil

	case feedbackResultMsg:
		if msg.err == nil {
			m.feedback.Reset()
			m.feedback.Blur()
			m.input.Focus()
		}
		m.sync()
		return m, nil

	case ratingResultMsg:
		m.sync()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.state.Modal {
		case chat.ModalFeedback:
			return m.updateFeedbackModal(msg)
		case chat.ModalRating:
			return m.updateRatingModal(msg)
		}
		return m.updateKeys(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m chatModel) updateKeys(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		if m.focus == focusInput {
			m.focus = focusQuestions
			m.input.Blur()
			return m, nil
		}
		m.focus = focusInput
		return m, m.input.Focus()

	case "ctrl+f":
		_ = m.ctrl.OpenModal(chat.ModalFeedback)
		m.sync()
		m.input.Blur()
		m.feedback.SetValue(m.state.Feedback)
		return m, m.feedback.Focus()

	case "ctrl+r":
		_ = m.ctrl.OpenModal(chat.ModalRating)
		m.sync()
		if chat.ValidRating(m.state.Rating) {
			m.ratingCursor = m.state.Rating
		}
		return m, nil

	case "esc":
		_ = m.ctrl.DismissNotice()
		_ = m.ctrl.DismissError()
		m.sync()
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.focus == focusQuestions {
		switch msg.String() {
		case "up", "k":
			if m.questionCursor > 0 {
				m.questionCursor--
			}
		case "down", "j":
			if m.questionCursor < len(m.questions)-1 {
				m.questionCursor++
			}
		case "enter":
			if len(m.questions) == 0 {
				return m, nil
			}
			if err := m.ctrl.SelectQuestion(m.questions[m.questionCursor].ID); err != nil {
				return m, nil
			}
			m.sync()
			m.input.SetValue(m.state.Input)
			m.input.CursorEnd()
			m.focus = focusInput
			return m, m.input.Focus()
		}
		return m, nil
	}

	if msg.String() == "enter" {
		if err := m.ctrl.Send(); err != nil && !errors.Is(err, conversation.ErrEmptyMessage) {
			return m, nil
		}
		m.input.SetValue("")
		m.sync()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.state.Input {
		_ = m.ctrl.SetInput(m.input.Value())
		m.sync()
	}
	return m, cmd
}

func (m chatModel) updateFeedbackModal(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		_ = m.ctrl.SetFeedback(m.feedback.Value())
		_ = m.ctrl.CloseModal()
		m.sync()
		m.feedback.Blur()
		return m, m.input.Focus()

	case "ctrl+s":
		text := m.feedback.Value()
		ctrl := m.ctrl
		return m, func() tea.Msg {
			return feedbackResultMsg{err: ctrl.SubmitFeedback(context.Background(), text)}
		}
	}

	var cmd tea.Cmd
	m.feedback, cmd = m.feedback.Update(msg)
	if m.feedback.Value() != m.state.Feedback {
		_ = m.ctrl.SetFeedback(m.feedback.Value())
		m.sync()
	}
	return m, cmd
}

func (m chatModel) updateRatingModal(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	switch key := msg.String(); key {
	case "esc":
		_ = m.ctrl.CloseModal()
		m.sync()
		return m, nil
	case "left", "h":
		if m.ratingCursor > chat.MinRating {
			m.ratingCursor--
		}
		return m, nil
	case "right", "l":
		if m.ratingCursor < chat.MaxRating {
			m.ratingCursor++
		}
		return m, nil
	case "enter":
		return m, m.submitRating(m.ratingCursor)
	case "1", "2", "3", "4", "5":
		value, _ := strconv.Atoi(key)
		m.ratingCursor = value
		return m, m.submitRating(value)
	}
	return m, nil
}

// submitRating runs the submission off the update loop. The controller closes
// the modal before the gateway call, so the next event already hides it.
func (m chatModel) submitRating(value int) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return ratingResultMsg{err: ctrl.SubmitRating(context.Background(), value)}
	}
}

func (m *chatModel) sync() {
	m.state = m.ctrl.Snapshot()
	m.refreshTranscript()
}

func (m *chatModel) resize(width, height int) {
	m.width = width
	m.height = height

	vpWidth := max(width-questionsPaneWidth-6, 20)
	vpHeight := max(height-12, 5)
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
	m.input.Width = max(vpWidth-6, 10)
	m.feedback.SetWidth(min(vpWidth, 60))

	m.renderer, _ = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(vpWidth-4),
	)
	m.refreshTranscript()
}

func (m *chatModel) refreshTranscript() {
	var b strings.Builder
	b.WriteString(botLabelStyle.Render("Bot:") + " " + m.state.Greeting + "\n\n")
	for _, message := range m.state.Messages {
		if message.Sender == chat.SenderUser {
			b.WriteString(userLabelStyle.Render("You:") + " " + message.Text + "\n\n")
			continue
		}
		b.WriteString(botLabelStyle.Render("Bot:") + " " + m.renderBotText(message.Text) + "\n\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *chatModel) renderBotText(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}

func (m chatModel) View() string {
	header := titleStyle.Render("Mental Matters") + hintStyle.Render("  signed in as "+m.state.Session.UserName)

	conversationPane := paneStyle
	questionPane := paneStyle
	if m.focus == focusQuestions {
		questionPane = focusedPaneStyle
	} else {
		conversationPane = focusedPaneStyle
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		questionPane.Width(questionsPaneWidth).Render(m.questionsView()),
		conversationPane.Render(m.viewport.View()),
	)

	var b strings.Builder
	b.WriteString(header + "\n")
	b.WriteString(body + "\n")

	if m.state.Composing {
		b.WriteString(m.spin.View() + " Bot is typing...\n")
	} else {
		b.WriteString("\n")
	}

	switch m.state.Modal {
	case chat.ModalFeedback:
		b.WriteString(m.feedbackView() + "\n")
	case chat.ModalRating:
		b.WriteString(m.ratingView() + "\n")
	default:
		b.WriteString(m.input.View() + "\n")
	}

	b.WriteString(m.statusView() + "\n")
	b.WriteString(hintStyle.Render("enter send • tab questions • ctrl+f feedback • ctrl+r rate • esc dismiss • ctrl+c quit"))
	return b.String()
}

func (m chatModel) questionsView() string {
	lines := []string{labelStyle.Render("Frequent Questions"), ""}
	for i, q := range m.questions {
		line := "  " + q.Text
		if i == m.questionCursor && m.focus == focusQuestions {
			line = selectedQuestionStyle.Render("› " + q.Text)
		}
		lines = append(lines, lipgloss.NewStyle().Width(questionsPaneWidth-2).Render(line), "")
	}
	return strings.Join(lines, "\n")
}

func (m chatModel) feedbackView() string {
	content := labelStyle.Render("Feedback") + "\n\n" +
		m.feedback.View() + "\n\n" +
		hintStyle.Render("ctrl+s submit • esc cancel")
	if m.state.FeedbackStatus == chat.SubmissionPending {
		content += "\n" + m.spin.View() + " sending..."
	}
	return modalStyle.Render(content)
}

func (m chatModel) ratingView() string {
	var stars strings.Builder
	for v := chat.MinRating; v <= chat.MaxRating; v++ {
		if v <= m.ratingCursor {
			stars.WriteString(starOnStyle.Render("★ "))
		} else {
			stars.WriteString(starOffStyle.Render("☆ "))
		}
	}
	content := labelStyle.Render("Rate this conversation") + "\n\n" +
		stars.String() + fmt.Sprintf(" %d/%d", m.ratingCursor, chat.MaxRating) + "\n\n" +
		hintStyle.Render("1-5 or ←/→ + enter • esc cancel")
	return modalStyle.Render(content)
}

func (m chatModel) statusView() string {
	switch {
	case m.state.LastError != "":
		return errorStyle.Render(m.state.LastError)
	case m.state.Notice != "":
		return noticeStyle.Render(m.state.Notice)
	}
	return ""
}
