package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	model "github.com/mentalmatters/mentalmatters/internal/model/login"
	loginService "github.com/mentalmatters/mentalmatters/internal/service/login"
)

// passwordRow is the line of the login view holding the password input and
// the reveal eye. Mouse presses on it hold the password visible.
const passwordRow = 6

const eyeIcon = "👁"

// loginSucceededMsg carries the accepted form to the app.
type loginSucceededMsg struct {
	form model.Form
}

type loginModel struct {
	state    *loginService.FormState
	email    textinput.Model
	password textinput.Model
	focus    model.Field
}

func newLoginModel() loginModel {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "> "
	email.Width = 32
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "> "
	password.Width = 32
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return loginModel{
		state:    loginService.NewFormState(),
		email:    email,
		password: password,
		focus:    model.FieldEmail,
	}
}

func (m loginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.MouseMsg:
		switch msg.Action {
		case tea.MouseActionPress:
			if msg.Button == tea.MouseButtonLeft && m.onEye(msg.X, msg.Y) {
				m.state.PressReveal()
			}
		case tea.MouseActionMotion:
			if !m.onEye(msg.X, msg.Y) {
				m.state.ReleaseReveal()
			}
		case tea.MouseActionRelease:
			m.state.ReleaseReveal()
		}
		m.syncEcho()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			return m, m.toggleFocus()
		case "enter":
			if _, ok := m.state.Submit(); ok {
				form := m.state.Form()
				return m, func() tea.Msg { return loginSucceededMsg{form: form} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focus == model.FieldEmail {
		m.email, cmd = m.email.Update(msg)
		if m.email.Value() != m.state.Form().Email {
			m.state.Change(model.FieldEmail, m.email.Value())
		}
	} else {
		m.password, cmd = m.password.Update(msg)
		if m.password.Value() != m.state.Form().Password {
			m.state.Change(model.FieldPassword, m.password.Value())
			m.syncEcho()
		}
	}
	return m, cmd
}

func (m *loginModel) toggleFocus() tea.Cmd {
	if m.focus == model.FieldEmail {
		m.focus = model.FieldPassword
		m.email.Blur()
		return m.password.Focus()
	}
	m.focus = model.FieldEmail
	m.password.Blur()
	return m.email.Focus()
}

// eyeColumn is the first cell of the eye on passwordRow.
func (m loginModel) eyeColumn() int {
	return lipgloss.Width(m.password.View()) + 1
}

func (m loginModel) onEye(x, y int) bool {
	if y != passwordRow || !m.state.View().ShowEye {
		return false
	}
	start := m.eyeColumn()
	return x >= start && x < start+max(lipgloss.Width(eyeIcon), 1)
}

func (m *loginModel) syncEcho() {
	if m.state.View().ShowPassword {
		m.password.EchoMode = textinput.EchoNormal
	} else {
		m.password.EchoMode = textinput.EchoPassword
	}
}

func (m loginModel) View() string {
	view := m.state.View()

	eye := ""
	if view.ShowEye {
		eye = " " + eyeIcon
	}

	lines := []string{
		titleStyle.Render("Mental Matters"),
		"",
		labelStyle.Render("Email"),
		m.email.View(),
		errorStyle.Render(view.Errors.Email),
		labelStyle.Render("Password"),
		m.password.View() + eye,
		errorStyle.Render(view.Errors.Password),
		"",
		buttonStyle.Render("Login"),
		"",
		hintStyle.Render("Don't have an account? Register Now"),
		hintStyle.Render("tab switch field • enter login • hold click on the eye to reveal • ctrl+c quit"),
	}
	return strings.Join(lines, "\n")
}
