package tui

import (
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/mentalmatters/mentalmatters/internal/model/chat"
	"github.com/mentalmatters/mentalmatters/internal/model/question"
	"github.com/mentalmatters/mentalmatters/internal/service/conversation"
)

type screen int

const (
	screenLogin screen = iota
	screenChat
)

// Config wires the terminal client to its backend.
type Config struct {
	Gateway    conversation.Gateway
	Questions  question.Store
	ReplyDelay time.Duration
	// UserID and UserName override the identity derived from the login email.
	UserID   string
	UserName string
}

// App is the root Bubble Tea model: the login screen, then the chat screen.
type App struct {
	cfg    Config
	screen screen
	login  loginModel
	chat   chatModel
	ctrl   *conversation.Controller
	width  int
	height int
}

// New returns the app positioned on the login screen.
func New(cfg Config) App {
	if cfg.Questions == nil {
		cfg.Questions = question.NewMemoryStore(question.Seed())
	}
	return App{
		cfg:    cfg,
		screen: screenLogin,
		login:  newLoginModel(),
	}
}

func (a App) Init() tea.Cmd {
	return a.login.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	case loginSucceededMsg:
		return a.openChat(msg.form.Email)
	}

	var cmd tea.Cmd
	switch a.screen {
	case screenChat:
		a.chat, cmd = a.chat.Update(msg)
	default:
		a.login, cmd = a.login.Update(msg)
	}
	return a, cmd
}

func (a App) openChat(email string) (tea.Model, tea.Cmd) {
	userID, userName := resolveIdentity(a.cfg.UserID, a.cfg.UserName, email)
	session := chat.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		UserName:  userName,
		CreatedAt: time.Now().UTC(),
	}
	log.Printf("[tui] login accepted, session=%s user=%q", session.ID, userID)

	a.ctrl = conversation.NewController(session, a.cfg.Gateway, conversation.Options{
		ReplyDelay: a.cfg.ReplyDelay,
		Questions:  a.cfg.Questions,
	})
	a.chat = newChatModel(a.ctrl, a.cfg.Questions.List())
	if a.width > 0 {
		a.chat.resize(a.width, a.height)
	}
	a.screen = screenChat
	return a, a.chat.Init()
}

func (a App) View() string {
	if a.screen == screenChat {
		return a.chat.View()
	}
	return a.login.View()
}

// Close releases the chat session, if one was opened.
func (a App) Close() {
	if a.ctrl != nil {
		a.ctrl.Close()
	}
}

// resolveIdentity prefers configured values and falls back to the login email.
func resolveIdentity(userID, userName, email string) (string, string) {
	email = strings.TrimSpace(email)
	if userID == "" {
		userID = email
	}
	if userName == "" {
		userName, _, _ = strings.Cut(email, "@")
	}
	if userName == "" {
		userName = chat.DefaultUserName
	}
	return userID, userName
}
