package chat

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mentalmatters/mentalmatters/internal/model/chat"
	"github.com/mentalmatters/mentalmatters/internal/service/conversation"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrServiceClosed   = errors.New("chat service closed")
)

// Config controls how sessions are created and expired.
type Config struct {
	ReplyDelay  time.Duration
	IdleTimeout time.Duration
	Options     conversation.Options
	Now         func() time.Time
}

// Service keeps one conversation controller per chat session.
type Service struct {
	gateway conversation.Gateway
	cfg     Config

	mu       sync.RWMutex
	sessions map[string]*conversation.Controller
	closed   bool
}

// NewService bootstraps the in-memory session registry.
func NewService(gateway conversation.Gateway, cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Options.ReplyDelay = cfg.ReplyDelay
	if cfg.Options.Now == nil {
		cfg.Options.Now = cfg.Now
	}
	return &Service{
		gateway:  gateway,
		cfg:      cfg,
		sessions: make(map[string]*conversation.Controller),
	}
}

// CreateSession opens a chat screen for the given identity. An empty userID is
// allowed and is forwarded to the gateway as an anonymous user.
func (s *Service) CreateSession(_ context.Context, userID, userName string) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		UserID:    strings.TrimSpace(userID),
		UserName:  strings.TrimSpace(userName),
		CreatedAt: s.cfg.Now().UTC(),
	}
	if session.UserName == "" {
		session.UserName = chat.DefaultUserName
	}

	ctrl := conversation.NewController(session, s.gateway, s.cfg.Options)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ctrl.Close()
		return chat.Session{}, ErrServiceClosed
	}
	s.sessions[session.ID] = ctrl
	s.mu.Unlock()

	log.Printf("[chat] session created id=%s user=%q", session.ID, session.UserID)
	return session, nil
}

// Get returns the controller of a live session.
func (s *Service) Get(sessionID string) (*conversation.Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctrl, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ctrl, nil
}

// GetSession retrieves session metadata by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	ctrl, err := s.Get(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	return ctrl.Session(), nil
}

// CloseSession discards a session and stops its pending work.
func (s *Service) CloseSession(sessionID string) error {
	s.mu.Lock()
	ctrl, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	ctrl.Close()
	log.Printf("[chat] session closed id=%s", sessionID)
	return nil
}

// List returns metadata for every live session, oldest first.
func (s *Service) List() []chat.Session {
	s.mu.RLock()
	out := make([]chat.Session, 0, len(s.sessions))
	for _, ctrl := range s.sessions {
		out = append(out, ctrl.Session())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// SweepIdle closes sessions that have not changed for longer than the idle
// timeout and returns how many were removed. A zero timeout disables sweeping.
func (s *Service) SweepIdle(now time.Time) int {
	if s.cfg.IdleTimeout <= 0 {
		return 0
	}

	var expired []*conversation.Controller
	s.mu.Lock()
	for id, ctrl := range s.sessions {
		if now.Sub(ctrl.LastActive()) > s.cfg.IdleTimeout {
			expired = append(expired, ctrl)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, ctrl := range expired {
		ctrl.Close()
	}
	if len(expired) > 0 {
		log.Printf("[chat] swept %d idle sessions", len(expired))
	}
	return len(expired)
}

// Close shuts down every session. Later calls to CreateSession fail.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	sessions := s.sessions
	s.sessions = make(map[string]*conversation.Controller)
	s.mu.Unlock()

	for _, ctrl := range sessions {
		ctrl.Close()
	}
}
