package live

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/mentalmatters/mentalmatters/internal/model/chat"
	chatservice "github.com/mentalmatters/mentalmatters/internal/service/chat"
	"github.com/mentalmatters/mentalmatters/internal/service/conversation"
)

// Inbound command types.
const (
	CommandInput    = "input"
	CommandSend     = "send"
	CommandSelect   = "select"
	CommandModal    = "modal"
	CommandFeedback = "feedback"
	CommandRating   = "rating"
	CommandDismiss  = "dismiss"
)

// Outbound types besides the event kinds.
const (
	TypeReject = "reject"
	TypeClosed = "closed"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second

	// submitTimeout bounds feedback and rating calls, which outlive the connection.
	submitTimeout = 30 * time.Second
)

// WebSocketHandler mirrors a session's events onto a WebSocket and accepts
// commands from the browser on the same connection.
type WebSocketHandler struct {
	chatSvc  *chatservice.Service
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates the handler. allowOrigin decides which browser
// origins may connect; nil allows all of them.
func NewWebSocketHandler(chatSvc *chatservice.Service, allowOrigin func(origin string) bool) *WebSocketHandler {
	return &WebSocketHandler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowOrigin == nil {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || allowOrigin(origin)
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the WebSocket route.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

type commandData struct {
	Text       string `json:"text"`
	QuestionID string `json:"questionId"`
	Modal      string `json:"modal"`
	Feedback   string `json:"feedback"`
	Rating     int    `json:"rating"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// connWriter serializes writes; gorilla allows one concurrent writer.
type connWriter struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	sessionID string
}

func (w *connWriter) send(msgType string, data interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteJSON(outgoingMessage{
		Type:      msgType,
		SessionID: w.sessionID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (w *connWriter) reject(message string) {
	if err := w.send(TypeReject, map[string]string{"error": message}); err != nil {
		log.Printf("[websocket] send reject failed session=%s: %v", w.sessionID, err)
	}
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	ctrl, err := h.chatSvc.Get(sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] connected session=%s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	writer := &connWriter{conn: conn, sessionID: sessionID}
	events, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	go h.pingLoop(ctx, conn)
	go h.forwardEvents(ctx, cancel, writer, events)

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && ctx.Err() == nil {
				log.Printf("[websocket] read error session=%s: %v", sessionID, err)
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			writer.reject("session mismatch")
			continue
		}

		h.handleCommand(ctx, writer, ctrl, &msg)
	}
}

func (h *WebSocketHandler) forwardEvents(ctx context.Context, cancel context.CancelFunc, writer *connWriter, events <-chan chat.Event) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				_ = writer.send(TypeClosed, nil)
				writer.mu.Lock()
				writer.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(writeTimeout))
				writer.mu.Unlock()
				writer.conn.Close()
				return
			}
			if err := writer.send(string(event.Kind), event.State); err != nil {
				log.Printf("[websocket] write error session=%s: %v", writer.sessionID, err)
				writer.conn.Close()
				return
			}
		}
	}
}

func (h *WebSocketHandler) handleCommand(ctx context.Context, writer *connWriter, ctrl *conversation.Controller, msg *inboundMessage) {
	var data commandData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			writer.reject("invalid data payload")
			return
		}
	}

	var err error
	switch msg.Type {
	case CommandInput:
		err = ctrl.SetInput(data.Text)
	case CommandSend:
		if data.Text == "" {
			err = ctrl.Send()
		} else {
			err = ctrl.SendMessage(data.Text)
		}
	case CommandSelect:
		err = ctrl.SelectQuestion(data.QuestionID)
	case CommandModal:
		var modal chat.Modal
		if modal, err = chat.ParseModal(data.Modal); err == nil {
			err = ctrl.OpenModal(modal)
		}
	case CommandFeedback:
		// Submissions wait on the gateway; keep reading commands meanwhile.
		go h.runSubmission(ctx, writer, func(ctx context.Context) error { return ctrl.SubmitFeedback(ctx, data.Feedback) })
	case CommandRating:
		go h.runSubmission(ctx, writer, func(ctx context.Context) error { return ctrl.SubmitRating(ctx, data.Rating) })
	case CommandDismiss:
		if err = ctrl.DismissNotice(); err == nil {
			err = ctrl.DismissError()
		}
	default:
		writer.reject("unknown message type: " + msg.Type)
		return
	}

	if err != nil {
		writer.reject(err.Error())
	}
}

// runSubmission reports only local rejections; gateway failures already reach
// the client through the error event. The call outlives the connection.
func (h *WebSocketHandler) runSubmission(ctx context.Context, writer *connWriter, submit func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), submitTimeout)
	defer cancel()

	err := submit(ctx)
	if err == nil {
		return
	}
	if errors.Is(err, conversation.ErrEmptyFeedback) ||
		errors.Is(err, conversation.ErrInvalidRating) ||
		errors.Is(err, conversation.ErrClosed) {
		writer.reject(err.Error())
	}
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
