package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/mentalmatters/mentalmatters/internal/model/chat"
	chatservice "github.com/mentalmatters/mentalmatters/internal/service/chat"
	"github.com/mentalmatters/mentalmatters/internal/service/conversation"
)

type echoGateway struct{}

func (echoGateway) PostUserInput(_ context.Context, _, text string) (string, error) {
	return "echo: " + text, nil
}

func (echoGateway) SubmitFeedback(context.Context, string, string) error { return nil }

func (echoGateway) SubmitRating(context.Context, string, int) error { return nil }

// heldGateway blocks rating submissions until released and reports the
// context state the call saw once it resumed.
type heldGateway struct {
	echoGateway
	started  chan struct{}
	release  chan struct{}
	ctxErrCh chan error
}

func (g *heldGateway) SubmitRating(ctx context.Context, _ string, _ int) error {
	close(g.started)
	<-g.release
	err := ctx.Err()
	g.ctxErrCh <- err
	return err
}

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func setup(t *testing.T) (*httptest.Server, *chatservice.Service, string) {
	t.Helper()
	return setupWithGateway(t, echoGateway{})
}

func setupWithGateway(t *testing.T, gw conversation.Gateway) (*httptest.Server, *chatservice.Service, string) {
	t.Helper()
	chatSvc := chatservice.NewService(gw, chatservice.Config{})
	t.Cleanup(chatSvc.Close)

	session, err := chatSvc.CreateSession(context.Background(), "u-1", "Asha")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	r := chi.NewRouter()
	NewWebSocketHandler(chatSvc, nil).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, chatSvc, session.ID
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(received) bool) received {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg received
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func stateOf(t *testing.T, msg received) chat.State {
	t.Helper()
	var state chat.State
	if err := json.Unmarshal(msg.Data, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return state
}

func TestWebSocketSendsInitialState(t *testing.T) {
	srv, _, id := setup(t)
	conn := dial(t, srv, id)

	msg := readUntil(t, conn, func(received) bool { return true })
	if msg.Type != string(chat.EventState) {
		t.Fatalf("expected state message, got %s", msg.Type)
	}
	if state := stateOf(t, msg); state.Greeting != "Hi Asha! How can I help you?" {
		t.Fatalf("unexpected greeting %q", state.Greeting)
	}
}

func TestWebSocketSelectThenSend(t *testing.T) {
	srv, _, id := setup(t)
	conn := dial(t, srv, id)
	readUntil(t, conn, func(m received) bool { return m.Type == string(chat.EventState) })

	if err := conn.WriteJSON(map[string]any{"type": CommandSelect, "data": map[string]string{"questionId": "sleepy"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := readUntil(t, conn, func(m received) bool { return m.Type == string(chat.EventInput) })
	if state := stateOf(t, msg); state.Input != "I'm feeling very sleepy day by day. What can I do?" {
		t.Fatalf("unexpected input %q", state.Input)
	}

	if err := conn.WriteJSON(map[string]any{"type": CommandSend}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg = readUntil(t, conn, func(m received) bool {
		return m.Type == string(chat.EventMessage) && len(stateOf(t, m).Messages) == 2
	})
	state := stateOf(t, msg)
	if state.Messages[1].Text != "echo: I'm feeling very sleepy day by day. What can I do?" {
		t.Fatalf("unexpected bot reply %q", state.Messages[1].Text)
	}
	if state.Composing {
		t.Fatal("expected composing to be cleared")
	}
}

func TestWebSocketRejectsBadCommands(t *testing.T) {
	srv, _, id := setup(t)
	conn := dial(t, srv, id)
	readUntil(t, conn, func(m received) bool { return m.Type == string(chat.EventState) })

	if err := conn.WriteJSON(map[string]any{"type": "shout"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, conn, func(m received) bool { return m.Type == TypeReject })

	if err := conn.WriteJSON(map[string]any{"type": CommandRating, "data": map[string]int{"rating": 7}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := readUntil(t, conn, func(m received) bool { return m.Type == TypeReject })
	if !strings.Contains(string(msg.Data), "rating") {
		t.Fatalf("unexpected reject payload %s", msg.Data)
	}
}

func TestWebSocketClosedWithSession(t *testing.T) {
	srv, chatSvc, id := setup(t)
	conn := dial(t, srv, id)
	readUntil(t, conn, func(m received) bool { return m.Type == string(chat.EventState) })

	if err := chatSvc.CloseSession(id); err != nil {
		t.Fatalf("CloseSession err: %v", err)
	}
	readUntil(t, conn, func(m received) bool { return m.Type == TypeClosed })
}

func TestWebSocketUnknownSession(t *testing.T) {
	srv, _, _ := setup(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/missing"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 response, got %+v", resp)
	}
}

func TestWebSocketRatingSurvivesDisconnect(t *testing.T) {
	gw := &heldGateway{
		started:  make(chan struct{}),
		release:  make(chan struct{}),
		ctxErrCh: make(chan error, 1),
	}
	srv, chatSvc, id := setupWithGateway(t, gw)
	conn := dial(t, srv, id)
	readUntil(t, conn, func(m received) bool { return m.Type == string(chat.EventState) })

	if err := conn.WriteJSON(map[string]any{"type": CommandRating, "data": map[string]int{"rating": 5}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-gw.started:
	case <-time.After(3 * time.Second):
		t.Fatal("rating never reached the gateway")
	}

	conn.Close()
	// Give the server time to notice the dropped socket and tear down.
	time.Sleep(100 * time.Millisecond)
	close(gw.release)

	select {
	case err := <-gw.ctxErrCh:
		if err != nil {
			t.Fatalf("rating call was cancelled with the connection: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("rating call never resumed")
	}

	ctrl, err := chatSvc.Get(id)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for ctrl.Snapshot().RatingStatus != chat.SubmissionConfirmed {
		if time.Now().After(deadline) {
			t.Fatalf("expected confirmed rating, got %+v", ctrl.Snapshot())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
