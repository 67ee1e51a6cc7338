package stream

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	chatservice "github.com/mentalmatters/mentalmatters/internal/service/chat"
)

type nopGateway struct{}

func (nopGateway) PostUserInput(context.Context, string, string) (string, error) { return "", nil }
func (nopGateway) SubmitFeedback(context.Context, string, string) error { return nil }
func (nopGateway) SubmitRating(context.Context, string, int) error { return nil }

func newServer(t *testing.T) (*httptest.Server, *chatservice.Service) {
	t.Helper()
	chatSvc := chatservice.NewService(nopGateway{}, chatservice.Config{})
	t.Cleanup(chatSvc.Close)

	r := chi.NewRouter()
	New(chatSvc).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, chatSvc
}

// readEvent returns the next event name and its data line.
func readEvent(t *testing.T, reader *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestStreamSendsStateChanges(t *testing.T) {
	srv, chatSvc := newServer(t)
	session, _ := chatSvc.CreateSession(context.Background(), "u", "Asha")
	ctrl, _ := chatSvc.Get(session.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream/"+session.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	name, data := readEvent(t, reader)
	if name != "state" || !strings.Contains(data, `"greeting":"Hi Asha! How can I help you?"`) {
		t.Fatalf("unexpected first event %s %s", name, data)
	}

	if err := ctrl.SetInput("typing"); err != nil {
		t.Fatalf("SetInput err: %v", err)
	}
	name, data = readEvent(t, reader)
	if name != "input" || !strings.Contains(data, `"input":"typing"`) {
		t.Fatalf("unexpected event %s %s", name, data)
	}

	if err := chatSvc.CloseSession(session.ID); err != nil {
		t.Fatalf("CloseSession err: %v", err)
	}
	if name, _ = readEvent(t, reader); name != EventClosed {
		t.Fatalf("expected closed event, got %s", name)
	}
}

func TestStreamUnknownSession(t *testing.T) {
	chatSvc := chatservice.NewService(nopGateway{}, chatservice.Config{})
	defer chatSvc.Close()

	r := chi.NewRouter()
	New(chatSvc).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/stream/missing", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
