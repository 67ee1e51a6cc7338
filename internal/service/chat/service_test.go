package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	model "github.com/mentalmatters/mentalmatters/internal/model/chat"
	chat "github.com/mentalmatters/mentalmatters/internal/service/chat"
)

type stubGateway struct{}

func (stubGateway) PostUserInput(context.Context, string, string) (string, error) {
	return "ok", nil
}

func (stubGateway) SubmitFeedback(context.Context, string, string) error { return nil }

func (stubGateway) SubmitRating(context.Context, string, int) error { return nil }

func TestServiceGetSession(t *testing.T) {
	svc := chat.NewService(stubGateway{}, chat.Config{})
	defer svc.Close()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "user-1", "Asha")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID != session.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, session.ID)
	}
	if got.UserID != "user-1" || got.UserName != "Asha" {
		t.Fatalf("unexpected identity: %+v", got)
	}
}

func TestServiceDefaultsUserName(t *testing.T) {
	svc := chat.NewService(stubGateway{}, chat.Config{})
	defer svc.Close()

	session, err := svc.CreateSession(context.Background(), "", "  ")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	if session.UserName != model.DefaultUserName {
		t.Fatalf("expected default name, got %q", session.UserName)
	}

	ctrl, err := svc.Get(session.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if greeting := ctrl.Snapshot().Greeting; greeting != "Hi User! How can I help you?" {
		t.Fatalf("unexpected greeting %q", greeting)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chat.NewService(stubGateway{}, chat.Config{})
	defer svc.Close()
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceCloseSession(t *testing.T) {
	svc := chat.NewService(stubGateway{}, chat.Config{})
	defer svc.Close()

	session, _ := svc.CreateSession(context.Background(), "u", "n")
	if err := svc.CloseSession(session.ID); err != nil {
		t.Fatalf("CloseSession err: %v", err)
	}
	if _, err := svc.Get(session.ID); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected session to be gone, got %v", err)
	}
	if err := svc.CloseSession(session.ID); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second close, got %v", err)
	}
}

func TestServiceListOrdersByCreation(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	svc := chat.NewService(stubGateway{}, chat.Config{Now: clock})
	defer svc.Close()

	first, _ := svc.CreateSession(context.Background(), "a", "A")
	second, _ := svc.CreateSession(context.Background(), "b", "B")

	list := svc.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	if list[0].ID != first.ID || list[1].ID != second.ID {
		t.Fatalf("unexpected order: %+v", list)
	}
}

func TestServiceSweepIdle(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := chat.NewService(stubGateway{}, chat.Config{
		IdleTimeout: time.Hour,
		Now:         func() time.Time { return start },
	})
	defer svc.Close()

	session, _ := svc.CreateSession(context.Background(), "u", "n")

	if n := svc.SweepIdle(start.Add(30 * time.Minute)); n != 0 {
		t.Fatalf("expected nothing swept, got %d", n)
	}
	if n := svc.SweepIdle(start.Add(2 * time.Hour)); n != 1 {
		t.Fatalf("expected one session swept, got %d", n)
	}
	if _, err := svc.Get(session.ID); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected swept session to be gone, got %v", err)
	}
}

func TestServiceRejectsCreateAfterClose(t *testing.T) {
	svc := chat.NewService(stubGateway{}, chat.Config{})
	svc.Close()

	if _, err := svc.CreateSession(context.Background(), "u", "n"); !errors.Is(err, chat.ErrServiceClosed) {
		t.Fatalf("expected ErrServiceClosed, got %v", err)
	}
}
