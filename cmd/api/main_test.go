package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestRunServerEndsStreamsOnShutdown(t *testing.T) {
	release := make(chan struct{})
	streaming := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		close(streaming)
		<-release
	})

	srv := newServer("127.0.0.1:0", handler, func() { close(release) })
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	<-streaming

	start := time.Now()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runServer err: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown waited on the open stream")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("shutdown took %s", elapsed)
	}
}

func TestRunServerReportsServeError(t *testing.T) {
	srv := newServer("127.0.0.1:0", http.NotFoundHandler(), nil)
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ln.Close()

	if err := runServer(context.Background(), srv, ln); err == nil {
		t.Fatal("expected an error from a closed listener")
	}
}
