package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mentalmatters/mentalmatters/internal/config"
	"github.com/mentalmatters/mentalmatters/internal/handler"
	"github.com/mentalmatters/mentalmatters/internal/model/question"
	"github.com/mentalmatters/mentalmatters/internal/service/chat"
	"github.com/mentalmatters/mentalmatters/internal/service/conversation"
	"github.com/mentalmatters/mentalmatters/internal/service/gateway"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	questionStore := question.NewMemoryStore(question.Seed())
	gatewayClient := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.Timeout)
	log.Printf("chatbot gateway at %s", gatewayClient.BaseURL())

	chatService := chat.NewService(gatewayClient, chat.Config{
		ReplyDelay:  cfg.Conversation.ReplyDelay,
		IdleTimeout: cfg.Conversation.IdleTimeout,
		Options:     conversation.Options{Questions: questionStore},
	})

	go sweepLoop(ctx, chatService, cfg.Conversation.IdleTimeout)

	router := handler.NewRouter(questionStore, chatService, cfg.CORS.AllowedOrigins)

	// Shutdown closes every session so open streams end.
	err = startServer(ctx, cfg.Server, router, chatService.Close)
	chatService.Close()
	if err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func sweepLoop(ctx context.Context, svc *chat.Service, idle time.Duration) {
	if idle <= 0 {
		log.Println("idle session sweeping disabled")
		return
	}

	interval := idle / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			svc.SweepIdle(now)
		}
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, onShutdown func()) error {
	srv := newServer(serverCfg.Addr, router, onShutdown)

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}

	log.Printf("Mental Matters API listening on %s", ln.Addr())
	return runServer(ctx, srv, ln)
}

func newServer(addr string, router http.Handler, onShutdown func()) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if onShutdown != nil {
		srv.RegisterOnShutdown(onShutdown)
	}
	return srv
}

func runServer(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shutdownErr := srv.Shutdown(shutdownCtx)
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		if shutdownErr != nil {
			return fmt.Errorf("shutdown: %w", shutdownErr)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
