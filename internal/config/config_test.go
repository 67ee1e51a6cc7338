package config

import (
	"strings"
	"testing"
	"time"

	"github.com/mentalmatters/mentalmatters/internal/service/gateway"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "GATEWAY_BASE_URL", "GATEWAY_TIMEOUT", "REPLY_DELAY_MS",
		"SESSION_IDLE_MINUTES", "CORS_ALLOWED_ORIGINS", "CHAT_USER_ID",
		"CHAT_USER_NAME", "TUI_LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.Gateway.BaseURL != gateway.DefaultBaseURL || cfg.Gateway.Timeout != 30*time.Second {
		t.Fatalf("unexpected gateway config %+v", cfg.Gateway)
	}
	if cfg.Conversation.ReplyDelay != 1500*time.Millisecond || cfg.Conversation.IdleTimeout != time.Hour {
		t.Fatalf("unexpected conversation config %+v", cfg.Conversation)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected origins %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Client.LogFile != "mentalmatters.log" {
		t.Fatalf("unexpected log file %q", cfg.Client.LogFile)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("GATEWAY_BASE_URL", "http://localhost:5000/")
	t.Setenv("GATEWAY_TIMEOUT", "0")
	t.Setenv("REPLY_DELAY_MS", "0")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("CHAT_USER_ID", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.Gateway.BaseURL != "http://localhost:5000" || cfg.Gateway.Timeout != 0 {
		t.Fatalf("unexpected gateway config %+v", cfg.Gateway)
	}
	if cfg.Conversation.ReplyDelay != 0 {
		t.Fatalf("expected zero delay, got %v", cfg.Conversation.ReplyDelay)
	}
	if got := cfg.CORS.AllowedOrigins; len(got) != 2 || got[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", got)
	}
	if cfg.Client.UserID != "42" {
		t.Fatalf("unexpected user id %q", cfg.Client.UserID)
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	cases := map[string]string{
		"PORT":                 "80 80",
		"GATEWAY_TIMEOUT":      "soon",
		"REPLY_DELAY_MS":       "1.5",
		"SESSION_IDLE_MINUTES": "forever",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestLoadRejectsNegativeDurations(t *testing.T) {
	for _, key := range []string{"GATEWAY_TIMEOUT", "REPLY_DELAY_MS", "SESSION_IDLE_MINUTES"} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, "-1")
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), key) {
				t.Fatalf("expected an error naming %s, got %v", key, err)
			}
		})
	}
}
