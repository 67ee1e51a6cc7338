package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mentalmatters/mentalmatters/internal/service/gateway"
)

// Config aggregates every setting of the API server and the terminal client.
type Config struct {
	Server       ServerConfig
	Gateway      GatewayConfig
	Conversation ConversationConfig
	CORS         CORSConfig
	Client       ClientConfig
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	gw, err := loadGatewayConfig()
	if err != nil {
		return nil, err
	}

	conversation, err := loadConversationConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:       server,
		Gateway:      gw,
		Conversation: conversation,
		CORS:         loadCORSConfig(),
		Client:       loadClientConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// GatewayConfig points at the remote chat, feedback and rating endpoints.
type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
}

func loadGatewayConfig() (GatewayConfig, error) {
	timeoutSeconds, err := parseNonNegativeIntEnv("GATEWAY_TIMEOUT", 30)
	if err != nil {
		return GatewayConfig{}, err
	}

	return GatewayConfig{
		BaseURL: strings.TrimRight(getEnvOrDefault("GATEWAY_BASE_URL", gateway.DefaultBaseURL), "/"),
		Timeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// ConversationConfig tunes the chat screen behaviour.
type ConversationConfig struct {
	ReplyDelay  time.Duration
	IdleTimeout time.Duration
}

func loadConversationConfig() (ConversationConfig, error) {
	delayMS, err := parseNonNegativeIntEnv("REPLY_DELAY_MS", 1500)
	if err != nil {
		return ConversationConfig{}, err
	}

	idleMinutes, err := parseNonNegativeIntEnv("SESSION_IDLE_MINUTES", 60)
	if err != nil {
		return ConversationConfig{}, err
	}

	return ConversationConfig{
		ReplyDelay:  time.Duration(delayMS) * time.Millisecond,
		IdleTimeout: time.Duration(idleMinutes) * time.Minute,
	}, nil
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string
}

func loadCORSConfig() CORSConfig {
	return CORSConfig{AllowedOrigins: parseListEnv("CORS_ALLOWED_ORIGINS", []string{"*"})}
}

// ClientConfig holds settings used only by the terminal client.
type ClientConfig struct {
	UserID   string
	UserName string
	LogFile  string
}

func loadClientConfig() ClientConfig {
	return ClientConfig{
		UserID:   strings.TrimSpace(os.Getenv("CHAT_USER_ID")),
		UserName: strings.TrimSpace(os.Getenv("CHAT_USER_NAME")),
		LogFile:  getEnvOrDefault("TUI_LOG_FILE", "mentalmatters.log"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseListEnv(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseNonNegativeIntEnv(key string, fallback int) (int, error) {
	value, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if value == nil {
		return fallback, nil
	}
	if *value < 0 {
		return 0, fmt.Errorf("invalid %s value %d: must not be negative", key, *value)
	}
	return *value, nil
}
