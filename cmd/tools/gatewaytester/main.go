package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mentalmatters/mentalmatters/internal/config"
	"github.com/mentalmatters/mentalmatters/internal/service/gateway"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] could not load .env, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	mode := flag.String("mode", "", "endpoint to probe: chat, feedback or rating")
	text := flag.String("text", "", "chat input or feedback text")
	rating := flag.Int("rating", 0, "rating value 1-5")
	user := flag.String("user", "", "user id, defaults to CHAT_USER_ID")
	baseURL := flag.String("base", "", "gateway base URL, defaults to GATEWAY_BASE_URL")
	timeout := flag.Duration("timeout", 45*time.Second, "request timeout")

	flag.Parse()

	if *baseURL == "" {
		*baseURL = cfg.Gateway.BaseURL
	}
	if *user == "" {
		*user = cfg.Client.UserID
	}

	client := gateway.NewClient(*baseURL, cfg.Gateway.Timeout)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "chat":
		runChat(ctx, client, *user, *text)
	case "feedback":
		runFeedback(ctx, client, *user, *text)
	case "rating":
		runRating(ctx, client, *user, *rating)
	default:
		flag.Usage()
		log.Fatal("choose a probe with -mode=chat, -mode=feedback or -mode=rating")
	}
}

func runChat(ctx context.Context, client *gateway.Client, user, text string) {
	if text == "" {
		log.Fatal("chat mode needs -text")
	}

	log.Printf("posting user input: base=%s user=%q", client.BaseURL(), user)
	started := time.Now()
	reply, err := client.PostUserInput(ctx, user, text)
	if err != nil {
		log.Fatalf("chat request failed: %v", err)
	}
	log.Printf("chat reply after %s", time.Since(started).Round(time.Millisecond))
	fmt.Println(reply)
}

func runFeedback(ctx context.Context, client *gateway.Client, user, text string) {
	if strings.TrimSpace(text) == "" {
		log.Fatal("feedback mode needs a non-blank -text")
	}

	if err := client.SubmitFeedback(ctx, user, text); err != nil {
		log.Fatalf("feedback request failed: %v", err)
	}
	log.Printf("feedback accepted: base=%s user=%q", client.BaseURL(), user)
}

func runRating(ctx context.Context, client *gateway.Client, user string, rating int) {
	if rating < 1 || rating > 5 {
		log.Fatal("rating mode needs -rating between 1 and 5")
	}

	if err := client.SubmitRating(ctx, user, rating); err != nil {
		log.Fatalf("rating request failed: %v", err)
	}
	log.Printf("rating %d accepted: base=%s user=%q", rating, client.BaseURL(), user)
}
