package main

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/mentalmatters/mentalmatters/internal/config"
	"github.com/mentalmatters/mentalmatters/internal/model/question"
	"github.com/mentalmatters/mentalmatters/internal/service/gateway"
	"github.com/mentalmatters/mentalmatters/internal/tui"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logFile, err := tea.LogToFile(cfg.Client.LogFile, "mentalmatters")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	if envErr != nil {
		log.Printf("warning: failed to load .env file: %v", envErr)
	}

	client := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.Timeout)
	log.Printf("[tui] chatbot gateway at %s", client.BaseURL())

	app := tui.New(tui.Config{
		Gateway:    client,
		Questions:  question.NewMemoryStore(question.Seed()),
		ReplyDelay: cfg.Conversation.ReplyDelay,
		UserID:     cfg.Client.UserID,
		UserName:   cfg.Client.UserName,
	})

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if closer, ok := final.(tui.App); ok {
		closer.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
