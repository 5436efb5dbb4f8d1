// ragchat - terminal client for the RAG tutoring backend
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/studyrag/ragchat/internal/backend"
	"github.com/studyrag/ragchat/internal/chat"
	"github.com/studyrag/ragchat/internal/config"
	"github.com/studyrag/ragchat/internal/gateway"
	"github.com/studyrag/ragchat/internal/session"
	"github.com/studyrag/ragchat/internal/tui"
	"github.com/studyrag/ragchat/internal/upload"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ragchat:", err)
		os.Exit(1)
	}
}

func run() error {
	// No .env file is fine; plain environment variables still apply.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// The terminal belongs to the TUI, so logs go to a file.
	logger, logFile, err := fileLogger(cfg.LogPath)
	if err != nil {
		return err
	}
	defer logFile.Close()
	slog.SetDefault(logger)

	logger.Info("starting ragchat", "backend", cfg.BackendURL)

	store, err := session.NewSQLite(cfg.SessionDBPath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("failed to close session store", "error", closeErr)
		}
	}()

	gw := gateway.New(cfg.BackendURL, store, cfg.HTTPTimeout, logger)
	api := backend.New(gw, logger)
	chatOrch := chat.New(api, logger)
	uploadOrch := upload.New(api, logger)

	model := tui.New(store, api, chatOrch, uploadOrch, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())

	// A 401 anywhere funnels back into the update loop, which re-evaluates
	// the view gate and lands on the login screen.
	gw.OnSessionExpired(func() {
		program.Send(tui.SessionExpiredMsg{})
	})

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	logger.Info("ragchat stopped")
	return nil
}

func fileLogger(path string) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return logger, f, nil
}
