// ragstub - development stand-in for the RAG backend
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/studyrag/ragchat/internal/config"
	"github.com/studyrag/ragchat/internal/domain"
	"github.com/studyrag/ragchat/internal/stub"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.LoadStub()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	server := stub.New(logger)

	// Seeded accounts so the client is usable immediately.
	if err := server.Seed("student", "student", domain.RoleStudent); err != nil {
		slog.Error("Failed to seed student account", "error", err)
		os.Exit(1)
	}
	if err := server.Seed("admin", "admin", domain.RoleAdmin); err != nil {
		slog.Error("Failed to seed admin account", "error", err)
		os.Exit(1)
	}
	server.SeedDocument("rag-primer.md",
		"Retrieval-Augmented Generation (RAG) grounds a language model's answers "+
			"in documents retrieved from a knowledge base at question time, instead "+
			"of relying on the model's parameters alone.")

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Stub backend listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
