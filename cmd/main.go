package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"moodmatch/auth"
	"moodmatch/internal"
	"moodmatch/moderation"
	"moodmatch/observability"
	"moodmatch/profile"
	"moodmatch/runtime"
	"moodmatch/runtime/workers"
	"moodmatch/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Moderation
	dictionary, err := moderation.LoadDictionary()
	if err != nil {
		return fmt.Errorf("dictionary loading failed: %w", err)
	}
	maskingChar, err := internal.CharacterRune(config.ModerationCharReplacement)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	moderator, err := moderation.NewModerator(dictionary.Words, maskingChar)
	if err != nil {
		return fmt.Errorf("moderator setup failed: %w", err)
	}
	log.Info("Moderation dictionary loaded",
		"words", len(dictionary.Words), "languages", dictionary.Languages)

	// 4. Core components & Supervision
	registry := runtime.NewRegistry()
	stats := observability.NewStatsManager()
	dispatcher := runtime.NewDispatcher(log, registry, moderator, stats,
		config.BufferSize, config.SinkTimeout)
	telemetry := workers.NewTelemetryWorker(log, stats, config.TelemetryInterval)

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(dispatcher, telemetry)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sup.Run(ctx)

	// 6. HTTP Server Setup
	verifier := auth.NewVerifier(config.JWTSecret)
	profiles := profile.NewStore(db, log)
	handler := transport.NewHandler(log, verifier, profiles, registry, dispatcher,
		stats, config.ConnectionBufferSize)

	mux := http.NewServeMux()
	mux.Handle("/ws", handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats.Snapshot())
	})

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	// Use an error channel to capture ListenAndServe() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
