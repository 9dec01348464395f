package main

import (
	"chat-hub/contract"
	"chat-hub/infrastructure/api"
	"chat-hub/infrastructure/ws"
	"chat-hub/internal"
	"chat-hub/moderation"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and owns their lifecycle, so deferred cleanups
// always execute before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()
	repos := repositories.NewBadgerRepositories(db, log)

	// 3. Moderation
	censor, err := prepareModeration(config, log)
	if err != nil {
		return err
	}

	// 4. Bus, registries & supervision
	bus := runtime.NewOutputBus(config.OutputBusCapacity)
	defer bus.Close()
	rooms := runtime.NewRoomRegistry(log, bus, repos, runtime.HubOptions{
		MessagePageSize:  config.MessagePageSize,
		ValidateUserName: config.UserNameValidation,
		Censor:           censor,
	}, config.CommandBufferSize)
	users := runtime.NewUserRegistry(log, bus, repos.Memberships, config.RoomsPageSize, config.CommandBufferSize)
	monitor := workers.NewQueueMonitorWorker(log, []workers.NamedChannel{
		{Name: "rooms", Channel: rooms.Queue()},
		{Name: "users", Channel: users.Queue()},
	}, bus, config.QueueMetricInterval)

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(rooms, users, monitor)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The registries outlive the signal so disconnects of closing sockets are still processed
	supDone := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(supDone)
	}()

	// 6. HTTP server: websocket feeds and read only REST
	sockets := ws.NewServer(log, ws.Config{
		MaxMessageSize: config.WSMaxMessageSize,
		PingInterval:   config.WSPingInterval,
	}, rooms, users, bus)
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	sockets.Routes(router)
	api.NewAPI(log, repos).Routes(router)
	if config.DebugInspect {
		router.Get("/debug/inspect", internal.InspectHandler(db, func() map[string]any {
			stats := map[string]any{"bus receivers": bus.ReceiverCount(), "bus capacity": bus.Capacity()}
			for _, usage := range monitor.Report() {
				stats[usage.Name+" queue"] = fmt.Sprintf("%d/%d", usage.Length, usage.Capacity)
			}
			if usage, ok := monitor.ProcessUsage(); ok {
				stats["cpu"] = fmt.Sprintf("%.1f%%", usage.CPUPercent)
				stats["ram"] = fmt.Sprintf("%.1f%%", usage.MemoryPercent)
			}
			return stats
		}, log))
		log.Warn("Debug inspection enabled", "path", "/debug/inspect")
	}

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting chat server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		sup.Stop()
		<-supDone
		return err
	}

	// 8. Final Cleanup: stop accepting, drop sockets, then let the registries finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown incomplete", "error", err)
	}
	sockets.Close()
	sup.Stop()
	<-supDone
	log.Info("Program stopped cleanly")

	return nil
}

// prepareModeration loads the censored words and builds the Aho-Corasick automaton.
// Without CENSORED_WORDS_DIR messages are left untouched.
func prepareModeration(config Config, log *slog.Logger) (contract.ICensor, error) {
	if config.CensoredWordsDir == "" {
		return nil, nil
	}
	char, err := characterRune(config.CharReplacement)
	if err != nil {
		return nil, err
	}
	dictionary, err := moderation.LoadDictionary(os.DirFS(config.CensoredWordsDir), ".")
	if err != nil {
		return nil, fmt.Errorf("censored words loading failed: %w", err)
	}
	log.Info(fmt.Sprintf("%d censored files loaded %v", len(dictionary.Languages), dictionary.Languages))
	log.Info(fmt.Sprintf("%d unique censored words loaded", len(dictionary.Words)))
	moderator, err := moderation.NewModerator(dictionary.Words, char, log)
	if err != nil {
		return nil, err
	}
	return moderator, nil
}
