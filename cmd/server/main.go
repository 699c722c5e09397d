package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-hub/auth"
	"chat-hub/gateway"
	"chat-hub/observability"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"chat-hub/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so deferred cleanup always executes.
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
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Engine state: stats, registry, per-entity locks
	stats := observability.NewStats()
	registry := runtime.NewRegistry(log, stats)
	locks := runtime.NewEntityLocks()

	rules := auth.Rules{
		MinUsernameLength:    config.MinUsernameLength,
		MaxUsernameLength:    config.MaxUsernameLength,
		MinPasswordLength:    config.MinPasswordLength,
		MaxPasswordLength:    config.MaxPasswordLength,
		MinHandleLength:      config.MinHandleLength,
		MaxHandleLength:      config.MaxHandleLength,
		MinChannelNameLength: config.MinChannelNameLength,
		MaxChannelNameLength: config.MaxChannelNameLength,
		MaxDescriptionLength: config.MaxDescriptionLength,
	}
	issuer := auth.NewTokenIssuer(config.TokenSecret, config.AuthTokenDuration)

	// 4. Repositories & services
	userRepository := repositories.NewUserRepository(db)
	channelRepository := repositories.NewChannelRepository(db)
	messageRepository := repositories.NewMessageRepository(db, log, config.PageSize)
	membershipRepository := repositories.NewMembershipRepository(db)

	authService := services.NewAuthService(userRepository, issuer, rules, stats)
	directoryService := services.NewDirectoryService(userRepository, channelRepository)
	membershipService := services.NewMembershipService(userRepository, channelRepository, membershipRepository, registry, locks, rules, log)
	channelService := services.NewChannelService(userRepository, channelRepository, membershipRepository, registry, locks, rules, log)
	messageService := services.NewMessageService(channelRepository, messageRepository, registry, locks, stats, log)

	// 5. Context, signals & supervised workers
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := workers.NewSupervisor(log)
	sup.Add(workers.NewMonitorWorker(log, stats, config.MonitorInterval))
	go sup.Run(ctx)

	// 6. Gateway & HTTP server
	dispatcher := gateway.NewDispatcher(authService, directoryService,
		membershipService, channelService, messageService, registry, log)
	handler := gateway.NewHandler(dispatcher, registry, stats, log,
		config.AuthTimeout, config.ConnectionBufferSize)

	mux := http.NewServeMux()
	mux.Handle("/ws", handler)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting chat-hub server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
