package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/example/family-scheduler/internal/application"
	"github.com/example/family-scheduler/internal/config"
	"github.com/example/family-scheduler/internal/digest"
	"github.com/example/family-scheduler/internal/logging"
	"github.com/example/family-scheduler/internal/notify"
	"github.com/example/family-scheduler/internal/persistence/sqlite"
	"github.com/example/family-scheduler/internal/tools"
)

func newServeCmd() *cobra.Command {
	var (
		transport string
		listen    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP scheduling tool server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if transport != "" {
				cfg.MCPTransport = transport
			}
			if listen != "" {
				cfg.MCPListenAddr = listen
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "MCP transport: stdio or http (overrides FAMCAL_MCP_TRANSPORT)")
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides FAMCAL_MCP_LISTEN_ADDR)")
	return cmd
}

func runServe(cfg config.Config) error {
	// With the stdio transport stdout belongs to the protocol.
	logger := logging.New(os.Stderr, slog.LevelInfo)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("resolve timezone: %w", err)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN, loc)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	userService := application.NewUserService(storage.Users, nil)
	if cfg.SeedUsersPath != "" {
		if err := seedUsersIfEmpty(ctx, cfg.SeedUsersPath, userService, logger); err != nil {
			return err
		}
	}

	sender := logSender{logger: logger}
	dispatcher := notify.NewDispatcher(sender, storage.Users, storage.Events, logger)
	calendar := application.NewCalendarService(storage.Events, storage.Users, dispatcher, loc, nil, logger)

	digests := digest.New(calendar, userService, sender, loc, logger)
	if err := digests.Start(ctx); err != nil {
		return err
	}
	defer digests.Stop()

	if cfg.MetricsAddr != "" {
		startMetricsListener(ctx, cfg.MetricsAddr, logger)
	}

	mcpSrv := mcpserver.NewMCPServer("famcal", version,
		mcpserver.WithToolCapabilities(true),
	)
	tools.RegisterCalendarTools(mcpSrv, calendar)

	switch cfg.MCPTransport {
	case "stdio":
		logger.Info("serving MCP over stdio")
		return mcpserver.ServeStdio(mcpSrv)
	case "http":
		httpSrv := mcpserver.NewStreamableHTTPServer(mcpSrv)
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown MCP server", "error", err)
			}
		}()
		logger.Info("serving MCP over HTTP", "addr", cfg.MCPListenAddr)
		if err := httpSrv.Start(cfg.MCPListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unsupported transport: %s (supported: stdio, http)", cfg.MCPTransport)
	}
}

func seedUsersIfEmpty(ctx context.Context, path string, users *application.UserService, logger *slog.Logger) error {
	count, err := users.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	seeds, err := config.LoadSeedUsers(path)
	if err != nil {
		return err
	}

	for _, seed := range seeds {
		input := application.UserInput{
			ActorID:        seed.ActorID,
			Name:           seed.Name,
			PartnerActorID: seed.PartnerActorID,
			DigestTime:     seed.DigestTime,
		}
		if _, err := users.RegisterUser(ctx, input); err != nil {
			return fmt.Errorf("seed user %d: %w", seed.ActorID, err)
		}
		logger.Info("seeded user", "actor_id", seed.ActorID, "name", seed.Name)
	}
	return nil
}

func startMetricsListener(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics listener", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener stopped", "error", err)
		}
	}()
}

// logSender writes partner notifications and digests to the log. Production
// deployments swap in a chat-transport sender at wiring time.
type logSender struct {
	logger *slog.Logger
}

func (s logSender) Send(ctx context.Context, recipientActorID int64, text string) error {
	s.logger.Info("outgoing message", "recipient", recipientActorID, "text", text)
	return nil
}
