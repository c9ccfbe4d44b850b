package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/qanda-hq/qanda-bot/internal/auth"
	"github.com/qanda-hq/qanda-bot/internal/config"
	"github.com/qanda-hq/qanda-bot/internal/handlers"
	"github.com/qanda-hq/qanda-bot/internal/invoke"
	"github.com/qanda-hq/qanda-bot/internal/logging"
	"github.com/qanda-hq/qanda-bot/internal/messaging"
	"github.com/qanda-hq/qanda-bot/internal/platform"
	"github.com/qanda-hq/qanda-bot/internal/registry"
	"github.com/qanda-hq/qanda-bot/internal/repository"
	"github.com/qanda-hq/qanda-bot/internal/server"
	"github.com/qanda-hq/qanda-bot/internal/service"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:     "qanda-bot",
	Short:   "Q&A chat bot service",
	Long:    `qanda-bot receives platform invoke events, renders interactive Q&A cards and keeps them up to date as questions are answered.`,
	Version: "0.1.0",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bot HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return runMigrations(cfg.Database.Postgres.ConnString())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runMigrations(connString string) error {
	m, err := migrate.New("file://migrations", connString)
	if err != nil {
		return fmt.Errorf("initialize migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)
	ctx := context.Background()

	logger.InfoContext(ctx, "running database migrations")
	if err := runMigrations(cfg.Database.Postgres.ConnString()); err != nil {
		return err
	}

	repo, err := repository.NewPostgresRepository(ctx, cfg.Database.Postgres.ConnString())
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer repo.Close()

	// Card lifecycle registry: Redis when enabled, otherwise in-memory
	// (single instance only).
	var lifecycle registry.Registry
	if cfg.Redis.Enabled {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		opts.PoolSize = cfg.Redis.PoolSize
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer client.Close()
		lifecycle = registry.NewRedisRegistry(client, cfg.Redis.CardTTL)
	} else {
		logger.WarnContext(ctx, "using in-memory card registry, card replacement is lost on restart")
		lifecycle = registry.NewMemoryRegistry()
	}

	// Event announcements over NATS are optional.
	var events messaging.Publisher = messaging.NoopPublisher{}
	if cfg.NATS.Enabled {
		natsCfg := messaging.DefaultNATSConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Name = cfg.NATS.Name
		publisher, err := messaging.NewNATSPublisher(natsCfg)
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		defer publisher.Close()
		events = publisher
	}

	svc := service.NewService(repo, events, logger)

	connector := platform.NewClient(platform.ClientConfig{
		ServiceURL: cfg.Platform.ServiceURL,
		AppID:      cfg.Platform.AppID,
		AppSecret:  cfg.Platform.AppSecret,
	})

	modules := invoke.NewModuleRegistry(cfg.Platform.BaseURI, cfg.Platform.QAAppURI, cfg.Platform.AppID)
	router := invoke.NewRouter(modules, svc, connector, lifecycle, logger)

	var verifier *auth.Verifier
	if cfg.Platform.AppSecret != "" {
		verifier = auth.NewVerifier(cfg.Platform.AppSecret, cfg.Platform.AppID)
	} else {
		logger.WarnContext(ctx, "platform app secret unset, inbound token checks disabled")
	}

	handler := handlers.NewHandler(router, svc, connector, modules, verifier, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "bot server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		logger.InfoContext(ctx, "shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
