// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/hactazia/assoconnect/internal/api"
	"github.com/hactazia/assoconnect/internal/auth"
	authpg "github.com/hactazia/assoconnect/internal/auth/postgres"
	"github.com/hactazia/assoconnect/internal/config"
	"github.com/hactazia/assoconnect/internal/logging"
	"github.com/hactazia/assoconnect/internal/mail"
	"github.com/hactazia/assoconnect/internal/meeting"
	meetingpg "github.com/hactazia/assoconnect/internal/meeting/postgres"
	"github.com/hactazia/assoconnect/internal/observability"
	"github.com/hactazia/assoconnect/internal/store"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API server together with the observability
endpoints, connected to PostgreSQL.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, autoMigrate)
		},
	}

	cmd.Flags().String("server.addr", "", "API listen address")
	cmd.Flags().String("server.metrics_addr", "", "metrics/health listen address (empty = disabled)")
	cmd.Flags().String("log.level", "", "log level (debug, info, warn, error)")
	cmd.Flags().String("log.format", "", "log format (json or text)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "run pending migrations before serving")

	return cmd
}

func runServe(cmd *cobra.Command, autoMigrate bool) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.SetDefault("assoconnect", version, cfg.Log.Format, cfg.Log.Level)
	logger := slog.Default()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if autoMigrate {
		if err := runPendingMigrations(cfg.Database.URL, logger); err != nil {
			return err
		}
	}

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to database")

	userRepo := authpg.NewUserRepository(pool)
	sessionRepo := authpg.NewSessionRepository(pool)
	invitationRepo := authpg.NewInvitationRepository(pool)
	meetingRepo := meetingpg.NewMeetingRepository(pool)

	mailerOpts := []mail.Option{}
	if cfg.Mail.Endpoint != "" {
		mailerOpts = append(mailerOpts, mail.WithEndpoint(cfg.Mail.Endpoint))
	}
	mailer, err := mail.NewMailerSend(cfg.Mail.APIKey, cfg.Mail.FromEmail, cfg.Mail.FromName, mailerOpts...)
	if err != nil {
		return err
	}

	hasher := auth.NewPBKDF2Hasher()
	authSvc, err := auth.NewAuthService(userRepo, sessionRepo, hasher)
	if err != nil {
		return err
	}
	gate, err := auth.NewGate(authSvc)
	if err != nil {
		return err
	}
	invitationSvc, err := auth.NewInvitationService(invitationRepo, mailer, cfg.Invite.URLPattern)
	if err != nil {
		return err
	}
	registrationSvc, err := auth.NewRegistrationService(userRepo, invitationSvc, authSvc, hasher)
	if err != nil {
		return err
	}
	meetingSvc, err := meeting.NewService(meetingRepo, userRepo)
	if err != nil {
		return err
	}

	// Readiness tracks the database, the one dependency the API cannot
	// answer without.
	var obsServer *observability.Server
	if cfg.Server.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.Server.MetricsAddr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer pingCancel()
			return pool.Ping(pingCtx) == nil
		})
	}

	deps := api.Deps{
		Auth:         authSvc,
		Gate:         gate,
		Invitations:  invitationSvc,
		Registration: registrationSvc,
		Users:        userRepo,
		Meetings:     meetingSvc,
		Logger:       logger,
	}
	if obsServer != nil {
		deps.Metrics = obsServer.Metrics()
	}
	apiServer, err := api.NewServer(cfg.Server.Addr, deps)
	if err != nil {
		return err
	}

	if obsServer != nil {
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return oops.Code("SERVE_FAILED").With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	apiErrCh, err := apiServer.Start()
	if err != nil {
		if obsServer != nil {
			stopObservability(obsServer, logger)
		}
		return oops.Code("SERVE_FAILED").With("operation", "start api server").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, apiErrCh, "api")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Server started on " + apiServer.Addr())
	logger.Info("server ready", "addr", apiServer.Addr())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

func runPendingMigrations(databaseURL string, logger *slog.Logger) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("error closing migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func stopObservability(obsServer *observability.Server, logger *slog.Logger) {
	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	if err := obsServer.Stop(stopCtx); err != nil {
		logger.Warn("failed to stop observability server during cleanup", "error", err)
	}
}

// monitorServerErrors cancels the run context when a server reports a fatal
// error. It exits when an error arrives, the channel closes, or the context
// ends.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully.
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
