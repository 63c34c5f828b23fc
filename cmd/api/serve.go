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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/fooddash/api/internal/app"
	"github.com/fooddash/api/internal/clock"
	"github.com/fooddash/api/internal/config"
	"github.com/fooddash/api/internal/logging"
	"github.com/fooddash/api/internal/notify"
	"github.com/fooddash/api/internal/otp"
	"github.com/fooddash/api/internal/storage/postgres"
	transporthttp "github.com/fooddash/api/internal/transport/http"
	"github.com/fooddash/api/migrations"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	ctx := context.Background()
	logger := logging.NewDefault()
	cfg := config.Load(ctx, logger)

	startupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to db: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	senderCtx, stopSender := context.WithCancel(ctx)
	defer stopSender()

	dispatcher := newDispatcher(cfg, logger)
	sender := otp.NewAsyncSender(dispatcher, logger)
	go sender.Run(senderCtx)

	codes := otp.NewStore(clock.NewSystem(), otp.WithTTL(cfg.OTPTTL))
	hub := notify.NewHub(logger)

	userRepo := postgres.NewUserRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)

	authSvc := app.NewAuthService(userRepo, codes, sender, logger)
	orderSvc := app.NewOrderService(orderRepo, hub, clock.NewSystem())

	handler := transporthttp.NewRouter(transporthttp.RouterConfig{
		Auth:        authSvc,
		Orders:      orderSvc,
		Hub:         hub,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.Info(ctx, "api listening", "port", cfg.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "server error", "error", err)
		}
	case <-stopCtx.Done():
		logger.Info(ctx, "shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error(ctx, "server shutdown error", "error", err)
	}
	logger.Info(ctx, "server stopped")
	return nil
}

// newDispatcher picks real delivery when credentials are configured and
// falls back to logging codes otherwise.
func newDispatcher(cfg config.Config, logger logging.Logger) otp.CredentialDispatcher {
	if cfg.SMTPHost == "" && cfg.TwilioAccountSID == "" {
		logger.Warn(context.Background(), "no SMTP or Twilio credentials configured, codes will be logged")
		return otp.NewLogDispatcher(logger)
	}
	return otp.NewEmailSMSDispatcher(otp.EmailSMSConfig{
		SMTPHost:         cfg.SMTPHost,
		SMTPPort:         cfg.SMTPPort,
		SMTPUser:         cfg.SMTPUser,
		SMTPPass:         cfg.SMTPPass,
		From:             cfg.SMTPFrom,
		TwilioAccountSID: cfg.TwilioAccountSID,
		TwilioAuthToken:  cfg.TwilioAuthToken,
		TwilioFromPhone:  cfg.TwilioFromPhone,
	}, cfg.OTPTTL)
}
