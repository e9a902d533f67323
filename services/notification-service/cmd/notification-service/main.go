package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/teampro-ai/teampro/libs/config"
	"github.com/teampro-ai/teampro/libs/db"
	"github.com/teampro-ai/teampro/libs/directory"
	"github.com/teampro-ai/teampro/libs/httpx"
	"github.com/teampro-ai/teampro/libs/kafkax"
	otelx "github.com/teampro-ai/teampro/libs/otel"
	"github.com/teampro-ai/teampro/libs/runtime"
	"github.com/teampro-ai/teampro/services/notification-service/internal/consumer"
	"github.com/teampro-ai/teampro/services/notification-service/internal/dispatch"
	"github.com/teampro-ai/teampro/services/notification-service/internal/email"
	"github.com/teampro-ai/teampro/services/notification-service/internal/handlers"
	"github.com/teampro-ai/teampro/services/notification-service/internal/inbox"
	"github.com/teampro-ai/teampro/services/notification-service/internal/sms"
	"github.com/teampro-ai/teampro/services/notification-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = runtime.LoadDotEnv()
	service := config.String("SERVICE_NAME", "notification-service")
	logger := runtime.NewLogger(service)

	if err := run(logger, service); err != nil {
		logger.Error("notification service stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, service string) error {
	port, err := config.Port("PORT", "8083")
	if err != nil {
		return err
	}
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return err
	}
	smtpPort, err := config.Int("SMTP_PORT", 1025)
	if err != nil {
		return err
	}

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, dbURL, db.DefaultOptions())
	if err != nil {
		return err
	}
	defer pool.Close()

	var mailer email.Sender
	if host := config.String("SMTP_HOST", ""); host != "" {
		mailer = email.NewSMTPSender(email.SMTPConfig{
			Host:     host,
			Port:     smtpPort,
			Username: config.String("SMTP_USERNAME", ""),
			Password: config.String("SMTP_PASSWORD", ""),
			From:     config.String("SMTP_FROM", ""),
		})
	} else {
		logger.Warn("SMTP_HOST not set; email delivery disabled")
	}

	var texter sms.Sender = sms.NewNoopSender()
	if url := config.String("SMS_WEBHOOK_URL", ""); url != "" {
		texter = sms.NewWebhookSender(url, config.String("SMS_WEBHOOK_TOKEN", ""))
	}

	var names dispatch.FacilityNamer
	if addr := config.String("FACILITY_GRPC_ADDR", "localhost:9092"); addr != "" {
		client, err := directory.NewClient(addr)
		if err != nil {
			logger.Warn("facility directory unavailable; notifications will use facility ids", "err", err)
		} else {
			defer client.Close()
			names = client
		}
	}

	repo := storage.NewRepository(pool)
	dispatcher := dispatch.New(repo, mailer, texter, names, dispatch.Config{
		OpsPhone: config.String("SMS_OPS_RECIPIENT", ""),
	}, logger)

	brokers := config.List("KAFKA_BROKERS")
	checks := []runtime.ReadyCheck{{Name: "postgres", Check: db.ReadyCheck(pool)}}
	if len(brokers) > 0 {
		c := consumer.New(logger, inbox.NewRepository(pool), consumer.Config{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", service),
			Topics:  dispatch.Topics,
		}, dispatcher.Handle)
		go c.Run(ctx)
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	} else {
		logger.Warn("KAFKA_BROKERS not set; event consumer disabled")
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.New(repo, logger).Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithIdentity,
		httpx.WithRecover(logger),
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return runtime.Serve(ctx, srv, logger, 10*time.Second)
}
