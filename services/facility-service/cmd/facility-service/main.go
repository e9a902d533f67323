package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/teampro-ai/teampro/libs/config"
	"github.com/teampro-ai/teampro/libs/db"
	"github.com/teampro-ai/teampro/libs/httpx"
	"github.com/teampro-ai/teampro/libs/kafkax"
	otelx "github.com/teampro-ai/teampro/libs/otel"
	"github.com/teampro-ai/teampro/libs/runtime"
	"github.com/teampro-ai/teampro/services/facility-service/internal/expiry"
	"github.com/teampro-ai/teampro/services/facility-service/internal/facilities"
	"github.com/teampro-ai/teampro/services/facility-service/internal/handlers"
	"github.com/teampro-ai/teampro/services/facility-service/internal/outbox"
	"github.com/teampro-ai/teampro/services/facility-service/internal/payments"
	"github.com/teampro-ai/teampro/services/facility-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = runtime.LoadDotEnv()
	service := config.String("SERVICE_NAME", "facility-service")
	logger := runtime.NewLogger(service)

	if err := run(logger, service); err != nil {
		logger.Error("facility service stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, service string) error {
	port, err := config.Port("PORT", "8082")
	if err != nil {
		return err
	}
	pendingTTL, err := config.Duration("PENDING_BOOKING_TTL", facilities.DefaultPendingTTL)
	if err != nil {
		return err
	}
	expiryEvery, err := config.Duration("PENDING_EXPIRY_INTERVAL", time.Minute)
	if err != nil {
		return err
	}
	webhookTolerance, err := config.Duration("STRIPE_WEBHOOK_TOLERANCE", 5*time.Minute)
	if err != nil {
		return err
	}
	dbURL, err := config.RequiredString("DATABASE_URL")
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

	var checkout payments.Checkout
	if key := config.String("STRIPE_SECRET_KEY", ""); key != "" {
		checkout = payments.NewStripeCheckout(payments.StripeConfig{
			SecretKey:  key,
			SuccessURL: config.String("CHECKOUT_SUCCESS_URL", "http://localhost:3000/bookings/{BOOKING_ID}?paid=1"),
			CancelURL:  config.String("CHECKOUT_CANCEL_URL", "http://localhost:3000/bookings/{BOOKING_ID}?cancelled=1"),
		})
		logger.Info("stripe checkout enabled")
	} else {
		logger.Warn("stripe checkout disabled; bookings are confirmed immediately")
	}
	var verifier *payments.WebhookVerifier
	if secret := config.String("STRIPE_WEBHOOK_SECRET", ""); secret != "" {
		verifier = &payments.WebhookVerifier{Secret: secret, Tolerance: webhookTolerance}
	}

	store := facilities.NewPostgresStore(storage.New(pool))
	svc := facilities.New(store, logger, facilities.Config{
		Checkout:   checkout,
		PendingTTL: pendingTTL,
	})

	brokers := config.List("KAFKA_BROKERS")
	publisher := outbox.NewPublisher(pool, outbox.NewRepository(), logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go publisher.Run(ctx)

	if svc.PaymentsEnabled() {
		worker := expiry.NewWorker(svc, logger, expiry.WorkerConfig{Interval: expiryEvery})
		go worker.Run(ctx)
	}

	if err := startGrpcServer(ctx, logger, svc); err != nil {
		logger.Error("grpc server failed to start", "err", err)
	}

	checks := []runtime.ReadyCheck{{Name: "postgres", Check: db.ReadyCheck(pool)}}
	if len(brokers) > 0 {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.New(svc, verifier, logger).Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithIdentity,
		httpx.WithRecover(logger),
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
	)
	handler = otelhttp.NewHandler(handler, "facility")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return runtime.Serve(ctx, srv, logger, 10*time.Second)
}
