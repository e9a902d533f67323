package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/teampro-ai/teampro/libs/auth"
	"github.com/teampro-ai/teampro/libs/config"
	"github.com/teampro-ai/teampro/libs/httpx"
	otelx "github.com/teampro-ai/teampro/libs/otel"
	"github.com/teampro-ai/teampro/libs/runtime"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = runtime.LoadDotEnv()
	service := config.String("SERVICE_NAME", "gateway-service")
	logger := runtime.NewLogger(service)

	if err := run(logger, service); err != nil {
		logger.Error("gateway stopped", "err", err)
		os.Exit(1)
	}
}

// newVerifier requires at least one key source: an HS256 secret or a JWKS endpoint.
func newVerifier(jwksTTL time.Duration) (*auth.Verifier, error) {
	secret := strings.TrimSpace(config.String("JWT_SECRET", ""))
	url := strings.TrimSpace(config.String("JWKS_URL", ""))
	if secret == "" && url == "" {
		return nil, errors.New("JWT_SECRET or JWKS_URL is required")
	}
	verifier := &auth.Verifier{Secret: secret, Leeway: 30 * time.Second}
	if url != "" {
		verifier.JWKS = auth.NewJWKSClient(url, jwksTTL)
	}
	return verifier, nil
}

func run(logger *slog.Logger, service string) error {
	port, err := config.Port("PORT", "8080")
	if err != nil {
		return err
	}
	jwksTTL, err := config.Duration("JWKS_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return err
	}
	bodyLimit, err := config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20)
	if err != nil {
		return err
	}
	requestTimeout, err := config.Duration("REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return err
	}
	limitPerMinute, err := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return err
	}
	corsMaxAge, err := config.Duration("CORS_MAX_AGE", 10*time.Minute)
	if err != nil {
		return err
	}
	facilityURL, err := parseUpstream(config.String("FACILITY_URL", "http://facility-service:8082"))
	if err != nil {
		return err
	}
	notificationURL, err := parseUpstream(config.String("NOTIFICATION_URL", "http://notification-service:8083"))
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

	verifier, err := newVerifier(jwksTTL)
	if err != nil {
		return err
	}

	var checks []runtime.ReadyCheck
	var rateLimit httpx.Middleware
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		redisDB, err := config.Int("REDIS_DB", 0)
		if err != nil {
			return err
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       redisDB,
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimit = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: rl.Ping})
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimit = rl.Middleware()
		go sweepLoop(ctx, rl)
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	registerRoutes(mux, routes{
		facility:     newProxy(facilityURL),
		notification: newProxy(notificationURL),
		verifier:     verifier,
	})

	allowedMethods := config.List("CORS_ALLOWED_METHODS")
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	}
	allowedHeaders := config.List("CORS_ALLOWED_HEADERS")
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{"Authorization", "Content-Type", "X-Request-Id", "Idempotency-Key"}
	}
	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   allowedMethods,
			AllowedHeaders:   allowedHeaders,
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           corsMaxAge,
		}),
		httpx.WithRequestID,
		httpx.WithRecover(logger),
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(bodyLimit)),
		httpx.WithTimeout(requestTimeout),
		rateLimit,
	)
	handler = otelhttp.NewHandler(handler, "gateway")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return runtime.Serve(ctx, srv, logger, 10*time.Second)
}

func sweepLoop(ctx context.Context, rl *httpx.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}
