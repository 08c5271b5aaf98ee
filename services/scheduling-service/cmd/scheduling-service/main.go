package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goold/roomsched/libs/auth"
	"github.com/goold/roomsched/libs/config"
	"github.com/goold/roomsched/libs/db"
	"github.com/goold/roomsched/libs/httpx"
	"github.com/goold/roomsched/libs/kafkax"
	otelx "github.com/goold/roomsched/libs/otel"
	"github.com/goold/roomsched/libs/runtime"
	"github.com/goold/roomsched/services/scheduling-service/internal/handlers"
	"github.com/goold/roomsched/services/scheduling-service/internal/outbox"
	"github.com/goold/roomsched/services/scheduling-service/internal/revocation"
	"github.com/goold/roomsched/services/scheduling-service/internal/storage"
	"github.com/redis/go-redis/v9"
)

func main() {
	config.LoadDotEnv()
	service := config.String("SERVICE_NAME", "scheduling-service")
	port, err := config.Port("PORT", "3333")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

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

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	outboxRepo := outbox.NewRepository(pool)
	repo := storage.NewRepository(pool, outboxRepo)

	brokers := config.String("KAFKA_BROKERS", "")
	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if strings.TrimSpace(brokers) != "" {
		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:     brokers,
			TopicPrefix: config.String("KAFKA_TOPIC_PREFIX", "roomsched"),
			PollEvery:   config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
			BatchSize:   config.Int("OUTBOX_BATCH_SIZE", 50),
		})
		go publisher.Run(ctx)
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	} else {
		logger.Warn("KAFKA_BROKERS not set; outbox events stay unpublished")
	}

	var revoker handlers.Revoker
	loginLimit := httpx.NewRateLimiter(config.Int("LOGIN_RATE_LIMIT_PER_MINUTE", 20), time.Minute).Middleware()
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()
		revoker = revocation.NewDenyList(rdb, config.String("REVOCATION_PREFIX", "roomsched:revoked"))
		rl := httpx.NewRedisRateLimiter(rdb, config.Int("LOGIN_RATE_LIMIT_PER_MINUTE", 20), time.Minute, config.String("RATE_LIMIT_PREFIX", ""))
		loginLimit = rl.Middleware(logger, true)
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: revocation.ReadyCheck(rdb)})
		logger.Info("token revocation enabled (redis)", "redis_addr", addr)
	} else {
		logger.Warn("REDIS_ADDR not set; logout will not revoke tokens")
	}

	signer := auth.NewSigner(jwtSecret, config.Duration("JWT_TTL", 24*time.Hour))
	loc := config.Location("ROOM_TIMEZONE", "America/Sao_Paulo")

	h := handlers.New(repo, signer, revoker, logger, loc)
	mux := runtime.NewBaseMuxWithReady(checks...)
	h.Register(mux, loginLimit)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           chain(mux, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := runtime.Serve(ctx, srv, logger, 10*time.Second); err != nil {
		logger.Error("server exited", "err", err)
	}
}

func chain(mux http.Handler, logger *slog.Logger) http.Handler {
	return httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicyFromEnv()),
		httpx.WithBodyLimit(int64(config.Int("HTTP_BODY_LIMIT_BYTES", 1<<20))),
		httpx.WithTimeout(config.Duration("HTTP_REQUEST_TIMEOUT", 15*time.Second)),
		httpx.WithTracing("scheduling"),
	)
}
