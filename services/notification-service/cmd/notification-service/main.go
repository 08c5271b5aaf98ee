package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goold/roomsched/libs/config"
	"github.com/goold/roomsched/libs/db"
	"github.com/goold/roomsched/libs/httpx"
	"github.com/goold/roomsched/libs/kafkax"
	otelx "github.com/goold/roomsched/libs/otel"
	"github.com/goold/roomsched/libs/runtime"
	"github.com/goold/roomsched/services/notification-service/internal/consumer"
	"github.com/goold/roomsched/services/notification-service/internal/email"
	"github.com/goold/roomsched/services/notification-service/internal/inbox"
	"github.com/goold/roomsched/services/notification-service/internal/notify"
	"github.com/goold/roomsched/services/notification-service/internal/storage"
)

func main() {
	config.LoadDotEnv()
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
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
	brokers, err := config.RequiredString("KAFKA_BROKERS")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	var sender email.Sender = email.NoopSender{}
	if host := strings.TrimSpace(config.String("SMTP_HOST", "")); host != "" {
		sender = email.NewSMTPSender(host, config.String("SMTP_PORT", "1025"), config.String("SMTP_FROM", ""))
	} else {
		logger.Warn("SMTP_HOST not set; notifications are recorded but not mailed")
	}

	handler := notify.NewHandler(sender, storage.NewRepository(pool), logger, config.Location("ROOM_TIMEZONE", "America/Sao_Paulo"))

	prefix := config.String("KAFKA_TOPIC_PREFIX", "roomsched")
	topics := make([]string, 0, len(notify.EventTypes))
	for _, et := range notify.EventTypes {
		topics = append(topics, kafkax.TopicFor(prefix, et))
	}
	eventConsumer := consumer.New(logger, inbox.NewRepository(pool), consumer.Config{
		Brokers: brokers,
		GroupID: config.String("KAFKA_GROUP_ID", service),
		Topics:  topics,
	}, handler.Handle)
	go eventConsumer.Run(ctx)
	logger.Info("consuming schedule events", "topics", topics)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers, topics...)},
	)
	srv := &http.Server{
		Addr: ":" + port,
		Handler: httpx.Chain(mux,
			httpx.WithRequestID,
			httpx.WithAccessLog(logger),
			httpx.WithTracing("notification"),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := runtime.Serve(ctx, srv, logger, 10*time.Second); err != nil {
		logger.Error("server exited", "err", err)
	}
}
