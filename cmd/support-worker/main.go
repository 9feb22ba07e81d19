// cmd/support-worker/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"support-workers/internal/chatbot/flow"
	"support-workers/internal/chatbot/knowledge"
	"support-workers/internal/common/aws"
	"support-workers/internal/common/camunda"
	"support-workers/internal/common/config"
	"support-workers/internal/common/database"
	apperrors "support-workers/internal/common/errors"
	"support-workers/internal/common/logger"
	"support-workers/internal/common/observability"
	"support-workers/internal/support/archive"
	"support-workers/internal/support/notify"
	"support-workers/internal/support/sessions"
	"support-workers/internal/support/tickets"

	hm "support-workers/internal/workers/chatbot/handle-message"
	ri "support-workers/internal/workers/chatbot/resolve-intent"
	ct "support-workers/internal/workers/support/close-ticket"
	rs "support-workers/internal/workers/support/reset-session"
	stx "support-workers/internal/workers/support/search-transcripts"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func timeout(cfg *config.Config, taskType string, fallback time.Duration) time.Duration {
	if ms := cfg.Workers[taskType].Timeout; ms > 0 {
		return config.GetDuration(ms)
	}
	return fallback
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.NewFromConfig(cfg.Logging)
	if err != nil {
		logger.New("info", "console").Fatal("logger init failed", zap.Error(err))
	}
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting support worker...", zap.String("version", cfg.App.Version))

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	if err := obs.EnableTracing(cfg.Tracing); err != nil {
		zapLog.Warn("tracing disabled", zap.Error(err))
	}

	ctx := context.Background()

	// --- Knowledge catalog ---
	catalog, err := knowledge.Load(cfg.Chatbot.CatalogPath)
	if err != nil {
		invalid := apperrors.NewCatalogInvalidError(err)
		zapLog.Fatal(invalid.Message,
			zap.String("code", string(invalid.Code)),
			zap.String("path", cfg.Chatbot.CatalogPath),
			zap.Error(err))
	}
	zapLog.Info("Knowledge catalog loaded", zap.Int("topics", catalog.Len()))

	controller := flow.NewController(catalog, flow.Options{TicketPrefix: cfg.Chatbot.TicketPrefix})

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(ctx, cfg.Camunda)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		failed := apperrors.NewDatabaseConnectionFailedError(err)
		zapLog.Fatal("postgres failed after retries", zap.String("code", string(failed.Code)), zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	ticketRepo := tickets.NewPostgresRepository(pg)
	if err := ticketRepo.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("ticket schema migration failed", zap.Error(err))
	}

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	sessionRepo := sessions.NewRedisRepository(rdb.Client, cfg.Chatbot.SessionTTL, cfg.Chatbot.LockTTL)

	// --- Init Elasticsearch with retry (optional) ---
	var esClient *database.ElasticsearchClient
	var transcripts *archive.Store
	if cfg.Database.Elasticsearch.Enabled() {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}

		transcripts = archive.NewStore(esClient.Client, cfg.Archive.Index)
		if err := esClient.EnsureIndex(ctx, transcripts.Index(), archive.IndexMapping); err != nil {
			zapLog.Fatal("transcript index setup failed", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", transcripts.Index()))
	} else {
		zapLog.Info("Elasticsearch not configured, transcript archiving disabled")
	}

	// --- Notification channels ---
	var publishers []notify.Publisher
	var kafkaPublisher *notify.KafkaPublisher

	if cfg.Notifications.Redis.Enabled {
		publishers = append(publishers, notify.NewRedisPublisher(rdb.Client, cfg.Notifications.Redis.Channel))
	}
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		publishers = append(publishers, notify.NewSNSPublisher(snsClient, cfg.Notifications.SNS.TopicARN))
	}
	if cfg.Notifications.Email.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		publishers = append(publishers, notify.NewEmailPublisher(sesClient, cfg.Notifications.Email.From, cfg.Notifications.Email.To))
	}
	if cfg.Notifications.Kafka.Enabled {
		kafkaPublisher = notify.NewKafkaPublisher(notify.NewKafkaWriter(cfg.Notifications.Kafka.Brokers, cfg.Notifications.Kafka.Topic))
		publishers = append(publishers, kafkaPublisher)
	}

	publisher := notify.NewFanout(log, publishers...)
	zapLog.Info("Notification channels configured", zap.String("channels", publisher.Name()))

	// --- Register workers ---
	manager := camunda.NewManager(zeebe.Zeebe(), obs, log)

	{
		handler := ri.NewHandler(
			&ri.Config{
				Timeout:        timeout(cfg, ri.TaskType, ri.LoadConfig().Timeout),
				IncludeRanking: cfg.App.Environment != "production",
			},
			catalog, log,
		)
		manager.Start(ri.TaskType, cfg.Workers[ri.TaskType], handler.Handle)
	}

	{
		handler := hm.NewHandler(
			&hm.Config{
				Timeout:      timeout(cfg, hm.TaskType, hm.LoadConfig().Timeout),
				AgentsOnline: cfg.Chatbot.AgentsOnline,
			},
			controller, sessionRepo, ticketRepo, publisher, obs, log,
		)
		manager.Start(hm.TaskType, cfg.Workers[hm.TaskType], handler.Handle)
	}

	{
		var archiver ct.Archiver
		if transcripts != nil {
			archiver = transcripts
		}
		handler := ct.NewHandler(
			&ct.Config{
				Timeout:      timeout(cfg, ct.TaskType, ct.LoadConfig().Timeout),
				AgentsOnline: cfg.Chatbot.AgentsOnline,
			},
			ticketRepo, sessionRepo, publisher, archiver, log,
		)
		manager.Start(ct.TaskType, cfg.Workers[ct.TaskType], handler.Handle)
	}

	{
		handler := rs.NewHandler(
			&rs.Config{Timeout: timeout(cfg, rs.TaskType, rs.LoadConfig().Timeout)},
			sessionRepo, log,
		)
		manager.Start(rs.TaskType, cfg.Workers[rs.TaskType], handler.Handle)
	}

	if transcripts != nil {
		handler := stx.NewHandler(
			&stx.Config{Timeout: timeout(cfg, stx.TaskType, stx.LoadConfig().Timeout)},
			transcripts, log,
		)
		manager.Start(stx.TaskType, cfg.Workers[stx.TaskType], handler.Handle)
	}
	zapLog.Info("Support workers registered")

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		ready := true
		check := func(name string, fn func(context.Context) error) {
			if err := fn(checkCtx); err != nil {
				checks[name] = err.Error()
				ready = false
				return
			}
			checks[name] = "ok"
		}
		check("zeebe", zeebe.HealthCheck)
		check("postgres", pg.Ping)
		check("redis", rdb.Ping)
		if esClient != nil {
			check("elasticsearch", esClient.Ping)
		}

		status := http.StatusOK
		checks["status"] = "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			checks["status"] = "not ready"
		}
		checks["time"] = time.Now().Format(time.RFC3339)
		writeStatus(w, status, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())

	addr := cfg.App.HTTPAddress
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	manager.Stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			zapLog.Error("Error closing Kafka writer", zap.Error(err))
		}
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("Support worker stopped")
}

func writeStatus(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
