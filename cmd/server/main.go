package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/human-centric-engineering/sunrise/internal/adapter/api"
	"github.com/human-centric-engineering/sunrise/internal/adapter/api/handler"
	"github.com/human-centric-engineering/sunrise/internal/adapter/logbridge"
	"github.com/human-centric-engineering/sunrise/internal/adapter/mail"
	"github.com/human-centric-engineering/sunrise/internal/adapter/metrics"
	"github.com/human-centric-engineering/sunrise/internal/adapter/pii"
	"github.com/human-centric-engineering/sunrise/internal/adapter/repository/memory"
	"github.com/human-centric-engineering/sunrise/internal/adapter/repository/postgres"
	redisrepo "github.com/human-centric-engineering/sunrise/internal/adapter/repository/redis"
	"github.com/human-centric-engineering/sunrise/internal/adapter/shipper"
	"github.com/human-centric-engineering/sunrise/internal/domain"
	"github.com/human-centric-engineering/sunrise/internal/pkg/config"
	"github.com/human-centric-engineering/sunrise/internal/pkg/logger"
	"github.com/human-centric-engineering/sunrise/internal/usecase"

	_ "github.com/lib/pq" // Keep for postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// bootLogger writes to the terminal only. The log transports themselves
	// use it so their output never cycles back through the sink chain.
	terminal := logger.NewHandler(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	bootLogger := slog.New(terminal)

	m := metrics.New()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Log Store, Sinks and the Bridged Logger ---
	store := memory.NewLogBuffer(cfg.LogBufferCap)
	redactor := pii.NewRedactor(strings.Split(cfg.RedactFields, ","))

	tailBroker := handler.NewTailBroker(ctx, bootLogger, m)
	sinks := []domain.LogSink{tailBroker}

	var (
		kafkaWriter *kafka.Writer
		ship        *shipper.KafkaShipper
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaWriter = &kafka.Writer{
			Addr:         kafka.TCP(cfg.KafkaBrokers...),
			Topic:        cfg.KafkaTopic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		}
		ship = shipper.NewKafkaShipper(kafkaWriter, bootLogger, m)
		go ship.Run(ctx)
		sinks = append(sinks, ship)
		bootLogger.Info("kafka log shipping enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	appLogger := slog.New(logbridge.New(terminal, store, redactor, sinks, m))
	slog.SetDefault(appLogger)

	// --- Metrics Server ---
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metricsMux,
	}

	go func() {
		bootLogger.Info("starting metrics server", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			bootLogger.Error("metrics server failed", "error", err)
		}
	}()

	// --- Database and Redis Connections ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		appLogger.Error("failed to open postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisAddr)
	if err != nil {
		appLogger.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// --- Repositories ---
	userRepo := postgres.NewUserRepository(db)
	flagRepo := postgres.NewFlagRepository(db, appLogger, cfg.FlagCacheTTL, m)
	sessionStore := redisrepo.NewSessionStore(redisClient, appLogger)

	// --- Mailer ---
	var mailer domain.Mailer
	if strings.EqualFold(cfg.MailMode, "smtp") {
		mailer = mail.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)
	} else {
		mailer = mail.NewLogMailer(appLogger)
	}

	// --- Use Cases ---
	authUseCase := usecase.NewAuthUseCase(userRepo, sessionStore, appLogger, m, cfg.JWTSecret, cfg.TokenTTL, cfg.SessionTTL, cfg.LoginRatePerIP, cfg.LoginBurst)
	userUseCase := usecase.NewUserUseCase(userRepo, mailer, appLogger, m)
	flagUseCase := usecase.NewFlagUseCase(flagRepo, usecase.DefaultFlags, appLogger)
	adminLogsUseCase := usecase.NewAdminLogsUseCase(store, appLogger)
	clientLogUseCase := usecase.NewClientLogUseCase(store, redactor, sinks, appLogger, m)

	if err := userUseCase.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		appLogger.Error("failed to ensure seed admin", "error", err)
		os.Exit(1)
	}

	// --- Application Server ---
	router := api.NewRouter(api.Deps{
		Config:     cfg,
		Logger:     appLogger,
		Metrics:    m,
		Auth:       authUseCase,
		Users:      userUseCase,
		Flags:      flagUseCase,
		AdminLogs:  adminLogsUseCase,
		ClientLogs: clientLogUseCase,
		Tail:       tailBroker,
	})

	appServer := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout, the live tail endpoint holds its response open.
	}

	go func() {
		appLogger.Info("starting server", "addr", appServer.Addr)
		if err := appServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			bootLogger.Error("server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	bootLogger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := appServer.Shutdown(shutdownCtx); err != nil {
		bootLogger.Error("server shutdown failed", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		bootLogger.Error("metrics server shutdown failed", "error", err)
	}

	if ship != nil {
		ship.Wait()
		if err := kafkaWriter.Close(); err != nil {
			bootLogger.Error("failed to close kafka writer", "error", err)
		}
	}

	bootLogger.Info("servers shut down gracefully")
}
