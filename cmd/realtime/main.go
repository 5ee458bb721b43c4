package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eshen7/frc-marketplace/internal/broker"
	"github.com/eshen7/frc-marketplace/internal/config"
	"github.com/eshen7/frc-marketplace/internal/domain"
	"github.com/eshen7/frc-marketplace/internal/handler"
	"github.com/eshen7/frc-marketplace/internal/notify"
	"github.com/eshen7/frc-marketplace/internal/repository"
	"github.com/eshen7/frc-marketplace/internal/service"
	"github.com/eshen7/frc-marketplace/pkg/database"
	"github.com/eshen7/frc-marketplace/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	l := log.L()
	l.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting realtime service")

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.AutoMigrate(&domain.MessageModel{}, &domain.UserModel{}); err != nil {
		l.Fatal().Err(err).Msg("failed to migrate database schema")
	}
	l.Info().Str("driver", cfg.Database.Driver).Msg("connected to database")

	messageRepo := repository.NewGormMessageRepository(db)
	userRepo := repository.NewGormUserRepository(db)

	// Initialize group broker
	var b broker.Broker
	switch cfg.Broker.Mode {
	case "redis":
		rb, err := broker.NewRedis(cfg.Broker)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to initialize redis broker")
		}
		b = rb
		l.Info().Str("address", cfg.Broker.RedisAddress).Msg("connected to redis broker")
	default:
		b = broker.NewMemory()
		l.Info().Msg("using in-memory broker")
	}
	defer b.Close()

	// Initialize notification pipeline
	var sender notify.Sender
	if cfg.Notify.Enabled {
		ks, err := notify.NewKafkaSender(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to initialize kafka notification sender")
		}
		sender = ks
		l.Info().Str("brokers", cfg.Notify.KafkaBrokers).Str("topic", cfg.Notify.KafkaTopic).Msg("connected to kafka")
	} else {
		sender = notify.NewLogSender()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := notify.NewQueue(cfg.Notify, sender)
	queue.Start(ctx)
	defer queue.Close()

	// Initialize delivery coordination and WS handler
	deliverySvc := service.NewDeliveryService(b, messageRepo, userRepo, queue)
	wsHandler := handler.NewWSHandler(b, deliverySvc, cfg.WebSocket)

	// Setup HTTP server
	mux := http.NewServeMux()
	wsHandler.RegisterRoutes(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     log.HTTPMiddleware(l)(mux),
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		l.Info().Str("addr", server.Addr).Msg("realtime service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("shutting down realtime service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Warn().Err(err).Msg("server forced to shutdown")
	}

	l.Info().Msg("realtime service stopped")
}
