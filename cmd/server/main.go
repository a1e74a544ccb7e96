package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pethaven/internal/broker/kafka"
	"pethaven/internal/broker/redisrelay"
	"pethaven/internal/config"
	"pethaven/internal/domain"
	"pethaven/internal/httpserver"
	"pethaven/internal/obs"
	"pethaven/internal/security"
	"pethaven/internal/service"
	"pethaven/internal/store/mongo"
	"pethaven/internal/store/postgres"
	"pethaven/internal/store/sqlite"
	"pethaven/internal/validator"
	"pethaven/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := obs.NewLogger(cfg.Env, cfg.Debug)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("closing store", "err", err)
		}
	}()
	log.Info("store ready", "driver", cfg.StoreDriver)

	tokens := security.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTokenMinutes)*time.Minute)
	hasher := security.NewPasswordHasher(0)

	var encryptor *security.Encryptor
	if cfg.EncryptKey != "" {
		encryptor, err = security.NewEncryptor([]byte(cfg.EncryptKey))
		if err != nil {
			return fmt.Errorf("initialize encryptor: %w", err)
		}
	}

	hub := ws.NewHub(log)
	if cfg.RedisAddr != "" {
		relay, err := redisrelay.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisChannel, log)
		if err != nil {
			return err
		}
		defer relay.Close()
		hub.SetForwarder(relay)
		go func() {
			if err := relay.Run(ctx, hub); err != nil {
				log.Error("redis relay stopped", "err", err)
			}
		}()
	}

	var events service.Publisher = service.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		pub := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, kafka.Options{}, log)
		defer func() {
			if err := pub.Close(); err != nil {
				log.Warn("closing kafka publisher", "err", err)
			}
		}()
		events = pub
		log.Info("publishing domain events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	v := validator.New()
	auth := service.NewAuthService(store.Users, tokens, hasher, v)
	messages := service.NewMessageService(store.Messages, encryptor, v, events, log)
	notifications := service.NewNotificationService(store.Notifications, hub, events, log)
	chat := service.NewChatService(messages, notifications, store.Users, hub, log)

	realtime := ws.NewHandler(hub, chat, auth, ws.Options{
		AllowedOrigins: cfg.CORSOrigins,
		SendBuffer:     cfg.WSSendBuffer,
		EventsPerSec:   cfg.WSEventsPerSec,
		PingInterval:   cfg.WSPingInterval,
		EventTimeout:   cfg.RequestTimeout,
	}, log)

	router := httpserver.NewRouter(httpserver.Deps{
		AppName:        cfg.AppName,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		RateLimiter:    httpserver.NewIPRateLimiter(ctx, cfg.RateLimitPerMinute, log),
		TrustProxy:     cfg.TrustProxy,
		Auth:           auth,
		Users:          service.NewUserService(store.Users),
		Conversations:  service.NewConversationService(messages, store.Users, store.Pets, log),
		Messages:       messages,
		Notifications:  notifications,
		Pets:           service.NewPetService(store.Pets, v),
		Applications:   service.NewApplicationService(store.Applications, store.Pets, notifications, v, events, log),
		Realtime:       realtime,
		Ping:           store.Ping,
		Log:            log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", cfg.HTTPAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (*domain.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := postgres.Migrate(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return postgres.NewStore(db), nil

	case config.DriverMongo:
		client, err := mongo.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return client.NewStore(), nil

	default:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := sqlite.Migrate(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return sqlite.NewStore(db), nil
	}
}
