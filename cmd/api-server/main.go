package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/dental-clinic-scheduling/internal/api"
	"github.com/hackgods/dental-clinic-scheduling/internal/appointment"
	"github.com/hackgods/dental-clinic-scheduling/internal/config"
	"github.com/hackgods/dental-clinic-scheduling/internal/db"
	"github.com/hackgods/dental-clinic-scheduling/internal/logging"
	"github.com/hackgods/dental-clinic-scheduling/internal/notification"
	redisclient "github.com/hackgods/dental-clinic-scheduling/internal/redis"
	"github.com/hackgods/dental-clinic-scheduling/internal/treatment"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(zerolog.NewConsoleWriter())
		boot.Fatal().Err(err).Msg("config load error")
	}

	log := logging.New(cfg.Env, cfg.LogLevel, "api-server")
	log.Info().Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{}, log)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(rootCtx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")

	opts, err := appointment.OptionsFromConfig(cfg.Clinic)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid clinic configuration")
	}

	repo := appointment.NewPgRepository(pgPool)

	var sink notification.Sink = notification.NewPgStore(pgPool)
	if len(cfg.KafkaBrokers) > 0 {
		publisher := notification.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing kafka publisher")
			}
		}()
		sink = notification.MultiSink{sink, publisher}
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", publisher.Topic()).Msg("publishing notifications to kafka")
	}

	svc := appointment.NewService(appointment.Deps{
		Appointments: repo,
		Requests:     repo,
		Directory:    repo,
		Treatments:   treatment.NewPgRepository(pgPool),
		Notifier:     notification.NewDispatcher(sink, repo),
		Locker:       redisclient.NewRedisDayLocker(rdb, cfg.LockTTL),
		Log:          log,
	}, opts)

	srv := newHTTPServer(cfg.HTTPPort, api.NewRouter(api.RouterConfig{
		Service: svc,
		PgPool:  pgPool,
		Redis:   rdb,
		Log:     log,
		Env:     cfg.Env,
		Version: version,
	}))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	log.Info().Msg("api-server stopped")
}

func newHTTPServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
