package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/dental-clinic-scheduling/internal/appointment"
	"github.com/hackgods/dental-clinic-scheduling/internal/config"
	"github.com/hackgods/dental-clinic-scheduling/internal/db"
	"github.com/hackgods/dental-clinic-scheduling/internal/logging"
)

// reconcile-worker closes the gap left when an appointment was created
// from a request but the request was never marked confirmed.
func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(zerolog.NewConsoleWriter())
		boot.Fatal().Err(err).Msg("config load error")
	}

	log := logging.New(cfg.Env, cfg.LogLevel, "reconcile-worker")
	log.Info().Dur("interval", cfg.WorkerInterval).Msg("reconcile-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 2}, log)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()

	opts, err := appointment.OptionsFromConfig(cfg.Clinic)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid clinic configuration")
	}

	// Reconciliation only touches requests, so no locker or notifier.
	repo := appointment.NewPgRepository(pgPool)
	svc := appointment.NewService(appointment.Deps{
		Appointments: repo,
		Requests:     repo,
		Directory:    repo,
		Log:          log,
	}, opts)

	// Run once at startup
	runOnce(rootCtx, svc, log)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping reconcile worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, log)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	res := svc.ReconcileConfirmedRequests(runCtx)
	if !res.Success {
		log.Error().Err(res.Err()).Msg("reconcile run failed")
		return
	}
	log.Info().Int("fixed", *res.Data).Dur("took", time.Since(start)).Msg("reconcile run complete")
}
