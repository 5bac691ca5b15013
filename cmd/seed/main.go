package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/dental-clinic-scheduling/internal/config"
	"github.com/hackgods/dental-clinic-scheduling/internal/db"
	"github.com/hackgods/dental-clinic-scheduling/internal/logging"
)

const (
	dentistCount   = 8
	assistantCount = 4
	patientCount   = 2000
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(zerolog.NewConsoleWriter())
		boot.Fatal().Err(err).Msg("config load error")
	}

	log := logging.New(cfg.Env, cfg.LogLevel, "seed")
	log.Info().Msg("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 2}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	faker := gofakeit.New(uint64(time.Now().UnixNano()))

	staff := []struct {
		role  string
		count int
	}{
		{"dentist", dentistCount},
		{"assistant", assistantCount},
	}
	for _, s := range staff {
		if err := seedProfiles(context.Background(), pool, log, faker, s.role, s.count); err != nil {
			log.Fatal().Err(err).Str("role", s.role).Msg("seed staff")
		}
	}
	if err := seedProfiles(context.Background(), pool, log, faker, "patient", patientCount); err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}

	log.Info().Msg("seed complete")
}

// seedProfiles inserts count profiles with the given role, committing in batches.
func seedProfiles(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, faker *gofakeit.Faker, role string, count int) error {
	log.Info().Str("role", role).Int("count", count).Msg("seeding profiles")

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := min(offset+batchSize, count)

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			name := faker.Name()
			if role == "dentist" {
				name = "Dr. " + faker.LastName()
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO profiles (id, full_name, role, email, created_at)
				VALUES ($1, $2, $3, $4, now())
			`, uuid.New(), name, role, email(faker, role, i))
			if err != nil {
				_ = tx.Rollback(ctx)
				return fmt.Errorf("insert %s: %w", role, err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Debug().Str("role", role).Int("done", end).Int("total", count).Msg("profiles seeded")
	}

	return nil
}

// email tags the address with role and index so a single run never repeats one.
func email(faker *gofakeit.Faker, role string, i int) string {
	local, domain, _ := strings.Cut(faker.Email(), "@")
	return fmt.Sprintf("%s.%s.%d@%s", role, local, i, domain)
}
