// Command migrate applies the embedded schema migrations to a Postgres
// database, or reports where the schema currently stands.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/db"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		dbURL  = flag.String("db", "", "database URL, falls back to DATABASE_URL")
		status = flag.Bool("status", false, "report the schema version and pending migrations without applying")
		list   = flag.Bool("list", false, "print the embedded migrations and exit")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()

	migrations, err := db.GetMigrations()
	if err != nil {
		logger.Error().Err(err).Msg("cannot read embedded migrations")
		return 1
	}

	if *list {
		for _, m := range migrations {
			fmt.Printf("%03d  %s\n", m.Version, m.Name)
		}
		return 0
	}

	url := *dbURL
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		logger.Error().Msg("no database URL: pass -db or set DATABASE_URL")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Migrations run one statement stream at a time; a small pool is plenty.
	cfg := db.DefaultConfig(url)
	cfg.MaxConns = 2
	cfg.MinConns = 1

	database, err := db.New(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("cannot connect to database")
		return 1
	}
	defer database.Close()

	if *status {
		return printStatus(ctx, database, migrations, logger)
	}

	before, err := database.CurrentVersion(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("cannot read schema version")
		return 1
	}

	if err := database.Migrate(ctx); err != nil {
		logger.Error().Err(err).Int("version", before).Msg("migration failed, schema left at last applied version")
		return 1
	}

	after, err := database.CurrentVersion(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("cannot read schema version")
		return 1
	}

	if after == before {
		logger.Info().Int("version", after).Msg("schema already up to date")
	} else {
		logger.Info().Int("from", before).Int("to", after).Msg("migrations applied")
	}
	return 0
}

func printStatus(ctx context.Context, database *db.DB, migrations []db.Migration, logger zerolog.Logger) int {
	version, err := database.CurrentVersion(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("cannot read schema version")
		return 1
	}

	fmt.Printf("schema version: %d\n", version)
	for _, m := range migrations {
		state := "applied"
		if m.Version > version {
			state = "pending"
		}
		fmt.Printf("%03d  %-8s %s\n", m.Version, state, m.Name)
	}
	return 0
}
