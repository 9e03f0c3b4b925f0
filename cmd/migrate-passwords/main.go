// Command migrate-passwords hashes legacy plaintext passwords with bcrypt.
package main

import (
	"context"
	"os"

	"fund-planning-api/config"
	"fund-planning-api/services"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	dryRun := pflag.Bool("dry-run", false, "count plaintext passwords without rewriting them")
	pflag.Parse()

	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("No .env file found")
	}
	settings, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	db, err := config.OpenDB(settings, logger.Level(zerolog.WarnLevel))
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}

	result, err := services.NewUserService(db).MigratePlaintextPasswords(context.Background(), *dryRun, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("password migration failed")
	}
	logger.Info().
		Bool("dry_run", *dryRun).
		Int("hashed", result.Hashed).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Password migration completed")
}
