package main

import (
	"os"

	"github.com/dipta-sdd/campaignbay-sub002/internal/config"
	"github.com/dipta-sdd/campaignbay-sub002/internal/db"
	"github.com/dipta-sdd/campaignbay-sub002/internal/obs"
)

func main() {
	logger := obs.NewLogger("console", "info")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Error().Err(err).Msg("migrate")
		os.Exit(1)
	}
	logger.Info().Msg("migrations applied")
}
