package cli

import (
	"fmt"

	"github.com/neilberkman/researchtrail/internal/core/capture"
	"github.com/neilberkman/researchtrail/internal/core/config"
	"github.com/neilberkman/researchtrail/internal/core/db"
	"github.com/spf13/cobra"
)

// resolveDB picks the database path: an explicit --db wins over config.toml
func resolveDB(cmd *cobra.Command, cfg *config.Config) string {
	if cmd.Flags().Changed("db") || cfg.DBPath == "" {
		return dbPath
	}
	return cfg.DBPath
}

// openEngine opens the store and a capture engine over it. The returned
// func waits for pending enrichment and closes the store.
func openEngine(cmd *cobra.Command, cfg *config.Config, enricher capture.TitleEnricher) (*capture.Engine, func(), error) {
	database, err := db.New(resolveDB(cmd, cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	engine := capture.New(database, enricher,
		capture.WithExportDir(cfg.ExportDir),
		capture.WithLocation(cfg.Location),
		capture.WithEnrichTimeout(cfg.EnrichTimeout),
	)

	closeFn := func() {
		engine.Close()
		_ = database.Close()
	}
	return engine, closeFn, nil
}

// loadEngine loads config and opens an engine without title generation
func loadEngine(cmd *cobra.Command) (*config.Config, *capture.Engine, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	engine, closeFn, err := openEngine(cmd, cfg, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, engine, closeFn, nil
}
