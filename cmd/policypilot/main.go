// Command policypilot runs the full report pipeline: merge the three input
// files, derive the payout fields, aggregate, and export the report
// artifacts. DATABASE_URL, when set, additionally persists the run.
package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"policypilot/adapters/postgres"
	"policypilot/internal"
	"policypilot/internal/config"
	"policypilot/internal/report"
	"policypilot/ports"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger := internal.DefaultLogger
	ctx := context.Background()

	var store ports.RunStore
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Database connection failed: %v", err)
		}
		defer db.Close()
		store = postgres.NewRunRepository(db)
		logger.Info("[Main] run persistence enabled")
	} else {
		logger.Info("[Main] DATABASE_URL not set, run persistence disabled")
	}

	builder := report.NewBuilder(cfg, store)

	rep, err := builder.Build(ctx)
	if err != nil {
		log.Fatalf("Report build failed: %v", err)
	}

	workbook, err := builder.Export(ctx, rep)
	if err != nil {
		log.Fatalf("Report export failed: %v", err)
	}

	logger.Info("[Main] report run %s complete: %s", rep.RunID, workbook)
}
