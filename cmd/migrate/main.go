// Command migrate creates (or drops) the run-store schema.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

const createSchema = `
CREATE TABLE IF NOT EXISTS report_runs (
	id                UUID PRIMARY KEY,
	generated_at      TIMESTAMPTZ NOT NULL,
	pixel_count       INTEGER NOT NULL,
	observation_count INTEGER NOT NULL,
	total_sum_insured DOUBLE PRECISION NOT NULL,
	expected_loss     DOUBLE PRECISION,
	workbook_path     TEXT
);

CREATE TABLE IF NOT EXISTS report_annual_totals (
	id          BIGSERIAL PRIMARY KEY,
	run_id      UUID NOT NULL REFERENCES report_runs(id) ON DELETE CASCADE,
	group_label TEXT NOT NULL,
	area        TEXT NOT NULL,
	year        INTEGER NOT NULL,
	amount      DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_annual_totals_run ON report_annual_totals(run_id);
`

const dropSchema = `
DROP TABLE IF EXISTS report_annual_totals;
DROP TABLE IF EXISTS report_runs;
`

func main() {
	drop := flag.Bool("drop", false, "drop the schema instead of creating it")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	schema := createSchema
	action := "created"
	if *drop {
		schema = dropSchema
		action = "dropped"
	}

	if _, err := db.Exec(schema); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Schema %s", action)
}
