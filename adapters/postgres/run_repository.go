// Package postgres implements the optional run store on Postgres.
package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"policypilot/domain/core"
	"policypilot/domain/insurance"
	"policypilot/internal/errors"
)

// RunRepository persists report runs with sqlx.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a repository over an open connection pool.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

type runRow struct {
	ID               string          `db:"id"`
	GeneratedAt      sql.NullTime    `db:"generated_at"`
	PixelCount       int             `db:"pixel_count"`
	ObservationCount int             `db:"observation_count"`
	TotalSumInsured  float64         `db:"total_sum_insured"`
	ExpectedLoss     sql.NullFloat64 `db:"expected_loss"`
	WorkbookPath     string          `db:"workbook_path"`
}

func (r runRow) toDomain() *insurance.ReportRun {
	run := &insurance.ReportRun{
		ID:               core.ID(r.ID),
		PixelCount:       r.PixelCount,
		ObservationCount: r.ObservationCount,
		TotalSumInsured:  r.TotalSumInsured,
		WorkbookPath:     r.WorkbookPath,
	}
	if r.GeneratedAt.Valid {
		run.GeneratedAt = r.GeneratedAt.Time
	}
	if r.ExpectedLoss.Valid {
		run.ExpectedLoss = &r.ExpectedLoss.Float64
	}
	return run
}

// SaveRun inserts one report run.
func (r *RunRepository) SaveRun(ctx context.Context, run *insurance.ReportRun) error {
	query := `
		INSERT INTO report_runs (id, generated_at, pixel_count, observation_count,
			total_sum_insured, expected_loss, workbook_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	var expectedLoss sql.NullFloat64
	if run.ExpectedLoss != nil {
		expectedLoss = sql.NullFloat64{Float64: *run.ExpectedLoss, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		run.ID.String(), run.GeneratedAt, run.PixelCount, run.ObservationCount,
		run.TotalSumInsured, expectedLoss, run.WorkbookPath)
	if err != nil {
		return errors.Wrap(err, "failed to insert report run")
	}
	return nil
}

// SaveAnnualTotals inserts the flattened annual totals of one run in a single
// transaction.
func (r *RunRepository) SaveAnnualTotals(ctx context.Context, runID core.ID, totals []insurance.AnnualTotal) error {
	if len(totals) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	query := `
		INSERT INTO report_annual_totals (run_id, group_label, area, year, amount)
		VALUES ($1, $2, $3, $4, $5)`
	for _, t := range totals {
		if _, err := tx.ExecContext(ctx, query, runID.String(), t.Group, t.Area, t.Year, t.Amount); err != nil {
			return errors.Wrap(err, "failed to insert annual total")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit annual totals")
	}
	return nil
}

// GetRun fetches one run by id.
func (r *RunRepository) GetRun(ctx context.Context, id core.ID) (*insurance.ReportRun, error) {
	query := `
		SELECT id, generated_at, pixel_count, observation_count,
			total_sum_insured, expected_loss, COALESCE(workbook_path, '') AS workbook_path
		FROM report_runs WHERE id = $1`

	var row runRow
	if err := r.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrRunNotFound
		}
		return nil, errors.Wrap(err, "failed to fetch report run")
	}
	return row.toDomain(), nil
}

// ListRuns returns the most recent runs, newest first.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]*insurance.ReportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, generated_at, pixel_count, observation_count,
			total_sum_insured, expected_loss, COALESCE(workbook_path, '') AS workbook_path
		FROM report_runs ORDER BY generated_at DESC LIMIT $1`

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, errors.Wrap(err, "failed to list report runs")
	}

	runs := make([]*insurance.ReportRun, len(rows))
	for i, row := range rows {
		runs[i] = row.toDomain()
	}
	return runs, nil
}
