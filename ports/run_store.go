// Package ports declares the persistence interfaces implemented by adapters.
package ports

import (
	"context"

	"policypilot/domain/core"
	"policypilot/domain/insurance"
)

// RunStore persists report-generation runs and their flattened annual totals.
type RunStore interface {
	SaveRun(ctx context.Context, run *insurance.ReportRun) error
	SaveAnnualTotals(ctx context.Context, runID core.ID, totals []insurance.AnnualTotal) error
	GetRun(ctx context.Context, id core.ID) (*insurance.ReportRun, error)
	ListRuns(ctx context.Context, limit int) ([]*insurance.ReportRun, error)
}
