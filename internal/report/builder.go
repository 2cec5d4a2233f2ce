// Package report orchestrates one pipeline run: merge the sources, derive
// the payout fields, aggregate, and export the report artifacts.
package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"policypilot/adapters/excel"
	"policypilot/domain/core"
	"policypilot/domain/insurance"
	"policypilot/internal"
	"policypilot/internal/aggregate"
	"policypilot/internal/config"
	"policypilot/internal/errors"
	"policypilot/internal/merge"
	"policypilot/ports"
)

// Report is the assembled output of one run, before export.
type Report struct {
	RunID       core.ID
	GeneratedAt time.Time

	Merge           *merge.Result
	PixelStats      []aggregate.PixelStats
	Regional        *aggregate.RegionalStatistics
	Chart           *aggregate.ChartData
	Diversification []aggregate.DiversificationPoint
	Correlations    []aggregate.ZonePairCorrelation
	Summary         *Summary
}

// Builder runs the pipeline end to end. The run store is optional; a nil
// store skips persistence.
type Builder struct {
	cfg   *config.Config
	log   *internal.Logger
	store ports.RunStore
}

// NewBuilder wires a builder from configuration.
func NewBuilder(cfg *config.Config, store ports.RunStore) *Builder {
	return &Builder{cfg: cfg, log: internal.DefaultLogger, store: store}
}

// Build merges the three sources, derives the payout fields per pixel, and
// aggregates into the report views.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	merged, err := merge.NewMerger().Load(ctx, merge.Sources{
		CrosswalkFile:  b.cfg.Inputs.CrosswalkFile,
		ThresholdFile:  b.cfg.Inputs.ThresholdFile,
		TimeseriesFile: b.cfg.Inputs.TimeseriesFile,
	})
	if err != nil {
		return nil, err
	}

	for _, rec := range merged.Pixels {
		insurance.Derive(rec, merged.ObservationsFor(rec.Index))
	}

	pixelStats := aggregate.BuildPixelStats(merged.Pixels, merged.ObservationsFor)
	grid := aggregate.BuildRegionalStatistics(merged.Pixels, pixelStats, merged.ObservationsFor)

	rep := &Report{
		RunID:           core.NewID(),
		GeneratedAt:     time.Now().UTC(),
		Merge:           merged,
		PixelStats:      pixelStats,
		Regional:        grid,
		Chart:           aggregate.BuildChartData(grid),
		Diversification: aggregate.BuildDiversification(grid),
		Correlations:    aggregate.ZoneCorrelations(grid),
		Summary:         BuildSummary(merged.Pixels, grid),
	}

	b.log.Info("[Report] run %s built: %d pixels, %d observations, %d grid columns",
		rep.RunID, len(merged.Pixels), len(merged.Observations), len(grid.Columns))
	return rep, nil
}

// Export writes the report artifacts under the output directory: the
// workbook, per-view CSVs, the regional grid as JSON, and the Markdown
// summary. Returns the workbook path.
func (b *Builder) Export(ctx context.Context, rep *Report) (string, error) {
	if err := os.MkdirAll(b.cfg.Output.Dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create output directory %s", b.cfg.Output.Dir)
	}

	workbookPath := filepath.Join(b.cfg.Output.Dir, b.cfg.Output.WorkbookName)
	if err := b.writeWorkbook(rep, workbookPath); err != nil {
		return "", err
	}

	if err := b.writeCSVs(rep); err != nil {
		return "", err
	}
	if err := b.writeRegionalJSON(rep); err != nil {
		return "", err
	}
	if err := b.writeSummary(rep); err != nil {
		return "", err
	}

	if b.store != nil {
		if err := b.persist(ctx, rep, workbookPath); err != nil {
			return "", err
		}
	}

	b.log.Info("[Report] artifacts written to %s", b.cfg.Output.Dir)
	return workbookPath, nil
}

func (b *Builder) writeWorkbook(rep *Report, path string) error {
	w := excel.NewWorkbookWriter()

	headers, rows := finalTable(rep)
	if err := w.AddTable("Final Table", headers, rows); err != nil {
		return err
	}
	headers, rows = pixelStatsTable(rep.PixelStats)
	if err := w.AddTable("Pixel Stats", headers, rows); err != nil {
		return err
	}
	headers, rows = regionalTable(rep.Regional)
	if err := w.AddTable("Regional Statistics", headers, rows); err != nil {
		return err
	}
	headers, rows = chartTable(rep.Chart)
	if err := w.AddTable("Chart Data", headers, rows); err != nil {
		return err
	}
	headers, rows = diversificationTable(rep.Diversification, rep.Correlations)
	if err := w.AddTable("Diversification", headers, rows); err != nil {
		return err
	}

	if err := w.Save(path); err != nil {
		return errors.Wrapf(err, "failed to write workbook %s", path)
	}
	return nil
}

func (b *Builder) writeCSVs(rep *Report) error {
	type table struct {
		name    string
		headers []string
		rows    [][]interface{}
	}

	var tables []table
	h, r := finalTable(rep)
	tables = append(tables, table{"final_table.csv", h, r})
	h, r = pixelStatsTable(rep.PixelStats)
	tables = append(tables, table{"pixel_stats.csv", h, r})
	h, r = regionalTable(rep.Regional)
	tables = append(tables, table{"regional_statistics.csv", h, r})

	for _, t := range tables {
		if err := b.writeCSV(t.name, t.headers, t.rows); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) writeCSV(name string, headers []string, rows [][]interface{}) error {
	path := filepath.Join(b.cfg.Output.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	for _, row := range rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = cellString(cell)
		}
		if err := w.Write(record); err != nil {
			return errors.Wrapf(err, "failed to write %s", path)
		}
	}
	w.Flush()
	return w.Error()
}

func (b *Builder) writeRegionalJSON(rep *Report) error {
	path := filepath.Join(b.cfg.Output.Dir, "regional_statistics.json")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	payload := struct {
		RunID           core.ID                          `json:"run_id"`
		GeneratedAt     time.Time                        `json:"generated_at"`
		Regional        *aggregate.RegionalStatistics    `json:"regional"`
		Diversification []aggregate.DiversificationPoint `json:"diversification"`
		Correlations    []aggregate.ZonePairCorrelation  `json:"correlations"`
	}{rep.RunID, rep.GeneratedAt, rep.Regional, rep.Diversification, rep.Correlations}
	if err := enc.Encode(payload); err != nil {
		return errors.Wrapf(err, "failed to encode %s", path)
	}
	return nil
}

func (b *Builder) writeSummary(rep *Report) error {
	path := filepath.Join(b.cfg.Output.Dir, "summary.md")
	content := rep.Summary.RenderMarkdown(rep.Diversification)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

func (b *Builder) persist(ctx context.Context, rep *Report, workbookPath string) error {
	run := &insurance.ReportRun{
		ID:               rep.RunID,
		GeneratedAt:      rep.GeneratedAt,
		PixelCount:       len(rep.Merge.Pixels),
		ObservationCount: len(rep.Merge.Observations),
		TotalSumInsured:  rep.Summary.TotalSumInsured,
		ExpectedLoss:     rep.Summary.ExpectedLoss,
		WorkbookPath:     workbookPath,
	}
	if err := b.store.SaveRun(ctx, run); err != nil {
		return errors.Wrap(err, "failed to persist report run")
	}

	var totals []insurance.AnnualTotal
	for _, col := range rep.Regional.Columns {
		for _, year := range rep.Regional.Years {
			v := col.AnnualTotals[year]
			if v == nil {
				continue
			}
			totals = append(totals, insurance.AnnualTotal{
				Group:  col.Label,
				Area:   string(col.Area),
				Year:   year,
				Amount: *v,
			})
		}
	}
	if err := b.store.SaveAnnualTotals(ctx, rep.RunID, totals); err != nil {
		return errors.Wrap(err, "failed to persist annual totals")
	}
	b.log.Info("[Report] run %s persisted (%d annual totals)", rep.RunID, len(totals))
	return nil
}

// finalTable flattens the merged and derived long table, one row per
// (pixel, year). Null derived fields render as blank cells.
func finalTable(rep *Report) ([]string, [][]interface{}) {
	headers := []string{
		"pixel_id", "pixel", "region", "district", "area", "village",
		"latitude", "longitude", "farmer_count", "village_count",
		"loan_amount", "sum_insured", "threshold_yield", "attach", "detach",
		"year", "yield_relative", "yield_abs", "payout_fraction", "payout_amount",
	}

	var rows [][]interface{}
	for _, obs := range rep.Merge.Observations {
		rec, ok := rep.Merge.Pixel(obs.Index)
		if !ok {
			continue
		}
		rows = append(rows, []interface{}{
			rec.PixelID, rec.Index, rec.Region, rec.District, string(rec.Area), rec.Village,
			rec.Latitude, rec.Longitude, rec.FarmerCount, rec.VillageCount,
			cell(rec.LoanAmount), cell(rec.SumInsured), cell(rec.ThresholdYield),
			cell(rec.Attach), cell(rec.Detach),
			obs.Year, cell(obs.YieldRelative), cell(obs.YieldAbs),
			cell(obs.PayoutFraction), cell(obs.PayoutAmount),
		})
	}
	return headers, rows
}

func pixelStatsTable(stats []aggregate.PixelStats) ([]string, [][]interface{}) {
	headers := []string{
		"pixel_id", "pixel", "region", "area", "n",
		"mean", "sd", "min", "max", "p90", "p95", "cov", "blank", "zero_payout",
	}

	var rows [][]interface{}
	for _, ps := range stats {
		var cov interface{}
		if ps.CoVDefined {
			cov = ps.CoV
		}
		if ps.Blank {
			rows = append(rows, []interface{}{
				ps.PixelID, ps.Index, ps.Region, string(ps.Area), 0,
				nil, nil, nil, nil, nil, nil, nil, true, false,
			})
			continue
		}
		rows = append(rows, []interface{}{
			ps.PixelID, ps.Index, ps.Region, string(ps.Area), ps.N,
			ps.Mean, ps.SD, ps.Min, ps.Max, ps.P90, ps.P95, cov, false, ps.Zero,
		})
	}
	return headers, rows
}

// regionalTable lays the grid out with groups as columns and one labeled row
// per statistic, the orientation the report consumers expect.
func regionalTable(grid *aggregate.RegionalStatistics) ([]string, [][]interface{}) {
	headers := []string{"Statistic"}
	for _, col := range grid.Columns {
		headers = append(headers, col.Label)
	}

	row := func(label string, pick func(c *aggregate.GroupColumn) interface{}) []interface{} {
		out := make([]interface{}, 0, len(grid.Columns)+1)
		out = append(out, label)
		for i := range grid.Columns {
			out = append(out, pick(&grid.Columns[i]))
		}
		return out
	}

	var rows [][]interface{}
	rows = append(rows,
		row("Zone", func(c *aggregate.GroupColumn) interface{} { return string(c.Area) }),
		row("Region", func(c *aggregate.GroupColumn) interface{} { return c.Region }),
		row("Loan Amount", func(c *aggregate.GroupColumn) interface{} { return cell(c.LoanAmount) }),
		row("Sum Insured", func(c *aggregate.GroupColumn) interface{} { return cell(c.SumInsured) }),
	)
	for _, year := range grid.Years {
		y := year
		rows = append(rows, row(strconv.Itoa(y), func(c *aggregate.GroupColumn) interface{} {
			return cell(c.AnnualTotals[y])
		}))
	}
	rows = append(rows,
		row("Average Payout", func(c *aggregate.GroupColumn) interface{} { return cell(c.Avg) }),
		row("Payout SD", func(c *aggregate.GroupColumn) interface{} { return cell(c.SD) }),
		row("Min Payout", func(c *aggregate.GroupColumn) interface{} { return cell(c.Min) }),
		row("Max Payout", func(c *aggregate.GroupColumn) interface{} { return cell(c.Max) }),
		row("P90 Payout", func(c *aggregate.GroupColumn) interface{} { return cell(c.P90) }),
		row("P95 Payout", func(c *aggregate.GroupColumn) interface{} { return cell(c.P95) }),
		row("Area CoV", func(c *aggregate.GroupColumn) interface{} { return cell(c.GroupCoV) }),
		row("Avg Pixel CoV", func(c *aggregate.GroupColumn) interface{} { return cell(c.AvgHealthyCoV) }),
		row("Pixel Count", func(c *aggregate.GroupColumn) interface{} { return c.PixelCount }),
		row("Blank Pixels", func(c *aggregate.GroupColumn) interface{} { return c.BlankPixels }),
		row("Zero Payout Pixels", func(c *aggregate.GroupColumn) interface{} { return c.ZeroPixels }),
		row("Blank or Zero Pixels", func(c *aggregate.GroupColumn) interface{} { return c.BlankPixels + c.ZeroPixels }),
	)
	return headers, rows
}

func chartTable(cd *aggregate.ChartData) ([]string, [][]interface{}) {
	headers := []string{"Year"}
	for _, area := range cd.Areas {
		headers = append(headers, string(area))
	}
	for _, area := range cd.Areas {
		headers = append(headers, string(area)+" Share %")
	}

	var rows [][]interface{}
	for i, year := range cd.Years {
		row := []interface{}{year}
		for _, area := range cd.Areas {
			row = append(row, cd.Totals[area][i])
		}
		for _, area := range cd.Areas {
			row = append(row, cd.Shares[area][i])
		}
		rows = append(rows, row)
	}
	return headers, rows
}

func diversificationTable(points []aggregate.DiversificationPoint, correlations []aggregate.ZonePairCorrelation) ([]string, [][]interface{}) {
	headers := []string{
		"Zone", "Avg Pixel CoV", "Zone CoV", "National CoV", "Benefit",
		"Healthy Pixels", "Corr. With", "Correlation", "Shared Years",
	}

	var rows [][]interface{}
	for _, p := range points {
		rows = append(rows, []interface{}{
			string(p.Area), cell(p.AvgPixelCoV), cell(p.AreaCoV), cell(p.NationalCoV),
			cell(p.Benefit), p.HealthyPixels, nil, nil, nil,
		})
	}
	for _, c := range correlations {
		rows = append(rows, []interface{}{
			string(c.A), nil, nil, nil, nil, nil, string(c.B), c.Correlation, c.Years,
		})
	}
	return headers, rows
}

// cell unwraps a nullable value into a workbook cell; nil stays blank.
func cell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}
