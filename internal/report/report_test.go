package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policypilot/adapters/excel"
	"policypilot/domain/insurance"
	"policypilot/internal/aggregate"
	"policypilot/internal/config"
	"policypilot/internal/testkit"
)

func f(v float64) *float64 { return &v }

func TestBuildSummaryExpectedLoss(t *testing.T) {
	pixels := []*insurance.PixelRecord{
		{Index: 101, Region: "Rukwa", Area: insurance.ZoneSouthernHighlands, FarmerCount: 40},
		{Index: 201, Region: "Dodoma", Area: insurance.ZoneCentral, FarmerCount: 60},
	}
	grid := &aggregate.RegionalStatistics{
		Years: []int{1981},
		Columns: []aggregate.GroupColumn{
			{Label: "Dodoma", Kind: aggregate.GroupRegion, Area: insurance.ZoneCentral,
				PixelCount: 1, SumInsured: f(800_000), Avg: f(40_000)},
			{Label: "Rukwa", Kind: aggregate.GroupRegion, Area: insurance.ZoneSouthernHighlands,
				PixelCount: 1, SumInsured: f(400_000), Avg: f(20_000)},
			{Label: "Overall Total", Kind: aggregate.GroupNational},
		},
	}

	s := BuildSummary(pixels, grid)

	assert.Equal(t, 2, s.TotalPixels)
	assert.Equal(t, 100, s.TotalFarmers)
	assert.InDelta(t, 1_200_000, s.TotalSumInsured, 1e-6)
	assert.InDelta(t, 60_000, s.TotalAvgPayout, 1e-6)
	require.NotNil(t, s.ExpectedLoss)
	assert.InDelta(t, 0.05, *s.ExpectedLoss, 1e-9)
}

func TestBuildSummaryNoSumInsured(t *testing.T) {
	grid := &aggregate.RegionalStatistics{
		Columns: []aggregate.GroupColumn{
			{Label: "Unmapped", Kind: aggregate.GroupRegion, PixelCount: 1},
		},
	}
	s := BuildSummary(nil, grid)
	assert.Nil(t, s.ExpectedLoss)
}

func TestRenderMarkdown(t *testing.T) {
	s := &Summary{
		Rows: []SummaryRow{
			{Region: "Rukwa", Area: insurance.ZoneSouthernHighlands, Pixels: 3, Farmers: 120,
				SumInsured: f(400_000), AvgPayout: f(20_000)},
		},
		TotalPixels:     3,
		TotalFarmers:    120,
		TotalSumInsured: 400_000,
		TotalAvgPayout:  20_000,
		ExpectedLoss:    f(0.05),
	}

	md := s.RenderMarkdown(nil)
	assert.Contains(t, md, "# Policy Pilot Summary")
	assert.Contains(t, md, "Expected loss: 5.00%")
	assert.Contains(t, md, "| Rukwa |")
	assert.False(t, strings.Contains(md, "Diversification"), "no section without points")
}

func TestBuildAndExportEndToEnd(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	fixture := testkit.Generate(testkit.FixtureConfig{Pixels: 6, Years: 12})
	crosswalk, thresholds, series, err := fixture.WriteTo(inputDir)
	require.NoError(t, err)

	cfg := &config.Config{
		Inputs: config.InputConfig{
			CrosswalkFile:  crosswalk,
			ThresholdFile:  thresholds,
			TimeseriesFile: series,
		},
		Output: config.OutputConfig{
			Dir:          outputDir,
			WorkbookName: "report.xlsx",
		},
	}

	builder := NewBuilder(cfg, nil)
	rep, err := builder.Build(context.Background())
	require.NoError(t, err)

	assert.Len(t, rep.Merge.Pixels, 6)
	assert.Len(t, rep.Merge.Observations, 6*12)
	assert.NotEmpty(t, rep.PixelStats)
	assert.NotEmpty(t, rep.Regional.Columns)
	assert.NotEmpty(t, rep.Diversification)
	assert.False(t, rep.RunID.IsEmpty())

	workbook, err := builder.Export(context.Background(), rep)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outputDir, "report.xlsx"), workbook)

	for _, name := range []string{
		"report.xlsx", "final_table.csv", "pixel_stats.csv",
		"regional_statistics.csv", "regional_statistics.json", "summary.md",
	} {
		_, err := os.Stat(filepath.Join(outputDir, name))
		assert.NoError(t, err, "expected artifact %s", name)
	}

	table, err := excel.NewDataReader(workbook).ReadData()
	require.NoError(t, err)
	assert.Contains(t, table.Headers, "payout_amount")
	assert.Len(t, table.Rows, 6*12)
}
