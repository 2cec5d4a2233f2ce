package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policypilot/domain/insurance"
)

func f(v float64) *float64 { return &v }

// buildTestData assembles three derived pixels across two zones:
// 101 (Rukwa) and 102 (Iringa) in the Southern Highlands, 201 (Dodoma) in
// the Central zone. Pixel 102 pays nothing; pixel 301 has no data at all.
func buildTestData() ([]*insurance.PixelRecord, map[int][]*insurance.YieldObservation) {
	pixels := []*insurance.PixelRecord{
		{Index: 101, PixelID: "RUK-101", Region: "Rukwa", Area: insurance.ZoneSouthernHighlands,
			LoanAmount: f(1_000_000), SumInsured: f(400_000), FarmerCount: 50},
		{Index: 102, PixelID: "IRI-102", Region: "Iringa", Area: insurance.ZoneSouthernHighlands,
			LoanAmount: f(500_000), SumInsured: f(200_000), FarmerCount: 30},
		{Index: 201, PixelID: "DOD-201", Region: "Dodoma", Area: insurance.ZoneCentral,
			LoanAmount: f(2_000_000), SumInsured: f(800_000), FarmerCount: 80},
		{Index: 301, PixelID: "PIX-301", Area: insurance.ZoneUnknown},
	}

	obs := map[int][]*insurance.YieldObservation{
		101: {
			{Index: 101, Year: 1981, PayoutAmount: f(100_000)},
			{Index: 101, Year: 1982, PayoutAmount: f(0)},
			{Index: 101, Year: 1983, PayoutAmount: f(50_000)},
		},
		102: {
			{Index: 102, Year: 1981, PayoutAmount: f(0)},
			{Index: 102, Year: 1982, PayoutAmount: f(0)},
			{Index: 102, Year: 1983, PayoutAmount: f(0)},
		},
		201: {
			{Index: 201, Year: 1981, PayoutAmount: f(200_000)},
			{Index: 201, Year: 1982, PayoutAmount: f(80_000)},
			// 1983 has no payout data for this pixel.
			{Index: 201, Year: 1983, PayoutAmount: nil},
		},
		301: {
			{Index: 301, Year: 1981, PayoutAmount: nil},
		},
	}
	return pixels, obs
}

func obsFn(obs map[int][]*insurance.YieldObservation) func(int) []*insurance.YieldObservation {
	return func(index int) []*insurance.YieldObservation { return obs[index] }
}

func TestBuildPixelStats(t *testing.T) {
	pixels, obs := buildTestData()
	stats := BuildPixelStats(pixels, obsFn(obs))
	require.Len(t, stats, 4)

	byIndex := make(map[int]PixelStats)
	for _, ps := range stats {
		byIndex[ps.Index] = ps
	}

	healthy := byIndex[101]
	assert.Equal(t, 3, healthy.N)
	assert.InDelta(t, 50_000, healthy.Mean, 1e-6)
	assert.True(t, healthy.CoVDefined)
	assert.False(t, healthy.Blank)
	assert.False(t, healthy.Zero)
	assert.True(t, healthy.Healthy())

	zero := byIndex[102]
	assert.True(t, zero.Zero)
	assert.False(t, zero.Blank)
	assert.False(t, zero.CoVDefined, "all-zero payouts have an undefined CoV")
	assert.False(t, zero.Healthy())

	blank := byIndex[301]
	assert.True(t, blank.Blank)
	assert.Equal(t, 0, blank.N)
}

func TestRegionalGridColumns(t *testing.T) {
	pixels, obs := buildTestData()
	stats := BuildPixelStats(pixels, obsFn(obs))
	grid := BuildRegionalStatistics(pixels, stats, obsFn(obs))

	assert.Equal(t, []int{1981, 1982, 1983}, grid.Years)

	labels := make([]string, len(grid.Columns))
	for i, col := range grid.Columns {
		labels[i] = col.Label
	}
	// Regions in zone order, then zone totals, then the overall total.
	assert.Equal(t, []string{
		"Dodoma", "Iringa", "Rukwa", "Unmapped",
		"Central Zone Total", "Southern Highlands Zone Total", "Unknown Total",
		"Overall Total",
	}, labels)
}

func TestRegionalAnnualTotals(t *testing.T) {
	pixels, obs := buildTestData()
	stats := BuildPixelStats(pixels, obsFn(obs))
	grid := BuildRegionalStatistics(pixels, stats, obsFn(obs))

	sh, ok := grid.Column("Southern Highlands Zone Total")
	require.True(t, ok)
	require.NotNil(t, sh.AnnualTotals[1981])
	assert.InDelta(t, 100_000, *sh.AnnualTotals[1981], 1e-6)

	national, ok := grid.Column("Overall Total")
	require.True(t, ok)
	require.NotNil(t, national.AnnualTotals[1981])
	assert.InDelta(t, 300_000, *national.AnnualTotals[1981], 1e-6)

	// The zone total equals the sum of its member regions.
	rukwa, _ := grid.Column("Rukwa")
	iringa, _ := grid.Column("Iringa")
	for _, year := range grid.Years {
		var want float64
		var any bool
		for _, col := range []*GroupColumn{rukwa, iringa} {
			if v := col.AnnualTotals[year]; v != nil {
				want += *v
				any = true
			}
		}
		got := sh.AnnualTotals[year]
		if !any {
			assert.Nil(t, got)
			continue
		}
		require.NotNil(t, got)
		assert.InDelta(t, want, *got, 1e-6)
	}
}

func TestRegionalNilStaysNil(t *testing.T) {
	pixels, obs := buildTestData()
	stats := BuildPixelStats(pixels, obsFn(obs))
	grid := BuildRegionalStatistics(pixels, stats, obsFn(obs))

	// The Unmapped column (pixel 301) has no payout data at all.
	unmapped, ok := grid.Column("Unmapped")
	require.True(t, ok)
	for _, year := range grid.Years {
		assert.Nil(t, unmapped.AnnualTotals[year], "year %d must stay blank, not zero", year)
	}
	assert.Nil(t, unmapped.Avg)
	assert.Nil(t, unmapped.SumInsured)
	assert.Equal(t, 1, unmapped.BlankPixels)

	// Dodoma's 1983 total is null; its summary stats are computed over the
	// two non-null years.
	dodoma, ok := grid.Column("Dodoma")
	require.True(t, ok)
	assert.Nil(t, dodoma.AnnualTotals[1983])
	require.NotNil(t, dodoma.Avg)
	assert.InDelta(t, 140_000, *dodoma.Avg, 1e-6)
}

func TestRegionalCounters(t *testing.T) {
	pixels, obs := buildTestData()
	stats := BuildPixelStats(pixels, obsFn(obs))
	grid := BuildRegionalStatistics(pixels, stats, obsFn(obs))

	sh, _ := grid.Column("Southern Highlands Zone Total")
	assert.Equal(t, 2, sh.PixelCount)
	assert.Equal(t, 0, sh.BlankPixels)
	assert.Equal(t, 1, sh.ZeroPixels)

	national, _ := grid.Column("Overall Total")
	assert.Equal(t, 4, national.PixelCount)
	assert.Equal(t, 1, national.BlankPixels)
	assert.Equal(t, 1, national.ZeroPixels)
	require.NotNil(t, national.SumInsured)
	assert.InDelta(t, 1_400_000, *national.SumInsured, 1e-6)
}

func TestDiversificationBenefit(t *testing.T) {
	pixels, obs := buildTestData()
	stats := BuildPixelStats(pixels, obsFn(obs))
	grid := BuildRegionalStatistics(pixels, stats, obsFn(obs))

	points := BuildDiversification(grid)
	require.NotEmpty(t, points)

	byZone := make(map[insurance.Zone]DiversificationPoint)
	for _, p := range points {
		byZone[p.Area] = p
	}

	sh, ok := byZone[insurance.ZoneSouthernHighlands]
	require.True(t, ok)
	require.NotNil(t, sh.AvgPixelCoV)
	require.NotNil(t, sh.NationalCoV)
	require.NotNil(t, sh.Benefit)
	assert.InDelta(t, 1-*sh.NationalCoV / *sh.AvgPixelCoV, *sh.Benefit, 1e-9)
	assert.Equal(t, 1, sh.HealthyPixels)
}

func TestZoneCorrelations(t *testing.T) {
	pixels, obs := buildTestData()
	stats := BuildPixelStats(pixels, obsFn(obs))
	grid := BuildRegionalStatistics(pixels, stats, obsFn(obs))

	correlations := ZoneCorrelations(grid)
	require.NotEmpty(t, correlations)

	var found bool
	for _, c := range correlations {
		if c.A == insurance.ZoneCentral && c.B == insurance.ZoneSouthernHighlands ||
			c.A == insurance.ZoneSouthernHighlands && c.B == insurance.ZoneCentral {
			found = true
			assert.Equal(t, 2, c.Years, "Central has data for 1981 and 1982 only")
			assert.GreaterOrEqual(t, c.Correlation, -1.0)
			assert.LessOrEqual(t, c.Correlation, 1.0)
		}
	}
	assert.True(t, found)
}

func TestChartDataDenseSeries(t *testing.T) {
	pixels, obs := buildTestData()
	stats := BuildPixelStats(pixels, obsFn(obs))
	grid := BuildRegionalStatistics(pixels, stats, obsFn(obs))

	cd := BuildChartData(grid)
	assert.Equal(t, grid.Years, cd.Years)

	central := cd.Totals[insurance.ZoneCentral]
	require.Len(t, central, 3)
	assert.InDelta(t, 200_000, central[0], 1e-6)
	// 1983 has no Central data; charts get a zero, not a gap.
	assert.Equal(t, 0.0, central[2])

	// Shares per year sum to 100 where any zone paid.
	for i := range cd.Years {
		var sum, total float64
		for _, area := range cd.Areas {
			sum += cd.Shares[area][i]
			total += cd.Totals[area][i]
		}
		if total > 0 {
			assert.InDelta(t, 100.0, sum, 1e-6, "year %d", cd.Years[i])
		}
	}
}
