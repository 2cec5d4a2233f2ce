package aggregate

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"policypilot/domain/insurance"
)

// DiversificationPoint quantifies the pooling benefit for one zone: the
// average volatility of its individual pixels against the volatility of the
// national book. Benefit is 1 - nationalCoV/avgPixelCoV; nil when the zone
// has no healthy pixels or the national CoV is undefined.
type DiversificationPoint struct {
	Area          insurance.Zone
	AvgPixelCoV   *float64
	AreaCoV       *float64
	NationalCoV   *float64
	Benefit       *float64
	HealthyPixels int
}

// BuildDiversification derives the per-zone diversification points from the
// regional grid. Zones appear in report order; zones absent from the grid are
// skipped.
func BuildDiversification(grid *RegionalStatistics) []DiversificationPoint {
	national, _ := grid.Column("Overall Total")

	var out []DiversificationPoint
	for _, zone := range insurance.Zones {
		col, ok := grid.Column(string(zone) + " Total")
		if !ok {
			continue
		}
		point := DiversificationPoint{
			Area:        zone,
			AvgPixelCoV: col.AvgHealthyCoV,
			AreaCoV:     col.GroupCoV,
		}
		if national != nil {
			point.NationalCoV = national.GroupCoV
		}
		if point.AvgPixelCoV != nil && *point.AvgPixelCoV != 0 && point.NationalCoV != nil {
			benefit := 1 - *point.NationalCoV / *point.AvgPixelCoV
			point.Benefit = &benefit
		}
		for i := range grid.Columns {
			c := &grid.Columns[i]
			if c.Kind == GroupArea && c.Area == zone {
				point.HealthyPixels = c.PixelCount - c.BlankPixels - c.ZeroPixels
			}
		}
		out = append(out, point)
	}
	return out
}

// ZonePairCorrelation is the Pearson correlation between two zones' annual
// payout-total series, computed over the years where both have data.
type ZonePairCorrelation struct {
	A, B        insurance.Zone
	Correlation float64
	Years       int
}

// ZoneCorrelations computes pairwise correlations between zone annual-total
// series. Pairs with fewer than two shared years are omitted.
func ZoneCorrelations(grid *RegionalStatistics) []ZonePairCorrelation {
	zoneSeries := make(map[insurance.Zone]map[int]float64)
	for _, col := range grid.Columns {
		if col.Kind != GroupArea {
			continue
		}
		series := make(map[int]float64)
		for year, v := range col.AnnualTotals {
			if v != nil {
				series[year] = *v
			}
		}
		zoneSeries[col.Area] = series
	}

	var out []ZonePairCorrelation
	for i, a := range insurance.Zones {
		for _, b := range insurance.Zones[i+1:] {
			sa, sb := zoneSeries[a], zoneSeries[b]
			if sa == nil || sb == nil {
				continue
			}

			var shared []int
			for year := range sa {
				if _, ok := sb[year]; ok {
					shared = append(shared, year)
				}
			}
			if len(shared) < 2 {
				continue
			}
			sort.Ints(shared)

			xs := make([]float64, len(shared))
			ys := make([]float64, len(shared))
			for j, year := range shared {
				xs[j] = sa[year]
				ys[j] = sb[year]
			}

			out = append(out, ZonePairCorrelation{
				A:           a,
				B:           b,
				Correlation: stat.Correlation(xs, ys, nil),
				Years:       len(shared),
			})
		}
	}
	return out
}
