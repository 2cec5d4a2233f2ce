package aggregate

import "policypilot/domain/insurance"

// ChartData is the tabular feed for downstream charting: annual payout totals
// per zone plus each zone's share of the year's national total. The series
// use zeros where a zone has no data for a year, since chart consumers cannot
// render gaps.
type ChartData struct {
	Years []int
	Areas []insurance.Zone

	// Totals[area][i] is the payout total for Years[i].
	Totals map[insurance.Zone][]float64

	// Shares[area][i] is the zone's percentage share of Years[i]'s
	// national total, 0 when the national total is 0.
	Shares map[insurance.Zone][]float64
}

// BuildChartData flattens the regional grid's zone columns into dense series.
func BuildChartData(grid *RegionalStatistics) *ChartData {
	cd := &ChartData{
		Years:  append([]int{}, grid.Years...),
		Totals: make(map[insurance.Zone][]float64),
		Shares: make(map[insurance.Zone][]float64),
	}

	for _, col := range grid.Columns {
		if col.Kind != GroupArea {
			continue
		}
		cd.Areas = append(cd.Areas, col.Area)
		series := make([]float64, len(cd.Years))
		for i, year := range cd.Years {
			if v := col.AnnualTotals[year]; v != nil {
				series[i] = *v
			}
		}
		cd.Totals[col.Area] = series
	}

	nationalByYear := make([]float64, len(cd.Years))
	for _, area := range cd.Areas {
		for i, v := range cd.Totals[area] {
			nationalByYear[i] += v
		}
	}
	for _, area := range cd.Areas {
		shares := make([]float64, len(cd.Years))
		for i, v := range cd.Totals[area] {
			if nationalByYear[i] != 0 {
				shares[i] = 100 * v / nationalByYear[i]
			}
		}
		cd.Shares[area] = shares
	}

	return cd
}
