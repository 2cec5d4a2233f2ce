package aggregate

import (
	"fmt"
	"sort"

	"policypilot/domain/insurance"
	"policypilot/domain/stats"
)

// GroupKind distinguishes the three column tiers of the regional grid.
type GroupKind int

const (
	GroupRegion GroupKind = iota
	GroupArea
	GroupNational
)

// GroupColumn is one column of the regional statistics grid: a region, a
// zone total or the overall total. AnnualTotals maps year to the group's
// summed payout for that year; the entry is nil when no pixel in the group
// had a payout that year, which is reported as a blank, never as zero.
type GroupColumn struct {
	Label  string
	Kind   GroupKind
	Area   insurance.Zone
	Region string

	LoanAmount *float64
	SumInsured *float64

	AnnualTotals map[int]*float64

	Avg *float64
	SD  *float64
	Min *float64
	Max *float64
	P90 *float64
	P95 *float64

	// GroupCoV is the CoV of the group's own annual-total series ("Area
	// CoV" in the report). Nil when undefined.
	GroupCoV *float64

	PixelCount  int
	BlankPixels int
	ZeroPixels  int

	// AvgHealthyCoV averages the CoV of the group's healthy pixels. Nil
	// when the group has none.
	AvgHealthyCoV *float64
}

// RegionalStatistics is the full grid: one column per region with data,
// followed by per-zone totals and the overall total, over a shared year axis.
type RegionalStatistics struct {
	Years   []int
	Columns []GroupColumn
}

// Column finds a grid column by label.
func (r *RegionalStatistics) Column(label string) (*GroupColumn, bool) {
	for i := range r.Columns {
		if r.Columns[i].Label == label {
			return &r.Columns[i], true
		}
	}
	return nil, false
}

// BuildRegionalStatistics rolls the derived table up into the regional grid.
// Regions appear in zone order, then per-zone "<Zone> Total" columns, then
// "Overall Total". Summary statistics are computed over each column's
// non-null annual totals.
func BuildRegionalStatistics(
	pixels []*insurance.PixelRecord,
	pixelStats []PixelStats,
	obsByPixel func(index int) []*insurance.YieldObservation,
) *RegionalStatistics {
	years := observationYears(pixels, obsByPixel)
	statsByIndex := make(map[int]PixelStats, len(pixelStats))
	for _, ps := range pixelStats {
		statsByIndex[ps.Index] = ps
	}

	regionOrder, regionPixels := groupByRegion(pixels)

	grid := &RegionalStatistics{Years: years}
	for _, region := range regionOrder {
		members := regionPixels[region]
		col := buildColumn(region, GroupRegion, members, statsByIndex, years, obsByPixel)
		col.Region = region
		col.Area = members[0].Area
		grid.Columns = append(grid.Columns, col)
	}

	zonePixels := make(map[insurance.Zone][]*insurance.PixelRecord)
	for _, rec := range pixels {
		zonePixels[rec.Area] = append(zonePixels[rec.Area], rec)
	}
	for _, zone := range append(append([]insurance.Zone{}, insurance.Zones...), insurance.ZoneUnknown) {
		members := zonePixels[zone]
		if len(members) == 0 {
			continue
		}
		col := buildColumn(fmt.Sprintf("%s Total", zone), GroupArea, members, statsByIndex, years, obsByPixel)
		col.Area = zone
		grid.Columns = append(grid.Columns, col)
	}

	national := buildColumn("Overall Total", GroupNational, pixels, statsByIndex, years, obsByPixel)
	grid.Columns = append(grid.Columns, national)

	return grid
}

func buildColumn(
	label string,
	kind GroupKind,
	members []*insurance.PixelRecord,
	statsByIndex map[int]PixelStats,
	years []int,
	obsByPixel func(index int) []*insurance.YieldObservation,
) GroupColumn {
	col := GroupColumn{
		Label:        label,
		Kind:         kind,
		AnnualTotals: make(map[int]*float64, len(years)),
		PixelCount:   len(members),
	}

	for _, rec := range members {
		col.LoanAmount = addNullable(col.LoanAmount, rec.LoanAmount)
		col.SumInsured = addNullable(col.SumInsured, rec.SumInsured)

		for _, o := range obsByPixel(rec.Index) {
			if o.PayoutAmount == nil {
				continue
			}
			col.AnnualTotals[o.Year] = addNullable(col.AnnualTotals[o.Year], o.PayoutAmount)
		}

		ps, ok := statsByIndex[rec.Index]
		if !ok {
			continue
		}
		if ps.Blank {
			col.BlankPixels++
		}
		if ps.Zero {
			col.ZeroPixels++
		}
	}

	var series []float64
	for _, year := range years {
		if v := col.AnnualTotals[year]; v != nil {
			series = append(series, *v)
		}
	}
	if summary, err := stats.Describe(series); err == nil {
		col.Avg = ptr(summary.Mean)
		col.SD = ptr(summary.SD)
		col.Min = ptr(summary.Min)
		col.Max = ptr(summary.Max)
		col.P90 = ptr(summary.P90)
		col.P95 = ptr(summary.P95)
		if cov, ok := stats.CoV(summary.Mean, summary.SD); ok {
			col.GroupCoV = ptr(cov)
		}
	}

	var covSum float64
	var covN int
	for _, rec := range members {
		ps, ok := statsByIndex[rec.Index]
		if !ok || !ps.Healthy() {
			continue
		}
		covSum += ps.CoV
		covN++
	}
	if covN > 0 {
		col.AvgHealthyCoV = ptr(covSum / float64(covN))
	}

	return col
}

// observationYears collects the distinct years present across all pixels.
func observationYears(pixels []*insurance.PixelRecord, obsByPixel func(index int) []*insurance.YieldObservation) []int {
	seen := make(map[int]struct{})
	for _, rec := range pixels {
		for _, o := range obsByPixel(rec.Index) {
			seen[o.Year] = struct{}{}
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// groupByRegion buckets pixels by region name, ordering regions by zone and
// then alphabetically within the zone. Pixels with an empty region are
// grouped under "Unmapped".
func groupByRegion(pixels []*insurance.PixelRecord) ([]string, map[string][]*insurance.PixelRecord) {
	byRegion := make(map[string][]*insurance.PixelRecord)
	zoneRank := make(map[string]int)
	for _, rec := range pixels {
		region := rec.Region
		if region == "" {
			region = "Unmapped"
		}
		byRegion[region] = append(byRegion[region], rec)
		if _, ok := zoneRank[region]; !ok {
			zoneRank[region] = rankZone(rec.Area)
		}
	}

	order := make([]string, 0, len(byRegion))
	for region := range byRegion {
		order = append(order, region)
	}
	sort.Slice(order, func(i, j int) bool {
		if zoneRank[order[i]] != zoneRank[order[j]] {
			return zoneRank[order[i]] < zoneRank[order[j]]
		}
		return order[i] < order[j]
	})
	return order, byRegion
}

func rankZone(zone insurance.Zone) int {
	for i, z := range insurance.Zones {
		if z == zone {
			return i
		}
	}
	return len(insurance.Zones)
}

// addNullable sums two nullable values; nil + nil stays nil, nil + x is x.
func addNullable(acc, v *float64) *float64 {
	if v == nil {
		return acc
	}
	if acc == nil {
		return ptr(*v)
	}
	sum := *acc + *v
	return &sum
}

func ptr(v float64) *float64 { return &v }
