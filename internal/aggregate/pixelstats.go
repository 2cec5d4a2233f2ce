// Package aggregate rolls the derived long table up into the report views:
// per-pixel payout statistics, the regional statistics grid, chart series and
// the diversification-benefit analysis.
package aggregate

import (
	"sort"

	"policypilot/domain/insurance"
	"policypilot/domain/stats"
)

// PixelStats is the descriptive summary of one pixel's payout-amount history.
// Blank marks a pixel whose every payout is null (no usable yield or no
// metadata); Zero marks a pixel with data whose payouts are all exactly zero.
// CoVDefined is false when the mean payout is zero, which makes the ratio
// undefined.
type PixelStats struct {
	PixelID string
	Index   int
	Region  string
	Area    insurance.Zone

	N    int
	Mean float64
	SD   float64
	Min  float64
	Max  float64
	P90  float64
	P95  float64

	CoV        float64
	CoVDefined bool

	Blank bool
	Zero  bool
}

// Healthy reports whether the pixel contributes to averaged-CoV figures:
// it has payout data and a defined, non-degenerate CoV.
func (p PixelStats) Healthy() bool {
	return !p.Blank && !p.Zero && p.CoVDefined
}

// BuildPixelStats summarizes each pixel's payout amounts, in index order.
func BuildPixelStats(pixels []*insurance.PixelRecord, obsByPixel func(index int) []*insurance.YieldObservation) []PixelStats {
	out := make([]PixelStats, 0, len(pixels))
	for _, rec := range pixels {
		ps := PixelStats{
			PixelID: rec.PixelID,
			Index:   rec.Index,
			Region:  rec.Region,
			Area:    rec.Area,
		}

		var payouts []float64
		for _, o := range obsByPixel(rec.Index) {
			if o.PayoutAmount != nil {
				payouts = append(payouts, *o.PayoutAmount)
			}
		}

		if len(payouts) == 0 {
			ps.Blank = true
			out = append(out, ps)
			continue
		}

		summary, err := stats.Describe(payouts)
		if err != nil {
			ps.Blank = true
			out = append(out, ps)
			continue
		}

		ps.N = summary.N
		ps.Mean = summary.Mean
		ps.SD = summary.SD
		ps.Min = summary.Min
		ps.Max = summary.Max
		ps.P90 = summary.P90
		ps.P95 = summary.P95
		ps.CoV, ps.CoVDefined = stats.CoV(summary.Mean, summary.SD)
		ps.Zero = summary.Max == 0

		out = append(out, ps)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
