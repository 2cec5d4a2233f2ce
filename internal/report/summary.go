package report

import (
	"fmt"
	"strings"

	"policypilot/domain/insurance"
	"policypilot/internal/aggregate"
)

// SummaryRow is one region line of the executive summary.
type SummaryRow struct {
	Region     string
	Area       insurance.Zone
	Pixels     int
	Farmers    int
	SumInsured *float64
	AvgPayout  *float64
}

// Summary is the executive summary of one run: per-region rows, portfolio
// totals, and the expected loss ratio (average annual payout over total sum
// insured). ExpectedLoss is nil when the portfolio has no sum insured.
type Summary struct {
	Rows []SummaryRow

	TotalPixels     int
	TotalFarmers    int
	TotalSumInsured float64
	TotalAvgPayout  float64
	ExpectedLoss    *float64
}

// BuildSummary condenses the regional grid into the executive summary.
func BuildSummary(pixels []*insurance.PixelRecord, grid *aggregate.RegionalStatistics) *Summary {
	farmersByRegion := make(map[string]int)
	for _, rec := range pixels {
		region := rec.Region
		if region == "" {
			region = "Unmapped"
		}
		farmersByRegion[region] += rec.FarmerCount
	}

	s := &Summary{}
	for _, col := range grid.Columns {
		if col.Kind != aggregate.GroupRegion {
			continue
		}
		row := SummaryRow{
			Region:     col.Label,
			Area:       col.Area,
			Pixels:     col.PixelCount,
			Farmers:    farmersByRegion[col.Label],
			SumInsured: col.SumInsured,
			AvgPayout:  col.Avg,
		}
		s.Rows = append(s.Rows, row)

		s.TotalPixels += row.Pixels
		s.TotalFarmers += row.Farmers
		if row.SumInsured != nil {
			s.TotalSumInsured += *row.SumInsured
		}
		if row.AvgPayout != nil {
			s.TotalAvgPayout += *row.AvgPayout
		}
	}

	if s.TotalSumInsured > 0 {
		el := s.TotalAvgPayout / s.TotalSumInsured
		s.ExpectedLoss = &el
	}
	return s
}

// RenderMarkdown renders the summary as a Markdown document. The viewer
// serves the rendered HTML; the file itself is also a deliverable.
func (s *Summary) RenderMarkdown(diversification []aggregate.DiversificationPoint) string {
	var b strings.Builder

	b.WriteString("# Policy Pilot Summary\n\n")
	b.WriteString(fmt.Sprintf("- Pixels: %d\n", s.TotalPixels))
	b.WriteString(fmt.Sprintf("- Farmers: %d\n", s.TotalFarmers))
	b.WriteString(fmt.Sprintf("- Total sum insured: %s\n", formatAmount(&s.TotalSumInsured)))
	if s.ExpectedLoss != nil {
		b.WriteString(fmt.Sprintf("- Expected loss: %.2f%%\n", *s.ExpectedLoss*100))
	} else {
		b.WriteString("- Expected loss: n/a (no sum insured)\n")
	}
	b.WriteString("\n## Regions\n\n")
	b.WriteString("| Region | Zone | Pixels | Farmers | Sum Insured | Avg Annual Payout |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|\n")
	for _, row := range s.Rows {
		b.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %s | %s |\n",
			row.Region, row.Area, row.Pixels, row.Farmers,
			formatAmount(row.SumInsured), formatAmount(row.AvgPayout)))
	}

	if len(diversification) > 0 {
		b.WriteString("\n## Diversification Benefit\n\n")
		b.WriteString("| Zone | Avg Pixel CoV | Zone CoV | Benefit |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, p := range diversification {
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				p.Area, formatRatio(p.AvgPixelCoV), formatRatio(p.AreaCoV), formatPercent(p.Benefit)))
		}
	}

	return b.String()
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatRatio(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.3f", *v)
}

func formatPercent(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}
