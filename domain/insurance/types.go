// Package insurance holds the core entities of the index-insurance pilot:
// simulation grid cells ("pixels"), their yearly yield observations, and the
// payout band derived from each pixel's own yield history.
package insurance

import (
	"fmt"
	"strings"
	"time"

	"policypilot/domain/core"
)

// Policy constants of the pilot. Sum insured is fixed at 40% of the loan
// amount; the payout band attaches at the median absolute yield and detaches
// at the 15th percentile.
const (
	SumInsuredRatio  = 0.4
	AttachPercentile = 0.50
	DetachPercentile = 0.15

	// Simulation period bounds, used for year-column detection and for
	// defaulting row ordinals to calendar years.
	MinSimulationYear = 1981
	MaxSimulationYear = 2022
	DefaultStartYear  = 1981
)

// PixelRecord is one simulation grid cell, standing in for the aggregated
// farmer locations mapped to it. Nullable fields stay nil when the source
// metadata had no matching row; nulls propagate rather than defaulting to
// zero, since a zero payout is a materially different statement.
type PixelRecord struct {
	PixelID  string
	Index    int
	Region   string
	District string
	Area     Zone
	Village  string

	Latitude  float64
	Longitude float64

	FarmerCount  int
	VillageCount int

	LoanAmount     *float64
	SumInsured     *float64
	ThresholdYield *float64

	Attach *float64
	Detach *float64
}

// YieldObservation is one (pixel, year) pair with its derived payout fields.
type YieldObservation struct {
	PixelID string
	Index   int
	Year    int

	YieldRelative  *float64
	YieldAbs       *float64
	PayoutFraction *float64
	PayoutAmount   *float64
}

// ReportRun is the persisted record of one report-generation run.
type ReportRun struct {
	ID               core.ID
	GeneratedAt      time.Time
	PixelCount       int
	ObservationCount int
	TotalSumInsured  float64
	ExpectedLoss     *float64
	WorkbookPath     string
}

// AnnualTotal is one group's payout total for one year, the flattened form
// stored by the optional run store.
type AnnualTotal struct {
	Group  string
	Area   string
	Year   int
	Amount float64
}

// MakePixelID builds the synthetic pixel identifier: a short region-code
// prefix plus the numeric grid-cell index, e.g. "RUK-102".
func MakePixelID(region string, index int) string {
	return fmt.Sprintf("%s-%d", regionCode(region), index)
}

func regionCode(region string) string {
	var code []rune
	for _, r := range strings.ToUpper(region) {
		if r >= 'A' && r <= 'Z' {
			code = append(code, r)
			if len(code) == 3 {
				break
			}
		}
	}
	if len(code) == 0 {
		return "PIX"
	}
	return string(code)
}
