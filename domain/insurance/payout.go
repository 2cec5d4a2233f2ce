package insurance

import (
	"policypilot/domain/core"
	"policypilot/domain/stats"
)

// PayoutFraction evaluates the piecewise-linear payout curve: no payout above
// attach, full payout below detach, linear in between. A degenerate band
// (attach == detach) is treated as a vertical step function at the shared
// threshold.
func PayoutFraction(yieldAbs, attach, detach float64) float64 {
	if attach == detach {
		if yieldAbs < attach {
			return 1
		}
		return 0
	}
	switch {
	case yieldAbs > attach:
		return 0
	case yieldAbs < detach:
		return 1
	default:
		return (attach - yieldAbs) / (attach - detach)
	}
}

// SumInsured applies the fixed 40% insurance ratio to a loan amount.
func SumInsured(loanAmount float64) float64 {
	return loanAmount * SumInsuredRatio
}

// Thresholds computes the attach (p50) and detach (p15) thresholds from one
// pixel's absolute-yield history, linear-interpolation percentiles. Only that
// pixel's own series may be passed in; cross-pixel leakage would distort the
// band.
func Thresholds(yieldAbs []float64) (attach, detach float64, err error) {
	if len(yieldAbs) == 0 {
		return 0, 0, core.ErrInsufficientData
	}
	attach, err = stats.Quantile(yieldAbs, AttachPercentile)
	if err != nil {
		return 0, 0, err
	}
	detach, err = stats.Quantile(yieldAbs, DetachPercentile)
	if err != nil {
		return 0, 0, err
	}
	return attach, detach, nil
}

// Derive fills every derived field for one pixel and its observation history
// in place: absolute yields, the attach/detach band, sum insured, payout
// fractions and payout amounts. Observations with a null yield (or a pixel
// with no threshold metadata) keep null derived fields.
func Derive(rec *PixelRecord, obs []*YieldObservation) {
	if rec.LoanAmount != nil {
		si := SumInsured(*rec.LoanAmount)
		rec.SumInsured = &si
	}

	var history []float64
	for _, o := range obs {
		if o.YieldRelative == nil || rec.ThresholdYield == nil {
			continue
		}
		abs := *o.YieldRelative * *rec.ThresholdYield
		o.YieldAbs = &abs
		history = append(history, abs)
	}

	if len(history) == 0 {
		return
	}

	attach, detach, err := Thresholds(history)
	if err != nil {
		return
	}
	rec.Attach = &attach
	rec.Detach = &detach

	for _, o := range obs {
		if o.YieldAbs == nil {
			continue
		}
		fraction := PayoutFraction(*o.YieldAbs, attach, detach)
		o.PayoutFraction = &fraction
		if rec.SumInsured != nil {
			amount := fraction * *rec.SumInsured
			o.PayoutAmount = &amount
		}
	}
}
