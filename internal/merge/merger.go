// Package merge joins the three tabular sources of the pilot into one long
// table keyed by pixel: the village/pixel crosswalk, the yield-threshold
// metadata, and the melted wide yield time series.
package merge

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"policypilot/adapters/excel"
	"policypilot/domain/insurance"
	"policypilot/internal"
	"policypilot/internal/errors"
	"policypilot/internal/schema"
)

// Sources names the three input files of the pipeline.
type Sources struct {
	CrosswalkFile  string
	ThresholdFile  string
	TimeseriesFile string
}

// Result is the merged long table plus the per-pixel metadata it was built
// from. Every (pixel, year) pair present in the time series is preserved even
// when crosswalk or threshold metadata is missing; the gaps stay null.
type Result struct {
	Pixels       []*insurance.PixelRecord
	Observations []*insurance.YieldObservation

	byIndex map[int]*insurance.PixelRecord
	byPixel map[int][]*insurance.YieldObservation
}

// Pixel returns the record for a numeric grid-cell index.
func (r *Result) Pixel(index int) (*insurance.PixelRecord, bool) {
	rec, ok := r.byIndex[index]
	return rec, ok
}

// ObservationsFor returns one pixel's observation history in year order.
func (r *Result) ObservationsFor(index int) []*insurance.YieldObservation {
	return r.byPixel[index]
}

// Merger loads and joins the input files.
type Merger struct {
	log *internal.Logger
}

// NewMerger creates a merger with the default logger.
func NewMerger() *Merger {
	return &Merger{log: internal.DefaultLogger}
}

// Load reads the three sources concurrently, resolves their schemas, melts
// the wide series, and performs the joins. Schema failures are fatal; data
// gaps are carried through as nulls.
func (m *Merger) Load(ctx context.Context, src Sources) (*Result, error) {
	var crosswalk, threshold, series *excel.Table

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := excel.NewDataReader(src.CrosswalkFile).ReadData()
		if err != nil {
			return errors.Wrapf(err, "failed to read crosswalk %s", src.CrosswalkFile)
		}
		crosswalk = t
		return nil
	})
	g.Go(func() error {
		t, err := excel.NewDataReader(src.ThresholdFile).ReadData()
		if err != nil {
			return errors.Wrapf(err, "failed to read threshold metadata %s", src.ThresholdFile)
		}
		threshold = t
		return nil
	})
	g.Go(func() error {
		t, err := excel.NewDataReader(src.TimeseriesFile).ReadData()
		if err != nil {
			return errors.Wrapf(err, "failed to read yield time series %s", src.TimeseriesFile)
		}
		series = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return m.Merge(src, crosswalk, threshold, series)
}

// Merge joins already-parsed tables; split out from Load for tests.
func (m *Merger) Merge(src Sources, crosswalk, threshold, series *excel.Table) (*Result, error) {
	pixels, err := m.parseCrosswalk(src.CrosswalkFile, crosswalk)
	if err != nil {
		return nil, err
	}

	thresholds, err := m.parseThresholds(src.ThresholdFile, threshold)
	if err != nil {
		return nil, err
	}

	long, err := MeltTimeseries(src.TimeseriesFile, series, m.log)
	if err != nil {
		return nil, err
	}

	// Left join A<-B: crosswalk rows without threshold metadata keep a nil
	// threshold yield.
	for index, rec := range pixels {
		rec.ThresholdYield = thresholds[index]
	}

	result := &Result{
		byIndex: pixels,
		byPixel: make(map[int][]*insurance.YieldObservation),
	}

	// The long series is the left side of the final join: pixels present
	// only in the time series get a placeholder record with null metadata.
	for _, lo := range long {
		rec, ok := pixels[lo.Index]
		if !ok {
			rec = &insurance.PixelRecord{
				Index:   lo.Index,
				PixelID: insurance.MakePixelID("", lo.Index),
				Area:    insurance.ZoneUnknown,
			}
			rec.ThresholdYield = thresholds[lo.Index]
			pixels[lo.Index] = rec
			m.log.Warn("[Merge] pixel %d appears in the time series but not in the crosswalk", lo.Index)
		}
		obs := &insurance.YieldObservation{
			PixelID:       rec.PixelID,
			Index:         lo.Index,
			Year:          lo.Year,
			YieldRelative: lo.Yield,
		}
		result.Observations = append(result.Observations, obs)
		result.byPixel[lo.Index] = append(result.byPixel[lo.Index], obs)
	}

	for _, rec := range pixels {
		result.Pixels = append(result.Pixels, rec)
	}
	sort.Slice(result.Pixels, func(i, j int) bool { return result.Pixels[i].Index < result.Pixels[j].Index })
	sort.Slice(result.Observations, func(i, j int) bool {
		a, b := result.Observations[i], result.Observations[j]
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.Year < b.Year
	})
	for _, obs := range result.byPixel {
		sort.Slice(obs, func(i, j int) bool { return obs[i].Year < obs[j].Year })
	}

	m.log.Info("[Merge] merged %d pixels, %d observations", len(result.Pixels), len(result.Observations))
	return result, nil
}

func (m *Merger) parseCrosswalk(file string, t *excel.Table) (map[int]*insurance.PixelRecord, error) {
	res, err := schema.Resolve(file, t.Headers, crosswalkFields)
	if err != nil {
		return nil, err
	}

	pixels := make(map[int]*insurance.PixelRecord)
	for i, row := range t.Rows {
		index, ok := parseIndex(row[res[FieldPixel]])
		if !ok {
			m.log.Warn("[Merge] %s row %d: unparseable pixel id %q, row skipped", file, i+2, row[res[FieldPixel]])
			continue
		}
		if _, exists := pixels[index]; exists {
			m.log.Warn("[Merge] %s row %d: duplicate pixel %d, first row kept", file, i+2, index)
			continue
		}

		region := row[res[FieldRegion]]
		zone, loose := insurance.MatchZoneLoose(region)
		if loose {
			m.log.Warn("[Merge] region %q matched zone %q only via loose containment", region, zone)
		}
		if zone == insurance.ZoneUnknown && region != "" {
			m.log.Warn("[Merge] region %q not in the zone table, mapped to %q", region, zone)
		}

		rec := &insurance.PixelRecord{
			Index:      index,
			PixelID:    insurance.MakePixelID(region, index),
			Region:     region,
			Area:       zone,
			LoanAmount: parseNullableFloat(row[res[FieldLoanAmount]]),
		}
		if h, ok := res.Header(FieldDistrict); ok {
			rec.District = row[h]
		}
		if h, ok := res.Header(FieldVillage); ok {
			rec.Village = row[h]
		}
		if v := parseNullableFloat(row[res[FieldLatitude]]); v != nil {
			rec.Latitude = *v
		}
		if v := parseNullableFloat(row[res[FieldLongitude]]); v != nil {
			rec.Longitude = *v
		}
		if h, ok := res.Header(FieldFarmerCount); ok {
			rec.FarmerCount = parseCount(row[h])
		}
		if h, ok := res.Header(FieldVillageCount); ok {
			rec.VillageCount = parseCount(row[h])
		}
		pixels[index] = rec
	}
	return pixels, nil
}

func (m *Merger) parseThresholds(file string, t *excel.Table) (map[int]*float64, error) {
	res, err := schema.Resolve(file, t.Headers, thresholdFields)
	if err != nil {
		return nil, err
	}

	thresholds := make(map[int]*float64)
	for i, row := range t.Rows {
		index, ok := parseIndex(row[res[FieldPixel]])
		if !ok {
			m.log.Warn("[Merge] %s row %d: unparseable pixel id %q, row skipped", file, i+2, row[res[FieldPixel]])
			continue
		}
		thresholds[index] = parseNullableFloat(row[res[FieldThreshold]])
	}
	return thresholds, nil
}

// parseIndex accepts integer pixel ids, including float-formatted ones
// ("12.0") produced by spreadsheet round-trips.
func parseIndex(raw string) (int, bool) {
	trimmed := strings.TrimSpace(raw)
	if idx, err := strconv.Atoi(trimmed); err == nil {
		return idx, true
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || v != float64(int(v)) {
		return 0, false
	}
	return int(v), true
}

func parseCount(raw string) int {
	idx, ok := parseIndex(raw)
	if !ok || idx < 0 {
		return 0
	}
	return idx
}
