package merge

import (
	"regexp"
	"strconv"
	"strings"

	"policypilot/adapters/excel"
	"policypilot/domain/insurance"
	"policypilot/internal"
	"policypilot/internal/errors"
	"policypilot/internal/schema"
)

// longObservation is one melted (pixel, year) cell of the wide time series.
type longObservation struct {
	Index int
	Year  int
	Yield *float64
}

var (
	pixelNameRe = regexp.MustCompile(`(?i)pixel`)
	digitsRe    = regexp.MustCompile(`\d+`)
	numericRe   = regexp.MustCompile(`^\d+$`)
)

// MeltTimeseries unpivots the wide yield table (input C) into long form.
// A year column is detected when at least 80% of a column's numeric values
// fall inside the simulation period; without one, row ordinals map to
// sequential years from the default start year. Pixel columns are matched by
// a "pixel" substring or a pure-numeric name, with the numeric pixel index
// extracted from the column name.
func MeltTimeseries(file string, t *excel.Table, log *internal.Logger) ([]longObservation, error) {
	yearHeader, hasYearColumn := explicitYearColumn(t)
	if !hasYearColumn {
		yearHeader, hasYearColumn = detectYearColumn(t)
	}
	if hasYearColumn {
		log.Info("[Merge] detected year column %q in %s", yearHeader, file)
	} else {
		log.Info("[Merge] no year column in %s, defaulting rows to years from %d", file, insurance.DefaultStartYear)
	}

	columns := pixelColumns(t, yearHeader, log)
	if len(columns) == 0 {
		return nil, errors.SchemaError(file,
			[]string{"pixel columns (aliases: *pixel*, pure-numeric names)"}, t.Headers)
	}

	var out []longObservation
	for rowIdx, row := range t.Rows {
		year, ok := rowYear(row, yearHeader, hasYearColumn, rowIdx)
		if !ok {
			log.Warn("[Merge] %s row %d: unparseable year %q, row skipped", file, rowIdx+2, row[yearHeader])
			continue
		}
		for _, col := range columns {
			out = append(out, longObservation{
				Index: col.Index,
				Year:  year,
				Yield: parseNullableFloat(row[col.Header]),
			})
		}
	}
	return out, nil
}

type pixelColumn struct {
	Header string
	Index  int
}

func pixelColumns(t *excel.Table, yearHeader string, log *internal.Logger) []pixelColumn {
	var headers []string
	for _, h := range t.Headers {
		if h == yearHeader {
			continue
		}
		if pixelNameRe.MatchString(h) || numericRe.MatchString(strings.TrimSpace(h)) {
			headers = append(headers, h)
		}
	}
	// Fallback: treat every non-year column as a pixel column.
	if len(headers) == 0 {
		for _, h := range t.Headers {
			if h != yearHeader {
				headers = append(headers, h)
			}
		}
	}

	var columns []pixelColumn
	for _, h := range headers {
		index, ok := extractPixelIndex(h)
		if !ok {
			log.Warn("[Merge] column %q has no numeric pixel index, skipped", h)
			continue
		}
		columns = append(columns, pixelColumn{Header: h, Index: index})
	}
	return columns
}

// extractPixelIndex pulls the numeric pixel id out of a column name, either
// the first digit group ("pixel 17") or the whole name when purely numeric.
func extractPixelIndex(header string) (int, bool) {
	if m := digitsRe.FindString(header); m != "" {
		idx, err := strconv.Atoi(m)
		if err == nil {
			return idx, true
		}
	}
	idx, err := strconv.Atoi(strings.TrimSpace(header))
	if err == nil {
		return idx, true
	}
	return 0, false
}

// detectYearColumn finds a column whose numeric values are at least 80%
// inside the simulation period [1981, 2022].
func detectYearColumn(t *excel.Table) (string, bool) {
	for _, header := range t.Headers {
		numeric, inRange := 0, 0
		for _, raw := range t.Column(header) {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				continue
			}
			numeric++
			year := int(v)
			if year >= insurance.MinSimulationYear && year <= insurance.MaxSimulationYear {
				inRange++
			}
		}
		if numeric > 0 && float64(inRange)/float64(numeric) >= 0.8 {
			return header, true
		}
	}
	return "", false
}

func rowYear(row excel.RawRowData, yearHeader string, hasYearColumn bool, rowIdx int) (int, bool) {
	if !hasYearColumn {
		return insurance.DefaultStartYear + rowIdx, true
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[yearHeader]), 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// parseNullableFloat coerces malformed or empty numeric strings to null
// instead of raising; a null yield stays null all the way through the report.
func parseNullableFloat(raw string) *float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil
	}
	return &v
}

// explicitYearColumn honors an explicitly named year column ahead of the
// range-based detection.
func explicitYearColumn(t *excel.Table) (string, bool) {
	res, err := schema.Resolve("", t.Headers, []schema.Field{
		{Name: "year", Aliases: []string{"year", "years"}},
	})
	if err != nil {
		return "", false
	}
	return res.Header("year")
}
