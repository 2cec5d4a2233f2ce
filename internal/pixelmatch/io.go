package pixelmatch

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"policypilot/adapters/excel"
	"policypilot/internal"
	"policypilot/internal/schema"
)

var farmerFields = []schema.Field{
	{Name: "village", Aliases: []string{"village", "village_name"}, Required: true},
	{Name: "region", Aliases: []string{"region"}, Required: true},
	{Name: "district", Aliases: []string{"district"}, Required: true},
	{Name: "latitude", Aliases: []string{"latitude", "lat"}, Required: true},
	{Name: "longitude", Aliases: []string{"longitude", "lon", "long"}, Required: true},
	{Name: "loan_amount", Aliases: []string{"loan_amount", "loan", "village_loan_amount"}, Required: true},
	{Name: "farmers", Aliases: []string{"farmer_number", "farmers", "number_of_farmers"}},
}

var cellFields = []schema.Field{
	{Name: "pixel", Aliases: []string{"pixel", "pixel_id", "pixelid", "index_id"}, Required: true},
	{Name: "latitude", Aliases: []string{"latitude", "lat"}, Required: true},
	{Name: "longitude", Aliases: []string{"longitude", "lon", "long"}, Required: true},
}

// LoadFarmers reads the village-level input file.
func LoadFarmers(file string) ([]Farmer, error) {
	t, err := excel.NewDataReader(file).ReadData()
	if err != nil {
		return nil, err
	}
	res, err := schema.Resolve(file, t.Headers, farmerFields)
	if err != nil {
		return nil, err
	}

	log := internal.DefaultLogger
	var out []Farmer
	for i, row := range t.Rows {
		lat, latOK := parseFloat(row[res["latitude"]])
		lon, lonOK := parseFloat(row[res["longitude"]])
		if !latOK || !lonOK {
			log.Warn("[PixelMatch] %s row %d: missing coordinates, row skipped", file, i+2)
			continue
		}
		loan, _ := parseFloat(row[res["loan_amount"]])

		f := Farmer{
			Village:    row[res["village"]],
			Region:     row[res["region"]],
			District:   row[res["district"]],
			Latitude:   lat,
			Longitude:  lon,
			LoanAmount: loan,
			Farmers:    1,
		}
		if h, ok := res.Header("farmers"); ok {
			if n, okN := parseFloat(row[h]); okN && n > 0 {
				f.Farmers = int(n)
			}
		}
		out = append(out, f)
	}
	return out, nil
}

// LoadGridCells reads the pixel-centroid metadata file.
func LoadGridCells(file string) ([]GridCell, error) {
	t, err := excel.NewDataReader(file).ReadData()
	if err != nil {
		return nil, err
	}
	res, err := schema.Resolve(file, t.Headers, cellFields)
	if err != nil {
		return nil, err
	}

	log := internal.DefaultLogger
	var out []GridCell
	for i, row := range t.Rows {
		index, ok := parseFloat(row[res["pixel"]])
		if !ok {
			log.Warn("[PixelMatch] %s row %d: unparseable pixel id %q, row skipped", file, i+2, row[res["pixel"]])
			continue
		}
		lat, latOK := parseFloat(row[res["latitude"]])
		lon, lonOK := parseFloat(row[res["longitude"]])
		if !latOK || !lonOK {
			log.Warn("[PixelMatch] %s row %d: missing centroid coordinates, row skipped", file, i+2)
			continue
		}
		out = append(out, GridCell{Index: int(index), Latitude: lat, Longitude: lon})
	}
	return out, nil
}

// WriteCrosswalk writes the aggregated crosswalk in the layout the merge
// stage consumes.
func WriteCrosswalk(path string, rows []CrosswalkRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"pixel", "region", "district", "villages", "latitude", "longitude",
		"farmer_number", "villages_in_pixel", "pixel_loan_amount",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.Pixel),
			r.Region,
			r.District,
			r.Villages,
			strconv.FormatFloat(r.Latitude, 'f', 6, 64),
			strconv.FormatFloat(r.Longitude, 'f', 6, 64),
			strconv.Itoa(r.FarmerCount),
			strconv.Itoa(r.VillageCount),
			strconv.FormatFloat(r.LoanAmount, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func parseFloat(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
