// Package pixelmatch assigns farmer villages to simulation grid cells by
// great-circle distance and aggregates the assignments into the village/pixel
// crosswalk consumed by the pipeline.
package pixelmatch

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"policypilot/domain/core"
	"policypilot/internal"
	"policypilot/internal/errors"
)

// Farmer is one village-level input row: a named location with its loan.
type Farmer struct {
	Village    string
	Region     string
	District   string
	Latitude   float64
	Longitude  float64
	LoanAmount float64
	Farmers    int
}

// GridCell is one simulation pixel's centroid.
type GridCell struct {
	Index     int
	Latitude  float64
	Longitude float64
}

// CrosswalkRow is one aggregated pixel of the produced crosswalk: mean
// coordinates of the assigned villages, underscore-joined unique names, and
// the summed loan.
type CrosswalkRow struct {
	Pixel        int
	Region       string
	District     string
	Villages     string
	Latitude     float64
	Longitude    float64
	FarmerCount  int
	VillageCount int
	LoanAmount   float64
}

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const deg = math.Pi / 180
	dLat := (lat2 - lat1) * deg
	dLon := (lon2 - lon1) * deg

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*deg)*math.Cos(lat2*deg)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// Matcher assigns farmers to their nearest grid cell.
type Matcher struct {
	log *internal.Logger
}

// NewMatcher creates a matcher with the default logger.
func NewMatcher() *Matcher {
	return &Matcher{log: internal.DefaultLogger}
}

// Assignment is one farmer row with its matched cell and the distance to it.
type Assignment struct {
	Farmer     Farmer
	Cell       GridCell
	DistanceKm float64
}

// Match assigns every farmer to the nearest grid cell. Farmers without
// coordinates are rejected.
func (m *Matcher) Match(farmers []Farmer, cells []GridCell) ([]Assignment, error) {
	if len(cells) == 0 {
		return nil, errors.InvalidInput("no grid cells to match against")
	}

	out := make([]Assignment, 0, len(farmers))
	for _, f := range farmers {
		if f.Latitude == 0 && f.Longitude == 0 {
			return nil, errors.Wrapf(core.ErrNoCoordinates, "village %q in %s", f.Village, f.District)
		}

		best := cells[0]
		bestDist := Haversine(f.Latitude, f.Longitude, best.Latitude, best.Longitude)
		for _, c := range cells[1:] {
			d := Haversine(f.Latitude, f.Longitude, c.Latitude, c.Longitude)
			if d < bestDist {
				best, bestDist = c, d
			}
		}
		out = append(out, Assignment{Farmer: f, Cell: best, DistanceKm: bestDist})
	}

	m.log.Info("[PixelMatch] assigned %d villages to %d grid cells", len(farmers), len(cells))
	return out, nil
}

// Aggregate rolls assignments up into crosswalk rows, one per pixel. A pixel
// whose assigned villages span more than one district is a fatal data-quality
// error; the offending pixels and their districts are reported together.
func (m *Matcher) Aggregate(assignments []Assignment) ([]CrosswalkRow, error) {
	byPixel := make(map[int][]Assignment)
	for _, a := range assignments {
		byPixel[a.Cell.Index] = append(byPixel[a.Cell.Index], a)
	}

	if err := checkDistrictSpan(byPixel); err != nil {
		return nil, err
	}

	var rows []CrosswalkRow
	for pixel, group := range byPixel {
		row := CrosswalkRow{Pixel: pixel}

		var regions, districts, villages uniqueNames
		for _, a := range group {
			row.Latitude += a.Farmer.Latitude
			row.Longitude += a.Farmer.Longitude
			row.LoanAmount += a.Farmer.LoanAmount
			row.FarmerCount += a.Farmer.Farmers
			regions.add(a.Farmer.Region)
			districts.add(a.Farmer.District)
			villages.add(a.Farmer.Village)
		}
		row.Latitude /= float64(len(group))
		row.Longitude /= float64(len(group))
		row.Region = regions.joined()
		row.District = districts.joined()
		row.VillageCount = len(villages.names)
		row.Villages = villages.joined()

		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Pixel < rows[j].Pixel })
	return rows, nil
}

// uniqueNames accumulates distinct non-empty names for underscore-joining.
type uniqueNames struct {
	seen  map[string]struct{}
	names []string
}

func (u *uniqueNames) add(name string) {
	if name == "" {
		return
	}
	if u.seen == nil {
		u.seen = make(map[string]struct{})
	}
	if _, ok := u.seen[name]; ok {
		return
	}
	u.seen[name] = struct{}{}
	u.names = append(u.names, name)
}

func (u *uniqueNames) joined() string {
	sorted := append([]string{}, u.names...)
	sort.Strings(sorted)
	return strings.Join(sorted, "_")
}

// checkDistrictSpan rejects pixel groups whose villages come from more than
// one district. Such a pixel cannot be labeled with one administrative unit,
// so the run stops instead of guessing.
func checkDistrictSpan(byPixel map[int][]Assignment) error {
	var offenders []string
	pixels := make([]int, 0, len(byPixel))
	for p := range byPixel {
		pixels = append(pixels, p)
	}
	sort.Ints(pixels)

	for _, pixel := range pixels {
		districts := make(map[string]struct{})
		var names []string
		for _, a := range byPixel[pixel] {
			if _, seen := districts[a.Farmer.District]; !seen {
				districts[a.Farmer.District] = struct{}{}
				names = append(names, a.Farmer.District)
			}
		}
		if len(districts) > 1 {
			sort.Strings(names)
			offenders = append(offenders,
				fmt.Sprintf("pixel %d spans districts [%s]", pixel, strings.Join(names, ", ")))
		}
	}

	if len(offenders) > 0 {
		return errors.DataQuality("pixel groups span multiple districts: " + strings.Join(offenders, "; "))
	}
	return nil
}
