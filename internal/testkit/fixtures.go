// Package testkit generates deterministic synthetic input fixtures for tests.
package testkit

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"policypilot/domain/insurance"
)

// FixtureConfig controls the shape of a generated dataset.
type FixtureConfig struct {
	Seed      int64
	Pixels    int
	Years     int
	StartYear int

	// Regions to cycle pixels through; defaults to a two-zone spread.
	Regions []string
}

func (c FixtureConfig) withDefaults() FixtureConfig {
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.Pixels == 0 {
		c.Pixels = 6
	}
	if c.Years == 0 {
		c.Years = 10
	}
	if c.StartYear == 0 {
		c.StartYear = insurance.DefaultStartYear
	}
	if len(c.Regions) == 0 {
		c.Regions = []string{"Rukwa", "Dodoma", "Mwanza"}
	}
	return c
}

// Fixture holds one generated dataset as CSV text, one string per input file.
type Fixture struct {
	Crosswalk  string
	Thresholds string
	Timeseries string
}

// Generate builds a deterministic dataset: pixel indices start at 101,
// relative yields cluster around 1.0, thresholds around 1000.
func Generate(cfg FixtureConfig) Fixture {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))

	var crosswalk strings.Builder
	crosswalk.WriteString("pixel,region,district,villages,latitude,longitude,farmer_number,villages_in_pixel,pixel_loan_amount\n")
	for i := 0; i < cfg.Pixels; i++ {
		pixel := 101 + i
		region := cfg.Regions[i%len(cfg.Regions)]
		lat := -6.0 - rng.Float64()*4
		lon := 30.0 + rng.Float64()*8
		farmers := 20 + rng.Intn(180)
		loan := 1_000_000 + rng.Float64()*9_000_000
		fmt.Fprintf(&crosswalk, "%d,%s,%s District,Village_%d,%.5f,%.5f,%d,%d,%.2f\n",
			pixel, region, region, pixel, lat, lon, farmers, 1+rng.Intn(4), loan)
	}

	var thresholds strings.Builder
	thresholds.WriteString("pixel,threshold_yield\n")
	for i := 0; i < cfg.Pixels; i++ {
		fmt.Fprintf(&thresholds, "%d,%.1f\n", 101+i, 800+rng.Float64()*400)
	}

	var series strings.Builder
	series.WriteString("year")
	for i := 0; i < cfg.Pixels; i++ {
		fmt.Fprintf(&series, ",pixel %d", 101+i)
	}
	series.WriteString("\n")
	for y := 0; y < cfg.Years; y++ {
		fmt.Fprintf(&series, "%d", cfg.StartYear+y)
		for i := 0; i < cfg.Pixels; i++ {
			fmt.Fprintf(&series, ",%.4f", 0.5+rng.Float64())
		}
		series.WriteString("\n")
	}

	return Fixture{
		Crosswalk:  crosswalk.String(),
		Thresholds: thresholds.String(),
		Timeseries: series.String(),
	}
}

// WriteTo materializes the fixture as CSV files in dir and returns their
// paths in crosswalk, thresholds, timeseries order.
func (f Fixture) WriteTo(dir string) (string, string, string, error) {
	write := func(name, content string) (string, error) {
		path := filepath.Join(dir, name)
		return path, os.WriteFile(path, []byte(content), 0o644)
	}

	crosswalk, err := write("crosswalk.csv", f.Crosswalk)
	if err != nil {
		return "", "", "", err
	}
	thresholds, err := write("thresholds.csv", f.Thresholds)
	if err != nil {
		return "", "", "", err
	}
	series, err := write("timeseries.csv", f.Timeseries)
	if err != nil {
		return "", "", "", err
	}
	return crosswalk, thresholds, series, nil
}
