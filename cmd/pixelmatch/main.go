// Command pixelmatch assigns farmer villages to their nearest simulation
// grid cell and writes the aggregated village/pixel crosswalk.
package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"policypilot/internal"
	"policypilot/internal/pixelmatch"
)

func main() {
	farmersFile := flag.String("farmers", "", "village-level input file (CSV or XLSX)")
	cellsFile := flag.String("cells", "", "pixel-centroid metadata file (CSV or XLSX)")
	outFile := flag.String("out", "crosswalk.csv", "output crosswalk path")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if *farmersFile == "" || *cellsFile == "" {
		log.Fatal("both -farmers and -cells are required")
	}

	farmers, err := pixelmatch.LoadFarmers(*farmersFile)
	if err != nil {
		log.Fatalf("Failed to load farmers: %v", err)
	}
	cells, err := pixelmatch.LoadGridCells(*cellsFile)
	if err != nil {
		log.Fatalf("Failed to load grid cells: %v", err)
	}

	matcher := pixelmatch.NewMatcher()
	assignments, err := matcher.Match(farmers, cells)
	if err != nil {
		log.Fatalf("Matching failed: %v", err)
	}
	rows, err := matcher.Aggregate(assignments)
	if err != nil {
		log.Fatalf("Aggregation failed: %v", err)
	}

	if err := pixelmatch.WriteCrosswalk(*outFile, rows); err != nil {
		log.Fatalf("Failed to write crosswalk: %v", err)
	}

	internal.DefaultLogger.Info("[Main] crosswalk written: %s (%d pixels from %d villages)",
		*outFile, len(rows), len(farmers))
}
