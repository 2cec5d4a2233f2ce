// Command reportserver serves the generated report artifacts over HTTP.
package main

import (
	"log"

	"github.com/joho/godotenv"

	"policypilot/internal/config"
	"policypilot/ui"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadViewer()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	server := ui.NewServer(cfg)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
