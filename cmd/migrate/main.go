package main

import (
	"flag"
	"log"

	"taskward/cmd/internal/app"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg := app.LoadConfig()
	if err := app.RunMigrations(cfg.DatabaseURL, *direction); err != nil {
		log.Fatalf("migration %s failed: %v", *direction, err)
	}
	log.Printf("migration %s done", *direction)
}
