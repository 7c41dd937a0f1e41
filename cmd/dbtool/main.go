package main

import (
	"database/sql"
	"log"
	"strings"
	"traffic-reroute-service/internal/adapters/repositories"
	"traffic-reroute-service/internal/config"
	"traffic-reroute-service/internal/platform/db"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	driver, dsn, ok := db.Select(config.Get("DATABASE_URL", ""), config.Get("DB_PATH", ""))
	if !ok {
		log.Fatal("DATABASE_URL or DB_PATH is required")
	}

	store, err := db.Open(driver, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	presetPath := config.Get("PRESET_PATH", "")
	if err := initAndSeed(store, presetPath); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(store *sql.DB, presetPath string) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(store); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	preset, err := config.LoadPreset(presetPath)
	if err != nil {
		log.Fatalf("loading preset failed: %v", err)
	}

	name := strings.TrimSpace(preset.Name)
	if name == "" {
		name = "bundled"
	}
	log.Printf("Seeding network preset=%s intersections=%d roads=%d...", name, len(preset.Intersections), len(preset.Roads))
	if err := repositories.SeedTopology(store, preset.Topology()); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Seeding complete.")

	return nil
}
