package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"storefront/internal/catalog"
	"storefront/internal/db"
	"storefront/internal/seeds"
)

func main() {
	fixtures := flag.String("fixtures", "internal/seeds/catalog.yaml", "path to the catalog fixture file")
	flag.Parse()

	_ = godotenv.Load(".env.local")

	gdb, err := db.Connect(os.Getenv("DATABASE_URL"), false)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := catalog.Migrate(gdb); err != nil {
		log.Fatal("Failed to migrate catalog tables: ", err)
	}

	if err := seeds.SeedCatalog(gdb, *fixtures); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Catalog seeded")
}
