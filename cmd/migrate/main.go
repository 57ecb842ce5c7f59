// Command migrate applies all pending schema migrations.
// It is intended to run as a deploy step before the server starts.
//
// Requires DATABASE_DSN environment variable to be set.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"log"
	"os"

	"github.com/heartmarshall/phrasebook-backend/internal/adapter/postgres"
)

func main() {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		log.Fatal("DATABASE_DSN environment variable is required")
	}

	if err := postgres.Migrate(dsn); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	log.Println("migrations applied")
}
