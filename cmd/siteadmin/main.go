package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/fernwebstudio/siteadmin/internal/admin/app"
)

func main() {
	// Local development convenience; production sets real env vars.
	_ = godotenv.Load()

	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
