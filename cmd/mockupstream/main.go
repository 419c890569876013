// Command mockupstream serves a seeded stand-in for the Ziogram platform API so the
// console can run without the real backend.
package main

import (
	"log"
	"os"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/config"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/mockupstream"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.InitLogger(cfg.Env, os.Stdout)

	ds, err := mockupstream.Generate(mockupstream.Options{
		Seed:          cfg.MockSeed,
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		BaseURL:       "http://localhost:" + cfg.MockUpstreamPort,
	})
	if err != nil {
		log.Fatalf("Failed to generate dataset: %v", err)
	}

	observability.Logger.Info("Mock upstream starting",
		"port", cfg.MockUpstreamPort,
		"admin", cfg.AdminEmail)
	log.Fatal(mockupstream.New(ds).Listen(":" + cfg.MockUpstreamPort))
}
