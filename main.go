package main

import (
	"log"
	"os"
	"path/filepath"

	"punish-bot/bot"
	"punish-bot/config"
	"punish-bot/handlers"
	"punish-bot/utils/database/punishdb"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), os.ModePerm); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	db, err := punishdb.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	if err := db.SeedCatalog(cfg.CatalogSeed); err != nil {
		log.Fatalf("Error seeding punishment catalog: %v", err)
	}

	b, err := bot.New(cfg, db)
	if err != nil {
		log.Fatalf("Error creating bot: %v", err)
	}

	handlers.Register(b)

	b.Run()

	defer b.Close()
}
