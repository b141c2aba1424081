package main

import (
	"context"
	"log"
	"os"

	"ednastats/adapters/csvout"
	"ednastats/adapters/excel"
	"ednastats/adapters/plotdata"
	"ednastats/adapters/postgres"
	"ednastats/adapters/rng"
	"ednastats/app"
	"ednastats/internal"
	"ednastats/internal/config"
	"ednastats/internal/errors"
	"ednastats/ports"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if cfg.Paths.TaxaFile == "" {
		log.Fatal("Configuration error: TAXA_FILE is required")
	}

	logger := internal.NewDefaultLogger()
	logger.Info("[Main] eDNA statistics pipeline starting")

	csvWriter, err := csvout.NewWriter(cfg.Paths.OutDir)
	if err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	sinks := []ports.ResultSinkPort{csvWriter}

	if cfg.Archive.Enabled {
		repo, err := postgres.NewResultsRepository(cfg.Archive.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to archive database: %v", err)
		}
		defer repo.Close()
		sinks = append(sinks, repo)
		logger.Info("[Main] run archive enabled")
	}

	plotter, err := plotdata.NewWriter(cfg.Paths.OutDir)
	if err != nil {
		log.Fatalf("Failed to create plot output directory: %v", err)
	}

	loader := excel.NewLoader()
	pipeline := app.NewPipeline(
		cfg,
		logger,
		loader,
		loader,
		loader,
		plotter,
		rng.NewSeededSource(cfg.Analysis.Seed),
		sinks...,
	)

	if err := pipeline.Run(context.Background()); err != nil {
		logger.Error("[Main] pipeline failed (%s): %v", errors.GetCode(err), err)
		os.Exit(1)
	}
	logger.Info("[Main] pipeline finished, outputs in %s", cfg.Paths.OutDir)
}
