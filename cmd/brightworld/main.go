package main

import (
	"brightworld/internal/config"
	"brightworld/internal/database"
	"brightworld/internal/filter"
	"brightworld/internal/ingest"
	"brightworld/internal/rating"
	"brightworld/internal/scrape"
	"brightworld/internal/server"
	"brightworld/internal/source"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

var (
	// Version will be set during build
	Version = "dev"

	// Command line flags
	port        = flag.Int("port", 0, "Port to run the server on (default: 8080 or BRIGHTWORLD_PORT)")
	dbPath      = flag.String("db", "", "Path to database file (default: data/brightworld.db or BRIGHTWORLD_DB_PATH)")
	sourcesPath = flag.String("sources", "", "Path to sources config (default: configs/sources.yaml or BRIGHTWORLD_SOURCES)")
	version     = flag.Bool("version", false, "Print version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("BrightWorld version %s\n", Version)
		return
	}

	logger := log.New(os.Stdout, "brightworld: ", log.LstdFlags|log.Lshortfile)

	// Get base configuration from environment
	cfg := config.GetConfig()

	// Override with command line flags if provided
	if *port > 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *sourcesPath != "" {
		cfg.SourcesPath = *sourcesPath
	}

	logger.Printf("Starting BrightWorld v%s", Version)
	logger.Printf("Port: %d", cfg.Port)
	logger.Printf("Database: %s", cfg.DBPath)
	logger.Printf("Sources: %s", cfg.SourcesPath)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		logger.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := database.NewDB(cfg.DBPath, database.DefaultConfig())
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	srcCfg, err := source.LoadConfig(cfg.SourcesPath)
	if err != nil {
		logger.Fatalf("Failed to load sources config: %v", err)
	}

	httpClient := source.NewHTTPClient()
	adapters := source.BuildAdapters(srcCfg, httpClient, logger)
	if len(adapters) == 0 {
		logger.Fatalf("No usable sources configured")
	}
	logger.Printf("Configured %d sources", len(adapters))

	engine := filter.NewEngineWithTables(srcCfg.Keywords.Negative, srcCfg.Keywords.Trivial)

	ctx := context.Background()
	rater, err := rating.NewClient(ctx, rating.Config{
		APIKey:     cfg.GeminiAPIKey,
		DailyLimit: cfg.DailyLimit,
		BatchSize:  cfg.BatchSize,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize rating client: %v", err)
	}
	defer rater.Close()
	if cfg.GeminiAPIKey == "" {
		logger.Printf("GEMINI_API_KEY not set, articles will be stored pending")
	}

	resolver := scrape.NewResolver(httpClient, logger)
	pacer := rating.NewPacer(cfg.RatingPause)

	orch := ingest.NewOrchestrator(db, adapters, engine, rater, resolver, pacer, logger)

	sweeps := ingest.NewService(orch, ingest.Intervals{
		Fetch:     cfg.FetchInterval,
		Retry:     cfg.RetryInterval,
		Retention: cfg.RetentionInterval,
	}, logger)
	sweeps.Start()
	defer sweeps.Stop()

	srv := server.NewServer(db, logger, orch, rater)

	logger.Printf("Starting server on port %d", cfg.Port)
	if err := srv.Start(cfg.GetAddress()); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}
