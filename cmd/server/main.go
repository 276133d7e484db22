package main

import (
	"context"
	"log"
	"os"

	"github.com/dbravo/ad-intel/internal/api"
	"github.com/dbravo/ad-intel/internal/db"
	"github.com/dbravo/ad-intel/internal/ingest"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	ctx := context.Background()

	opts := ingest.PipelineOptions{}
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Printf("Database unavailable, running without persistence: %v", err)
	} else {
		defer pool.Close()
		if err := db.ApplyMigrations(ctx, pool); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		opts.Store = db.NewStore(pool)
	}

	pipeline, err := ingest.NewPipeline(opts)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	srv := api.NewServer(pool, pipeline)
	log.Printf("Server starting on port %s...", port)
	if err := srv.Start(port); err != nil {
		log.Fatal(err)
	}
}
