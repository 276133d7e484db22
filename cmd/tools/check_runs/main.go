package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dbravo/ad-intel/internal/db"
)

func main() {
	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, "SELECT id, platform, status, total_collected, total_scored, dropped_records, started_at, completed_at FROM collection_runs ORDER BY started_at DESC LIMIT 10")
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Run", "Platform", "Status", "Collected", "Scored", "Dropped", "Duration", "Started At"})

	for rows.Next() {
		var runID, platform, status string
		var collected, scored, dropped int
		var startedAt time.Time
		var completedAt *time.Time

		if err := rows.Scan(&runID, &platform, &status, &collected, &scored, &dropped, &startedAt, &completedAt); err != nil {
			log.Printf("Scan error: %v", err)
			continue
		}

		duration := "Running..."
		if completedAt != nil {
			duration = completedAt.Sub(startedAt).Round(time.Second).String()
		}

		t.AppendRow(table.Row{runID[:8], platform, status, collected, scored, dropped, duration, startedAt.Format("15:04:05")})
	}
	t.Render()
}
