package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/dbravo/ad-intel/internal/ingest"
	"github.com/dbravo/ad-intel/internal/models"
	"github.com/dbravo/ad-intel/internal/report"
)

func main() {
	var (
		keywordsFlag = flag.String("keywords", "Nike,Adidas", "comma-separated search keywords")
		platformFlag = flag.String("platform", "mock", "ad source: mock or metaweb")
		maxFlag      = flag.Int("max", 20, "maximum number of ads to collect")
		seedFlag     = flag.Int64("seed", 0, "mock generator seed (0 = time-based)")
		outFlag      = flag.String("out", "", "directory for JSON/CSV reports (empty = no files)")
		timeoutFlag  = flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	)
	flag.Parse()

	var keywords []string
	for _, k := range strings.Split(*keywordsFlag, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}

	opts := ingest.PipelineOptions{}
	if *seedFlag != 0 {
		opts.Mock.Rand = rand.New(rand.NewSource(*seedFlag))
	}

	pipeline, err := ingest.NewPipeline(opts)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	result, err := pipeline.Run(ctx, models.CollectRequest{
		Keywords:   keywords,
		Platform:   models.Platform(*platformFlag),
		MaxResults: *maxFlag,
	})
	if err != nil {
		log.Fatalf("Collection failed: %v", err)
	}

	report.RenderSummary(os.Stdout, result)

	if *outFlag != "" {
		paths, err := report.Save(*outFlag, result)
		if err != nil {
			log.Fatalf("Failed to write reports: %v", err)
		}
		for _, p := range paths {
			fmt.Printf("Wrote %s\n", p)
		}
	}
}
