package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dbravo/ad-intel/internal/models"
)

const defaultWorkers = 8

// RunStore persists collection runs and their scored ads. A nil store
// disables persistence; the pipeline result is unaffected either way.
type RunStore interface {
	CreateRun(ctx context.Context, run *models.CollectionRun) error
	CompleteRun(ctx context.Context, run *models.CollectionRun) error
	SaveScoredAds(ctx context.Context, runID uuid.UUID, ads []models.ScoredAd) error
}

// PipelineOptions configures a Pipeline. Zero values select defaults.
type PipelineOptions struct {
	Catalog *Catalog
	Scoring ScoringConfig
	Fetcher Fetcher     // metaweb page fetcher; nil = CollyFetcher
	Mock    MockOptions // mock generator tuning
	Store   RunStore    // nil = no persistence
	Workers int         // per-ad enrichment parallelism
}

// Pipeline runs the full collection flow: collect, normalize, enrich, score,
// aggregate. One Pipeline is safe for concurrent Run calls.
type Pipeline struct {
	cat       *Catalog
	extractor *FeatureExtractor
	classify  *Classifier
	scorer    *Scorer
	analyzer  *Analyzer
	fetcher   Fetcher
	mockOpts  MockOptions
	store     RunStore
	workers   int
}

func NewPipeline(opts PipelineOptions) (*Pipeline, error) {
	cat := opts.Catalog
	if cat == nil {
		var err error
		cat, err = DefaultCatalog()
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
	}
	scoring := opts.Scoring
	if scoring.CTRWeight == 0 && scoring.CVRWeight == 0 && scoring.EfficiencyWeight == 0 {
		scoring = DefaultScoringConfig()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Pipeline{
		cat:       cat,
		extractor: NewFeatureExtractor(cat),
		classify:  NewClassifier(cat),
		scorer:    NewScorer(scoring),
		analyzer:  NewAnalyzer(scoring),
		fetcher:   opts.Fetcher,
		mockOpts:  opts.Mock,
		store:     opts.Store,
		workers:   workers,
	}, nil
}

func (p *Pipeline) collector(cfg CollectionConfig) Collector {
	if cfg.Platform == models.PlatformMetaweb {
		return NewMetawebCollector(cfg, p.fetcher)
	}
	return NewMockCollector(cfg, p.cat, p.mockOpts)
}

// Run executes one collection end to end. A source failure with nothing
// collected fails the run; a failure after partial collection continues
// with what was fetched and marks the result truncated. An empty batch is
// not an error.
func (p *Pipeline) Run(ctx context.Context, req models.CollectRequest) (*models.CollectResult, error) {
	start := time.Now()

	cfg := CollectionConfig{
		Platform:   req.Platform,
		Keywords:   req.Keywords,
		MaxResults: req.MaxResults,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	run := &models.CollectionRun{
		ID:        uuid.New(),
		Platform:  cfg.Platform,
		Keywords:  cfg.Keywords,
		Status:    "running",
		StartedAt: start.UTC(),
	}
	if p.store != nil {
		if err := p.store.CreateRun(ctx, run); err != nil {
			log.Printf("[pipeline] failed to record run %s: %v", run.ID, err)
		}
	}

	log.Printf("[pipeline] run %s: collecting from %s, keywords=%v, max=%d",
		run.ID, cfg.Platform, cfg.Keywords, cfg.MaxResults)

	raw, truncated, err := p.collector(cfg).Collect(ctx)
	if err != nil && len(raw) == 0 {
		p.finishRun(ctx, run, "failed", 0, 0, 0, err)
		return &models.CollectResult{
			Success:              false,
			Message:              fmt.Sprintf("collection failed: %v", err),
			ExecutionTimeSeconds: time.Since(start).Seconds(),
			Timestamp:            time.Now().UTC(),
		}, err
	}
	if err != nil {
		log.Printf("[pipeline] run %s: continuing with %d partial records: %v", run.ID, len(raw), err)
		truncated = true
	}

	canonical, dropped := Normalize(raw)

	scored := make([]models.ScoredAd, len(canonical))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range canonical {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			ad := canonical[i]
			ad.Features = p.extractor.Extract(ad)
			ad.Classifications = p.classify.Classify(ad)
			scored[i] = p.scorer.Score(ad)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.finishRun(ctx, run, "failed", len(raw), len(scored), len(dropped), err)
		return nil, fmt.Errorf("enrichment aborted: %w", err)
	}

	analysis := p.analyzer.Summarize(scored)

	result := &models.CollectResult{
		Success:              true,
		Message:              fmt.Sprintf("collected %d ads from %s, scored %d", len(raw), cfg.Platform, len(scored)),
		Ads:                  scored,
		TotalCollected:       len(raw),
		TotalPreprocessed:    len(canonical),
		TotalClassified:      len(scored),
		DroppedRecords:       len(dropped),
		Truncated:            truncated,
		Analysis:             analysis,
		ExecutionTimeSeconds: time.Since(start).Seconds(),
		Timestamp:            time.Now().UTC(),
	}

	if p.store != nil && len(scored) > 0 {
		if err := p.store.SaveScoredAds(ctx, run.ID, scored); err != nil {
			log.Printf("[pipeline] failed to persist %d ads for run %s: %v", len(scored), run.ID, err)
		}
	}
	p.finishRun(ctx, run, "completed", len(raw), len(scored), len(dropped), nil)

	log.Printf("[pipeline] run %s: done in %.2fs (%d collected, %d scored, %d dropped)",
		run.ID, result.ExecutionTimeSeconds, len(raw), len(scored), len(dropped))
	return result, nil
}

func (p *Pipeline) finishRun(ctx context.Context, run *models.CollectionRun, status string, collected, scored, dropped int, runErr error) {
	if p.store == nil {
		return
	}
	now := time.Now().UTC()
	run.Status = status
	run.TotalCollected = collected
	run.TotalScored = scored
	run.DroppedRecords = dropped
	run.CompletedAt = &now
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if err := p.store.CompleteRun(ctx, run); err != nil {
		log.Printf("[pipeline] failed to finalize run %s: %v", run.ID, err)
	}
}

// IsSourceUnavailable reports whether err stems from the ad source being
// unreachable, as opposed to bad input or an internal failure.
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}
