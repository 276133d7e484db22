package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/dbravo/ad-intel/internal/models"
)

type memoryStore struct {
	mu        sync.Mutex
	created   []*models.CollectionRun
	completed []*models.CollectionRun
	saved     map[uuid.UUID][]models.ScoredAd
}

func newMemoryStore() *memoryStore {
	return &memoryStore{saved: make(map[uuid.UUID][]models.ScoredAd)}
}

func (s *memoryStore) CreateRun(ctx context.Context, run *models.CollectionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, run)
	return nil
}

func (s *memoryStore) CompleteRun(ctx context.Context, run *models.CollectionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = append(s.completed, run)
	return nil
}

func (s *memoryStore) SaveScoredAds(ctx context.Context, runID uuid.UUID, ads []models.ScoredAd) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[runID] = ads
	return nil
}

func testPipeline(t *testing.T, opts PipelineOptions) *Pipeline {
	t.Helper()
	if opts.Mock.MaxDelay == 0 {
		opts.Mock = fastMockOptions(99)
	}
	p, err := NewPipeline(opts)
	if err != nil {
		t.Fatalf("failed to build pipeline: %v", err)
	}
	return p
}

func TestPipelineMockRun(t *testing.T) {
	p := testPipeline(t, PipelineOptions{})

	result, err := p.Run(context.Background(), models.CollectRequest{
		Keywords:   []string{"Nike", "Adidas"},
		Platform:   models.PlatformMock,
		MaxResults: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Success {
		t.Error("expected a successful run")
	}
	if len(result.Ads) != 10 {
		t.Fatalf("expected exactly 10 scored ads, got %d", len(result.Ads))
	}
	if result.TotalCollected != 10 || result.TotalPreprocessed != 10 || result.TotalClassified != 10 {
		t.Errorf("unexpected counters: %+v", result)
	}
	if result.DroppedRecords != 0 {
		t.Errorf("expected no drops from the mock source, got %d", result.DroppedRecords)
	}
	if result.Truncated {
		t.Error("expected an untruncated run")
	}
	if result.Analysis.Summary.TotalAds != 10 {
		t.Errorf("expected summary over 10 ads, got %d", result.Analysis.Summary.TotalAds)
	}
	if result.ExecutionTimeSeconds <= 0 {
		t.Error("expected a positive execution time")
	}

	for _, ad := range result.Ads {
		if ad.PerformanceScore < 0 || ad.PerformanceScore > 100 {
			t.Errorf("ad %s: score %v out of range", ad.AdID, ad.PerformanceScore)
		}
		if ad.Features == nil {
			t.Errorf("ad %s: missing features", ad.AdID)
		}
		if _, ok := ad.Classifications[AttrAdFormat]; !ok {
			t.Errorf("ad %s: missing format classification", ad.AdID)
		}
		m := ad.Metrics
		if m.Clicks > m.Impressions || m.Conversions > m.Clicks {
			t.Errorf("ad %s: metric invariants violated: %+v", ad.AdID, m)
		}
	}
}

func TestPipelineValidation(t *testing.T) {
	p := testPipeline(t, PipelineOptions{})

	tests := []struct {
		name string
		req  models.CollectRequest
	}{
		{
			name: "empty keywords",
			req:  models.CollectRequest{Platform: models.PlatformMock, MaxResults: 5},
		},
		{
			name: "zero max results",
			req:  models.CollectRequest{Platform: models.PlatformMock, Keywords: []string{"Nike"}},
		},
		{
			name: "unknown platform",
			req:  models.CollectRequest{Platform: "tiktok", Keywords: []string{"Nike"}, MaxResults: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.Run(context.Background(), tt.req); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestPipelineSourceFailure(t *testing.T) {
	p := testPipeline(t, PipelineOptions{
		Fetcher: fetcherFunc(func(ctx context.Context, url string) (*FetchedDocument, error) {
			return nil, errors.New("session expired")
		}),
	})

	result, err := p.Run(context.Background(), models.CollectRequest{
		Keywords:   []string{"nike"},
		Platform:   models.PlatformMetaweb,
		MaxResults: 5,
	})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if result == nil || result.Success {
		t.Errorf("expected a failed result, got %+v", result)
	}
}

func TestPipelinePartialSourceFailure(t *testing.T) {
	calls := 0
	p := testPipeline(t, PipelineOptions{
		Fetcher: fetcherFunc(func(ctx context.Context, url string) (*FetchedDocument, error) {
			calls++
			if calls > 1 {
				return nil, errors.New("session expired")
			}
			return cannedPage(metawebSample), nil
		}),
	})

	result, err := p.Run(context.Background(), models.CollectRequest{
		Keywords:   []string{"nike", "adidas"},
		Platform:   models.PlatformMetaweb,
		MaxResults: 10,
	})
	if err != nil {
		t.Fatalf("expected the partial batch to be processed, got error: %v", err)
	}
	if !result.Success {
		t.Error("expected a successful partial run")
	}
	if !result.Truncated {
		t.Error("expected truncated=true on a partial run")
	}
	if len(result.Ads) != 2 {
		t.Errorf("expected 2 scored ads from the partial batch, got %d", len(result.Ads))
	}
}

func TestPipelinePersistsRuns(t *testing.T) {
	store := newMemoryStore()
	p := testPipeline(t, PipelineOptions{Store: store})

	result, err := p.Run(context.Background(), models.CollectRequest{
		Keywords:   []string{"Puma"},
		Platform:   models.PlatformMock,
		MaxResults: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.created) != 1 || len(store.completed) != 1 {
		t.Fatalf("expected 1 created and 1 completed run, got %d/%d", len(store.created), len(store.completed))
	}
	run := store.completed[0]
	if run.Status != "completed" {
		t.Errorf("expected completed status, got %s", run.Status)
	}
	if run.TotalScored != len(result.Ads) {
		t.Errorf("expected %d scored in run record, got %d", len(result.Ads), run.TotalScored)
	}
	if got := store.saved[run.ID]; len(got) != len(result.Ads) {
		t.Errorf("expected %d persisted ads, got %d", len(result.Ads), len(got))
	}
}

func TestPipelineDeterministicWithSeed(t *testing.T) {
	run := func() *models.CollectResult {
		p := testPipeline(t, PipelineOptions{Mock: fastMockOptions(1234)})
		result, err := p.Run(context.Background(), models.CollectRequest{
			Keywords:   []string{"Nike"},
			Platform:   models.PlatformMock,
			MaxResults: 8,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return result
	}

	first := run()
	second := run()
	for i := range first.Ads {
		if first.Ads[i].AdID != second.Ads[i].AdID {
			t.Errorf("ad %d differs between seeded runs", i)
		}
		if first.Ads[i].PerformanceScore != second.Ads[i].PerformanceScore {
			t.Errorf("ad %d score differs between seeded runs", i)
		}
	}
	if first.Analysis.Summary.AverageScore != second.Analysis.Summary.AverageScore {
		t.Error("summary differs between seeded runs")
	}
}
