package ingest

import (
	"context"
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/dbravo/ad-intel/internal/models"
)

func mockConfig(max int) CollectionConfig {
	return CollectionConfig{
		Platform:   models.PlatformMock,
		Keywords:   []string{"Nike", "Adidas"},
		MaxResults: max,
	}
}

func fastMockOptions(seed int64) MockOptions {
	return MockOptions{
		Rand:     rand.New(rand.NewSource(seed)),
		MinDelay: time.Nanosecond,
		MaxDelay: time.Nanosecond,
	}
}

func TestMockCollectorCount(t *testing.T) {
	cat := testCatalog(t)
	collector := NewMockCollector(mockConfig(25), cat, fastMockOptions(1))

	ads, truncated, err := collector.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if truncated {
		t.Error("expected an untruncated run")
	}
	if len(ads) != 25 {
		t.Errorf("expected 25 ads, got %d", len(ads))
	}
}

func TestMockCollectorReproducible(t *testing.T) {
	cat := testCatalog(t)

	run := func() []models.RawAd {
		collector := NewMockCollector(mockConfig(10), cat, fastMockOptions(42))
		ads, _, err := collector.Collect(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return ads
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("ad %d differs between seeded runs: %s vs %s", i, first[i].ID, second[i].ID)
		}
		if *first[i].Impressions != *second[i].Impressions {
			t.Errorf("ad %d impressions differ between seeded runs", i)
		}
	}
}

var mockIDPattern = regexp.MustCompile(`^([1-9]\d{17}|gad_[a-z0-9]{8}_[a-z0-9]{10}|[1-9]\d{12})$`)

func TestMockCollectorAdShape(t *testing.T) {
	cat := testCatalog(t)
	collector := NewMockCollector(mockConfig(50), cat, fastMockOptions(7))

	ads, _, err := collector.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, ad := range ads {
		if !mockIDPattern.MatchString(ad.ID) {
			t.Errorf("ad id %q matches no known platform format", ad.ID)
		}
		if ad.Platform != models.PlatformMock {
			t.Errorf("expected mock platform, got %s", ad.Platform)
		}
		if ad.Headline == "" || ad.BrandName == "" {
			t.Errorf("ad %s missing copy: %+v", ad.ID, ad)
		}

		impressions, clicks, conversions := *ad.Impressions, *ad.Clicks, *ad.Conversions
		spend := *ad.Spend
		if clicks > impressions {
			t.Errorf("ad %s: clicks %d exceed impressions %d", ad.ID, clicks, impressions)
		}
		if conversions > clicks {
			t.Errorf("ad %s: conversions %d exceed clicks %d", ad.ID, conversions, clicks)
		}
		if spend < mockSpendMin || spend > mockSpendMax {
			t.Errorf("ad %s: spend %.2f outside [%v, %v]", ad.ID, spend, mockSpendMin, mockSpendMax)
		}
		switch ad.MediaKind {
		case "", "image", "video", "carousel":
		default:
			t.Errorf("ad %s: unknown media kind %q", ad.ID, ad.MediaKind)
		}
		if ad.MediaKind == "" && len(ad.MediaURLs) != 0 {
			t.Errorf("ad %s: media URLs without a media kind", ad.ID)
		}
	}
}

func TestMockCollectorCancellation(t *testing.T) {
	cat := testCatalog(t)
	opts := MockOptions{
		Rand:     rand.New(rand.NewSource(3)),
		MinDelay: 20 * time.Millisecond,
		MaxDelay: 20 * time.Millisecond,
	}
	collector := NewMockCollector(mockConfig(1000), cat, opts)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Millisecond)
	defer cancel()

	ads, truncated, err := collector.Collect(ctx)
	if err == nil {
		t.Fatal("expected a cancellation error")
	}
	if !truncated {
		t.Error("expected truncated=true after cancellation")
	}
	if len(ads) == 0 || len(ads) >= 1000 {
		t.Errorf("expected a partial batch, got %d ads", len(ads))
	}
}
