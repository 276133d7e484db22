package ingest

import (
	"math"
	"testing"

	"github.com/dbravo/ad-intel/internal/models"
)

func scoredInput(impressions, clicks, conversions int, spend float64) models.CanonicalAd {
	return models.CanonicalAd{
		AdID: "score-1",
		Metrics: models.EngagementMetrics{
			Impressions: impressions,
			Clicks:      clicks,
			Conversions: conversions,
			Spend:       spend,
		},
	}
}

func TestScoreRange(t *testing.T) {
	scorer := NewScorer(DefaultScoringConfig())

	tests := []struct {
		name string
		ad   models.CanonicalAd
	}{
		{name: "zero metrics", ad: scoredInput(0, 0, 0, 0)},
		{name: "modest performer", ad: scoredInput(10000, 50, 5, 100)},
		{name: "metrics above every cap", ad: scoredInput(1000000, 100000, 50000, 100)},
		{name: "spend only", ad: scoredInput(0, 0, 0, 500)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.ad)
			if got.PerformanceScore < 0 || got.PerformanceScore > 100 {
				t.Errorf("performance score out of range: %v", got.PerformanceScore)
			}
			if math.IsNaN(got.ROI) || math.IsInf(got.ROI, 0) {
				t.Errorf("ROI must be finite, got %v", got.ROI)
			}
		})
	}
}

func TestScoreWeightedComponents(t *testing.T) {
	scorer := NewScorer(DefaultScoringConfig())

	// CTR 0.5% of the 5% cap = 0.1; CVR 10% of the 15% cap = 0.667;
	// 100 impressions/$ caps at 1. Weighted: 40*0.1 + 35*0.667 + 25*1.
	got := scorer.Score(scoredInput(10000, 50, 5, 100))
	if got.PerformanceScore != 52.33 {
		t.Errorf("expected score 52.33, got %v", got.PerformanceScore)
	}
}

func TestScoreROI(t *testing.T) {
	scorer := NewScorer(DefaultScoringConfig())

	tests := []struct {
		name string
		ad   models.CanonicalAd
		want float64
	}{
		{
			// revenue 5 * $25 = $125 against $100 spend
			name: "positive ROI",
			ad:   scoredInput(10000, 50, 5, 100),
			want: 0.25,
		},
		{
			// revenue $25 against $500 spend
			name: "negative ROI",
			ad:   scoredInput(10000, 50, 1, 500),
			want: -0.95,
		},
		{
			name: "zero spend yields zero ROI",
			ad:   scoredInput(10000, 50, 5, 0),
			want: 0,
		},
		{
			name: "no conversions loses everything",
			ad:   scoredInput(10000, 50, 0, 100),
			want: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.ad)
			if got.ROI != tt.want {
				t.Errorf("expected ROI %v, got %v", tt.want, got.ROI)
			}
		})
	}
}

func TestScorePreservesAd(t *testing.T) {
	scorer := NewScorer(DefaultScoringConfig())
	ad := scoredInput(1000, 20, 2, 50)
	ad.Headline = "Keep me"

	got := scorer.Score(ad)
	if got.AdID != ad.AdID || got.Headline != "Keep me" {
		t.Errorf("scored ad lost canonical fields: %+v", got.CanonicalAd)
	}
	if got.AnalyzedAt.IsZero() {
		t.Error("expected AnalyzedAt to be set")
	}
}
