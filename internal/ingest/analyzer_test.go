package ingest

import (
	"strings"
	"testing"

	"github.com/dbravo/ad-intel/internal/models"
)

func scoredAd(id string, score, roi float64) models.ScoredAd {
	return models.ScoredAd{
		CanonicalAd: models.CanonicalAd{
			AdID:     id,
			Platform: models.PlatformMock,
			Features: &models.ExtractedFeatures{CallToActionType: "shop"},
			Classifications: map[string]models.Classification{
				AttrAdFormat: {Label: "image"},
			},
		},
		PerformanceScore: score,
		ROI:              roi,
	}
}

func TestSummarizeEmptyBatch(t *testing.T) {
	analyzer := NewAnalyzer(DefaultScoringConfig())

	got := analyzer.Summarize(nil)
	s := got.Summary
	if s.TotalAds != 0 || s.AverageScore != 0 || s.MedianScore != 0 || s.AverageROI != 0 {
		t.Errorf("expected zero-filled summary, got %+v", s)
	}
	if s.HighPerformersCount != 0 || s.LowPerformersCount != 0 {
		t.Errorf("expected zero performer counts, got %+v", s)
	}
	if len(got.Insights.Alerts) != 0 || len(got.Insights.Recommendations) != 0 {
		t.Errorf("expected no insights for empty batch, got %+v", got.Insights)
	}
	if got.Insights.Trends == nil || got.HighPerformers == nil || got.LowPerformers == nil {
		t.Error("expected empty, non-nil collections")
	}
}

func TestSummarizeStatistics(t *testing.T) {
	analyzer := NewAnalyzer(DefaultScoringConfig())

	ads := []models.ScoredAd{
		scoredAd("low-1", 10, -0.5),
		scoredAd("mid-1", 50, 0.2),
		scoredAd("high-1", 90, 1.5),
		scoredAd("high-2", 80, 0.8),
	}

	got := analyzer.Summarize(ads)
	s := got.Summary
	if s.TotalAds != 4 {
		t.Errorf("expected 4 ads, got %d", s.TotalAds)
	}
	if s.AverageScore != 57.5 {
		t.Errorf("expected average 57.5, got %v", s.AverageScore)
	}
	if s.MedianScore != 65 {
		t.Errorf("expected median 65, got %v", s.MedianScore)
	}
	if s.AverageROI != 0.5 {
		t.Errorf("expected average ROI 0.5, got %v", s.AverageROI)
	}
	if s.HighPerformersCount != 2 || s.LowPerformersCount != 1 {
		t.Errorf("expected 2 high / 1 low, got %d/%d", s.HighPerformersCount, s.LowPerformersCount)
	}
	if s.TopAdID != "high-1" || s.WorstAdID != "low-1" {
		t.Errorf("expected top high-1 / worst low-1, got %s/%s", s.TopAdID, s.WorstAdID)
	}
	if len(got.HighPerformers) != 2 || got.HighPerformers[0] != "high-1" {
		t.Errorf("expected high performers best first, got %v", got.HighPerformers)
	}
	if len(got.LowPerformers) != 1 || got.LowPerformers[0] != "low-1" {
		t.Errorf("expected low performers worst first, got %v", got.LowPerformers)
	}
}

func TestSummarizeAlerts(t *testing.T) {
	analyzer := NewAnalyzer(DefaultScoringConfig())

	tests := []struct {
		name      string
		ads       []models.ScoredAd
		wantAlert string
	}{
		{
			name: "negative average ROI",
			ads: []models.ScoredAd{
				scoredAd("a", 50, -0.8),
				scoredAd("b", 50, -0.2),
			},
			wantAlert: "Average ROI is negative",
		},
		{
			name: "too many low performers",
			ads: []models.ScoredAd{
				scoredAd("a", 10, 0.5),
				scoredAd("b", 20, 0.5),
				scoredAd("c", 90, 0.5),
			},
			wantAlert: "score below",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyzer.Summarize(tt.ads)
			found := false
			for _, a := range got.Insights.Alerts {
				if strings.Contains(a, tt.wantAlert) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected alert containing %q, got %v", tt.wantAlert, got.Insights.Alerts)
			}
		})
	}
}

func TestSummarizeRecommendations(t *testing.T) {
	analyzer := NewAnalyzer(DefaultScoringConfig())

	withUrgency := func(id string, score float64) models.ScoredAd {
		ad := scoredAd(id, score, 0.5)
		ad.Features.HasUrgency = true
		return ad
	}

	ads := []models.ScoredAd{
		withUrgency("u-1", 80),
		withUrgency("u-2", 85),
		scoredAd("p-1", 50, 0.5),
		scoredAd("p-2", 55, 0.5),
	}

	got := analyzer.Summarize(ads)
	found := false
	for _, r := range got.Insights.Recommendations {
		if strings.Contains(r, "urgency language") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected urgency recommendation, got %v", got.Insights.Recommendations)
	}
}

func TestSummarizeRecommendationsRequireCohortSize(t *testing.T) {
	analyzer := NewAnalyzer(DefaultScoringConfig())

	one := scoredAd("u-1", 95, 0.5)
	one.Features.HasUrgency = true
	ads := []models.ScoredAd{
		one,
		scoredAd("p-1", 40, 0.5),
		scoredAd("p-2", 45, 0.5),
	}

	got := analyzer.Summarize(ads)
	for _, r := range got.Insights.Recommendations {
		if strings.Contains(r, "urgency") {
			t.Errorf("single-ad cohort should not produce a recommendation: %v", got.Insights.Recommendations)
		}
	}
}

func TestSummarizeTrends(t *testing.T) {
	analyzer := NewAnalyzer(DefaultScoringConfig())

	video := scoredAd("v-1", 60, 0.5)
	video.Classifications[AttrAdFormat] = models.Classification{Label: "video"}

	ads := []models.ScoredAd{
		scoredAd("a", 50, 0.1),
		scoredAd("b", 60, 0.1),
		video,
	}

	got := analyzer.Summarize(ads)
	trends := got.Insights.Trends
	if trends["dominant_platform"] != "mock (3/3)" {
		t.Errorf("expected dominant_platform mock (3/3), got %q", trends["dominant_platform"])
	}
	if trends["dominant_format"] != "image (2/3)" {
		t.Errorf("expected dominant_format image (2/3), got %q", trends["dominant_format"])
	}
	if trends["dominant_cta"] != "shop (3/3)" {
		t.Errorf("expected dominant_cta shop (3/3), got %q", trends["dominant_cta"])
	}
}
