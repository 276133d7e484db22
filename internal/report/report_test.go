package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dbravo/ad-intel/internal/models"
)

func sampleResult() *models.CollectResult {
	return &models.CollectResult{
		Success: true,
		Ads: []models.ScoredAd{
			{
				CanonicalAd: models.CanonicalAd{
					AdID:      "123456789012345678",
					Platform:  models.PlatformMock,
					BrandName: "Nike",
					Headline:  "Summer Sale - Up to 50% Off",
					Metrics: models.EngagementMetrics{
						Impressions: 10000,
						Clicks:      200,
						Conversions: 20,
						Spend:       150,
					},
					Features: &models.ExtractedFeatures{CallToActionType: "shop"},
					Classifications: map[string]models.Classification{
						"ad_format": {Label: "image"},
					},
					CollectedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
				},
				PerformanceScore: 71.5,
				ROI:              2.33,
			},
			{
				CanonicalAd: models.CanonicalAd{
					AdID:     "gad_ab12cd34_ef56gh78ij",
					Platform: models.PlatformMock,
				},
				PerformanceScore: 12.0,
				ROI:              -0.8,
			},
		},
		TotalCollected: 2,
		Analysis: models.AnalysisResult{
			Summary: models.Summary{TotalAds: 2, AverageScore: 41.75},
			Insights: models.Insights{
				Alerts: []string{"sample alert"},
			},
		},
		Timestamp: time.Date(2026, 8, 1, 12, 0, 5, 0, time.UTC),
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleResult().Ads); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse produced CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "ad_id" || rows[0][len(rows[0])-1] != "collected_at" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "123456789012345678" || rows[1][2] != "Nike" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
	if rows[1][10] != "0.0200" {
		t.Errorf("expected CTR column 0.0200, got %q", rows[1][10])
	}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded models.CollectResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("produced JSON does not parse: %v", err)
	}
	if len(decoded.Ads) != 2 || decoded.Ads[0].AdID != "123456789012345678" {
		t.Errorf("round trip lost ads: %+v", decoded.Ads)
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, sampleResult())

	out := buf.String()
	for _, want := range []string{"123456789012345678", "Nike", "71.5", "ALERT: sample alert"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
	// Best performer renders before the worst.
	if strings.Index(out, "123456789012345678") > strings.Index(out, "gad_ab12cd34_ef56gh78ij") {
		t.Error("expected ads ordered by score")
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	paths, err := Save(dir, sampleResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 report files, got %d", len(paths))
	}
	if filepath.Ext(paths[0]) != ".json" || filepath.Ext(paths[1]) != ".csv" {
		t.Errorf("unexpected report paths: %v", paths)
	}
}
