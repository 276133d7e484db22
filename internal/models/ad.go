package models

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies where an ad was collected from.
type Platform string

const (
	PlatformMock    Platform = "mock"
	PlatformMetaweb Platform = "metaweb"
)

// ValidPlatform reports whether p is a supported collection platform.
func ValidPlatform(p Platform) bool {
	return p == PlatformMock || p == PlatformMetaweb
}

// RawAd is the untrusted record emitted by a collector. Metric fields are
// pointers because sources routinely omit them; the preprocessor coerces
// missing values to zero. A RawAd is never mutated after emission.
type RawAd struct {
	ID           string     `json:"id"`
	Headline     string     `json:"headline"`
	BodyText     string     `json:"body_text"`
	CallToAction string     `json:"call_to_action"`
	BrandName    string     `json:"brand_name"`
	Platform     Platform   `json:"platform"`
	SourceURL    string     `json:"source_url"`
	MediaURLs    []string   `json:"media_urls"`
	MediaKind    string     `json:"media_kind"` // source hint: "image", "video", "carousel" or empty
	Impressions  *int       `json:"impressions"`
	Clicks       *int       `json:"clicks"`
	Conversions  *int       `json:"conversions"`
	Spend        *float64   `json:"spend"`
	Targeting    *Targeting `json:"targeting"`
	CollectedAt  time.Time  `json:"collected_at"`
}

// Targeting describes who an ad was aimed at.
type Targeting struct {
	AgeMin     int      `json:"age_min"`
	AgeMax     int      `json:"age_max"`
	Gender     string   `json:"gender"` // "all", "female", "male"
	Regions    []string `json:"regions"`
	Placements []string `json:"placements"` // feed, stories, search, ...
}

// EngagementMetrics are normalized metrics on a canonical ad.
// Invariants after preprocessing: Clicks <= Impressions and
// Conversions <= Clicks; all values non-negative.
type EngagementMetrics struct {
	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	Conversions int     `json:"conversions"`
	Spend       float64 `json:"spend"`
}

// CTR returns clicks/impressions, 0 when there are no impressions.
func (m EngagementMetrics) CTR() float64 {
	if m.Impressions == 0 {
		return 0
	}
	return float64(m.Clicks) / float64(m.Impressions)
}

// ConversionRate returns conversions/clicks, 0 when there are no clicks.
func (m EngagementMetrics) ConversionRate() float64 {
	if m.Clicks == 0 {
		return 0
	}
	return float64(m.Conversions) / float64(m.Clicks)
}

// CanonicalAd is the normalized record the pipeline stages enrich in place.
// It is produced exactly once per RawAd and never re-enters the preprocessor.
type CanonicalAd struct {
	AdID            string                    `json:"ad_id"`
	Platform        Platform                  `json:"platform"`
	Headline        string                    `json:"headline"`
	BodyText        string                    `json:"body_text"`
	CallToAction    string                    `json:"call_to_action"`
	BrandName       string                    `json:"brand_name"`
	SourceURL       string                    `json:"source_url"`
	MediaURLs       []string                  `json:"media_urls"`
	MediaKind       string                    `json:"media_kind"`
	Metrics         EngagementMetrics         `json:"metrics"`
	Targeting       Targeting                 `json:"targeting"`
	CollectedAt     time.Time                 `json:"collected_at"`
	Features        *ExtractedFeatures        `json:"extracted_features,omitempty"`
	Classifications map[string]Classification `json:"classifications,omitempty"`
}

// ExtractedFeatures are derived attributes attached once by the feature
// extractor and read-only thereafter. Keyword and entity sets are sorted so
// extraction output is deterministic.
type ExtractedFeatures struct {
	Keywords         []string `json:"keywords"`
	Entities         []string `json:"entities"`
	CallToActionType string   `json:"call_to_action_type"` // shop, learn_more, signup, ... or "other"
	HasUrgency       bool     `json:"has_urgency_indicators"`
	HasPricing       bool     `json:"has_pricing"`
	HasSocialProof   bool     `json:"has_social_proof"`
}

// Alternative is a non-chosen classification label with its confidence.
type Alternative struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classification is the result for one categorical attribute of an ad.
// Alternatives are ordered by strictly decreasing confidence.
type Classification struct {
	Label        string        `json:"label"`
	Confidence   float64       `json:"confidence"`
	Alternatives []Alternative `json:"alternatives"`
	Reasoning    string        `json:"reasoning"`
}

// ScoredAd is the terminal per-ad record: canonical data plus the
// performance score (0-100) and ROI (may be negative).
type ScoredAd struct {
	CanonicalAd
	PerformanceScore float64   `json:"performance_score"`
	ROI              float64   `json:"roi"`
	AnalyzedAt       time.Time `json:"analyzed_at"`
}

// Summary holds batch-level statistics over one collection run.
type Summary struct {
	TotalAds            int     `json:"total_ads"`
	AverageScore        float64 `json:"average_performance_score"`
	MedianScore         float64 `json:"median_performance_score"`
	AverageROI          float64 `json:"average_roi"`
	HighPerformersCount int     `json:"high_performers_count"`
	LowPerformersCount  int     `json:"low_performers_count"`
	TopAdID             string  `json:"top_performing_ad,omitempty"`
	WorstAdID           string  `json:"worst_performing_ad,omitempty"`
}

// Insights are the precomputed alert/recommendation strings and the
// observed trend values for one batch.
type Insights struct {
	Alerts          []string          `json:"alerts"`
	Recommendations []string          `json:"recommendations"`
	Trends          map[string]string `json:"trends"`
}

// AnalysisResult is the insight batch derived from one run's scored ads.
type AnalysisResult struct {
	Summary        Summary   `json:"summary"`
	Insights       Insights  `json:"insights"`
	HighPerformers []string  `json:"high_performers"` // ad ids, best first
	LowPerformers  []string  `json:"low_performers"`  // ad ids, worst first
	AnalyzedAt     time.Time `json:"analyzed_at"`
}

// CollectRequest is the boundary input consumed by the API and CLI.
type CollectRequest struct {
	Keywords   []string `json:"keywords"`
	Platform   Platform `json:"platform"`
	MaxResults int      `json:"max_results"`
}

// CollectResult is the boundary output of one pipeline run.
type CollectResult struct {
	Success              bool           `json:"success"`
	Message              string         `json:"message"`
	Ads                  []ScoredAd     `json:"ads"`
	TotalCollected       int            `json:"total_collected"`
	TotalPreprocessed    int            `json:"total_preprocessed"`
	TotalClassified      int            `json:"total_classified"`
	DroppedRecords       int            `json:"dropped_records"`
	Truncated            bool           `json:"truncated"`
	Analysis             AnalysisResult `json:"analysis"`
	ExecutionTimeSeconds float64        `json:"execution_time_seconds"`
	Timestamp            time.Time      `json:"timestamp"`
}

// CollectionRun is the persisted record of one pipeline execution.
type CollectionRun struct {
	ID             uuid.UUID  `json:"id"`
	Platform       Platform   `json:"platform"`
	Keywords       []string   `json:"keywords"`
	Status         string     `json:"status"` // running, completed, failed
	TotalCollected int        `json:"total_collected"`
	TotalScored    int        `json:"total_scored"`
	DroppedRecords int        `json:"dropped_records"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Error          string     `json:"error,omitempty"`
}
