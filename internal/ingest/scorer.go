package ingest

import (
	"time"

	"github.com/dbravo/ad-intel/internal/models"
)

// ScoringConfig holds the tunable constants behind the performance score
// and the ROI estimate. Values are configuration, not derived from data.
type ScoringConfig struct {
	// Component weights; must sum to 1.
	CTRWeight        float64
	CVRWeight        float64
	EfficiencyWeight float64

	// Normalization caps: the metric value that maps to a full component
	// score.
	CTRCap        float64 // click-through rate
	CVRCap        float64 // conversion rate
	EfficiencyCap float64 // impressions per dollar of spend

	// RevenuePerConversion is the assumed revenue per conversion used in
	// the ROI estimate.
	RevenuePerConversion float64

	// Batch-level performance thresholds on the 0-100 score.
	HighThreshold float64
	LowThreshold  float64
}

// DefaultScoringConfig returns the standard tuning.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		CTRWeight:            0.40,
		CVRWeight:            0.35,
		EfficiencyWeight:     0.25,
		CTRCap:               0.05,
		CVRCap:               0.15,
		EfficiencyCap:        50.0,
		RevenuePerConversion: 25.0,
		HighThreshold:        70.0,
		LowThreshold:         30.0,
	}
}

// Scorer computes per-ad performance scores and ROI.
type Scorer struct {
	cfg ScoringConfig
}

func NewScorer(cfg ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score produces the terminal scored record for one enriched ad. The
// performance score is a capped weighted blend of CTR, conversion rate and
// impressions-per-dollar, scaled to [0,100]. ROI is the estimated revenue
// minus spend over spend; it is 0 when spend is 0 and is never NaN or
// infinite.
func (s *Scorer) Score(ad models.CanonicalAd) models.ScoredAd {
	m := ad.Metrics

	ctrComponent := clamp01(safeDiv(m.CTR(), s.cfg.CTRCap))
	cvrComponent := clamp01(safeDiv(m.ConversionRate(), s.cfg.CVRCap))
	efficiency := safeDiv(float64(m.Impressions), m.Spend)
	effComponent := clamp01(safeDiv(efficiency, s.cfg.EfficiencyCap))

	score := 100 * (s.cfg.CTRWeight*ctrComponent +
		s.cfg.CVRWeight*cvrComponent +
		s.cfg.EfficiencyWeight*effComponent)
	if score > 100 {
		score = 100
	}

	roi := 0.0
	if m.Spend > 0 {
		revenue := float64(m.Conversions) * s.cfg.RevenuePerConversion
		roi = (revenue - m.Spend) / m.Spend
	}

	return models.ScoredAd{
		CanonicalAd:      ad,
		PerformanceScore: round2(score),
		ROI:              round2(roi),
		AnalyzedAt:       time.Now().UTC(),
	}
}
