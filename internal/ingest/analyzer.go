package ingest

import (
	"fmt"
	"sort"
	"time"

	"github.com/dbravo/ad-intel/internal/models"
)

// Thresholds for batch-level alerting and recommendations.
const (
	lowPerformerAlertShare = 0.30 // share of low performers that triggers an alert
	recommendationMargin   = 10.0 // score points a cohort must lead by
	recommendationMinAds   = 2    // minimum cohort size on each side
)

// Analyzer computes batch summaries and insights over one run's scored ads.
type Analyzer struct {
	cfg ScoringConfig
}

func NewAnalyzer(cfg ScoringConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Summarize aggregates a scored batch into summary statistics, alerts,
// recommendations and trend distributions. An empty batch yields zero
// counts, 0.0 averages and no insights; it never fails or divides by zero.
func (a *Analyzer) Summarize(ads []models.ScoredAd) models.AnalysisResult {
	now := time.Now().UTC()
	if len(ads) == 0 {
		return models.AnalysisResult{
			Insights: models.Insights{
				Alerts:          []string{},
				Recommendations: []string{},
				Trends:          map[string]string{},
			},
			HighPerformers: []string{},
			LowPerformers:  []string{},
			AnalyzedAt:     now,
		}
	}

	sorted := make([]models.ScoredAd, len(ads))
	copy(sorted, ads)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PerformanceScore > sorted[j].PerformanceScore
	})

	var scoreSum, roiSum float64
	var high, low []string
	for _, ad := range sorted {
		scoreSum += ad.PerformanceScore
		roiSum += ad.ROI
		switch {
		case ad.PerformanceScore >= a.cfg.HighThreshold:
			high = append(high, ad.AdID)
		case ad.PerformanceScore <= a.cfg.LowThreshold:
			low = append(low, ad.AdID)
		}
	}
	// Worst first for the low performer list.
	for i, j := 0, len(low)-1; i < j; i, j = i+1, j-1 {
		low[i], low[j] = low[j], low[i]
	}

	n := len(sorted)
	summary := models.Summary{
		TotalAds:            n,
		AverageScore:        round2(scoreSum / float64(n)),
		MedianScore:         round2(medianScore(sorted)),
		AverageROI:          round2(roiSum / float64(n)),
		HighPerformersCount: len(high),
		LowPerformersCount:  len(low),
		TopAdID:             sorted[0].AdID,
		WorstAdID:           sorted[n-1].AdID,
	}

	return models.AnalysisResult{
		Summary: summary,
		Insights: models.Insights{
			Alerts:          a.alerts(summary),
			Recommendations: a.recommendations(sorted),
			Trends:          a.trends(sorted),
		},
		HighPerformers: emptyIfNil(high),
		LowPerformers:  emptyIfNil(low),
		AnalyzedAt:     now,
	}
}

// medianScore expects ads sorted by score.
func medianScore(sorted []models.ScoredAd) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2].PerformanceScore
	}
	return (sorted[n/2-1].PerformanceScore + sorted[n/2].PerformanceScore) / 2
}

func (a *Analyzer) alerts(s models.Summary) []string {
	alerts := []string{}
	if s.AverageROI < 0 {
		alerts = append(alerts, fmt.Sprintf("Average ROI is negative (%.2f): the batch is losing money on estimated revenue", s.AverageROI))
	}
	if share := float64(s.LowPerformersCount) / float64(s.TotalAds); share > lowPerformerAlertShare {
		alerts = append(alerts, fmt.Sprintf("%d of %d ads (%.0f%%) score below %.0f", s.LowPerformersCount, s.TotalAds, share*100, a.cfg.LowThreshold))
	}
	return alerts
}

// recommendations compares cohorts split by creative signals. A suggestion
// is emitted only when the cohort with the signal outperforms the cohort
// without it by at least recommendationMargin points and both sides have at
// least recommendationMinAds ads.
func (a *Analyzer) recommendations(ads []models.ScoredAd) []string {
	recs := []string{}

	type cohort struct {
		name string
		has  func(models.ScoredAd) bool
	}
	cohorts := []cohort{
		{"urgency language", func(ad models.ScoredAd) bool { return ad.Features != nil && ad.Features.HasUrgency }},
		{"pricing callouts", func(ad models.ScoredAd) bool { return ad.Features != nil && ad.Features.HasPricing }},
		{"social proof", func(ad models.ScoredAd) bool { return ad.Features != nil && ad.Features.HasSocialProof }},
	}

	for _, c := range cohorts {
		withSum, withN := 0.0, 0
		withoutSum, withoutN := 0.0, 0
		for _, ad := range ads {
			if c.has(ad) {
				withSum += ad.PerformanceScore
				withN++
			} else {
				withoutSum += ad.PerformanceScore
				withoutN++
			}
		}
		if withN < recommendationMinAds || withoutN < recommendationMinAds {
			continue
		}
		withAvg := withSum / float64(withN)
		withoutAvg := withoutSum / float64(withoutN)
		if withAvg-withoutAvg >= recommendationMargin {
			recs = append(recs, fmt.Sprintf("Ads with %s outperform the rest by %.1f points on average; consider using it more broadly", c.name, withAvg-withoutAvg))
		}
	}

	if name, lead, ok := a.bestCTACohort(ads); ok {
		recs = append(recs, fmt.Sprintf("The %q call-to-action leads other CTA types by %.1f points on average", name, lead))
	}
	return recs
}

// bestCTACohort finds the CTA type whose cohort average leads the rest of
// the batch by the recommendation margin.
func (a *Analyzer) bestCTACohort(ads []models.ScoredAd) (string, float64, bool) {
	sums := map[string]float64{}
	counts := map[string]int{}
	total := 0.0
	for _, ad := range ads {
		if ad.Features == nil {
			continue
		}
		t := ad.Features.CallToActionType
		sums[t] += ad.PerformanceScore
		counts[t]++
		total += ad.PerformanceScore
	}

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	bestName, bestLead := "", 0.0
	for _, t := range types {
		n := counts[t]
		restN := len(ads) - n
		if n < recommendationMinAds || restN < recommendationMinAds {
			continue
		}
		avg := sums[t] / float64(n)
		restAvg := (total - sums[t]) / float64(restN)
		if lead := avg - restAvg; lead >= recommendationMargin && lead > bestLead {
			bestName, bestLead = t, lead
		}
	}
	return bestName, bestLead, bestName != ""
}

// trends summarizes the batch's distribution by platform, ad format and
// CTA type as "label (count/total)" strings.
func (a *Analyzer) trends(ads []models.ScoredAd) map[string]string {
	platforms := map[string]int{}
	formats := map[string]int{}
	ctas := map[string]int{}
	for _, ad := range ads {
		platforms[string(ad.Platform)]++
		if cls, ok := ad.Classifications[AttrAdFormat]; ok {
			formats[cls.Label]++
		}
		if ad.Features != nil {
			ctas[ad.Features.CallToActionType]++
		}
	}

	trends := map[string]string{}
	if label, count := dominant(platforms); label != "" {
		trends["dominant_platform"] = fmt.Sprintf("%s (%d/%d)", label, count, len(ads))
	}
	if label, count := dominant(formats); label != "" {
		trends["dominant_format"] = fmt.Sprintf("%s (%d/%d)", label, count, len(ads))
	}
	if label, count := dominant(ctas); label != "" {
		trends["dominant_cta"] = fmt.Sprintf("%s (%d/%d)", label, count, len(ads))
	}
	return trends
}

// dominant returns the most frequent label, breaking ties alphabetically.
func dominant(counts map[string]int) (string, int) {
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	best, bestCount := "", 0
	for _, l := range labels {
		if counts[l] > bestCount {
			best, bestCount = l, counts[l]
		}
	}
	return best, bestCount
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
