package ingest

import (
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dbravo/ad-intel/internal/models"
)

// htmlToText converts HTML fragments to plain text, collapsing whitespace.
// Scraped records occasionally carry markup in text fields.
func htmlToText(html string) string {
	if !strings.ContainsRune(html, '<') {
		return cleanText(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return cleanText(html)
	}
	return cleanText(doc.Text())
}

// Normalize converts raw records into canonical ads: whitespace-normalized
// text (case-preserving), metrics coerced to zero when missing, records
// violating the metric invariants dropped with a reason, duplicates by ad id
// dropped keeping the first occurrence. Inputs are never mutated, and the
// output is never longer than the input.
func Normalize(raw []models.RawAd) ([]models.CanonicalAd, []*DataQualityError) {
	out := make([]models.CanonicalAd, 0, len(raw))
	var dropped []*DataQualityError
	seen := make(map[string]struct{}, len(raw))

	drop := func(id, reason string) {
		e := &DataQualityError{AdID: id, Reason: reason}
		dropped = append(dropped, e)
		log.Printf("[preprocess] dropping record: %v", e)
	}

	for _, r := range raw {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			drop("(unknown)", "missing ad id")
			continue
		}
		if _, ok := seen[id]; ok {
			drop(id, "duplicate ad id")
			continue
		}

		impressions := intOrZero(r.Impressions)
		clicks := intOrZero(r.Clicks)
		conversions := intOrZero(r.Conversions)
		spend := floatOrZero(r.Spend)
		if impressions < 0 || clicks < 0 || conversions < 0 || spend < 0 {
			drop(id, "negative metric value")
			continue
		}
		if clicks > impressions {
			drop(id, "clicks exceed impressions")
			continue
		}
		if conversions > clicks {
			drop(id, "conversions exceed clicks")
			continue
		}

		targeting := models.Targeting{Gender: "all"}
		if r.Targeting != nil {
			targeting = *r.Targeting
		}

		seen[id] = struct{}{}
		out = append(out, models.CanonicalAd{
			AdID:         id,
			Platform:     r.Platform,
			Headline:     htmlToText(r.Headline),
			BodyText:     htmlToText(r.BodyText),
			CallToAction: htmlToText(r.CallToAction),
			BrandName:    cleanText(r.BrandName),
			SourceURL:    strings.TrimSpace(r.SourceURL),
			MediaURLs:    append([]string(nil), r.MediaURLs...),
			MediaKind:    strings.ToLower(strings.TrimSpace(r.MediaKind)),
			Metrics: models.EngagementMetrics{
				Impressions: impressions,
				Clicks:      clicks,
				Conversions: conversions,
				Spend:       spend,
			},
			Targeting:   targeting,
			CollectedAt: r.CollectedAt,
		})
	}

	return out, dropped
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
