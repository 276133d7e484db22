package ingest

import (
	"strings"

	"github.com/dbravo/ad-intel/internal/models"
)

// FeatureExtractor derives keywords, entities and creative signals from ad
// copy using the shared catalog. Extraction is deterministic: the same input
// always yields the same features.
type FeatureExtractor struct {
	cat *Catalog
}

func NewFeatureExtractor(cat *Catalog) *FeatureExtractor {
	return &FeatureExtractor{cat: cat}
}

// Extract computes the feature set for one canonical ad. The ad itself is
// not modified; the caller attaches the result.
func (f *FeatureExtractor) Extract(ad models.CanonicalAd) *models.ExtractedFeatures {
	text := ad.Headline + " " + ad.BodyText
	lower := strings.ToLower(text)

	var keywords []string
	for _, tok := range tokenize(text) {
		if len(tok) < 3 || f.cat.IsStopWord(tok) {
			continue
		}
		keywords = append(keywords, tok)
	}

	var entities []string
	for _, b := range f.cat.Brands {
		if strings.Contains(lower, strings.ToLower(b.Name)) {
			entities = append(entities, b.Name)
		}
	}
	if ad.BrandName != "" {
		entities = append(entities, ad.BrandName)
	}

	return &models.ExtractedFeatures{
		Keywords:         uniqueSorted(keywords),
		Entities:         uniqueSorted(entities),
		CallToActionType: f.ctaType(ad),
		HasUrgency:       containsAny(lower, f.cat.UrgencyTerms),
		HasPricing:       containsAny(lower, f.cat.PricingTerms),
		HasSocialProof:   containsAny(lower, f.cat.SocialProofTerms),
	}
}

// ctaType resolves the call-to-action category from the explicit CTA text
// first, falling back to phrases found in the headline or body.
func (f *FeatureExtractor) ctaType(ad models.CanonicalAd) string {
	if ad.CallToAction != "" {
		if t := f.cat.CTAType(ad.CallToAction); t != "other" {
			return t
		}
	}
	if t := f.cat.CTAType(ad.Headline + " " + ad.BodyText); t != "other" {
		return t
	}
	return "other"
}
