package ingest

import (
	"fmt"
	"strings"

	"github.com/dbravo/ad-intel/internal/models"
)

// Classification attribute keys.
const (
	AttrAdFormat     = "ad_format"
	AttrCreativeTone = "creative_tone"
)

// Classifier assigns categorical labels to canonical ads using rule tables
// over the injected lexicon. It holds no mutable state: identical input
// always produces identical output.
type Classifier struct {
	cat *Catalog
}

func NewClassifier(cat *Catalog) *Classifier {
	return &Classifier{cat: cat}
}

// Classify returns the classification set for one ad, keyed by attribute.
// Features must already be extracted.
func (c *Classifier) Classify(ad models.CanonicalAd) map[string]models.Classification {
	return map[string]models.Classification{
		AttrAdFormat:     c.ClassifyFormat(ad),
		AttrCreativeTone: c.classifyTone(ad),
	}
}

// ClassifyFormat labels the creative format. Ads without any media
// reference are text_only with no alternatives; media-bearing ads are
// classified among image, video and carousel from the source hint and the
// media URL list, with the non-chosen labels listed at strictly decreasing
// confidence.
func (c *Classifier) ClassifyFormat(ad models.CanonicalAd) models.Classification {
	if len(ad.MediaURLs) == 0 && ad.MediaKind == "" {
		return models.Classification{
			Label:        "text_only",
			Confidence:   0.85,
			Alternatives: []models.Alternative{},
			Reasoning:    "No media detected",
		}
	}

	label, confidence, reasoning := c.mediaFormat(ad)

	ranked := []string{"image", "video", "carousel"}
	alternatives := make([]models.Alternative, 0, 2)
	altConf := (1 - confidence) / 2
	for _, l := range ranked {
		if l == label {
			continue
		}
		alternatives = append(alternatives, models.Alternative{Label: l, Confidence: round2(altConf)})
		altConf /= 2
	}

	return models.Classification{
		Label:        label,
		Confidence:   confidence,
		Alternatives: alternatives,
		Reasoning:    reasoning,
	}
}

func (c *Classifier) mediaFormat(ad models.CanonicalAd) (label string, confidence float64, reasoning string) {
	switch ad.MediaKind {
	case "video":
		return "video", 0.90, "Source reports video media"
	case "carousel":
		return "carousel", 0.90, "Source reports carousel media"
	case "image":
		return "image", 0.90, "Source reports image media"
	}

	// No hint; infer from the URL list.
	for _, u := range ad.MediaURLs {
		lower := strings.ToLower(u)
		if strings.HasSuffix(lower, ".mp4") || strings.HasSuffix(lower, ".webm") {
			return "video", 0.75, "Media URL has a video extension"
		}
	}
	if n := len(ad.MediaURLs); n > 3 {
		return "carousel", 0.70, fmt.Sprintf("%d media URLs suggest a carousel", n)
	}
	return "image", 0.70, "Static media URLs present"
}

// classifyTone labels the creative's messaging style from the extracted
// flags. The ordering of the rules makes the result deterministic when
// multiple flags are set.
func (c *Classifier) classifyTone(ad models.CanonicalAd) models.Classification {
	f := ad.Features
	if f == nil {
		f = &models.ExtractedFeatures{}
	}

	switch {
	case f.HasUrgency:
		return models.Classification{
			Label:      "promotional",
			Confidence: 0.80,
			Alternatives: []models.Alternative{
				{Label: "social", Confidence: 0.12},
				{Label: "informational", Confidence: 0.08},
			},
			Reasoning: "Urgency language in copy",
		}
	case f.HasPricing:
		return models.Classification{
			Label:      "promotional",
			Confidence: 0.75,
			Alternatives: []models.Alternative{
				{Label: "social", Confidence: 0.15},
				{Label: "informational", Confidence: 0.10},
			},
			Reasoning: "Pricing language in copy",
		}
	case f.HasSocialProof:
		return models.Classification{
			Label:      "social",
			Confidence: 0.75,
			Alternatives: []models.Alternative{
				{Label: "promotional", Confidence: 0.15},
				{Label: "informational", Confidence: 0.10},
			},
			Reasoning: "Social proof language in copy",
		}
	default:
		return models.Classification{
			Label:      "informational",
			Confidence: 0.65,
			Alternatives: []models.Alternative{
				{Label: "promotional", Confidence: 0.20},
				{Label: "social", Confidence: 0.15},
			},
			Reasoning: "No promotional or social signals detected",
		}
	}
}
