package ingest

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/dbravo/ad-intel/internal/models"
)

const metawebBaseURL = "https://www.facebook.com/ads/library/"

// MetawebCollector scrapes the public ad library through a Fetcher. The
// fetcher is the only blocking/external dependency, so tests substitute
// canned pages and production wires a CollyFetcher.
type MetawebCollector struct {
	cfg       CollectionConfig
	fetcher   Fetcher
	sanitizer *bluemonday.Policy
}

func NewMetawebCollector(cfg CollectionConfig, fetcher Fetcher) *MetawebCollector {
	if fetcher == nil {
		fetcher = NewCollyFetcher()
	}
	return &MetawebCollector{
		cfg:       cfg,
		fetcher:   fetcher,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Collect fetches result pages per keyword, stopping at MaxResults total or
// when every keyword is exhausted. If the backend becomes unreachable after
// some ads were fetched, the partial batch is returned with truncated=true
// alongside the error; nothing already fetched is discarded.
func (m *MetawebCollector) Collect(ctx context.Context) ([]models.RawAd, bool, error) {
	var ads []models.RawAd

	for _, keyword := range m.cfg.Keywords {
		if len(ads) >= m.cfg.MaxResults {
			break
		}

		searchURL := m.searchURL(keyword)
		log.Printf("[metaweb] fetching ads for %q", keyword)

		doc, err := m.fetcher.Fetch(ctx, searchURL)
		if err != nil {
			wrapped := fmt.Errorf("%w: keyword %q: %v", ErrSourceUnavailable, keyword, err)
			if len(ads) > 0 {
				log.Printf("[metaweb] backend lost mid-run, returning %d partial ads: %v", len(ads), err)
				return ads, true, wrapped
			}
			return nil, false, wrapped
		}

		extracted, err := m.extract(doc, keyword, m.cfg.MaxResults-len(ads))
		doc.Body.Close()
		if err != nil {
			log.Printf("[metaweb] failed to parse results for %q: %v", keyword, err)
			continue
		}
		ads = append(ads, extracted...)
	}

	log.Printf("[metaweb] collected %d ads total", len(ads))
	return ads, false, nil
}

func (m *MetawebCollector) searchURL(keyword string) string {
	q := url.Values{}
	q.Set("active_status", "all")
	q.Set("ad_type", "all")
	q.Set("country", "US")
	q.Set("q", keyword)
	q.Set("search_type", "keyword_unordered")
	return metawebBaseURL + "?" + q.Encode()
}

// extract parses ad cards out of one result page. The library's markup
// shifts; cards are located by role=article with a data-testid fallback.
func (m *MetawebCollector) extract(doc *FetchedDocument, keyword string, limit int) ([]models.RawAd, error) {
	page, err := goquery.NewDocumentFromReader(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	cards := page.Find(`[role="article"]`)
	if cards.Length() == 0 {
		cards = page.Find(`div[data-testid="ad-card"]`)
	}

	var ads []models.RawAd
	cards.EachWithBreak(func(idx int, card *goquery.Selection) bool {
		if len(ads) >= limit {
			return false
		}
		if ad, ok := m.extractCard(card, keyword, idx, doc.FetchedAt); ok {
			ads = append(ads, ad)
		}
		return true
	})
	return ads, nil
}

func (m *MetawebCollector) extractCard(card *goquery.Selection, keyword string, idx int, fetchedAt time.Time) (models.RawAd, bool) {
	var paragraphs []string
	card.Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := cleanText(m.sanitizer.Sanitize(p.Text())); t != "" {
			paragraphs = append(paragraphs, t)
		}
	})

	headline := ""
	body := ""
	if len(paragraphs) > 0 {
		headline = paragraphs[0]
	}
	if len(paragraphs) > 1 {
		body = strings.Join(paragraphs[1:], " ")
	}
	if headline == "" && body == "" {
		return models.RawAd{}, false
	}

	brand := cleanText(card.Find(`a[role="link"]`).First().Text())
	sourceURL, _ := card.Find("a").First().Attr("href")

	var media []string
	card.Find("img").Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok && src != "" {
			media = append(media, src)
		}
	})
	mediaKind := ""
	switch {
	case card.Find("video").Length() > 0:
		mediaKind = "video"
	case len(media) > 3:
		mediaKind = "carousel"
	case len(media) > 0:
		mediaKind = "image"
	}

	id := adIDFromURL(sourceURL)
	if id == "" {
		id = fmt.Sprintf("web_%s_%d_%d", strings.ToLower(keyword), idx, fetchedAt.Unix())
	}

	cta := cleanText(card.Find(`div[role="button"]`).First().Text())

	// The public library exposes no engagement metrics; the preprocessor
	// coerces the missing values to zero.
	return models.RawAd{
		ID:           id,
		Headline:     headline,
		BodyText:     body,
		CallToAction: cta,
		BrandName:    brand,
		Platform:     models.PlatformMetaweb,
		SourceURL:    sourceURL,
		MediaURLs:    media,
		MediaKind:    mediaKind,
		CollectedAt:  fetchedAt,
	}, true
}

// adIDFromURL pulls the library id query parameter out of a snapshot URL.
func adIDFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Query().Get("id")
}
