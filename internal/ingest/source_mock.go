package ingest

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/dbravo/ad-intel/internal/models"
)

// Metric synthesis bands for the mock generator. Impressions are derived
// from spend through a CPM model; clicks and conversions follow
// multiplicatively so the canonical invariants hold by construction.
const (
	mockCPMMin  = 2.0  // $ per 1000 impressions
	mockCPMMax  = 20.0
	mockCTRMin  = 0.005
	mockCTRMax  = 0.05
	mockConvMin = 0.01
	mockConvMax = 0.15

	mockSpendMin = 50.0
	mockSpendMax = 5000.0
)

// MockOptions configures the mock collector.
type MockOptions struct {
	// Rand is the randomness source. Tests inject a seeded source for
	// reproducible runs; nil falls back to a time-seeded one.
	Rand *rand.Rand

	// MinDelay/MaxDelay bound the artificial per-ad latency that emulates
	// scraping. Defaults: 20ms-80ms. The collector never blocks longer
	// than MaxResults x MaxDelay.
	MinDelay time.Duration
	MaxDelay time.Duration
}

// MockCollector synthesizes plausible ad records without touching the
// network. It can never return ErrSourceUnavailable.
type MockCollector struct {
	cfg      CollectionConfig
	cat      *Catalog
	rng      *rand.Rand
	minDelay time.Duration
	maxDelay time.Duration
}

func NewMockCollector(cfg CollectionConfig, cat *Catalog, opts MockOptions) *MockCollector {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	minDelay, maxDelay := opts.MinDelay, opts.MaxDelay
	if maxDelay == 0 {
		minDelay, maxDelay = 20*time.Millisecond, 80*time.Millisecond
	}
	if minDelay > maxDelay {
		minDelay = maxDelay
	}
	return &MockCollector{cfg: cfg, cat: cat, rng: rng, minDelay: minDelay, maxDelay: maxDelay}
}

// Collect generates exactly cfg.MaxResults records unless the context is
// cancelled first, in which case the records produced so far are returned
// with truncated=true.
func (m *MockCollector) Collect(ctx context.Context) ([]models.RawAd, bool, error) {
	ads := make([]models.RawAd, 0, m.cfg.MaxResults)

	for i := 0; i < m.cfg.MaxResults; i++ {
		if err := m.sleep(ctx); err != nil {
			log.Printf("[mock] cancelled after %d/%d ads: %v", len(ads), m.cfg.MaxResults, err)
			return ads, true, err
		}
		ads = append(ads, m.generate(i))
	}

	log.Printf("[mock] generated %d ads", len(ads))
	return ads, false, nil
}

func (m *MockCollector) sleep(ctx context.Context) error {
	d := m.minDelay
	if span := m.maxDelay - m.minDelay; span > 0 {
		d += time.Duration(m.rng.Int63n(int64(span)))
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *MockCollector) generate(seq int) models.RawAd {
	brand := m.cat.Brands[m.rng.Intn(len(m.cat.Brands))]

	spend := mockSpendMin + m.rng.Float64()*(mockSpendMax-mockSpendMin)
	cpm := mockCPMMin + m.rng.Float64()*(mockCPMMax-mockCPMMin)
	impressions := int(spend / cpm * 1000)
	ctr := mockCTRMin + m.rng.Float64()*(mockCTRMax-mockCTRMin)
	clicks := int(float64(impressions) * ctr)
	convRate := mockConvMin + m.rng.Float64()*(mockConvMax-mockConvMin)
	conversions := int(float64(clicks) * convRate)

	id := m.adID()
	mediaKind, mediaURLs := m.media(id)

	return models.RawAd{
		ID:           id,
		Headline:     m.cat.Headlines[m.rng.Intn(len(m.cat.Headlines))],
		BodyText:     m.cat.BodyTexts[m.rng.Intn(len(m.cat.BodyTexts))],
		CallToAction: m.cat.CTAPool[m.rng.Intn(len(m.cat.CTAPool))],
		BrandName:    brand.Name,
		Platform:     models.PlatformMock,
		SourceURL:    fmt.Sprintf("https://ads.example.com/library/?id=%s", id),
		MediaURLs:    mediaURLs,
		MediaKind:    mediaKind,
		Impressions:  &impressions,
		Clicks:       &clicks,
		Conversions:  &conversions,
		Spend:        &spend,
		Targeting:    m.targeting(),
		CollectedAt:  time.Now().UTC(),
	}
}

// adID picks one of three platform id styles: an 18-digit numeric id, a
// gad_<token>_<token> id, or a 13-digit numeric id.
func (m *MockCollector) adID() string {
	switch m.rng.Intn(3) {
	case 0:
		return m.digits(18)
	case 1:
		return "gad_" + m.token(8) + "_" + m.token(10)
	default:
		return m.digits(13)
	}
}

func (m *MockCollector) digits(n int) string {
	b := make([]byte, n)
	b[0] = byte('1' + m.rng.Intn(9))
	for i := 1; i < n; i++ {
		b[i] = byte('0' + m.rng.Intn(10))
	}
	return string(b)
}

func (m *MockCollector) token(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[m.rng.Intn(len(alphabet))]
	}
	return string(b)
}

func (m *MockCollector) media(id string) (string, []string) {
	switch roll := m.rng.Float64(); {
	case roll < 0.40:
		return "", nil
	case roll < 0.70:
		return "image", []string{fmt.Sprintf("https://cdn.example.com/%s/creative.jpg", id)}
	case roll < 0.85:
		return "video", []string{fmt.Sprintf("https://cdn.example.com/%s/creative.mp4", id)}
	default:
		urls := make([]string, 4)
		for i := range urls {
			urls[i] = fmt.Sprintf("https://cdn.example.com/%s/card_%d.jpg", id, i)
		}
		return "carousel", urls
	}
}

var (
	mockGenders    = []string{"all", "all", "female", "male"}
	mockRegions    = []string{"US", "CA", "GB", "DE", "AU"}
	mockPlacements = []string{"feed", "stories", "search", "reels"}
)

func (m *MockCollector) targeting() *models.Targeting {
	ageMin := 18 + m.rng.Intn(4)*5
	return &models.Targeting{
		AgeMin:     ageMin,
		AgeMax:     ageMin + 10 + m.rng.Intn(4)*5,
		Gender:     mockGenders[m.rng.Intn(len(mockGenders))],
		Regions:    []string{mockRegions[m.rng.Intn(len(mockRegions))]},
		Placements: []string{mockPlacements[m.rng.Intn(len(mockPlacements))]},
	}
}
