package ingest

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/catalog.yaml
var catalogYAML embed.FS

// Brand is one advertiser in the entity catalog. The mock generator also
// draws from it.
type Brand struct {
	Name     string `yaml:"name"`
	Industry string `yaml:"industry"`
}

// CTAPattern maps a call-to-action phrase to its category. Patterns are
// ordered; the first match wins.
type CTAPattern struct {
	Phrase string `yaml:"phrase"`
	Type   string `yaml:"type"`
}

// Catalog is the immutable lexicon shared by the mock generator, the
// feature extractor and the classifier. It is loaded once per process and
// must not be mutated afterwards.
type Catalog struct {
	Brands           []Brand      `yaml:"brands"`
	Headlines        []string     `yaml:"headlines"`
	BodyTexts        []string     `yaml:"body_texts"`
	CTAPool          []string     `yaml:"cta_pool"`
	CTAPatterns      []CTAPattern `yaml:"cta_patterns"`
	UrgencyTerms     []string     `yaml:"urgency_terms"`
	PricingTerms     []string     `yaml:"pricing_terms"`
	SocialProofTerms []string     `yaml:"social_proof_terms"`
	StopWords        []string     `yaml:"stop_words"`

	stopSet map[string]struct{}
}

// LoadCatalog reads the embedded catalog.yaml. The path parameter is a
// filesystem fallback for local experiments with alternate lexicons.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := catalogYAML.ReadFile("config/catalog.yaml")
	if err != nil && path != "" {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(cat.Brands) == 0 {
		return nil, fmt.Errorf("catalog has no brands")
	}

	cat.stopSet = make(map[string]struct{}, len(cat.StopWords))
	for _, w := range cat.StopWords {
		cat.stopSet[strings.ToLower(w)] = struct{}{}
	}
	return &cat, nil
}

var (
	defaultCatalogOnce sync.Once
	defaultCatalog     *Catalog
	defaultCatalogErr  error
)

// DefaultCatalog returns the process-wide catalog, loading it on first use.
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = LoadCatalog("")
	})
	return defaultCatalog, defaultCatalogErr
}

// IsStopWord reports whether token is in the stop-word list.
func (c *Catalog) IsStopWord(token string) bool {
	_, ok := c.stopSet[strings.ToLower(token)]
	return ok
}

// CTAType resolves text against the ordered phrase table, returning "other"
// when nothing matches.
func (c *Catalog) CTAType(text string) string {
	lower := strings.ToLower(text)
	for _, p := range c.CTAPatterns {
		if strings.Contains(lower, p.Phrase) {
			return p.Type
		}
	}
	return "other"
}

// containsAny reports whether lower (already lowercased) contains any of the
// given terms.
func containsAny(lower string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
