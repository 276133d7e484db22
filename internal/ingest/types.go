package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dbravo/ad-intel/internal/models"
)

// ErrSourceUnavailable is returned when an external ad source cannot be
// reached at all. The mock collector never returns it.
var ErrSourceUnavailable = errors.New("ad source unavailable")

// DataQualityError marks a single malformed record. It is recovered locally:
// the record is dropped and counted, the batch continues.
type DataQualityError struct {
	AdID   string
	Reason string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("data quality violation for ad %q: %s", e.AdID, e.Reason)
}

// CollectionConfig describes one collection job.
type CollectionConfig struct {
	Platform   models.Platform
	Keywords   []string
	MaxResults int
}

// Validate checks the boundary constraints on a collection job.
func (c CollectionConfig) Validate() error {
	if len(c.Keywords) == 0 {
		return errors.New("at least one keyword is required")
	}
	if c.MaxResults < 1 {
		return errors.New("max_results must be >= 1")
	}
	if !models.ValidPlatform(c.Platform) {
		return fmt.Errorf("unsupported platform %q", c.Platform)
	}
	return nil
}

// Collector yields raw ad records for a set of keywords. Implementations
// must emit at most cfg.MaxResults records, in fetch order. When the source
// fails mid-run, already-fetched records are returned alongside the error
// with truncated=true; they are never discarded.
type Collector interface {
	Collect(ctx context.Context) (ads []models.RawAd, truncated bool, err error)
}

// FetchedDocument is the raw result of one page fetch.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	FetchedAt   time.Time
}

// Fetcher retrieves raw content from a URL. The metaweb collector talks to
// its browser-automation backend exclusively through this interface so tests
// can substitute canned pages.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}
