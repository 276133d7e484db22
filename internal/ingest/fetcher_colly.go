package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyFetcher implements Fetcher using Colly: per-domain rate limiting,
// retries and a browser-like user agent, which the public ad library
// requires.
type CollyFetcher struct {
	UserAgent         string
	MaxRetries        int
	RequestTimeout    time.Duration
	DomainDelay       time.Duration
	RandomDelayFactor float64
	MaxBodySize       int // bytes, 0 = colly default
}

// NewCollyFetcher creates a CollyFetcher with defaults tuned for ad-library
// pages.
func NewCollyFetcher() *CollyFetcher {
	return &CollyFetcher{
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		MaxRetries:        2,
		RequestTimeout:    30 * time.Second,
		DomainDelay:       1 * time.Second,
		RandomDelayFactor: 0.5,
		MaxBodySize:       10 * 1024 * 1024,
	}
}

func (f *CollyFetcher) buildCollector(host string) *colly.Collector {
	opts := []colly.CollectorOption{
		colly.UserAgent(f.UserAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	}
	if host != "" {
		opts = append(opts, colly.AllowedDomains(host))
	}
	if f.MaxBodySize > 0 {
		opts = append(opts, colly.MaxBodySize(f.MaxBodySize))
	}

	c := colly.NewCollector(opts...)
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       f.DomainDelay,
		RandomDelay: time.Duration(float64(f.DomainDelay) * f.RandomDelayFactor),
	})
	c.SetRequestTimeout(f.RequestTimeout)
	return c
}

// Fetch retrieves one page. It honors ctx cancellation: a caller-imposed
// deadline aborts the wait without corrupting anything already fetched by
// previous calls.
func (f *CollyFetcher) Fetch(ctx context.Context, targetURL string) (*FetchedDocument, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", targetURL, err)
	}

	c := f.buildCollector(parsed.Host)

	var (
		body        []byte
		statusCode  int
		contentType string
		lastErr     error
	)

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		statusCode = r.StatusCode
		contentType = r.Headers.Get("Content-Type")
		lastErr = nil
	})
	c.OnError(func(r *colly.Response, visitErr error) {
		lastErr = visitErr
		if r == nil {
			return
		}
		statusCode = r.StatusCode
		retries, _ := r.Request.Ctx.GetAny("retries").(int)
		if retries < f.MaxRetries {
			r.Request.Ctx.Put("retries", retries+1)
			time.Sleep(time.Duration(retries+1) * time.Second)
			r.Request.Retry()
		}
	})

	done := make(chan error, 1)
	go func() {
		visitErr := c.Visit(targetURL)
		c.Wait()
		done <- visitErr
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case visitErr := <-done:
		if lastErr != nil {
			return nil, fmt.Errorf("fetch %s failed: %w", targetURL, lastErr)
		}
		if visitErr != nil {
			return nil, fmt.Errorf("fetch %s failed: %w", targetURL, visitErr)
		}
	}

	if statusCode >= 400 {
		return nil, fmt.Errorf("fetch %s returned status %d", targetURL, statusCode)
	}

	return &FetchedDocument{
		URL:         targetURL,
		StatusCode:  statusCode,
		ContentType: contentType,
		Body:        io.NopCloser(bytes.NewReader(body)),
		FetchedAt:   time.Now().UTC(),
	}, nil
}
