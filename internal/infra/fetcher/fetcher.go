// Package fetcher implements the outbound HTTP fetch capability, wrapped
// with the resilience and freshness machinery a production deployment
// needs: a circuit breaker and retry-with-backoff transport layered around
// an *http.Client call, built on internal/resilience/circuitbreaker and
// internal/resilience/retry.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"feedhistd/internal/domain/entity"
	roothttp "feedhistd/internal/handler/http"
	"feedhistd/internal/infra/feedparse"
	"feedhistd/internal/observability/tracing"
	"feedhistd/internal/resilience/circuitbreaker"
	"feedhistd/internal/resilience/retry"
	"feedhistd/internal/usecase/history"
)

// Config tunes the fetcher's resilience and freshness behavior.
type Config struct {
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	FreshFor      time.Duration // how long a 200 response is served without revalidation
	Breaker       circuitbreaker.Config
	Retry         retry.Config
}

// DefaultConfig sets sane production presets for both the circuit breaker
// and the retry package.
func DefaultConfig() Config {
	return Config{
		Timeout:       20 * time.Second,
		RatePerSecond: 5,
		Burst:         10,
		FreshFor:      5 * time.Minute,
		Breaker:       circuitbreaker.FeedFetchConfig(),
		Retry:         retry.FeedFetchConfig(),
	}
}

type cacheEntry struct {
	fetchedAt time.Time
	doc       entity.FeedDocument
	status    int
}

// Fetcher implements history.Fetcher over a real *http.Client, with a
// token-bucket concurrency cap enforcing its own request rate, a circuit
// breaker and retrying transport, and an in-memory freshness cache keyed
// by URL.
type Fetcher struct {
	client   *http.Client
	limiter  *rate.Limiter
	breaker  *circuitbreaker.CircuitBreaker
	retry    retry.Config
	freshFor time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

var _ history.Fetcher = (*Fetcher)(nil)

// New builds a Fetcher from cfg. A nil client defaults to http.DefaultClient
// with cfg.Timeout applied.
func New(cfg Config, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}
	return &Fetcher{
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		breaker:  circuitbreaker.New(cfg.Breaker),
		retry:    cfg.Retry,
		freshFor: cfg.FreshFor,
		cache:    make(map[string]cacheEntry),
	}
}

// Fetch retrieves and parses the feed document at url. When opts.MaxStale
// is set and a cached response exists, it is returned without a network
// round trip regardless of age (RFC 5005 archive documents are immutable in
// practice); otherwise a cached entry younger than FreshFor is reused.
func (f *Fetcher) Fetch(ctx context.Context, url string, opts history.FetchOptions) (entity.FeedDocument, error) {
	if opts.MaxStale {
		if entry, ok := f.cached(url); ok {
			return entry.doc, nil
		}
	} else if entry, ok := f.cached(url); ok && time.Since(entry.fetchedAt) < f.freshFor {
		return entry.doc, nil
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return entity.FeedDocument{}, &history.Error{Kind: history.FetchFailed, Message: "rate limit wait", Cause: err}
	}

	ctx, span := tracing.GetTracer().Start(ctx, "fetcher.Fetch")
	span.SetAttributes(attribute.String("feed.url", url))
	defer span.End()

	start := time.Now()
	var doc entity.FeedDocument
	err := retry.WithBackoff(ctx, f.retry, func() error {
		d, ferr := f.doFetch(ctx, url, opts)
		if ferr != nil {
			return ferr
		}
		doc = d
		return nil
	})
	roothttp.RecordFeedFetch(err == nil, time.Since(start))
	if err != nil {
		span.RecordError(err)
		slog.Warn("fetch failed", slog.String("url", url), slog.Any("error", err))
		return entity.FeedDocument{}, &history.Error{Kind: history.FetchFailed, Message: fmt.Sprintf("fetch %s", url), Cause: err}
	}

	f.store(url, doc)
	return doc, nil
}

func (f *Fetcher) doFetch(ctx context.Context, url string, opts history.FetchOptions) (entity.FeedDocument, error) {
	result, err := f.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		if opts.MaxStale {
			req.Header.Set("Cache-Control", "max-stale")
		}
		if opts.Referer != "" {
			req.Header.Set("Referer", opts.Referer)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, history.ErrNotFound
		}
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
		}

		contentLocation := resp.Header.Get("Content-Location")
		if contentLocation == "" {
			contentLocation = url
		}
		doc, err := feedparse.Extract(bytes.TrimSpace(body), contentLocation, resp.Header.Get("Link"))
		if err != nil {
			return nil, err
		}
		return doc, nil
	})
	if err != nil {
		return entity.FeedDocument{}, err
	}
	return result.(entity.FeedDocument), nil
}

func (f *Fetcher) cached(url string) (cacheEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.cache[url]
	return e, ok
}

func (f *Fetcher) store(url string, doc entity.FeedDocument) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache[url] = cacheEntry{fetchedAt: time.Now(), doc: doc, status: http.StatusOK}
}
