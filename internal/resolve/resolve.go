// Package resolve follows pub URLs to their landing pages. Alert
// links point at DOI handles and tracking redirectors; curation links
// work better when they point at the publisher page itself.
package resolve

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds one resolution attempt.
	DefaultTimeout = 20 * time.Second

	// RateLimit keeps us polite toward doi.org and the publishers.
	RateLimit = 2.0

	// Some publishers return errors or cookie walls to obvious bots.
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Resolver resolves URLs to their post-redirect form, caching results
// for the duration of a run.
type Resolver struct {
	httpClient *http.Client
	limiter    *rate.Limiter

	mu    sync.Mutex
	cache map[string]string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Resolver) {
		r.httpClient = hc
	}
}

// WithRateLimit overrides the requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(r *Resolver) {
		r.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		cache:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the URL the given one redirects to. Resolution is
// best effort: on any failure the original URL comes back, so callers
// can use the result unconditionally.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) string {
	if rawURL == "" {
		return rawURL
	}

	r.mu.Lock()
	if resolved, ok := r.cache[rawURL]; ok {
		r.mu.Unlock()
		return resolved
	}
	r.mu.Unlock()

	resolved := r.fetch(ctx, rawURL)

	r.mu.Lock()
	r.cache[rawURL] = resolved
	r.mu.Unlock()
	return resolved
}

func (r *Resolver) fetch(ctx context.Context, rawURL string) string {
	if err := r.limiter.Wait(ctx); err != nil {
		return rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return rawURL
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return rawURL
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return rawURL
	}
	return resp.Request.URL.String()
}
