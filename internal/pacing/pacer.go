// internal/pacing/pacer.go
package pacing

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// Pacer spaces out successive browser launches against the same host. Captures
// run sequentially, but result pages all live on one host and hammering it
// with back-to-back page loads invites throttling.
type Pacer interface {
	// Wait blocks until a capture of the given URL may start.
	// Returns early with an error if the context is cancelled first.
	Wait(ctx context.Context, urlStr string) error

	// Allow reports whether a capture of the given URL could start
	// immediately without blocking.
	Allow(urlStr string) bool
}

// HostPacer is a token-bucket Pacer keyed by URL host.
type HostPacer struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	perHost  rate.Limit
	burst    int
}

// NewHostPacer creates a pacer allowing capturesPerSecond launches per host
// with the given burst capacity.
func NewHostPacer(capturesPerSecond float64, burst int) *HostPacer {
	if capturesPerSecond <= 0 {
		capturesPerSecond = 0.5 // one capture every two seconds per host
	}
	if burst <= 0 {
		burst = 1
	}

	return &HostPacer{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(capturesPerSecond),
		burst:    burst,
	}
}

// Wait blocks until a capture of the given URL may start
func (p *HostPacer) Wait(ctx context.Context, urlStr string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	host := extractHost(urlStr)
	if host == "" {
		// Invalid URL, let it proceed (will fail elsewhere)
		return nil
	}

	return p.getLimiter(host).Wait(ctx)
}

// Allow checks if a capture can start immediately without blocking
func (p *HostPacer) Allow(urlStr string) bool {
	host := extractHost(urlStr)
	if host == "" {
		return true
	}

	return p.getLimiter(host).Allow()
}

// getLimiter returns or creates the limiter for the given host
func (p *HostPacer) getLimiter(host string) *rate.Limiter {
	p.mu.RLock()
	limiter, exists := p.limiters[host]
	p.mu.RUnlock()

	if exists {
		return limiter
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := p.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(p.perHost, p.burst)
	p.limiters[host] = limiter

	return limiter
}

// extractHost extracts the host from a URL string
func extractHost(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Host
}
