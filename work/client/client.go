package client

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"sportscast-proxy/work/config"
	"sportscast-proxy/work/logger"

	"go.uber.org/ratelimit"
)

// Client wraps http.Client with per-origin header profiles and per-host
// outbound rate limiting. Upstream stream hosts enforce User-Agent, Origin
// and Referer checks, so every outbound request gets the headers of the
// first configured profile whose match substring occurs in the target URL,
// falling back to a generic browser-like profile.
type Client struct {
	HTTP *http.Client
	cfg  *config.Config

	limiters     map[string]ratelimit.Limiter // per-host limiters keyed by hostname
	limiterMutex sync.RWMutex                 // protects concurrent access to the limiter map
}

// New creates a Client with a shared transport tuned for many concurrent
// streaming connections. The overall client timeout stays unset: streaming
// responses are long-lived and individual operations bound themselves with
// request contexts instead.
func New(cfg *config.Config) *Client {
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
		},
	}

	return &Client{
		HTTP:     httpClient,
		cfg:      cfg,
		limiters: make(map[string]ratelimit.Limiter),
	}
}

// ProfileFor selects the outbound header profile for a target URL. Profiles
// are checked in configuration order and the first match wins.
func (c *Client) ProfileFor(target string) config.HeaderProfile {
	for _, profile := range c.cfg.HeaderProfiles {
		if profile.Match != "" && strings.Contains(target, profile.Match) {
			return profile
		}
	}
	return c.cfg.DefaultProfile
}

// Do applies the matching header profile and the per-host rate limit, then
// executes the request. Headers already set on the request are not replaced,
// so callers can override the profile selectively.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.setHeaders(req)
	c.limiterForHost(req.URL.Hostname()).Take()
	return c.HTTP.Do(req)
}

// Get issues a profile-aware GET bound to the given context.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

func (c *Client) setHeaders(req *http.Request) {
	profile := c.ProfileFor(req.URL.String())

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", profile.UserAgent)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Connection", "keep-alive")

	if profile.Origin != "" {
		req.Header.Set("Origin", profile.Origin)
	}
	if profile.Referer != "" {
		req.Header.Set("Referer", profile.Referer)
	}
}

// limiterForHost retrieves the rate limiter for an upstream host, creating
// it on first use with a double-checked lock so concurrent catalog builds
// never race on limiter creation.
func (c *Client) limiterForHost(host string) ratelimit.Limiter {
	// fast path: read-only lookup
	c.limiterMutex.RLock()
	limiter, exists := c.limiters[host]
	c.limiterMutex.RUnlock()

	if exists {
		return limiter
	}

	// slow path: acquire write lock and create the limiter if still missing
	c.limiterMutex.Lock()
	defer c.limiterMutex.Unlock()

	if limiter, exists := c.limiters[host]; exists {
		return limiter
	}

	perSecond := c.cfg.RequestsPerHost
	if perSecond <= 0 {
		perSecond = 20
	}

	limiter = ratelimit.New(perSecond)
	c.limiters[host] = limiter

	logger.Debug("{client - limiterForHost} Created rate limiter for host %s: %d req/sec", host, perSecond)

	return limiter
}
