package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"sportscast-proxy/work/client"
	"sportscast-proxy/work/config"
	"sportscast-proxy/work/logger"
	"sportscast-proxy/work/metrics"
	"sportscast-proxy/work/utils"

	"github.com/puzpuzpuz/xsync/v3"
)

// Byte budget requested from the upstream. The probe only needs the status
// line, so a single small range keeps probes cheap for the origin too.
const byteBudget = 1024

// How long a probe verdict stays valid. Manual lists repeat the same URLs on
// every catalog build, so a short cache avoids hammering origins without
// hiding streams that come back online.
const resultTTL = 30 * time.Second

// cachedResult is one remembered probe verdict.
type cachedResult struct {
	online  bool
	checked time.Time
}

// Prober answers "is this stream URL worth offering" with a bounded partial
// GET. Reachability is judged from the status line alone: anything below 500
// counts as online, since origins commonly reject range or method quirks with
// 4xx while still serving the stream to a real player.
type Prober struct {
	cfg    *config.Config
	client *client.Client
	cache  *xsync.MapOf[string, cachedResult]
}

// New creates a Prober sharing the application HTTP client.
func New(cfg *config.Config, cl *client.Client) *Prober {
	return &Prober{
		cfg:    cfg,
		client: cl,
		cache:  xsync.NewMapOf[string, cachedResult](),
	}
}

// Probe reports whether a stream URL is currently reachable. Each call is
// individually bounded by the configured probe timeout; network errors and
// timeouts mean unreachable. Results are cached briefly per URL.
func (p *Prober) Probe(ctx context.Context, streamURL string) bool {
	if cached, ok := p.cache.Load(streamURL); ok && time.Since(cached.checked) < resultTTL {
		metrics.ProbeCacheHits.Inc()
		return cached.online
	}

	online := p.check(ctx, streamURL)

	p.cache.Store(streamURL, cachedResult{online: online, checked: time.Now()})

	if online {
		metrics.ProbeResults.WithLabelValues("online").Inc()
	} else {
		metrics.ProbeResults.WithLabelValues("offline").Inc()
	}

	return online
}

// check performs the actual partial GET.
func (p *Prober) check(ctx context.Context, streamURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", byteBudget-1))

	resp, err := p.client.Do(req)
	if err != nil {
		logger.Debug("{probe - check} %s unreachable: %v", utils.LogURL(p.cfg.ObfuscateUrls, streamURL), err)
		return false
	}
	// Release the connection as soon as the status is known.
	resp.Body.Close()

	online := resp.StatusCode < http.StatusInternalServerError
	logger.Debug("{probe - check} %s status %d online=%v", utils.LogURL(p.cfg.ObfuscateUrls, streamURL), resp.StatusCode, online)

	return online
}
