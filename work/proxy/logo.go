package proxy

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"sportscast-proxy/work/client"
	"sportscast-proxy/work/config"
	"sportscast-proxy/work/logger"
	"sportscast-proxy/work/metrics"
	"sportscast-proxy/work/utils"

	"github.com/maypok86/otter/v2"
	"golang.org/x/crypto/blake2b"
)

// Logo bodies larger than this are relayed but not cached.
const maxCachedLogoBytes = 1 << 20

// cachedLogo is one relayed logo image held in the cache.
type cachedLogo struct {
	contentType string
	body        []byte
}

// LogoRelay fetches channel logo images on behalf of browser clients and
// caches them, so players behind strict CSP setups get logos from our origin
// and upstreams see a fraction of the traffic.
type LogoRelay struct {
	cfg    *config.Config
	client *client.Client
	cache  *otter.Cache[string, cachedLogo]
}

// NewLogoRelay creates a logo relay with a bounded TTL cache.
func NewLogoRelay(cfg *config.Config, cl *client.Client) *LogoRelay {
	cache := otter.Must(&otter.Options[string, cachedLogo]{
		MaximumSize:      cfg.LogoCacheEntries,
		ExpiryCalculator: otter.ExpiryWriting[string, cachedLogo](cfg.LogoCacheDuration),
	})

	return &LogoRelay{
		cfg:    cfg,
		client: cl,
		cache:  cache,
	}
}

// Serve handles GET /logo?url=. Responses carry a day-long Cache-Control so
// browsers stop asking; the server-side cache covers fresh clients.
func (lr *LogoRelay) Serve(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" || !utils.IsHTTPURL(target) {
		http.Error(w, "missing or invalid url parameter", http.StatusBadRequest)
		return
	}

	key := cacheKey(target)

	if logo, ok := lr.cache.GetIfPresent(key); ok {
		metrics.LogoRequests.WithLabelValues("hit").Inc()
		writeLogo(w, logo)
		return
	}

	logo, err := lr.fetch(r.Context(), target)
	if err != nil {
		metrics.LogoRequests.WithLabelValues("error").Inc()
		logger.Warn("Logo fetch failed for %s: %v", utils.LogURL(lr.cfg.ObfuscateUrls, target), err)
		http.Error(w, "failed to fetch logo", http.StatusBadGateway)
		return
	}

	metrics.LogoRequests.WithLabelValues("miss").Inc()
	if len(logo.body) <= maxCachedLogoBytes {
		lr.cache.Set(key, logo)
	}
	writeLogo(w, logo)
}

// fetch retrieves the logo bounded by the logo timeout.
func (lr *LogoRelay) fetch(ctx context.Context, target string) (cachedLogo, error) {
	ctx, cancel := context.WithTimeout(ctx, lr.cfg.LogoTimeout)
	defer cancel()

	resp, err := lr.client.Get(ctx, target)
	if err != nil {
		return cachedLogo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return cachedLogo{}, fmt.Errorf("logo upstream returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCachedLogoBytes+1))
	if err != nil {
		return cachedLogo{}, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	return cachedLogo{contentType: contentType, body: body}, nil
}

func writeLogo(w http.ResponseWriter, logo cachedLogo) {
	w.Header().Set("Content-Type", logo.contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(logo.body)
}

// cacheKey digests the logo URL so arbitrarily long upstream URLs become
// fixed-size cache keys.
func cacheKey(target string) string {
	sum := blake2b.Sum256([]byte(target))
	return hex.EncodeToString(sum[:])
}
