package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sportscast-proxy/work/client"
	"sportscast-proxy/work/config"
	"sportscast-proxy/work/logger"
	"sportscast-proxy/work/metrics"
	"sportscast-proxy/work/utils"

	"github.com/grafov/m3u8"
)

// Proxy relays upstream streams through this server so browser players can
// fetch them with our CORS headers and without exposing their own referrer.
// Manifest responses are rewritten line by line so every nested reference
// comes back through the proxy; binary segments are streamed straight
// through.
type Proxy struct {
	cfg    *config.Config
	client *client.Client
}

// New creates a streaming proxy sharing the application HTTP client, which
// supplies the per-origin header profiles upstream origins require.
func New(cfg *config.Config, cl *client.Client) *Proxy {
	return &Proxy{
		cfg:    cfg,
		client: cl,
	}
}

// Serve handles GET /proxy?url=. The upstream fetch is bounded by the proxy
// timeout until response headers arrive; after that the stream runs as long
// as the client stays connected, and a client disconnect aborts the upstream
// fetch through the request context.
func (p *Proxy) Serve(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}
	if !utils.IsHTTPURL(target) {
		http.Error(w, "url must be an absolute http(s) URL", http.StatusBadRequest)
		return
	}

	targetURL, err := url.Parse(target)
	if err != nil {
		http.Error(w, "invalid url parameter", http.StatusBadRequest)
		return
	}

	logger.Debug("{proxy - Serve} Proxying %s", utils.LogURL(p.cfg.ObfuscateUrls, target))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		http.Error(w, "invalid url parameter", http.StatusBadRequest)
		return
	}
	if rng := r.Header.Get("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}

	// Bound the time to response headers only; live segments may stream for
	// much longer than the fetch timeout.
	headerTimer := time.AfterFunc(p.cfg.ProxyTimeout, cancel)
	resp, err := p.client.Do(req)
	headerTimer.Stop()
	if err != nil {
		metrics.ProxyRequests.WithLabelValues("error").Inc()
		logger.Warn("Proxy fetch failed for %s: %v", utils.LogURL(p.cfg.ObfuscateUrls, target), err)
		http.Error(w, "failed to fetch upstream", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		metrics.ProxyRequests.WithLabelValues("error").Inc()
		logger.Warn("Proxy upstream %s returned status %d", utils.LogURL(p.cfg.ObfuscateUrls, target), resp.StatusCode)
		http.Error(w, fmt.Sprintf("upstream returned status %d", resp.StatusCode), http.StatusBadGateway)
		return
	}

	if isManifest(targetURL, resp.Header.Get("Content-Type")) {
		p.serveManifest(w, resp, targetURL)
		return
	}
	p.serveSegment(w, resp, targetURL)
}

// Preflight handles OPTIONS /proxy. The CORS headers themselves come from
// the shared middleware; this just acknowledges the preflight.
func (p *Proxy) Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// serveManifest reads the whole manifest, rewrites its references and sends
// the result. Manifests are small, so buffering the body is fine.
func (p *Proxy) serveManifest(w http.ResponseWriter, resp *http.Response, target *url.URL) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ProxyRequests.WithLabelValues("error").Inc()
		http.Error(w, "failed to read upstream manifest", http.StatusBadGateway)
		return
	}

	metrics.ProxyRequests.WithLabelValues(classifyManifest(body)).Inc()

	rewritten := RewriteManifest(string(body), target)

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.WriteHeader(http.StatusOK)
	n, _ := io.WriteString(w, rewritten)
	metrics.ProxyBytes.Add(float64(n))
}

// serveSegment streams a binary response straight through, passing along the
// headers players rely on for seeking.
func (p *Proxy) serveSegment(w http.ResponseWriter, resp *http.Response, target *url.URL) {
	metrics.ProxyRequests.WithLabelValues("segment").Inc()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if strings.HasSuffix(strings.ToLower(target.Path), ".ts") {
			contentType = "video/mp2t"
		}
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	for _, header := range []string{"Content-Length", "Accept-Ranges", "Content-Range"} {
		if value := resp.Header.Get(header); value != "" {
			w.Header().Set(header, value)
		}
	}
	w.WriteHeader(resp.StatusCode)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				// Client went away; the deferred cancel aborts the upstream.
				return
			}
			metrics.ProxyBytes.Add(float64(n))
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			return
		}
	}
}

// RewriteManifest rewrites every reference line of an HLS manifest into a
// relative /proxy?url= link, resolving relative references against the
// manifest's own URL. Comment and tag lines pass through untouched, as do
// lines that are already proxied.
func RewriteManifest(body string, target *url.URL) string {
	lines := strings.Split(body, "\n")
	out := make([]string, len(lines))

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			out[i] = line
			continue
		}
		if strings.HasPrefix(trimmed, "/proxy?") || strings.Contains(trimmed, "/proxy?url=") {
			out[i] = trimmed
			continue
		}

		ref, err := url.Parse(trimmed)
		if err != nil {
			out[i] = line
			continue
		}
		out[i] = "/proxy?url=" + url.QueryEscape(target.ResolveReference(ref).String())
	}

	return strings.Join(out, "\n")
}

// isManifest classifies a response as an HLS manifest from the target path
// or the content type.
func isManifest(target *url.URL, contentType string) bool {
	if strings.HasSuffix(strings.ToLower(target.Path), ".m3u8") {
		return true
	}
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "mpegurl") || strings.Contains(contentType, "x-mpegurl")
}

// classifyManifest labels a manifest as master or media for metrics, using
// the grafov decoder. Manifests the decoder rejects still get rewritten;
// they just count as media.
func classifyManifest(body []byte) string {
	_, listType, err := m3u8.DecodeFrom(strings.NewReader(string(body)), true)
	if err != nil {
		return "media"
	}
	if listType == m3u8.MASTER {
		return "master"
	}
	return "media"
}
