package proxy

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"sportscast-proxy/work/client"
	"sportscast-proxy/work/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		ProxyTimeout:      2 * time.Second,
		LogoTimeout:       2 * time.Second,
		LogoCacheDuration: time.Minute,
		LogoCacheEntries:  16,
		RequestsPerHost:   100,
	}
	cfg.DefaultProfile.UserAgent = "test-agent"
	return cfg
}

func testProxy() *Proxy {
	cfg := testConfig()
	return New(cfg, client.New(cfg))
}

func TestRewriteManifest(t *testing.T) {
	base, _ := url.Parse("http://origin.example/live/channel/index.m3u8")

	manifest := strings.Join([]string{
		"#EXTM3U",
		"#EXT-X-TARGETDURATION:6",
		"segment001.ts",
		"/absolute/segment002.ts",
		"http://other.example/segment003.ts",
		"",
		"#EXT-X-ENDLIST",
	}, "\n")

	got := strings.Split(RewriteManifest(manifest, base), "\n")

	want := []string{
		"#EXTM3U",
		"#EXT-X-TARGETDURATION:6",
		"/proxy?url=" + url.QueryEscape("http://origin.example/live/channel/segment001.ts"),
		"/proxy?url=" + url.QueryEscape("http://origin.example/absolute/segment002.ts"),
		"/proxy?url=" + url.QueryEscape("http://other.example/segment003.ts"),
		"",
		"#EXT-X-ENDLIST",
	}

	if len(got) != len(want) {
		t.Fatalf("line count = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRewriteManifestKeepsProxiedLines(t *testing.T) {
	base, _ := url.Parse("http://origin.example/index.m3u8")
	line := "/proxy?url=" + url.QueryEscape("http://other.example/s.ts")

	got := RewriteManifest(line+"\n", base)
	if !strings.HasPrefix(got, line) {
		t.Errorf("already-proxied line was rewritten: %q", got)
	}
}

func TestServeRequiresURL(t *testing.T) {
	rec := httptest.NewRecorder()
	testProxy().Serve(rec, httptest.NewRequest(http.MethodGet, "/proxy", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	testProxy().Serve(rec, httptest.NewRequest(http.MethodGet, "/proxy?url=ftp://nope", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status for non-http url = %d, want 400", rec.Code)
	}
}

func TestServeRewritesManifestResponses(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		w.Write([]byte("#EXTM3U\nchunk.ts\n"))
	}))
	defer upstream.Close()

	target := upstream.URL + "/stream/index.m3u8"
	rec := httptest.NewRecorder()
	testProxy().Serve(rec, httptest.NewRequest(http.MethodGet, "/proxy?url="+url.QueryEscape(target), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	wantLine := "/proxy?url=" + url.QueryEscape(upstream.URL+"/stream/chunk.ts")
	if !strings.Contains(body, wantLine) {
		t.Errorf("body %q missing rewritten line %q", body, wantLine)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.apple.mpegurl" {
		t.Errorf("content type = %q", ct)
	}
}

func TestServeStreamsSegments(t *testing.T) {
	payload := strings.Repeat("x", 4096)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte(payload))
	}))
	defer upstream.Close()

	target := upstream.URL + "/seg/0001.ts"
	rec := httptest.NewRecorder()
	testProxy().Serve(rec, httptest.NewRequest(http.MethodGet, "/proxy?url="+url.QueryEscape(target), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != payload {
		t.Errorf("body length = %d, want %d", rec.Body.Len(), len(payload))
	}
	if ct := rec.Header().Get("Content-Type"); ct != "video/mp2t" {
		t.Errorf("content type = %q, want video/mp2t default for .ts", ct)
	}
}

func TestServeForwardsRangeHeader(t *testing.T) {
	var gotRange atomic.Value
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange.Store(r.Header.Get("Range"))
	}))
	defer upstream.Close()

	req := httptest.NewRequest(http.MethodGet, "/proxy?url="+url.QueryEscape(upstream.URL+"/a.ts"), nil)
	req.Header.Set("Range", "bytes=100-")
	testProxy().Serve(httptest.NewRecorder(), req)

	if gotRange.Load() != "bytes=100-" {
		t.Errorf("upstream Range = %v, want bytes=100-", gotRange.Load())
	}
}

func TestServeUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	rec := httptest.NewRecorder()
	testProxy().Serve(rec, httptest.NewRequest(http.MethodGet, "/proxy?url="+url.QueryEscape(upstream.URL+"/a.ts"), nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502 for upstream 404", rec.Code)
	}

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	rec = httptest.NewRecorder()
	testProxy().Serve(rec, httptest.NewRequest(http.MethodGet, "/proxy?url="+url.QueryEscape(dead.URL+"/a.ts"), nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502 for dead upstream", rec.Code)
	}
}

func TestLogoRelayCaches(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer upstream.Close()

	cfg := testConfig()
	relay := NewLogoRelay(cfg, client.New(cfg))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		relay.Serve(rec, httptest.NewRequest(http.MethodGet, "/logo?url="+url.QueryEscape(upstream.URL+"/logo.png"), nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if rec.Body.String() != "png-bytes" {
			t.Errorf("body = %q", rec.Body.String())
		}
		if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=86400" {
			t.Errorf("cache-control = %q", cc)
		}
	}

	if hits.Load() != 1 {
		t.Errorf("upstream fetched %d times, want 1", hits.Load())
	}
}

func TestLogoRelayRequiresURL(t *testing.T) {
	cfg := testConfig()
	relay := NewLogoRelay(cfg, client.New(cfg))

	rec := httptest.NewRecorder()
	relay.Serve(rec, httptest.NewRequest(http.MethodGet, "/logo", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
