package middleware

import "net/http"

// HLS playback libraries run their demuxers in workers and load segments as
// blobs, so the policy has to allow both alongside our own origin.
const contentSecurityPolicy = "default-src 'self' * blob: data:; " +
	"script-src 'self' 'unsafe-inline' 'unsafe-eval' * blob:; " +
	"worker-src 'self' blob:; " +
	"media-src 'self' * blob: data:; " +
	"img-src 'self' * data:; " +
	"connect-src 'self' *"

// CORS opens every endpoint to browser players on any origin. The service
// fronts public streams, so there is nothing to protect per-origin.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges")
		next.ServeHTTP(w, r)
	})
}

// CSP attaches the playback-friendly Content-Security-Policy header.
func CSP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", contentSecurityPolicy)
		next.ServeHTTP(w, r)
	})
}
