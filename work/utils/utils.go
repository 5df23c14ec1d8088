package utils

import (
	"net/url"
	"strings"
)

// NormalizeName lowercases a raw channel name, trims surrounding whitespace
// and collapses internal runs of whitespace to single spaces. Catalog keys in
// unfiltered mode and resolver lookups both go through this, so two sources
// spelling the same name with different casing or spacing land on one key.
func NormalizeName(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	return strings.Join(fields, " ")
}

// IsHTTPURL reports whether a playlist line looks like an absolute HTTP(S) URL.
func IsHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// LogURL returns either the original URL or an obfuscated version for logging
func LogURL(obfuscate bool, url string) string {
	if obfuscate {
		return ObfuscateURL(url)
	}
	return url
}

// ObfuscateURL masks the path, query and fragment of a URL so that stream
// tokens never end up in log files. Scheme and host are kept for debugging.
func ObfuscateURL(urlStr string) string {
	if urlStr == "" {
		return ""
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		// If parsing fails, just obfuscate the whole thing
		return "***OBFUSCATED***"
	}

	result := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		result += "/***"
	}
	if u.RawQuery != "" {
		result += "?***"
	}
	if u.Fragment != "" {
		result += "#***"
	}

	return result
}
