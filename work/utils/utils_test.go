package utils

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Star Sports 1":       "star sports 1",
		"  STAR   Sports  1 ": "star sports 1",
		"\tWillow\nCricket":   "willow cricket",
		"":                    "",
		"   ":                 "",
	}
	for in, want := range cases {
		if got := NormalizeName(in); got != want {
			t.Errorf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsHTTPURL(t *testing.T) {
	if !IsHTTPURL("http://host/a") || !IsHTTPURL("https://host/a") {
		t.Error("http and https URLs should be recognized")
	}
	for _, s := range []string{"ftp://host/a", "host/a", "", "Channel Name"} {
		if IsHTTPURL(s) {
			t.Errorf("IsHTTPURL(%q) = true", s)
		}
	}
}

func TestObfuscateURL(t *testing.T) {
	cases := map[string]string{
		"http://host/path/stream.m3u8?token=secret": "http://host/***?***",
		"https://host/":     "https://host",
		"https://host":      "https://host",
		"http://host/#frag": "http://host#***",
		"":                  "",
		"://not a url":      "***OBFUSCATED***",
	}
	for in, want := range cases {
		if got := ObfuscateURL(in); got != want {
			t.Errorf("ObfuscateURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLogURL(t *testing.T) {
	url := "http://host/secret.m3u8"
	if LogURL(false, url) != url {
		t.Error("LogURL without obfuscation should return the URL unchanged")
	}
	if LogURL(true, url) == url {
		t.Error("LogURL with obfuscation should mask the path")
	}
}
