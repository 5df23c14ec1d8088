package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"baseURL": "http://media.local:9000",
		"listenPort": 9000,
		"probeTimeout": "2s",
		"fetchTimeout": "30s",
		"sources": [
			{"name": "Main", "url": "http://src/main.m3u", "order": 1}
		]
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("SPORTSCAST_CONFIG", path)
	ClearConfigCache()
	t.Cleanup(ClearConfigCache)

	cfg := LoadConfig()

	if cfg.BaseURL != "http://media.local:9000" || cfg.ListenPort != 9000 {
		t.Errorf("base settings not loaded: %+v", cfg)
	}
	if cfg.ProbeTimeout != 2*time.Second {
		t.Errorf("probeTimeout = %v, want 2s", cfg.ProbeTimeout)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("fetchTimeout = %v, want 30s", cfg.FetchTimeout)
	}

	// Unspecified values fall back to defaults.
	if cfg.ProxyTimeout != 10*time.Second {
		t.Errorf("proxyTimeout default = %v, want 10s", cfg.ProxyTimeout)
	}
	if cfg.LogoCacheEntries != 512 {
		t.Errorf("logoCacheEntries default = %d, want 512", cfg.LogoCacheEntries)
	}
	if cfg.DefaultProfile.UserAgent == "" {
		t.Error("default profile user agent should be filled in")
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Name != "Main" {
		t.Errorf("sources = %+v", cfg.Sources)
	}
}

func TestLoadConfigMissingFileFallsBack(t *testing.T) {
	t.Setenv("SPORTSCAST_CONFIG", filepath.Join(t.TempDir(), "nope.json"))
	ClearConfigCache()
	t.Cleanup(ClearConfigCache)

	cfg := LoadConfig()
	if cfg.ListenPort != 5000 || cfg.WorkerThreads != 8 {
		t.Errorf("fallback defaults not applied: %+v", cfg)
	}
}

func TestLoadConfigCaches(t *testing.T) {
	t.Setenv("SPORTSCAST_CONFIG", filepath.Join(t.TempDir(), "nope.json"))
	ClearConfigCache()
	t.Cleanup(ClearConfigCache)

	if LoadConfig() != LoadConfig() {
		t.Error("LoadConfig should return the cached instance")
	}
}

func TestInvalidDurationRejected(t *testing.T) {
	if _, err := convertFromFile(&ConfigFile{ProbeTimeout: "three seconds"}); err == nil {
		t.Error("expected error for unparseable duration")
	}
}

func TestGetSourcesByOrder(t *testing.T) {
	sources := []SourceConfig{
		{Name: "C", Order: 3},
		{Name: "A", Order: 1},
		{Name: "B", Order: 2},
	}

	sorted := GetSourcesByOrder(sources)

	for i, want := range []string{"A", "B", "C"} {
		if sorted[i].Name != want {
			t.Errorf("sorted[%d] = %s, want %s", i, sorted[i].Name, want)
		}
	}
	if sources[0].Name != "C" {
		t.Error("original slice should not be reordered")
	}
}

func TestCreateExampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.json")
	if err := CreateExampleConfig(path); err != nil {
		t.Fatalf("CreateExampleConfig failed: %v", err)
	}

	cfg, err := loadFromFile(path)
	if err != nil {
		t.Fatalf("example config does not load: %v", err)
	}
	validateAndSetDefaults(cfg)
	if cfg.ListenPort != 5000 || len(cfg.HeaderProfiles) == 0 {
		t.Errorf("unexpected example config: %+v", cfg)
	}
}
