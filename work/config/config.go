package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// Config holds all application configuration values for the channel catalog
// and streaming proxy server. Durations arrive in the JSON file as strings
// (e.g. "3s") and are parsed into time.Duration values on load.
type Config struct {
	BaseURL             string          `json:"baseURL"`             // Base URL clients use to reach this server
	ListenPort          int             `json:"listenPort"`          // TCP port the HTTP server binds to
	Debug               bool            `json:"debug"`               // Enable debug logging
	LogLevel            string          `json:"logLevel"`            // Minimum log level (DEBUG/INFO/WARN/ERROR)
	ObfuscateUrls       bool            `json:"obfuscateUrls"`       // Obfuscate stream URLs in logs
	WorkerThreads       int             `json:"workerThreads"`       // Goroutine pool size for fetches and probes
	ManualPriorityFile  string          `json:"manualPriorityFile"`  // Grouped-lines file (name/URL/logo), highest priority
	ManualListFile      string          `json:"manualListFile"`      // "URL Name" file, second priority
	Sources             []SourceConfig  `json:"sources"`             // Allow-list-restricted aggregated playlist sources
	CatalogueSources    []SourceConfig  `json:"catalogueSources"`    // Unfiltered catalogue-wide playlist sources
	HiddenChannels      []string        `json:"hiddenChannels"`      // Tokens suppressing channels from the unified catalog
	ExcludePatterns     []string        `json:"excludePatterns"`     // Substring excludes for the catalogue-only endpoint
	ProbeManualStreams  bool            `json:"probeManualStreams"`  // Probe manual stream URLs during unified catalog builds
	ProbeTimeout        time.Duration   `json:"probeTimeout"`        // Timeout for a single liveness probe
	ProxyTimeout        time.Duration   `json:"proxyTimeout"`        // Timeout for proxied stream fetches
	LogoTimeout         time.Duration   `json:"logoTimeout"`         // Timeout for logo relay fetches
	FetchTimeout        time.Duration   `json:"fetchTimeout"`        // Timeout for playlist source fetches
	LogoCacheDuration   time.Duration   `json:"logoCacheDuration"`   // TTL for cached logo images
	LogoCacheEntries    int             `json:"logoCacheEntries"`    // Maximum cached logo images
	RequestsPerHost     int             `json:"requestsPerHost"`     // Outbound rate limit per upstream host, per second
	ChannelDBPath       string          `json:"channelDBPath"`       // Optional SQLite file with the channel catalogue
	DefaultProfile      HeaderProfile   `json:"defaultProfile"`      // Browser-like headers used when no override matches
	HeaderProfiles      []HeaderProfile `json:"headerProfiles"`      // Ordered per-origin header overrides
}

// SourceConfig identifies a single remote playlist source. Order is a logical
// merge priority, not a fetch order: fetches may run concurrently but results
// are always merged lowest order first.
type SourceConfig struct {
	Name  string `json:"name"`  // Descriptive name for logs and metrics
	URL   string `json:"url"`   // Playlist URL
	Order int    `json:"order"` // Merge priority, lower merges first
}

// HeaderProfile is a set of outbound request headers applied when the target
// URL's host contains the Match substring. Upstream origins commonly enforce
// referrer and origin checks, so each awkward origin gets its own profile.
type HeaderProfile struct {
	Match     string `json:"match"`     // Substring matched against the target URL, empty for the default profile
	UserAgent string `json:"userAgent"` // User-Agent header
	Origin    string `json:"origin"`    // Origin header, empty to omit
	Referer   string `json:"referer"`   // Referer header, empty to omit
}

// ConfigFile mirrors Config for JSON unmarshaling, with durations as strings.
type ConfigFile struct {
	BaseURL            string          `json:"baseURL"`
	ListenPort         int             `json:"listenPort"`
	Debug              bool            `json:"debug"`
	LogLevel           string          `json:"logLevel"`
	ObfuscateUrls      bool            `json:"obfuscateUrls"`
	WorkerThreads      int             `json:"workerThreads"`
	ManualPriorityFile string          `json:"manualPriorityFile"`
	ManualListFile     string          `json:"manualListFile"`
	Sources            []SourceConfig  `json:"sources"`
	CatalogueSources   []SourceConfig  `json:"catalogueSources"`
	HiddenChannels     []string        `json:"hiddenChannels"`
	ExcludePatterns    []string        `json:"excludePatterns"`
	ProbeManualStreams bool            `json:"probeManualStreams"`
	ProbeTimeout       string          `json:"probeTimeout"`      // e.g. "3s"
	ProxyTimeout       string          `json:"proxyTimeout"`      // e.g. "10s"
	LogoTimeout        string          `json:"logoTimeout"`       // e.g. "5s"
	FetchTimeout       string          `json:"fetchTimeout"`      // e.g. "15s"
	LogoCacheDuration  string          `json:"logoCacheDuration"` // e.g. "24h"
	LogoCacheEntries   int             `json:"logoCacheEntries"`
	RequestsPerHost    int             `json:"requestsPerHost"`
	ChannelDBPath      string          `json:"channelDBPath"`
	DefaultProfile     HeaderProfile   `json:"defaultProfile"`
	HeaderProfiles     []HeaderProfile `json:"headerProfiles"`
}

var (
	configCache *Config      // Cached configuration instance (singleton)
	configMutex sync.RWMutex // Mutex for safe concurrent access to configCache
)

// DefaultConfigPath is where LoadConfig looks for the JSON configuration.
const DefaultConfigPath = "/settings/config.json"

// LoadConfig loads the configuration from file or returns the cached instance.
// Uses double-checked locking to avoid redundant reloads and falls back to
// the default configuration when the file is missing or invalid.
func LoadConfig() *Config {
	configMutex.RLock()
	if configCache != nil {
		defer configMutex.RUnlock()
		return configCache
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	// Double-check under write lock
	if configCache != nil {
		return configCache
	}

	configPath := DefaultConfigPath
	if env := os.Getenv("SPORTSCAST_CONFIG"); env != "" {
		configPath = env
	}

	config, err := loadFromFile(configPath)
	if err != nil {
		log.Printf("Failed to load config from %s: %v", configPath, err)
		log.Printf("Falling back to default configuration...")
		config = getDefaultConfig()
	}

	validateAndSetDefaults(config)
	configCache = config

	return config
}

// ClearConfigCache resets the configCache to nil.
// Forces a reload on the next LoadConfig() call.
func ClearConfigCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	configCache = nil
}

// loadFromFile reads and parses the configuration from a JSON file.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var configFile ConfigFile
	if err := json.Unmarshal(data, &configFile); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return convertFromFile(&configFile)
}

// convertFromFile converts a ConfigFile to Config,
// parsing duration strings into time.Duration.
func convertFromFile(cf *ConfigFile) (*Config, error) {
	config := &Config{
		BaseURL:            cf.BaseURL,
		ListenPort:         cf.ListenPort,
		Debug:              cf.Debug,
		LogLevel:           cf.LogLevel,
		ObfuscateUrls:      cf.ObfuscateUrls,
		WorkerThreads:      cf.WorkerThreads,
		ManualPriorityFile: cf.ManualPriorityFile,
		ManualListFile:     cf.ManualListFile,
		Sources:            cf.Sources,
		CatalogueSources:   cf.CatalogueSources,
		HiddenChannels:     cf.HiddenChannels,
		ExcludePatterns:    cf.ExcludePatterns,
		ProbeManualStreams: cf.ProbeManualStreams,
		LogoCacheEntries:   cf.LogoCacheEntries,
		RequestsPerHost:    cf.RequestsPerHost,
		ChannelDBPath:      cf.ChannelDBPath,
		DefaultProfile:     cf.DefaultProfile,
		HeaderProfiles:     cf.HeaderProfiles,
	}

	// Parse duration fields, leaving zero values for validateAndSetDefaults
	durations := []struct {
		raw  string
		dst  *time.Duration
		name string
	}{
		{cf.ProbeTimeout, &config.ProbeTimeout, "probeTimeout"},
		{cf.ProxyTimeout, &config.ProxyTimeout, "proxyTimeout"},
		{cf.LogoTimeout, &config.LogoTimeout, "logoTimeout"},
		{cf.FetchTimeout, &config.FetchTimeout, "fetchTimeout"},
		{cf.LogoCacheDuration, &config.LogoCacheDuration, "logoCacheDuration"},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	return config, nil
}

// getDefaultConfig returns a baseline configuration
// with sensible defaults when no file is present.
func getDefaultConfig() *Config {
	return &Config{
		BaseURL:            "http://localhost:5000",
		ListenPort:         5000,
		LogLevel:           "INFO",
		WorkerThreads:      8,
		ProbeManualStreams: true,
	}
}

// validateAndSetDefaults ensures all config values are valid,
// filling in defaults for missing/invalid ones.
func validateAndSetDefaults(config *Config) {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:5000"
	}
	if config.ListenPort <= 0 {
		config.ListenPort = 5000
	}
	if config.LogLevel == "" {
		config.LogLevel = "INFO"
	}
	if config.WorkerThreads <= 0 {
		config.WorkerThreads = 8
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = 3 * time.Second
	}
	if config.ProxyTimeout <= 0 {
		config.ProxyTimeout = 10 * time.Second
	}
	if config.LogoTimeout <= 0 {
		config.LogoTimeout = 5 * time.Second
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 15 * time.Second
	}
	if config.LogoCacheDuration <= 0 {
		config.LogoCacheDuration = 24 * time.Hour
	}
	if config.LogoCacheEntries <= 0 {
		config.LogoCacheEntries = 512
	}
	if config.RequestsPerHost <= 0 {
		config.RequestsPerHost = 20
	}
	if config.DefaultProfile.UserAgent == "" {
		config.DefaultProfile.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"
	}

	// Validate each source
	for i := range config.Sources {
		src := &config.Sources[i]
		if src.Name == "" {
			src.Name = fmt.Sprintf("Source_%d", i+1)
		}
		if src.Order <= 0 {
			src.Order = i + 1
		}
	}
	for i := range config.CatalogueSources {
		src := &config.CatalogueSources[i]
		if src.Name == "" {
			src.Name = fmt.Sprintf("Catalogue_%d", i+1)
		}
		if src.Order <= 0 {
			src.Order = i + 1
		}
	}
}

// GetSourcesByOrder returns a copy of sources sorted by their Order field.
// Original slice remains unmodified.
func GetSourcesByOrder(sources []SourceConfig) []SourceConfig {
	sorted := make([]SourceConfig, len(sources))
	copy(sorted, sources)

	// Simple bubble sort (sufficient since number of sources is small)
	for i := 0; i < len(sorted)-1; i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[i].Order > sorted[j].Order {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}

	return sorted
}

// CreateExampleConfig creates an example config file on disk.
func CreateExampleConfig(path string) error {
	example := ConfigFile{
		BaseURL:            "http://localhost:5000",
		ListenPort:         5000,
		Debug:              false,
		LogLevel:           "INFO",
		ObfuscateUrls:      true,
		WorkerThreads:      8,
		ManualPriorityFile: "/settings/manual-priority.txt",
		ManualListFile:     "/settings/manual-streams.txt",
		Sources: []SourceConfig{
			{
				Name:  "Primary Playlist",
				URL:   "https://example.com/streams/main.m3u",
				Order: 1,
			},
		},
		CatalogueSources: []SourceConfig{
			{
				Name:  "Full Catalogue",
				URL:   "https://example.com/streams/all.m3u",
				Order: 1,
			},
		},
		HiddenChannels:     []string{"sky sport nz 1", "astro cricket"},
		ExcludePatterns:    []string{"sky sport nz"},
		ProbeManualStreams: true,
		ProbeTimeout:       "3s",
		ProxyTimeout:       "10s",
		LogoTimeout:        "5s",
		FetchTimeout:       "15s",
		LogoCacheDuration:  "24h",
		LogoCacheEntries:   512,
		RequestsPerHost:    20,
		DefaultProfile: HeaderProfile{
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36",
		},
		HeaderProfiles: []HeaderProfile{
			{
				Match:     "thepapare.com",
				UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				Origin:    "https://www.thepapare.com",
				Referer:   "https://www.thepapare.com/",
			},
		},
	}

	data, err := json.MarshalIndent(example, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
