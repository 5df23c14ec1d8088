package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sportscast-proxy/work/client"
	"sportscast-proxy/work/config"
	"sportscast-proxy/work/database"
	"sportscast-proxy/work/handlers"
	"sportscast-proxy/work/logger"
	"sportscast-proxy/work/merge"
	"sportscast-proxy/work/middleware"
	"sportscast-proxy/work/parser"
	"sportscast-proxy/work/probe"
	"sportscast-proxy/work/proxy"
	"sportscast-proxy/work/resolver"
)

var (
	Version = "v0.1.0" // default version
)

func main() {

	// load our config
	cfg := config.LoadConfig()

	// set up logging
	if cfg.Debug {
		logger.SetLogLevel("DEBUG")
	} else {
		logger.SetLogLevel(cfg.LogLevel)
	}

	// channel catalogue: SQLite file when configured, built-in table otherwise
	table := resolver.DefaultTable()
	if cfg.ChannelDBPath != "" {
		loaded, err := database.LoadCatalogue(cfg.ChannelDBPath)
		if err != nil {
			log.Fatalf("Failed to load channel catalogue: %v", err)
		}
		table = loaded
	}

	// worker pool shared by source fetches and liveness probes
	workerPool, err := ants.NewPool(cfg.WorkerThreads, ants.WithPreAlloc(true))
	if err != nil {
		log.Fatalf("Failed to create worker pool: %v", err)
	}
	defer workerPool.Release()

	// HTTP client with per-origin header profiles and rate limiting
	httpClient := client.New(cfg)

	// core components
	playlistParser := parser.New(cfg, httpClient, table)
	prober := probe.New(cfg, httpClient)
	engine := merge.New(cfg, playlistParser, table, prober, workerPool)
	streamProxy := proxy.New(cfg, httpClient)
	logoRelay := proxy.NewLogoRelay(cfg, httpClient)
	api := handlers.New(cfg, engine, prober)

	// routes
	router := mux.NewRouter()
	router.HandleFunc("/channels", middleware.Gzip(api.Channels)).Methods("GET")
	router.HandleFunc("/all-channels", middleware.Gzip(api.AllChannels)).Methods("GET")
	router.HandleFunc("/catalogue-channels", middleware.Gzip(api.CatalogueChannels)).Methods("GET")
	router.HandleFunc("/channel/{name}", middleware.Gzip(api.Channel)).Methods("GET")
	router.HandleFunc("/check-stream", api.CheckStream).Methods("POST")
	router.HandleFunc("/logo", logoRelay.Serve).Methods("GET")
	router.HandleFunc("/proxy", streamProxy.Serve).Methods("GET")
	router.HandleFunc("/proxy", streamProxy.Preflight).Methods("OPTIONS")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	handler := middleware.CORS(middleware.CSP(router))

	// show info
	logger.Info("Starting sportscast-proxy %s", Version)
	logger.Info("Server configuration:")
	logger.Info("  - Base URL: %s", cfg.BaseURL)
	logger.Info("  - Listen Port: %d", cfg.ListenPort)
	logger.Info("  - Worker Threads: %d", cfg.WorkerThreads)
	logger.Info("  - Aggregated Sources: %d", len(cfg.Sources))
	logger.Info("  - Catalogue Sources: %d", len(cfg.CatalogueSources))
	logger.Info("  - Probe Manual Streams: %v", cfg.ProbeManualStreams)
	logger.Info("  - Probe Timeout: %s", cfg.ProbeTimeout)
	logger.Info("  - Proxy Timeout: %s", cfg.ProxyTimeout)
	logger.Info("  - Logo Cache: %d entries, %s", cfg.LogoCacheEntries, cfg.LogoCacheDuration)
	logger.Info("  - Debug Enabled: %v", cfg.Debug)
	logger.Info("  - URL Obfuscation: %v", cfg.ObfuscateUrls)

	addr := fmt.Sprintf(":%d", cfg.ListenPort)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
