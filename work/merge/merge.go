package merge

import (
	"context"
	"os"
	"sync"
	"time"

	"sportscast-proxy/work/config"
	"sportscast-proxy/work/logger"
	"sportscast-proxy/work/metrics"
	"sportscast-proxy/work/parser"
	"sportscast-proxy/work/probe"
	"sportscast-proxy/work/resolver"
	"sportscast-proxy/work/types"

	"github.com/panjf2000/ants/v2"
)

// Engine assembles channel catalogs from the configured sources. Every build
// starts from scratch: nothing is cached across requests, so a freshly edited
// manual list or a recovered source shows up on the next call.
type Engine struct {
	cfg      *config.Config
	parser   *parser.Parser
	resolver resolver.Resolver
	prober   *probe.Prober
	pool     *ants.Pool
}

// New creates a merge engine. The ants pool is shared with the rest of the
// application and bounds how many source fetches and probes run at once.
func New(cfg *config.Config, p *parser.Parser, res resolver.Resolver, prober *probe.Prober, pool *ants.Pool) *Engine {
	return &Engine{
		cfg:      cfg,
		parser:   p,
		resolver: res,
		prober:   prober,
		pool:     pool,
	}
}

// BuildRestricted assembles the allow-list-restricted catalog: manual
// priority list, then the generic manual list, then the aggregated remote
// sources in configured order. No liveness filtering and no hidden-channel
// suppression; this is the fast "what can I play" view.
func (e *Engine) BuildRestricted(ctx context.Context) *types.Catalog {
	start := time.Now()
	b := e.newBuilder()

	b.addManualPriority(ctx, false)
	b.addManualGeneric(ctx, false)
	b.addAggregated(ctx)

	catalog := b.finalize(false)

	metrics.CatalogBuilds.WithLabelValues("restricted").Inc()
	metrics.CatalogBuildDuration.WithLabelValues("restricted").Observe(time.Since(start).Seconds())
	logger.Info("Restricted catalog built: %d channels in %v", catalog.Len(), time.Since(start))

	return catalog
}

// BuildUnified assembles the unified catalog: the unfiltered catalogue-wide
// playlist first (so its entries own provenance), then the manual lists with
// optional liveness filtering, then the aggregated sources. Hidden-channel
// suppression applies and the provenance tag is rendered in JSON.
func (e *Engine) BuildUnified(ctx context.Context) *types.Catalog {
	start := time.Now()
	b := e.newBuilder()

	b.addCatalogue(ctx)
	b.addManualPriority(ctx, e.cfg.ProbeManualStreams)
	b.addManualGeneric(ctx, e.cfg.ProbeManualStreams)
	b.addAggregated(ctx)
	b.suppressHidden(e.cfg.HiddenChannels)

	catalog := b.finalize(true)

	metrics.CatalogBuilds.WithLabelValues("unified").Inc()
	metrics.CatalogBuildDuration.WithLabelValues("unified").Observe(time.Since(start).Seconds())
	logger.Info("Unified catalog built: %d channels in %v", catalog.Len(), time.Since(start))

	return catalog
}

// BuildCatalogue assembles the catalogue-wide playlist alone, with the
// configured exclude patterns applied. Used by the catalogue browsing
// endpoint; manual lists and aggregated sources stay out of it.
func (e *Engine) BuildCatalogue(ctx context.Context) *types.Catalog {
	start := time.Now()
	b := e.newBuilder()

	b.addCatalogue(ctx)
	b.exclude(e.cfg.ExcludePatterns)

	catalog := b.finalize(false)

	metrics.CatalogBuilds.WithLabelValues("catalogue").Inc()
	metrics.CatalogBuildDuration.WithLabelValues("catalogue").Observe(time.Since(start).Seconds())
	logger.Info("Catalogue built: %d channels in %v", catalog.Len(), time.Since(start))

	return catalog
}

// fetchSources parses the given sources concurrently on the worker pool and
// returns the records slot-indexed by source position, so callers can merge
// in declared order no matter which fetch finished first. A failing source
// leaves a nil slot and never aborts the build.
func (e *Engine) fetchSources(ctx context.Context, sources []config.SourceConfig, mode parser.Mode) [][]types.StreamRecord {
	ordered := config.GetSourcesByOrder(sources)
	results := make([][]types.StreamRecord, len(ordered))

	var wg sync.WaitGroup
	for i, src := range ordered {
		i, src := i, src
		wg.Add(1)

		task := func() {
			defer wg.Done()

			records, err := e.parser.Parse(ctx, src.URL, true, mode)
			if err != nil {
				logger.Warn("Skipping source %s: %v", src.Name, err)
				metrics.SourceFetchFailures.WithLabelValues(src.Name).Inc()
				return
			}
			results[i] = records
		}

		if err := e.pool.Submit(task); err != nil {
			// Pool unavailable, run on the calling goroutine instead.
			task()
		}
	}
	wg.Wait()

	return results
}

// readFile loads a manual list file from disk. A missing or unreadable file
// degrades to an empty list.
func (e *Engine) readFile(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Skipping manual list %s: %v", path, err)
		return ""
	}
	return string(data)
}
