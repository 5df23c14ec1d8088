package merge

import (
	"context"
	"sort"
	"strings"
	"sync"

	"sportscast-proxy/work/logger"
	"sportscast-proxy/work/parser"
	"sportscast-proxy/work/types"
	"sportscast-proxy/work/utils"
)

// builder accumulates channel entries for one catalog build. It is owned by
// a single build call and never shared, so no locking is needed around the
// entry map itself.
type builder struct {
	engine  *Engine
	entries map[string]*types.ChannelEntry

	// ids whose logo was set by the manual priority list. Locked logos are
	// never touched again within this build.
	locked map[string]bool

	// number of priority streams already prepended per id, so consecutive
	// manual priority lines keep their file order at the front.
	prepended map[string]int
}

func (e *Engine) newBuilder() *builder {
	return &builder{
		engine:    e,
		entries:   make(map[string]*types.ChannelEntry),
		locked:    make(map[string]bool),
		prepended: make(map[string]int),
	}
}

// ensure returns the entry for an id, creating it with the given provenance
// when absent. Provenance always records the first creator.
func (b *builder) ensure(id string, prov types.Provenance) *types.ChannelEntry {
	if entry, ok := b.entries[id]; ok {
		return entry
	}
	entry := &types.ChannelEntry{CanonicalID: id, Provenance: prov}
	b.entries[id] = entry
	return entry
}

// addManualPriority merges the manual priority list: grouped-lines file with
// explicit name, URL and optional logo. A priority logo always overwrites and
// locks the entry logo, and priority streams go to the front of the stream
// list in file order.
func (b *builder) addManualPriority(ctx context.Context, probeStreams bool) {
	text := b.engine.readFile(b.engine.cfg.ManualPriorityFile)
	if text == "" {
		return
	}

	records := b.engine.parser.ParseText(text, true, parser.Restricted)
	records = b.allowed(records)
	online := b.probeAll(ctx, records, probeStreams)

	for _, rec := range records {
		if probeStreams && !online[rec.URL] {
			logger.Info("Dropping offline priority stream for %s: %s", rec.Channel, utils.LogURL(b.engine.cfg.ObfuscateUrls, rec.URL))
			continue
		}

		entry := b.ensure(rec.Channel, types.ProvenanceManual)
		if rec.Logo != "" {
			entry.Logo = rec.Logo
			b.locked[rec.Channel] = true
		}
		b.prepend(entry, rec.URL)
	}
}

// addManualGeneric merges the generic manual list: one "URL Name" line per
// stream, name being everything after the first run of whitespace. Generic
// streams append and never touch an existing logo.
func (b *builder) addManualGeneric(ctx context.Context, probeStreams bool) {
	text := b.engine.readFile(b.engine.cfg.ManualListFile)
	if text == "" {
		return
	}

	var records []types.StreamRecord
	for _, line := range parser.CleanLines(text) {
		fields := strings.Fields(line)
		if len(fields) < 2 || !utils.IsHTTPURL(fields[0]) {
			continue
		}

		id, ok := b.engine.resolver.Resolve(strings.Join(fields[1:], " "))
		if !ok || !b.engine.resolver.IsAllowed(id) {
			continue
		}
		records = append(records, types.StreamRecord{Channel: id, URL: fields[0]})
	}

	online := b.probeAll(ctx, records, probeStreams)

	for _, rec := range records {
		if probeStreams && !online[rec.URL] {
			logger.Info("Dropping offline manual stream for %s: %s", rec.Channel, utils.LogURL(b.engine.cfg.ObfuscateUrls, rec.URL))
			continue
		}

		entry, exists := b.entries[rec.Channel]
		if !exists {
			entry = b.ensure(rec.Channel, types.ProvenanceManual)
			entry.Logo = b.engine.resolver.DefaultLogo(rec.Channel)
		}
		entry.Streams = append(entry.Streams, rec.URL)
	}
}

// addAggregated merges the remote playlist sources in configured order.
// Aggregated streams always append; logos follow the lock rule: a record
// logo wins unless locked, and an empty entry logo falls back to the
// resolver default.
func (b *builder) addAggregated(ctx context.Context) {
	results := b.engine.fetchSources(ctx, b.engine.cfg.Sources, parser.Restricted)

	for _, records := range results {
		for _, rec := range b.allowed(records) {
			entry := b.ensure(rec.Channel, types.ProvenancePlaylist)

			if !b.locked[rec.Channel] {
				if rec.Logo != "" {
					entry.Logo = rec.Logo
				} else if entry.Logo == "" {
					entry.Logo = b.engine.resolver.DefaultLogo(rec.Channel)
				}
			}

			entry.Streams = append(entry.Streams, rec.URL)
		}
	}
}

// addCatalogue merges the unfiltered catalogue-wide sources. Entries are
// keyed by normalized raw name with no allow-list restriction; the first
// source to mention a name wins provenance and logos fill in only if empty.
func (b *builder) addCatalogue(ctx context.Context) {
	results := b.engine.fetchSources(ctx, b.engine.cfg.CatalogueSources, parser.Unfiltered)

	for _, records := range results {
		for _, rec := range records {
			entry := b.ensure(rec.Channel, types.ProvenanceCatalogue)

			if entry.Logo == "" {
				if rec.Logo != "" {
					entry.Logo = rec.Logo
				} else {
					entry.Logo = b.engine.resolver.DefaultLogo(rec.Channel)
				}
			}

			entry.Streams = append(entry.Streams, rec.URL)
		}
	}
}

// suppressHidden removes every entry whose id contains, or is contained by,
// a hidden token. This is a deliberately coarse substring match in both
// directions and can catch near-matches.
func (b *builder) suppressHidden(tokens []string) {
	for _, token := range tokens {
		token = utils.NormalizeName(token)
		if token == "" {
			continue
		}
		for id := range b.entries {
			if strings.Contains(id, token) || strings.Contains(token, id) {
				logger.Debug("{merge - suppressHidden} Hiding %s (token %q)", id, token)
				delete(b.entries, id)
			}
		}
	}
}

// exclude removes entries whose id contains any of the patterns. Used by the
// catalogue-only view; unlike suppressHidden the match is one-directional.
func (b *builder) exclude(patterns []string) {
	for _, pattern := range patterns {
		pattern = utils.NormalizeName(pattern)
		if pattern == "" {
			continue
		}
		for id := range b.entries {
			if strings.Contains(id, pattern) {
				delete(b.entries, id)
			}
		}
	}
}

// finalize orders the accumulated entries by display order, ties broken by
// id, and freezes them into a catalog snapshot.
func (b *builder) finalize(includeSource bool) *types.Catalog {
	ids := make([]string, 0, len(b.entries))
	for id := range b.entries {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		oi := b.engine.resolver.DisplayOrder(ids[i])
		oj := b.engine.resolver.DisplayOrder(ids[j])
		if oi != oj {
			return oi < oj
		}
		return ids[i] < ids[j]
	})

	catalog := types.NewCatalog()
	catalog.IncludeSource = includeSource
	for _, id := range ids {
		catalog.Add(b.entries[id])
	}

	return catalog
}

// allowed filters records to the channel allow-list.
func (b *builder) allowed(records []types.StreamRecord) []types.StreamRecord {
	kept := records[:0:0]
	for _, rec := range records {
		if b.engine.resolver.IsAllowed(rec.Channel) {
			kept = append(kept, rec)
		}
	}
	return kept
}

// prepend inserts a priority stream at the front of the entry's stream list,
// after any priority streams already inserted this build.
func (b *builder) prepend(entry *types.ChannelEntry, url string) {
	pos := b.prepended[entry.CanonicalID]
	entry.Streams = append(entry.Streams, "")
	copy(entry.Streams[pos+1:], entry.Streams[pos:])
	entry.Streams[pos] = url
	b.prepended[entry.CanonicalID]++
}

// probeAll probes the record URLs concurrently on the worker pool and returns
// the per-URL verdicts. Returns nil when probing is disabled. Every probe is
// bounded by its own timeout, and the build waits for all verdicts before
// merging so the snapshot never changes after it is returned.
func (b *builder) probeAll(ctx context.Context, records []types.StreamRecord, enabled bool) map[string]bool {
	if !enabled || len(records) == 0 {
		return nil
	}

	urls := make([]string, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if !seen[rec.URL] {
			seen[rec.URL] = true
			urls = append(urls, rec.URL)
		}
	}

	verdicts := make([]bool, len(urls))
	var wg sync.WaitGroup
	for i, url := range urls {
		i, url := i, url
		wg.Add(1)

		task := func() {
			defer wg.Done()
			verdicts[i] = b.engine.prober.Probe(ctx, url)
		}
		if err := b.engine.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	online := make(map[string]bool, len(urls))
	for i, url := range urls {
		online[url] = verdicts[i]
	}
	return online
}
