package types

import (
	"bytes"
	"encoding/json"
)

// Provenance identifies which ingestion source first created a catalog entry.
// Later sources may append streams or fill in a missing logo, but the tag of
// the entry never changes after creation.
type Provenance string

// Provenance values for the supported ingestion source categories.
const (
	ProvenanceManual    Provenance = "manual"    // manual stream list files on disk
	ProvenanceCatalogue Provenance = "catalogue" // the unfiltered catalogue-wide playlist
	ProvenancePlaylist  Provenance = "m3u"       // allow-list-restricted aggregated playlists
)

// StreamRecord is the uniform record emitted by the playlist parser for every
// accepted playlist entry, regardless of the textual format it came from.
// Records are ephemeral: the merge engine consumes them and they are
// discarded once the catalog for the current request has been assembled.
type StreamRecord struct {
	Channel string // canonical id (restricted mode) or normalized raw name (unfiltered mode)
	Logo    string // logo URL extracted from the playlist, empty when none was present
	URL     string // stream URL, always an absolute HTTP(S) URL
}

// ChannelEntry is one merged catalog entry. Streams are kept in priority
// order: manual-priority streams are inserted at the front, every other
// source appends. The slice must not be mutated once the entry has been
// handed out as part of a catalog snapshot.
type ChannelEntry struct {
	CanonicalID string     // non-empty catalog key, produced by the resolver or name normalization
	Logo        string     // resolved logo URL, empty when no source supplied one
	Streams     []string   // ordered candidate stream URLs, duplicates across sources allowed
	Provenance  Provenance // first source category that created this entry
}

// Catalog is an immutable, order-preserving snapshot of merged channel
// entries. Iteration and JSON encoding both follow the final display order
// computed by the merge engine, which plain Go maps cannot guarantee.
type Catalog struct {
	ids     []string
	entries map[string]*ChannelEntry

	// IncludeSource controls whether the provenance tag is rendered in the
	// JSON encoding. The unified catalog exposes it, the restricted one
	// does not.
	IncludeSource bool
}

// NewCatalog returns an empty catalog ready to receive entries in final order.
func NewCatalog() *Catalog {
	return &Catalog{
		entries: make(map[string]*ChannelEntry),
	}
}

// Add appends an entry in display order. Adding the same canonical id twice
// keeps the first position and overwrites the entry data.
func (c *Catalog) Add(entry *ChannelEntry) {
	if entry == nil || entry.CanonicalID == "" {
		return
	}
	if _, exists := c.entries[entry.CanonicalID]; !exists {
		c.ids = append(c.ids, entry.CanonicalID)
	}
	c.entries[entry.CanonicalID] = entry
}

// Get looks up an entry by canonical id.
func (c *Catalog) Get(id string) (*ChannelEntry, bool) {
	entry, ok := c.entries[id]
	return entry, ok
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// IDs returns the canonical ids in display order. The returned slice is a
// copy and safe for the caller to keep.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.ids))
	copy(ids, c.ids)
	return ids
}

// MarshalJSON renders the catalog as a JSON object keyed by canonical id,
// preserving display order. Missing logos encode as null to match what
// playback clients expect.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, id := range c.ids {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		value, err := json.Marshal(c.entryView(c.entries[id]))
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// entryView builds the wire shape for a single entry.
func (c *Catalog) entryView(entry *ChannelEntry) map[string]any {
	view := map[string]any{
		"logo":    nil,
		"streams": entry.Streams,
	}
	if entry.Logo != "" {
		view["logo"] = entry.Logo
	}
	if entry.Streams == nil {
		view["streams"] = []string{}
	}
	if c.IncludeSource {
		view["source"] = string(entry.Provenance)
	}
	return view
}
