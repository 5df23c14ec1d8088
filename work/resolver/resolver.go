package resolver

import (
	"sort"
	"strings"

	"sportscast-proxy/work/utils"
)

// Resolver maps free-text channel names from playlist sources onto canonical
// channel identities. Implementations must be deterministic and total: a name
// that matches nothing yields ok=false, never an error or a panic. The merge
// engine treats this as an injected read-only capability, so tests can swap
// in a fixed table of a handful of entries.
type Resolver interface {
	// Resolve maps a raw name to a canonical id. ok is false when no
	// canonical channel matches.
	Resolve(rawName string) (id string, ok bool)

	// DefaultLogo returns the fallback logo URL for a canonical id, or
	// empty when none is known.
	DefaultLogo(id string) string

	// DisplayOrder returns the fixed display position for a canonical id.
	// Ids absent from the ordering table sort after all known entries.
	DisplayOrder(id string) int

	// IsAllowed reports whether a canonical id is on the allow-list used
	// by aggregated-source ingestion.
	IsAllowed(id string) bool
}

// UnknownOrder is the display order reported for ids absent from the table.
// It sorts after every configured position; ties fall back to the id string.
const UnknownOrder = 1 << 30

// ChannelInfo describes one canonical channel in the lookup table.
type ChannelInfo struct {
	ID           string // canonical id, lowercase
	DisplayOrder int    // fixed display position, lower first
	Logo         string // default logo URL, may be empty
	Allowed      bool   // member of the aggregated-source allow-list
}

// Table is the standard Resolver implementation: an in-memory lookup table
// of canonical channels plus name aliases, static for the process lifetime.
type Table struct {
	channels map[string]ChannelInfo
	aliases  map[string]string

	// alias keys sorted longest first so substring resolution is
	// deterministic and prefers the most specific alias.
	sortedAliases []string
}

// NewTable builds a Table from channel definitions and an alias map keyed by
// normalized alias text. The canonical id of every channel is implicitly its
// own alias.
func NewTable(channels []ChannelInfo, aliases map[string]string) *Table {
	t := &Table{
		channels: make(map[string]ChannelInfo, len(channels)),
		aliases:  make(map[string]string, len(aliases)+len(channels)),
	}

	for _, ch := range channels {
		id := utils.NormalizeName(ch.ID)
		if id == "" {
			continue
		}
		ch.ID = id
		t.channels[id] = ch
		t.aliases[id] = id
	}

	for alias, id := range aliases {
		alias = utils.NormalizeName(alias)
		id = utils.NormalizeName(id)
		if alias == "" || id == "" {
			continue
		}
		if _, known := t.channels[id]; !known {
			continue
		}
		t.aliases[alias] = id
	}

	t.sortedAliases = make([]string, 0, len(t.aliases))
	for alias := range t.aliases {
		t.sortedAliases = append(t.sortedAliases, alias)
	}
	sort.Slice(t.sortedAliases, func(i, j int) bool {
		if len(t.sortedAliases[i]) != len(t.sortedAliases[j]) {
			return len(t.sortedAliases[i]) > len(t.sortedAliases[j])
		}
		return t.sortedAliases[i] < t.sortedAliases[j]
	})

	return t
}

// Resolve normalizes the raw name, then tries an exact alias match followed
// by a longest-alias substring match. Sources decorate names freely
// ("Star Sports 1 HD ⚡", "[LIVE] Star Sports 1"), so containment of a known
// alias inside the normalized name is treated as a match.
func (t *Table) Resolve(rawName string) (string, bool) {
	norm := utils.NormalizeName(rawName)
	if norm == "" {
		return "", false
	}

	if id, ok := t.aliases[norm]; ok {
		return id, true
	}

	for _, alias := range t.sortedAliases {
		if containsWord(norm, alias) {
			return t.aliases[alias], true
		}
	}

	return "", false
}

// DefaultLogo returns the configured fallback logo for a canonical id.
func (t *Table) DefaultLogo(id string) string {
	return t.channels[id].Logo
}

// DisplayOrder returns the configured display position, or UnknownOrder for
// ids missing from the table.
func (t *Table) DisplayOrder(id string) int {
	if info, ok := t.channels[id]; ok {
		return info.DisplayOrder
	}
	return UnknownOrder
}

// IsAllowed reports allow-list membership. Unknown ids are never allowed.
func (t *Table) IsAllowed(id string) bool {
	return t.channels[id].Allowed
}

// Channels returns the canonical channel definitions, primarily for logging
// how many entries a loaded catalogue contains.
func (t *Table) Channels() []ChannelInfo {
	out := make([]ChannelInfo, 0, len(t.channels))
	for _, info := range t.channels {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// containsWord reports whether alias occurs in name on word boundaries.
// Plain substring matching would let the alias "ten" claim "ten pin bowling
// network"; requiring boundaries keeps resolution conservative.
func containsWord(name, alias string) bool {
	offset := 0
	for offset <= len(name)-len(alias) {
		pos := strings.Index(name[offset:], alias)
		if pos < 0 {
			return false
		}
		pos += offset

		beforeOK := pos == 0 || name[pos-1] == ' '
		after := pos + len(alias)
		afterOK := after == len(name) || name[after] == ' '
		if beforeOK && afterOK {
			return true
		}
		offset = pos + 1
	}
	return false
}
