package parser

import (
	"context"
	"fmt"
	"io"
	"strings"

	"sportscast-proxy/work/client"
	"sportscast-proxy/work/config"
	"sportscast-proxy/work/logger"
	"sportscast-proxy/work/resolver"
	"sportscast-proxy/work/types"
	"sportscast-proxy/work/utils"

	"github.com/grafana/regexp"
)

// Mode selects how parsed names become catalog identities.
type Mode int

const (
	// Restricted resolves every name through the channel resolver and drops
	// entries with no canonical match.
	Restricted Mode = iota

	// Unfiltered keeps every entry under its normalized raw name, with no
	// resolution requirement. Used for the catalogue-wide playlist.
	Unfiltered
)

// Logo attribute patterns tried in precedence order on tagged metadata lines:
// quoted tvg-logo, unquoted tvg-logo, quoted logo, unquoted logo. First match
// wins and surrounding quotes are stripped.
var logoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`tvg-logo="([^"]+)"`),
	regexp.MustCompile(`tvg-logo=([^\s]+)`),
	regexp.MustCompile(`logo="([^"]+)"`),
	regexp.MustCompile(`logo=([^\s]+)`),
}

// Image extensions recognized on the optional logo line of grouped playlists.
var logoExtensions = []string{".png", ".jpg", ".svg"}

// Parser turns playlist text or remote playlist URLs into stream records.
// It never aborts a whole playlist over a malformed entry; only a failed
// network fetch surfaces as an error.
type Parser struct {
	cfg      *config.Config
	client   *client.Client
	resolver resolver.Resolver
}

// New creates a Parser using the shared HTTP client for remote sources and
// the given resolver for restricted-mode identity resolution.
func New(cfg *config.Config, cl *client.Client, res resolver.Resolver) *Parser {
	return &Parser{
		cfg:      cfg,
		client:   cl,
		resolver: res,
	}
}

// Parse obtains playlist text (fetching it when source is an HTTP URL) and
// parses it. Fetch failures are returned to the caller, which decides whether
// to skip the source.
func (p *Parser) Parse(ctx context.Context, source string, extractLogos bool, mode Mode) ([]types.StreamRecord, error) {
	text := source
	if utils.IsHTTPURL(source) {
		fetched, err := p.fetch(ctx, source)
		if err != nil {
			return nil, err
		}
		text = fetched
	}
	return p.ParseText(text, extractLogos, mode), nil
}

// ParseText parses literal playlist text, detecting the format from the
// presence of the metadata tag marker.
func (p *Parser) ParseText(text string, extractLogos bool, mode Mode) []types.StreamRecord {
	lines := Lines(text)
	if HasTag(lines) {
		return p.parseTagged(lines, extractLogos, mode)
	}
	return p.parseGrouped(CleanLines(text), extractLogos, mode)
}

// fetch retrieves a remote playlist, bounded by the configured fetch timeout.
func (p *Parser) fetch(ctx context.Context, source string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()

	resp, err := p.client.Get(ctx, source)
	if err != nil {
		return "", fmt.Errorf("failed to fetch playlist %s: %w", utils.LogURL(p.cfg.ObfuscateUrls, source), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("playlist fetch %s returned status %d", utils.LogURL(p.cfg.ObfuscateUrls, source), resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read playlist %s: %w", utils.LogURL(p.cfg.ObfuscateUrls, source), err)
	}

	return string(body), nil
}

// parseTagged scans tagged-format lines. A metadata line announces a pending
// entry (name after the last comma, optional logo attribute); the next line
// starting with an HTTP scheme is paired with it as the stream URL. Metadata
// with no following URL is dropped.
func (p *Parser) parseTagged(lines []string, extractLogos bool, mode Mode) []types.StreamRecord {
	var records []types.StreamRecord
	var pending *types.StreamRecord

	for _, line := range lines {
		if strings.HasPrefix(line, tagMarker) {
			name := line
			if comma := strings.LastIndex(line, ","); comma >= 0 {
				name = line[comma+1:]
			}

			pending = &types.StreamRecord{Channel: strings.TrimSpace(name)}
			if extractLogos {
				pending.Logo = extractLogo(line)
			}
			continue
		}

		if pending != nil && utils.IsHTTPURL(line) {
			if id, ok := p.identify(pending.Channel, mode); ok {
				records = append(records, types.StreamRecord{
					Channel: id,
					Logo:    pending.Logo,
					URL:     line,
				})
			}
			pending = nil
		}
	}

	logger.Debug("{parser - parseTagged} Parsed %d records from %d lines", len(records), len(lines))

	return records
}

// parseGrouped scans grouped-lines format: name line, URL line, optional logo
// line. A name not followed by an HTTP URL is discarded and the scan advances
// by one line.
func (p *Parser) parseGrouped(lines []string, extractLogos bool, mode Mode) []types.StreamRecord {
	var records []types.StreamRecord

	for i := 0; i < len(lines); {
		name := lines[i]
		if utils.IsHTTPURL(name) || i+1 >= len(lines) || !utils.IsHTTPURL(lines[i+1]) {
			i++
			continue
		}

		streamURL := lines[i+1]
		i += 2

		logo := ""
		if i < len(lines) && isLogoLine(lines[i]) {
			logo = lines[i]
			i++
		}
		if !extractLogos {
			logo = ""
		}

		if id, ok := p.identify(name, mode); ok {
			records = append(records, types.StreamRecord{
				Channel: id,
				Logo:    logo,
				URL:     streamURL,
			})
		}
	}

	logger.Debug("{parser - parseGrouped} Parsed %d records from %d lines", len(records), len(lines))

	return records
}

// identify maps a raw playlist name to a catalog identity according to the
// parse mode. ok is false when the entry must be dropped.
func (p *Parser) identify(rawName string, mode Mode) (string, bool) {
	if mode == Unfiltered {
		norm := utils.NormalizeName(rawName)
		return norm, norm != ""
	}

	id, ok := p.resolver.Resolve(rawName)
	if !ok {
		logger.Debug("{parser - identify} No canonical match for %q, dropping", rawName)
		return "", false
	}
	return id, true
}

// extractLogo tries the logo attribute patterns in precedence order.
func extractLogo(line string) string {
	for _, pattern := range logoPatterns {
		if match := pattern.FindStringSubmatch(line); match != nil {
			return strings.Trim(match[1], `"'`)
		}
	}
	return ""
}

// isLogoLine reports whether a grouped-format line is the optional logo of
// the group just scanned: an HTTP URL, or a path ending in a recognized
// image extension.
func isLogoLine(line string) bool {
	if utils.IsHTTPURL(line) {
		return true
	}
	lower := strings.ToLower(line)
	for _, ext := range logoExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
