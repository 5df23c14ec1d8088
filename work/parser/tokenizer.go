package parser

import "strings"

// Playlist text markers. The metadata tag doubles as the format probe: its
// presence anywhere in the text selects the tagged format.
const (
	tagMarker     = "#EXTINF"
	commentMarker = "#"
)

// Lines splits raw playlist text into trimmed lines, keeping comments and
// blanks. The tagged-format scanner needs the comment lines since that is
// where the metadata lives.
func Lines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, line := range raw {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}

// CleanLines splits raw playlist text into trimmed, non-empty, non-comment
// lines for the grouped-lines format scanner.
func CleanLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, commentMarker) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// HasTag reports whether any line carries the metadata tag marker, selecting
// the tagged playlist format over the grouped-lines format.
func HasTag(lines []string) bool {
	for _, line := range lines {
		if strings.HasPrefix(line, tagMarker) {
			return true
		}
	}
	return false
}
