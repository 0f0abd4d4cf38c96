// Package chunker splits promotion text into overlapping, size-bounded chunks
// suitable for embedding. Splitting prefers natural boundaries so chunks stay
// readable on their own.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// Default splitting parameters.
const (
	DefaultMaxChars = 1200
	DefaultMinChars = 300
	DefaultOverlap  = 100
)

// separators are tried in order when backing off a cut point. Paragraph
// breaks beat line breaks beat sentence ends.
var separators = []string{"\n\n", "\n", ". "}

// Config controls chunk sizing.
type Config struct {
	// MaxChars is the hard upper bound on chunk length.
	MaxChars int
	// MinChars is the minimum useful chunk length. Shorter slices are
	// discarded except for the final slice of the text.
	MinChars int
	// Overlap is how many trailing characters of one chunk reappear at the
	// start of the next.
	Overlap int
}

// DefaultConfig returns the standard splitting parameters.
func DefaultConfig() Config {
	return Config{MaxChars: DefaultMaxChars, MinChars: DefaultMinChars, Overlap: DefaultOverlap}
}

func (c Config) normalized() Config {
	if c.MaxChars <= 0 {
		c.MaxChars = DefaultMaxChars
	}
	if c.MinChars <= 0 {
		c.MinChars = DefaultMinChars
	}
	if c.Overlap < 0 {
		c.Overlap = DefaultOverlap
	}
	return c
}

// Split cuts text into chunks no longer than cfg.MaxChars with cfg.Overlap
// characters of carry-over between consecutive chunks. Cut points back off to
// the nearest paragraph break, line break or sentence end when that keeps the
// chunk at least half of cfg.MinChars. Texts shorter than cfg.MinChars yield
// no chunks; the caller is expected to fall back to a synthetic chunk.
// Identical input always yields identical output.
func Split(text string, cfg Config) []string {
	cfg = cfg.normalized()
	s := clean(text)
	if s == "" {
		return nil
	}
	if len(s) <= cfg.MaxChars {
		if len(s) >= cfg.MinChars {
			return []string{s}
		}
		return nil
	}

	var chunks []string
	start := 0
	for start < len(s) {
		end := start + cfg.MaxChars
		if end >= len(s) {
			// Final slice. Always kept, even when short, so no trailing
			// content is lost.
			if tail := strings.TrimSpace(s[start:]); tail != "" {
				chunks = append(chunks, tail)
			}
			break
		}

		end = backOff(s, start, end, cfg.MinChars)
		if chunk := strings.TrimSpace(s[start:end]); len(chunk) >= cfg.MinChars {
			chunks = append(chunks, chunk)
		}

		next := end - cfg.Overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	if len(chunks) == 0 {
		return []string{s}
	}
	return chunks
}

// backOff moves the cut at end back to a natural boundary inside the window.
// Separators are tried strictly in priority order; the first one whose last
// occurrence keeps the chunk at least half of minChars wins. With no
// qualifying separator the hard cut stands, nudged back onto a rune boundary.
func backOff(s string, start, end, minChars int) int {
	window := s[start:end]
	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx >= minChars/2 {
			return start + idx + 1
		}
	}
	for end > start && !utf8.RuneStart(s[end]) {
		end--
	}
	return end
}

// clean normalizes line endings and trims surrounding whitespace.
func clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}
