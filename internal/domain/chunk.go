package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ChunkAttrs is the flat field set of a stored chunk (storage hydration).
type ChunkAttrs struct {
	ParentID       string
	Index          int
	Text           string
	Title          string
	URL            string
	Period         string
	Category       string
	Bank           string
	PaymentMethods []string
	ScrapeDate     string
}

// Chunk is one searchable slice of a promo description (immutable value
// object). It carries a copy of the parent's scalar fields so each chunk
// is independently presentable and searchable.
type Chunk struct {
	parentID       string
	index          int
	text           string
	title          string
	url            string
	period         string
	category       string
	bank           string
	paymentMethods []string
	scrapeDate     string
}

// NewChunk creates the index-th chunk of a promo.
func NewChunk(parent Promo, index int, text string) Chunk {
	return Chunk{
		parentID:       parent.ID(),
		index:          index,
		text:           text,
		title:          parent.Title(),
		url:            parent.URL(),
		period:         parent.Period(),
		category:       parent.Category(),
		bank:           parent.Bank(),
		paymentMethods: parent.PaymentMethods(),
		scrapeDate:     parent.ScrapeDate(),
	}
}

// ReconstructChunk creates a Chunk without validation (storage hydration).
func ReconstructChunk(attrs ChunkAttrs) Chunk {
	return Chunk{
		parentID:       attrs.ParentID,
		index:          attrs.Index,
		text:           attrs.Text,
		title:          attrs.Title,
		url:            attrs.URL,
		period:         attrs.Period,
		category:       attrs.Category,
		bank:           attrs.Bank,
		paymentMethods: attrs.PaymentMethods,
		scrapeDate:     attrs.ScrapeDate,
	}
}

// ID returns the deterministic chunk identifier "<parent_id>::chunk-<n>".
func (c Chunk) ID() string {
	return fmt.Sprintf("%s::chunk-%d", c.parentID, c.index)
}

// ParentID returns the owning promo's id.
func (c Chunk) ParentID() string { return c.parentID }

// Index returns the zero-based position within the parent's chunk sequence.
func (c Chunk) Index() int { return c.index }

// Text returns the chunk text as stored and displayed.
func (c Chunk) Text() string { return c.text }

// Title returns the parent promo title.
func (c Chunk) Title() string { return c.title }

// URL returns the parent promo URL.
func (c Chunk) URL() string { return c.url }

// Period returns the parent promo period.
func (c Chunk) Period() string { return c.period }

// Category returns the parent promo category.
func (c Chunk) Category() string { return c.category }

// Bank returns the parent promo bank.
func (c Chunk) Bank() string { return c.bank }

// PaymentMethods returns the parent promo payment methods.
func (c Chunk) PaymentMethods() []string { return c.paymentMethods }

// PaymentMethodsJoined returns the payment methods as one comma-joined
// string, the form used in stored metadata and embedding text.
func (c Chunk) PaymentMethodsJoined() string {
	return strings.Join(c.paymentMethods, ", ")
}

// ScrapeDate returns the parent promo scrape date.
func (c Chunk) ScrapeDate() string { return c.scrapeDate }

// EmbedText builds the text actually sent to the embedding provider: a
// metadata preamble ("Key Name: value" lines in fixed order, empty values
// skipped), a blank line, then the chunk text. The preamble keeps short
// chunks anchored to their promo even when the slice itself is generic.
func (c Chunk) EmbedText() string {
	pairs := [...]struct{ key, val string }{
		{"Title", c.title},
		{"Period", c.period},
		{"Category", c.category},
		{"Bank", c.bank},
		{"Payment Methods", c.PaymentMethodsJoined()},
		{"Scrape Date", c.scrapeDate},
		{"Url", c.url},
		{"Parent Id", c.parentID},
		{"Chunk Index", strconv.Itoa(c.index)},
	}

	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if v := strings.TrimSpace(p.val); v != "" {
			lines = append(lines, p.key+": "+v)
		}
	}

	header := strings.Join(lines, "\n")
	body := strings.TrimSpace(c.text)
	switch {
	case header != "" && body != "":
		return header + "\n\n" + body
	case header != "":
		return header
	default:
		return body
	}
}
