package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PromoAttrs is the raw field set of a normalized promotion record, as
// produced by the extractor. Optional fields may be empty; ID is derived
// from the URL when absent.
type PromoAttrs struct {
	ID             string
	Title          string
	URL            string
	Period         string
	Category       string
	Bank           string
	PaymentMethods []string
	Description    string
	ScrapeDate     string
}

// Promo is one normalized bank promotion (immutable value object).
type Promo struct {
	id             string
	title          string
	url            string
	period         string
	category       string
	bank           string
	paymentMethods []string
	description    string
	scrapeDate     string
}

// NewPromo validates and creates a Promo. Free-text fields are cleaned
// (carriage returns normalized, surrounding whitespace trimmed). A record
// carrying neither title nor URL is an extraction defect.
func NewPromo(attrs PromoAttrs) (Promo, error) {
	title := cleanText(attrs.Title)
	url := strings.TrimSpace(attrs.URL)
	if title == "" && url == "" {
		return Promo{}, fmt.Errorf("%w: record has neither title nor url", ErrExtraction)
	}

	id := strings.TrimSpace(attrs.ID)
	if id == "" {
		id = PromoIDFromURL(url)
	}

	return Promo{
		id:             id,
		title:          title,
		url:            url,
		period:         cleanText(attrs.Period),
		category:       strings.TrimSpace(attrs.Category),
		bank:           strings.TrimSpace(attrs.Bank),
		paymentMethods: cloneStrings(attrs.PaymentMethods),
		description:    cleanText(attrs.Description),
		scrapeDate:     strings.TrimSpace(attrs.ScrapeDate),
	}, nil
}

// ReconstructPromo creates a Promo without validation (hydration from
// storage or a trusted snapshot).
func ReconstructPromo(attrs PromoAttrs) Promo {
	return Promo{
		id:             attrs.ID,
		title:          attrs.Title,
		url:            attrs.URL,
		period:         attrs.Period,
		category:       attrs.Category,
		bank:           attrs.Bank,
		paymentMethods: attrs.PaymentMethods,
		description:    attrs.Description,
		scrapeDate:     attrs.ScrapeDate,
	}
}

// PromoIDFromURL derives the stable promo identifier: sha-256 hex of the
// source URL. Re-scraping the same URL always yields the same id. An empty
// URL gets a random UUID hex so the record remains addressable.
func PromoIDFromURL(url string) string {
	if url == "" {
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// ID returns the stable promo identifier.
func (p Promo) ID() string { return p.id }

// Title returns the promo title.
func (p Promo) Title() string { return p.title }

// URL returns the source page URL.
func (p Promo) URL() string { return p.url }

// Period returns the free-text promo period.
func (p Promo) Period() string { return p.period }

// Category returns the promo category.
func (p Promo) Category() string { return p.category }

// Bank returns the issuing bank.
func (p Promo) Bank() string { return p.bank }

// PaymentMethods returns the ordered payment method list.
func (p Promo) PaymentMethods() []string { return p.paymentMethods }

// Description returns the cleaned free-text description.
func (p Promo) Description() string { return p.description }

// ScrapeDate returns the scrape date string.
func (p Promo) ScrapeDate() string { return p.scrapeDate }

// BaseText composes the text handed to the chunker: title, period and
// description sections separated by blank lines, empty sections omitted.
func (p Promo) BaseText() string {
	parts := make([]string, 0, 3)
	parts = append(parts, "Title: "+p.title)
	if p.period != "" {
		parts = append(parts, "Period: "+p.period)
	}
	if p.description != "" {
		parts = append(parts, "Description:\n"+p.description)
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

// Attrs exports the promo back to its raw field set (snapshot persistence).
func (p Promo) Attrs() PromoAttrs {
	return PromoAttrs{
		ID:             p.id,
		Title:          p.title,
		URL:            p.url,
		Period:         p.period,
		Category:       p.category,
		Bank:           p.bank,
		PaymentMethods: p.paymentMethods,
		Description:    p.description,
		ScrapeDate:     p.scrapeDate,
	}
}

func cleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r", "\n"))
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
