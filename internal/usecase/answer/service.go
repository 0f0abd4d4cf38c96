// Package answer turns retrieved promo context into a grounded Indonesian
// answer via an OpenAI-compatible chat model. When the index is unreachable
// it can degrade to the last synced snapshot instead of failing the user.
package answer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promodex/internal/domain"
)

// Defaults for context assembly.
const (
	DefaultTopK                = 8
	DefaultMaxDescriptionChars = 600
)

// Config tunes how much promo context reaches the model.
type Config struct {
	TopK                int
	MaxDescriptionChars int
}

// ContextItem is one promo row handed to the language model, description
// trimmed for prompt budget. Field order is the order the model sees.
type ContextItem struct {
	Title          string `json:"title"`
	URL            string `json:"url"`
	PaymentMethods string `json:"payment_methods"`
	Period         string `json:"period"`
	Category       string `json:"category"`
	Bank           string `json:"bank"`
	Description    string `json:"description"`
}

// Answer is a generated reply plus the promo context it was grounded on.
type Answer struct {
	Text     string
	Sources  []ContextItem
	Degraded bool // context came from the snapshot, not the live index
}

// Service orchestrates retrieval, context assembly and generation.
type Service struct {
	retriever Retriever
	completer Completer
	fallback  FallbackSource
	cfg       Config
	logger    *zap.Logger
}

// New creates an answer service.
func New(retriever Retriever, completer Completer, cfg Config, logger *zap.Logger) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxDescriptionChars <= 0 {
		cfg.MaxDescriptionChars = DefaultMaxDescriptionChars
	}
	return &Service{retriever: retriever, completer: completer, cfg: cfg, logger: logger}
}

// WithFallback configures a snapshot source consulted when retrieval fails.
func (s *Service) WithFallback(f FallbackSource) *Service {
	s.fallback = f
	return s
}

// Ask answers a free-text question about current promos. k and maxDescChars
// fall back to the configured defaults when non-positive.
func (s *Service) Ask(ctx context.Context, question string, k, maxDescChars int) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, domain.ErrEmptyQuery
	}
	if k <= 0 {
		k = s.cfg.TopK
	}
	if maxDescChars <= 0 {
		maxDescChars = s.cfg.MaxDescriptionChars
	}

	items, degraded, err := s.buildContext(ctx, question, k, maxDescChars)
	if err != nil {
		return Answer{}, err
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return Answer{}, fmt.Errorf("encode context: %w", err)
	}

	text, err := s.completer.Complete(ctx, systemPrompt, buildUserMessage(string(payload), question))
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}
	return Answer{Text: text, Sources: items, Degraded: degraded}, nil
}

// buildContext retrieves ranked promos, or falls back to the snapshot when
// the index is down. Non-retrieval errors (a mismatched index, an empty
// question) propagate: masking those with snapshot data would hide an
// operator problem.
func (s *Service) buildContext(
	ctx context.Context, question string, k, maxDescChars int,
) ([]ContextItem, bool, error) {
	results, err := s.retriever.Search(ctx, question, k)
	if err != nil {
		if s.fallback == nil || !errors.Is(err, domain.ErrRetrieval) {
			return nil, false, err
		}
		s.logger.Warn("Retrieval failed, answering from snapshot", zap.Error(err))
		promos, ferr := s.fallback.Fallback(k)
		if ferr != nil {
			return nil, false, fmt.Errorf("snapshot fallback unavailable (%v): %w", ferr, err)
		}
		return promoItems(promos, maxDescChars), true, nil
	}

	if len(results) == 0 && s.fallback != nil {
		// An empty index gives the model nothing to ground on; the snapshot
		// at least names the promos known to exist.
		if promos, ferr := s.fallback.Fallback(k); ferr == nil && len(promos) > 0 {
			return promoItems(promos, maxDescChars), true, nil
		}
	}
	return resultItems(results, maxDescChars), false, nil
}

func resultItems(results []domain.Result, maxDescChars int) []ContextItem {
	items := make([]ContextItem, len(results))
	for i := range results {
		r := &results[i]
		items[i] = ContextItem{
			Title:          r.Title(),
			URL:            r.URL(),
			PaymentMethods: strings.Join(r.PaymentMethods(), ", "),
			Period:         r.Period(),
			Category:       r.Category(),
			Bank:           r.Bank(),
			Description:    trimDescription(r.Description(), maxDescChars),
		}
	}
	return items
}

func promoItems(promos []domain.Promo, maxDescChars int) []ContextItem {
	items := make([]ContextItem, len(promos))
	for i, p := range promos {
		items[i] = ContextItem{
			Title:          p.Title(),
			URL:            p.URL(),
			PaymentMethods: strings.Join(p.PaymentMethods(), ", "),
			Period:         p.Period(),
			Category:       p.Category(),
			Bank:           p.Bank(),
			Description:    trimDescription(p.Description(), maxDescChars),
		}
	}
	return items
}

// trimDescription flattens newlines and cuts overlong text at the last word
// boundary before the limit, marking the cut with an ellipsis. The limit
// counts characters, not bytes.
func trimDescription(desc string, maxChars int) string {
	desc = strings.TrimSpace(strings.ReplaceAll(desc, "\n", " "))
	runes := []rune(desc)
	if len(runes) <= maxChars {
		return desc
	}
	cut := string(runes[:maxChars])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
