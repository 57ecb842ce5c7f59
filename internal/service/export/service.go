// Package export assembles the denormalized read side: every phrase together
// with its translation history, and the global history feed.
package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/phrasebook-backend/internal/domain"
)

// phraseLister reads the full phrase collection.
type phraseLister interface {
	List(ctx context.Context) ([]domain.Phrase, error)
}

// historyReader reads history entries grouped per phrase and the global feed.
type historyReader interface {
	ListByPhrases(ctx context.Context, phraseHashes []string) (map[string][]domain.HistoryEntry, error)
	ListFeed(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

// Service provides the aggregation reads. Fully read-only.
type Service struct {
	phrases   phraseLister
	histories historyReader
	log       *slog.Logger
}

// New creates the export service.
func New(phrases phraseLister, histories historyReader, logger *slog.Logger) *Service {
	return &Service{
		phrases:   phrases,
		histories: histories,
		log:       logger.With("service", "export"),
	}
}

// PhraseWithHistory is one phrase with its history entries attached in store
// order. Translators mirrors the upstream export field name.
type PhraseWithHistory struct {
	ID             string                `json:"id"`
	OriginalText   string                `json:"originalText"`
	TranslatedText string                `json:"translatedText"`
	TranslatedAt   string                `json:"translatedAt"`
	Translators    []domain.HistoryEntry `json:"translators"`
}

// ListPhrases reads every phrase and attaches its per-phrase history entries.
// Any read fault aborts the whole aggregation; no partial result is returned.
// Unbounded result size is an accepted limitation of this export.
func (s *Service) ListPhrases(ctx context.Context) ([]PhraseWithHistory, error) {
	phrases, err := s.phrases.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list phrases: %w", err)
	}

	hashes := make([]string, len(phrases))
	for i, p := range phrases {
		hashes[i] = p.Hash
	}

	byPhrase, err := s.histories.ListByPhrases(ctx, hashes)
	if err != nil {
		return nil, fmt.Errorf("list phrase histories: %w", err)
	}

	result := make([]PhraseWithHistory, len(phrases))
	for i, p := range phrases {
		entries := byPhrase[p.Hash]
		if entries == nil {
			entries = []domain.HistoryEntry{}
		}
		result[i] = PhraseWithHistory{
			ID:             p.Hash,
			OriginalText:   p.OriginalText,
			TranslatedText: p.TranslatedText,
			TranslatedAt:   p.TranslatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
			Translators:    entries,
		}
	}

	s.log.DebugContext(ctx, "phrases exported", slog.Int("count", len(result)))

	return result, nil
}

// Feed returns the newest entries from the global history feed.
func (s *Service) Feed(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	entries, err := s.histories.ListFeed(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list history feed: %w", err)
	}
	return entries, nil
}
