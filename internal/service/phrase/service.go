// Package phrase implements the write path for crowd-translated phrases.
// Every successful write hands the before/after snapshot pair to the change
// trigger, mirroring the document store's own write notifications.
package phrase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/heartmarshall/phrasebook-backend/internal/domain"
	"github.com/heartmarshall/phrasebook-backend/pkg/ctxutil"
)

// phraseRepo persists phrases keyed by their content hash. Upsert returns
// the snapshot pair around the write; before is nil on first creation.
type phraseRepo interface {
	Upsert(ctx context.Context, p domain.Phrase) (before, after *domain.Phrase, err error)
}

// changeHandler is the change-history trigger contract.
type changeHandler interface {
	HandlePhraseWrite(ctx context.Context, before, after *domain.Phrase) error
}

// Service handles phrase writes.
type Service struct {
	phrases phraseRepo
	changes changeHandler
	log     *slog.Logger
	now     func() time.Time
}

// New creates the phrase service.
func New(phrases phraseRepo, changes changeHandler, logger *slog.Logger) *Service {
	return &Service{
		phrases: phrases,
		changes: changes,
		log:     logger.With("service", "phrase"),
		now:     time.Now,
	}
}

// UpsertInput carries a phrase write.
type UpsertInput struct {
	OriginalText   string
	TranslatedText string
}

// Validate checks the input fields.
func (in UpsertInput) Validate() error {
	if strings.TrimSpace(in.OriginalText) == "" {
		return domain.NewValidationError("originalText", "must not be empty")
	}
	if strings.TrimSpace(in.TranslatedText) == "" {
		return domain.NewValidationError("translatedText", "must not be empty")
	}
	return nil
}

// Upsert writes or updates the translation for a phrase. The phrase key is
// derived from the original text, so retranslations land on the same record.
// The change trigger runs synchronously before the write is acknowledged;
// a trigger fault is surfaced so the client retries the whole write, which
// is safe under the history pipeline's merge semantics.
func (s *Service) Upsert(ctx context.Context, input UpsertInput) (*domain.Phrase, error) {
	editorID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	p := domain.Phrase{
		Hash:           domain.PhraseHash(input.OriginalText),
		OriginalText:   input.OriginalText,
		TranslatedText: input.TranslatedText,
		TranslatedAt:   s.now().UTC().Truncate(time.Millisecond),
		EditorID:       editorID,
	}

	before, after, err := s.phrases.Upsert(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("upsert phrase %s: %w", p.Hash, err)
	}

	if err := s.changes.HandlePhraseWrite(ctx, before, after); err != nil {
		return nil, fmt.Errorf("record change history: %w", err)
	}

	s.log.InfoContext(ctx, "phrase written",
		slog.String("phrase", p.Hash),
		slog.String("editor", editorID.String()),
	)

	return after, nil
}
