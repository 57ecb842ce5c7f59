// Package history implements the phrase change-history pipeline: diffing the
// previous and current translation, enriching the editor identity, and
// fanning the resulting record out to the per-phrase history collection and
// the global history feed.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/phrasebook-backend/internal/domain"
)

// accountRepo resolves editor references to durable accounts.
type accountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

// profileRepo reads the optional per-account profile document.
// A missing profile is reported as domain.ErrNotFound.
type profileRepo interface {
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (map[string]any, error)
}

// historyWriter persists a history entry with merge semantics to one of the
// two fan-out destinations.
type historyWriter interface {
	PutPhraseHistory(ctx context.Context, phraseHash, id string, entry domain.HistoryEntry) error
	PutGlobalHistory(ctx context.Context, id string, entry domain.HistoryEntry) error
}

// Service orchestrates the change-history pipeline. It holds no mutable
// state; concurrent invocations only share the store underneath.
type Service struct {
	accounts  accountRepo
	profiles  profileRepo
	histories historyWriter
	log       *slog.Logger
}

// New creates the history service.
func New(accounts accountRepo, profiles profileRepo, histories historyWriter, logger *slog.Logger) *Service {
	return &Service{
		accounts:  accounts,
		profiles:  profiles,
		histories: histories,
		log:       logger.With("service", "history"),
	}
}

// enrich resolves the editor reference into the identity embedded in history
// entries. The canonical github.com linkage is mandatory: an account without
// it is corrupt and the whole invocation aborts with domain.ErrIntegrity.
// The profile document is optional; absence just leaves the fields out.
func (s *Service) enrich(ctx context.Context, editorID uuid.UUID) (domain.Identity, error) {
	account, err := s.accounts.GetByID(ctx, editorID)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("resolve editor %s: %w", editorID, err)
	}

	githubUID, ok := account.GithubUID()
	if !ok {
		return domain.Identity{}, fmt.Errorf("editor %s has no %s linkage: %w",
			editorID, domain.GithubProvider, domain.ErrIntegrity)
	}

	profile, err := s.profiles.GetByAccountID(ctx, editorID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.Identity{}, fmt.Errorf("read profile %s: %w", editorID, err)
	}

	return domain.Identity{
		ID:       account.ID.String(),
		GithubID: githubUID,
		Profile:  profile,
	}, nil
}
