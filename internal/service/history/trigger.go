package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/phrasebook-backend/internal/domain"
)

// HandlePhraseWrite is invoked once per write to a phrase record, with the
// before/after snapshot pair. The caller delivers events at least once; the
// handler stays safe under redelivery because the entry key derives from the
// write timestamp and both destinations take merge writes.
//
// before is nil on first creation. A nil after signals a deletion event,
// which records no history.
//
// Failure policy: diff or identity faults abort before any write; a fan-out
// failure after the first destination is returned to the caller, whose
// redelivery makes the retry converge rather than duplicate.
func (s *Service) HandlePhraseWrite(ctx context.Context, before, after *domain.Phrase) error {
	if after == nil {
		s.log.DebugContext(ctx, "phrase deleted, no history recorded")
		return nil
	}

	previous := ""
	if before != nil {
		previous = before.TranslatedText
	}
	diff := Diff(previous, after.TranslatedText)

	editor, err := s.enrich(ctx, after.EditorID)
	if err != nil {
		return err
	}

	entry := NewRecord(*after, diff, editor)
	key := domain.HistoryKey(after.TranslatedAt)

	if err := s.histories.PutPhraseHistory(ctx, after.Hash, key, entry); err != nil {
		return fmt.Errorf("write phrase history %s/%s: %w", after.Hash, key, err)
	}
	if err := s.histories.PutGlobalHistory(ctx, key, entry); err != nil {
		return fmt.Errorf("write history feed %s: %w", key, err)
	}

	s.log.InfoContext(ctx, "history recorded",
		slog.String("phrase", after.Hash),
		slog.String("history_id", key),
		slog.Int("diff_segments", len(diff)),
	)

	return nil
}
