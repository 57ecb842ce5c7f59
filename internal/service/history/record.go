package history

import (
	"github.com/heartmarshall/phrasebook-backend/internal/domain"
)

// NewRecord builds the immutable history entry for one phrase write: a copy
// of the after-snapshot fields, the computed diff, and the enriched identity
// in place of the raw editor reference. The entry's storage key is derived
// separately via domain.HistoryKey from the same snapshot's timestamp.
func NewRecord(after domain.Phrase, diff []domain.DiffSegment, editor domain.Identity) domain.HistoryEntry {
	return domain.HistoryEntry{
		OriginalText:   after.OriginalText,
		TranslatedText: after.TranslatedText,
		TranslatedAt:   after.TranslatedAt,
		Diff:           diff,
		User:           editor,
	}
}
