package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Phrase is a unit of original text and its current best translation.
// The hash key is derived purely from the original text and never changes
// when the translation is edited.
type Phrase struct {
	Hash           string
	OriginalText   string
	TranslatedText string
	TranslatedAt   time.Time
	EditorID       uuid.UUID
}

// PhraseHash derives the stable storage key for a phrase from its original text.
func PhraseHash(originalText string) string {
	sum := sha256.Sum256([]byte(originalText))
	return hex.EncodeToString(sum[:])
}

// SegmentKind classifies a diff segment.
type SegmentKind string

const (
	SegmentAdded     SegmentKind = "added"
	SegmentRemoved   SegmentKind = "removed"
	SegmentIdentical SegmentKind = "identical"
)

// DiffSegment is one tagged piece of the edit script between two translations.
type DiffSegment struct {
	Kind  SegmentKind `json:"type"`
	Value string      `json:"value"`
}

// HistoryEntry is an immutable snapshot of a phrase's state at one edit,
// with the computed diff and the enriched editor identity. The JSON shape
// is the persisted contract; Diff is nil (JSON null) only when the diff
// engine produced no segments.
type HistoryEntry struct {
	OriginalText   string        `json:"originalText"`
	TranslatedText string        `json:"translatedText"`
	TranslatedAt   time.Time     `json:"translatedAt"`
	Diff           []DiffSegment `json:"diff"`
	User           Identity      `json:"user"`
}

// HistoryKey derives the storage key for a history entry from the phrase's
// write timestamp: milliseconds since epoch, stringified. Redeliveries of
// the same write event carry the same timestamp and so converge on the same
// key instead of duplicating the entry.
func HistoryKey(translatedAt time.Time) string {
	return strconv.FormatInt(translatedAt.UnixMilli(), 10)
}
