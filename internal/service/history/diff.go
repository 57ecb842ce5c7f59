package history

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/heartmarshall/phrasebook-backend/internal/domain"
)

// newEngine configures the diff engine. The library's default DiffTimeout
// abandons the LCS search after one second of wall-clock time and falls back
// to a coarse remove-all/add-all script, which makes the output depend on
// machine load. History entries for the same key must carry the same diff on
// every redelivery, so the search always runs to completion.
func newEngine() *diffmatchpatch.DiffMatchPatch {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return dmp
}

// Diff computes a character-level edit script from previous to current.
// Segments come back in edit order: keeping only added+identical values
// reconstructs current, keeping removed+identical reconstructs previous.
// The result is deterministic for a given input pair. A nil slice means
// the engine produced no segments, which only happens for empty inputs.
func Diff(previous, current string) []domain.DiffSegment {
	dmp := newEngine()

	// checklines=false keeps the diff at character granularity; no semantic
	// cleanup is applied so the script stays a minimal LCS edit.
	diffs := dmp.DiffMain(previous, current, false)

	var segments []domain.DiffSegment
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		segments = append(segments, domain.DiffSegment{
			Kind:  segmentKind(d.Type),
			Value: d.Text,
		})
	}

	return segments
}

func segmentKind(op diffmatchpatch.Operation) domain.SegmentKind {
	switch op {
	case diffmatchpatch.DiffInsert:
		return domain.SegmentAdded
	case diffmatchpatch.DiffDelete:
		return domain.SegmentRemoved
	default:
		return domain.SegmentIdentical
	}
}
