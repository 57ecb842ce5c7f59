// Package history implements the fan-out history store using PostgreSQL.
// Each destination keeps the entry as one jsonb document; writes use an
// upsert whose conflict action merges the new document over the stored one
// (doc || EXCLUDED.doc), so redelivered events overwrite per field instead
// of duplicating, and fields missing from a partial prior write survive.
package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/phrasebook-backend/internal/adapter/postgres"
	"github.com/heartmarshall/phrasebook-backend/internal/domain"
)

// Repo provides history persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new history repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Merge writes (fan-out destinations)
// ---------------------------------------------------------------------------

const putPhraseHistorySQL = `
INSERT INTO phrase_histories (phrase_hash, id, doc)
VALUES ($1, $2, $3)
ON CONFLICT (phrase_hash, id) DO UPDATE SET doc = phrase_histories.doc || EXCLUDED.doc`

const putGlobalHistorySQL = `
INSERT INTO histories (id, doc)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET doc = histories.doc || EXCLUDED.doc`

// PutPhraseHistory merge-writes the entry into the per-phrase collection.
func (r *Repo) PutPhraseHistory(ctx context.Context, phraseHash, id string, entry domain.HistoryEntry) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	doc, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("history %s marshal: %w", id, err)
	}

	if _, err := querier.Exec(ctx, putPhraseHistorySQL, phraseHash, id, doc); err != nil {
		return postgres.MapError(err, "phrase_history", id)
	}

	return nil
}

// PutGlobalHistory merge-writes the entry into the global feed.
func (r *Repo) PutGlobalHistory(ctx context.Context, id string, entry domain.HistoryEntry) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	doc, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("history %s marshal: %w", id, err)
	}

	if _, err := querier.Exec(ctx, putGlobalHistorySQL, id, doc); err != nil {
		return postgres.MapError(err, "history", id)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Keys are stringified millisecond timestamps; the bigint cast keeps the
// ordering numeric rather than lexicographic regardless of key length.
const listByPhraseSQL = `
SELECT doc FROM phrase_histories
WHERE phrase_hash = $1
ORDER BY id::bigint`

const listByPhrasesSQL = `
SELECT phrase_hash, doc FROM phrase_histories
WHERE phrase_hash = ANY($1)
ORDER BY phrase_hash, id::bigint`

const listFeedSQL = `
SELECT doc FROM histories
ORDER BY id::bigint DESC
LIMIT $1`

// ListByPhrase returns all history entries for one phrase in store order.
func (r *Repo) ListByPhrase(ctx context.Context, phraseHash string) ([]domain.HistoryEntry, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByPhraseSQL, phraseHash)
	if err != nil {
		return nil, fmt.Errorf("list histories for phrase %s: %w", phraseHash, err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("list histories for phrase %s: %w", phraseHash, err)
	}

	return entries, nil
}

// ListByPhrases returns history entries for multiple phrases in one read,
// grouped by phrase hash (batch for the aggregation endpoint).
func (r *Repo) ListByPhrases(ctx context.Context, phraseHashes []string) (map[string][]domain.HistoryEntry, error) {
	grouped := make(map[string][]domain.HistoryEntry, len(phraseHashes))
	if len(phraseHashes) == 0 {
		return grouped, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByPhrasesSQL, phraseHashes)
	if err != nil {
		return nil, fmt.Errorf("list histories by phrases: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			hash string
			doc  []byte
		)
		if err := rows.Scan(&hash, &doc); err != nil {
			return nil, fmt.Errorf("list histories by phrases: %w", err)
		}
		var entry domain.HistoryEntry
		if err := json.Unmarshal(doc, &entry); err != nil {
			return nil, fmt.Errorf("history for phrase %s unmarshal: %w", hash, err)
		}
		grouped[hash] = append(grouped[hash], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list histories by phrases: %w", err)
	}

	return grouped, nil
}

// ListFeed returns the newest entries from the global feed, newest first by
// write timestamp.
func (r *Repo) ListFeed(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listFeedSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list history feed: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("list history feed: %w", err)
	}

	return entries, nil
}

// scanEntries unmarshals jsonb docs from a single-column result set.
func scanEntries(rows pgx.Rows) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var entry domain.HistoryEntry
		if err := json.Unmarshal(doc, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []domain.HistoryEntry{}
	}

	return entries, nil
}
