// Package phrase implements the Phrase repository using PostgreSQL.
// The phrases table plays the document-store collection: one row per
// phrase, keyed by the content-derived hash.
package phrase

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/phrasebook-backend/internal/adapter/postgres"
	"github.com/heartmarshall/phrasebook-backend/internal/domain"
)

// Repo provides phrase persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	txm  *postgres.TxManager
}

// New creates a new phrase repository.
func New(pool *pgxpool.Pool, txm *postgres.TxManager) *Repo {
	return &Repo{pool: pool, txm: txm}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const getForUpdateSQL = `
SELECT hash, original_text, translated_text, translated_at, editor_id
FROM phrases
WHERE hash = $1
FOR UPDATE`

const upsertSQL = `
INSERT INTO phrases (hash, original_text, translated_text, translated_at, editor_id)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (hash) DO UPDATE SET
    translated_text = EXCLUDED.translated_text,
    translated_at   = EXCLUDED.translated_at,
    editor_id       = EXCLUDED.editor_id
RETURNING hash, original_text, translated_text, translated_at, editor_id`

// Upsert writes the phrase and returns the snapshots around the write.
// The read and write run in one transaction so the before snapshot is the
// exact state the write replaced. before is nil on first creation.
func (r *Repo) Upsert(ctx context.Context, p domain.Phrase) (*domain.Phrase, *domain.Phrase, error) {
	var before, after *domain.Phrase

	err := r.txm.RunInTx(ctx, func(txCtx context.Context) error {
		querier := postgres.QuerierFromCtx(txCtx, r.pool)

		prev, err := scanPhrase(querier.QueryRow(txCtx, getForUpdateSQL, p.Hash))
		switch {
		case err == nil:
			before = &prev
		case errors.Is(err, pgx.ErrNoRows):
			// first creation
		default:
			return postgres.MapError(err, "phrase", p.Hash)
		}

		row := querier.QueryRow(txCtx, upsertSQL,
			p.Hash, p.OriginalText, p.TranslatedText, p.TranslatedAt, p.EditorID)
		next, err := scanPhrase(row)
		if err != nil {
			return postgres.MapError(err, "phrase", p.Hash)
		}
		after = &next

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return before, after, nil
}

// GetByHash returns a single phrase.
func (r *Repo) GetByHash(ctx context.Context, hash string) (*domain.Phrase, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	query, args, err := psql.
		Select("hash", "original_text", "translated_text", "translated_at", "editor_id").
		From("phrases").
		Where(sq.Eq{"hash": hash}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build phrase query: %w", err)
	}

	p, err := scanPhrase(querier.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "phrase", hash)
	}

	return &p, nil
}

// List returns every phrase, oldest translation first.
func (r *Repo) List(ctx context.Context) ([]domain.Phrase, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	query, args, err := psql.
		Select("hash", "original_text", "translated_text", "translated_at", "editor_id").
		From("phrases").
		OrderBy("translated_at", "hash").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build phrase list query: %w", err)
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list phrases: %w", err)
	}
	defer rows.Close()

	var phrases []domain.Phrase
	for rows.Next() {
		p, err := scanPhraseFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("list phrases: %w", err)
		}
		phrases = append(phrases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list phrases: %w", err)
	}

	if phrases == nil {
		phrases = []domain.Phrase{}
	}

	return phrases, nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanPhrase(row pgx.Row) (domain.Phrase, error) {
	var p domain.Phrase
	if err := row.Scan(&p.Hash, &p.OriginalText, &p.TranslatedText, &p.TranslatedAt, &p.EditorID); err != nil {
		return domain.Phrase{}, err
	}
	return p, nil
}

func scanPhraseFromRows(rows pgx.Rows) (domain.Phrase, error) {
	var p domain.Phrase
	if err := rows.Scan(&p.Hash, &p.OriginalText, &p.TranslatedText, &p.TranslatedAt, &p.EditorID); err != nil {
		return domain.Phrase{}, err
	}
	return p, nil
}
