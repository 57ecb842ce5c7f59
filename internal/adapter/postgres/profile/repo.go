// Package profile implements the optional per-account profile store.
// A profile is one jsonb document; absence is a valid state and maps to
// domain.ErrNotFound so callers can treat it as "no extra fields".
package profile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/phrasebook-backend/internal/adapter/postgres"
)

// Repo provides profile lookups backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new profile repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const getByAccountIDSQL = `
SELECT doc FROM profiles
WHERE account_id = $1`

// GetByAccountID returns the profile document's fields for an account.
func (r *Repo) GetByAccountID(ctx context.Context, accountID uuid.UUID) (map[string]any, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var doc []byte
	if err := querier.QueryRow(ctx, getByAccountIDSQL, accountID).Scan(&doc); err != nil {
		return nil, postgres.MapError(err, "profile", accountID.String())
	}

	fields := make(map[string]any)
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil, fmt.Errorf("profile %s unmarshal: %w", accountID, err)
	}

	return fields, nil
}

// Put stores or replaces the profile document for an account.
func (r *Repo) Put(ctx context.Context, accountID uuid.UUID, fields map[string]any) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	doc, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("profile %s marshal: %w", accountID, err)
	}

	const putSQL = `
INSERT INTO profiles (account_id, doc)
VALUES ($1, $2)
ON CONFLICT (account_id) DO UPDATE SET doc = EXCLUDED.doc`

	if _, err := querier.Exec(ctx, putSQL, accountID, doc); err != nil {
		return postgres.MapError(err, "profile", accountID.String())
	}

	return nil
}
