// Package account implements the editor account lookup using PostgreSQL.
// It is the read contract of the identity collaborator: accounts plus their
// linked external providers.
package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/phrasebook-backend/internal/adapter/postgres"
	"github.com/heartmarshall/phrasebook-backend/internal/domain"
)

// Repo provides account lookups backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new account repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const getByIDSQL = `
SELECT id, email, name, created_at
FROM accounts
WHERE id = $1`

const getProvidersSQL = `
SELECT provider, provider_uid
FROM account_providers
WHERE account_id = $1
ORDER BY provider`

// GetByID resolves an account with its provider linkages.
// Unknown ids map to domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var account domain.Account
	row := querier.QueryRow(ctx, getByIDSQL, id)
	if err := row.Scan(&account.ID, &account.Email, &account.Name, &account.CreatedAt); err != nil {
		return nil, postgres.MapError(err, "account", id.String())
	}

	rows, err := querier.Query(ctx, getProvidersSQL, id)
	if err != nil {
		return nil, fmt.Errorf("get providers for account %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var link domain.ProviderLink
		if err := rows.Scan(&link.Provider, &link.UID); err != nil {
			return nil, fmt.Errorf("get providers for account %s: %w", id, err)
		}
		account.Providers = append(account.Providers, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get providers for account %s: %w", id, err)
	}

	return &account, nil
}
