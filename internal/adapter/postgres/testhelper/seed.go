package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/phrasebook-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedAccount creates an account with a github.com provider linkage.
// Returns the filled domain.Account.
func SeedAccount(t *testing.T, pool *pgxpool.Pool) domain.Account {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	account := domain.Account{
		ID:        uuid.New(),
		Email:     "editor-" + suffix + "@example.com",
		Name:      "Editor " + suffix,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		Providers: []domain.ProviderLink{
			{Provider: domain.GithubProvider, UID: "gh-" + suffix},
		},
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO accounts (id, email, name, created_at) VALUES ($1, $2, $3, $4)`,
		account.ID, account.Email, account.Name, account.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedAccount insert account: %v", err)
	}

	for _, link := range account.Providers {
		_, err = pool.Exec(ctx,
			`INSERT INTO account_providers (id, account_id, provider, provider_uid) VALUES ($1, $2, $3, $4)`,
			uuid.New(), account.ID, link.Provider, link.UID,
		)
		if err != nil {
			t.Fatalf("testhelper: SeedAccount insert provider: %v", err)
		}
	}

	return account
}

// SeedAccountWithoutProviders creates an account with no provider linkages
// (the integrity-fault fixture).
func SeedAccountWithoutProviders(t *testing.T, pool *pgxpool.Pool) domain.Account {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	account := domain.Account{
		ID:        uuid.New(),
		Email:     "orphan-" + suffix + "@example.com",
		Name:      "Orphan " + suffix,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO accounts (id, email, name, created_at) VALUES ($1, $2, $3, $4)`,
		account.ID, account.Email, account.Name, account.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedAccountWithoutProviders insert: %v", err)
	}

	return account
}

// SeedPhrase inserts a phrase owned by the given editor and returns it.
func SeedPhrase(t *testing.T, pool *pgxpool.Pool, editorID uuid.UUID, original, translated string) domain.Phrase {
	t.Helper()
	ctx := context.Background()

	p := domain.Phrase{
		Hash:           domain.PhraseHash(original),
		OriginalText:   original,
		TranslatedText: translated,
		TranslatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		EditorID:       editorID,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO phrases (hash, original_text, translated_text, translated_at, editor_id)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (hash) DO UPDATE SET
		     translated_text = EXCLUDED.translated_text,
		     translated_at   = EXCLUDED.translated_at,
		     editor_id       = EXCLUDED.editor_id`,
		p.Hash, p.OriginalText, p.TranslatedText, p.TranslatedAt, p.EditorID,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedPhrase insert: %v", err)
	}

	return p
}
