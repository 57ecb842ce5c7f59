package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GithubProvider is the canonical external identity provider. Every editor
// account is expected to carry exactly one linkage to it.
const GithubProvider = "github.com"

// ProviderLink is one external identity provider linked to an account.
type ProviderLink struct {
	Provider string
	UID      string
}

// Account is a durable editor account as resolved from the identity store.
type Account struct {
	ID        uuid.UUID
	Email     string
	Name      string
	CreatedAt time.Time
	Providers []ProviderLink
}

// GithubUID returns the UID of the canonical github.com linkage.
// The second return is false when the linkage is missing.
func (a *Account) GithubUID() (string, bool) {
	for _, p := range a.Providers {
		if p.Provider == GithubProvider {
			return p.UID, true
		}
	}
	return "", false
}

// Identity is the enriched editor identity embedded into history entries:
// the durable account id, the canonical github linkage, and whatever fields
// the optional profile document carried at resolution time.
type Identity struct {
	ID       string
	GithubID string
	Profile  map[string]any
}

// MarshalJSON flattens the profile fields into the identity object.
// Profile fields are applied last, so they win on key collision.
func (i Identity) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(i.Profile)+2)
	m["id"] = i.ID
	m["githubId"] = i.GithubID
	for k, v := range i.Profile {
		m[k] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON splits the flattened object back into the fixed fields and
// the profile remainder.
func (i *Identity) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if v, ok := m["id"].(string); ok {
		i.ID = v
	}
	if v, ok := m["githubId"].(string); ok {
		i.GithubID = v
	}
	delete(m, "id")
	delete(m, "githubId")
	if len(m) > 0 {
		i.Profile = m
	} else {
		i.Profile = nil
	}
	return nil
}
