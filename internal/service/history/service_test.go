package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/phrasebook-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockAccountRepo struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

type mockProfileRepo struct {
	getFunc func(ctx context.Context, accountID uuid.UUID) (map[string]any, error)
}

func (m *mockProfileRepo) GetByAccountID(ctx context.Context, accountID uuid.UUID) (map[string]any, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, accountID)
	}
	return nil, domain.ErrNotFound
}

// writeOp records one merge write issued by the fan-out.
type writeOp struct {
	dest       string // "phrase" or "global"
	phraseHash string
	id         string
	entry      domain.HistoryEntry
}

type mockHistoryWriter struct {
	writes         []writeOp
	phraseWriteErr error
	globalWriteErr error
}

func (m *mockHistoryWriter) PutPhraseHistory(_ context.Context, phraseHash, id string, entry domain.HistoryEntry) error {
	if m.phraseWriteErr != nil {
		return m.phraseWriteErr
	}
	m.writes = append(m.writes, writeOp{dest: "phrase", phraseHash: phraseHash, id: id, entry: entry})
	return nil
}

func (m *mockHistoryWriter) PutGlobalHistory(_ context.Context, id string, entry domain.HistoryEntry) error {
	if m.globalWriteErr != nil {
		return m.globalWriteErr
	}
	m.writes = append(m.writes, writeOp{dest: "global", id: id, entry: entry})
	return nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var testEditorID = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

func linkedAccount(id uuid.UUID) *domain.Account {
	return &domain.Account{
		ID: id,
		Providers: []domain.ProviderLink{
			{Provider: "google.com", UID: "g-9"},
			{Provider: domain.GithubProvider, UID: "gh-123"},
		},
	}
}

func newService(accounts *mockAccountRepo, profiles *mockProfileRepo, writer *mockHistoryWriter) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(accounts, profiles, writer, logger)
}

func phraseAt(text string, ts time.Time) *domain.Phrase {
	return &domain.Phrase{
		Hash:           domain.PhraseHash("original"),
		OriginalText:   "original",
		TranslatedText: text,
		TranslatedAt:   ts,
		EditorID:       testEditorID,
	}
}

// ---------------------------------------------------------------------------
// HandlePhraseWrite
// ---------------------------------------------------------------------------

func TestHandlePhraseWrite_FanOutWritesBothDestinations(t *testing.T) {
	t.Parallel()

	accounts := &mockAccountRepo{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Account, error) {
			return linkedAccount(id), nil
		},
	}
	writer := &mockHistoryWriter{}
	svc := newService(accounts, &mockProfileRepo{}, writer)

	ts := time.Date(2021, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	before := phraseAt("hello", ts.Add(-time.Hour))
	after := phraseAt("hallo", ts)

	if err := svc.HandlePhraseWrite(context.Background(), before, after); err != nil {
		t.Fatalf("HandlePhraseWrite: %v", err)
	}

	if len(writer.writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(writer.writes))
	}

	// Per-phrase destination first, global feed second.
	if writer.writes[0].dest != "phrase" || writer.writes[1].dest != "global" {
		t.Errorf("wrong write order: %s then %s", writer.writes[0].dest, writer.writes[1].dest)
	}
	if writer.writes[0].phraseHash != after.Hash {
		t.Errorf("phrase history scoped under %s, want %s", writer.writes[0].phraseHash, after.Hash)
	}

	wantKey := "1615714013589"
	for _, w := range writer.writes {
		if w.id != wantKey {
			t.Errorf("%s write keyed %s, want stringified millis %s", w.dest, w.id, wantKey)
		}
		if w.entry.TranslatedText != "hallo" || w.entry.OriginalText != "original" {
			t.Errorf("%s entry did not copy the after snapshot: %+v", w.dest, w.entry)
		}
		if w.entry.User.ID != testEditorID.String() {
			t.Errorf("%s entry user id = %s, want %s", w.dest, w.entry.User.ID, testEditorID)
		}
		if w.entry.User.GithubID != "gh-123" {
			t.Errorf("%s entry github id = %s, want gh-123", w.dest, w.entry.User.GithubID)
		}
		if len(w.entry.Diff) == 0 {
			t.Errorf("%s entry carries no diff", w.dest)
		}
	}
}

func TestHandlePhraseWrite_RedeliveryConvergesOnSameKey(t *testing.T) {
	t.Parallel()

	accounts := &mockAccountRepo{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Account, error) {
			return linkedAccount(id), nil
		},
	}
	writer := &mockHistoryWriter{}
	svc := newService(accounts, &mockProfileRepo{}, writer)

	ts := time.Now().UTC()
	before := phraseAt("hello", ts.Add(-time.Hour))
	after := phraseAt("hallo", ts)

	for range 2 {
		if err := svc.HandlePhraseWrite(context.Background(), before, after); err != nil {
			t.Fatalf("HandlePhraseWrite: %v", err)
		}
	}

	if len(writer.writes) != 4 {
		t.Fatalf("expected 4 writes, got %d", len(writer.writes))
	}
	keys := map[string]bool{}
	for _, w := range writer.writes {
		keys[w.id] = true
	}
	if len(keys) != 1 {
		t.Errorf("redelivery produced %d distinct keys, want 1 (merge convergence)", len(keys))
	}
}

func TestHandlePhraseWrite_FirstCreationDiffsAgainstEmpty(t *testing.T) {
	t.Parallel()

	accounts := &mockAccountRepo{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Account, error) {
			return linkedAccount(id), nil
		},
	}
	writer := &mockHistoryWriter{}
	svc := newService(accounts, &mockProfileRepo{}, writer)

	after := phraseAt("hi", time.Now())
	if err := svc.HandlePhraseWrite(context.Background(), nil, after); err != nil {
		t.Fatalf("HandlePhraseWrite: %v", err)
	}

	diff := writer.writes[0].entry.Diff
	if len(diff) != 1 || diff[0].Kind != domain.SegmentAdded || diff[0].Value != "hi" {
		t.Errorf("first write diff = %+v, want the whole text as added", diff)
	}
}

func TestHandlePhraseWrite_DeletionIsNoOp(t *testing.T) {
	t.Parallel()

	writer := &mockHistoryWriter{}
	svc := newService(&mockAccountRepo{}, &mockProfileRepo{}, writer)

	before := phraseAt("hello", time.Now())
	if err := svc.HandlePhraseWrite(context.Background(), before, nil); err != nil {
		t.Fatalf("deletion event must not fail: %v", err)
	}
	if len(writer.writes) != 0 {
		t.Errorf("deletion event wrote %d records, want 0", len(writer.writes))
	}
}

func TestHandlePhraseWrite_MissingGithubLinkageIsIntegrityFault(t *testing.T) {
	t.Parallel()

	accounts := &mockAccountRepo{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Account, error) {
			return &domain.Account{
				ID:        id,
				Providers: []domain.ProviderLink{{Provider: "google.com", UID: "g-9"}},
			}, nil
		},
	}
	writer := &mockHistoryWriter{}
	svc := newService(accounts, &mockProfileRepo{}, writer)

	err := svc.HandlePhraseWrite(context.Background(), nil, phraseAt("hi", time.Now()))
	if !errors.Is(err, domain.ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
	if len(writer.writes) != 0 {
		t.Errorf("integrity fault must abort before any write, got %d writes", len(writer.writes))
	}
}

func TestHandlePhraseWrite_UnknownEditorAbortsBeforeWrites(t *testing.T) {
	t.Parallel()

	writer := &mockHistoryWriter{}
	svc := newService(&mockAccountRepo{}, &mockProfileRepo{}, writer)

	err := svc.HandlePhraseWrite(context.Background(), nil, phraseAt("hi", time.Now()))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(writer.writes) != 0 {
		t.Errorf("lookup fault must abort before any write, got %d writes", len(writer.writes))
	}
}

func TestHandlePhraseWrite_MissingProfileIsNotAFault(t *testing.T) {
	t.Parallel()

	accounts := &mockAccountRepo{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Account, error) {
			return linkedAccount(id), nil
		},
	}
	writer := &mockHistoryWriter{}
	svc := newService(accounts, &mockProfileRepo{}, writer) // profile repo returns ErrNotFound

	if err := svc.HandlePhraseWrite(context.Background(), nil, phraseAt("hi", time.Now())); err != nil {
		t.Fatalf("missing profile must not fail the pipeline: %v", err)
	}
	if got := writer.writes[0].entry.User.Profile; got != nil {
		t.Errorf("expected absent profile fields, got %v", got)
	}
}

func TestHandlePhraseWrite_ProfileFieldsEmbedded(t *testing.T) {
	t.Parallel()

	accounts := &mockAccountRepo{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Account, error) {
			return linkedAccount(id), nil
		},
	}
	profiles := &mockProfileRepo{
		getFunc: func(_ context.Context, _ uuid.UUID) (map[string]any, error) {
			return map[string]any{"displayName": "Alice"}, nil
		},
	}
	writer := &mockHistoryWriter{}
	svc := newService(accounts, profiles, writer)

	if err := svc.HandlePhraseWrite(context.Background(), nil, phraseAt("hi", time.Now())); err != nil {
		t.Fatalf("HandlePhraseWrite: %v", err)
	}
	if got := writer.writes[0].entry.User.Profile["displayName"]; got != "Alice" {
		t.Errorf("profile field not embedded, got %v", got)
	}
}

func TestHandlePhraseWrite_GlobalFeedFailureSurfacesAfterPhraseWrite(t *testing.T) {
	t.Parallel()

	accounts := &mockAccountRepo{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Account, error) {
			return linkedAccount(id), nil
		},
	}
	storeErr := errors.New("connection reset")
	writer := &mockHistoryWriter{globalWriteErr: storeErr}
	svc := newService(accounts, &mockProfileRepo{}, writer)

	err := svc.HandlePhraseWrite(context.Background(), nil, phraseAt("hi", time.Now()))
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected the store fault to surface, got %v", err)
	}
	// The per-phrase write already landed; the caller's redelivery retries both.
	if len(writer.writes) != 1 || writer.writes[0].dest != "phrase" {
		t.Errorf("expected exactly the phrase write to have landed, got %+v", writer.writes)
	}
}
