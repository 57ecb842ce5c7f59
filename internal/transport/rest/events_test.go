package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/heartmarshall/phrasebook-backend/internal/domain"
)

type changeServiceMock struct {
	HandlePhraseWriteFunc func(ctx context.Context, before, after *domain.Phrase) error
}

func (m *changeServiceMock) HandlePhraseWrite(ctx context.Context, before, after *domain.Phrase) error {
	return m.HandlePhraseWriteFunc(ctx, before, after)
}

func eventBody(editorID uuid.UUID) string {
	return fmt.Sprintf(`{
		"before": null,
		"after": {
			"originalText": "Hello",
			"translatedText": "Hallo",
			"translatedAt": "2021-03-14T09:26:53.589Z",
			"editorId": %q
		}
	}`, editorID)
}

func TestPhraseWrite_FirstCreation(t *testing.T) {
	t.Parallel()

	editorID := uuid.New()
	changes := &changeServiceMock{
		HandlePhraseWriteFunc: func(ctx context.Context, before, after *domain.Phrase) error {
			if before != nil {
				t.Error("expected nil before for creation event")
			}
			if after == nil {
				t.Fatal("expected non-nil after")
			}
			if after.Hash != domain.PhraseHash("Hello") {
				t.Errorf("expected hash derived from original text, got %q", after.Hash)
			}
			if after.EditorID != editorID {
				t.Errorf("expected editor %s, got %s", editorID, after.EditorID)
			}
			if after.TranslatedAt.UnixMilli() != 1615714013589 {
				t.Errorf("unexpected translatedAt millis %d", after.TranslatedAt.UnixMilli())
			}
			return nil
		},
	}

	h := NewEventsHandler(changes, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/events/phrase-write", strings.NewReader(eventBody(editorID)))
	rec := httptest.NewRecorder()

	h.PhraseWrite(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPhraseWrite_Update(t *testing.T) {
	t.Parallel()

	editorID := uuid.New()
	body := fmt.Sprintf(`{
		"before": {
			"originalText": "Hello",
			"translatedText": "Hola",
			"translatedAt": "2021-03-13T08:00:00.000Z",
			"editorId": %q
		},
		"after": {
			"originalText": "Hello",
			"translatedText": "Hallo",
			"translatedAt": "2021-03-14T09:26:53.589Z",
			"editorId": %q
		}
	}`, editorID, editorID)

	changes := &changeServiceMock{
		HandlePhraseWriteFunc: func(ctx context.Context, before, after *domain.Phrase) error {
			if before == nil || before.TranslatedText != "Hola" {
				t.Errorf("expected before snapshot with previous translation, got %+v", before)
			}
			return nil
		},
	}

	h := NewEventsHandler(changes, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/events/phrase-write", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.PhraseWrite(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
}

func TestPhraseWrite_Deletion(t *testing.T) {
	t.Parallel()

	editorID := uuid.New()
	body := fmt.Sprintf(`{
		"before": {
			"originalText": "Hello",
			"translatedText": "Hallo",
			"translatedAt": "2021-03-14T09:26:53.589Z",
			"editorId": %q
		},
		"after": null
	}`, editorID)

	changes := &changeServiceMock{
		HandlePhraseWriteFunc: func(ctx context.Context, before, after *domain.Phrase) error {
			if after != nil {
				t.Error("expected nil after for deletion event")
			}
			return nil
		},
	}

	h := NewEventsHandler(changes, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/events/phrase-write", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.PhraseWrite(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
}

func TestPhraseWrite_InvalidBody(t *testing.T) {
	t.Parallel()

	h := NewEventsHandler(&changeServiceMock{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/events/phrase-write", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()

	h.PhraseWrite(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestPhraseWrite_BadEditorID(t *testing.T) {
	t.Parallel()

	body := `{
		"before": null,
		"after": {
			"originalText": "Hello",
			"translatedText": "Hallo",
			"translatedAt": "2021-03-14T09:26:53.589Z",
			"editorId": "not-a-uuid"
		}
	}`

	h := NewEventsHandler(&changeServiceMock{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/events/phrase-write", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.PhraseWrite(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "editorId") {
		t.Errorf("expected editorId mention in error, got %s", rec.Body.String())
	}
}

func TestPhraseWrite_MissingTranslatedText(t *testing.T) {
	t.Parallel()

	body := fmt.Sprintf(`{
		"before": null,
		"after": {
			"originalText": "Hello",
			"translatedText": "   ",
			"translatedAt": "2021-03-14T09:26:53.589Z",
			"editorId": %q
		}
	}`, uuid.New())

	changes := &changeServiceMock{
		HandlePhraseWriteFunc: func(ctx context.Context, before, after *domain.Phrase) error {
			t.Error("handler should not be invoked for a snapshot without translated text")
			return nil
		},
	}

	h := NewEventsHandler(changes, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/events/phrase-write", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.PhraseWrite(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "translatedText") {
		t.Errorf("expected translatedText mention in error, got %s", rec.Body.String())
	}
}

func TestPhraseWrite_IntegrityFault(t *testing.T) {
	t.Parallel()

	editorID := uuid.New()
	changes := &changeServiceMock{
		HandlePhraseWriteFunc: func(ctx context.Context, before, after *domain.Phrase) error {
			return fmt.Errorf("enrich editor: %w", domain.ErrIntegrity)
		},
	}

	h := NewEventsHandler(changes, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/events/phrase-write", strings.NewReader(eventBody(editorID)))
	rec := httptest.NewRecorder()

	h.PhraseWrite(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
}

func TestPhraseWrite_UnknownEditor(t *testing.T) {
	t.Parallel()

	editorID := uuid.New()
	changes := &changeServiceMock{
		HandlePhraseWriteFunc: func(ctx context.Context, before, after *domain.Phrase) error {
			return fmt.Errorf("load account: %w", domain.ErrNotFound)
		},
	}

	h := NewEventsHandler(changes, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/events/phrase-write", strings.NewReader(eventBody(editorID)))
	rec := httptest.NewRecorder()

	h.PhraseWrite(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
}
