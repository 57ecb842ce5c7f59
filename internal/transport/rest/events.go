package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/heartmarshall/phrasebook-backend/internal/domain"
)

// changeService is the change-history trigger contract.
type changeService interface {
	HandlePhraseWrite(ctx context.Context, before, after *domain.Phrase) error
}

// EventsHandler accepts phrase write events from external producers, such as
// a store-side change feed, and routes them into the history pipeline. The
// endpoint is idempotent: redelivering an event converges on the same history
// entries.
type EventsHandler struct {
	changes changeService
	log     *slog.Logger
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(changes changeService, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{changes: changes, log: logger.With("handler", "events")}
}

// phraseDoc is the wire form of a phrase snapshot inside a write event.
type phraseDoc struct {
	OriginalText   string    `json:"originalText"`
	TranslatedText string    `json:"translatedText"`
	TranslatedAt   time.Time `json:"translatedAt"`
	EditorID       string    `json:"editorId"`
}

type phraseWriteEvent struct {
	Before *phraseDoc `json:"before"`
	After  *phraseDoc `json:"after"`
}

// PhraseWrite handles POST /events/phrase-write. Responds 204 once the
// history entries are durably recorded.
func (h *EventsHandler) PhraseWrite(w http.ResponseWriter, r *http.Request) {
	var event phraseWriteEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	before, err := event.Before.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "before: "+err.Error())
		return
	}
	after, err := event.After.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "after: "+err.Error())
		return
	}

	if err := h.changes.HandlePhraseWrite(r.Context(), before, after); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toDomain converts a wire snapshot to the domain form, deriving the record
// hash from the original text. A nil doc stays nil (absent side of the pair).
func (d *phraseDoc) toDomain() (*domain.Phrase, error) {
	if d == nil {
		return nil, nil
	}
	if d.OriginalText == "" {
		return nil, errors.New("originalText must not be empty")
	}
	if strings.TrimSpace(d.TranslatedText) == "" {
		return nil, errors.New("translatedText must not be empty")
	}
	if d.TranslatedAt.IsZero() {
		return nil, errors.New("translatedAt must be set")
	}
	editorID, err := uuid.Parse(d.EditorID)
	if err != nil {
		return nil, errors.New("editorId must be a UUID")
	}
	return &domain.Phrase{
		Hash:           domain.PhraseHash(d.OriginalText),
		OriginalText:   d.OriginalText,
		TranslatedText: d.TranslatedText,
		TranslatedAt:   d.TranslatedAt,
		EditorID:       editorID,
	}, nil
}

func (h *EventsHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrIntegrity):
		h.log.ErrorContext(r.Context(), "integrity fault", slog.String("error", err.Error()))
		writeError(w, http.StatusUnprocessableEntity, "editor identity is incomplete")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusUnprocessableEntity, "editor account not found")
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
