package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/heartmarshall/phrasebook-backend/internal/domain"
	"github.com/heartmarshall/phrasebook-backend/internal/service/export"
	"github.com/heartmarshall/phrasebook-backend/internal/service/phrase"
)

// exportService defines the read side needed by PhraseHandler.
type exportService interface {
	ListPhrases(ctx context.Context) ([]export.PhraseWithHistory, error)
	Feed(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

// phraseService defines the write side needed by PhraseHandler.
type phraseService interface {
	Upsert(ctx context.Context, input phrase.UpsertInput) (*domain.Phrase, error)
}

// PhraseHandler serves the phrase collection endpoints.
type PhraseHandler struct {
	exports   exportService
	phrases   phraseService
	feedLimit int
	log       *slog.Logger
}

// NewPhraseHandler creates a PhraseHandler. feedLimit caps the /histories
// page size and serves as its default.
func NewPhraseHandler(exports exportService, phrases phraseService, feedLimit int, logger *slog.Logger) *PhraseHandler {
	return &PhraseHandler{
		exports:   exports,
		phrases:   phrases,
		feedLimit: feedLimit,
		log:       logger.With("handler", "phrases"),
	}
}

type listPhrasesResponse struct {
	Phrases []export.PhraseWithHistory `json:"phrases"`
}

type upsertPhraseRequest struct {
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
}

type phraseResponse struct {
	ID             string `json:"id"`
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	TranslatedAt   string `json:"translatedAt"`
}

type feedResponse struct {
	Histories []domain.HistoryEntry `json:"histories"`
}

// List handles GET /phrases. It returns every phrase with its full
// translation history attached.
func (h *PhraseHandler) List(w http.ResponseWriter, r *http.Request) {
	phrases, err := h.exports.ListPhrases(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listPhrasesResponse{Phrases: phrases})
}

// Upsert handles PUT /phrases. It writes or retranslates a phrase; the
// record key derives from the original text.
func (h *PhraseHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertPhraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.phrases.Upsert(r.Context(), phrase.UpsertInput{
		OriginalText:   req.OriginalText,
		TranslatedText: req.TranslatedText,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, phraseResponse{
		ID:             p.Hash,
		OriginalText:   p.OriginalText,
		TranslatedText: p.TranslatedText,
		TranslatedAt:   p.TranslatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
	})
}

// Feed handles GET /histories. It returns the newest entries of the global
// history feed. An optional ?limit= parameter narrows the page; values above
// the configured cap are clamped.
func (h *PhraseHandler) Feed(w http.ResponseWriter, r *http.Request) {
	limit := h.feedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	entries, err := h.exports.Feed(r.Context(), limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, feedResponse{Histories: entries})
}

func (h *PhraseHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrIntegrity):
		h.log.ErrorContext(r.Context(), "integrity fault", slog.String("error", err.Error()))
		writeError(w, http.StatusUnprocessableEntity, "editor identity is incomplete")
	default:
		h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
