package rest

import (
	"log/slog"
	"net/http"

	"github.com/heartmarshall/phrasebook-backend/internal/config"
	"github.com/heartmarshall/phrasebook-backend/internal/transport/middleware"
)

// RouterDeps carries everything the router needs.
type RouterDeps struct {
	Phrases *PhraseHandler
	Events  *EventsHandler
	Health  *HealthHandler
	Auth    middleware.Middleware
	Limiter *middleware.RateLimiter
	Logger  *slog.Logger
	Config  *config.Config
}

// NewRouter assembles the HTTP routing table with the middleware stack.
// Write endpoints additionally pass through the per-IP rate limiter; the
// auth middleware resolves bearer tokens for all routes and lets anonymous
// requests through, so read endpoints stay public.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", deps.Health.Live)
	mux.HandleFunc("GET /ready", deps.Health.Ready)
	mux.HandleFunc("GET /health", deps.Health.Health)

	mux.HandleFunc("GET /phrases", deps.Phrases.List)
	mux.HandleFunc("GET /histories", deps.Phrases.Feed)

	writeLimit := deps.Limiter.Limit(deps.Config.Server.WriteRateLimit)
	mux.Handle("PUT /phrases", writeLimit(http.HandlerFunc(deps.Phrases.Upsert)))
	mux.Handle("POST /events/phrase-write", writeLimit(http.HandlerFunc(deps.Events.PhraseWrite)))

	chain := middleware.Chain(
		middleware.RequestID(),
		middleware.Recovery(deps.Logger),
		middleware.Logger(deps.Logger),
		middleware.CORS(deps.Config.CORS),
		deps.Auth,
	)

	return chain(mux)
}
