package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/skyfurl/internal/api/handler"
	mw "github.com/iconidentify/skyfurl/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured. Every route
// is unauthenticated: the video endpoints are fetched by the chat platform's
// preview proxy, and the OAuth callback is a browser redirect.
func NewRouter(
	videoHandler *handler.VideoHandler,
	healthHandler *handler.HealthHandler,
	oauthHandler *handler.OAuthHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/health", healthHandler.Live)

	r.Get("/videos/{videoID}.mp4", videoHandler.ServeVideo)
	r.Get("/videos/{videoID}/thumbnail.jpg", videoHandler.ServeThumbnail)
	r.Get("/videos/{videoID}/player", videoHandler.Player)

	if oauthHandler != nil {
		r.Get("/slack/oauth/callback", oauthHandler.Callback)
	}

	return r
}
