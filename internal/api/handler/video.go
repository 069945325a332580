package handler

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/skyfurl/internal/domain"
	"github.com/iconidentify/skyfurl/internal/store"
)

// playerPage is the minimal embeddable HTML5 player the chat platform loads
// in an iframe for video previews.
var playerPage = template.Must(template.New("player").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Video Player</title>
    <style>
        body {
            margin: 0;
            padding: 0;
            background: #000;
            display: flex;
            justify-content: center;
            align-items: center;
            min-height: 100vh;
        }
        video {
            max-width: 100%;
            max-height: 100vh;
            width: 100%;
        }
    </style>
</head>
<body>
    <video controls autoplay>
        <source src="{{.VideoURL}}" type="video/mp4">
        Your browser does not support the video tag.
    </video>
</body>
</html>
`))

// VideoHandler serves transcoded video assets.
type VideoHandler struct {
	assets        *store.AssetStore
	publicBaseURL string
	logger        *slog.Logger
}

// NewVideoHandler creates a new video handler.
func NewVideoHandler(assets *store.AssetStore, publicBaseURL string, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{
		assets:        assets,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}
}

// ServeVideo handles GET /videos/{videoID}.mp4
func (h *VideoHandler) ServeVideo(w http.ResponseWriter, r *http.Request) {
	id := domain.AssetID(chi.URLParam(r, "videoID"))

	path, err := h.assets.GetVideoPath(id)
	if err != nil {
		if errors.Is(err, domain.ErrAssetNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("video lookup failed", "asset_id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	http.ServeFile(w, r, path)
}

// ServeThumbnail handles GET /videos/{videoID}/thumbnail.jpg
func (h *VideoHandler) ServeThumbnail(w http.ResponseWriter, r *http.Request) {
	id := domain.AssetID(chi.URLParam(r, "videoID"))

	path, err := h.assets.GetThumbnailPath(id)
	if err != nil {
		if errors.Is(err, domain.ErrAssetNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("thumbnail lookup failed", "asset_id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, path)
}

// Player handles GET /videos/{videoID}/player
func (h *VideoHandler) Player(w http.ResponseWriter, r *http.Request) {
	id := domain.AssetID(chi.URLParam(r, "videoID"))

	// The page only embeds a URL, but 404 early so dead links don't render
	// an empty player.
	if _, err := h.assets.GetVideoPath(id); err != nil {
		http.NotFound(w, r)
		return
	}

	videoURL := fmt.Sprintf("%s/videos/%s.mp4", h.publicBaseURL, id)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := playerPage.Execute(w, map[string]string{"VideoURL": videoURL}); err != nil {
		h.logger.Error("render player page", "asset_id", id, "error", err)
	}
}
