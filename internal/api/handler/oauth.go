package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iconidentify/skyfurl/internal/domain"
)

// OAuthExchanger exchanges an OAuth redirect code for an installation.
type OAuthExchanger interface {
	ExchangeOAuthCode(ctx context.Context, clientID, clientSecret, code string) (*domain.Installation, error)
}

// InstallationSaver persists workspace installations.
type InstallationSaver interface {
	Save(ctx context.Context, inst *domain.Installation) error
}

// OAuthHandler completes the chat platform's OAuth install flow.
type OAuthHandler struct {
	exchanger     OAuthExchanger
	installations InstallationSaver
	clientID      string
	clientSecret  string
	logger        *slog.Logger
}

// NewOAuthHandler creates a new OAuth handler.
func NewOAuthHandler(
	exchanger OAuthExchanger,
	installations InstallationSaver,
	clientID, clientSecret string,
	logger *slog.Logger,
) *OAuthHandler {
	return &OAuthHandler{
		exchanger:     exchanger,
		installations: installations,
		clientID:      clientID,
		clientSecret:  clientSecret,
		logger:        logger,
	}
}

// Callback handles GET /slack/oauth/callback
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing code parameter", http.StatusBadRequest)
		return
	}

	inst, err := h.exchanger.ExchangeOAuthCode(r.Context(), h.clientID, h.clientSecret, code)
	if err != nil {
		h.logger.Error("oauth exchange failed", "error", err)
		http.Error(w, "installation failed", http.StatusBadGateway)
		return
	}

	if err := h.installations.Save(r.Context(), inst); err != nil {
		if errors.Is(err, domain.ErrWorkspaceNotApproved) {
			h.logger.Warn("installation rejected", "team", inst.TeamName)
			http.Error(w, "This workspace is not approved for installation. Please contact the app administrator for access.", http.StatusForbidden)
			return
		}
		h.logger.Error("failed to save installation", "team_id", inst.TeamID, "error", err)
		http.Error(w, "installation failed", http.StatusInternalServerError)
		return
	}

	h.logger.Info("workspace installed", "team_id", inst.TeamID, "team", inst.TeamName)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("<html><body><h2>App installed</h2><p>You can close this window.</p></body></html>"))
}
