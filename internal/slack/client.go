package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iconidentify/skyfurl/internal/domain"
)

const defaultAPIBase = "https://slack.com/api"

// Client is a minimal Slack Web API client covering the calls this service
// needs: unfurl delivery, Socket Mode connection setup, and OAuth exchange.
type Client struct {
	baseURL    string
	botToken   string
	appToken   string
	httpClient *http.Client
}

// NewClient creates a Slack Web API client. If baseURL is empty it defaults
// to the public Slack API endpoint.
func NewClient(baseURL, botToken, appToken string) *Client {
	if baseURL == "" {
		baseURL = defaultAPIBase
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		botToken: botToken,
		appToken: appToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Unfurl sets or replaces the previews for the given URLs within one message
// via chat.unfurl. The same call serves both the immediate preview and later
// corrections; Slack keys each preview by URL within the message.
func (c *Client) Unfurl(ctx context.Context, channel, messageTS string, unfurls map[string]*domain.UnfurlPayload) error {
	if len(unfurls) == 0 {
		return nil
	}

	body := unfurlRequest{
		Channel: channel,
		TS:      messageTS,
		Unfurls: unfurls,
	}

	if err := c.postJSON(ctx, "/chat.unfurl", c.botToken, body, nil); err != nil {
		return fmt.Errorf("chat.unfurl: %w", err)
	}
	return nil
}

// OpenConnection requests a Socket Mode WebSocket URL via
// apps.connections.open, authenticated with the app-level token.
func (c *Client) OpenConnection(ctx context.Context) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.postJSON(ctx, "/apps.connections.open", c.appToken, nil, &resp); err != nil {
		return "", fmt.Errorf("apps.connections.open: %w", err)
	}
	if resp.URL == "" {
		return "", fmt.Errorf("apps.connections.open: empty websocket URL")
	}
	return resp.URL, nil
}

// ExchangeOAuthCode exchanges an OAuth redirect code for an installation via
// oauth.v2.access.
func (c *Client) ExchangeOAuthCode(ctx context.Context, clientID, clientSecret, code string) (*domain.Installation, error) {
	form := url.Values{
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"code":          {code},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth.v2.access", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp oauthResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("oauth.v2.access: %w", err)
	}

	var scopes []string
	if resp.Scope != "" {
		scopes = strings.Split(resp.Scope, ",")
	}

	return &domain.Installation{
		TeamID:      resp.Team.ID,
		TeamName:    resp.Team.Name,
		BotToken:    resp.AccessToken,
		BotUserID:   resp.BotUserID,
		Scopes:      scopes,
		InstalledAt: time.Now(),
	}, nil
}

func (c *Client) postJSON(ctx context.Context, path, token string, body, result any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)

	return c.do(req, result)
}

// do sends the request and decodes the standard Slack envelope. Slack reports
// call failures as ok:false with an error code, not as HTTP errors.
func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var envelope apiResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if !envelope.OK {
		return fmt.Errorf("API error: %s", envelope.Error)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type unfurlRequest struct {
	Channel string                           `json:"channel"`
	TS      string                           `json:"ts"`
	Unfurls map[string]*domain.UnfurlPayload `json:"unfurls"`
}

type oauthResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
	BotUserID   string `json:"bot_user_id"`
	Team        struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
}
