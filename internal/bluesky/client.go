package bluesky

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/iconidentify/skyfurl/internal/config"
	"github.com/iconidentify/skyfurl/internal/domain"
)

const defaultAPIBase = "https://public.api.bsky.app"

// Client resolves AT Protocol post URLs against the public Bluesky API.
// No authentication is needed for public posts.
type Client struct {
	baseURL    string
	httpClient *http.Client
	urlPattern *regexp.Regexp
}

// NewClient creates a resolver for the configured API endpoint and the set of
// supported web front-end domains (bsky.app plus any alternative sites).
func NewClient(cfg config.BlueskyConfig) *Client {
	baseURL := strings.TrimRight(cfg.APIBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultAPIBase
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	escaped := make([]string, 0, len(cfg.SupportedDomains))
	for _, d := range cfg.SupportedDomains {
		escaped = append(escaped, regexp.QuoteMeta(d))
	}
	// Matches https://{domain}/profile/{handle}/post/{rkey}
	pattern := regexp.MustCompile(`(?:` + strings.Join(escaped, "|") + `)/profile/([^/]+)/post/([^/?#]+)`)

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		urlPattern: pattern,
	}
}

// ParsePostURL extracts the handle and record key from a post URL. It returns
// domain.ErrNotAPost when the URL does not match any supported domain.
func (c *Client) ParsePostURL(postURL string) (handle, rkey string, err error) {
	matches := c.urlPattern.FindStringSubmatch(postURL)
	if len(matches) < 3 {
		return "", "", domain.ErrNotAPost
	}
	return matches[1], matches[2], nil
}

// Resolve determines whether the URL addresses a supported post and fetches
// its canonical content. It returns domain.ErrNotAPost for non-candidate URLs
// and an error wrapping domain.ErrPostUnavailable when the post is missing,
// private, or the upstream service fails.
func (c *Client) Resolve(ctx context.Context, postURL string) (*domain.Post, error) {
	handle, rkey, err := c.ParsePostURL(postURL)
	if err != nil {
		return nil, err
	}

	did, err := c.resolveHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("resolve handle %q: %w", handle, err)
	}

	atURI := fmt.Sprintf("at://%s/app.bsky.feed.post/%s", did, rkey)
	post, err := c.fetchPost(ctx, atURI)
	if err != nil {
		return nil, fmt.Errorf("fetch post %s: %w", atURI, err)
	}

	post.ID = domain.PostID(rkey)
	post.URL = postURL
	return post, nil
}

// resolveHandle resolves a handle to its stable DID via getProfile.
func (c *Client) resolveHandle(ctx context.Context, handle string) (string, error) {
	var resp profileResponse
	if err := c.get(ctx, "/xrpc/app.bsky.actor.getProfile", url.Values{"actor": {handle}}, &resp); err != nil {
		return "", err
	}
	if resp.DID == "" {
		return "", domain.ErrPostUnavailable
	}
	return resp.DID, nil
}

// fetchPost fetches the post thread and extracts the root post. The thread
// endpoint is used instead of a bare record fetch because it returns the
// hydrated embed view, including the video playlist URL.
func (c *Client) fetchPost(ctx context.Context, atURI string) (*domain.Post, error) {
	var resp threadResponse
	params := url.Values{"uri": {atURI}, "depth": {"0"}, "parentHeight": {"0"}}
	if err := c.get(ctx, "/xrpc/app.bsky.feed.getPostThread", params, &resp); err != nil {
		return nil, err
	}

	if resp.Thread.Post == nil || strings.Contains(resp.Thread.Type, "notFoundPost") || strings.Contains(resp.Thread.Type, "blockedPost") {
		return nil, domain.ErrPostUnavailable
	}

	return parsePostView(resp.Thread.Post)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Missing and taken-down records surface as 400s from the XRPC API.
		return fmt.Errorf("API error (status %d): %s: %w", resp.StatusCode, string(body), domain.ErrPostUnavailable)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}

type profileResponse struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

type threadResponse struct {
	Thread threadView `json:"thread"`
}

type threadView struct {
	Type string    `json:"$type"`
	Post *postView `json:"post"`
}

type postView struct {
	URI    string `json:"uri"`
	CID    string `json:"cid"`
	Author struct {
		DID         string `json:"did"`
		Handle      string `json:"handle"`
		DisplayName string `json:"displayName"`
		Avatar      string `json:"avatar"`
	} `json:"author"`
	Record struct {
		Text      string `json:"text"`
		CreatedAt string `json:"createdAt"`
	} `json:"record"`
	Embed       json.RawMessage `json:"embed"`
	ReplyCount  int             `json:"replyCount"`
	RepostCount int             `json:"repostCount"`
	LikeCount   int             `json:"likeCount"`
}

func parsePostView(view *postView) (*domain.Post, error) {
	createdAt, _ := time.Parse(time.RFC3339, view.Record.CreatedAt)

	post := &domain.Post{
		URI:  view.URI,
		Text: view.Record.Text,
		Author: domain.Author{
			DID:         view.Author.DID,
			Handle:      view.Author.Handle,
			DisplayName: view.Author.DisplayName,
			AvatarURL:   view.Author.Avatar,
		},
		CreatedAt: createdAt,
		Embed:     parseEmbed(view.Embed),
		Metrics: domain.PostMetrics{
			Likes:   view.LikeCount,
			Reposts: view.RepostCount,
			Replies: view.ReplyCount,
		},
	}

	return post, nil
}

// parseEmbed decodes the hydrated embed view into the embed union. This is
// the single place where the loosely-typed embed payload is probed; everything
// downstream switches on Embed.Kind.
func parseEmbed(raw json.RawMessage) domain.Embed {
	if len(raw) == 0 {
		return domain.Embed{Kind: domain.EmbedNone}
	}

	var view embedView
	if err := json.Unmarshal(raw, &view); err != nil {
		return domain.Embed{Kind: domain.EmbedNone}
	}

	// Video embeds carry an explicit playlist reference, or at minimum a
	// video type discriminator.
	if view.Playlist != "" || strings.Contains(view.Type, "embed.video") {
		return domain.Embed{
			Kind: domain.EmbedVideo,
			Video: &domain.VideoRef{
				PlaylistURL:  view.Playlist,
				ThumbnailURL: view.Thumbnail,
				AltText:      view.Alt,
			},
		}
	}

	if len(view.Images) > 0 {
		images := make([]domain.ImageRef, 0, len(view.Images))
		for _, img := range view.Images {
			images = append(images, domain.ImageRef{
				ThumbURL:    img.Thumb,
				FullsizeURL: img.Fullsize,
				AltText:     img.Alt,
			})
		}
		return domain.Embed{Kind: domain.EmbedImages, Images: images}
	}

	if view.External != nil {
		return domain.Embed{
			Kind: domain.EmbedExternal,
			External: &domain.ExternalRef{
				URI:         view.External.URI,
				Title:       view.External.Title,
				Description: view.External.Description,
			},
		}
	}

	return domain.Embed{Kind: domain.EmbedNone}
}

type embedView struct {
	Type      string `json:"$type"`
	Playlist  string `json:"playlist"`
	Thumbnail string `json:"thumbnail"`
	Alt       string `json:"alt"`
	Images    []struct {
		Thumb    string `json:"thumb"`
		Fullsize string `json:"fullsize"`
		Alt      string `json:"alt"`
	} `json:"images"`
	External *struct {
		URI         string `json:"uri"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"external"`
}
