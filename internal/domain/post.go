package domain

import (
	"time"
)

// PostID is the platform-assigned record key of a post.
type PostID string

// String returns the string representation of the PostID.
func (id PostID) String() string {
	return string(id)
}

// Post is an immutable snapshot of a microblog entry, produced by the
// resolver for a single unfurl request. It is never mutated after creation.
type Post struct {
	ID        PostID
	URI       string // AT URI of the post record
	URL       string // web URL the post was resolved from
	Author    Author
	Text      string
	CreatedAt time.Time
	Embed     Embed
	Metrics   PostMetrics
}

// Author identifies the post author.
type Author struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// DisplayLabel returns the display name, falling back to the handle when the
// profile has no display name set.
func (a Author) DisplayLabel() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Handle
}

// PostMetrics contains engagement counts.
type PostMetrics struct {
	Likes   int `json:"likes"`
	Reposts int `json:"reposts"`
	Replies int `json:"replies"`
}

// EmbedKind discriminates the embed union.
type EmbedKind string

const (
	EmbedNone     EmbedKind = "none"
	EmbedImages   EmbedKind = "images"
	EmbedVideo    EmbedKind = "video"
	EmbedExternal EmbedKind = "external"
)

// Embed is the embedded media of a post, decoded once at the resolver
// boundary so downstream components never probe ad hoc fields.
type Embed struct {
	Kind     EmbedKind
	Images   []ImageRef
	Video    *VideoRef
	External *ExternalRef
}

// ImageRef describes one embedded image.
type ImageRef struct {
	ThumbURL    string `json:"thumb_url,omitempty"`
	FullsizeURL string `json:"fullsize_url,omitempty"`
	AltText     string `json:"alt_text,omitempty"`
}

// VideoRef describes an embedded video prior to transcoding.
type VideoRef struct {
	PlaylistURL  string `json:"playlist_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	AltText      string `json:"alt_text,omitempty"`
}

// ExternalRef describes an external link card.
type ExternalRef struct {
	URI         string `json:"uri"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// HasVideo returns true if the post carries a transcodable video embed.
func (p *Post) HasVideo() bool {
	return p.Embed.Kind == EmbedVideo && p.Embed.Video != nil && p.Embed.Video.PlaylistURL != ""
}
