package bluesky

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iconidentify/skyfurl/internal/config"
	"github.com/iconidentify/skyfurl/internal/domain"
)

func testConfig(baseURL string) config.BlueskyConfig {
	return config.BlueskyConfig{
		APIBaseURL:       baseURL,
		SupportedDomains: []string{"bsky.app", "blacksky.community"},
		Timeout:          5 * time.Second,
	}
}

func TestParsePostURL(t *testing.T) {
	client := NewClient(testConfig(""))

	tests := []struct {
		name       string
		url        string
		wantHandle string
		wantRKey   string
		wantErr    error
	}{
		{
			name:       "bsky.app URL",
			url:        "https://bsky.app/profile/alice.test/post/abc123",
			wantHandle: "alice.test",
			wantRKey:   "abc123",
		},
		{
			name:       "alternative site URL",
			url:        "https://blacksky.community/profile/bob.test/post/xyz789",
			wantHandle: "bob.test",
			wantRKey:   "xyz789",
		},
		{
			name:       "query string stripped from post id",
			url:        "https://bsky.app/profile/alice.test/post/abc123?ref=share",
			wantHandle: "alice.test",
			wantRKey:   "abc123",
		},
		{
			name:    "unsupported domain",
			url:     "https://example.com/profile/alice.test/post/abc123",
			wantErr: domain.ErrNotAPost,
		},
		{
			name:    "profile URL without post",
			url:     "https://bsky.app/profile/alice.test",
			wantErr: domain.ErrNotAPost,
		},
		{
			name:    "unrelated URL",
			url:     "https://news.ycombinator.com/item?id=1",
			wantErr: domain.ErrNotAPost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handle, rkey, err := client.ParsePostURL(tt.url)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if handle != tt.wantHandle || rkey != tt.wantRKey {
				t.Errorf("got (%q, %q), want (%q, %q)", handle, rkey, tt.wantHandle, tt.wantRKey)
			}
		})
	}
}

// newAPIServer returns a test server answering getProfile and getPostThread.
func newAPIServer(t *testing.T, threadBody string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/xrpc/app.bsky.actor.getProfile", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("actor") != "alice.test" {
			http.Error(w, `{"error":"InvalidRequest"}`, http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"did":"did:plc:alice","handle":"alice.test","displayName":"Alice"}`)
	})
	mux.HandleFunc("/xrpc/app.bsky.feed.getPostThread", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("uri") != "at://did:plc:alice/app.bsky.feed.post/abc123" {
			http.Error(w, `{"error":"NotFound"}`, http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, threadBody)
	})

	return httptest.NewServer(mux)
}

const videoThread = `{
  "thread": {
    "$type": "app.bsky.feed.defs#threadViewPost",
    "post": {
      "uri": "at://did:plc:alice/app.bsky.feed.post/abc123",
      "cid": "bafyrei",
      "author": {"did": "did:plc:alice", "handle": "alice.test", "displayName": "Alice"},
      "record": {"text": "check out this video", "createdAt": "2024-05-01T12:00:00Z"},
      "embed": {
        "$type": "app.bsky.embed.video#view",
        "playlist": "https://video.bsky.app/hls/did:plc:alice/abc/playlist.m3u8",
        "thumbnail": "https://video.bsky.app/hls/did:plc:alice/abc/thumb.jpg",
        "alt": "a cat"
      },
      "replyCount": 1,
      "repostCount": 2,
      "likeCount": 3
    }
  }
}`

func TestResolve_VideoPost(t *testing.T) {
	srv := newAPIServer(t, videoThread)
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	post, err := client.Resolve(context.Background(), "https://bsky.app/profile/alice.test/post/abc123")
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	if post.ID != "abc123" {
		t.Errorf("ID = %q, want abc123", post.ID)
	}
	if post.Author.Handle != "alice.test" || post.Author.DisplayName != "Alice" {
		t.Errorf("unexpected author: %+v", post.Author)
	}
	if post.Text != "check out this video" {
		t.Errorf("Text = %q", post.Text)
	}
	if !post.HasVideo() {
		t.Fatal("expected a video embed")
	}
	if post.Embed.Video.PlaylistURL != "https://video.bsky.app/hls/did:plc:alice/abc/playlist.m3u8" {
		t.Errorf("PlaylistURL = %q", post.Embed.Video.PlaylistURL)
	}
	if post.Embed.Video.AltText != "a cat" {
		t.Errorf("AltText = %q", post.Embed.Video.AltText)
	}
	if post.Metrics.Likes != 3 {
		t.Errorf("Likes = %d, want 3", post.Metrics.Likes)
	}
	if post.CreatedAt.IsZero() {
		t.Error("CreatedAt should be parsed")
	}
}

func TestResolve_TextOnlyPost(t *testing.T) {
	thread := `{
	  "thread": {
	    "$type": "app.bsky.feed.defs#threadViewPost",
	    "post": {
	      "uri": "at://did:plc:alice/app.bsky.feed.post/abc123",
	      "author": {"did": "did:plc:alice", "handle": "alice.test"},
	      "record": {"text": "just words", "createdAt": "2024-05-01T12:00:00Z"}
	    }
	  }
	}`

	srv := newAPIServer(t, thread)
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	post, err := client.Resolve(context.Background(), "https://bsky.app/profile/alice.test/post/abc123")
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	if post.HasVideo() {
		t.Error("text post should not have a video")
	}
	if post.Embed.Kind != domain.EmbedNone {
		t.Errorf("Embed.Kind = %s, want none", post.Embed.Kind)
	}
}

func TestResolve_NotAPost(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:0"))

	_, err := client.Resolve(context.Background(), "https://example.com/something")
	if !errors.Is(err, domain.ErrNotAPost) {
		t.Errorf("error = %v, want ErrNotAPost", err)
	}
}

func TestResolve_NotFoundThread(t *testing.T) {
	thread := `{"thread": {"$type": "app.bsky.feed.defs#notFoundPost", "uri": "at://x", "notFound": true}}`

	srv := newAPIServer(t, thread)
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Resolve(context.Background(), "https://bsky.app/profile/alice.test/post/abc123")
	if !errors.Is(err, domain.ErrPostUnavailable) {
		t.Errorf("error = %v, want ErrPostUnavailable", err)
	}
}

func TestResolve_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"InternalServerError"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Resolve(context.Background(), "https://bsky.app/profile/alice.test/post/abc123")
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, domain.ErrNotAPost) {
		t.Error("upstream failure must not be classified as NotAPost")
	}
}

func TestParseEmbed_Variants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.EmbedKind
	}{
		{
			name: "video by type discriminator only",
			raw:  `{"$type": "app.bsky.embed.video#view", "alt": "clip"}`,
			want: domain.EmbedVideo,
		},
		{
			name: "images",
			raw:  `{"$type": "app.bsky.embed.images#view", "images": [{"thumb": "t", "fullsize": "f", "alt": "pic"}]}`,
			want: domain.EmbedImages,
		},
		{
			name: "external link card",
			raw:  `{"$type": "app.bsky.embed.external#view", "external": {"uri": "https://example.com", "title": "Example"}}`,
			want: domain.EmbedExternal,
		},
		{
			name: "empty",
			raw:  ``,
			want: domain.EmbedNone,
		},
		{
			name: "malformed",
			raw:  `{not json`,
			want: domain.EmbedNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embed := parseEmbed([]byte(tt.raw))
			if embed.Kind != tt.want {
				t.Errorf("Kind = %s, want %s", embed.Kind, tt.want)
			}
		})
	}
}
