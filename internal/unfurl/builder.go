package unfurl

import (
	"fmt"

	"github.com/iconidentify/skyfurl/internal/domain"
)

const (
	processingText = "🎬 *Processing video...* ⏳"
	defaultAlt     = "Video from Bluesky post"
)

// Builder renders unfurl payloads from resolved posts. It is stateless: every
// call rebuilds the full block sequence, so later payloads can never carry
// stale fields from an earlier state.
type Builder struct {
	publicBaseURL string
}

// NewBuilder creates a builder. publicBaseURL is the externally reachable
// base of the file-serving endpoints, without a trailing slash.
func NewBuilder(publicBaseURL string) *Builder {
	return &Builder{publicBaseURL: publicBaseURL}
}

// BuildImmediate renders the first-phase preview: author, text, and a
// processing placeholder iff the post carries a video.
func (b *Builder) BuildImmediate(post *domain.Post) *domain.UnfurlPayload {
	if post == nil {
		return nil
	}

	blocks := b.baseBlocks(post)
	if post.HasVideo() {
		blocks = append(blocks, sectionBlock(processingText))
	}

	return &domain.UnfurlPayload{Blocks: blocks}
}

// BuildFinal renders the corrected preview with a playable video block
// referencing the transcoded asset.
func (b *Builder) BuildFinal(post *domain.Post, asset *domain.VideoAsset) *domain.UnfurlPayload {
	if post == nil || asset == nil {
		return nil
	}

	alt := defaultAlt
	if post.HasVideo() && post.Embed.Video.AltText != "" {
		alt = post.Embed.Video.AltText
	}

	blocks := b.baseBlocks(post)
	blocks = append(blocks, b.videoBlock(asset.ID, alt))

	return &domain.UnfurlPayload{Blocks: blocks}
}

// BuildFailed renders the corrected preview for a failed transcode, carrying
// the given user-facing message.
func (b *Builder) BuildFailed(post *domain.Post, message string) *domain.UnfurlPayload {
	if post == nil {
		return nil
	}

	blocks := b.baseBlocks(post)
	blocks = append(blocks, sectionBlock(message))

	return &domain.UnfurlPayload{Blocks: blocks}
}

// BuildUnavailable renders the preview for a post that matched a supported
// URL but could not be fetched.
func (b *Builder) BuildUnavailable() *domain.UnfurlPayload {
	text := "*Post not accessible*\n\nThis post may not be viewable without being logged in or has been deleted."
	return &domain.UnfurlPayload{Blocks: []domain.Block{sectionBlock(text)}}
}

// baseBlocks renders the fixed author/text prefix shared by all states.
func (b *Builder) baseBlocks(post *domain.Post) []domain.Block {
	blocks := []domain.Block{authorBlock(post.Author)}
	if post.Text != "" {
		blocks = append(blocks, sectionBlock(post.Text))
	}
	return blocks
}

func authorBlock(author domain.Author) domain.Block {
	text := fmt.Sprintf("*%s*", author.DisplayLabel())
	if author.Handle != "" {
		text += " @" + author.Handle
	}
	return domain.Block{
		Type:     domain.BlockTypeContext,
		Elements: []domain.TextObject{domain.Mrkdwn(text)},
	}
}

func sectionBlock(text string) domain.Block {
	t := domain.Mrkdwn(text)
	return domain.Block{
		Type: domain.BlockTypeSection,
		Text: &t,
	}
}

func (b *Builder) videoBlock(id domain.AssetID, altText string) domain.Block {
	title := domain.PlainText("Video")
	return domain.Block{
		Type:         domain.BlockTypeVideo,
		VideoURL:     b.PlayerURL(id),
		AltText:      altText,
		Title:        &title,
		ThumbnailURL: b.ThumbnailURL(id),
	}
}

// VideoURL returns the public URL of the transcoded video file.
func (b *Builder) VideoURL(id domain.AssetID) string {
	return fmt.Sprintf("%s/videos/%s.mp4", b.publicBaseURL, id)
}

// ThumbnailURL returns the public URL of the video thumbnail.
func (b *Builder) ThumbnailURL(id domain.AssetID) string {
	return fmt.Sprintf("%s/videos/%s/thumbnail.jpg", b.publicBaseURL, id)
}

// PlayerURL returns the public URL of the embeddable HTML player page. Slack
// loads video blocks in an iframe, so the block points here rather than at
// the raw file.
func (b *Builder) PlayerURL(id domain.AssetID) string {
	return fmt.Sprintf("%s/videos/%s/player", b.publicBaseURL, id)
}
