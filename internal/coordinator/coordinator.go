package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iconidentify/skyfurl/internal/domain"
	"github.com/iconidentify/skyfurl/internal/unfurl"
)

// ErrShutdownTimeout is returned when in-flight jobs don't finish within timeout.
var ErrShutdownTimeout = errors.New("coordinator shutdown timed out")

const failedMessage = "⚠️ *Video processing failed.* View the original post to watch the video."

// PostResolver resolves a URL to a post snapshot.
type PostResolver interface {
	Resolve(ctx context.Context, url string) (*domain.Post, error)
}

// Transcoder produces a playable asset from an adaptive-streaming playlist.
type Transcoder interface {
	Transcode(ctx context.Context, playlistURL string) (*domain.VideoAsset, error)
}

// UnfurlSender delivers preview payloads for URLs within a message.
type UnfurlSender interface {
	Unfurl(ctx context.Context, channel, messageTS string, unfurls map[string]*domain.UnfurlPayload) error
}

// Coordinator orchestrates the two-phase unfurl per link event: emit the
// immediate preview synchronously, then correct video previews from a
// background transcode job targeting the same message.
type Coordinator struct {
	resolver   PostResolver
	builder    *unfurl.Builder
	transcoder Transcoder
	sender     UnfurlSender
	logger     *slog.Logger

	wg sync.WaitGroup
}

// New creates a coordinator.
func New(
	resolver PostResolver,
	builder *unfurl.Builder,
	transcoder Transcoder,
	sender UnfurlSender,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		resolver:   resolver,
		builder:    builder,
		transcoder: transcoder,
		sender:     sender,
		logger:     logger,
	}
}

// HandleLinkEvent processes one inbound link event. Each link is handled
// independently: a bad link never blocks unfurling of its siblings. The
// immediate previews are delivered before any background job starts.
func (c *Coordinator) HandleLinkEvent(ctx context.Context, event domain.LinkEvent) {
	unfurls := make(map[string]*domain.UnfurlPayload)
	var jobs []*domain.TranscodeJob

	for _, url := range event.Links {
		post, err := c.resolver.Resolve(ctx, url)
		if err != nil {
			if errors.Is(err, domain.ErrNotAPost) {
				// Not a candidate link, skip silently.
				continue
			}
			c.logger.Warn("post not accessible", "url", url, "error", err)
			unfurls[url] = c.builder.BuildUnavailable()
			continue
		}

		unfurls[url] = c.builder.BuildImmediate(post)

		if post.HasVideo() {
			job := domain.NewTranscodeJob(
				domain.JobID(uuid.New().String()),
				post.Embed.Video.PlaylistURL,
				event.Ref(url),
			)
			jobs = append(jobs, job)
		}
	}

	if len(unfurls) == 0 {
		return
	}

	if err := c.sender.Unfurl(ctx, event.Channel, event.MessageTS, unfurls); err != nil {
		// Delivery failure is logged, never retried. The background jobs
		// still run; their update may land even when the immediate one
		// did not.
		c.logger.Error("failed to deliver immediate unfurl",
			"channel", event.Channel,
			"message_ts", event.MessageTS,
			"error", err,
		)
	}

	// Spawned only after the immediate delivery call returns, so the first
	// preview is always observable before a correction. Jobs for different
	// URLs run fully in parallel; a repeated URL simply gets a second,
	// redundant job and the last update wins.
	for _, job := range jobs {
		c.wg.Add(1)
		go c.runJob(context.WithoutCancel(ctx), job)
	}
}

// runJob runs one transcode job to completion and pushes the corrected
// preview to the original message. Once started a job is never cancelled;
// the transcode's own timeouts bound its lifetime.
func (c *Coordinator) runJob(ctx context.Context, job *domain.TranscodeJob) {
	defer c.wg.Done()

	logger := c.logger.With("job_id", job.ID, "url", job.Target.URL)
	job.MarkRunning()
	logger.Info("transcode job started")

	asset, transcodeErr := c.transcoder.Transcode(ctx, job.SourceURL)

	// Re-resolve rather than reuse the immediate snapshot, so the corrected
	// preview reflects the post as it is now.
	post, err := c.resolver.Resolve(ctx, job.Target.URL)
	if err != nil {
		job.MarkFailed(err.Error())
		logger.Error("failed to re-resolve post for final unfurl", "error", err)
		return
	}

	var payload *domain.UnfurlPayload
	if transcodeErr != nil {
		job.MarkFailed(transcodeErr.Error())
		logger.Error("transcode failed", "error", transcodeErr)
		payload = c.builder.BuildFailed(post, failedMessage)
	} else {
		job.MarkSucceeded()
		logger.Info("transcode succeeded", "asset_id", asset.ID)
		payload = c.builder.BuildFinal(post, asset)
	}

	update := map[string]*domain.UnfurlPayload{job.Target.URL: payload}
	if err := c.sender.Unfurl(ctx, job.Target.Channel, job.Target.MessageTS, update); err != nil {
		logger.Error("failed to deliver final unfurl", "error", err)
	}
}

// Wait blocks until all in-flight jobs finish, or returns ErrShutdownTimeout.
func (c *Coordinator) Wait(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}
