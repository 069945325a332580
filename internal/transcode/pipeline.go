package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iconidentify/skyfurl/internal/config"
	"github.com/iconidentify/skyfurl/internal/domain"
	"github.com/iconidentify/skyfurl/internal/store"
)

const maxDiagnosticLen = 2048

// Pipeline remuxes adaptive-streaming playlists into single playable files
// using an external ffmpeg process.
type Pipeline struct {
	ffmpegPath string
	assets     *store.AssetStore
	cfg        config.TranscodeConfig
	logger     *slog.Logger
}

// NewPipeline creates a pipeline. It will attempt to find ffmpeg in PATH.
func NewPipeline(cfg config.TranscodeConfig, assets *store.AssetStore, logger *slog.Logger) (*Pipeline, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return newPipeline(ffmpegPath, cfg, assets, logger), nil
}

func newPipeline(ffmpegPath string, cfg config.TranscodeConfig, assets *store.AssetStore, logger *slog.Logger) *Pipeline {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	if cfg.ThumbnailTimeout <= 0 {
		cfg.ThumbnailTimeout = 30 * time.Second
	}
	if cfg.ThumbnailWidth <= 0 {
		cfg.ThumbnailWidth = 640
	}

	return &Pipeline{
		ffmpegPath: ffmpegPath,
		assets:     assets,
		cfg:        cfg,
		logger:     logger,
	}
}

// Transcode remuxes the playlist into a single mp4 plus a thumbnail and
// registers the result with the asset store. The asset id is minted before
// any I/O so a partial failure never leaks output under a reused id. The
// caller must not retry automatically on error.
func (p *Pipeline) Transcode(ctx context.Context, playlistURL string) (*domain.VideoAsset, error) {
	if playlistURL == "" {
		return nil, domain.ErrMissingPlaylistURL
	}

	id := domain.AssetID(uuid.New().String())
	videoPath := p.assets.VideoFile(id)
	thumbnailPath := p.assets.ThumbnailFile(id)

	logger := p.logger.With("asset_id", id)
	logger.Info("transcoding video", "playlist_url", playlistURL)

	// ffmpeg reads the playlist directly. Stream copy avoids re-encoding;
	// faststart moves the moov atom up front for progressive playback.
	if err := p.run(ctx, p.cfg.Timeout, "transcode",
		"-i", playlistURL,
		"-c", "copy",
		"-movflags", "+faststart",
		"-y",
		videoPath,
	); err != nil {
		return nil, err
	}

	// Thumbnail failure is non-fatal; the asset ships without one.
	if err := p.run(ctx, p.cfg.ThumbnailTimeout, "thumbnail",
		"-i", videoPath,
		"-ss", "00:00:01",
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", p.cfg.ThumbnailWidth),
		"-y",
		thumbnailPath,
	); err != nil {
		logger.Warn("thumbnail extraction failed", "error", err)
		thumbnailPath = ""
	}

	asset, err := p.assets.Put(id, videoPath, thumbnailPath)
	if err != nil {
		return nil, fmt.Errorf("register asset: %w", err)
	}

	logger.Info("transcode complete", "has_thumbnail", asset.HasThumbnail())
	return asset, nil
}

// run executes ffmpeg with the given args under a hard wall-clock timeout.
// The process is killed when the deadline passes.
func (p *Pipeline) run(ctx context.Context, timeout time.Duration, op string, args ...string) error {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %s", timeout)
	}
	return domain.NewTranscodeError(op, tail(string(output), maxDiagnosticLen), err)
}

// tail returns the last n bytes of s; ffmpeg puts the useful diagnostic at
// the end of a long log.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// IsAvailable checks if ffmpeg is available on the system.
func IsAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// Version returns the ffmpeg version string.
func Version() (string, error) {
	output, err := exec.Command("ffmpeg", "-version").Output()
	if err != nil {
		return "", err
	}
	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		return strings.TrimSpace(lines[0]), nil
	}
	return "unknown", nil
}
