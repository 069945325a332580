package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iconidentify/skyfurl/internal/domain"
)

// AssetStore holds transcoded artifacts on the filesystem, keyed by asset id.
// Paths are deterministic functions of the id, and the disk is the
// authoritative record: lookups stat the canonical path rather than consult
// in-memory state, so assets written before a restart stay servable. Distinct
// ids never contend, which makes concurrent Puts safe without locking.
type AssetStore struct {
	baseDir string
}

// NewAssetStore creates the store, ensuring the base directory exists.
func NewAssetStore(baseDir string) (*AssetStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create asset directory: %w", err)
	}
	return &AssetStore{baseDir: baseDir}, nil
}

// VideoFile returns the canonical on-disk path for an asset's video,
// whether or not it exists yet. The transcode pipeline writes here.
func (s *AssetStore) VideoFile(id domain.AssetID) string {
	return filepath.Join(s.baseDir, id.String()+".mp4")
}

// ThumbnailFile returns the canonical on-disk path for an asset's thumbnail.
func (s *AssetStore) ThumbnailFile(id domain.AssetID) string {
	return filepath.Join(s.baseDir, id.String()+"_thumbnail.jpg")
}

// Put registers a transcoded asset. The video must already exist at its
// canonical path; a missing thumbnail is allowed.
func (s *AssetStore) Put(id domain.AssetID, videoPath, thumbnailPath string) (*domain.VideoAsset, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("stat video %s: %w", id, err)
	}

	if thumbnailPath != "" {
		if _, err := os.Stat(thumbnailPath); err != nil {
			thumbnailPath = ""
		}
	}

	return &domain.VideoAsset{
		ID:            id,
		VideoPath:     videoPath,
		ThumbnailPath: thumbnailPath,
		CreatedAt:     time.Now(),
	}, nil
}

// GetVideoPath returns the path of a stored video, or domain.ErrAssetNotFound.
func (s *AssetStore) GetVideoPath(id domain.AssetID) (string, error) {
	path := s.VideoFile(id)
	if _, err := os.Stat(path); err != nil {
		return "", domain.ErrAssetNotFound
	}
	return path, nil
}

// GetThumbnailPath returns the path of a stored thumbnail, or domain.ErrAssetNotFound.
func (s *AssetStore) GetThumbnailPath(id domain.AssetID) (string, error) {
	path := s.ThumbnailFile(id)
	if _, err := os.Stat(path); err != nil {
		return "", domain.ErrAssetNotFound
	}
	return path, nil
}

// Delete removes an asset's video and thumbnail. Missing files are ignored.
func (s *AssetStore) Delete(id domain.AssetID) error {
	var firstErr error
	for _, path := range []string{s.VideoFile(id), s.ThumbnailFile(id)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
