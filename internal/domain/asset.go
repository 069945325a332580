package domain

import (
	"time"
)

// AssetID is the opaque identifier of a transcoded artifact. It is minted at
// job start and doubles as the filesystem and URL key.
type AssetID string

// String returns the string representation of the AssetID.
func (id AssetID) String() string {
	return string(id)
}

// VideoAsset is a transcoded artifact: a single progressively-downloadable
// video file plus an optional thumbnail.
type VideoAsset struct {
	ID            AssetID
	VideoPath     string
	ThumbnailPath string // empty when thumbnail extraction failed
	CreatedAt     time.Time
}

// HasThumbnail returns true if a thumbnail was extracted for this asset.
func (a *VideoAsset) HasThumbnail() bool {
	return a.ThumbnailPath != ""
}
