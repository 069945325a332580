package domain

import "errors"

// Domain errors.
var (
	// ErrNotAPost is returned when a URL does not address a supported microblog post.
	ErrNotAPost = errors.New("not a supported post URL")

	// ErrPostUnavailable is returned when a post exists but cannot be fetched
	// (deleted, private, or the upstream service errored).
	ErrPostUnavailable = errors.New("post not accessible")

	// ErrAssetNotFound is returned when a transcoded asset cannot be found.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrInstallationNotFound is returned when no installation exists for a workspace.
	ErrInstallationNotFound = errors.New("installation not found")

	// ErrWorkspaceNotApproved is returned when a workspace is not on the approval list.
	ErrWorkspaceNotApproved = errors.New("workspace not approved for installation")

	// ErrMissingPlaylistURL is returned when a transcode is requested without a source URL.
	ErrMissingPlaylistURL = errors.New("missing playlist URL")
)

// TranscodeError wraps a failed transcode with the encoder's diagnostic output.
type TranscodeError struct {
	Op     string
	Output string
	Err    error
}

func (e *TranscodeError) Error() string {
	if e.Output != "" {
		return e.Op + ": " + e.Err.Error() + ": " + e.Output
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// NewTranscodeError creates a new TranscodeError.
func NewTranscodeError(op, output string, err error) *TranscodeError {
	return &TranscodeError{
		Op:     op,
		Output: output,
		Err:    err,
	}
}
