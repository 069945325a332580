package domain

import (
	"time"
)

// JobID is a unique identifier for a transcode job.
type JobID string

// String returns the string representation of the JobID.
func (id JobID) String() string {
	return string(id)
}

// JobStatus represents the current state of a transcode job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// MessageRef addresses the chat message an update must be routed to. URL is
// the original link URL, which selects the unfurl slot within the message.
type MessageRef struct {
	Channel   string
	MessageTS string
	URL       string
}

// TranscodeJob is one unit of background work. Jobs live in memory only;
// a process restart loses anything in flight.
type TranscodeJob struct {
	ID        JobID
	SourceURL string
	Target    MessageRef
	Status    JobStatus
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTranscodeJob creates a pending job for the given playlist and target message.
func NewTranscodeJob(id JobID, sourceURL string, target MessageRef) *TranscodeJob {
	now := time.Now()
	return &TranscodeJob{
		ID:        id,
		SourceURL: sourceURL,
		Target:    target,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkRunning updates the job status to running.
func (j *TranscodeJob) MarkRunning() {
	j.Status = JobStatusRunning
	j.UpdatedAt = time.Now()
}

// MarkSucceeded updates the job status to succeeded. Terminal.
func (j *TranscodeJob) MarkSucceeded() {
	j.Status = JobStatusSucceeded
	j.UpdatedAt = time.Now()
}

// MarkFailed updates the job status to failed with an error message. Terminal.
func (j *TranscodeJob) MarkFailed(err string) {
	j.Status = JobStatusFailed
	j.LastError = err
	j.UpdatedAt = time.Now()
}

// Terminal returns true once the job has reached a final state.
func (j *TranscodeJob) Terminal() bool {
	return j.Status == JobStatusSucceeded || j.Status == JobStatusFailed
}
