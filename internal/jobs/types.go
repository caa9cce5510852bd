package jobs

import (
	"errors"
	"time"
)

// Status is the platform-reported state of one job instance.
type Status string

const (
	StatusNotStarted Status = "NotStarted"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusFailed     Status = "Failed"
	StatusCancelled  Status = "Cancelled"
	StatusDeduped    Status = "Deduped"
)

// Terminal reports whether the status will never change again.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusDeduped:
		return true
	}
	return false
}

// Succeeded reports whether a terminal status counts as success. Deduped
// means the platform decided an equivalent run already satisfies the
// request, so it is success-equivalent.
func (s Status) Succeeded() bool {
	return s == StatusCompleted || s == StatusDeduped
}

// Kind names a workload the platform job scheduler can run against an item.
type Kind string

const (
	KindRunNotebook      Kind = "RunNotebook"
	KindPipeline         Kind = "Pipeline"
	KindTableMaintenance Kind = "TableMaintenance"
)

// Job is a handle to one asynchronous workload execution. Once Status is
// terminal the job is immutable; FailureReason is set only when Status is
// StatusFailed.
type Job struct {
	InstanceID    string
	WorkspaceID   string
	ItemID        string
	Kind          Kind
	Status        Status
	FailureReason string
}

// Submission is the platform's accepted-response handle for a job start:
// the instance to poll plus an optional retry-after hint.
type Submission struct {
	JobInstanceID string
	RetryAfter    time.Duration
}

var (
	// ErrSubmissionRejected means the platform's immediate response to a
	// job start was not an accepted status; the job never ran.
	ErrSubmissionRejected = errors.New("job submission rejected")

	// ErrPollTimeout means the configured maximum wait elapsed before the
	// job reached a terminal state. The job may still be running on the
	// platform.
	ErrPollTimeout = errors.New("job poll timed out")
)
