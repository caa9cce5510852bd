package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fabworks/tenantforge/internal/log"
)

// API is the platform job scheduler surface the poller drives. Implemented
// by the platform client; faked in tests.
type API interface {
	// SubmitItemJob starts a workload against an item and returns the
	// accepted-job handle, or ErrSubmissionRejected when the platform does
	// not accept the start.
	SubmitItemJob(ctx context.Context, workspaceID, itemID string, kind Kind, payload any) (Submission, error)

	// GetJobInstance re-reads the current state of a job instance.
	GetJobInstance(ctx context.Context, workspaceID, itemID, jobInstanceID string) (Job, error)
}

// Poller runs workloads to a terminal state: submit, then re-read status
// once per interval until the platform reports a terminal status. Failed and
// Cancelled are reported outcomes on the returned Job, not errors; the
// caller decides whether to abort the surrounding workflow.
type Poller struct {
	api      API
	interval time.Duration
	maxWait  time.Duration
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// New creates a poller. interval is the delay between status reads when the
// platform gives no retry-after hint. maxWait bounds the total poll time;
// zero means poll until terminal or context cancellation.
func New(api API, interval, maxWait time.Duration) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Poller{
		api:      api,
		interval: interval,
		maxWait:  maxWait,
		logger:   log.WithComponent("jobs"),
		sleep:    sleepContext,
	}
}

// Run submits the workload and blocks until the job reaches a terminal
// state. See PollUntilTerminal for the terminal semantics.
func (p *Poller) Run(ctx context.Context, workspaceID, itemID string, kind Kind, payload any) (Job, error) {
	submission, err := p.api.SubmitItemJob(ctx, workspaceID, itemID, kind, payload)
	if err != nil {
		return Job{}, fmt.Errorf("submit %s job for item %q: %w", kind, itemID, err)
	}

	p.logger.Info("job submitted",
		"workspace_id", workspaceID,
		"item_id", itemID,
		"kind", string(kind),
		"job_instance_id", submission.JobInstanceID,
	)

	return p.PollUntilTerminal(ctx, workspaceID, itemID, submission.JobInstanceID, submission.RetryAfter)
}

// PollUntilTerminal blocks until the job instance reaches a terminal state,
// sleeping between status reads. retryAfter overrides the configured
// interval when positive (the platform's own pacing hint). Cancellation is
// honored between iterations; an expired maxWait yields ErrPollTimeout.
func (p *Poller) PollUntilTerminal(ctx context.Context, workspaceID, itemID, jobInstanceID string, retryAfter time.Duration) (Job, error) {
	interval := p.interval
	if retryAfter > 0 {
		interval = retryAfter
	}

	var deadline time.Time
	if p.maxWait > 0 {
		deadline = time.Now().Add(p.maxWait)
	}

	jobLogger := p.logger.With("job_instance_id", jobInstanceID, "item_id", itemID)

	for {
		if err := p.sleep(ctx, interval); err != nil {
			return Job{}, err
		}

		job, err := p.api.GetJobInstance(ctx, workspaceID, itemID, jobInstanceID)
		if err != nil {
			return Job{}, fmt.Errorf("read status of job instance %q: %w", jobInstanceID, err)
		}

		if job.Status.Terminal() {
			switch job.Status {
			case StatusCompleted:
				jobLogger.Info("job completed")
			case StatusDeduped:
				jobLogger.Info("job deduped, equivalent run already satisfied the request")
			case StatusCancelled:
				jobLogger.Warn("job cancelled")
			case StatusFailed:
				jobLogger.Error("job failed", "reason", job.FailureReason)
			}
			return job, nil
		}

		jobLogger.Debug("job still running", "status", string(job.Status))

		if !deadline.IsZero() && time.Now().After(deadline) {
			return job, fmt.Errorf("job instance %q after %s: %w", jobInstanceID, p.maxWait, ErrPollTimeout)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
