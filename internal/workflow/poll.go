package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DeafMist/docsearch/internal/backend"
	"github.com/DeafMist/docsearch/internal/models"
)

// PollOptions controls WaitForTask. A zero MaxAttempts or Timeout means no
// limit of that kind.
type PollOptions struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Multiplier  float64
	Timeout     time.Duration
	MaxAttempts int
}

// DefaultPollOptions polls every 500ms, backing off to 5s, for up to two minutes.
func DefaultPollOptions() PollOptions {
	return PollOptions{
		Interval:    500 * time.Millisecond,
		MaxInterval: 5 * time.Second,
		Multiplier:  1.5,
		Timeout:     2 * time.Minute,
	}
}

func (o PollOptions) next(cur time.Duration) time.Duration {
	if o.Multiplier <= 1 {
		return cur
	}
	grown := time.Duration(float64(cur) * o.Multiplier)
	if o.MaxInterval > 0 && grown > o.MaxInterval {
		return o.MaxInterval
	}
	return grown
}

// WaitForTask polls getter until the task reaches a terminal status. Errors
// from the backend end the wait immediately.
func WaitForTask(ctx context.Context, getter backend.TaskStatusGetter, taskID string, opts PollOptions) (*models.TaskResult, error) {
	pollCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollOptions().Interval
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for attempt := 1; ; attempt++ {
		if err := pollCtx.Err(); err != nil {
			return nil, pollError(ctx, pollCtx, err)
		}
		res, err := getter.GetTaskStatus(pollCtx, taskID)
		if err != nil {
			return nil, pollError(ctx, pollCtx, err)
		}
		if res == nil || !res.Status.Valid() {
			return nil, fmt.Errorf("%w: task %s has no valid status", backend.ErrMalformedResponse, taskID)
		}
		if res.Status.IsTerminal() {
			return res, nil
		}
		if opts.MaxAttempts > 0 && attempt >= opts.MaxAttempts {
			return nil, fmt.Errorf("%w: %d attempts", ErrPollExhausted, attempt)
		}

		timer.Reset(interval)
		select {
		case <-pollCtx.Done():
			return nil, pollError(ctx, pollCtx, pollCtx.Err())
		case <-timer.C:
		}
		interval = opts.next(interval)
	}
}

// pollError reports our own deadline as ErrPollTimeout and passes everything
// else through, including cancellation of the caller's context.
func pollError(parent, pollCtx context.Context, err error) error {
	if parent.Err() == nil && errors.Is(pollCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrPollTimeout, err)
	}
	return err
}
