package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/docsearch/internal/backend"
	"github.com/DeafMist/docsearch/internal/models"
	"github.com/DeafMist/docsearch/internal/workflow"
)

// scriptedStatus replays statuses in order and repeats the last one.
type scriptedStatus struct {
	mu       sync.Mutex
	statuses []models.TaskStatus
	err      error
	calls    int
}

func (s *scriptedStatus) GetTaskStatus(_ context.Context, taskID string) (*models.TaskResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	idx := s.calls - 1
	if idx >= len(s.statuses) {
		idx = len(s.statuses) - 1
	}
	res := &models.TaskResult{TaskID: taskID, Status: s.statuses[idx]}
	if res.Status == models.TaskSuccess {
		res.Result = &models.DocumentResult{DocumentType: "Invoice (80.0%)"}
	}
	return res, nil
}

func (s *scriptedStatus) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func fastPoll() workflow.PollOptions {
	return workflow.PollOptions{Interval: time.Millisecond, MaxInterval: 4 * time.Millisecond, Multiplier: 2, Timeout: 5 * time.Second}
}

func TestWaitForTaskPollsUntilTerminal(t *testing.T) {
	getter := &scriptedStatus{statuses: []models.TaskStatus{models.TaskPending, models.TaskPending, models.TaskSuccess}}

	res, err := workflow.WaitForTask(context.Background(), getter, "t1", fastPoll())
	require.NoError(t, err)
	require.Equal(t, models.TaskSuccess, res.Status)
	require.Equal(t, "t1", res.TaskID)
	require.Equal(t, 3, getter.Calls())
}

func TestWaitForTaskReturnsFailureStatus(t *testing.T) {
	getter := &scriptedStatus{statuses: []models.TaskStatus{models.TaskPending, models.TaskFailure}}

	res, err := workflow.WaitForTask(context.Background(), getter, "t1", fastPoll())
	require.NoError(t, err)
	require.Equal(t, models.TaskFailure, res.Status)
}

func TestWaitForTaskLimits(t *testing.T) {
	t.Run("max attempts", func(t *testing.T) {
		getter := &scriptedStatus{statuses: []models.TaskStatus{models.TaskPending}}
		opts := fastPoll()
		opts.MaxAttempts = 4

		_, err := workflow.WaitForTask(context.Background(), getter, "t1", opts)
		require.ErrorIs(t, err, workflow.ErrPollExhausted)
		require.Equal(t, 4, getter.Calls())
	})

	t.Run("timeout", func(t *testing.T) {
		getter := &scriptedStatus{statuses: []models.TaskStatus{models.TaskPending}}
		opts := fastPoll()
		opts.Timeout = 20 * time.Millisecond

		_, err := workflow.WaitForTask(context.Background(), getter, "t1", opts)
		require.ErrorIs(t, err, workflow.ErrPollTimeout)
	})

	t.Run("caller cancellation is not a timeout", func(t *testing.T) {
		getter := &scriptedStatus{statuses: []models.TaskStatus{models.TaskPending}}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := workflow.WaitForTask(ctx, getter, "t1", fastPoll())
		require.ErrorIs(t, err, context.Canceled)
		require.NotErrorIs(t, err, workflow.ErrPollTimeout)
	})
}

func TestWaitForTaskBackendError(t *testing.T) {
	boom := errors.New("boom")
	getter := &scriptedStatus{err: boom}

	_, err := workflow.WaitForTask(context.Background(), getter, "t1", fastPoll())
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, getter.Calls())

	_, err = workflow.WaitForTask(context.Background(), backend.NewMock(backend.WithLatency(backend.Latency{})), "other", fastPoll())
	require.ErrorIs(t, err, backend.ErrTaskNotFound)
}

func TestWaitForTaskRejectsUnknownStatus(t *testing.T) {
	getter := &scriptedStatus{statuses: []models.TaskStatus{"RETRY"}}

	_, err := workflow.WaitForTask(context.Background(), getter, "t1", fastPoll())
	require.ErrorIs(t, err, backend.ErrMalformedResponse)
}
