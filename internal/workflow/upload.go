package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/DeafMist/docsearch/internal/backend"
	"github.com/DeafMist/docsearch/internal/logger"
)

// UploadFailedMessage is shown whenever an upload does not end in a result.
const UploadFailedMessage = "File processing failed. Please try again."

// UploadBackend is what the upload controller needs from the backend.
type UploadBackend interface {
	backend.Uploader
	backend.TaskStatusGetter
}

// UploadRegions are the UI regions owned by the upload controller.
type UploadRegions struct {
	Panels   Panels
	Result   ResultView
	Notifier Notifier
}

// UploadController drives the upload panels through Loading to either Result
// or back to Empty.
type UploadController struct {
	backend UploadBackend
	regions UploadRegions
	poll    PollOptions
	log     *slog.Logger
	busy    atomic.Bool
}

// UploadOption customizes an UploadController.
type UploadOption func(*UploadController)

// WithPollOptions replaces the default poll schedule.
func WithPollOptions(opts PollOptions) UploadOption {
	return func(c *UploadController) { c.poll = opts }
}

// WithUploadLogger sets the controller's logger.
func WithUploadLogger(log *slog.Logger) UploadOption {
	return func(c *UploadController) { c.log = log }
}

// NewUploadController creates a controller that drives regions from b.
func NewUploadController(b UploadBackend, regions UploadRegions, opts ...UploadOption) *UploadController {
	c := &UploadController{
		backend: b,
		regions: regions,
		poll:    DefaultPollOptions(),
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit uploads file, waits for processing and updates the panels. While a
// submission runs, further calls return ErrUploadInFlight and change nothing.
func (c *UploadController) Submit(ctx context.Context, file backend.File) (ResultContent, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return ResultContent{}, ErrUploadInFlight
	}
	defer c.busy.Store(false)

	c.regions.Panels.Show(PanelLoading)

	content, err := c.process(ctx, file)
	if err != nil {
		c.log.Warn("upload failed", slog.String("file", file.Name), slog.Any("err", err))
		c.regions.Panels.Show(PanelEmpty)
		c.regions.Notifier.Notify(UploadFailedMessage)
		return ResultContent{}, err
	}

	c.regions.Result.SetResult(content)
	c.regions.Panels.Show(PanelResult)
	c.log.Info("upload processed",
		slog.String("file", file.Name),
		slog.String("document_type", content.DocumentType),
	)
	return content, nil
}

// Busy reports whether a submission is running.
func (c *UploadController) Busy() bool {
	return c.busy.Load()
}

func (c *UploadController) process(ctx context.Context, file backend.File) (ResultContent, error) {
	task, err := c.backend.UploadFile(ctx, file)
	if err != nil {
		return ResultContent{}, fmt.Errorf("upload %s: %w", file.Name, err)
	}
	if task.TaskID == "" {
		return ResultContent{}, ErrMissingTaskID
	}
	c.log.Debug("upload accepted", slog.String("task_id", task.TaskID))

	res, err := WaitForTask(ctx, c.backend, task.TaskID, c.poll)
	if err != nil {
		return ResultContent{}, fmt.Errorf("wait for task %s: %w", task.TaskID, err)
	}
	return BuildResultContent(res)
}
