package workflow

import (
	"errors"
	"fmt"

	"github.com/DeafMist/docsearch/internal/models"
)

var (
	ErrUploadInFlight = errors.New("an upload is already in progress")
	ErrTaskFailed     = errors.New("task failed")
	ErrMissingResult  = errors.New("task succeeded without a result")
	ErrPollTimeout    = errors.New("timed out waiting for task")
	ErrPollExhausted  = errors.New("task still pending after max attempts")
	ErrMissingTaskID  = errors.New("upload returned no task id")
)

func taskFailed(res *models.TaskResult) error {
	if res.Message != "" {
		return fmt.Errorf("%w: %s: %s", ErrTaskFailed, res.Status, res.Message)
	}
	return fmt.Errorf("%w: %s", ErrTaskFailed, res.Status)
}
