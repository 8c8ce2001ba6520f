// Package backend defines the three operations the front-end workflows need
// from the document service, plus a fixture backend and an HTTP client.
package backend

import (
	"context"
	"errors"
	"io"

	"github.com/DeafMist/docsearch/internal/models"
)

var (
	ErrEmptyFile         = errors.New("file is empty")
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnsupportedType   = errors.New("unsupported file type")
	ErrTaskNotFound      = errors.New("task not found")
	ErrEmptyQuery        = errors.New("query is empty")
	ErrMalformedResponse = errors.New("malformed response")
	ErrUnavailable       = errors.New("backend unavailable")
)

// File is a handle to user-selected content.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Uploader submits a file and returns the task tracking its processing.
type Uploader interface {
	UploadFile(ctx context.Context, file File) (models.UploadTask, error)
}

// TaskStatusGetter reports the current state of a task.
type TaskStatusGetter interface {
	GetTaskStatus(ctx context.Context, taskID string) (*models.TaskResult, error)
}

// HybridSearcher runs a lexical plus meaning-based search.
type HybridSearcher interface {
	HybridSearch(ctx context.Context, query string) (*models.SearchResultSet, error)
}

// Client is the full backend surface.
type Client interface {
	Uploader
	TaskStatusGetter
	HybridSearcher
}
