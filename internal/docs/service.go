// Package docs implements the document backend on top of Elasticsearch and
// the Kafka job queue.
package docs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DeafMist/docsearch/internal/backend"
	"github.com/DeafMist/docsearch/internal/elasticsearch"
	"github.com/DeafMist/docsearch/internal/models"
	"github.com/DeafMist/docsearch/internal/processing"
	"github.com/DeafMist/docsearch/internal/queue"
)

// EnqueueFailedMessage is recorded on tasks whose job never reached the queue.
const EnqueueFailedMessage = "could not queue file for processing"

type taskStore interface {
	PutTask(ctx context.Context, task models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
}

type searchIndex interface {
	HybridSearch(ctx context.Context, query string, size int) (*models.SearchResultSet, error)
}

type jobPublisher interface {
	Publish(ctx context.Context, job queue.Job) error
}

// Options bounds what the service accepts.
type Options struct {
	UploadDir      string
	MaxUploadBytes int64
	SearchSize     int
	MaxSearchSize  int
}

var _ backend.Client = (*Service)(nil)

// Service stores uploads, tracks their tasks and answers searches.
type Service struct {
	tasks  taskStore
	search searchIndex
	jobs   jobPublisher
	opts   Options
	log    *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewService constructs the document service over the given stores.
func NewService(tasks taskStore, search searchIndex, jobs jobPublisher, opts Options, log *slog.Logger) *Service {
	return &Service{
		tasks:  tasks,
		search: search,
		jobs:   jobs,
		opts:   opts,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// UploadFile saves the file, records a PENDING task and queues it for the
// worker. When queueing fails the file is removed and the task marked FAILURE.
func (s *Service) UploadFile(ctx context.Context, file backend.File) (models.UploadTask, error) {
	if file.Content == nil {
		return models.UploadTask{}, backend.ErrEmptyFile
	}
	name := filepath.Base(strings.TrimSpace(file.Name))
	ext, detected, ok := processing.DetectType(name)
	if !ok {
		return models.UploadTask{}, fmt.Errorf("%w: %q", backend.ErrUnsupportedType, ext)
	}
	if s.opts.MaxUploadBytes > 0 && file.Size > s.opts.MaxUploadBytes {
		return models.UploadTask{}, backend.ErrFileTooLarge
	}
	contentType := file.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = detected
	}

	id := s.newID()
	path := filepath.Join(s.opts.UploadDir, id+ext)
	size, err := s.save(path, file.Content)
	if err != nil {
		return models.UploadTask{}, err
	}

	now := s.now()
	task := models.Task{
		ID:          id,
		Status:      models.TaskPending,
		Filename:    name,
		ContentType: contentType,
		Size:        size,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.PutTask(ctx, task); err != nil {
		s.remove(path)
		return models.UploadTask{}, fmt.Errorf("record task: %w", err)
	}

	job := queue.Job{
		TaskID:      id,
		Path:        path,
		Filename:    name,
		ContentType: contentType,
		Size:        size,
		UploadedAt:  now,
	}
	if err := s.jobs.Publish(ctx, job); err != nil {
		s.remove(path)
		task.Status = models.TaskFailure
		task.Message = EnqueueFailedMessage
		task.UpdatedAt = s.now()
		if perr := s.tasks.PutTask(context.WithoutCancel(ctx), task); perr != nil {
			s.log.Error("mark task failed", slog.String("task_id", id), slog.Any("err", perr))
		}
		return models.UploadTask{}, fmt.Errorf("enqueue task %s: %w", id, err)
	}

	s.log.Info("upload queued",
		slog.String("task_id", id),
		slog.String("filename", name),
		slog.Int64("size", size),
	)
	return models.UploadTask{TaskID: id}, nil
}

func (s *Service) save(path string, content io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create upload file: %w", err)
	}

	src := content
	if s.opts.MaxUploadBytes > 0 {
		src = io.LimitReader(content, s.opts.MaxUploadBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	switch {
	case err != nil:
		s.remove(path)
		return 0, fmt.Errorf("write upload file: %w", err)
	case s.opts.MaxUploadBytes > 0 && n > s.opts.MaxUploadBytes:
		s.remove(path)
		return 0, backend.ErrFileTooLarge
	case n == 0:
		s.remove(path)
		return 0, backend.ErrEmptyFile
	}
	return n, nil
}

func (s *Service) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("remove upload file", slog.String("path", path), slog.Any("err", err))
	}
}

// GetTaskStatus returns the stored state of a task.
func (s *Service) GetTaskStatus(ctx context.Context, taskID string) (*models.TaskResult, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, elasticsearch.ErrNotFound) {
			return nil, backend.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task %s: %w", taskID, err)
	}
	return task.TaskResult(), nil
}

// HybridSearch searches with the default result size.
func (s *Service) HybridSearch(ctx context.Context, query string) (*models.SearchResultSet, error) {
	return s.HybridSearchN(ctx, query, s.opts.SearchSize)
}

// HybridSearchN searches returning at most size hits per list, capped by
// MaxSearchSize. Non-positive sizes use the default.
func (s *Service) HybridSearchN(ctx context.Context, query string, size int) (*models.SearchResultSet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, backend.ErrEmptyQuery
	}
	if size <= 0 {
		size = s.opts.SearchSize
	}
	if s.opts.MaxSearchSize > 0 && size > s.opts.MaxSearchSize {
		size = s.opts.MaxSearchSize
	}

	set, err := s.search.HybridSearch(ctx, query, size)
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}
	return set, nil
}
