package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/docsearch/internal/config"
	"github.com/DeafMist/docsearch/internal/dedupe"
	"github.com/DeafMist/docsearch/internal/elasticsearch"
	"github.com/DeafMist/docsearch/internal/models"
	"github.com/DeafMist/docsearch/internal/processing"
	"github.com/DeafMist/docsearch/internal/queue"
)

// Messages stored on failed tasks.
const (
	msgFileMissing = "uploaded file is missing"
	msgNoText      = "no readable text in document"
)

type documentStore interface {
	IndexDocument(ctx context.Context, doc models.Document) error
	PutTask(ctx context.Context, task models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
}

// unprocessable marks a document that will never succeed; the task fails
// but the message is not dead-lettered.
type unprocessable struct{ reason string }

func (u unprocessable) Error() string { return u.reason }

var now = func() time.Time { return time.Now().UTC() }

func processMessage(ctx context.Context, log *slog.Logger, store documentStore, cache *dedupe.Cache, cfg *config.Worker, msg kafka.Message) error {
	job, err := queue.Decode(msg)
	if err != nil {
		return err
	}

	if cache.IsSeen(job.TaskID) {
		log.Debug("duplicate job", slog.String("task_id", job.TaskID))
		return nil
	}

	task := models.Task{
		ID:          job.TaskID,
		Filename:    job.Filename,
		ContentType: job.ContentType,
		Size:        job.Size,
		CreatedAt:   job.UploadedAt,
	}
	existing, err := store.GetTask(ctx, job.TaskID)
	switch {
	case err == nil && existing.Status.IsTerminal():
		cache.MarkSeen(job.TaskID)
		log.Debug("task already finished", slog.String("task_id", job.TaskID), slog.String("status", string(existing.Status)))
		return nil
	case err == nil:
		task = *existing
	case !errors.Is(err, elasticsearch.ErrNotFound):
		return fmt.Errorf("load task %s: %w", job.TaskID, err)
	}

	result, err := analyzeJob(ctx, store, cfg, job)
	task.UpdatedAt = now()

	var bad unprocessable
	switch {
	case errors.As(err, &bad):
		task.Status = models.TaskFailure
		task.Message = bad.reason
	case err != nil:
		// The task stays PENDING and the upload stays on disk so a redelivered
		// or replayed message can still finish it.
		return err
	default:
		task.Status = models.TaskSuccess
		task.Result = result
	}

	if err := store.PutTask(ctx, task); err != nil {
		return fmt.Errorf("record task %s: %w", job.TaskID, err)
	}
	removeUpload(log, job.Path)
	cache.MarkSeen(job.TaskID)

	log.Info("task finished",
		slog.String("task_id", job.TaskID),
		slog.String("status", string(task.Status)),
		slog.String("filename", job.Filename),
	)
	return nil
}

func analyzeJob(ctx context.Context, store documentStore, cfg *config.Worker, job queue.Job) (*models.DocumentResult, error) {
	data, err := os.ReadFile(job.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, unprocessable{reason: msgFileMissing}
		}
		return nil, fmt.Errorf("read upload: %w", err)
	}

	text := processing.ExtractText(data, job.ContentType, job.Filename)
	if text == "" {
		return nil, unprocessable{reason: msgNoText}
	}

	a := processing.Analyze(text, processing.AnalyzeOptions{
		SummaryWords:     cfg.SummaryWords,
		KeywordLimit:     cfg.KeywordLimit,
		KeywordMinLength: cfg.KeywordMinLength,
	})

	ts := job.UploadedAt
	if ts.IsZero() {
		ts = now()
	}
	doc := models.Document{
		ID:             processing.BuildDocumentID(job.TaskID, a.MaskedText),
		TaskID:         job.TaskID,
		Filename:       job.Filename,
		ContentType:    job.ContentType,
		DocumentType:   a.Classification.DocumentType,
		Confidence:     a.Classification.Confidence,
		Content:        a.MaskedText,
		Summary:        a.Summary,
		Keywords:       a.Keywords,
		StructuredData: a.Fields,
		PIICount:       len(a.PII),
		Timestamp:      ts,
	}
	if err := store.IndexDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("index document: %w", err)
	}

	fields := a.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return &models.DocumentResult{
		DocumentType:   a.Classification.Label(),
		StructuredData: fields,
		PIIDetected:    a.PIISummary,
	}, nil
}

func removeUpload(log *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("remove upload", slog.String("path", path), slog.Any("err", err))
	}
}
