package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/DeafMist/docsearch/internal/config"
	"github.com/DeafMist/docsearch/internal/elasticsearch"
	"github.com/DeafMist/docsearch/internal/logger"
)

type pruner interface {
	DeleteDocumentsOlderThan(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error)
	DeleteTasksOlderThan(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error)
}

func main() {
	log := logger.New("retention")
	cfg, err := config.LoadRetention()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	esClient, err := elasticsearch.Connect(ctx, cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, cfg.ElasticsearchTaskIndex, log, elasticsearch.DefaultConnectOptions())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("shutdown signal received during startup")
			return
		}
		log.Error("failed to connect to elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("connected to elasticsearch")

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("retention job running",
		slog.Duration("interval", cfg.Interval),
		slog.Duration("max_age", cfg.MaxAge),
		slog.Duration("upload_max_age", cfg.UploadMaxAge),
	)

	// Run immediately on start; failures are retried on the next tick.
	runOnce(ctx, log, esClient, cfg, time.Now())

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case t := <-ticker.C:
			runOnce(ctx, log, esClient, cfg, t)
		}
	}
}

func runOnce(ctx context.Context, log *slog.Logger, store pruner, cfg *config.Retention, now time.Time) {
	subCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	docs, err := store.DeleteDocumentsOlderThan(subCtx, cfg.MaxAge, cfg.BatchSize)
	if err != nil {
		log.Warn("document retention failed (will retry on next interval)", slog.Any("err", err))
	}
	tasks, err := store.DeleteTasksOlderThan(subCtx, cfg.MaxAge, cfg.BatchSize)
	if err != nil {
		log.Warn("task retention failed (will retry on next interval)", slog.Any("err", err))
	}
	files, err := sweepUploads(cfg.UploadDir, cfg.UploadMaxAge, now)
	if err != nil {
		log.Warn("upload sweep failed (will retry on next interval)", slog.Any("err", err))
	}

	if docs+tasks+int64(files) > 0 {
		log.Info("retention run completed",
			slog.Int64("documents", docs),
			slog.Int64("tasks", tasks),
			slog.Int("uploads", files),
		)
	} else {
		log.Debug("retention run completed, nothing to delete")
	}
}

// sweepUploads deletes regular files in dir last modified more than maxAge
// before now. These are uploads whose job never finished.
func sweepUploads(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read upload dir: %w", err)
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	var errs []error
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
