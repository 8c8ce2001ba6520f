package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DeafMist/docsearch/internal/backend"
	"github.com/DeafMist/docsearch/internal/config"
	"github.com/DeafMist/docsearch/internal/docs"
	"github.com/DeafMist/docsearch/internal/elasticsearch"
	"github.com/DeafMist/docsearch/internal/logger"
	"github.com/DeafMist/docsearch/internal/queue"
)

func main() {
	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var (
		client backend.Client
		checks map[string]healthCheck
	)
	if cfg.Mock {
		fixtures := backend.DefaultFixtures()
		if cfg.MockFixtures != "" {
			fixtures, err = backend.LoadFixtures(cfg.MockFixtures)
			if err != nil {
				log.Error("load mock fixtures", slog.Any("err", err))
				os.Exit(1)
			}
		}
		client = backend.NewMock(backend.WithFixtures(fixtures))
		log.Info("serving mock backend", slog.String("task_id", fixtures.TaskID))
	} else {
		esClient, err := elasticsearch.Connect(ctx, cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, cfg.ElasticsearchTaskIndex, log, elasticsearch.DefaultConnectOptions())
		if err != nil {
			log.Error("init elasticsearch", slog.Any("err", err))
			os.Exit(1)
		}
		if err := esClient.EnsureIndices(ctx); err != nil {
			log.Error("ensure indices", slog.Any("err", err))
			os.Exit(1)
		}

		publisher := queue.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()

		client = docs.NewService(esClient, esClient, publisher, docs.Options{
			UploadDir:      cfg.UploadDir,
			MaxUploadBytes: cfg.MaxUploadBytes,
			SearchSize:     cfg.SearchSize,
			MaxSearchSize:  cfg.MaxSearchSize,
		}, log)
		checks = map[string]healthCheck{
			"elasticsearch": esClient.Health,
			"kafka": func(ctx context.Context) error {
				return queue.Ping(ctx, cfg.KafkaBrokers)
			},
		}
	}

	srv := &server{log: log, cfg: cfg, docs: client, checks: checks}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr), slog.Bool("mock", cfg.Mock))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}
