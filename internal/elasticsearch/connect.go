package elasticsearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// ConnectOptions controls how long Connect keeps retrying.
type ConnectOptions struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultConnectOptions retries ten times, doubling from 2s up to 30s.
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{MaxRetries: 10, InitialDelay: 2 * time.Second, MaxDelay: 30 * time.Second}
}

// Connect creates a client and waits until the cluster answers a ping.
func Connect(ctx context.Context, addr, index, taskIndex string, log *slog.Logger, opts ConnectOptions) (*Client, error) {
	return connect(ctx, log, opts, func() (*Client, error) {
		return newWithConfig(elasticsearch.Config{Addresses: []string{addr}}, index, taskIndex, log)
	})
}

func connect(ctx context.Context, log *slog.Logger, opts ConnectOptions, dial func() (*Client, error)) (*Client, error) {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	delay := opts.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		client, err := dial()
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = client.Ping(pingCtx)
			cancel()
			if err == nil {
				return client, nil
			}
		}
		lastErr = err

		if attempt == opts.MaxRetries {
			break
		}
		log.Warn("elasticsearch not ready, retrying",
			slog.Any("err", err),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", opts.MaxRetries),
			slog.Duration("retry_in", delay),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		delay *= 2
		if opts.MaxDelay > 0 && delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no attempts made")
	}
	return nil, fmt.Errorf("connect to elasticsearch after %d attempts: %w", opts.MaxRetries, lastErr)
}
