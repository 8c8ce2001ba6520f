package elasticsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/require"

	"github.com/DeafMist/docsearch/internal/logger"
)

func pingServer(t *testing.T, failures int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		if calls.Add(1) <= failures {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestConnectRetriesUntilPingSucceeds(t *testing.T) {
	srv, calls := pingServer(t, 2)
	opts := ConnectOptions{MaxRetries: 5, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	client, err := connect(context.Background(), logger.Discard(), opts, func() (*Client, error) {
		return newWithConfig(elasticsearch.Config{Addresses: []string{srv.URL}}, "documents", "tasks", nil)
	})
	require.NoError(t, err)
	require.NotNil(t, client)
	require.EqualValues(t, 3, calls.Load())
}

func TestConnectGivesUp(t *testing.T) {
	srv, calls := pingServer(t, 100)
	opts := ConnectOptions{MaxRetries: 3, InitialDelay: time.Millisecond}

	_, err := connect(context.Background(), logger.Discard(), opts, func() (*Client, error) {
		return newWithConfig(elasticsearch.Config{Addresses: []string{srv.URL}}, "documents", "tasks", nil)
	})
	require.ErrorContains(t, err, "after 3 attempts")
	require.EqualValues(t, 3, calls.Load())
}

func TestConnectStopsOnCancel(t *testing.T) {
	srv, _ := pingServer(t, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := connect(ctx, logger.Discard(), ConnectOptions{MaxRetries: 3, InitialDelay: time.Hour}, func() (*Client, error) {
		return newWithConfig(elasticsearch.Config{Addresses: []string{srv.URL}}, "documents", "tasks", nil)
	})
	require.ErrorIs(t, err, context.Canceled)
}
