package config_test

import (
	"testing"
	"time"

	"github.com/DeafMist/docsearch/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadWorkerDefaults(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDR", "")
	t.Setenv("ELASTICSEARCH_INDEX", "")
	t.Setenv("ELASTICSEARCH_TASK_INDEX", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_TOPIC", "")
	t.Setenv("KAFKA_CONSUMER_GROUP", "")
	t.Setenv("UPLOAD_DIR", "")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, "http://elasticsearch:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "documents", cfg.ElasticsearchIndex)
	require.Equal(t, "tasks", cfg.ElasticsearchTaskIndex)
	require.Equal(t, "/tmp/doc_uploads", cfg.UploadDir)
	require.Len(t, cfg.KafkaBrokers, 1)
	require.Equal(t, "kafka:9092", cfg.KafkaBrokers[0])
	require.Equal(t, "documents_raw", cfg.KafkaTopic)
	require.Equal(t, "document-worker", cfg.KafkaConsumer)
	require.Equal(t, 30, cfg.SummaryWords)
}

func TestLoadWorkerOverrides(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDR", "http://localhost:9999")
	t.Setenv("ELASTICSEARCH_INDEX", "custom")
	t.Setenv("KAFKA_BROKERS", "broker-a:29092,broker-b:29093")
	t.Setenv("KAFKA_TOPIC", "custom_topic")
	t.Setenv("KAFKA_CONSUMER_GROUP", "custom-group")
	t.Setenv("WORKER_KEYWORD_LIMIT", "12")
	t.Setenv("WORKER_KEYWORD_MIN_LEN", "5")
	t.Setenv("WORKER_SUMMARY_WORDS", "12")
	t.Setenv("WORKER_DEDUPE_CAPACITY", "5")
	t.Setenv("WORKER_DEDUPE_TTL", "48h")
	t.Setenv("WORKER_BATCH_SIZE", "3")
	t.Setenv("WORKER_COMMIT_INTERVAL", "5s")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:9999", cfg.ElasticsearchAddr)
	require.Equal(t, "custom", cfg.ElasticsearchIndex)
	require.Len(t, cfg.KafkaBrokers, 2)
	require.Equal(t, "broker-a:29092", cfg.KafkaBrokers[0])
	require.Equal(t, "custom_topic", cfg.KafkaTopic)
	require.Equal(t, "custom-group", cfg.KafkaConsumer)
	require.Equal(t, 12, cfg.KeywordLimit)
	require.Equal(t, 5, cfg.KeywordMinLength)
	require.Equal(t, 12, cfg.SummaryWords)
	require.Equal(t, 5, cfg.DedupeCapacity)
	require.Equal(t, 48*time.Hour, cfg.DedupeTTL)
	require.Equal(t, 3, cfg.BatchSize)
	require.Equal(t, 5*time.Second, cfg.CommitInterval)
}

func TestLoadWorkerRejectsBadBatch(t *testing.T) {
	t.Setenv("WORKER_BATCH_SIZE", "0")

	_, err := config.LoadWorker()
	require.ErrorContains(t, err, "WORKER_BATCH_SIZE")
}

func TestLoadAPI(t *testing.T) {
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("API_SEARCH_SIZE", "15")
	t.Setenv("API_MAX_SEARCH_SIZE", "200")
	t.Setenv("API_MAX_UPLOAD_BYTES", "1024")
	t.Setenv("API_MOCK", "true")
	t.Setenv("API_MOCK_FIXTURES", "/etc/docsearch/fixtures.yaml")
	t.Setenv("ELASTICSEARCH_ADDR", "http://api-es:9200")
	t.Setenv("ELASTICSEARCH_INDEX", "api-index")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, 15, cfg.SearchSize)
	require.Equal(t, 200, cfg.MaxSearchSize)
	require.Equal(t, int64(1024), cfg.MaxUploadBytes)
	require.True(t, cfg.Mock)
	require.Equal(t, "/etc/docsearch/fixtures.yaml", cfg.MockFixtures)
	require.Equal(t, "http://api-es:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "api-index", cfg.ElasticsearchIndex)
}

func TestLoadAPISearchSizeBounds(t *testing.T) {
	t.Setenv("API_SEARCH_SIZE", "60")
	t.Setenv("API_MAX_SEARCH_SIZE", "50")

	_, err := config.LoadAPI()
	require.ErrorContains(t, err, "API_SEARCH_SIZE cannot exceed")
}

func TestLoadRetention(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDR", "http://ret-es:9200")
	t.Setenv("ELASTICSEARCH_INDEX", "ret-index")
	t.Setenv("RETENTION_CRON", "12h")
	t.Setenv("RETENTION_MAX_AGE", "36h")
	t.Setenv("RETENTION_UPLOAD_MAX_AGE", "90m")
	t.Setenv("RETENTION_BATCH_SIZE", "123")

	cfg, err := config.LoadRetention()
	require.NoError(t, err)

	require.Equal(t, 12*time.Hour, cfg.Interval)
	require.Equal(t, 36*time.Hour, cfg.MaxAge)
	require.Equal(t, 90*time.Minute, cfg.UploadMaxAge)
	require.Equal(t, 123, cfg.BatchSize)
	require.Equal(t, "http://ret-es:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "ret-index", cfg.ElasticsearchIndex)
}

func TestLoadClient(t *testing.T) {
	t.Setenv("DOCS_API_URL", "http://docs:8080")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("POLL_MAX_INTERVAL", "2s")
	t.Setenv("POLL_TIMEOUT", "30s")
	t.Setenv("POLL_MAX_ATTEMPTS", "40")

	cfg, err := config.LoadClient()
	require.NoError(t, err)
	require.Equal(t, "http://docs:8080", cfg.APIURL)
	require.Equal(t, "search.html", cfg.ResultsPage)
	require.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	require.Equal(t, 2*time.Second, cfg.PollMaxInterval)
	require.Equal(t, 30*time.Second, cfg.PollTimeout)
	require.Equal(t, 40, cfg.PollMaxAttempts)
}

func TestLoadClientRejectsInvertedIntervals(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "3s")
	t.Setenv("POLL_MAX_INTERVAL", "1s")

	_, err := config.LoadClient()
	require.Error(t, err)
}
