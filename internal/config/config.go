package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common contains storage parameters shared by every service.
type Common struct {
	ElasticsearchAddr      string
	ElasticsearchIndex     string
	ElasticsearchTaskIndex string
	UploadDir              string
}

// Kafka describes the upload job topic.
type Kafka struct {
	KafkaBrokers []string
	KafkaTopic   string
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	Kafka
	BindAddr       string
	MaxUploadBytes int64
	SearchSize     int
	MaxSearchSize  int
	Mock           bool
	MockFixtures   string
}

// Worker holds configuration for the Kafka -> pipeline -> Elasticsearch worker.
type Worker struct {
	Common
	Kafka
	KafkaConsumer    string
	KeywordLimit     int
	KeywordMinLength int
	SummaryWords     int
	DedupeCapacity   int
	DedupeTTL        time.Duration
	BatchSize        int
	CommitInterval   time.Duration
}

// Retention configures the cleanup loop.
type Retention struct {
	Common
	Interval     time.Duration
	MaxAge       time.Duration
	UploadMaxAge time.Duration
	BatchSize    int
}

// Client configures the docctl front-end and its task polling.
type Client struct {
	APIURL          string
	ResultsPage     string
	PollInterval    time.Duration
	PollMaxInterval time.Duration
	PollTimeout     time.Duration
	PollMaxAttempts int
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr:      getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex:     getEnv("ELASTICSEARCH_INDEX", "documents"),
		ElasticsearchTaskIndex: getEnv("ELASTICSEARCH_TASK_INDEX", "tasks"),
		UploadDir:              getEnv("UPLOAD_DIR", "/tmp/doc_uploads"),
	}
}

func loadKafka() Kafka {
	return Kafka{
		KafkaBrokers: splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "documents_raw"),
	}
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	c := &Worker{
		Common:           loadCommon(),
		Kafka:            loadKafka(),
		KafkaConsumer:    getEnv("KAFKA_CONSUMER_GROUP", "document-worker"),
		KeywordLimit:     getInt("WORKER_KEYWORD_LIMIT", 8),
		KeywordMinLength: getInt("WORKER_KEYWORD_MIN_LEN", 4),
		SummaryWords:     getInt("WORKER_SUMMARY_WORDS", 30),
		DedupeCapacity:   getInt("WORKER_DEDUPE_CAPACITY", 20000),
		DedupeTTL:        getDuration("WORKER_DEDUPE_TTL", "24h"),
		BatchSize:        getInt("WORKER_BATCH_SIZE", 10),
		CommitInterval:   getDuration("WORKER_COMMIT_INTERVAL", "2s"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("WORKER_BATCH_SIZE must be positive")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}
	if c.KeywordLimit <= 0 {
		return nil, fmt.Errorf("WORKER_KEYWORD_LIMIT must be positive")
	}
	if c.KeywordMinLength < 0 {
		return nil, fmt.Errorf("WORKER_KEYWORD_MIN_LEN cannot be negative")
	}
	if c.SummaryWords <= 0 {
		return nil, fmt.Errorf("WORKER_SUMMARY_WORDS must be positive")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	c := &API{
		Common:         loadCommon(),
		Kafka:          loadKafka(),
		BindAddr:       getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		MaxUploadBytes: int64(getInt("API_MAX_UPLOAD_BYTES", 20<<20)),
		SearchSize:     getInt("API_SEARCH_SIZE", 10),
		MaxSearchSize:  getInt("API_MAX_SEARCH_SIZE", 50),
		Mock:           getBool("API_MOCK", false),
		MockFixtures:   getEnv("API_MOCK_FIXTURES", ""),
	}

	if c.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("API_MAX_UPLOAD_BYTES must be positive")
	}
	if c.SearchSize <= 0 {
		return nil, fmt.Errorf("API_SEARCH_SIZE must be positive")
	}
	if c.MaxSearchSize <= 0 {
		return nil, fmt.Errorf("API_MAX_SEARCH_SIZE must be positive")
	}
	if c.SearchSize > c.MaxSearchSize {
		return nil, fmt.Errorf("API_SEARCH_SIZE cannot exceed API_MAX_SEARCH_SIZE")
	}
	if !c.Mock && len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Common:       loadCommon(),
		Interval:     getDuration("RETENTION_CRON", "24h"),
		MaxAge:       getDuration("RETENTION_MAX_AGE", "720h"),
		UploadMaxAge: getDuration("RETENTION_UPLOAD_MAX_AGE", "6h"),
		BatchSize:    getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.UploadMaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_UPLOAD_MAX_AGE must be positive")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_CRON must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

// LoadClient builds the docctl configuration from environment variables.
func LoadClient() (*Client, error) {
	c := &Client{
		APIURL:          getEnv("DOCS_API_URL", "http://localhost:8080"),
		ResultsPage:     getEnv("DOCS_RESULTS_PAGE", "search.html"),
		PollInterval:    getDuration("POLL_INTERVAL", "500ms"),
		PollMaxInterval: getDuration("POLL_MAX_INTERVAL", "5s"),
		PollTimeout:     getDuration("POLL_TIMEOUT", "2m"),
		PollMaxAttempts: getInt("POLL_MAX_ATTEMPTS", 0),
	}

	if c.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.PollMaxInterval < c.PollInterval {
		return nil, fmt.Errorf("POLL_MAX_INTERVAL cannot be below POLL_INTERVAL")
	}
	if c.PollTimeout <= 0 {
		return nil, fmt.Errorf("POLL_TIMEOUT must be positive")
	}
	if c.PollMaxAttempts < 0 {
		return nil, fmt.Errorf("POLL_MAX_ATTEMPTS cannot be negative")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
