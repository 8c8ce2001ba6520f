package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/vmihailenco/msgpack/v5"
)

const contentTypeHeader = "content-type"

// ContentType marks msgpack-encoded job payloads.
const ContentType = "application/msgpack"

// Job asks the worker to process one uploaded file.
type Job struct {
	TaskID      string    `msgpack:"task_id"`
	Path        string    `msgpack:"path"`
	Filename    string    `msgpack:"filename"`
	ContentType string    `msgpack:"content_type"`
	Size        int64     `msgpack:"size"`
	UploadedAt  time.Time `msgpack:"uploaded_at"`
}

// Validate checks the fields the worker cannot do without.
func (j Job) Validate() error {
	if j.TaskID == "" {
		return errors.New("job has no task id")
	}
	if j.Path == "" {
		return errors.New("job has no file path")
	}
	return nil
}

// Encode turns the job into a Kafka message keyed by task id.
func Encode(job Job) (kafka.Message, error) {
	if err := job.Validate(); err != nil {
		return kafka.Message{}, err
	}
	payload, err := msgpack.Marshal(&job)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode job: %w", err)
	}
	return kafka.Message{
		Key:   []byte(job.TaskID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: contentTypeHeader, Value: []byte(ContentType)},
		},
	}, nil
}

// Decode reads a job from a Kafka message.
func Decode(msg kafka.Message) (Job, error) {
	var job Job
	if err := msgpack.Unmarshal(msg.Value, &job); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return Job{}, err
	}
	return job, nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher enqueues jobs on the upload topic.
type Publisher struct {
	w messageWriter
}

// NewPublisher creates a publisher writing to topic on brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
	}}
}

// Publish encodes and writes a job.
func (p *Publisher) Publish(ctx context.Context, job Job) error {
	msg, err := Encode(job)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish job %s: %w", job.TaskID, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}
