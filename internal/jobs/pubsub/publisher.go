// Package pubsub publishes jobs to a Google Cloud Pub/Sub topic so several
// API instances can share one pool of workers.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/dvloznov/edufin/internal/jobs"
	"github.com/dvloznov/edufin/internal/logger"
	"github.com/google/uuid"
)

// Topic is the slice of the Pub/Sub client the publisher needs. Tests fake it.
type Topic interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) error
	Stop()
}

// ClientFactory opens a Topic; replaced in tests.
type ClientFactory interface {
	NewTopic(ctx context.Context, projectID, topic string) (Topic, func() error, error)
}

type defaultFactory struct{}

func (defaultFactory) NewTopic(ctx context.Context, projectID, topic string) (Topic, func() error, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	return &topicAdapter{publisher: client.Publisher(topic)}, client.Close, nil
}

type topicAdapter struct {
	publisher *pubsub.Publisher
}

func (t *topicAdapter) Publish(ctx context.Context, data []byte, attrs map[string]string) error {
	result := t.publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	_, err := result.Get(ctx)
	return err
}

func (t *topicAdapter) Stop() {
	t.publisher.Stop()
}

// Publisher implements jobs.Publisher on a Pub/Sub topic.
type Publisher struct {
	topic       Topic
	closeClient func() error
}

// NewPublisher connects to projectID/topic with the real client.
func NewPublisher(ctx context.Context, projectID, topic string) (*Publisher, error) {
	return NewPublisherWithFactory(ctx, projectID, topic, defaultFactory{})
}

// NewPublisherWithFactory is NewPublisher with an injectable client factory.
func NewPublisherWithFactory(ctx context.Context, projectID, topic string, factory ClientFactory) (*Publisher, error) {
	t, closeFn, err := factory.NewTopic(ctx, projectID, topic)
	if err != nil {
		return nil, fmt.Errorf("NewPublisher: create client: %w", err)
	}
	log := logger.FromContext(ctx)
	log.Info().Str("project_id", projectID).Str("topic", topic).Msg("Pub/Sub job publisher ready")
	return &Publisher{topic: t, closeClient: closeFn}, nil
}

// Publish implements jobs.Publisher. The job travels as JSON with its type
// as a message attribute so subscriptions can filter on it.
func (p *Publisher) Publish(ctx context.Context, job *jobs.Job) error {
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = jobs.DefaultMaxRetries
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("Publish: marshal job %s: %w", job.JobID, err)
	}
	attrs := map[string]string{"job_type": string(job.Type), "job_id": job.JobID}
	if err := p.topic.Publish(ctx, data, attrs); err != nil {
		return fmt.Errorf("Publish: job %s: %w", job.JobID, err)
	}
	return nil
}

// Close flushes pending messages and closes the client.
func (p *Publisher) Close() error {
	p.topic.Stop()
	if p.closeClient != nil {
		return p.closeClient()
	}
	return nil
}

// DecodeMessage turns a received message body back into a job.
func DecodeMessage(data []byte) (*jobs.Job, error) {
	var job jobs.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("DecodeMessage: %w", err)
	}
	return &job, nil
}

var _ jobs.Publisher = (*Publisher)(nil)
