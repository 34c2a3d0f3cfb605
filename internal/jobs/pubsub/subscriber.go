package pubsub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/dvloznov/edufin/internal/jobs"
	"github.com/dvloznov/edufin/internal/logger"
)

// Message is the slice of a received Pub/Sub message the subscriber uses.
type Message interface {
	Data() []byte
	DeliveryAttempt() int
	Ack()
	Nack()
}

// Subscription delivers messages until ctx is done.
type Subscription interface {
	Receive(ctx context.Context, f func(context.Context, Message)) error
}

// SubscriptionFactory opens a Subscription; replaced in tests.
type SubscriptionFactory interface {
	NewSubscription(ctx context.Context, projectID, subscription string) (Subscription, func() error, error)
}

type defaultSubscriptionFactory struct{}

func (defaultSubscriptionFactory) NewSubscription(ctx context.Context, projectID, subscription string) (Subscription, func() error, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	return &subscriptionAdapter{sub: client.Subscriber(subscription)}, client.Close, nil
}

type subscriptionAdapter struct {
	sub *pubsub.Subscriber
}

func (s *subscriptionAdapter) Receive(ctx context.Context, f func(context.Context, Message)) error {
	return s.sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		f(ctx, messageAdapter{msg: m})
	})
}

type messageAdapter struct {
	msg *pubsub.Message
}

func (m messageAdapter) Data() []byte { return m.msg.Data }

func (m messageAdapter) DeliveryAttempt() int {
	if m.msg.DeliveryAttempt == nil {
		return 1
	}
	return *m.msg.DeliveryAttempt
}

func (m messageAdapter) Ack()  { m.msg.Ack() }
func (m messageAdapter) Nack() { m.msg.Nack() }

// Subscriber implements jobs.Consumer on a Pub/Sub subscription. A failed
// job is nacked for redelivery until it has been attempted MaxRetries+1
// times, then acked and recorded as failed.
type Subscriber struct {
	sub         Subscription
	closeClient func() error
	store       jobs.JobStore

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSubscriber connects to projectID/subscription. store may be nil.
func NewSubscriber(ctx context.Context, projectID, subscription string, store jobs.JobStore) (*Subscriber, error) {
	return NewSubscriberWithFactory(ctx, projectID, subscription, store, defaultSubscriptionFactory{})
}

// NewSubscriberWithFactory is NewSubscriber with an injectable factory.
func NewSubscriberWithFactory(ctx context.Context, projectID, subscription string, store jobs.JobStore, factory SubscriptionFactory) (*Subscriber, error) {
	sub, closeFn, err := factory.NewSubscription(ctx, projectID, subscription)
	if err != nil {
		return nil, fmt.Errorf("NewSubscriber: create client: %w", err)
	}
	log := logger.FromContext(ctx)
	log.Info().Str("project_id", projectID).Str("subscription", subscription).Msg("Pub/Sub job subscriber ready")
	return &Subscriber{sub: sub, closeClient: closeFn, store: store}, nil
}

// Start implements jobs.Consumer. Receiving runs in the background until
// Stop is called or ctx is done.
func (s *Subscriber) Start(ctx context.Context, handler jobs.JobHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return fmt.Errorf("Start: subscriber already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		if err := s.sub.Receive(ctx, func(ctx context.Context, m Message) {
			s.handle(ctx, m, handler)
		}); err != nil {
			log := logger.FromContext(ctx)
			log.Error().Err(err).Msg("Pub/Sub receive stopped")
		}
	}()
	return nil
}

func (s *Subscriber) handle(ctx context.Context, m Message, handler jobs.JobHandler) {
	log := logger.FromContext(ctx)

	job, err := DecodeMessage(m.Data())
	if err != nil {
		// redelivery cannot fix a malformed body
		log.Error().Err(err).Msg("Dropping undecodable job message")
		m.Ack()
		return
	}
	job.RetryCount = m.DeliveryAttempt() - 1
	job.Status = jobs.JobStatusRunning
	started := time.Now()
	job.StartedAt = &started
	s.save(ctx, job)

	err = handler(ctx, job)

	completed := time.Now()
	job.CompletedAt = &completed
	switch {
	case err == nil:
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		m.Ack()
	case job.RetryCount < job.MaxRetries:
		job.Status = jobs.JobStatusRetrying
		job.Error = err.Error()
		m.Nack()
	default:
		job.Status = jobs.JobStatusFailed
		job.Error = err.Error()
		log.Error().Err(err).Str("job_id", job.JobID).Str("job_type", string(job.Type)).Msg("Job failed permanently")
		m.Ack()
	}
	s.save(ctx, job)
}

func (s *Subscriber) save(ctx context.Context, job *jobs.Job) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveJob(ctx, job); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("job_id", job.JobID).Msg("Failed to save job status")
	}
}

// Stop implements jobs.Consumer and closes the client.
func (s *Subscriber) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.closeClient != nil {
		return s.closeClient()
	}
	return nil
}

var _ jobs.Consumer = (*Subscriber)(nil)
