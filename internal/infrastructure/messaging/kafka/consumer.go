package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/KeyIP-CostEngine/internal/config"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

const maxRetryBackoff = 30 * time.Second

var ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")

// Handler processes one message. A non-nil error triggers a retry.
type Handler func(ctx context.Context, msg *Message) error

// Reader abstracts kafka.Reader for testing.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher is the dead-letter sink.
type Publisher interface {
	Publish(ctx context.Context, msg *Message) error
}

// ConsumerStats counts consume outcomes.
type ConsumerStats struct {
	Consumed     int64
	Processed    int64
	Failed       int64
	Retried      int64
	DeadLettered int64
}

// RetryPolicy controls handler retries before a message is dead-lettered.
type RetryPolicy struct {
	MaxRetries      int
	Backoff         time.Duration
	DeadLetterTopic string
}

// Consumer reads a consumer group and dispatches messages by topic.
type Consumer struct {
	reader     Reader
	deadLetter Publisher
	retry      RetryPolicy
	logger     logging.Logger

	mu       sync.RWMutex
	handlers map[string]Handler

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	consumed, processed, failed, retried, deadLettered atomic.Int64
}

// NewConsumer joins cfg.GroupID on the request topic. deadLetter may be nil,
// in which case exhausted messages are logged and committed.
func NewConsumer(cfg config.KafkaConfig, deadLetter Publisher, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	if cfg.GroupID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "kafka group_id required")
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		GroupTopics:    []string{cfg.RequestTopic},
		MinBytes:       1,
		MaxBytes:       10 << 20,
		MaxWait:        time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: 0,
		Dialer:         &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true},
	})
	policy := RetryPolicy{
		MaxRetries:      cfg.MaxRetries,
		Backoff:         cfg.RetryBackoff,
		DeadLetterTopic: cfg.DeadLetterTopic,
	}
	return NewConsumerWithReader(r, deadLetter, policy, log), nil
}

func NewConsumerWithReader(r Reader, deadLetter Publisher, policy RetryPolicy, log logging.Logger) *Consumer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if policy.Backoff <= 0 {
		policy.Backoff = time.Second
	}
	return &Consumer{
		reader:     r,
		deadLetter: deadLetter,
		retry:      policy,
		logger:     log,
		handlers:   make(map[string]Handler),
	}
}

func (c *Consumer) Subscribe(topic string, h Handler) {
	c.mu.Lock()
	c.handlers[topic] = h
	c.mu.Unlock()
	c.logger.Info("subscribed to topic", logging.String("topic", topic))
}

// Start launches the consume loop and returns immediately.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.loop(ctx)
	c.logger.Info("kafka consumer started")
	return nil
}

// Wait blocks until the consume loop exits.
func (c *Consumer) Wait() { c.wg.Wait() }

func (c *Consumer) loop(ctx context.Context) {
	defer c.wg.Done()
	for ctx.Err() == nil {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("fetch message failed", logging.Err(err))
			if !sleep(ctx, time.Second) {
				return
			}
			continue
		}
		c.consumed.Add(1)
		c.dispatch(ctx, m)
		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("commit failed", logging.Err(err), logging.Int64("offset", m.Offset))
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, m kafka.Message) {
	c.mu.RLock()
	h, ok := c.handlers[m.Topic]
	c.mu.RUnlock()
	if !ok {
		c.logger.Warn("no handler for topic", logging.String("topic", m.Topic))
		return
	}

	msg := fromKafkaMessage(m)
	err := c.handle(ctx, msg, h)
	if err == nil {
		c.processed.Add(1)
		return
	}
	c.failed.Add(1)
	c.logger.Error("message failed after retries",
		logging.String("topic", msg.Topic), logging.Int64("offset", msg.Offset), logging.Err(err))
	c.sendDeadLetter(ctx, msg, err)
}

func (c *Consumer) handle(ctx context.Context, msg *Message, h Handler) error {
	err := h(ctx, msg)
	backoff := c.retry.Backoff
	for i := 0; err != nil && i < c.retry.MaxRetries; i++ {
		if !sleep(ctx, backoff) {
			return ctx.Err()
		}
		c.retried.Add(1)
		err = h(ctx, msg)
		backoff *= 2
		if backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}
	return err
}

func (c *Consumer) sendDeadLetter(ctx context.Context, msg *Message, cause error) {
	if c.deadLetter == nil || c.retry.DeadLetterTopic == "" {
		return
	}
	headers := make(map[string]string, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderError] = cause.Error()

	dl := &Message{Topic: c.retry.DeadLetterTopic, Key: msg.Key, Value: msg.Value, Headers: headers}
	if err := c.deadLetter.Publish(context.WithoutCancel(ctx), dl); err != nil {
		c.logger.Error("dead letter publish failed", logging.Err(err))
		return
	}
	c.deadLettered.Add(1)
}

func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Consumed:     c.consumed.Load(),
		Processed:    c.processed.Load(),
		Failed:       c.failed.Load(),
		Retried:      c.retried.Load(),
		DeadLettered: c.deadLettered.Load(),
	}
}

// Close stops the loop and closes the reader.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return c.reader.Close()
	}
	c.cancel()
	c.wg.Wait()
	err := c.reader.Close()
	c.logger.Info("kafka consumer closed", logging.Int64("consumed", c.consumed.Load()))
	return err
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

//Personal.AI order the ending
