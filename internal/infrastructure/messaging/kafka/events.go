package kafka

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

const (
	OutcomeSucceeded = "succeeded"
	OutcomeRejected  = "rejected"
)

// CalculationRequestedPayload asks a worker to run one calculation.
type CalculationRequestedPayload struct {
	RequestID string                   `json:"request_id"`
	Email     string                   `json:"email,omitempty"`
	Input     costing.CalculationInput `json:"input"`
}

// CalculationCompletedPayload reports the outcome of a calculation.
type CalculationCompletedPayload struct {
	RequestID       string                 `json:"request_id,omitempty"`
	CalculationID   string                 `json:"calculation_id,omitempty"`
	Outcome         string                 `json:"outcome"`
	Jurisdictions   []costing.Jurisdiction `json:"jurisdictions,omitempty"`
	TotalCost       float64                `json:"total_cost"`
	TotalWithGrants float64                `json:"total_with_grants"`
	ArchiveKey      string                 `json:"archive_key,omitempty"`
	ErrorCode       string                 `json:"error_code,omitempty"`
	Error           string                 `json:"error,omitempty"`
	CompletedAt     time.Time              `json:"completed_at"`
}

type requestIDKey struct{}

// WithRequestID tags ctx so completion events can echo the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ─────────────────────────────────────────────────────────────────────────────
// Publisher
// ─────────────────────────────────────────────────────────────────────────────

// CalculationEventPublisher emits completion events keyed by calculation id.
type CalculationEventPublisher struct {
	producer Publisher
	topic    string
}

func NewCalculationEventPublisher(p Publisher, completedTopic string) *CalculationEventPublisher {
	return &CalculationEventPublisher{producer: p, topic: completedTopic}
}

// PublishCompleted announces a stored calculation.
func (p *CalculationEventPublisher) PublishCompleted(ctx context.Context, rec *costing.CalculationRecord) error {
	if rec == nil {
		return errors.New(errors.ErrCodeValidation, "calculation record required")
	}
	payload := CalculationCompletedPayload{
		RequestID:     RequestIDFrom(ctx),
		CalculationID: rec.ID,
		Outcome:       OutcomeSucceeded,
		Jurisdictions: rec.Input.Jurisdictions,
		ArchiveKey:    rec.ArchiveKey,
		CompletedAt:   time.Now().UTC(),
	}
	if rec.Result != nil {
		payload.TotalCost = rec.Result.TotalCost
		payload.TotalWithGrants = rec.Result.TotalWithGrants
	}
	return p.publish(ctx, rec.ID, payload)
}

// PublishRejected announces a request that cannot succeed on retry.
func (p *CalculationEventPublisher) PublishRejected(ctx context.Context, requestID string, cause error) error {
	payload := CalculationCompletedPayload{
		RequestID:   requestID,
		Outcome:     OutcomeRejected,
		ErrorCode:   string(errors.GetCode(cause)),
		Error:       cause.Error(),
		CompletedAt: time.Now().UTC(),
	}
	return p.publish(ctx, requestID, payload)
}

func (p *CalculationEventPublisher) publish(ctx context.Context, key string, payload CalculationCompletedPayload) error {
	env, err := NewEventEnvelope(EventCalculationCompleted, payload)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(p.topic, key)
	if err != nil {
		return err
	}
	if err := p.producer.Publish(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeEventPublishFailed, "failed to publish calculation event").WithDetail(key)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Request handling
// ─────────────────────────────────────────────────────────────────────────────

// Calculator runs and stores one calculation.
type Calculator interface {
	Calculate(ctx context.Context, in costing.CalculationInput) (*costing.CalculationRecord, error)
}

// NewRequestHandler decodes calculation requests and runs them through calc.
// Malformed or invalid requests are rejected once and never retried; any other
// failure is returned so the consumer retries it.
func NewRequestHandler(calc Calculator, events *CalculationEventPublisher, log logging.Logger) Handler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return func(ctx context.Context, msg *Message) error {
		env, err := DecodeEnvelope(msg)
		if err != nil {
			return reject(ctx, events, log, string(msg.Key), err)
		}
		var req CalculationRequestedPayload
		if err := env.DecodePayload(&req); err != nil {
			return reject(ctx, events, log, string(msg.Key), err)
		}
		if req.RequestID == "" {
			req.RequestID = env.EventID
		}

		rec, err := calc.Calculate(WithRequestID(ctx, req.RequestID), req.Input)
		if err != nil {
			if errors.IsValidation(err) {
				return reject(ctx, events, log, req.RequestID, err)
			}
			return err
		}
		log.Info("calculation request processed",
			logging.String("request_id", req.RequestID), logging.CalculationID(rec.ID))
		return nil
	}
}

func reject(ctx context.Context, events *CalculationEventPublisher, log logging.Logger, requestID string, cause error) error {
	log.Warn("calculation request rejected", logging.String("request_id", requestID), logging.Err(cause))
	if events == nil {
		return nil
	}
	if err := events.PublishRejected(ctx, requestID, cause); err != nil {
		log.Warn("rejection event not published", logging.String("request_id", requestID), logging.Err(err))
	}
	return nil
}

// NewCalculationRequest builds the message a client sends to request a
// calculation.
func NewCalculationRequest(topic string, req CalculationRequestedPayload) (*Message, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	env, err := NewEventEnvelope(EventCalculationRequested, req)
	if err != nil {
		return nil, err
	}
	return env.ToMessage(topic, req.RequestID)
}

//Personal.AI order the ending
