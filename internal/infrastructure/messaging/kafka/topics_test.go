package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-CostEngine/internal/config"
)

type fakeConn struct {
	existing  map[string]bool
	created   []kafka.TopicConfig
	createErr error
}

func (c *fakeConn) CreateTopics(topics ...kafka.TopicConfig) error {
	if c.createErr != nil {
		return c.createErr
	}
	c.created = append(c.created, topics...)
	return nil
}

func (c *fakeConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	var out []kafka.Partition
	for _, t := range topics {
		if c.existing[t] {
			out = append(out, kafka.Partition{Topic: t})
		}
	}
	return out, nil
}

func (c *fakeConn) Close() error { return nil }

func TestEventEnvelope_RoundTrip(t *testing.T) {
	env, err := NewEventEnvelope(EventCalculationCompleted, CalculationCompletedPayload{CalculationID: "calc-1", Outcome: OutcomeSucceeded})
	require.NoError(t, err)

	msg, err := env.ToMessage("done", "calc-1")
	require.NoError(t, err)
	assert.Equal(t, EventCalculationCompleted, msg.Headers[HeaderEventType])
	assert.Equal(t, schemaVersion, msg.Headers[HeaderSchemaVersion])

	decoded, err := DecodeEnvelope(msg)
	require.NoError(t, err)
	assert.Equal(t, env.EventID, decoded.EventID)
	assert.Equal(t, sourceName, decoded.Source)

	var payload CalculationCompletedPayload
	require.NoError(t, decoded.DecodePayload(&payload))
	assert.Equal(t, "calc-1", payload.CalculationID)
}

func TestDecodeEnvelope_Errors(t *testing.T) {
	_, err := DecodeEnvelope(&Message{})
	assert.Error(t, err)
	_, err = DecodeEnvelope(&Message{Value: []byte("not json")})
	assert.Error(t, err)

	env := &EventEnvelope{EventType: EventCalculationRequested}
	assert.Error(t, env.DecodePayload(&CalculationRequestedPayload{}))
}

func TestTopicManager_EnsureTopics(t *testing.T) {
	conn := &fakeConn{existing: map[string]bool{"ipcost.calculation.requested": true}}
	m := NewTopicManagerWithConn(conn, nil)
	cfg := config.KafkaConfig{
		RequestTopic:    "ipcost.calculation.requested",
		CompletedTopic:  "ipcost.calculation.completed",
		DeadLetterTopic: "ipcost.calculation.dead_letter",
	}

	require.NoError(t, m.EnsureTopics(context.Background(), CalculationTopics(cfg)))

	require.Len(t, conn.created, 2)
	assert.Equal(t, "ipcost.calculation.completed", conn.created[0].Topic)
	assert.Equal(t, "ipcost.calculation.dead_letter", conn.created[1].Topic)
	require.Len(t, conn.created[1].ConfigEntries, 1)
	assert.Equal(t, "2592000000", conn.created[1].ConfigEntries[0].ConfigValue)
}

func TestTopicManager_CreateTopic(t *testing.T) {
	ctx := context.Background()

	m := NewTopicManagerWithConn(&fakeConn{createErr: errors.New("Topic already exists")}, nil)
	assert.NoError(t, m.CreateTopic(ctx, TopicSpec{Name: "t", NumPartitions: 1, ReplicationFactor: 1}))

	m = NewTopicManagerWithConn(&fakeConn{createErr: errors.New("not controller")}, nil)
	assert.Error(t, m.CreateTopic(ctx, TopicSpec{Name: "t", NumPartitions: 1, ReplicationFactor: 1, Retention: time.Hour}))

	assert.Error(t, m.CreateTopic(ctx, TopicSpec{NumPartitions: 1, ReplicationFactor: 1}))
	assert.Error(t, m.CreateTopic(ctx, TopicSpec{Name: "t"}))
}

func TestCalculationTopics_SkipsEmptyNames(t *testing.T) {
	got := CalculationTopics(config.KafkaConfig{RequestTopic: "req"})
	require.Len(t, got, 1)
	assert.Equal(t, "req", got[0].Name)
}

//Personal.AI order the ending
