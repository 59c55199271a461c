package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessagePayload(t *testing.T) {
	msg, err := NewMessage("m-1", TypeGenerateBook, "p-1", GenerateBookJob{ProjectID: "p-1"})
	require.NoError(t, err)
	assert.Equal(t, "p-1", msg.ProjectID)

	var job GenerateBookJob
	require.NoError(t, msg.UnmarshalPayload(&job))
	assert.Equal(t, "p-1", job.ProjectID)

	msg.SetMetadata("request_id", "")
	assert.NotContains(t, msg.Metadata, "request_id")
	msg.SetMetadata("request_id", "req-9")
	assert.Equal(t, "req-9", msg.GetMetadata("request_id"))

	var empty Message
	assert.Empty(t, empty.GetMetadata("trace_id"))
}

func TestStreamNames(t *testing.T) {
	assert.Equal(t, "dlq:stream:book:gen", StreamBookGen.DLQStream())
}

func TestCalculateBackoff(t *testing.T) {
	cfg := BackoffConfig{Initial: time.Second, Max: 10 * time.Second, Multiplier: 2}
	assert.Equal(t, time.Second, cfg.CalculateBackoff(0))
	assert.Equal(t, 4*time.Second, cfg.CalculateBackoff(2))
	assert.Equal(t, 8*time.Second, cfg.CalculateBackoff(3))
	assert.Equal(t, 10*time.Second, cfg.CalculateBackoff(4))
	assert.Equal(t, 10*time.Second, cfg.CalculateBackoff(20))
}

func TestNewConsumerDefaults(t *testing.T) {
	c := NewConsumer(nil, ConsumerConfig{Stream: StreamBookGen, Group: ConsumerGroupBookWorker})
	assert.Equal(t, 5*time.Second, c.blockTimeout)
	assert.Equal(t, 3, c.retryLimit)
	assert.Equal(t, DefaultBackoffConfig(), c.backoff)
	assert.Equal(t, 5*time.Minute, c.reclaimIdle)
}
