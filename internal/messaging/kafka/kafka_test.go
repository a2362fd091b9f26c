package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_ReusesWriterPerTopic(t *testing.T) {
	b := NewKafkaBroker([]string{"localhost:9092"})

	first := b.writer("orders.placed")
	assert.Same(t, first, b.writer("orders.placed"))
	assert.NotSame(t, first, b.writer("inventory.stock_updated"))
	assert.Equal(t, "orders.placed", first.Topic)

	require.NoError(t, b.Close())
	assert.Empty(t, b.writers)
}

func TestBroker_PublishRejectsUnmarshalableEvent(t *testing.T) {
	b := NewKafkaBroker([]string{"localhost:9092"})
	defer b.Close()

	err := b.PublishEvent(context.Background(), "orders.placed", "k", map[string]any{"bad": make(chan int)})
	assert.ErrorContains(t, err, "failed to marshal event")
	assert.Empty(t, b.writers)
}
