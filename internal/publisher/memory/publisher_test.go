package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherStoresMessages(t *testing.T) {
	t.Parallel()

	pub := New()
	id1, err := pub.Publish(context.Background(), "reminders", map[string]string{"kind": "morning"})
	require.NoError(t, err)
	assert.Equal(t, "memory-1", id1)
	id2, err := pub.Publish(context.Background(), "reminders-dlq", "payload")
	require.NoError(t, err)
	assert.Equal(t, "memory-2", id2)

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "reminders", msgs[0].Topic)
	assert.Equal(t, "memory-2", msgs[1].ID)

	msgs[0].Topic = "modified"
	assert.Equal(t, "reminders", pub.Messages()[0].Topic, "Messages returns a copy")
	assert.Equal(t, 2, pub.Len())
}

func TestPublisherHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Publish(ctx, "reminders", "x")
	require.ErrorIs(t, err, context.Canceled)
}
