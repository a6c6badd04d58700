package pubsub_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanishhq/vanish/internal/pubsub"
)

func TestWatermillBridge_PublishSubscribe(t *testing.T) {
	bridge := pubsub.NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan pubsub.Message, 1)
	err := bridge.Subscribe(ctx, "room.events", func(ctx context.Context, msg pubsub.Message) error {
		received <- msg
		return nil
	})
	require.NoError(t, err)

	err = bridge.Publish(ctx, pubsub.Message{
		Topic:   "room.events",
		UserID:  "user-1",
		Payload: []byte(`{"type":"new_message"}`),
		Metadata: map[string]string{
			"room_id": "AB12CD34",
		},
	})
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, "room.events", msg.Topic)
		assert.Equal(t, "user-1", msg.UserID)
		assert.Equal(t, `{"type":"new_message"}`, string(msg.Payload))
		assert.Equal(t, "AB12CD34", msg.Metadata["room_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestWatermillBridge_PreservesPublishOrder(t *testing.T) {
	bridge := pubsub.NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const count = 50
	var mu sync.Mutex
	var got []string
	done := make(chan struct{})

	err := bridge.Subscribe(ctx, "room.events", func(ctx context.Context, msg pubsub.Message) error {
		mu.Lock()
		got = append(got, string(msg.Payload))
		if len(got) == count {
			close(done)
		}
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	for i := 0; i < count; i++ {
		err := bridge.Publish(ctx, pubsub.Message{
			Topic:   "room.events",
			Payload: []byte(fmt.Sprintf("%d", i)),
		})
		require.NoError(t, err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for all messages")
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 0; i < count; i++ {
		assert.Equal(t, fmt.Sprintf("%d", i), got[i], "messages must arrive in publish order")
	}
}

func TestWithTracing_NoopTracerPassesThrough(t *testing.T) {
	bridge := pubsub.NewWatermillBridge()
	defer bridge.Close()

	tracer, cleanup, err := pubsub.SetupOTel(context.Background(), pubsub.DefaultTracingConfig())
	require.NoError(t, err)
	defer cleanup()

	pub := pubsub.WithTracing(bridge, tracer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan pubsub.Message, 1)
	err = bridge.Subscribe(ctx, "room.events", func(ctx context.Context, msg pubsub.Message) error {
		received <- msg
		return nil
	})
	require.NoError(t, err)

	err = pub.Publish(ctx, pubsub.Message{Topic: "room.events", Payload: []byte("hello")})
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, "hello", string(msg.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for traced publish")
	}
}
