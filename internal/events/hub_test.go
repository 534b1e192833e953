package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alice = "0x1111111111111111111111111111111111111111"

func TestHub_PublishSubscribe(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()

	sub, err := hub.Subscribe(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.subscribers(alice))

	require.NoError(t, hub.Publish(ctx, ProgressEvent{Type: TypeSectionCompleted, UserAddress: alice, ModuleID: "defi"}))
	// other learners' events are not delivered
	require.NoError(t, hub.Publish(ctx, ProgressEvent{Type: TypeSectionCompleted, UserAddress: "0x2222222222222222222222222222222222222222"}))

	select {
	case ev := <-sub.C:
		assert.Equal(t, "defi", ev.ModuleID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.subscribers(alice))

	_, open := <-sub.C
	assert.False(t, open)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()

	sub, err := hub.Subscribe(ctx, alice)
	require.NoError(t, err)
	defer sub.Close()

	for i := 0; i < subscriberBuffer*2; i++ {
		require.NoError(t, hub.Publish(ctx, ProgressEvent{UserAddress: alice, Points: i}))
	}
	assert.Len(t, sub.C, subscriberBuffer)
}
