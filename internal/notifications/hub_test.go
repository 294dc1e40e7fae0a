package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return string(msg)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a notification")
		return ""
	}
}

func TestHub_BroadcastReachesOnlyThatUser(t *testing.T) {
	hub := NewHub()

	a1, err := hub.Register(1, nil)
	require.NoError(t, err)
	a2, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Connections(1))

	hub.Broadcast(1, `{"type":"post.liked"}`)

	assert.Equal(t, `{"type":"post.liked"}`, receive(t, a1))
	assert.Equal(t, `{"type":"post.liked"}`, receive(t, a2))
	assert.Empty(t, b.Send)
}

func TestHub_UnregisterClosesSendOnce(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(7, nil)
	require.NoError(t, err)

	hub.Unregister(c)
	hub.Unregister(c)

	_, ok := <-c.Send
	assert.False(t, ok)
	assert.Zero(t, hub.Connections(7))

	// Broadcasting to a user with no sockets is a no-op.
	hub.Broadcast(7, "ignored")
}

func TestHub_PerUserConnectionLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(3, nil)
		require.NoError(t, err)
	}

	_, err := hub.Register(3, nil)
	assert.ErrorIs(t, err, ErrUserConnLimit)

	_, err = hub.Register(4, nil)
	assert.NoError(t, err)
}

func TestHub_FullBufferDropsWithNotice(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(5, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+3; i++ {
		hub.Broadcast(5, "x")
	}
	assert.Len(t, c.Send, sendBuffer)
}

func TestHub_ShutdownClosesClientsAndRejectsNewOnes(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(9, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))

	_, ok := <-c.Send
	assert.False(t, ok)

	_, err = hub.Register(9, nil)
	assert.ErrorIs(t, err, ErrServerConnLimit)

	// The client's own Unregister after shutdown must not double close.
	hub.Unregister(c)
}

func TestHub_StartWiringForwardsUserNotifications(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	notifier := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, notifier))

	bob, err := hub.Register(42, nil)
	require.NoError(t, err)
	alice, err := hub.Register(41, nil)
	require.NoError(t, err)

	require.NoError(t, notifier.Notify(ctx, 42, "user.followed", map[string]uint{"follower_id": 41}))

	assert.JSONEq(t, `{"type":"user.followed","payload":{"follower_id":41}}`, receive(t, bob))
	assert.Never(t, func() bool { return len(alice.Send) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}
