package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := NewLocal()

	var mu sync.Mutex
	var got []string
	for range 2 {
		require.NoError(t, l.Subscribe(ctx, func(tenant string) {
			mu.Lock()
			got = append(got, tenant)
			mu.Unlock()
		}))
	}
	require.NoError(t, l.Publish(ctx, "acme"))

	mu.Lock()
	assert.Equal(t, []string{"acme", "acme"}, got)
	mu.Unlock()
}

func TestLocalUnsubscribeOnCancel(t *testing.T) {
	l := NewLocal()
	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan string, 4)
	require.NoError(t, l.Subscribe(ctx, func(tenant string) { calls <- tenant }))
	cancel()

	require.Eventually(t, func() bool {
		l.mu.RLock()
		defer l.mu.RUnlock()
		return len(l.subs) == 0
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, l.Publish(context.Background(), "acme"))
	assert.Empty(t, calls)
}

func TestLocalClosed(t *testing.T) {
	l := NewLocal()
	require.NoError(t, l.Close())
	require.ErrorIs(t, l.Subscribe(context.Background(), func(string) {}), ErrClosed)
}

func TestMessageEncoding(t *testing.T) {
	origin, tenant, ok := decodeMessage(encodeMessage("node-1", ""))
	require.True(t, ok)
	assert.Equal(t, "node-1", origin)
	assert.Empty(t, tenant)

	origin, tenant, ok = decodeMessage(encodeMessage("node-1", "acme|eu"))
	require.True(t, ok)
	assert.Equal(t, "node-1", origin)
	assert.Equal(t, "acme|eu", tenant)

	_, _, ok = decodeMessage("no separator")
	assert.False(t, ok)
	_, _, ok = decodeMessage("|acme")
	assert.False(t, ok)
}

// TestRedisIntegration requires a running Redis on localhost.
func TestRedisIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}

	sender := NewRedis(client, nil)
	receiver := NewRedis(client, nil)
	defer sender.Close()
	defer receiver.Close()

	got := make(chan string, 2)
	require.NoError(t, receiver.Subscribe(ctx, func(tenant string) { got <- tenant }))
	require.NoError(t, sender.Subscribe(ctx, func(tenant string) { got <- "echo:" + tenant }))
	require.NoError(t, sender.Publish(ctx, "acme"))

	select {
	case tenant := <-got:
		assert.Equal(t, "acme", tenant)
	case <-ctx.Done():
		t.Fatal("invalidation not delivered")
	}
	select {
	case tenant := <-got:
		t.Fatalf("unexpected delivery %q", tenant)
	case <-time.After(200 * time.Millisecond):
	}
}
