package realtime

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestChannel(t *testing.T) {
	assert.Equal(t, "dep-42", Channel(42))
}

func TestHubDeliversToChannelSubscribers(t *testing.T) {
	hub := NewHub()
	ana, unsubAna := hub.Subscribe(Channel(1))
	defer unsubAna()
	bruno, unsubBruno := hub.Subscribe(Channel(2))
	defer unsubBruno()

	require.NoError(t, hub.ScheduleUpdated(context.Background(), 1))

	select {
	case ev := <-ana:
		assert.Equal(t, Event{Name: EventScheduleUpdated, DependentID: 1}, ev)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}

	select {
	case ev := <-bruno:
		t.Fatalf("unexpected event on other channel: %+v", ev)
	default:
	}
}

func TestHubPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	hub := NewHub()
	_, unsub := hub.Subscribe(Channel(1))
	defer unsub()

	for i := 0; i < DefaultBuffer; i++ {
		assert.Equal(t, 1, hub.Publish(Channel(1), Event{Name: EventScheduleUpdated, DependentID: 1}))
	}
	assert.Equal(t, 0, hub.Publish(Channel(1), Event{Name: EventScheduleUpdated, DependentID: 1}))
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	ch, unsub := hub.Subscribe(Channel(1))
	assert.Equal(t, 1, hub.Subscribers(Channel(1)))

	unsub()
	unsub()

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, hub.Subscribers(Channel(1)))
	assert.Zero(t, hub.Publish(Channel(1), Event{}))
}

func TestRedisBridgeRelay(t *testing.T) {
	hub := NewHub()
	bridge := NewRedisBridge(nil, "carelog", hub, zap.NewNop())
	ch, unsub := hub.Subscribe(Channel(7))
	defer unsub()

	tests := []struct {
		name    string
		msg     *redis.Message
		wantErr bool
	}{
		{name: "valid", msg: &redis.Message{Channel: "carelog:dep-7", Payload: `{"event":"schedule-updated","dependentId":7}`}},
		{name: "foreign prefix", msg: &redis.Message{Channel: "other:dep-7", Payload: `{"dependentId":7}`}, wantErr: true},
		{name: "bad payload", msg: &redis.Message{Channel: "carelog:dep-7", Payload: `not json`}, wantErr: true},
		{name: "mismatched dependent", msg: &redis.Message{Channel: "carelog:dep-7", Payload: `{"dependentId":8}`}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := bridge.relay(tt.msg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			ev := <-ch
			assert.Equal(t, int64(7), ev.DependentID)
		})
	}
}

// TestRedisBridgeRoundTrip needs a reachable Redis at REDIS_ADDR
func TestRedisBridgeRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if testing.Short() || addr == "" {
		t.Skip("Skipping redis integration test; set REDIS_ADDR to run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := NewRedisClient(ctx, addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	hub := NewHub()
	bridge := NewRedisBridge(client, "carelog-test", hub, zap.NewNop())
	ch, unsub := hub.Subscribe(Channel(3))
	defer unsub()

	go bridge.Run(ctx)
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumPat(ctx).Result()
		return err == nil && n > 0
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, bridge.ScheduleUpdated(ctx, 3))

	select {
	case ev := <-ch:
		assert.Equal(t, int64(3), ev.DependentID)
	case <-ctx.Done():
		t.Fatal("event not relayed")
	}
}
