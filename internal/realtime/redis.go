package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// RedisBridge publishes notifications through Redis and relays every
// instance's notifications into the local hub, so observers connected to
// any instance receive them.
type RedisBridge struct {
	client *redis.Client
	prefix string
	hub    *Hub
	logger *zap.Logger
}

// NewRedisBridge creates a bridge. Channels are named "<prefix>:dep-<id>".
func NewRedisBridge(client *redis.Client, prefix string, hub *Hub, logger *zap.Logger) *RedisBridge {
	return &RedisBridge{client: client, prefix: prefix, hub: hub, logger: logger}
}

func (b *RedisBridge) redisChannel(channel string) string {
	return b.prefix + ":" + channel
}

// ScheduleUpdated publishes a schedule-updated event on the dependent's Redis channel
func (b *RedisBridge) ScheduleUpdated(ctx context.Context, dependentID int64) error {
	payload, err := json.Marshal(Event{Name: EventScheduleUpdated, DependentID: dependentID})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.client.Publish(ctx, b.redisChannel(Channel(dependentID)), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Run relays Redis messages into the hub until ctx is done
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, b.redisChannel("dep-*"))
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	b.logger.Info("realtime bridge subscribed", zap.String("pattern", b.redisChannel("dep-*")))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := b.relay(msg); err != nil {
				b.logger.Warn("dropping realtime message", zap.String("channel", msg.Channel), zap.Error(err))
			}
		}
	}
}

func (b *RedisBridge) relay(msg *redis.Message) error {
	channel := strings.TrimPrefix(msg.Channel, b.prefix+":")
	if channel == msg.Channel || !strings.HasPrefix(channel, "dep-") {
		return fmt.Errorf("unexpected channel %q", msg.Channel)
	}

	var ev Event
	if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}
	if channel != Channel(ev.DependentID) {
		return fmt.Errorf("event for dependent %d on channel %q", ev.DependentID, channel)
	}

	b.hub.Publish(channel, ev)
	return nil
}
