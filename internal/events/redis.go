package events

import (
	"context"
	"encoding/json"
	"runtime/debug"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/cache"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes moderation events on the live stream channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: cache.ModerationChannel}
}

func (p *RedisPublisher) PublishModeration(ctx context.Context, e ModerationEvent) error {
	if p.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, payload).Err()
}

// Subscribe calls onMessage with the raw payload of every event on the channel until ctx
// is cancelled. A panicking handler is logged and does not stop the subscription.
func (p *RedisPublisher) Subscribe(ctx context.Context, onMessage func(payload string)) error {
	if p.rdb == nil {
		return nil
	}
	sub := p.rdb.Subscribe(ctx, p.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.Logger.Error("panic in moderation subscriber",
								"panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()
	return nil
}
