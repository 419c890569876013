// Package cache provides Redis client setup and JSON caching helpers.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

const slowCommand = 250 * time.Millisecond

// instrumentHook counts failed commands and logs slow ones. redis.Nil is a cache miss,
// not a failure.
type instrumentHook struct{}

func (instrumentHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (instrumentHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		observe(ctx, cmd.Name(), start, err)
		return err
	}
}

func (instrumentHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		observe(ctx, fmt.Sprintf("pipeline[%d]", len(cmds)), start, err)
		return err
	}
}

func observe(ctx context.Context, op string, start time.Time, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		label := op
		if strings.HasPrefix(op, "pipeline") {
			label = "pipeline"
		}
		observability.RedisErrors.WithLabelValues(label).Inc()
	}
	if elapsed := time.Since(start); elapsed > slowCommand {
		observability.Logger.WarnContext(ctx, "slow redis command", "op", op, "elapsed", elapsed)
	}
}

// NewClient builds an instrumented client for addr, a host:port pair or a redis:// URL.
// It does not dial.
func NewClient(addr string) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		opts = parsed
	}
	// Managed Redis and miniredis reject the maintenance notifications handshake.
	opts.MaintNotificationsConfig = &maintnotifications.Config{Mode: maintnotifications.ModeDisabled}

	rdb := redis.NewClient(opts)
	rdb.AddHook(instrumentHook{})
	return rdb, nil
}

// Connect builds a client for addr and pings it.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb, err := NewClient(addr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	observability.Logger.Info("redis connected", "addr", rdb.Options().Addr, "db", rdb.Options().DB)
	return rdb, nil
}
