// Package cache holds the shared Redis client and the cache-aside helpers the
// repositories use for immutable lookups such as hashtag rows.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"vibez/internal/middleware"
	"vibez/internal/observability"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// errorCounter feeds failed commands into RedisErrorRate. Misses are not errors.
type errorCounter struct{}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countFailure(cmd.Name(), err)
		return err
	}
}

func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countFailure("pipeline", err)
		return err
	}
}

func countFailure(op string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RedisErrorRate.WithLabelValues(op).Inc()
	}
}

func options(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}

// Connect dials Redis at addr (host:port or redis:// URL) and installs the
// client for the package helpers. Redis is optional: on any failure it logs,
// leaves caching off and returns nil.
func Connect(ctx context.Context, addr string) *redis.Client {
	if addr == "" {
		SetClient(nil)
		return nil
	}
	opts, err := options(addr)
	if err != nil {
		middleware.Logger.Warn("invalid REDIS_URL, caching disabled", slog.String("error", err.Error()))
		SetClient(nil)
		return nil
	}

	c := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("redis unreachable, caching disabled",
			slog.String("addr", opts.Addr), slog.String("error", err.Error()))
		_ = c.Close()
		SetClient(nil)
		return nil
	}

	middleware.Logger.Info("redis connected", slog.String("addr", opts.Addr))
	SetClient(c)
	return c
}

// SetClient replaces the package client. Tests inject miniredis through it.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(errorCounter{})
	}
	client = c
}
