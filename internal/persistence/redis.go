package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/config"
)

const redisPingTimeout = 2 * time.Second

var errRedisNotConfigured = errors.New("redis client not configured")

// Redis backs the login/signup rate limiter. An unreachable server is not
// fatal at startup; the limiter fails open and /health reports it.
type Redis struct {
	Client *redis.Client
	addr   string
}

// NewRedis builds the client and checks reachability once within redisPingTimeout.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	r := &Redis{Client: client, addr: cfg.Addr}

	fields := []zap.Field{zap.String("redis_addr", cfg.Addr), zap.Int("redis_db", cfg.DB)}
	if err := r.Ping(ctx); err != nil {
		logger.Warn("rate limiter store unreachable; limits fail open", append(fields, zap.Error(err))...)
	} else {
		logger.Info("rate limiter store connected", fields...)
	}
	return r
}

// Limiter returns the client for the rate limiter, or nil when there is none.
func (r *Redis) Limiter() redis.Scripter {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client
}

func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping bounds the round trip by redisPingTimeout so a dead server cannot stall /health.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errRedisNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s: %w", r.addr, err)
	}
	return nil
}
