package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 5 * time.Second

// ErrDisabled is returned by Open when no Redis address is configured.
var ErrDisabled = errors.New("redis: upgrade lock disabled")

// Config describes the Redis instance backing the upgrade lock.
type Config struct {
	Addr    string
	DB      int
	LockTTL time.Duration
	// Timeout bounds the startup ping. Defaults to 5s.
	Timeout time.Duration
}

// Open dials Redis, checks it answers a ping and returns a ready lock.
// The caller owns the lock and must Close it.
func Open(ctx context.Context, cfg Config) (*UpgradeLock, error) {
	if cfg.Addr == "" {
		return nil, ErrDisabled
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		DB:          cfg.DB,
		DialTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return NewUpgradeLock(client, cfg.LockTTL), nil
}
