package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/femmie/marketplace/internal/core/ports"
)

const defaultLockTTL = 10 * time.Second

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another request is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// UpgradeLock serialises vendor upgrades per user.
// Key format: upgrade-lock:<user_id>
type UpgradeLock struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.UpgradeLocker = (*UpgradeLock)(nil)

// NewUpgradeLock wraps client. A non-positive ttl falls back to 10s.
func NewUpgradeLock(client *redis.Client, ttl time.Duration) *UpgradeLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &UpgradeLock{client: client, ttl: ttl}
}

// Acquire takes the lock for userID. ok is false when another holder has it.
func (l *UpgradeLock) Acquire(ctx context.Context, userID string) (func(), bool, error) {
	key := l.key(userID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("upgrade lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// The request context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}
	return release, true, nil
}

// Ping backs the readiness probe.
func (l *UpgradeLock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *UpgradeLock) Close() error {
	return l.client.Close()
}

func (l *UpgradeLock) key(userID string) string {
	return fmt.Sprintf("upgrade-lock:%s", userID)
}
