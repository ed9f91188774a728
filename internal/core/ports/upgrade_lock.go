package ports

import "context"

// UpgradeLocker serialises vendor upgrades for a single user across
// instances. Acquire returns ok=false when another upgrade holds the lock.
type UpgradeLocker interface {
	Acquire(ctx context.Context, userID string) (release func(), ok bool, err error)
}
