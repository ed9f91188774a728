package ports

import (
	"context"

	"github.com/femmie/marketplace/internal/core/domain"
)

// CredentialStore persists users and their vendor profiles.
//
// Implementations enforce uniqueness of User.Email and Vendor.UserID and must
// return domain.ErrEmailTaken / domain.ErrVendorExists (wrapped or not) when a
// write violates them.
type CredentialStore interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	FindVendorByUserID(ctx context.Context, userID string) (*domain.Vendor, error)
	VendorExists(ctx context.Context, userID string) (bool, error)

	// PromoteToVendor flips the user's role from REGULAR to VENDOR and inserts
	// vendor in a single transaction. When the user is no longer REGULAR or a
	// vendor already references it, nothing is written and ErrVendorExists is
	// returned.
	PromoteToVendor(ctx context.Context, userID string, vendor *domain.Vendor) (*domain.User, *domain.Vendor, error)

	Ping(ctx context.Context) error
}
