package domain

import "time"

// Role governs which account operations an identity may invoke.
type Role string

const (
	RoleRegular Role = "REGULAR"
	RoleVendor  Role = "VENDOR"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleRegular || r == RoleVendor
}

// CanUpgrade reports whether a user holding r may be promoted to vendor.
// The only transition is REGULAR -> VENDOR; there is no way back.
func (r Role) CanUpgrade() bool {
	return r == RoleRegular
}

// User models a marketplace account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Vendor is the shop profile owned by exactly one VENDOR user.
type Vendor struct {
	ID              string    `json:"id"`
	ShopName        string    `json:"shop_name"`
	BusinessAddress string    `json:"business_address"`
	PhoneNumber     string    `json:"phone_number"`
	UserID          string    `json:"user_id"`
	CreatedAt       time.Time `json:"created_at"`
}
