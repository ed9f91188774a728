package ports

import (
	"context"

	"github.com/femmie/marketplace/internal/core/domain"
)

// RegisterInput carries a new account's details. Fields are validated by the
// transport layer before they arrive here.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// VendorUpgradeInput carries the shop details submitted on upgrade.
type VendorUpgradeInput struct {
	ShopName        string
	BusinessAddress string
	PhoneNumber     string
}

// AccountService is the use-case surface consumed by the HTTP handlers.
// Every method reports failures inside the returned Result, never as an error.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) domain.Result[domain.AuthPayload]
	Login(ctx context.Context, in LoginInput) domain.Result[domain.AuthPayload]
	GetProfile(ctx context.Context, email string) domain.Result[domain.Profile]
	UpgradeToVendor(ctx context.Context, email string, in VendorUpgradeInput) domain.Result[domain.Profile]
	RefreshToken(ctx context.Context, refreshToken string) domain.Result[domain.AuthPayload]
}
