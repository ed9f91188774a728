package ports

import "github.com/femmie/marketplace/internal/core/domain"

// TokenService issues and checks bearer tokens bound to a user.
type TokenService interface {
	Issue(user *domain.User) (domain.TokenPair, error)
	// ExtractRefreshIdentity returns the email a refresh token is bound to.
	// The signature is checked, the expiry is not.
	ExtractRefreshIdentity(token string) (string, error)
	// IsValidRefresh reports whether token is an unexpired refresh token
	// issued for user.
	IsValidRefresh(token string, user *domain.User) bool
	// VerifyAccess fully validates an access token.
	VerifyAccess(token string) (domain.Identity, error)
}
