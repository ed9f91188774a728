package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/femmie/marketplace/internal/core/domain"
	"github.com/femmie/marketplace/internal/core/ports"
)

// AccountOptions tunes AccountService behaviour.
type AccountOptions struct {
	// CaseInsensitiveEmail lower-cases and trims emails before every lookup
	// and before storage.
	CaseInsensitiveEmail bool
}

// AccountService implements registration, login, profile, vendor upgrade and
// token refresh on top of a CredentialStore and a TokenService.
type AccountService struct {
	store  ports.CredentialStore
	tokens ports.TokenService
	hasher ports.PasswordHasher
	lock   ports.UpgradeLocker
	opts   AccountOptions
	log    zerolog.Logger
}

var _ ports.AccountService = (*AccountService)(nil)

// NewAccountService wires the service. lock may be nil, in which case
// concurrent upgrades are serialised by the store alone.
func NewAccountService(
	store ports.CredentialStore,
	tokens ports.TokenService,
	hasher ports.PasswordHasher,
	lock ports.UpgradeLocker,
	opts AccountOptions,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		store:  store,
		tokens: tokens,
		hasher: hasher,
		lock:   lock,
		opts:   opts,
		log:    log,
	}
}

// Register creates a REGULAR account and signs the new user in.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) domain.Result[domain.AuthPayload] {
	email := s.normalizeEmail(in.Email)

	exists, err := s.store.EmailExists(ctx, email)
	if err != nil {
		return fail[domain.AuthPayload](s.log, "register", err, "Registration failed")
	}
	if exists {
		return domain.Fail[domain.AuthPayload](domain.ErrEmailTaken, "")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return fail[domain.AuthPayload](s.log, "register", err, "Registration failed")
	}

	now := time.Now().UTC()
	user, err := s.store.CreateUser(ctx, &domain.User{
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleRegular,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fail[domain.AuthPayload](s.log, "register", err, "Registration failed")
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return fail[domain.AuthPayload](s.log, "register", err, "Registration failed")
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return domain.Ok(domain.AuthPayload{TokenPair: pair, User: domain.NewProfile(user)}, "User registered successfully")
}

// Login verifies credentials and issues a fresh token pair. An unknown email
// and a wrong password are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, in ports.LoginInput) domain.Result[domain.AuthPayload] {
	user, err := s.store.FindUserByEmail(ctx, s.normalizeEmail(in.Email))
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Error().Err(err).Str("op", "login").Msg("user lookup failed")
		}
		return domain.Fail[domain.AuthPayload](domain.ErrInvalidCredentials, "")
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return domain.Fail[domain.AuthPayload](domain.ErrInvalidCredentials, "")
	}

	payload, err := s.signIn(ctx, user)
	if err != nil {
		s.log.Error().Err(err).Str("op", "login").Str("user_id", user.ID).Msg("sign-in failed")
		return domain.Fail[domain.AuthPayload](domain.ErrInvalidCredentials, "")
	}
	return domain.Ok(payload, "Login successful")
}

// GetProfile returns the profile of an already authenticated identity.
func (s *AccountService) GetProfile(ctx context.Context, email string) domain.Result[domain.Profile] {
	user, err := s.store.FindUserByEmail(ctx, s.normalizeEmail(email))
	if err != nil {
		return fail[domain.Profile](s.log, "get_profile", err, "Failed to retrieve profile")
	}

	profile, err := s.assembleProfile(ctx, user)
	if err != nil {
		return fail[domain.Profile](s.log, "get_profile", err, "Failed to retrieve profile")
	}
	return domain.Ok(profile, "Profile retrieved successfully")
}

// UpgradeToVendor promotes a REGULAR user to VENDOR and records the shop.
func (s *AccountService) UpgradeToVendor(ctx context.Context, email string, in ports.VendorUpgradeInput) domain.Result[domain.Profile] {
	const op = "upgrade_to_vendor"
	const fallback = "Failed to upgrade to vendor"

	user, err := s.store.FindUserByEmail(ctx, s.normalizeEmail(email))
	if err != nil {
		return fail[domain.Profile](s.log, op, err, fallback)
	}
	if !user.Role.CanUpgrade() {
		return domain.Fail[domain.Profile](domain.ErrAlreadyVendor, "")
	}

	exists, err := s.store.VendorExists(ctx, user.ID)
	if err != nil {
		return fail[domain.Profile](s.log, op, err, fallback)
	}
	if exists {
		return domain.Fail[domain.Profile](domain.ErrVendorExists, "")
	}

	if s.lock != nil {
		release, ok, err := s.lock.Acquire(ctx, user.ID)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("upgrade lock unavailable, relying on store")
		case !ok:
			return domain.Fail[domain.Profile](domain.ErrVendorExists, "")
		default:
			defer release()
		}
	}

	updated, vendor, err := s.store.PromoteToVendor(ctx, user.ID, &domain.Vendor{
		ShopName:        in.ShopName,
		BusinessAddress: in.BusinessAddress,
		PhoneNumber:     in.PhoneNumber,
		UserID:          user.ID,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		return fail[domain.Profile](s.log, op, err, fallback)
	}

	profile := domain.NewProfile(updated)
	profile.Vendor = domain.NewVendorProfile(vendor)

	s.log.Info().Str("user_id", updated.ID).Str("vendor_id", vendor.ID).Msg("user upgraded to vendor")
	return domain.Ok(profile, "Successfully upgraded to vendor")
}

// RefreshToken exchanges a valid refresh token for a new pair. The presented
// token stays usable until it expires.
func (s *AccountService) RefreshToken(ctx context.Context, refreshToken string) domain.Result[domain.AuthPayload] {
	email, err := s.tokens.ExtractRefreshIdentity(refreshToken)
	if err != nil {
		s.log.Debug().Err(err).Msg("refresh token rejected")
		return domain.Fail[domain.AuthPayload](domain.ErrInvalidRefreshToken, "")
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Error().Err(err).Str("op", "refresh_token").Msg("user lookup failed")
		}
		return domain.Fail[domain.AuthPayload](domain.ErrInvalidRefreshToken, "")
	}

	if !s.tokens.IsValidRefresh(refreshToken, user) {
		return domain.Fail[domain.AuthPayload](domain.ErrInvalidRefreshToken, "")
	}

	payload, err := s.signIn(ctx, user)
	if err != nil {
		return fail[domain.AuthPayload](s.log, "refresh_token", err, "Failed to refresh token")
	}
	return domain.Ok(payload, "Token refreshed successfully")
}

func (s *AccountService) signIn(ctx context.Context, user *domain.User) (domain.AuthPayload, error) {
	pair, err := s.tokens.Issue(user)
	if err != nil {
		return domain.AuthPayload{}, err
	}
	profile, err := s.assembleProfile(ctx, user)
	if err != nil {
		return domain.AuthPayload{}, err
	}
	return domain.AuthPayload{TokenPair: pair, User: profile}, nil
}

// assembleProfile builds the public view of user. A VENDOR without a vendor
// record yields a profile without the vendor block.
func (s *AccountService) assembleProfile(ctx context.Context, user *domain.User) (domain.Profile, error) {
	profile := domain.NewProfile(user)
	if user.Role != domain.RoleVendor {
		return profile, nil
	}

	vendor, err := s.store.FindVendorByUserID(ctx, user.ID)
	switch {
	case errors.Is(err, domain.ErrVendorNotFound):
		s.log.Warn().Str("user_id", user.ID).Msg("vendor role without vendor record")
		return profile, nil
	case err != nil:
		return domain.Profile{}, err
	}

	profile.Vendor = domain.NewVendorProfile(vendor)
	return profile, nil
}

// fail converts err into a failure envelope. Domain errors pass through with
// their own message; anything else is logged and hidden behind fallback.
func fail[T any](log zerolog.Logger, op string, err error, fallback string) domain.Result[T] {
	var de *domain.Error
	if !errors.As(err, &de) {
		log.Error().Err(err).Str("op", op).Msg("account operation failed")
	}
	return domain.Fail[T](err, fallback)
}

func (s *AccountService) normalizeEmail(email string) string {
	if !s.opts.CaseInsensitiveEmail {
		return email
	}
	return strings.ToLower(strings.TrimSpace(email))
}
