package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/femmie/marketplace/internal/core/domain"
	"github.com/femmie/marketplace/internal/core/ports"
)

const (
	uniqueViolation = "23505"

	constraintUserEmail   = "users_email_key"
	constraintVendorOwner = "vendors_user_id_key"

	userColumns = `id, name, email, password_hash, role, created_at, updated_at`
)

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

var _ ports.CredentialStore = (*CredentialStore)(nil)

// CredentialStore implements ports.CredentialStore on PostgreSQL.
type CredentialStore struct {
	db DB
}

func NewCredentialStore(db DB) *CredentialStore {
	return &CredentialStore{db: db}
}

func (r *CredentialStore) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + userColumns

	saved, err := scanUser(r.db.QueryRow(ctx, query,
		uuid.NewString(), user.Name, user.Email, user.PasswordHash, string(user.Role),
		user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err, constraintUserEmail) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return saved, nil
}

func (r *CredentialStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

func (r *CredentialStore) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}

func (r *CredentialStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	if err := r.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

func (r *CredentialStore) FindVendorByUserID(ctx context.Context, userID string) (*domain.Vendor, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, domain.ErrVendorNotFound
	}
	query := `SELECT id, shop_name, business_address, phone_number, user_id, created_at
			  FROM vendors WHERE user_id = $1`

	v, err := scanVendor(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVendorNotFound
		}
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}
	return v, nil
}

func (r *CredentialStore) VendorExists(ctx context.Context, userID string) (bool, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return false, nil
	}
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM vendors WHERE user_id = $1)`
	if err := r.db.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check vendor: %w", err)
	}
	return exists, nil
}

// PromoteToVendor locks the user row, flips its role and inserts the vendor
// in one transaction. Concurrent callers queue on the row lock and see
// VENDOR once the winner commits.
func (r *CredentialStore) PromoteToVendor(ctx context.Context, userID string, vendor *domain.Vendor) (*domain.User, *domain.Vendor, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, nil, domain.ErrUserNotFound
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var role string
	err = tx.QueryRow(ctx, `SELECT role FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, domain.ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to lock user: %w", err)
	}
	if !domain.Role(role).CanUpgrade() {
		return nil, nil, domain.ErrVendorExists
	}

	user, err := scanUser(tx.QueryRow(ctx,
		`UPDATE users SET role = $2, updated_at = $3 WHERE id = $1 RETURNING `+userColumns,
		userID, string(domain.RoleVendor), time.Now().UTC(),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update role: %w", err)
	}

	saved, err := scanVendor(tx.QueryRow(ctx,
		`INSERT INTO vendors (id, shop_name, business_address, phone_number, user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, shop_name, business_address, phone_number, user_id, created_at`,
		uuid.NewString(), vendor.ShopName, vendor.BusinessAddress, vendor.PhoneNumber, userID, vendor.CreatedAt,
	))
	if err != nil {
		if isUniqueViolation(err, constraintVendorOwner) {
			return nil, nil, domain.ErrVendorExists
		}
		return nil, nil, fmt.Errorf("failed to create vendor: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit promotion: %w", err)
	}
	return user, saved, nil
}

func (r *CredentialStore) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func scanVendor(row pgx.Row) (*domain.Vendor, error) {
	var v domain.Vendor
	if err := row.Scan(&v.ID, &v.ShopName, &v.BusinessAddress, &v.PhoneNumber, &v.UserID, &v.CreatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}
