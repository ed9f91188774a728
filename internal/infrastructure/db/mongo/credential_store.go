package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/femmie/marketplace/internal/core/domain"
	"github.com/femmie/marketplace/internal/core/ports"
)

const (
	usersCollection   = "users"
	vendorsCollection = "vendors"
)

var _ ports.CredentialStore = (*CredentialStore)(nil)

// CredentialStore implements ports.CredentialStore on MongoDB.
type CredentialStore struct {
	db      *mongo.Database
	users   *mongo.Collection
	vendors *mongo.Collection
}

func NewCredentialStore(db *mongo.Database) *CredentialStore {
	return &CredentialStore{
		db:      db,
		users:   db.Collection(usersCollection),
		vendors: db.Collection(vendorsCollection),
	}
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
}

type mongoVendor struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	ShopName        string             `bson:"shop_name"`
	BusinessAddress string             `bson:"business_address"`
	PhoneNumber     string             `bson:"phone_number"`
	UserID          primitive.ObjectID `bson:"user_id"`
	CreatedAt       int64              `bson:"created_at"`
}

func (r *CredentialStore) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoUser{
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt.Unix(),
		UpdatedAt:    user.UpdatedAt.Unix(),
	}

	res, err := r.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *CredentialStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findUser(ctx, bson.M{"email": email})
}

func (r *CredentialStore) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findUser(ctx, bson.M{"_id": oid})
}

func (r *CredentialStore) EmailExists(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.users.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

func (r *CredentialStore) FindVendorByUserID(ctx context.Context, userID string) (*domain.Vendor, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrVendorNotFound
	}

	var mv mongoVendor
	if err := r.vendors.FindOne(ctx, bson.M{"user_id": oid}).Decode(&mv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrVendorNotFound
		}
		return nil, fmt.Errorf("find vendor: %w", err)
	}
	return mv.toDomain(), nil
}

func (r *CredentialStore) VendorExists(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, nil
	}

	n, err := r.vendors.CountDocuments(ctx, bson.M{"user_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count vendors: %w", err)
	}
	return n > 0, nil
}

type promotion struct {
	user   *domain.User
	vendor *domain.Vendor
}

// PromoteToVendor runs the role flip and vendor insert in one transaction. The
// role update only matches a REGULAR user, so a concurrent winner leaves the
// loser with nothing to update; the unique index on vendors.user_id is the
// second line of defence.
func (r *CredentialStore) PromoteToVendor(ctx context.Context, userID string, vendor *domain.Vendor) (*domain.User, *domain.Vendor, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil, domain.ErrUserNotFound
	}

	sess, err := r.db.Client().StartSession()
	if err != nil {
		return nil, nil, fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	out, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		now := time.Now().UTC()

		var mu mongoUser
		err := r.users.FindOneAndUpdate(sc,
			bson.M{"_id": oid, "role": string(domain.RoleRegular)},
			bson.M{"$set": bson.M{"role": string(domain.RoleVendor), "updated_at": now.Unix()}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&mu)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, domain.ErrVendorExists
			}
			return nil, fmt.Errorf("update role: %w", err)
		}

		mv := mongoVendor{
			ShopName:        vendor.ShopName,
			BusinessAddress: vendor.BusinessAddress,
			PhoneNumber:     vendor.PhoneNumber,
			UserID:          oid,
			CreatedAt:       vendor.CreatedAt.Unix(),
		}
		res, err := r.vendors.InsertOne(sc, mv)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrVendorExists
			}
			return nil, fmt.Errorf("insert vendor: %w", err)
		}
		if vid, ok := res.InsertedID.(primitive.ObjectID); ok {
			mv.ID = vid
		}

		return promotion{user: mu.toDomain(), vendor: mv.toDomain()}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	p := out.(promotion)
	return p.user, p.vendor, nil
}

func (r *CredentialStore) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}

func (r *CredentialStore) findUser(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.users.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (mu mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:           mu.ID.Hex(),
		Name:         mu.Name,
		Email:        mu.Email,
		PasswordHash: mu.PasswordHash,
		Role:         domain.Role(mu.Role),
		CreatedAt:    unixToTime(mu.CreatedAt),
		UpdatedAt:    unixToTime(mu.UpdatedAt),
	}
}

func (mv mongoVendor) toDomain() *domain.Vendor {
	return &domain.Vendor{
		ID:              mv.ID.Hex(),
		ShopName:        mv.ShopName,
		BusinessAddress: mv.BusinessAddress,
		PhoneNumber:     mv.PhoneNumber,
		UserID:          mv.UserID.Hex(),
		CreatedAt:       unixToTime(mv.CreatedAt),
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
