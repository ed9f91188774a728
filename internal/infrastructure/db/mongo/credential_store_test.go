package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/femmie/marketplace/internal/core/domain"
)

func userDoc(id primitive.ObjectID, role domain.Role) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Ann"},
		{Key: "email", Value: "ann@x.com"},
		{Key: "password_hash", Value: "$2a$hash"},
		{Key: "role", Value: string(role)},
		{Key: "created_at", Value: int64(1700000000)},
		{Key: "updated_at", Value: int64(1700000000)},
	}
}

func TestCredentialStore_FindUserByEmail(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "marketplace.users", mtest.FirstBatch, userDoc(id, domain.RoleRegular)))

		u, err := store.FindUserByEmail(context.Background(), "ann@x.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.ID != id.Hex() || u.Email != "ann@x.com" || u.Role != domain.RoleRegular {
			t.Fatalf("unexpected user: %+v", u)
		}
		if !u.CreatedAt.Equal(time.Unix(1700000000, 0)) {
			t.Errorf("unexpected created_at: %v", u.CreatedAt)
		}
	})

	mt.Run("not found", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "marketplace.users", mtest.FirstBatch))

		if _, err := store.FindUserByEmail(context.Background(), "ghost@x.com"); !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestCredentialStore_FindUserByID_InvalidHex(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("invalid id", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)
		if _, err := store.FindUserByID(context.Background(), "not-hex"); !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestCredentialStore_CreateUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		now := time.Now().UTC()
		u, err := store.CreateUser(context.Background(), &domain.User{
			Name: "Ann", Email: "ann@x.com", PasswordHash: "h", Role: domain.RoleRegular,
			CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.ID == "" || u.ID == primitive.NilObjectID.Hex() {
			t.Fatalf("expected generated id, got %q", u.ID)
		}
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: marketplace.users index: uniq_email",
		}))

		_, err := store.CreateUser(context.Background(), &domain.User{Email: "ann@x.com", Role: domain.RoleRegular})
		if !errors.Is(err, domain.ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})
}

func TestCredentialStore_FindVendorByUserID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		userID := primitive.NewObjectID()
		vendorID := primitive.NewObjectID()
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "marketplace.vendors", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: vendorID},
			{Key: "shop_name", Value: "Ann's Shop"},
			{Key: "business_address", Value: "1 Main St"},
			{Key: "phone_number", Value: "555-0100"},
			{Key: "user_id", Value: userID},
			{Key: "created_at", Value: int64(1700000000)},
		}))

		v, err := store.FindVendorByUserID(context.Background(), userID.Hex())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.ID != vendorID.Hex() || v.UserID != userID.Hex() || v.ShopName != "Ann's Shop" {
			t.Fatalf("unexpected vendor: %+v", v)
		}
	})

	mt.Run("missing", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "marketplace.vendors", mtest.FirstBatch))

		if _, err := store.FindVendorByUserID(context.Background(), primitive.NewObjectID().Hex()); !errors.Is(err, domain.ErrVendorNotFound) {
			t.Fatalf("expected ErrVendorNotFound, got %v", err)
		}
	})
}

func TestUnixToTime(t *testing.T) {
	if !unixToTime(0).IsZero() {
		t.Errorf("expected zero time for 0")
	}
	if got := unixToTime(1700000000); got.Location() != time.UTC {
		t.Errorf("expected UTC, got %v", got.Location())
	}
}

func TestCredentialStore_EmailExists(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("taken", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "marketplace.users", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}))

		ok, err := store.EmailExists(context.Background(), "ann@x.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatalf("expected email to exist")
		}
	})

	mt.Run("free", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "marketplace.users", mtest.FirstBatch))

		ok, err := store.EmailExists(context.Background(), "new@x.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Fatalf("expected email to be free")
		}
	})
}

func TestCredentialStore_VendorExists(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("exists", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "marketplace.vendors", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}))

		ok, err := store.VendorExists(context.Background(), primitive.NewObjectID().Hex())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatalf("expected vendor to exist")
		}
	})

	mt.Run("invalid id", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)

		ok, err := store.VendorExists(context.Background(), "not-hex")
		if err != nil || ok {
			t.Fatalf("expected (false, nil), got (%v, %v)", ok, err)
		}
	})
}

func TestCredentialStore_PromoteToVendor(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	vendor := func() *domain.Vendor {
		return &domain.Vendor{
			ShopName:        "Ann's Shop",
			BusinessAddress: "1 Main St",
			PhoneNumber:     "555-0100",
			CreatedAt:       time.Unix(1700000100, 0),
		}
	}

	mt.Run("success", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: userDoc(id, domain.RoleVendor)}),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)

		u, v, err := store.PromoteToVendor(context.Background(), id.Hex(), vendor())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.ID != id.Hex() || u.Role != domain.RoleVendor {
			t.Fatalf("unexpected user: %+v", u)
		}
		if v.UserID != id.Hex() || v.ShopName != "Ann's Shop" || v.ID == primitive.NilObjectID.Hex() {
			t.Fatalf("unexpected vendor: %+v", v)
		}
	})

	mt.Run("lost race", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateSuccessResponse(),
		)

		_, _, err := store.PromoteToVendor(context.Background(), primitive.NewObjectID().Hex(), vendor())
		if !errors.Is(err, domain.ErrVendorExists) {
			t.Fatalf("expected ErrVendorExists, got %v", err)
		}
	})

	mt.Run("duplicate vendor", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: userDoc(id, domain.RoleVendor)}),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index:   0,
				Code:    11000,
				Message: "E11000 duplicate key error collection: marketplace.vendors index: uniq_vendor_owner",
			}),
			mtest.CreateSuccessResponse(),
		)

		_, _, err := store.PromoteToVendor(context.Background(), id.Hex(), vendor())
		if !errors.Is(err, domain.ErrVendorExists) {
			t.Fatalf("expected ErrVendorExists, got %v", err)
		}
	})

	mt.Run("invalid id", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)

		_, _, err := store.PromoteToVendor(context.Background(), "not-hex", vendor())
		if !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}
