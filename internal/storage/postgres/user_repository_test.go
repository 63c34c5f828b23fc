package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/fooddash/api/internal/domain"
	"github.com/fooddash/api/internal/testutil"
)

func TestUserRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewUserRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("CreateUser and FindByIdentifier round trip", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		created, err := repo.CreateUser(ctx, domain.AppUser{
			ID:           uuid.NewString(),
			PhoneOrEmail: "user@x.com",
			Role:         domain.RoleCustomer,
		})
		if err != nil {
			t.Fatalf("create user: %v", err)
		}
		if created.CreatedAt.IsZero() {
			t.Fatalf("expected created_at to be set")
		}

		found, err := repo.FindByIdentifier(ctx, "user@x.com")
		if err != nil {
			t.Fatalf("find user: %v", err)
		}
		if found == nil {
			t.Fatalf("expected user")
		}
		if found.ID != created.ID || found.Role != domain.RoleCustomer || found.PasswordHash != "" {
			t.Fatalf("unexpected user: %+v", found)
		}
	})

	t.Run("FindByIdentifier returns nil for unknown identifier", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		found, err := repo.FindByIdentifier(ctx, "ghost@x.com")
		if err != nil {
			t.Fatalf("find user: %v", err)
		}
		if found != nil {
			t.Fatalf("expected nil, got %+v", found)
		}
	})

	t.Run("duplicate identifier maps to ErrUserExists", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		_, err := repo.CreateUser(ctx, domain.AppUser{
			ID:           uuid.NewString(),
			PhoneOrEmail: "user@x.com",
			Role:         domain.RoleCustomer,
		})
		if err != nil {
			t.Fatalf("create user: %v", err)
		}

		_, err = repo.CreateUser(ctx, domain.AppUser{
			ID:           uuid.NewString(),
			PhoneOrEmail: "user@x.com",
			Role:         domain.RoleCustomer,
		})
		if err != domain.ErrUserExists {
			t.Fatalf("expected ErrUserExists, got %v", err)
		}
	})

	t.Run("EnsureAdmin upserts role and secret", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		if err := repo.EnsureAdmin(ctx, uuid.NewString(), "admin", "first"); err != nil {
			t.Fatalf("ensure admin: %v", err)
		}
		if err := repo.EnsureAdmin(ctx, uuid.NewString(), "admin", "second"); err != nil {
			t.Fatalf("ensure admin again: %v", err)
		}

		admin, err := repo.FindByIdentifier(ctx, "admin")
		if err != nil {
			t.Fatalf("find admin: %v", err)
		}
		if admin == nil || admin.Role != domain.RoleAdmin {
			t.Fatalf("expected admin user, got %+v", admin)
		}
		if admin.PasswordHash != "second" {
			t.Fatalf("expected updated secret, got %q", admin.PasswordHash)
		}
	})
}
