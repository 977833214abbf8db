package core_test

import (
	"context"
	"testing"

	"lotledger/internal/core"
)

func intPtr(n int) *int { return &n }

func TestUserCreateAndAuthenticate(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := core.NewUserService(pool)

	u, err := svc.Create(ctx, core.UserInput{
		LocationID: intPtr(1),
		Username:   "operator1",
		Password:   "s3cret-pass",
		Role:       core.RoleOperator,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.PasswordHash == "s3cret-pass" {
		t.Fatal("password stored in the clear")
	}

	got, err := svc.Authenticate(ctx, "operator1", "s3cret-pass")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("authenticated user = %d, want %d", got.ID, u.ID)
	}

	if _, err := svc.Authenticate(ctx, "operator1", "wrong"); core.KindOf(err) != core.KindForbidden {
		t.Errorf("bad password: got %v, want Forbidden", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "s3cret-pass"); core.KindOf(err) != core.KindForbidden {
		t.Errorf("unknown user: got %v, want Forbidden", err)
	}
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := core.NewUserService(pool)

	in := core.UserInput{
		LocationID: intPtr(1),
		Username:   "operator1",
		Password:   "s3cret-pass",
		Role:       core.RoleOperator,
	}
	if _, err := svc.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, in); core.KindOf(err) != core.KindConflict {
		t.Fatalf("duplicate username: got %v, want Conflict", err)
	}
}

func TestUserCreate_LocationRequiredBelowSuperAdmin(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := core.NewUserService(pool)

	_, err := svc.Create(ctx, core.UserInput{
		Username: "admin1",
		Password: "s3cret-pass",
		Role:     core.RoleAdmin,
	})
	if core.KindOf(err) != core.KindBadRequest {
		t.Errorf("admin without location: got %v, want BadRequest", err)
	}

	// super admins span all locations
	if _, err := svc.Create(ctx, core.UserInput{
		Username: "root1",
		Password: "s3cret-pass",
		Role:     core.RoleSuperAdmin,
	}); err != nil {
		t.Errorf("super admin without location: %v", err)
	}
}

func TestUserUpdate_RehashOnlyWhenPasswordChanges(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := core.NewUserService(pool)

	u, err := svc.Create(ctx, core.UserInput{
		LocationID: intPtr(1),
		Username:   "operator1",
		Password:   "s3cret-pass",
		Role:       core.RoleOperator,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// empty password means keep the old one
	if _, err := svc.Update(ctx, u.ID, core.UserInput{
		Username: "operator1-renamed",
		Role:     core.RoleOperator,
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "operator1-renamed", "s3cret-pass"); err != nil {
		t.Errorf("old password should still work: %v", err)
	}

	if _, err := svc.Update(ctx, u.ID, core.UserInput{
		Username: "operator1-renamed",
		Password: "new-pass",
		Role:     core.RoleOperator,
	}); err != nil {
		t.Fatalf("Update password: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "operator1-renamed", "new-pass"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}
