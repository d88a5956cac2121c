package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/yuriscavalcante/rh360/internal/db"
	"github.com/yuriscavalcante/rh360/internal/db/dbtest"
	"github.com/yuriscavalcante/rh360/internal/identity/domain"
)

func TestSQLRepository_CreateAndGet(t *testing.T) {
	conn := dbtest.Open(t)
	t0 := time.Unix(1_700_000_000, 0).UTC()
	if _, err := conn.Exec(`INSERT INTO users (id, email, name, role, status, created_at, updated_at) VALUES ('u1', 'a@example.com', '', 'user', 'active', ?, ?)`, t0, t0); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	r := NewSQLRepository(conn, db.DialectSQLite)
	ctx := context.Background()

	want := &domain.Identity{
		ID: "i1", UserID: "u1", Provider: domain.IdentityProviderLocal,
		ProviderID: "a@example.com", PasswordHash: "$2a$04$hash", CreatedAt: t0,
	}
	if err := r.Create(ctx, want); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := r.GetByUserAndProvider(ctx, "u1", domain.IdentityProviderLocal)
	if err != nil {
		t.Fatalf("GetByUserAndProvider: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("identity mismatch (-want +got):\n%s", diff)
	}

	missing, err := r.GetByUserAndProvider(ctx, "u1", domain.IdentityProviderOIDC)
	if err != nil || missing != nil {
		t.Errorf("missing provider = %v, %v; want nil, nil", missing, err)
	}
	if err := r.Create(ctx, &domain.Identity{ID: "i2", UserID: "u1", Provider: domain.IdentityProviderLocal}); !db.IsUniqueViolation(err) {
		t.Errorf("second local identity err = %v, want unique violation", err)
	}
}

func TestSQLRepository_CreateRequiresIDs(t *testing.T) {
	r := NewSQLRepository(dbtest.Open(t), db.DialectSQLite)
	if err := r.Create(context.Background(), &domain.Identity{UserID: "u1"}); err == nil {
		t.Fatal("expected error without id")
	}
}
