package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/yuriscavalcante/rh360/internal/credential/domain"
	credrepo "github.com/yuriscavalcante/rh360/internal/credential/repository"
	credservice "github.com/yuriscavalcante/rh360/internal/credential/service"
	"github.com/yuriscavalcante/rh360/internal/db"
	"github.com/yuriscavalcante/rh360/internal/db/dbtest"
	"github.com/yuriscavalcante/rh360/internal/security"
)

var baseTime = time.Unix(1_700_000_000, 0).UTC()

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

var alice = domain.Principal{ID: "u-alice", Email: "alice@example.com", Role: "admin"}

type fixture struct {
	conn  *sql.DB
	clock *fakeClock
	codec *security.Codec
	auth  *Authority
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	clock := &fakeClock{now: baseTime}
	codec := security.NewTestCodec(clock.Now)
	verifier := credservice.NewVerifier(codec, credrepo.NewSQLRepository(conn, db.DialectSQLite), time.Second, credservice.Observers{})
	return &fixture{conn: conn, clock: clock, codec: codec, auth: NewAuthority(verifier, 24*time.Hour, credservice.Observers{})}
}

func (f *fixture) login(t *testing.T, p domain.Principal) string {
	t.Helper()
	issued, err := f.auth.Login(context.Background(), p)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return issued.Token
}

func (f *fixture) validate(t *testing.T, token string) credservice.Result {
	t.Helper()
	res, err := f.auth.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return res
}

func (f *fixture) activeSessions(t *testing.T, owner string) int {
	t.Helper()
	var n int
	if err := f.conn.QueryRow(`SELECT COUNT(*) FROM credentials WHERE owner_id = ? AND class = 'session' AND active = 1`, owner).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestLogin_ReturnsValidCredential(t *testing.T) {
	f := newFixture(t)
	issued, err := f.auth.Login(context.Background(), alice)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !issued.ExpiresAt.Equal(baseTime.Add(24 * time.Hour)) {
		t.Errorf("ExpiresAt = %v, want %v", issued.ExpiresAt, baseTime.Add(24*time.Hour))
	}
	res := f.validate(t, issued.Token)
	if !res.OK() {
		t.Fatalf("reason = %v, want none", res.Reason)
	}
	if diff := cmp.Diff(alice, res.Principal); diff != "" {
		t.Errorf("principal mismatch (-want +got):\n%s", diff)
	}
}

func TestLogin_RequiresPrincipalID(t *testing.T) {
	f := newFixture(t)
	if _, err := f.auth.Login(context.Background(), domain.Principal{Email: "x@example.com"}); err == nil {
		t.Fatal("expected error for empty principal id")
	}
}

func TestLogin_SecondLoginRevokesFirst(t *testing.T) {
	f := newFixture(t)
	first := f.login(t, alice)
	second := f.login(t, alice)

	if res := f.validate(t, first); res.Reason != domain.ReasonInactive {
		t.Errorf("first token reason = %v, want inactive", res.Reason)
	}
	if res := f.validate(t, second); !res.OK() {
		t.Errorf("second token reason = %v, want none", res.Reason)
	}
	if n := f.activeSessions(t, alice.ID); n != 1 {
		t.Errorf("active sessions = %d, want 1", n)
	}
}

func TestLogin_OtherPrincipalsUnaffected(t *testing.T) {
	f := newFixture(t)
	bob := domain.Principal{ID: "u-bob", Email: "bob@example.com", Role: "user"}
	bobToken := f.login(t, bob)
	f.login(t, alice)
	if res := f.validate(t, bobToken); !res.OK() {
		t.Errorf("bob reason = %v, want none", res.Reason)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, alice)
	ctx := context.Background()

	if err := f.auth.Logout(ctx, token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if res := f.validate(t, token); res.Reason != domain.ReasonInactive {
		t.Errorf("after logout reason = %v, want inactive", res.Reason)
	}
	if err := f.auth.Logout(ctx, token); err != nil {
		t.Errorf("second Logout: %v", err)
	}
	if err := f.auth.Logout(ctx, ""); err != nil {
		t.Errorf("Logout(empty): %v", err)
	}
	if err := f.auth.Logout(ctx, "never-issued"); err != nil {
		t.Errorf("Logout(unknown): %v", err)
	}
}

func TestValidate_TTLBoundary(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, alice)

	f.clock.now = baseTime.Add(24*time.Hour - time.Second)
	if res := f.validate(t, token); !res.OK() {
		t.Errorf("before expiry reason = %v, want none", res.Reason)
	}
	f.clock.now = baseTime.Add(24*time.Hour + time.Second)
	if res := f.validate(t, token); res.Reason != domain.ReasonExpired {
		t.Errorf("after expiry reason = %v, want expired", res.Reason)
	}
}

func TestValidate_RejectsHandoffCredential(t *testing.T) {
	f := newFixture(t)
	token, exp, err := f.codec.Issue(security.NewClaims(alice.ID, alice.Email, alice.Role, security.ClassHandoff), 15*time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	repo := credrepo.NewSQLRepository(f.conn, db.DialectSQLite)
	if err := repo.InsertOrUpdate(context.Background(), &domain.Record{
		Token: token, OwnerID: alice.ID, Class: domain.ClassHandoff, Active: true, ExpiresAt: exp,
	}); err != nil {
		t.Fatalf("InsertOrUpdate: %v", err)
	}
	if res := f.validate(t, token); res.Reason != domain.ReasonClassMismatch {
		t.Errorf("reason = %v, want class_mismatch", res.Reason)
	}
}

func TestValidate_TamperedSignature(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, alice)
	tampered := token[:len(token)-2] + flip(token[len(token)-2]) + token[len(token)-1:]
	if res := f.validate(t, tampered); res.Reason != domain.ReasonInvalidSignature {
		t.Errorf("reason = %v, want invalid_signature", res.Reason)
	}
	if res := f.validate(t, token); !res.OK() {
		t.Errorf("original token reason = %v, want none", res.Reason)
	}
}

func flip(c byte) string {
	if c == 'A' {
		return "B"
	}
	return "A"
}

func TestLogin_ConcurrentLeavesOneActive(t *testing.T) {
	f := newFixture(t)
	const n = 8
	tokens := make([]string, n)
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			issued, err := f.auth.Login(context.Background(), alice)
			if err != nil {
				errs <- err
				return
			}
			tokens[i] = issued.Token
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Login: %v", err)
	}

	if got := f.activeSessions(t, alice.ID); got != 1 {
		t.Fatalf("active sessions = %d, want 1", got)
	}
	valid := 0
	for _, tok := range tokens {
		if f.validate(t, tok).OK() {
			valid++
		}
	}
	if valid != 1 {
		t.Errorf("valid tokens = %d, want 1", valid)
	}
}

func TestRevokeAll(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, alice)
	n, err := f.auth.RevokeAll(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}
	if n != 1 {
		t.Errorf("revoked = %d, want 1", n)
	}
	if res := f.validate(t, token); res.Reason != domain.ReasonInactive {
		t.Errorf("reason = %v, want inactive", res.Reason)
	}
}

func TestExtractClaims(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, alice)

	id, err := f.auth.ExtractPrincipalID(token)
	if err != nil || id != alice.ID {
		t.Errorf("ExtractPrincipalID = %q, %v; want %q", id, err, alice.ID)
	}
	email, err := f.auth.ExtractEmail(token)
	if err != nil || email != alice.Email {
		t.Errorf("ExtractEmail = %q, %v; want %q", email, err, alice.Email)
	}
	role, err := f.auth.ExtractRole(token)
	if err != nil || role != alice.Role {
		t.Errorf("ExtractRole = %q, %v; want %q", role, err, alice.Role)
	}
	if _, err := f.auth.ExtractPrincipalID("garbage"); !errors.Is(err, security.ErrMalformed) {
		t.Errorf("ExtractPrincipalID(garbage) err = %v, want ErrMalformed", err)
	}
}

func TestLedgerFailureIsUnavailable(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, alice)
	f.conn.Close()

	if _, err := f.auth.Login(context.Background(), alice); !errors.Is(err, credservice.ErrUnavailable) {
		t.Errorf("Login err = %v, want ErrUnavailable", err)
	}
	if _, err := f.auth.Validate(context.Background(), token); !errors.Is(err, credservice.ErrUnavailable) {
		t.Errorf("Validate err = %v, want ErrUnavailable", err)
	}
	if err := f.auth.Logout(context.Background(), token); !errors.Is(err, credservice.ErrUnavailable) {
		t.Errorf("Logout err = %v, want ErrUnavailable", err)
	}
}
