package security

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var baseTime = time.Unix(1_700_000_000, 0).UTC()

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func TestNewCodec_MissingSecret(t *testing.T) {
	for _, secret := range []string{"", "   "} {
		if _, err := NewCodec(CodecConfig{Secret: secret}); !errors.Is(err, ErrConfig) {
			t.Errorf("NewCodec(%q): err = %v, want ErrConfig", secret, err)
		}
	}
	var nilCodec *Codec
	if _, _, err := nilCodec.Issue(NewClaims("u1", "a@b.c", "user", ClassSession), time.Minute); !errors.Is(err, ErrConfig) {
		t.Errorf("nil codec Issue: err = %v, want ErrConfig", err)
	}
}

func TestCodec_IssueVerifyRoundTrip(t *testing.T) {
	clock := &fakeClock{now: baseTime}
	c := NewTestCodec(clock.Now)

	token, expiresAt, err := c.Issue(NewClaims("u1", "u1@example.com", "admin", ClassSession), time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if strings.ContainsAny(token, "+/= ") {
		t.Errorf("token %q is not URL-safe", token)
	}
	if !expiresAt.Equal(baseTime.Add(time.Hour)) {
		t.Errorf("expiresAt = %v, want %v", expiresAt, baseTime.Add(time.Hour))
	}

	claims, err := c.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.PrincipalID() != "u1" || claims.Email != "u1@example.com" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Class != ClassSession {
		t.Errorf("Class = %q, want %q", claims.Class, ClassSession)
	}
	if claims.Version != ClaimsVersion {
		t.Errorf("Version = %d, want %d", claims.Version, ClaimsVersion)
	}
	if claims.Issuer != TestIssuer {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, TestIssuer)
	}
	if claims.ID == "" {
		t.Error("jti should be set")
	}
}

func TestCodec_IssueUniqueTokens(t *testing.T) {
	c := NewTestCodec(func() time.Time { return baseTime })
	a, _, _ := c.Issue(NewClaims("u1", "e@x", "user", ClassSession), time.Hour)
	b, _, _ := c.Issue(NewClaims("u1", "e@x", "user", ClassSession), time.Hour)
	if a == b {
		t.Error("two issuances in the same second produced the same token")
	}
}

func TestCodec_IssueRejectsBadInput(t *testing.T) {
	c := NewTestCodec(nil)
	if _, _, err := c.Issue(NewClaims("u1", "e@x", "user", ClassSession), 0); err == nil {
		t.Error("zero ttl should fail")
	}
	if _, _, err := c.Issue(NewClaims("", "e@x", "user", ClassSession), time.Minute); !errors.Is(err, ErrMalformed) {
		t.Errorf("missing subject: err = %v, want ErrMalformed", err)
	}
	if _, _, err := c.Issue(NewClaims("u1", "e@x", "user", "refresh"), time.Minute); !errors.Is(err, ErrMalformed) {
		t.Errorf("unknown class: err = %v, want ErrMalformed", err)
	}
}

func TestCodec_TTLBoundary(t *testing.T) {
	for _, ttl := range []time.Duration{15 * time.Minute, 24 * time.Hour, 5 * time.Second} {
		clock := &fakeClock{now: baseTime}
		c := NewTestCodec(clock.Now)
		token, _, err := c.Issue(NewClaims("u1", "e@x", "user", ClassHandoff), ttl)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}

		clock.now = baseTime.Add(ttl - time.Second)
		if _, err := c.Verify(token); err != nil {
			t.Errorf("ttl %v: Verify just before expiry: %v", ttl, err)
		}
		clock.now = baseTime.Add(ttl + time.Second)
		if _, err := c.Verify(token); !errors.Is(err, ErrExpired) {
			t.Errorf("ttl %v: Verify just after expiry: err = %v, want ErrExpired", ttl, err)
		}
	}
}

func TestCodec_TamperedSignature(t *testing.T) {
	c := NewTestCodec(func() time.Time { return baseTime })
	token, _, err := c.Issue(NewClaims("u1", "e@x", "user", ClassSession), time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := c.Verify(tamperSignature(token)); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Verify(tampered): err = %v, want ErrInvalidSignature", err)
	}
}

func TestCodec_TamperedAndExpiredReportsSignature(t *testing.T) {
	clock := &fakeClock{now: baseTime}
	c := NewTestCodec(clock.Now)
	token, _, _ := c.Issue(NewClaims("u1", "e@x", "user", ClassSession), time.Minute)
	clock.now = baseTime.Add(time.Hour)
	if _, err := c.Verify(tamperSignature(token)); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestCodec_WrongSecretOrIssuer(t *testing.T) {
	now := func() time.Time { return baseTime }
	c := NewTestCodec(now)
	token, _, _ := c.Issue(NewClaims("u1", "e@x", "user", ClassSession), time.Hour)

	other, _ := NewCodec(CodecConfig{Secret: "another-secret", Issuer: TestIssuer}, WithClock(now))
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("other secret: err = %v, want ErrInvalidSignature", err)
	}
	otherIss, _ := NewCodec(CodecConfig{Secret: TestSecret, Issuer: "someone-else"}, WithClock(now))
	if _, err := otherIss.Verify(token); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("other issuer: err = %v, want ErrInvalidSignature", err)
	}
}

func TestCodec_RejectsOtherAlgorithms(t *testing.T) {
	claims := NewClaims("u1", "e@x", "user", ClassSession)
	claims.Version = ClaimsVersion
	claims.ID = "jti"
	claims.Issuer = TestIssuer
	claims.IssuedAt = jwt.NewNumericDate(baseTime)
	claims.ExpiresAt = jwt.NewNumericDate(baseTime.Add(time.Hour))

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(TestSecret))
	if err != nil {
		t.Fatalf("sign hs512: %v", err)
	}

	c := NewTestCodec(func() time.Time { return baseTime })
	for name, token := range map[string]string{"none": none, "HS512": hs512} {
		if _, err := c.Verify(token); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("%s: err = %v, want ErrInvalidSignature", name, err)
		}
	}
}

func TestCodec_MissingOrUnknownFieldsFailClosed(t *testing.T) {
	now := func() time.Time { return baseTime }
	c := NewTestCodec(now)

	sign := func(payload map[string]interface{}) string {
		t.Helper()
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(payload)).SignedString([]byte(TestSecret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return tok
	}
	valid := func() map[string]interface{} {
		return map[string]interface{}{
			"sub": "u1", "email": "e@x", "role": "user", "cls": ClassSession, "ver": ClaimsVersion,
			"jti": "abc", "iss": TestIssuer, "iat": baseTime.Unix(), "exp": baseTime.Add(time.Hour).Unix(),
		}
	}

	if _, err := c.Verify(sign(valid())); err != nil {
		t.Fatalf("baseline payload should verify: %v", err)
	}

	for _, field := range []string{"sub", "email", "role", "cls", "ver", "jti", "iat", "exp"} {
		p := valid()
		delete(p, field)
		if _, err := c.Verify(sign(p)); !errors.Is(err, ErrMalformed) {
			t.Errorf("missing %s: err = %v, want ErrMalformed", field, err)
		}
	}

	p := valid()
	p["userId"] = "u1"
	if _, err := c.Verify(sign(p)); !errors.Is(err, ErrMalformed) {
		t.Errorf("unknown field: err = %v, want ErrMalformed", err)
	}

	p = valid()
	p["ver"] = 2
	if _, err := c.Verify(sign(p)); !errors.Is(err, ErrMalformed) {
		t.Errorf("future version: err = %v, want ErrMalformed", err)
	}
}

func TestCodec_VerifyGarbage(t *testing.T) {
	c := NewTestCodec(nil)
	for _, token := range []string{"", "abc", "a.b.c", "   "} {
		if _, err := c.Verify(token); !errors.Is(err, ErrMalformed) {
			t.Errorf("Verify(%q): err = %v, want ErrMalformed", token, err)
		}
	}
}

func TestCodec_DecodeUnsafe(t *testing.T) {
	clock := &fakeClock{now: baseTime}
	c := NewTestCodec(clock.Now)
	token, _, _ := c.Issue(NewClaims("u1", "e@x", "user", ClassHandoff), time.Minute)

	clock.now = baseTime.Add(time.Hour)
	claims, err := c.DecodeUnsafe(tamperSignature(token))
	if err != nil {
		t.Fatalf("DecodeUnsafe: %v", err)
	}
	if claims.PrincipalID() != "u1" || claims.Class != ClassHandoff {
		t.Errorf("claims = %+v", claims)
	}
	if _, err := c.DecodeUnsafe("not-a-token"); !errors.Is(err, ErrMalformed) {
		t.Errorf("DecodeUnsafe(garbage): err = %v, want ErrMalformed", err)
	}
}

// tamperSignature flips one character of the signature segment.
func tamperSignature(token string) string {
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	parts[2] = string(sig)
	return strings.Join(parts, ".")
}

func TestTamperSignatureKeepsPayload(t *testing.T) {
	c := NewTestCodec(nil)
	token, _, _ := c.Issue(NewClaims("u1", "e@x", "user", ClassSession), time.Minute)
	tampered := tamperSignature(token)
	if tampered == token {
		t.Fatal("tamperSignature did not change the token")
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.Split(tampered, ".")[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(payload, &m); err != nil {
		t.Fatalf("payload json: %v", err)
	}
	if m["sub"] != "u1" {
		t.Errorf("payload sub = %v, want u1", m["sub"])
	}
}
