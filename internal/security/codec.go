package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimsVersion is the current claims schema version. Tokens carrying any other version are rejected.
const ClaimsVersion = 1

// Credential classes carried in the cls claim.
const (
	ClassSession = "session"
	ClassHandoff = "handoff"
)

var (
	// ErrConfig is returned when the codec has no signing secret.
	ErrConfig = errors.New("security: signing secret is not configured")
	// ErrMalformed is returned when a token cannot be decoded or misses a required claim.
	ErrMalformed = errors.New("security: malformed token")
	// ErrInvalidSignature is returned when the signature does not verify or the algorithm or issuer is not ours.
	ErrInvalidSignature = errors.New("security: invalid token signature")
	// ErrExpired is returned when the token is past its exp claim.
	ErrExpired = errors.New("security: token expired")
)

// Claims is the fixed claims schema embedded in every credential.
// Subject holds the principal ID.
type Claims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Role    string `json:"role"`
	Class   string `json:"cls"`
	Version int    `json:"ver"`
}

// NewClaims returns claims for a principal; the codec fills the registered claims on Issue.
func NewClaims(principalID, email, role, class string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: principalID},
		Email:            email,
		Role:             role,
		Class:            class,
	}
}

// PrincipalID returns the sub claim.
func (c *Claims) PrincipalID() string { return c.Subject }

// Validate enforces the required custom fields. jwt calls it after the registered-claim checks.
func (c *Claims) Validate() error {
	switch {
	case c.Version != ClaimsVersion:
		return fmt.Errorf("%w: unsupported claims version %d", ErrMalformed, c.Version)
	case c.Subject == "":
		return fmt.Errorf("%w: missing sub", ErrMalformed)
	case c.Email == "":
		return fmt.Errorf("%w: missing email", ErrMalformed)
	case c.Role == "":
		return fmt.Errorf("%w: missing role", ErrMalformed)
	case c.Class != ClassSession && c.Class != ClassHandoff:
		return fmt.Errorf("%w: unknown class %q", ErrMalformed, c.Class)
	case c.ID == "":
		return fmt.Errorf("%w: missing jti", ErrMalformed)
	case c.IssuedAt == nil:
		return fmt.Errorf("%w: missing iat", ErrMalformed)
	}
	return nil
}

// CodecConfig is the explicit signing configuration for a Codec.
type CodecConfig struct {
	Secret string
	Issuer string
}

// CodecOption customises a Codec.
type CodecOption func(*Codec)

// WithClock replaces time.Now for issue and verify.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		if now != nil {
			c.nowF = now
		}
	}
}

// Codec issues and verifies HS256 credentials. It holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
	issuer string
	nowF   func() time.Time
}

// NewCodec returns a Codec for cfg. Returns ErrConfig if the secret is empty.
func NewCodec(cfg CodecConfig, opts ...CodecOption) (*Codec, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, ErrConfig
	}
	c := &Codec{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		nowF:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs claims with iat=now and exp=now+ttl. exp has second precision; the returned
// expiresAt is exactly the exp claim so the ledger can store it unchanged.
func (c *Codec) Issue(claims Claims, ttl time.Duration) (token string, expiresAt time.Time, err error) {
	if c == nil || len(c.secret) == 0 {
		return "", time.Time{}, ErrConfig
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("security: ttl must be positive, got %v", ttl)
	}
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := c.nowF().UTC()
	exp := jwt.NewNumericDate(now.Add(ttl))
	claims.ID = jti
	claims.Issuer = c.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = exp
	claims.Version = ClaimsVersion
	if err := claims.Validate(); err != nil {
		return "", time.Time{}, err
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp.Time.UTC(), nil
}

// Now reads the codec clock, so ledger expiry checks agree with exp checks.
func (c *Codec) Now() time.Time {
	if c == nil || c.nowF == nil {
		return time.Now()
	}
	return c.nowF()
}

// Verify checks the signature first, then the registered and custom claims.
// Errors are ErrMalformed, ErrInvalidSignature, ErrExpired, or ErrConfig.
func (c *Codec) Verify(token string) (*Claims, error) {
	if c == nil || len(c.secret) == 0 {
		return nil, ErrConfig
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.nowF),
		jwt.WithStrictDecoding(),
	)
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(strings.TrimSpace(token), claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidSignature
	}
	return claims, nil
}

// DecodeUnsafe decodes claims without checking signature or expiry.
// Never base an authorization decision on its result.
func (c *Codec) DecodeUnsafe(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser(jwt.WithStrictDecoding()).ParseUnverified(strings.TrimSpace(token), claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := claims.Validate(); err != nil {
		return nil, err
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrMalformed), errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformed
	}
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
