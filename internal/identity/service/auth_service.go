// Package service authenticates principals by email and password and hands them a session credential.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yuriscavalcante/rh360/internal/audit"
	credentialdomain "github.com/yuriscavalcante/rh360/internal/credential/domain"
	identitydomain "github.com/yuriscavalcante/rh360/internal/identity/domain"
	policyengine "github.com/yuriscavalcante/rh360/internal/policy/engine"
	"github.com/yuriscavalcante/rh360/internal/security"
	userdomain "github.com/yuriscavalcante/rh360/internal/user/domain"
)

// Sentinel errors for auth service; handlers map them to HTTP and gRPC codes.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrInvalidCredentials covers every login failure so callers cannot tell which step failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AuthResult holds the outcome of Login.
type AuthResult struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// IdentityRepo is the minimal identity repository needed by the auth service.
type IdentityRepo interface {
	GetByUserAndProvider(ctx context.Context, userID string, provider identitydomain.IdentityProvider) (*identitydomain.Identity, error)
	Create(ctx context.Context, i *identitydomain.Identity) error
}

// Sessions is the session authority as seen by the auth service.
type Sessions interface {
	Login(ctx context.Context, p credentialdomain.Principal) (credentialdomain.Issued, error)
	Logout(ctx context.Context, token string) error
	ExtractPrincipalID(token string) (string, error)
}

// AuthService implements password register, login and logout.
type AuthService struct {
	userRepo     UserRepo
	identityRepo IdentityRepo
	hasher       *security.Hasher
	sessions     Sessions
	policy       policyengine.Evaluator
	auditLogger  audit.AuditLogger
}

// NewAuthService returns an AuthService with the given dependencies. policy and auditLogger may be nil;
// a nil policy only requires the user to be active.
func NewAuthService(
	userRepo UserRepo,
	identityRepo IdentityRepo,
	hasher *security.Hasher,
	sessions Sessions,
	policy policyengine.Evaluator,
	auditLogger audit.AuditLogger,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		identityRepo: identityRepo,
		hasher:       hasher,
		sessions:     sessions,
		policy:       policy,
		auditLogger:  auditLogger,
	}
}

// Register creates a user and local identity with the given email and password and returns the user ID.
func (s *AuthService) Register(ctx context.Context, email, password, name, role string) (string, error) {
	email = userdomain.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if err := validatePassword(password); err != nil {
		return "", err
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", ErrEmailAlreadyRegistered
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Role:      strings.TrimSpace(role),
		Status:    userdomain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Validate(); err != nil {
		return "", err
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return "", err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", err
	}
	ident := &identitydomain.Identity{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		Provider:     identitydomain.IdentityProviderLocal,
		ProviderID:   email,
		PasswordHash: hashed,
		CreatedAt:    now,
	}
	if err := s.identityRepo.Create(ctx, ident); err != nil {
		return "", err
	}
	return user.ID, nil
}

// Login checks email and password, revokes the user's previous session and issues a new one.
// Every rejection is ErrInvalidCredentials; repository and ledger failures are returned as-is.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = userdomain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, s.fail(ctx, "", "missing_fields")
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.CompareDummy([]byte(password))
		return nil, s.fail(ctx, "", "unknown_email")
	}
	if !user.Active() {
		s.hasher.CompareDummy([]byte(password))
		return nil, s.fail(ctx, user.ID, "inactive")
	}
	ident, err := s.identityRepo.GetByUserAndProvider(ctx, user.ID, identitydomain.IdentityProviderLocal)
	if err != nil {
		return nil, err
	}
	if ident == nil || ident.PasswordHash == "" {
		s.hasher.CompareDummy([]byte(password))
		return nil, s.fail(ctx, user.ID, "no_local_identity")
	}
	if err := s.hasher.Compare(ident.PasswordHash, []byte(password)); err != nil {
		return nil, s.fail(ctx, user.ID, "bad_password")
	}
	if s.policy != nil {
		allowed, err := s.policy.AllowIssue(ctx, user, security.ClassSession)
		if err != nil {
			return nil, fmt.Errorf("issuance policy: %w", err)
		}
		if !allowed {
			return nil, s.fail(ctx, user.ID, "policy_denied")
		}
	}

	issued, err := s.sessions.Login(ctx, credentialdomain.Principal{ID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, user.ID, audit.ActionLoginSuccess, "")
	return &AuthResult{UserID: user.ID, Token: issued.Token, ExpiresAt: issued.ExpiresAt}, nil
}

// Logout deactivates the presented session credential. Unknown and already inactive tokens are not errors.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Logout(ctx, token); err != nil {
		return err
	}
	userID, _ := s.sessions.ExtractPrincipalID(token)
	s.logEvent(ctx, userID, audit.ActionLogout, "")
	return nil
}

func (s *AuthService) fail(ctx context.Context, userID, reason string) error {
	s.logEvent(ctx, userID, audit.ActionLoginFailure, fmt.Sprintf(`{"reason":%q}`, reason))
	return ErrInvalidCredentials
}

func (s *AuthService) logEvent(ctx context.Context, userID, action, metadata string) {
	if s.auditLogger != nil {
		s.auditLogger.LogEvent(ctx, userID, action, audit.ResourceSession, metadata)
	}
}

var simpleEmail = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if !simpleEmail.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 12 {
		return errors.New("password must be at least 12 characters")
	}
	var hasUpper, hasLower, hasNumber, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasNumber = true
		default:
			hasSymbol = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return errors.New("password must contain at least one number")
	}
	if !hasSymbol {
		return errors.New("password must contain at least one symbol")
	}
	return nil
}
