package auth

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/audit"
	"shopledger/pkg/logger"
)

// Service provides login and account management.
type Service struct {
	users Repository
	jwt   *JWTService
	audit *audit.Service
}

// NewService creates a new auth service.
func NewService(users Repository, jwtSvc *JWTService, auditSvc *audit.Service) *Service {
	return &Service{
		users: users,
		jwt:   jwtSvc,
		audit: auditSvc,
	}
}

// LoginResult carries the issued token and the authenticated user.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

// Login verifies credentials and issues an access token.
// Unknown email and wrong password produce the same error, so the endpoint
// does not leak which accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	logger.Info(ctx, "user logged in", "email", user.Email, "role", user.Role)

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Register creates a new operator account. Caller authorization (admin) is
// enforced by the HTTP layer.
func (s *Service) Register(ctx context.Context, name, email, password, role string) (*User, error) {
	if len(password) < 8 {
		return nil, apperror.NewValidation("password must be at least 8 characters").
			WithDetail("field", "password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	user := &User{
		ID:           id.New(),
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, "User registered", audit.CategoryAuth, "POST /api/auth/register", map[string]any{
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	})

	return user, nil
}
