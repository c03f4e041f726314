package service

import (
	"context"
	"strings"
	"time"

	"carelog/internal/apperror"
	"carelog/internal/models"
	"carelog/internal/repository"
	"carelog/internal/security"
	"carelog/internal/validation"
)

var (
	ErrEmailTaken         = apperror.Conflict("email already registered")
	ErrInvalidCredentials = apperror.Unauthenticated("invalid email or password")
)

// LoginResult is returned by a successful login
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// AuthService is the local credential store
type AuthService struct {
	users  *repository.UserRepository
	tokens *security.TokenManager
	bounds storeBounds
}

// NewAuthService creates a new auth service
func NewAuthService(users *repository.UserRepository, tokens *security.TokenManager, storeTimeout time.Duration) *AuthService {
	return &AuthService{users: users, tokens: tokens, bounds: newStoreBounds(storeTimeout)}
}

// Register creates a new account
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}

	rctx, cancel := s.bounds.read(ctx)
	defer cancel()

	existing, err := s.users.GetByEmail(rctx, email)
	if err != nil {
		return nil, apperror.Boundary(err, "failed to register")
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, apperror.Boundary(err, "failed to register")
	}

	wctx, wcancel := s.bounds.write(ctx)
	defer wcancel()

	user, err := s.users.Create(wctx, name, email, hash)
	return user, apperror.Boundary(err, "failed to register")
}

// Login verifies credentials and issues a bearer token
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	rctx, cancel := s.bounds.read(ctx)
	defer cancel()

	user, err := s.users.GetByEmail(rctx, email)
	if err != nil {
		return nil, apperror.Boundary(err, "failed to log in")
	}
	if user == nil || !security.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperror.Boundary(err, "failed to log in")
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
