package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ortografia/internal/models"
	"ortografia/internal/repository"
	"ortografia/internal/security"
	"ortografia/internal/validation"
)

// RegisterInput is the body of a registration request
type RegisterInput struct {
	Name     string `json:"name" validate:"required,notblank,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,role"`
}

// AuthResult is returned by a successful login or registration
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// AuthService handles authentication business logic
type AuthService struct {
	userRepo *repository.UserRepository
	tokens   *security.TokenService
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, tokens *security.TokenService) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Register creates a new account and signs the user in
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, invalid(err)
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, invalid(err)
	}

	existing, err := s.userRepo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, fail(ErrValidation, "email is already registered")
	}

	passwordHash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, in.Name, in.Email, passwordHash, role)
	if errors.Is(err, repository.ErrConflict) {
		return nil, fail(ErrValidation, "email is already registered")
	}
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login authenticates by email or name and issues a token
func (s *AuthService) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, fail(ErrValidation, "email and password are required")
	}
	if strings.Contains(login, "@") {
		login = strings.ToLower(login)
	}

	user, err := s.userRepo.GetUserByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active || !security.CheckPassword(password, user.PasswordHash) {
		return nil, fail(ErrUnauthenticated, "invalid credentials")
	}
	return s.issue(user)
}

// Authenticate resolves a bearer token to the current identity of an active user
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claimed, err := s.tokens.Verify(token)
	if err != nil {
		return nil, &Failure{Kind: ErrUnauthenticated, Message: "invalid token"}
	}

	user, err := s.userRepo.GetUserByID(ctx, claimed.ID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, fail(ErrUnauthenticated, "account not found or disabled")
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.Identity())
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
