package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pethaven/internal/domain"
	"pethaven/internal/security"
	"pethaven/internal/validator"
)

// AuthService handles registration and login.
type AuthService struct {
	users    domain.UserRepository
	tokens   *security.TokenService
	hash     *security.PasswordHasher
	validate *validator.Validator

	Now func() time.Time
}

func NewAuthService(
	users domain.UserRepository,
	tokens *security.TokenService,
	hash *security.PasswordHasher,
	validate *validator.Validator,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		hash:     hash,
		validate: validate,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Name     string      `json:"name" validate:"required,max=100"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6,max=72"`
	Role     domain.Role `json:"role" validate:"omitempty,oneof=adopter shelter"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string             `json:"access_token"`
	TokenType   string             `json:"token_type"`
	User        domain.UserProfile `json:"user"`
}

// Register creates an account and signs the user in. Admin accounts cannot
// be self-registered; the role defaults to adopter.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*TokenResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.ValidateStruct(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = domain.RoleAdopter
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrConflict
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Persistence("check email", err)
	}

	hashed, err := s.hash.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Email:          in.Email,
		Role:           in.Role,
		HashedPassword: hashed,
		IsActive:       true,
		CreatedAt:      s.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, domain.Persistence("create user", err)
	}
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.ValidateStruct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, domain.Persistence("get user", err)
	}
	if !user.IsActive {
		return nil, domain.ErrUnauthorized
	}
	if err := s.hash.Verify(in.Password, user.HashedPassword); err != nil {
		return nil, domain.ErrUnauthorized
	}
	return s.issue(user)
}

// Authenticate resolves a bearer token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, domain.Persistence("get user", err)
	}
	if !user.IsActive {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*TokenResponse, error) {
	token, err := s.tokens.CreateForUser(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user.Profile(),
	}, nil
}
