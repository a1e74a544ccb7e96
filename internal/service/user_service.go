package service

import (
	"context"

	"pethaven/internal/domain"
)

// UserService provides user-related operations.
type UserService struct {
	users domain.UserRepository
}

func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

// Profile returns the public profile of an active user.
func (s *UserService) Profile(ctx context.Context, id string) (*domain.UserProfile, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Persistence("get user", err)
	}
	if !u.IsActive {
		return nil, domain.ErrNotFound
	}
	p := u.Profile()
	return &p, nil
}
