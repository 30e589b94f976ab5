package service

import (
	"context"
	"errors"
	"strings"

	"Massenger/internal/model"
	"Massenger/internal/repo"
)

var ErrEmptyQuery = errors.New("search query cannot be empty")

type UserService interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	ListUsers(ctx context.Context, excludeUserID string) ([]model.User, error)
	SearchUsers(ctx context.Context, callerID string, query string) ([]model.User, error)
}

type userService struct {
	repo repo.UserRepository
}

func NewUserService(repo repo.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.repo.GetUser(ctx, userID)
}

// ListUsers returns every active user except the caller, for the sidebar.
func (s *userService) ListUsers(ctx context.Context, excludeUserID string) ([]model.User, error) {
	users, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(users, func(u model.User) bool {
		return u.UserID != excludeUserID
	}), nil
}

// SearchUsers finds active users matching the query by username or full
// name. The caller is excluded at the database level.
func (s *userService) SearchUsers(ctx context.Context, callerID string, query string) ([]model.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	return s.repo.Search(ctx, query, callerID)
}
