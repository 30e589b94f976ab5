package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Massenger/internal/db"
	"Massenger/internal/model"

	"go.mongodb.org/mongo-driver/mongo"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	ListActive(ctx context.Context) ([]model.User, error)
	// Exists reports whether an active user with the given id is known.
	Exists(ctx context.Context, userID string) (bool, error)
	// Search finds active users whose username or full name contains the
	// query, excluding the caller.
	Search(ctx context.Context, query string, excludeUserID string) ([]model.User, error)
}

type userRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.User]
}

func NewUserRepository(con *mongo.Database, repo *db.Repository[model.User]) UserRepository {
	return &userRepository{
		con:       con,
		mongoRepo: repo,
	}
}

func (r *userRepository) GetUser(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := db.NewFilter().Eq("user_id", userID).Build()
	result, err := r.mongoRepo.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user failed: %w", err)
	}

	return result, nil
}

func (r *userRepository) ListActive(ctx context.Context) ([]model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := db.NewFilter().Eq("is_active", true).Build()
	users, err := r.mongoRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users failed: %w", err)
	}
	return users, nil
}

func (r *userRepository) Exists(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, ErrInvalidUserID
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := db.NewFilter().
		Eq("user_id", userID).
		Eq("is_active", true).
		Build()
	exists, err := r.mongoRepo.Exists(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("user exists check failed: %w", err)
	}
	return exists, nil
}

func (r *userRepository) Search(ctx context.Context, query string, excludeUserID string) ([]model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := db.NewFilter().
		Eq("is_active", true).
		Ne("user_id", excludeUserID).
		Or(
			db.NewFilter().Contains("username", query).Build(),
			db.NewFilter().Contains("full_name", query).Build(),
		).
		Build()

	users, err := r.mongoRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search users failed: %w", err)
	}
	return users, nil
}
