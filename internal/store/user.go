package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateUserParams represents parameters for creating a user account
type CreateUserParams struct {
	Email           string
	HashedPassword  string
	Name            string
	Role            string
	PrimaryPlatform *string
	Category        *string
	FollowerCount   *int
}

const sqlCreateUser = `
INSERT INTO users (email, hashed_password, name, role, primary_platform, category, follower_count)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, email, hashed_password, name, role, primary_platform, category, follower_count, created_at, updated_at, deleted_at
`

// CreateUser creates a new brand or influencer account
func (s *Store) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, sqlCreateUser,
		params.Email,
		params.HashedPassword,
		params.Name,
		params.Role,
		params.PrimaryPlatform,
		params.Category,
		params.FollowerCount)
	if err != nil {
		s.logger.Error(ctx, "failed to create user", err)
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

const sqlGetUserByEmail = `
SELECT id, email, hashed_password, name, role, primary_platform, category, follower_count, created_at, updated_at, deleted_at
FROM users
WHERE email = $1 AND deleted_at IS NULL
`

// GetUserByEmail retrieves a user by email address
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, sqlGetUserByEmail, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get user by email", err)
		return User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

const sqlGetUserByID = `
SELECT id, email, hashed_password, name, role, primary_platform, category, follower_count, created_at, updated_at, deleted_at
FROM users
WHERE id = $1 AND deleted_at IS NULL
`

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, userID uuid.UUID) (User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, sqlGetUserByID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get user by id", err)
		return User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// ListInfluencersParams represents optional discovery filters. Nil fields
// are not applied.
type ListInfluencersParams struct {
	Platform     *string
	Category     *string
	MinFollowers *int
	Limit        int
}

const sqlListInfluencers = `
SELECT id, email, hashed_password, name, role, primary_platform, category, follower_count, created_at, updated_at, deleted_at
FROM users
WHERE role = $1
  AND deleted_at IS NULL
  AND ($2::text IS NULL OR primary_platform = $2)
  AND ($3::text IS NULL OR category = $3)
  AND ($4::int IS NULL OR follower_count >= $4)
ORDER BY follower_count DESC NULLS LAST
LIMIT $5
`

// ListInfluencers retrieves influencer accounts matching discovery filters,
// largest audience first.
func (s *Store) ListInfluencers(ctx context.Context, params ListInfluencersParams) ([]User, error) {
	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var users []User
	err := s.db.SelectContext(ctx, &users, sqlListInfluencers,
		UserRoleInfluencer,
		params.Platform,
		params.Category,
		params.MinFollowers,
		limit)
	if err != nil {
		s.logger.Error(ctx, "failed to list influencers", err)
		return nil, fmt.Errorf("failed to list influencers: %w", err)
	}
	return users, nil
}
