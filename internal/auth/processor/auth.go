package processor

import (
	"context"
	"errors"
	"fmt"

	"collab-server/internal/observability"
	"collab-server/internal/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRole        = errors.New("invalid user role")
)

type AuthProcessor struct {
	store     AuthStore
	jwtSecret string
	logger    *observability.Logger
}

func New(authStore AuthStore, jwtSecret string, logger *observability.Logger) *AuthProcessor {
	return &AuthProcessor{
		store:     authStore,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// SignupParams represents parameters for creating an account
type SignupParams struct {
	Email           string
	Password        string
	Name            string
	Role            string
	PrimaryPlatform *string
	Category        *string
	FollowerCount   *int
}

// SignedUpUser is the public shape of a freshly created account
type SignedUpUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  string    `json:"role"`
}

// Signup creates a brand or influencer account with a bcrypt-hashed password
func (p *AuthProcessor) Signup(ctx context.Context, params SignupParams) (SignedUpUser, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "email", Value: params.Email})

	if params.Role != store.UserRoleBrand && params.Role != store.UserRoleInfluencer {
		return SignedUpUser{}, ErrInvalidRole
	}

	if _, err := p.store.GetUserByEmail(ctx, params.Email); err == nil {
		return SignedUpUser{}, ErrEmailAlreadyExists
	} else if !errors.Is(err, store.ErrNotFound) {
		p.logger.Error(ctx, "failed to check if email exists", err)
		return SignedUpUser{}, fmt.Errorf("failed to check if email exists: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		p.logger.Error(ctx, "failed to hash password", err)
		return SignedUpUser{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := p.store.CreateUser(ctx, store.CreateUserParams{
		Email:           params.Email,
		HashedPassword:  string(hashedPassword),
		Name:            params.Name,
		Role:            params.Role,
		PrimaryPlatform: params.PrimaryPlatform,
		Category:        params.Category,
		FollowerCount:   params.FollowerCount,
	})
	if err != nil {
		p.logger.Error(ctx, "failed to create user", err)
		return SignedUpUser{}, fmt.Errorf("failed to create user: %w", err)
	}

	p.logger.Info(ctx, "user signed up")
	return SignedUpUser{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}, nil
}

// Login verifies credentials and returns a signed JWT
func (p *AuthProcessor) Login(ctx context.Context, email, password string) (string, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "email", Value: email})

	user, err := p.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		p.logger.Error(ctx, "failed to get user by email", err)
		return "", fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := p.generateJWTToken(store.AuthenticatedUser{UserID: user.ID, Role: user.Role})
	if err != nil {
		p.logger.Error(ctx, "failed to generate jwt token", err)
		return "", fmt.Errorf("failed to generate jwt token: %w", err)
	}
	return token, nil
}

// GetUserByID returns the account for an authenticated user ID
func (p *AuthProcessor) GetUserByID(ctx context.Context, userID uuid.UUID) (store.User, error) {
	user, err := p.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, ErrUserNotFound
		}
		p.logger.Error(ctx, "failed to get user by id", err)
		return store.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}
