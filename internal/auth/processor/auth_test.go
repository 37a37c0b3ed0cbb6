package processor

import (
	"context"
	"errors"
	"testing"

	"collab-server/internal/observability"
	"collab-server/internal/store"

	"github.com/google/uuid"
)

type fakeAuthStore struct {
	usersByEmail map[string]store.User
	usersByID    map[uuid.UUID]store.User
}

func newFakeAuthStore() *fakeAuthStore {
	return &fakeAuthStore{
		usersByEmail: make(map[string]store.User),
		usersByID:    make(map[uuid.UUID]store.User),
	}
}

func (f *fakeAuthStore) CreateUser(_ context.Context, params store.CreateUserParams) (store.User, error) {
	user := store.User{
		ID:             uuid.New(),
		Email:          params.Email,
		HashedPassword: params.HashedPassword,
		Name:           params.Name,
		Role:           params.Role,
	}
	f.usersByEmail[user.Email] = user
	f.usersByID[user.ID] = user
	return user, nil
}

func (f *fakeAuthStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	user, ok := f.usersByEmail[email]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeAuthStore) GetUserByID(_ context.Context, userID uuid.UUID) (store.User, error) {
	user, ok := f.usersByID[userID]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return user, nil
}

func newTestAuthProcessor() (*AuthProcessor, *fakeAuthStore) {
	fakeStore := newFakeAuthStore()
	return New(fakeStore, "test-secret", observability.NewLogger()), fakeStore
}

func TestSignup_CreatesUserWithHashedPassword(t *testing.T) {
	p, fakeStore := newTestAuthProcessor()

	signedUp, err := p.Signup(context.Background(), SignupParams{
		Email:    "brand@example.com",
		Password: "supersecret",
		Name:     "Acme",
		Role:     store.UserRoleBrand,
	})
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if signedUp.Role != store.UserRoleBrand {
		t.Errorf("expected role brand, got %q", signedUp.Role)
	}

	stored := fakeStore.usersByEmail["brand@example.com"]
	if stored.HashedPassword == "supersecret" {
		t.Error("password must not be stored in plaintext")
	}
}

func TestSignup_RejectsDuplicateEmail(t *testing.T) {
	p, _ := newTestAuthProcessor()
	params := SignupParams{
		Email:    "creator@example.com",
		Password: "supersecret",
		Name:     "Creator",
		Role:     store.UserRoleInfluencer,
	}

	if _, err := p.Signup(context.Background(), params); err != nil {
		t.Fatalf("first Signup returned error: %v", err)
	}
	if _, err := p.Signup(context.Background(), params); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestSignup_RejectsUnknownRole(t *testing.T) {
	p, _ := newTestAuthProcessor()

	_, err := p.Signup(context.Background(), SignupParams{
		Email:    "admin@example.com",
		Password: "supersecret",
		Name:     "Admin",
		Role:     "admin",
	})
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestLogin_IssuesTokenWithRoleClaim(t *testing.T) {
	p, _ := newTestAuthProcessor()

	signedUp, err := p.Signup(context.Background(), SignupParams{
		Email:    "creator@example.com",
		Password: "supersecret",
		Name:     "Creator",
		Role:     store.UserRoleInfluencer,
	})
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}

	token, err := p.Login(context.Background(), "creator@example.com", "supersecret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	claims, err := p.ValidateJWTToken(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateJWTToken returned error: %v", err)
	}
	if claims.Subject != signedUp.ID.String() {
		t.Errorf("expected subject %s, got %s", signedUp.ID, claims.Subject)
	}
	if claims.Role != store.UserRoleInfluencer {
		t.Errorf("expected role influencer, got %q", claims.Role)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	p, _ := newTestAuthProcessor()

	if _, err := p.Signup(context.Background(), SignupParams{
		Email:    "creator@example.com",
		Password: "supersecret",
		Name:     "Creator",
		Role:     store.UserRoleInfluencer,
	}); err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}

	if _, err := p.Login(context.Background(), "creator@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := p.Login(context.Background(), "nobody@example.com", "supersecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestValidateJWTToken_RejectsTampering(t *testing.T) {
	p, _ := newTestAuthProcessor()
	other := New(newFakeAuthStore(), "other-secret", observability.NewLogger())

	if _, err := p.Signup(context.Background(), SignupParams{
		Email:    "creator@example.com",
		Password: "supersecret",
		Name:     "Creator",
		Role:     store.UserRoleInfluencer,
	}); err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	token, err := p.Login(context.Background(), "creator@example.com", "supersecret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if _, err := other.ValidateJWTToken(context.Background(), token); !errors.Is(err, ErrParseJWTToken) {
		t.Errorf("expected ErrParseJWTToken for wrong secret, got %v", err)
	}
}
