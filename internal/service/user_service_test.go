package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"partforge/internal/domain"
	"partforge/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

type memRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken
}

func newMemRefreshTokenRepo() *memRefreshTokenRepo {
	return &memRefreshTokenRepo{tokens: make(map[string]*domain.RefreshToken)}
}

func (r *memRefreshTokenRepo) Create(ctx context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.tokens[token.Token] = &cp
	return nil
}

func (r *memRefreshTokenRepo) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if t.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	cp := *t
	return &cp, nil
}

func (r *memRefreshTokenRepo) Revoke(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return repository.ErrRefreshTokenNotFound
	}
	t.Revoked = true
	return nil
}

func newUserServiceFixture() (UserService, *memUserRepo, *memRefreshTokenRepo) {
	userRepo := newMemUserRepo()
	tokenRepo := newMemRefreshTokenRepo()
	return NewUserService(userRepo, tokenRepo, "test-secret"), userRepo, tokenRepo
}

func TestProperty_RegisteredPasswordsAreHashed(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("stored hash verifies against the password and is never plaintext", prop.ForAll(
		func(suffix string, password string) bool {
			svc, _, _ := newUserServiceFixture()

			username := "user_" + suffix
			user, err := svc.Register(context.Background(), username, username+"@example.com", password)
			if err != nil {
				return false
			}

			if user.PasswordHash == password {
				return false
			}
			if user.Role != domain.RoleUser {
				return false
			}

			return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
		},
		gen.Identifier(),
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) >= 8 && len(s) <= 64 }),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestUserService_RegisterRejectsDuplicateUsername(t *testing.T) {
	svc, _, _ := newUserServiceFixture()

	_, err := svc.Register(context.Background(), "builder", "builder@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "builder", "other@example.com", "password456")
	assert.ErrorIs(t, err, repository.ErrUserAlreadyExists)
}

func TestUserService_LoginRoundTrip(t *testing.T) {
	svc, _, _ := newUserServiceFixture()

	_, err := svc.Register(context.Background(), "builder", "builder@example.com", "password123")
	require.NoError(t, err)

	accessToken, refreshToken, user, err := svc.Login(context.Background(), "builder", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)
	assert.NotEmpty(t, refreshToken)

	claims, err := svc.ValidateToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestUserService_LoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newUserServiceFixture()

	_, err := svc.Register(context.Background(), "builder", "builder@example.com", "password123")
	require.NoError(t, err)

	_, _, _, err = svc.Login(context.Background(), "builder", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = svc.Login(context.Background(), "nobody", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_RefreshTokenFlow(t *testing.T) {
	svc, _, _ := newUserServiceFixture()

	_, err := svc.Register(context.Background(), "builder", "builder@example.com", "password123")
	require.NoError(t, err)

	_, refreshToken, _, err := svc.Login(context.Background(), "builder", "password123")
	require.NoError(t, err)

	newAccess, err := svc.RefreshToken(context.Background(), refreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)

	// After logout the refresh token is dead.
	require.NoError(t, svc.Logout(context.Background(), refreshToken))
	_, err = svc.RefreshToken(context.Background(), refreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUserService_ExpiredRefreshTokenRejected(t *testing.T) {
	svc, _, tokenRepo := newUserServiceFixture()

	user, err := svc.Register(context.Background(), "builder", "builder@example.com", "password123")
	require.NoError(t, err)

	stale := &domain.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(-time.Hour),
		CreatedAt: time.Now().Add(-8 * 24 * time.Hour),
	}
	require.NoError(t, tokenRepo.Create(context.Background(), stale))

	_, err = svc.RefreshToken(context.Background(), stale.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestUserService_LogoutIsIdempotent(t *testing.T) {
	svc, _, _ := newUserServiceFixture()

	assert.NoError(t, svc.Logout(context.Background(), "never-issued"))
}
