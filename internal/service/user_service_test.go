package service

import (
	"context"
	"testing"
	"time"

	"github.com/faruq2021/KogiExportHub/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// authUserRepo extends the basic user fake with a working refresh-token store.
type authUserRepo struct {
	fakeUserRepo
	tokens map[string]model.RefreshToken
}

func newAuthUserRepo() *authUserRepo {
	return &authUserRepo{
		fakeUserRepo: fakeUserRepo{users: map[uuid.UUID]*model.UserProfile{}},
		tokens:       map[string]model.RefreshToken{},
	}
}

func (r *authUserRepo) CreateRefreshToken(_ context.Context, token *model.RefreshToken) error {
	r.tokens[token.Token] = *token
	return nil
}

func (r *authUserRepo) GetRefreshToken(_ context.Context, token string) (*model.RefreshToken, error) {
	if stored, ok := r.tokens[token]; ok {
		return &stored, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *authUserRepo) DeleteRefreshToken(_ context.Context, token string) error {
	delete(r.tokens, token)
	return nil
}

func registeredUser(t *testing.T, repo *authUserRepo, email, password string) *model.UserProfile {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &model.UserProfile{
		ID:        uuid.New(),
		FirstName: "Amina",
		LastName:  "Bello",
		Email:     email,
		Password:  string(hashed),
		Role:      model.RoleBuyer,
	}
	repo.users[user.ID] = user
	return user
}

func TestRegisterValidatesInput(t *testing.T) {
	repo := newAuthUserRepo()
	svc := NewUserService(repo)

	valid := RegisterRequest{
		FirstName: "Amina",
		LastName:  "Bello",
		Email:     "amina@example.com",
		Password:  "secret123",
		Role:      model.RoleBuyer,
	}

	created, err := svc.Register(context.Background(), valid)
	require.NoError(t, err)
	assert.Equal(t, "amina@example.com", created.Email)
	assert.Equal(t, model.RoleBuyer, created.Role)

	// The stored password is hashed, never the plaintext.
	stored := repo.users[created.ID]
	assert.NotEqual(t, "secret123", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret123")))

	_, err = svc.Register(context.Background(), valid)
	assert.EqualError(t, err, "email already exists")

	bad := valid
	bad.Email = "other@example.com"
	bad.Role = "superuser"
	_, err = svc.Register(context.Background(), bad)
	assert.Error(t, err)

	bad = valid
	bad.Email = "not-an-email"
	_, err = svc.Register(context.Background(), bad)
	assert.Error(t, err)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	repo := newAuthUserRepo()
	svc := NewUserService(repo)
	user := registeredUser(t, repo, "amina@example.com", "secret123")

	pair, err := svc.Login(context.Background(), LoginRequest{Email: "amina@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.Token)
	require.NotEmpty(t, pair.RefreshToken)

	// The access token carries the user id and role.
	parsed, err := jwt.Parse(pair.Token, func(*jwt.Token) (interface{}, error) { return jwtSecret(), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, user.ID.String(), claims["sub"])
	assert.Equal(t, model.RoleBuyer, claims["role"])

	// The refresh token is persisted for later rotation.
	stored, ok := repo.tokens[pair.RefreshToken]
	require.True(t, ok)
	assert.Equal(t, user.ID, stored.UserID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	repo := newAuthUserRepo()
	svc := NewUserService(repo)
	registeredUser(t, repo, "amina@example.com", "secret123")

	_, err := svc.Login(context.Background(), LoginRequest{Email: "amina@example.com", Password: "wrong"})
	assert.EqualError(t, err, "invalid email or password")

	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.EqualError(t, err, "invalid email or password")
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newAuthUserRepo()
	svc := NewUserService(repo)
	registeredUser(t, repo, "amina@example.com", "secret123")

	pair, err := svc.Login(context.Background(), LoginRequest{Email: "amina@example.com", Password: "secret123"})
	require.NoError(t, err)

	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The consumed token can not be replayed.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.EqualError(t, err, "invalid refresh token")
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	repo := newAuthUserRepo()
	svc := NewUserService(repo).(*userService)
	user := registeredUser(t, repo, "amina@example.com", "secret123")

	repo.tokens["stale"] = model.RefreshToken{
		UserID:    user.ID,
		Token:     "stale",
		ExpiresAt: time.Now().Add(-time.Hour),
	}

	_, err := svc.Refresh(context.Background(), "stale")
	assert.EqualError(t, err, "refresh token expired")
	_, exists := repo.tokens["stale"]
	assert.False(t, exists, "expired token is purged on use")
}

func TestLogoutDeletesRefreshToken(t *testing.T) {
	repo := newAuthUserRepo()
	svc := NewUserService(repo)
	registeredUser(t, repo, "amina@example.com", "secret123")

	pair, err := svc.Login(context.Background(), LoginRequest{Email: "amina@example.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.Error(t, err)
}
