package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"product-catalog/internal/config"
	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Mock repositories for testing
type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Username]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, exists := m.users[username]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists || refreshToken.Revoked {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	revoked := 0
	for _, token := range m.tokens {
		if token.UserID == userID && !token.Revoked {
			token.Revoked = true
			revoked++
		}
	}
	return revoked, nil
}

var testJWTConfig = config.JWTConfig{
	Secret:        "test-secret-key",
	AccessExpiry:  5 * time.Minute,
	RefreshExpiry: 24 * time.Hour,
}

func newTestUserService() (UserService, *mockUserRepository, *mockRefreshTokenRepository) {
	userRepo := newMockUserRepository()
	refreshTokenRepo := newMockRefreshTokenRepository()
	return NewUserService(userRepo, refreshTokenRepo, testJWTConfig), userRepo, refreshTokenRepo
}

// bcrypt at cost 10 is slow; fewer cases keep the suite fast
func bcryptProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	return gopter.NewProperties(parameters)
}

var (
	genUsername = gen.RegexMatch(`[a-z][a-z0-9_.]{2,20}`)
	genPassword = gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`)
)

// Property: registration stores a bcrypt hash and never the plaintext password
func TestProperty_RegistrationCreatesHashedPasswords(t *testing.T) {
	properties := bcryptProperties()

	properties.Property("passwords are hashed with bcrypt and not stored as plaintext", prop.ForAll(
		func(username string, password string) bool {
			service, userRepo, _ := newTestUserService()
			ctx := context.Background()

			user, err := service.Register(ctx, username, "", password, "", "")
			if err != nil {
				t.Logf("FAIL: Registration failed: %v", err)
				return false
			}

			if user.PasswordHash == password {
				t.Logf("FAIL: Password stored as plaintext for %s", username)
				return false
			}

			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
				t.Logf("FAIL: Password hash doesn't match: %v", err)
				return false
			}

			cost, err := bcrypt.Cost([]byte(user.PasswordHash))
			if err != nil || cost != BcryptCost {
				t.Logf("FAIL: unexpected bcrypt cost %d (%v)", cost, err)
				return false
			}

			storedUser, err := userRepo.FindByUsername(ctx, username)
			return err == nil && storedUser.PasswordHash == user.PasswordHash
		},
		genUsername,
		genPassword,
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: access tokens carry the user id, role, expiry and issue time
func TestProperty_JWTTokensContainRequiredClaims(t *testing.T) {
	properties := bcryptProperties()

	properties.Property("access tokens contain user ID and role claims", prop.ForAll(
		func(username string, password string, role string) bool {
			service, userRepo, _ := newTestUserService()
			ctx := context.Background()

			user, err := service.Register(ctx, username, "", password, "", "")
			if err != nil {
				t.Logf("FAIL: Registration failed: %v", err)
				return false
			}
			user.Role = role
			userRepo.users[username] = user

			accessToken, _, _, err := service.Login(ctx, username, password)
			if err != nil {
				t.Logf("FAIL: Login failed: %v", err)
				return false
			}

			claims, err := service.ValidateToken(accessToken)
			if err != nil {
				t.Logf("FAIL: Token validation failed: %v", err)
				return false
			}

			if claims.UserID != user.ID || claims.Role != role {
				t.Logf("FAIL: claims mismatch: %+v", claims)
				return false
			}

			if claims.ExpiresAt == nil || claims.IssuedAt == nil {
				t.Logf("FAIL: Token missing time claims")
				return false
			}

			lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
			return lifetime == testJWTConfig.AccessExpiry
		},
		genUsername,
		genPassword,
		gen.OneConstOf("user", "admin"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: a refresh token minted at login yields a new valid access token until logout
func TestProperty_TokenRefreshAndLogout(t *testing.T) {
	properties := bcryptProperties()

	properties.Property("refresh works until the refresh token is revoked", prop.ForAll(
		func(username string, password string) bool {
			service, _, refreshTokenRepo := newTestUserService()
			ctx := context.Background()

			if _, err := service.Register(ctx, username, "", password, "", ""); err != nil {
				t.Logf("FAIL: Registration failed: %v", err)
				return false
			}

			_, refreshToken, user, err := service.Login(ctx, username, password)
			if err != nil {
				t.Logf("FAIL: Login failed: %v", err)
				return false
			}

			newAccessToken, err := service.RefreshToken(ctx, refreshToken)
			if err != nil {
				t.Logf("FAIL: Token refresh failed: %v", err)
				return false
			}

			claims, err := service.ValidateToken(newAccessToken)
			if err != nil || claims.UserID != user.ID {
				t.Logf("FAIL: Refreshed token invalid: %v", err)
				return false
			}

			if err := service.Logout(ctx, refreshToken); err != nil {
				t.Logf("FAIL: Logout failed: %v", err)
				return false
			}

			if _, err := service.RefreshToken(ctx, refreshToken); err != ErrInvalidToken {
				t.Logf("FAIL: Expected ErrInvalidToken after logout, got: %v", err)
				return false
			}

			_, err = refreshTokenRepo.FindByToken(ctx, refreshToken)
			return err == repository.ErrRefreshTokenRevoked
		},
		genUsername,
		genPassword,
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRegisterRejectsDuplicateAndInvalidUsernames(t *testing.T) {
	service, _, _ := newTestUserService()
	ctx := context.Background()

	_, err := service.Register(ctx, "alice", "alice@example.com", "password123", "Alice", "Smith")
	require.NoError(t, err)

	_, err = service.Register(ctx, "alice", "", "password123", "", "")
	assert.ErrorIs(t, err, repository.ErrUserAlreadyExists)

	_, err = service.Register(ctx, "bad name!", "", "password123", "", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Errors[0].Field)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	service, _, _ := newTestUserService()
	ctx := context.Background()

	_, err := service.Register(ctx, "bob", "", "password123", "", "")
	require.NoError(t, err)

	_, _, _, err = service.Login(ctx, "bob", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = service.Login(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshTokenExpired(t *testing.T) {
	service, _, refreshTokenRepo := newTestUserService()
	ctx := context.Background()

	_, err := service.Register(ctx, "carol", "", "password123", "", "")
	require.NoError(t, err)
	_, refreshToken, _, err := service.Login(ctx, "carol", "password123")
	require.NoError(t, err)

	refreshTokenRepo.tokens[refreshToken].ExpiresAt = time.Now().Add(-time.Minute)

	_, err = service.RefreshToken(ctx, refreshToken)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = service.RefreshToken(ctx, "unknown")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsForeignAndExpiredTokens(t *testing.T) {
	service, _, _ := newTestUserService()

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte(testJWTConfig.Secret))
	require.NoError(t, err)

	_, err = service.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: uuid.New()}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = service.ValidateToken(foreign)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestLogoutAllRevokesEveryToken(t *testing.T) {
	service, _, _ := newTestUserService()
	ctx := context.Background()

	user, err := service.Register(ctx, "dave", "", "password123", "", "")
	require.NoError(t, err)

	_, first, _, err := service.Login(ctx, "dave", "password123")
	require.NoError(t, err)
	_, second, _, err := service.Login(ctx, "dave", "password123")
	require.NoError(t, err)

	revoked, err := service.LogoutAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, revoked)

	for _, token := range []string{first, second} {
		_, err := service.RefreshToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}

	assert.NoError(t, service.Logout(ctx, first), "logging out twice is a no-op")
}
