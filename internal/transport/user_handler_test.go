package transport

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Property: successful registration returns the profile without the password
func TestProperty_SuccessfulRegistrationReturnsProfileData(t *testing.T) {
	a := newTestAPI(t, false)
	properties := gopter.NewProperties(nil)

	properties.Property("registration returns the submitted profile", prop.ForAll(
		func(username, email, password, firstName string) bool {
			w := a.do(t, http.MethodPost, "/api/users/register/", RegisterRequest{
				Username:  username,
				Email:     email,
				Password:  password,
				FirstName: firstName,
			}, "")

			// Generated usernames can repeat
			if w.Code == http.StatusBadRequest {
				return responseFieldErrors(t, w)["username"] == "A user with that username already exists."
			}
			if w.Code != http.StatusCreated {
				t.Logf("FAIL: expected 201, got %d: %s", w.Code, w.Body.String())
				return false
			}

			raw := decodeBody[map[string]interface{}](t, w)
			if _, leaked := raw["password"]; leaked {
				t.Logf("FAIL: password in response")
				return false
			}

			profile := decodeBody[UserProfile](t, w)
			if _, err := uuid.Parse(profile.ID); err != nil {
				t.Logf("FAIL: Profile ID is not a valid UUID: %v", err)
				return false
			}
			return profile.Username == username &&
				profile.Email == email &&
				profile.FirstName == firstName &&
				profile.Role == "user"
		},
		gen.RegexMatch(`[a-z][a-z0-9_.]{2,12}`),
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]string
		field   string
		message string
	}{
		{
			name:    "missing username",
			body:    map[string]string{"password": "password123"},
			field:   "username",
			message: "This field is required.",
		},
		{
			name:    "invalid username characters",
			body:    map[string]string{"username": "bad name!", "password": "password123"},
			field:   "username",
			message: "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.",
		},
		{
			name:    "short password",
			body:    map[string]string{"username": "alice", "password": "short"},
			field:   "password",
			message: "Ensure this field has at least 8 characters.",
		},
		{
			name:    "invalid email",
			body:    map[string]string{"username": "alice", "password": "password123", "email": "nope"},
			field:   "email",
			message: "Enter a valid email address.",
		},
	}

	a := newTestAPI(t, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(t, http.MethodPost, "/api/users/register/", tt.body, "")
			assert.Equal(t, tt.message, responseFieldErrors(t, w)[tt.field])
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	a := newTestAPI(t, false)
	body := map[string]string{"username": "alice", "password": "password123"}

	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/users/register", body, "").Code)

	w := a.do(t, http.MethodPost, "/api/users/register", body, "")
	assert.Equal(t, "A user with that username already exists.", responseFieldErrors(t, w)["username"])
}

func TestObtainAndRefreshToken(t *testing.T) {
	a := newTestAPI(t, false)
	_, err := a.users.Register(context.Background(), "alice", "", "password123", "", "")
	require.NoError(t, err)

	w := a.do(t, http.MethodPost, "/api/token/", map[string]string{"username": "alice", "password": "password123"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	pair := decodeBody[TokenPairResponse](t, w)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	claims, err := a.users.ValidateToken(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)

	w = a.do(t, http.MethodPost, "/api/token/refresh/", map[string]string{"refresh": pair.Refresh}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decodeBody[AccessTokenResponse](t, w).Access)

	w = a.do(t, http.MethodPost, "/api/token/refresh/", map[string]string{"refresh": "unknown"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, http.MethodPost, "/api/token/refresh/", `{}`, "")
	assert.Equal(t, "This field is required.", responseFieldErrors(t, w)["refresh"])
}

func TestObtainTokenWithBadCredentials(t *testing.T) {
	a := newTestAPI(t, false)
	_, err := a.users.Register(context.Background(), "alice", "", "password123", "", "")
	require.NoError(t, err)

	for _, creds := range []map[string]string{
		{"username": "alice", "password": "wrong-password"},
		{"username": "bob", "password": "password123"},
	} {
		w := a.do(t, http.MethodPost, "/api/token", creds, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "No active account found with the given credentials", errorMessage(t, w))
	}
}

func TestGetProfile(t *testing.T) {
	a := newTestAPI(t, false)
	access, _, userID := a.login(t, "alice")

	w := a.do(t, http.MethodGet, "/api/users/me/", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decodeBody[UserProfile](t, w)
	assert.Equal(t, userID.String(), profile.ID)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "alice@example.com", profile.Email)

	w = a.do(t, http.MethodGet, "/api/users/me/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authentication credentials were not provided.", errorMessage(t, w))
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	a := newTestAPI(t, false)
	access, refresh, _ := a.login(t, "alice")

	w := a.do(t, http.MethodPost, "/api/users/logout/", map[string]string{"refresh": refresh}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decodeBody[LogoutResponse](t, w).Revoked)

	w = a.do(t, http.MethodPost, "/api/token/refresh/", map[string]string{"refresh": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutWithoutBodyRevokesEverySession(t *testing.T) {
	a := newTestAPI(t, false)
	access, first, _ := a.login(t, "alice")
	_, second, _, err := a.users.Login(context.Background(), "alice", "password123")
	require.NoError(t, err)

	w := a.do(t, http.MethodPost, "/api/users/logout/", nil, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, decodeBody[LogoutResponse](t, w).Revoked)

	for _, refresh := range []string{first, second} {
		w := a.do(t, http.MethodPost, "/api/token/refresh/", map[string]string{"refresh": refresh}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w = a.do(t, http.MethodPost, "/api/users/logout/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
