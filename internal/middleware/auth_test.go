// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/lifelessons-api/internal/core"
)

type stubVerifier map[string]*Identity

func (s stubVerifier) VerifyIdentityToken(_ context.Context, token string) (*Identity, error) {
	switch token {
	case "expired":
		return nil, fmt.Errorf("verify: %w", core.ErrTokenExpired)
	case "keys-down":
		return nil, core.NewAppError(errors.New("fetch"), "identity keys unavailable",
			http.StatusServiceUnavailable, "IDENTITY_UNAVAILABLE")
	}
	if id, ok := s[token]; ok {
		return id, nil
	}
	return nil, fmt.Errorf("verify: %w", core.ErrTokenInvalid)
}

type stubRoles map[string]string

func (s stubRoles) RoleByEmail(_ context.Context, email string) (string, error) {
	if email == "broken@example.com" {
		return "", errors.New("connection refused")
	}
	role, ok := s[email]
	if !ok {
		return "", fmt.Errorf("stub: %w", core.ErrNotFound)
	}
	return role, nil
}

var verifier = stubVerifier{
	"ann-token":    {UID: "uid-ann", Email: "ann@example.com"},
	"admin-token":  {UID: "uid-admin", Email: "admin@example.com"},
	"ghost-token":  {UID: "uid-ghost", Email: "ghost@example.com"},
	"broken-token": {UID: "uid-broken", Email: "broken@example.com"},
}

var roles = stubRoles{
	"ann@example.com":   "user",
	"admin@example.com": RoleAdmin,
}

func echoEmail(w http.ResponseWriter, r *http.Request) {
	core.OK(w, map[string]string{"email": GetEmail(r.Context())})
}

func request(t *testing.T, h http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticator(t *testing.T) {
	h := Authenticator(verifier)(http.HandlerFunc(echoEmail))

	tests := []struct {
		name   string
		token  string
		status int
		code   string
	}{
		{"missing", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"invalid", "forged", http.StatusUnauthorized, "TOKEN_INVALID"},
		{"expired", "expired", http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"key set unavailable", "keys-down", http.StatusServiceUnavailable, "IDENTITY_UNAVAILABLE"},
		{"valid", "ann-token", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := request(t, h, "/", tt.token)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				assert.Contains(t, rec.Body.String(), tt.code)
			} else {
				assert.Contains(t, rec.Body.String(), "ann@example.com")
			}
		})
	}
}

func TestAuthenticatorRejectsNonBearerScheme(t *testing.T) {
	h := Authenticator(verifier)(http.HandlerFunc(echoEmail))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic ann-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuth(t *testing.T) {
	h := OptionalAuth(verifier)(http.HandlerFunc(echoEmail))

	rec := request(t, h, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":""`)

	rec = request(t, h, "/", "forged")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":""`)

	rec = request(t, h, "/", "ann-token")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ann@example.com")
}

func TestRequireSelf(t *testing.T) {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(Authenticator(verifier))
		r.Use(RequireSelf("email"))
		r.Get("/users/{email}", echoEmail)
	})

	assert.Equal(t, http.StatusOK, request(t, r, "/users/ann@example.com", "ann-token").Code)
	assert.Equal(t, http.StatusOK, request(t, r, "/users/ANN@Example.com", "ann-token").Code)
	assert.Equal(t, http.StatusForbidden, request(t, r, "/users/admin@example.com", "ann-token").Code)
	assert.Equal(t, http.StatusUnauthorized, request(t, r, "/users/ann@example.com", "").Code)
}

func TestRequireSelfWithoutIdentity(t *testing.T) {
	r := chi.NewRouter()
	r.With(RequireSelf("email")).Get("/users/{email}", echoEmail)

	assert.Equal(t, http.StatusUnauthorized, request(t, r, "/users/ann@example.com", "").Code)
}

func TestRequireElevated(t *testing.T) {
	h := Authenticator(verifier)(RequireElevated(roles)(http.HandlerFunc(echoEmail)))

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"admin", "admin-token", http.StatusOK},
		{"regular user", "ann-token", http.StatusForbidden},
		{"never synced", "ghost-token", http.StatusForbidden},
		{"store failure", "broken-token", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := request(t, h, "/", tt.token)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	rec := request(t, h, "/", "admin-token")
	assert.Contains(t, rec.Body.String(), "admin@example.com")
}
