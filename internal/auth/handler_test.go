// AngelaMos | 2026
// handler_test.go

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevTokenEndpoint(t *testing.T) {
	issuer := newTestIssuer(t)
	r := chi.NewRouter()
	NewHandler(issuer).RegisterRoutes(r)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"email":"Ann@Example.com","name":"Ann"}`, http.StatusOK},
		{"missing email", `{"name":"Ann"}`, http.StatusBadRequest},
		{"malformed email", `{"email":"ann"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/dev-token", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				return
			}

			var resp DevTokenResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "Bearer", resp.TokenType)

			identity, err := issuer.Verifier().VerifyIdentityToken(context.Background(), resp.Token)
			require.NoError(t, err)
			assert.Equal(t, "ann@example.com", identity.Email)
			assert.NotEmpty(t, identity.UID)
		})
	}
}
