// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/lifelessons-api/internal/core"
)

const identityKey contextKey = "identity"

const RoleAdmin = "admin"

// Identity is the verified caller attached to the request context. It
// is built only from a verified identity token, never from the body.
type Identity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

type IdentityVerifier interface {
	VerifyIdentityToken(ctx context.Context, token string) (*Identity, error)
}

// RoleResolver reads the stored role for a verified email.
type RoleResolver interface {
	RoleByEmail(ctx context.Context, email string) (string, error)
}

func Authenticator(verifier IdentityVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			identity, err := verifier.VerifyIdentityToken(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func OptionalAuth(verifier IdentityVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := ExtractToken(r); token != "" {
				identity, err := verifier.VerifyIdentityToken(r.Context(), token)
				if err == nil {
					r = r.WithContext(WithIdentity(r.Context(), identity))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireSelf rejects requests whose verified email does not match the
// named path parameter. Comparison ignores case.
func RequireSelf(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			target := strings.TrimSpace(chi.URLParam(r, param))
			if !strings.EqualFold(target, identity.Email) {
				core.JSONError(w, core.ForbiddenError("forbidden access"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireElevated admits only callers whose stored role is admin.
func RequireElevated(resolver RoleResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			role, err := resolver.RoleByEmail(r.Context(), identity.Email)
			if err != nil {
				if errors.Is(err, core.ErrNotFound) {
					core.JSONError(w, core.ForbiddenError("admin only"))
					return
				}
				slog.ErrorContext(r.Context(), "resolve role failed",
					"email", identity.Email,
					"error", err,
				)
				core.InternalServerError(w, err)
				return
			}

			if role != RoleAdmin {
				core.JSONError(w, core.ForbiddenError("admin only"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func GetIdentity(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(identityKey).(*Identity); ok {
		return identity
	}
	return nil
}

func GetEmail(ctx context.Context) string {
	if identity := GetIdentity(ctx); identity != nil {
		return identity.Email
	}
	return ""
}
