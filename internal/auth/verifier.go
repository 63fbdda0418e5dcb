// AngelaMos | 2026
// verifier.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/lifelessons-api/internal/core"
	"github.com/carterperez-dev/lifelessons-api/internal/middleware"
)

const defaultKeyRefresh = time.Hour

// KeySource supplies the public keys identity tokens are checked against.
type KeySource interface {
	Keys(ctx context.Context) (jwk.Set, error)
}

type StaticKeySource struct {
	set jwk.Set
}

func NewStaticKeySource(set jwk.Set) *StaticKeySource {
	return &StaticKeySource{set: set}
}

func (s *StaticKeySource) Keys(context.Context) (jwk.Set, error) {
	return s.set, nil
}

// RemoteKeySource fetches a published key set and caches it for the
// refresh interval. A stale set keeps serving if a refresh fails.
type RemoteKeySource struct {
	url     string
	refresh time.Duration

	mu      sync.RWMutex
	set     jwk.Set
	fetched time.Time
}

func NewRemoteKeySource(url string, refresh time.Duration) *RemoteKeySource {
	if refresh <= 0 {
		refresh = defaultKeyRefresh
	}
	return &RemoteKeySource{url: url, refresh: refresh}
}

func (s *RemoteKeySource) Keys(ctx context.Context) (jwk.Set, error) {
	s.mu.RLock()
	set, fetched := s.set, s.fetched
	s.mu.RUnlock()

	if set != nil && time.Since(fetched) < s.refresh {
		return set, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set != nil && time.Since(s.fetched) < s.refresh {
		return s.set, nil
	}

	fresh, err := jwk.Fetch(ctx, s.url)
	if err != nil {
		if s.set != nil {
			return s.set, nil
		}
		return nil, fmt.Errorf("fetch key set: %w", err)
	}

	s.set = fresh
	s.fetched = time.Now()

	return fresh, nil
}

// Verifier checks bearer identity tokens and turns them into a request
// identity. It implements middleware.IdentityVerifier.
type Verifier struct {
	keys     KeySource
	issuer   string
	audience string
}

func NewVerifier(keys KeySource, issuer, audience string) *Verifier {
	return &Verifier{keys: keys, issuer: issuer, audience: audience}
}

func (v *Verifier) VerifyIdentityToken(
	ctx context.Context,
	tokenString string,
) (*middleware.Identity, error) {
	set, err := v.keys.Keys(ctx)
	if err != nil {
		return nil, core.NewAppError(
			err,
			"identity keys unavailable",
			http.StatusServiceUnavailable,
			"IDENTITY_UNAVAILABLE",
		)
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(set, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(30 * time.Second),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse([]byte(tokenString), opts...)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	var email string
	if err := token.Get("email", &email); err != nil || strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf(
			"verify token: missing email claim: %w",
			core.ErrTokenInvalid,
		)
	}

	identity := &middleware.Identity{
		UID:   subject,
		Email: strings.ToLower(strings.TrimSpace(email)),
	}

	//nolint:errcheck // display claims are optional
	_ = token.Get("name", &identity.Name)
	//nolint:errcheck // display claims are optional
	_ = token.Get("picture", &identity.Picture)

	return identity, nil
}

func isTokenExpiredError(err error) bool {
	return errors.Is(err, jwt.TokenExpiredError())
}
