// AngelaMos | 2026
// issuer.go

package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/lifelessons-api/internal/config"
)

// LocalIssuer signs identity tokens with a service-held key. It stands in
// for the hosted identity provider in development and tests.
type LocalIssuer struct {
	privateKey jwk.Key
	publicKey  jwk.Key
	publicJWKS jwk.Set
	issuer     string
	audience   string
	ttl        time.Duration
}

func NewLocalIssuer(cfg config.IdentityConfig) (*LocalIssuer, error) {
	if _, err := os.Stat(cfg.PrivateKeyPath); errors.Is(err, fs.ErrNotExist) {
		if genErr := GenerateKey(cfg.PrivateKeyPath); genErr != nil {
			return nil, genErr
		}
	}

	privateKeyPEM, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	privateKey, err := jwk.ParseKey(privateKeyPEM, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	if setErr := privateKey.Set(jwk.AlgorithmKey, jwa.ES256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	keyID := uuid.New().String()[:8]
	if setErr := privateKey.Set(jwk.KeyIDKey, keyID); setErr != nil {
		return nil, fmt.Errorf("set key id: %w", setErr)
	}

	publicKey, err := privateKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	if setErr := publicKey.Set(jwk.KeyUsageKey, "sig"); setErr != nil {
		return nil, fmt.Errorf("set key usage: %w", setErr)
	}

	publicJWKS := jwk.NewSet()
	if addErr := publicJWKS.AddKey(publicKey); addErr != nil {
		return nil, fmt.Errorf("add key to set: %w", addErr)
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &LocalIssuer{
		privateKey: privateKey,
		publicKey:  publicKey,
		publicJWKS: publicJWKS,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		ttl:        ttl,
	}, nil
}

// GenerateKey writes a fresh P-256 private key in PEM form.
func GenerateKey(privateKeyPath string) error {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	jwkPrivate, err := jwk.Import(privateKey)
	if err != nil {
		return fmt.Errorf("import private key: %w", err)
	}

	privatePEM, err := jwk.Pem(jwkPrivate)
	if err != nil {
		return fmt.Errorf("encode private key: %w", err)
	}

	if dir := filepath.Dir(privateKeyPath); dir != "." {
		if mkErr := os.MkdirAll(dir, 0o700); mkErr != nil {
			return fmt.Errorf("create key dir: %w", mkErr)
		}
	}

	if writeErr := os.WriteFile(privateKeyPath, privatePEM, 0o600); writeErr != nil {
		return fmt.Errorf("write private key: %w", writeErr)
	}

	return nil
}

type Claims struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

func (i *LocalIssuer) Mint(claims Claims) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(i.ttl)

	token, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(i.issuer).
		Audience([]string{i.audience}).
		Subject(claims.UID).
		IssuedAt(now).
		Expiration(expiresAt).
		NotBefore(now).
		Claim("email", claims.Email).
		Claim("name", claims.Name).
		Claim("picture", claims.Picture).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), i.privateKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return string(signed), expiresAt, nil
}

// Verifier returns a verifier bound to this issuer's own key set.
func (i *LocalIssuer) Verifier() *Verifier {
	return NewVerifier(NewStaticKeySource(i.publicJWKS), i.issuer, i.audience)
}

func (i *LocalIssuer) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if err := json.NewEncoder(w).Encode(i.publicJWKS); err != nil {
			http.Error(
				w,
				"Internal Server Error",
				http.StatusInternalServerError,
			)
			return
		}
	}
}

func (i *LocalIssuer) KeyID() string {
	var kid string
	//nolint:errcheck // key ID always set during NewLocalIssuer
	_ = i.privateKey.Get(jwk.KeyIDKey, &kid)
	return kid
}
