// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/lifelessons-api/internal/core"
)

type DevTokenRequest struct {
	Email   string `json:"email"   validate:"required,email,max=255"`
	Name    string `json:"name"    validate:"max=100"`
	Picture string `json:"picture" validate:"omitempty,url,max=2048"`
}

type DevTokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Handler serves the local issuer. It is only mounted outside production.
type Handler struct {
	issuer    *LocalIssuer
	validator *validator.Validate
}

func NewHandler(issuer *LocalIssuer) *Handler {
	return &Handler{
		issuer:    issuer,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/dev-token", h.DevToken)
	})
}

func (h *Handler) RegisterJWKS(r chi.Router) {
	r.Get("/.well-known/jwks.json", h.issuer.JWKSHandler())
}

func (h *Handler) DevToken(w http.ResponseWriter, r *http.Request) {
	var req DevTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	token, expiresAt, err := h.issuer.Mint(Claims{
		UID:     uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String(),
		Email:   email,
		Name:    req.Name,
		Picture: req.Picture,
	})
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, DevTokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	})
}
