// AngelaMos | 2026
// handler.go

package payment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/lifelessons-api/internal/core"
	"github.com/carterperez-dev/lifelessons-api/internal/middleware"
	"github.com/carterperez-dev/lifelessons-api/internal/user"
)

const (
	maxWebhookBytes = 64 << 10
	maxBodyBytes    = 1 << 10

	signatureHeader = "Stripe-Signature"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type checkoutRequest struct {
	RedirectURL string `json:"redirectUrl"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

type ConfirmResponse struct {
	Message string            `json:"message"`
	User    user.UserResponse `json:"user"`
}

// RegisterWebhook mounts the processor callback. It sits outside the
// authenticated API and reads the raw body.
func (h *Handler) RegisterWebhook(r chi.Router) {
	r.Post("/webhook", h.Webhook)
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/create-checkout-session", h.CreateCheckoutSession)
		r.Post("/payment-success", h.ConfirmPayment)
	})
}

func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		core.BadRequest(w, "invalid request body")
		return
	}

	checkoutURL, err := h.service.CreateCheckoutSession(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		req.RedirectURL,
	)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrUnauthorized):
			core.Unauthorized(w, "")
		case errors.Is(err, ErrProcessorUnavailable):
			core.JSONError(w, core.NewAppError(
				err,
				"payment provider unavailable, please try again",
				http.StatusBadGateway,
				"PAYMENT_UNAVAILABLE",
			))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, CheckoutResponse{URL: checkoutURL})
}

func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		core.BadRequest(w, "unreadable webhook body")
		return
	}

	_, err = h.service.HandleWebhook(r.Context(), payload, r.Header.Get(signatureHeader))
	if err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			core.BadRequest(w, "invalid webhook signature")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, WebhookResponse{Received: true})
}

func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.ConfirmPayment(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "user")
		case errors.Is(err, core.ErrUnauthorized):
			core.Unauthorized(w, "")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, ConfirmResponse{Message: "Success", User: user.ToUserResponse(u)})
}
