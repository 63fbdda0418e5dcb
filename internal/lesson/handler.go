// AngelaMos | 2026
// handler.go

package lesson

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/lifelessons-api/internal/core"
	"github.com/carterperez-dev/lifelessons-api/internal/middleware"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, optionalAuth func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)

		r.Get("/lessons", h.List)
		r.Get("/lessons/{id}", h.Get)
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/lessons", h.Create)
		r.Put("/lessons/{id}", h.Update)
		r.Delete("/lessons/{id}", h.Delete)
		r.Post("/lessons/{id}/reports", h.Report)
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(middleware.RequireSelf("email"))

		r.Get("/my-lessons/{email}", h.MyLessons)
		r.Put("/users/favorites/{email}", h.ToggleFavorite)
		r.Get("/users/favorites/{email}", h.Favorites)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		Category:      q.Get("category"),
		EmotionalTone: q.Get("emotionalTone"),
		Search:        q.Get("search"),
		Page:          parseIntQuery(r, "page", 1),
		Limit:         parseIntQuery(r, "limit", defaultPageLimit),
	}

	resp, err := h.service.List(r.Context(), middleware.GetIdentity(r.Context()), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := lessonIDParam(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Get(r.Context(), middleware.GetIdentity(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req LessonRequest
	if !h.bind(w, r, &req) {
		return
	}

	lesson, err := h.service.Create(r.Context(), middleware.GetIdentity(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToLessonResponse(lesson, false))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := lessonIDParam(w, r)
	if !ok {
		return
	}

	var req LessonRequest
	if !h.bind(w, r, &req) {
		return
	}

	lesson, err := h.service.Update(r.Context(), middleware.GetIdentity(r.Context()), id, req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToLessonResponse(lesson, false))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := lessonIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetIdentity(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: "Lesson deleted"})
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	id, ok := lessonIDParam(w, r)
	if !ok {
		return
	}

	var req ReportRequest
	if !h.bind(w, r, &req) {
		return
	}

	report, err := h.service.Report(r.Context(), middleware.GetIdentity(r.Context()), id, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToReportResponse(report))
}

func (h *Handler) MyLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.service.MyLessons(r.Context(), middleware.GetEmail(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, lessons)
}

func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req FavoriteRequest
	if !h.bind(w, r, &req) {
		return
	}

	added, err := h.service.ToggleFavorite(r.Context(), middleware.GetEmail(r.Context()), req.LessonID)
	if err != nil {
		writeError(w, err)
		return
	}

	message := "Removed from favorites"
	if added {
		message = "Added to favorites"
	}

	core.OK(w, FavoriteToggleResponse{Message: message, Added: added})
}

func (h *Handler) Favorites(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.service.Favorites(r.Context(), middleware.GetEmail(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, lessons)
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/lessons", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.AdminList)
		r.Delete("/{id}", h.AdminDelete)
	})

	r.Route("/admin/reports", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListReports)
		r.Delete("/{id}", h.DeleteReport)
	})
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	page := min(max(parseIntQuery(r, "page", 1), 1), maxPage)
	pageSize := min(max(parseIntQuery(r, "page_size", 20), 1), maxPageLimit)

	lessons, total, err := h.service.ListAll(r.Context(), page, pageSize)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	out := make([]LessonResponse, 0, len(lessons))
	for i := range lessons {
		out = append(out, ToLessonResponse(&lessons[i], false))
	}

	core.Paginated(w, out, page, pageSize, total)
}

func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := lessonIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.AdminDelete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: "Lesson deleted by admin"})
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.ListReports(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToReportResponseList(reports))
}

func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		core.NotFound(w, "report")
		return
	}

	if err := h.service.DeleteReport(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "report")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: "Report resolved"})
}

func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "lesson")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "you may not modify this lesson")
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	case errors.Is(err, core.ErrDuplicateKey):
		core.JSONError(w, core.DuplicateError("report"))
	default:
		core.InternalServerError(w, err)
	}
}

// lessonIDParam rejects malformed ids up front; they cannot name a row.
func lessonIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		core.NotFound(w, "lesson")
		return "", false
	}
	return id, true
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
