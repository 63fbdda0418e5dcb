// AngelaMos | 2026
// service.go

package lesson

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/lifelessons-api/internal/access"
	"github.com/carterperez-dev/lifelessons-api/internal/core"
	"github.com/carterperez-dev/lifelessons-api/internal/middleware"
	"github.com/carterperez-dev/lifelessons-api/internal/user"
)

// UserStore is the slice of the entitlement store lessons depend on.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

type Service struct {
	repo  Repository
	users UserStore
}

func NewService(repo Repository, users UserStore) *Service {
	return &Service{repo: repo, users: users}
}

// viewer loads the caller's stored entitlement. Anonymous callers and
// verified identities that were never synced both map to nil.
func (s *Service) viewer(
	ctx context.Context,
	identity *middleware.Identity,
) (*user.User, error) {
	if identity == nil {
		return nil, nil
	}

	u, err := s.users.GetByEmail(ctx, identity.Email)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load viewer: %w", err)
	}

	return u, nil
}

// actor is like viewer but requires a stored user record.
func (s *Service) actor(
	ctx context.Context,
	identity *middleware.Identity,
) (*user.User, error) {
	if identity == nil {
		return nil, fmt.Errorf("resolve actor: %w", core.ErrUnauthorized)
	}
	return s.users.GetByEmail(ctx, identity.Email)
}

// Present applies the access gate. Authors always see their own body.
func Present(l *Lesson, viewer *user.User) LessonResponse {
	v := viewer.Viewer()
	locked := !access.CanAccess(l, v) && !(v != nil && v.UserID == l.CreatorID)
	return ToLessonResponse(l, locked)
}

func presentAll(lessons []Lesson, viewer *user.User) []LessonResponse {
	out := make([]LessonResponse, 0, len(lessons))
	for i := range lessons {
		out = append(out, Present(&lessons[i], viewer))
	}
	return out
}

// Create stores a new lesson authored by the verified caller. Creator
// fields always come from the stored user, never from the request.
func (s *Service) Create(
	ctx context.Context,
	identity *middleware.Identity,
	req LessonRequest,
) (*Lesson, error) {
	author, err := s.actor(ctx, identity)
	if err != nil {
		return nil, err
	}

	lesson := &Lesson{
		ID:            uuid.New().String(),
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Category:      strings.TrimSpace(req.Category),
		EmotionalTone: strings.TrimSpace(req.EmotionalTone),
		ImageURL:      req.ImageURL,
		Visibility:    req.visibility(),
		AccessLevel:   req.accessLevel(),
		CreatorID:     author.ID,
		CreatorName:   author.Name,
		CreatorPhoto:  author.PhotoURL,
	}

	if err := s.repo.Create(ctx, lesson); err != nil {
		return nil, err
	}

	return lesson, nil
}

func (s *Service) List(
	ctx context.Context,
	identity *middleware.Identity,
	params ListParams,
) (*ListResponse, error) {
	params.Normalize()

	lessons, total, err := s.repo.ListPublic(ctx, params)
	if err != nil {
		return nil, err
	}

	viewer, err := s.viewer(ctx, identity)
	if err != nil {
		return nil, err
	}

	return &ListResponse{
		Lessons:     presentAll(lessons, viewer),
		TotalPages:  core.TotalPages(total, params.Limit),
		CurrentPage: params.Page,
		Total:       total,
	}, nil
}

// Get returns one lesson. Private lessons are reported as missing to
// anyone who may not view them.
func (s *Service) Get(
	ctx context.Context,
	identity *middleware.Identity,
	id string,
) (LessonResponse, error) {
	lesson, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return LessonResponse{}, err
	}

	viewer, err := s.viewer(ctx, identity)
	if err != nil {
		return LessonResponse{}, err
	}

	if !access.CanView(lesson.Visibility, lesson.CreatorID, viewer.Viewer()) {
		return LessonResponse{}, fmt.Errorf("get lesson: %w", core.ErrNotFound)
	}

	return Present(lesson, viewer), nil
}

// Update replaces every editable field. Only the author or an admin
// may do so.
func (s *Service) Update(
	ctx context.Context,
	identity *middleware.Identity,
	id string,
	req LessonRequest,
) (*Lesson, error) {
	lesson, err := s.authorize(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	lesson.Title = strings.TrimSpace(req.Title)
	lesson.Description = req.Description
	lesson.Category = strings.TrimSpace(req.Category)
	lesson.EmotionalTone = strings.TrimSpace(req.EmotionalTone)
	lesson.ImageURL = req.ImageURL
	lesson.Visibility = req.visibility()
	lesson.AccessLevel = req.accessLevel()

	if err := s.repo.Update(ctx, lesson); err != nil {
		return nil, err
	}

	return lesson, nil
}

func (s *Service) Delete(
	ctx context.Context,
	identity *middleware.Identity,
	id string,
) error {
	if _, err := s.authorize(ctx, identity, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) authorize(
	ctx context.Context,
	identity *middleware.Identity,
	id string,
) (*Lesson, error) {
	actor, err := s.actor(ctx, identity)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("authorize lesson: %w", core.ErrForbidden)
		}
		return nil, err
	}

	lesson, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !access.CanModify(lesson.CreatorID, actor.Viewer()) {
		return nil, fmt.Errorf("authorize lesson: %w", core.ErrForbidden)
	}

	return lesson, nil
}

// MyLessons lists every lesson the caller authored, private ones
// included.
func (s *Service) MyLessons(ctx context.Context, email string) ([]LessonResponse, error) {
	author, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	lessons, err := s.repo.ListByCreator(ctx, author.ID)
	if err != nil {
		return nil, err
	}

	return presentAll(lessons, author), nil
}

func (s *Service) ToggleFavorite(
	ctx context.Context,
	email, lessonID string,
) (bool, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}

	return s.repo.ToggleFavorite(ctx, u.ID, lessonID)
}

// Favorites lists the caller's favorites. Private lessons the caller can
// no longer view are dropped and premium bodies are gated.
func (s *Service) Favorites(ctx context.Context, email string) ([]LessonResponse, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	lessons, err := s.repo.ListFavorites(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	v := u.Viewer()
	out := make([]LessonResponse, 0, len(lessons))
	for i := range lessons {
		if !access.CanView(lessons[i].Visibility, lessons[i].CreatorID, v) {
			continue
		}
		out = append(out, Present(&lessons[i], u))
	}

	return out, nil
}

func (s *Service) Report(
	ctx context.Context,
	identity *middleware.Identity,
	lessonID, reason string,
) (*Report, error) {
	reporter, err := s.actor(ctx, identity)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:            uuid.New().String(),
		LessonID:      lessonID,
		ReporterID:    reporter.ID,
		ReporterEmail: reporter.Email,
		Reason:        strings.TrimSpace(reason),
	}

	if err := s.repo.CreateReport(ctx, report); err != nil {
		return nil, err
	}

	return report, nil
}

func (s *Service) ListAll(
	ctx context.Context,
	page, pageSize int,
) ([]Lesson, int, error) {
	return s.repo.ListAll(ctx, page, pageSize)
}

func (s *Service) AdminDelete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListReports(ctx context.Context) ([]Report, error) {
	return s.repo.ListReports(ctx)
}

func (s *Service) DeleteReport(ctx context.Context, id string) error {
	return s.repo.DeleteReport(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) CountReports(ctx context.Context) (int, error) {
	return s.repo.CountReports(ctx)
}
