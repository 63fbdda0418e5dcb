// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/lifelessons-api/internal/core"
	"github.com/carterperez-dev/lifelessons-api/internal/middleware"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Sync creates the user on first login and refreshes the display name
// and photo afterwards. Values missing from the request fall back to the
// verified identity claims, then to the email local part.
func (s *Service) Sync(
	ctx context.Context,
	identity *middleware.Identity,
	req SyncUserRequest,
) (*User, error) {
	if identity == nil || identity.Email == "" {
		return nil, fmt.Errorf("sync user: %w", core.ErrUnauthorized)
	}

	email := strings.ToLower(identity.Email)

	name := firstNonEmpty(req.Name, identity.Name, localPart(email), "User")
	photo := firstNonEmpty(req.PhotoURL, identity.Picture)

	user := &User{
		ID:       uuid.New().String(),
		Email:    email,
		Name:     name,
		PhotoURL: photo,
	}

	if err := s.repo.Upsert(ctx, user); err != nil {
		return nil, err
	}

	return s.withFavorites(ctx, user)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// GetByID returns any user with favorites attached, for admin lookups.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withFavorites(ctx, user)
}

// GetProfile returns the user with the favorites set attached.
func (s *Service) GetProfile(ctx context.Context, email string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.withFavorites(ctx, user)
}

func (s *Service) IsAdmin(ctx context.Context, email string) (bool, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

// RoleByEmail satisfies middleware.RoleResolver.
func (s *Service) RoleByEmail(ctx context.Context, email string) (string, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

func (s *Service) UpdateProfile(
	ctx context.Context,
	email string,
	req UpdateProfileRequest,
) (*User, error) {
	user := &User{
		Email:       strings.ToLower(email),
		Name:        strings.TrimSpace(req.Name),
		PhotoURL:    req.PhotoURL,
		Bio:         req.Bio,
		GithubURL:   req.SocialLinks.Github,
		LinkedinURL: req.SocialLinks.Linkedin,
		FacebookURL: req.SocialLinks.Facebook,
		WebsiteURL:  req.SocialLinks.Website,
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	return s.withFavorites(ctx, user)
}

// GrantPremium is the entitlement write shared by the webhook and the
// client confirmation path.
func (s *Service) GrantPremium(
	ctx context.Context,
	email string,
) (*User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, false, fmt.Errorf("grant premium: empty email: %w", core.ErrInvalidInput)
	}

	user, granted, err := s.repo.GrantPremium(ctx, email)
	if err != nil {
		return nil, false, err
	}

	user, err = s.withFavorites(ctx, user)
	if err != nil {
		return nil, false, err
	}
	return user, granted, nil
}

func (s *Service) SetPremium(
	ctx context.Context,
	id string,
	premium bool,
) (*User, error) {
	user, err := s.repo.SetPremium(ctx, id, premium)
	if err != nil {
		return nil, err
	}
	return s.withFavorites(ctx, user)
}

// UpdateUserRole changes the role of another user. Actors cannot change
// their own role.
func (s *Service) UpdateUserRole(
	ctx context.Context,
	actorEmail, id, role string,
) (*User, error) {
	if role != RoleUser && role != RoleAdmin {
		return nil, fmt.Errorf(
			"update role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	actor, err := s.repo.GetByEmail(ctx, actorEmail)
	if err != nil {
		return nil, fmt.Errorf("update role: resolve actor: %w", err)
	}

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("update role: %w", core.ErrForbidden)
	}

	if actor.ID == id {
		return nil, fmt.Errorf("update role: cannot change own role: %w", core.ErrForbidden)
	}

	user, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	return s.withFavorites(ctx, user)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) withFavorites(ctx context.Context, user *User) (*User, error) {
	ids, err := s.repo.FavoriteIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Favorites = ids
	return user, nil
}

func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

var _ middleware.RoleResolver = (*Service)(nil)
