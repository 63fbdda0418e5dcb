// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/lifelessons-api/internal/core"
	"github.com/carterperez-dev/lifelessons-api/internal/middleware"
)

type fakeRepo struct {
	mu        sync.Mutex
	byEmail   map[string]*User
	favorites map[string][]string
}

func newFakeRepo(users ...*User) *fakeRepo {
	r := &fakeRepo{
		byEmail:   map[string]*User{},
		favorites: map[string][]string{},
	}
	for _, u := range users {
		r.byEmail[u.Email] = u
	}
	return r
}

func (r *fakeRepo) Upsert(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byEmail[u.Email]; ok {
		existing.Name = u.Name
		existing.PhotoURL = u.PhotoURL
		*u = *existing
		return nil
	}
	u.Role = RoleUser
	stored := *u
	r.byEmail[u.Email] = &stored
	return nil
}

func (r *fakeRepo) find(pred func(*User) bool) (*User, error) {
	for _, u := range r.byEmail {
		if pred(u) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("fake: %w", core.ErrNotFound)
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.find(func(u *User) bool { return u.ID == id })
	if err != nil {
		return nil, err
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("fake: %w", core.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) GrantPremium(_ context.Context, email string) (*User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, false, fmt.Errorf("fake: %w", core.ErrNotFound)
	}
	granted := !u.IsPremium
	u.IsPremium = true
	cp := *u
	return &cp, granted, nil
}

func (r *fakeRepo) SetPremium(_ context.Context, id string, premium bool) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.find(func(u *User) bool { return u.ID == id })
	if err != nil {
		return nil, err
	}
	u.IsPremium = premium
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) UpdateRole(_ context.Context, id, role string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.find(func(u *User) bool { return u.ID == id })
	if err != nil {
		return nil, err
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) UpdateProfile(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byEmail[u.Email]
	if !ok {
		return fmt.Errorf("fake: %w", core.ErrNotFound)
	}
	existing.Name = u.Name
	existing.PhotoURL = u.PhotoURL
	existing.Bio = u.Bio
	existing.GithubURL = u.GithubURL
	existing.LinkedinURL = u.LinkedinURL
	existing.FacebookURL = u.FacebookURL
	existing.WebsiteURL = u.WebsiteURL
	*u = *existing
	return nil
}

func (r *fakeRepo) IncrementCreatedLessons(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.find(func(u *User) bool { return u.ID == id })
	if err != nil {
		return err
	}
	u.CreatedLessons++
	return nil
}

func (r *fakeRepo) FavoriteIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.favorites[userID]...), nil
}

func (r *fakeRepo) List(_ context.Context, _ ListUsersParams) ([]User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]User, 0, len(r.byEmail))
	for _, u := range r.byEmail {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (r *fakeRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byEmail), nil
}

func TestSyncCreatesStandardUser(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	got, err := svc.Sync(context.Background(), &middleware.Identity{
		UID:   "uid-1",
		Email: "Bob@Example.com",
	}, SyncUserRequest{})

	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", got.Email)
	assert.Equal(t, "bob", got.Name)
	assert.Equal(t, RoleUser, got.Role)
	assert.False(t, got.IsPremium)
	assert.Equal(t, []string{}, got.Favorites)
}

func TestSyncPreservesEntitlement(t *testing.T) {
	repo := newFakeRepo(&User{
		ID: "u1", Email: "bob@example.com", Name: "Old", IsPremium: true, Role: RoleAdmin,
	})
	repo.favorites["u1"] = []string{"l1"}
	svc := NewService(repo)

	got, err := svc.Sync(context.Background(), &middleware.Identity{
		Email: "bob@example.com",
		Name:  "Token Name",
	}, SyncUserRequest{Name: "Bob", PhotoURL: "https://img.example.com/b.png"})

	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "Bob", got.Name)
	assert.True(t, got.IsPremium)
	assert.Equal(t, RoleAdmin, got.Role)
	assert.Equal(t, []string{"l1"}, got.Favorites)
}

func TestSyncRequiresIdentity(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Sync(context.Background(), nil, SyncUserRequest{})
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestGrantPremiumIdempotent(t *testing.T) {
	repo := newFakeRepo(&User{ID: "u1", Email: "alice@example.com"})
	svc := NewService(repo)
	ctx := context.Background()

	first, granted, err := svc.GrantPremium(ctx, " Alice@Example.com ")
	require.NoError(t, err)
	assert.True(t, granted)
	assert.True(t, first.IsPremium)

	second, granted, err := svc.GrantPremium(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, granted)
	assert.True(t, second.IsPremium)
}

func TestEntitlementWritesKeepFavorites(t *testing.T) {
	admin := &User{ID: "a1", Email: "admin@example.com", Role: RoleAdmin}
	member := &User{ID: "m1", Email: "member@example.com", Role: RoleUser}
	ctx := context.Background()

	newSvc := func() *Service {
		repo := newFakeRepo(copyUser(admin), copyUser(member))
		repo.favorites["m1"] = []string{"l1", "l2"}
		return NewService(repo)
	}

	t.Run("grant premium", func(t *testing.T) {
		got, granted, err := newSvc().GrantPremium(ctx, "member@example.com")
		require.NoError(t, err)
		assert.True(t, granted)
		assert.Equal(t, []string{"l1", "l2"}, got.Favorites)
	})

	t.Run("repeated grant", func(t *testing.T) {
		svc := newSvc()
		_, _, err := svc.GrantPremium(ctx, "member@example.com")
		require.NoError(t, err)

		got, granted, err := svc.GrantPremium(ctx, "member@example.com")
		require.NoError(t, err)
		assert.False(t, granted)
		assert.Equal(t, []string{"l1", "l2"}, got.Favorites)
	})

	t.Run("set premium", func(t *testing.T) {
		got, err := newSvc().SetPremium(ctx, "m1", true)
		require.NoError(t, err)
		assert.Equal(t, []string{"l1", "l2"}, got.Favorites)
	})

	t.Run("update role", func(t *testing.T) {
		got, err := newSvc().UpdateUserRole(ctx, "admin@example.com", "m1", RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, []string{"l1", "l2"}, got.Favorites)
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := newSvc().GetByID(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, []string{"l1", "l2"}, got.Favorites)
	})
}

func TestGrantPremiumEmptyEmail(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, _, err := svc.GrantPremium(context.Background(), "  ")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestUpdateUserRole(t *testing.T) {
	admin := &User{ID: "a1", Email: "admin@example.com", Role: RoleAdmin}
	member := &User{ID: "m1", Email: "member@example.com", Role: RoleUser}

	t.Run("promotes another user", func(t *testing.T) {
		svc := NewService(newFakeRepo(copyUser(admin), copyUser(member)))

		got, err := svc.UpdateUserRole(context.Background(), "admin@example.com", "m1", RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, RoleAdmin, got.Role)
	})

	t.Run("cannot change own role", func(t *testing.T) {
		svc := NewService(newFakeRepo(copyUser(admin)))

		_, err := svc.UpdateUserRole(context.Background(), "admin@example.com", "a1", RoleUser)
		assert.ErrorIs(t, err, core.ErrForbidden)
	})

	t.Run("standard actor is rejected", func(t *testing.T) {
		svc := NewService(newFakeRepo(copyUser(admin), copyUser(member)))

		_, err := svc.UpdateUserRole(context.Background(), "member@example.com", "a1", RoleUser)
		assert.ErrorIs(t, err, core.ErrForbidden)
	})

	t.Run("invalid role", func(t *testing.T) {
		svc := NewService(newFakeRepo(copyUser(admin), copyUser(member)))

		_, err := svc.UpdateUserRole(context.Background(), "admin@example.com", "m1", "owner")
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})
}

func TestIsAdminUnknownUser(t *testing.T) {
	svc := NewService(newFakeRepo())

	admin, err := svc.IsAdmin(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, admin)
}

func TestViewerProjection(t *testing.T) {
	u := &User{ID: "u1", IsPremium: true, Role: RoleAdmin}
	v := u.Viewer()

	assert.Equal(t, "u1", v.UserID)
	assert.True(t, v.Premium)
	assert.True(t, v.Elevated)

	var anon *User
	assert.Nil(t, anon.Viewer())
}

func copyUser(u *User) *User {
	cp := *u
	return &cp
}
