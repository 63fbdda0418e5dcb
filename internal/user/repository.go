// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/lifelessons-api/internal/core"
)

type Repository interface {
	Upsert(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GrantPremium(ctx context.Context, email string) (*User, bool, error)
	SetPremium(ctx context.Context, id string, premium bool) (*User, error)
	UpdateRole(ctx context.Context, id, role string) (*User, error)
	UpdateProfile(ctx context.Context, user *User) error
	IncrementCreatedLessons(ctx context.Context, id string) error
	FavoriteIDs(ctx context.Context, userID string) ([]string, error)
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Upsert inserts a new user or refreshes name and photo of an existing
// one. Role, premium flag and counters are set only on insert.
func (r *repository) Upsert(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, name, photo_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, photo_url = EXCLUDED.photo_url, updated_at = NOW()
		RETURNING ` + userColumns

	err := r.db.GetContext(ctx, user, query,
		user.ID,
		user.Email,
		user.Name,
		user.PhotoURL,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

// GrantPremium sets the premium flag with a conditional update so that
// exactly one caller observes the false to true transition. Later
// callers get the current record with granted=false.
func (r *repository) GrantPremium(
	ctx context.Context,
	email string,
) (*User, bool, error) {
	email = strings.ToLower(email)

	query := `
		UPDATE users
		SET is_premium = TRUE, updated_at = NOW()
		WHERE email = $1 AND is_premium = FALSE
		RETURNING ` + userColumns

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if err == nil {
		return &user, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("grant premium: %w", err)
	}

	existing, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("grant premium: %w", err)
	}

	return existing, false, nil
}

func (r *repository) SetPremium(
	ctx context.Context,
	id string,
	premium bool,
) (*User, error) {
	query := `
		UPDATE users
		SET is_premium = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var user User
	err := r.db.GetContext(ctx, &user, query, id, premium)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("set premium: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("set premium: %w", err)
	}

	return &user, nil
}

func (r *repository) UpdateRole(
	ctx context.Context,
	id, role string,
) (*User, error) {
	query := `
		UPDATE users
		SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var user User
	err := r.db.GetContext(ctx, &user, query, id, role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	return &user, nil
}

func (r *repository) UpdateProfile(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = $2, photo_url = $3, bio = $4,
		    github_url = $5, linkedin_url = $6, facebook_url = $7, website_url = $8,
		    updated_at = NOW()
		WHERE email = $1
		RETURNING ` + userColumns

	err := r.db.GetContext(ctx, user, query,
		strings.ToLower(user.Email),
		user.Name,
		user.PhotoURL,
		user.Bio,
		user.GithubURL,
		user.LinkedinURL,
		user.FacebookURL,
		user.WebsiteURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	return nil
}

func (r *repository) IncrementCreatedLessons(
	ctx context.Context,
	id string,
) error {
	return IncrementCreatedLessons(ctx, r.db, id)
}

// IncrementCreatedLessons bumps the authored counter on any executor,
// so callers can run it inside their own transaction.
func IncrementCreatedLessons(ctx context.Context, db core.DBTX, id string) error {
	query := `
		UPDATE users
		SET created_lessons = created_lessons + 1, updated_at = NOW()
		WHERE id = $1`

	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment created lessons: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment created lessons: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("increment created lessons: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) FavoriteIDs(
	ctx context.Context,
	userID string,
) ([]string, error) {
	query := `
		SELECT lesson_id
		FROM user_favorites
		WHERE user_id = $1
		ORDER BY created_at`

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("list favorite ids: %w", err)
	}

	return ids, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := "SELECT COUNT(*) FROM users WHERE " + whereClause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	users := []User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}
