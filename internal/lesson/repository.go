// AngelaMos | 2026
// repository.go

package lesson

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/lifelessons-api/internal/core"
	"github.com/carterperez-dev/lifelessons-api/internal/user"
)

type Repository interface {
	Create(ctx context.Context, lesson *Lesson) error
	GetByID(ctx context.Context, id string) (*Lesson, error)
	Update(ctx context.Context, lesson *Lesson) error
	Delete(ctx context.Context, id string) error
	ListPublic(ctx context.Context, params ListParams) ([]Lesson, int, error)
	ListByCreator(ctx context.Context, creatorID string) ([]Lesson, error)
	ListAll(ctx context.Context, page, pageSize int) ([]Lesson, int, error)
	Count(ctx context.Context) (int, error)

	ToggleFavorite(ctx context.Context, userID, lessonID string) (bool, error)
	ListFavorites(ctx context.Context, userID string) ([]Lesson, error)

	CreateReport(ctx context.Context, report *Report) error
	ListReports(ctx context.Context) ([]Report, error)
	DeleteReport(ctx context.Context, id string) error
	CountReports(ctx context.Context) (int, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Create inserts the lesson and bumps the author's counter in one
// transaction.
func (r *repository) Create(ctx context.Context, lesson *Lesson) error {
	query := `
		INSERT INTO lessons (id, title, description, category, emotional_tone, image_url,
		                     visibility, access_level, creator_id, creator_name, creator_photo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, query,
			lesson.ID,
			lesson.Title,
			lesson.Description,
			lesson.Category,
			lesson.EmotionalTone,
			lesson.ImageURL,
			string(lesson.Visibility),
			string(lesson.AccessLevel),
			lesson.CreatorID,
			lesson.CreatorName,
			lesson.CreatorPhoto,
		).Scan(&lesson.CreatedAt, &lesson.UpdatedAt)
		if err != nil {
			if core.IsForeignKeyError(err) {
				return fmt.Errorf("create lesson: creator: %w", core.ErrNotFound)
			}
			return fmt.Errorf("create lesson: %w", err)
		}

		return user.IncrementCreatedLessons(ctx, tx, lesson.CreatorID)
	})
}

func (r *repository) GetByID(ctx context.Context, id string) (*Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`

	var lesson Lesson
	err := r.db.GetContext(ctx, &lesson, query, id)
	if errors.Is(err, sql.ErrNoRows) || core.IsInvalidIDError(err) {
		return nil, fmt.Errorf("get lesson: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}

	return &lesson, nil
}

func (r *repository) Update(ctx context.Context, lesson *Lesson) error {
	query := `
		UPDATE lessons
		SET title = $2, description = $3, category = $4, emotional_tone = $5,
		    image_url = $6, visibility = $7, access_level = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &lesson.UpdatedAt, query,
		lesson.ID,
		lesson.Title,
		lesson.Description,
		lesson.Category,
		lesson.EmotionalTone,
		lesson.ImageURL,
		string(lesson.Visibility),
		string(lesson.AccessLevel),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update lesson: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "lessons", "delete lesson", id)
}

func (r *repository) ListPublic(
	ctx context.Context,
	params ListParams,
) ([]Lesson, int, error) {
	params.Normalize()

	conditions := []string{"visibility = 'public'"}
	var args []any
	argIdx := 1

	if params.Category != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(category) = LOWER($%d)", argIdx))
		args = append(args, params.Category)
		argIdx++
	}

	if params.EmotionalTone != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(emotional_tone) = LOWER($%d)", argIdx))
		args = append(args, params.EmotionalTone)
		argIdx++
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%d OR description ILIKE $%d OR category ILIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM lessons WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count public lessons: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM lessons
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		lessonColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.Limit, params.Offset())

	lessons := []Lesson{}
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list public lessons: %w", err)
	}

	return lessons, total, nil
}

func (r *repository) ListByCreator(
	ctx context.Context,
	creatorID string,
) ([]Lesson, error) {
	query := `SELECT ` + lessonColumns + `
		FROM lessons
		WHERE creator_id = $1
		ORDER BY created_at DESC`

	lessons := []Lesson{}
	if err := r.db.SelectContext(ctx, &lessons, query, creatorID); err != nil {
		return nil, fmt.Errorf("list lessons by creator: %w", err)
	}

	return lessons, nil
}

func (r *repository) ListAll(
	ctx context.Context,
	page, pageSize int,
) ([]Lesson, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + lessonColumns + `
		FROM lessons
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	lessons := []Lesson{}
	if err := r.db.SelectContext(ctx, &lessons, query, pageSize, (page-1)*pageSize); err != nil {
		return nil, 0, fmt.Errorf("list all lessons: %w", err)
	}

	return lessons, total, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM lessons`); err != nil {
		return 0, fmt.Errorf("count lessons: %w", err)
	}
	return total, nil
}

// ToggleFavorite removes the pair if present, otherwise adds it. The
// composite primary key keeps the favorites a set.
func (r *repository) ToggleFavorite(
	ctx context.Context,
	userID, lessonID string,
) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM user_favorites WHERE user_id = $1 AND lesson_id = $2`,
		userID, lessonID,
	)
	if err != nil {
		return false, fmt.Errorf("toggle favorite: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("toggle favorite: %w", err)
	}
	if removed > 0 {
		return false, nil
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_favorites (user_id, lesson_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, lesson_id) DO NOTHING`,
		userID, lessonID,
	)
	if err != nil {
		if core.IsForeignKeyError(err) {
			return false, fmt.Errorf("toggle favorite: %w", core.ErrNotFound)
		}
		return false, fmt.Errorf("toggle favorite: %w", err)
	}

	return true, nil
}

func (r *repository) ListFavorites(
	ctx context.Context,
	userID string,
) ([]Lesson, error) {
	query := `
		SELECT l.id, l.title, l.description, l.category, l.emotional_tone, l.image_url,
		       l.visibility, l.access_level, l.creator_id, l.creator_name, l.creator_photo,
		       l.created_at, l.updated_at
		FROM user_favorites f
		JOIN lessons l ON l.id = f.lesson_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC`

	lessons := []Lesson{}
	if err := r.db.SelectContext(ctx, &lessons, query, userID); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	return lessons, nil
}

func (r *repository) CreateReport(ctx context.Context, report *Report) error {
	query := `
		INSERT INTO lesson_reports (id, lesson_id, reporter_id, reporter_email, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &report.CreatedAt, query,
		report.ID,
		report.LessonID,
		report.ReporterID,
		report.ReporterEmail,
		report.Reason,
	)
	if err != nil {
		if core.IsForeignKeyError(err) {
			return fmt.Errorf("create report: %w", core.ErrNotFound)
		}
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create report: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create report: %w", err)
	}

	return nil
}

func (r *repository) ListReports(ctx context.Context) ([]Report, error) {
	query := `
		SELECT r.id, r.lesson_id, l.title AS lesson_title, r.reporter_id,
		       r.reporter_email, r.reason, r.created_at
		FROM lesson_reports r
		JOIN lessons l ON l.id = r.lesson_id
		ORDER BY r.created_at DESC`

	reports := []Report{}
	if err := r.db.SelectContext(ctx, &reports, query); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	return reports, nil
}

func (r *repository) DeleteReport(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "lesson_reports", "delete report", id)
}

func (r *repository) CountReports(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM lesson_reports`); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return total, nil
}

func (r *repository) deleteByID(ctx context.Context, table, op, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
