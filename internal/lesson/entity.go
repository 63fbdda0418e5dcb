// AngelaMos | 2026
// entity.go

package lesson

import (
	"time"

	"github.com/carterperez-dev/lifelessons-api/internal/access"
)

type Lesson struct {
	ID            string            `db:"id"`
	Title         string            `db:"title"`
	Description   string            `db:"description"`
	Category      string            `db:"category"`
	EmotionalTone string            `db:"emotional_tone"`
	ImageURL      string            `db:"image_url"`
	Visibility    access.Visibility `db:"visibility"`
	AccessLevel   access.Tier       `db:"access_level"`
	CreatorID     string            `db:"creator_id"`
	CreatorName   string            `db:"creator_name"`
	CreatorPhoto  string            `db:"creator_photo"`
	CreatedAt     time.Time         `db:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at"`
}

func (l *Lesson) AccessTier() access.Tier {
	return l.AccessLevel
}

type Report struct {
	ID            string    `db:"id"`
	LessonID      string    `db:"lesson_id"`
	LessonTitle   string    `db:"lesson_title"`
	ReporterID    string    `db:"reporter_id"`
	ReporterEmail string    `db:"reporter_email"`
	Reason        string    `db:"reason"`
	CreatedAt     time.Time `db:"created_at"`
}

const lessonColumns = `id, title, description, category, emotional_tone, image_url,
		       visibility, access_level, creator_id, creator_name, creator_photo,
		       created_at, updated_at`

var _ access.Gated = (*Lesson)(nil)
