// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/lifelessons-api/internal/access"
)

type User struct {
	ID             string    `db:"id"`
	Email          string    `db:"email"`
	Name           string    `db:"name"`
	PhotoURL       string    `db:"photo_url"`
	IsPremium      bool      `db:"is_premium"`
	Role           string    `db:"role"`
	CreatedLessons int       `db:"created_lessons"`
	Bio            string    `db:"bio"`
	GithubURL      string    `db:"github_url"`
	LinkedinURL    string    `db:"linkedin_url"`
	FacebookURL    string    `db:"facebook_url"`
	WebsiteURL     string    `db:"website_url"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`

	Favorites []string `db:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Viewer projects the stored entitlement state for the access gate.
func (u *User) Viewer() *access.Viewer {
	if u == nil {
		return nil
	}
	return &access.Viewer{
		UserID:   u.ID,
		Premium:  u.IsPremium,
		Elevated: u.IsAdmin(),
	}
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const userColumns = `id, email, name, photo_url, is_premium, role, created_lessons,
		       bio, github_url, linkedin_url, facebook_url, website_url,
		       created_at, updated_at`
