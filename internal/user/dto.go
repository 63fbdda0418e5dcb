// AngelaMos | 2026
// dto.go

package user

import (
	"math"
	"time"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxPage         = math.MaxInt32 / maxPageSize
)

type SyncUserRequest struct {
	Name     string `json:"name"     validate:"omitempty,max=100"`
	PhotoURL string `json:"photoURL" validate:"omitempty,url,max=2048"`
}

type SocialLinks struct {
	Github   string `json:"github"   validate:"omitempty,url,max=2048"`
	Linkedin string `json:"linkedin" validate:"omitempty,url,max=2048"`
	Facebook string `json:"facebook" validate:"omitempty,url,max=2048"`
	Website  string `json:"website"  validate:"omitempty,url,max=2048"`
}

type UpdateProfileRequest struct {
	Name        string      `json:"name"        validate:"required,min=1,max=100"`
	PhotoURL    string      `json:"photoURL"    validate:"omitempty,url,max=2048"`
	Bio         string      `json:"bio"         validate:"max=1000"`
	SocialLinks SocialLinks `json:"socialLinks"`
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type UpdatePremiumRequest struct {
	IsPremium *bool `json:"isPremium" validate:"required"`
}

type UserResponse struct {
	ID             string      `json:"id"`
	Email          string      `json:"email"`
	Name           string      `json:"name"`
	PhotoURL       string      `json:"photoURL"`
	IsPremium      bool        `json:"isPremium"`
	Role           string      `json:"role"`
	CreatedLessons int         `json:"createdLessons"`
	Favorites      []string    `json:"favorites"`
	Bio            string      `json:"bio"`
	SocialLinks    SocialLinks `json:"socialLinks"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

type AdminCheckResponse struct {
	Admin bool `json:"admin"`
}

type MessageUserResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type ListUsersParams struct {
	Page     int
	PageSize int
	Search   string
	Role     string
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > maxPage {
		p.Page = maxPage
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	favorites := u.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	return UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		PhotoURL:       u.PhotoURL,
		IsPremium:      u.IsPremium,
		Role:           u.Role,
		CreatedLessons: u.CreatedLessons,
		Favorites:      favorites,
		Bio:            u.Bio,
		SocialLinks: SocialLinks{
			Github:   u.GithubURL,
			Linkedin: u.LinkedinURL,
			Facebook: u.FacebookURL,
			Website:  u.WebsiteURL,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
