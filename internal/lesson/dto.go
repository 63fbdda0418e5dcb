// AngelaMos | 2026
// dto.go

package lesson

import (
	"math"
	"strings"
	"time"

	"github.com/carterperez-dev/lifelessons-api/internal/access"
)

const (
	defaultPageLimit = 9
	maxPageLimit     = 100
	maxPage          = math.MaxInt32 / maxPageLimit
)

// LessonRequest is used for both create and full-field update.
type LessonRequest struct {
	Title         string `json:"title"         validate:"required,min=1,max=200"`
	Description   string `json:"description"   validate:"required,min=1,max=20000"`
	Category      string `json:"category"      validate:"required,min=1,max=60"`
	EmotionalTone string `json:"emotionalTone" validate:"required,min=1,max=60"`
	ImageURL      string `json:"imageURL"      validate:"omitempty,url,max=2048"`
	Visibility    string `json:"visibility"    validate:"omitempty,oneof=public private"`
	AccessLevel   string `json:"accessLevel"   validate:"omitempty,oneof=free premium"`
}

func (r LessonRequest) visibility() access.Visibility {
	if r.Visibility == "" {
		return access.VisibilityPublic
	}
	return access.Visibility(r.Visibility)
}

func (r LessonRequest) accessLevel() access.Tier {
	if r.AccessLevel == "" {
		return access.TierFree
	}
	return access.Tier(r.AccessLevel)
}

type FavoriteRequest struct {
	LessonID string `json:"lessonId" validate:"required,uuid"`
}

type ReportRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=1000"`
}

// ListParams are the public listing filters. Zero values mean no filter.
type ListParams struct {
	Category      string
	EmotionalTone string
	Search        string
	Page          int
	Limit         int
}

func (p *ListParams) Normalize() {
	p.Category = cleanFilter(p.Category)
	p.EmotionalTone = cleanFilter(p.EmotionalTone)
	p.Search = strings.TrimSpace(p.Search)

	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > maxPage {
		p.Page = maxPage
	}
	if p.Limit < 1 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// cleanFilter drops the literal placeholders some clients send for an
// unset select box.
func cleanFilter(v string) string {
	v = strings.TrimSpace(v)
	if v == "undefined" || v == "null" {
		return ""
	}
	return v
}

type LessonResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	EmotionalTone string    `json:"emotionalTone"`
	ImageURL      string    `json:"imageURL"`
	Visibility    string    `json:"visibility"`
	AccessLevel   string    `json:"accessLevel"`
	CreatorID     string    `json:"creatorId"`
	CreatorName   string    `json:"creatorName"`
	CreatorPhoto  string    `json:"creatorPhoto"`
	Locked        bool      `json:"locked"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type ListResponse struct {
	Lessons     []LessonResponse `json:"lessons"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
	Total       int              `json:"total"`
}

type FavoriteToggleResponse struct {
	Message string `json:"message"`
	Added   bool   `json:"added"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ReportResponse struct {
	ID            string    `json:"id"`
	LessonID      string    `json:"lessonId"`
	LessonTitle   string    `json:"lessonTitle,omitempty"`
	ReporterID    string    `json:"reporterId"`
	ReporterEmail string    `json:"reporterEmail"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ToLessonResponse renders a lesson; locked lessons have their body
// withheld.
func ToLessonResponse(l *Lesson, locked bool) LessonResponse {
	resp := LessonResponse{
		ID:            l.ID,
		Title:         l.Title,
		Description:   l.Description,
		Category:      l.Category,
		EmotionalTone: l.EmotionalTone,
		ImageURL:      l.ImageURL,
		Visibility:    string(l.Visibility),
		AccessLevel:   string(l.AccessLevel),
		CreatorID:     l.CreatorID,
		CreatorName:   l.CreatorName,
		CreatorPhoto:  l.CreatorPhoto,
		Locked:        locked,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
	if locked {
		resp.Description = ""
	}
	return resp
}

func ToReportResponse(r *Report) ReportResponse {
	return ReportResponse{
		ID:            r.ID,
		LessonID:      r.LessonID,
		LessonTitle:   r.LessonTitle,
		ReporterID:    r.ReporterID,
		ReporterEmail: r.ReporterEmail,
		Reason:        r.Reason,
		CreatedAt:     r.CreatedAt,
	}
}

func ToReportResponseList(reports []Report) []ReportResponse {
	out := make([]ReportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, ToReportResponse(&reports[i]))
	}
	return out
}
