package models

import "time"

// NewsStatus controls whether an article is listed publicly.
type NewsStatus string

const (
	NewsStatusPublished NewsStatus = "published"
	NewsStatusDraft     NewsStatus = "draft"
)

// News maps to the `news` table.
type News struct {
	ID          string        `db:"id" json:"_id"`
	Title       LocalizedText `json:"title"`
	Content     LocalizedText `json:"content"`
	Summary     LocalizedText `json:"summary"`
	Category    string        `db:"category" json:"category"`
	CoverImage  string        `db:"cover_image" json:"coverImage"`
	Author      string        `db:"author" json:"author"`
	Views       int           `db:"views" json:"views"`
	Status      NewsStatus    `db:"status" json:"status"`
	PublishedAt time.Time     `db:"published_at" json:"publishedAt"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updatedAt"`
}
