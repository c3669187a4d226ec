package models

import (
	"time"
)

// PostStatus is the publication state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "DRAFT"
	PostStatusPublished PostStatus = "PUBLISHED"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Post is a blog article. ViewCount, LikeCount, CommentCount and SaveCount are
// denormalized counters; they are only ever changed in the same transaction as
// the rows they count.
type Post struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Title        string       `gorm:"size:200;not null" json:"title"`
	Content      string       `gorm:"type:text;not null" json:"content"`
	Excerpt      string       `gorm:"size:500" json:"excerpt"`
	CoverImage   string       `json:"coverImage"`
	Status       PostStatus   `gorm:"size:20;not null;default:DRAFT;index" json:"status"`
	PublishedAt  *time.Time   `gorm:"index" json:"publishedAt"`
	ViewCount    int          `gorm:"not null;default:0" json:"viewCount"`
	LikeCount    int          `gorm:"not null;default:0" json:"likeCount"`
	CommentCount int          `gorm:"not null;default:0" json:"commentCount"`
	SaveCount    int          `gorm:"not null;default:0" json:"saveCount"`
	AuthorID     uint         `gorm:"not null;index" json:"authorId"`
	Author       *UserSummary `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Tags         []Tag        `gorm:"many2many:post_tags" json:"tags"`
	// LikedByCurrentUser is computed per request for an authenticated viewer
	LikedByCurrentUser bool `gorm:"-" json:"likedByCurrentUser"`
	// SavedByCurrentUser is computed per request for an authenticated viewer
	SavedByCurrentUser bool      `gorm:"-" json:"savedByCurrentUser"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// IsPublished reports whether the post is publicly visible.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// VisibleTo reports whether viewerID may read the post. Only the author sees
// a post that is not published.
func (p *Post) VisibleTo(viewerID uint) bool {
	return p.IsPublished() || (viewerID != 0 && p.AuthorID == viewerID)
}

// PostSummary is the minimal post projection embedded in comment listings.
type PostSummary struct {
	ID     uint       `gorm:"primaryKey" json:"id"`
	Title  string     `json:"title"`
	Status PostStatus `json:"status"`
}

// TableName maps the summary onto the posts table.
func (PostSummary) TableName() string {
	return "posts"
}

// PostStats aggregates an author's posts.
type PostStats struct {
	TotalPosts     int64 `json:"totalPosts"`
	PublishedPosts int64 `json:"publishedPosts"`
	DraftPosts     int64 `json:"draftPosts"`
	TotalViews     int64 `json:"totalViews"`
	TotalComments  int64 `json:"totalComments"`
	TotalLikes     int64 `json:"totalLikes"`
}
