package repository

import (
	"strings"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows a post listing. Zero values mean "no constraint".
type PostFilter struct {
	// ViewerID is the authenticated requester, 0 for guests.
	ViewerID uint
	Status   models.PostStatus
	// Tag matches any tag whose name contains it, case-insensitively.
	Tag   string
	TagID uint
	// Author is an exact username, case-insensitive.
	Author   string
	AuthorID uint
	Search   string
}

// ApplyPostFilter adds the visibility and filter predicate to db. It never adds
// ordering, so the result is safe to count.
func ApplyPostFilter(db *gorm.DB, f PostFilter) *gorm.DB {
	q := db.Model(&models.Post{})

	if f.ViewerID == 0 {
		q = q.Where("posts.status = ?", models.PostStatusPublished)
	} else {
		q = q.Where("(posts.status = ? OR posts.author_id = ?)", models.PostStatusPublished, f.ViewerID)
	}

	if f.Status != "" {
		q = q.Where("posts.status = ?", f.Status)
	}
	if f.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", f.AuthorID)
	}
	if author := strings.ToLower(strings.TrimSpace(f.Author)); author != "" {
		q = q.Where("EXISTS (SELECT 1 FROM users WHERE users.id = posts.author_id AND LOWER(users.username) = ?)", author)
	}
	if f.TagID != 0 {
		q = q.Where("EXISTS (SELECT 1 FROM post_tags WHERE post_tags.post_id = posts.id AND post_tags.tag_id = ?)", f.TagID)
	}
	if tag := strings.TrimSpace(f.Tag); tag != "" {
		q = q.Where(`EXISTS (SELECT 1 FROM post_tags JOIN tags ON tags.id = post_tags.tag_id `+
			`WHERE post_tags.post_id = posts.id AND LOWER(tags.name) LIKE ? ESCAPE '\')`, likePattern(tag))
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := likePattern(search)
		q = q.Where(`(LOWER(posts.title) LIKE ? ESCAPE '\' OR LOWER(posts.content) LIKE ? ESCAPE '\' `+
			`OR LOWER(posts.excerpt) LIKE ? ESCAPE '\')`, like, like, like)
	}
	return q
}

// PostSort is a whitelisted ordering for post listings.
type PostSort struct {
	By    string
	Order string
}

var postSortColumns = map[string]string{
	"publishedAt":  "COALESCE(posts.published_at, posts.created_at)",
	"createdAt":    "posts.created_at",
	"updatedAt":    "posts.updated_at",
	"title":        "posts.title",
	"viewCount":    "posts.view_count",
	"likeCount":    "posts.like_count",
	"commentCount": "posts.comment_count",
}

// ParsePostSort falls back to publishedAt desc for anything unknown.
func ParsePostSort(by, order string) PostSort {
	s := PostSort{By: "publishedAt", Order: "desc"}
	if _, ok := postSortColumns[by]; ok {
		s.By = by
	}
	if strings.EqualFold(order, "asc") {
		s.Order = "asc"
	}
	return s
}

// Clause renders the ORDER BY with posts.id as a stable tie-breaker.
func (s PostSort) Clause() string {
	col, ok := postSortColumns[s.By]
	if !ok {
		col = postSortColumns["publishedAt"]
	}
	dir := "DESC"
	if s.Order == "asc" {
		dir = "ASC"
	}
	return col + " " + dir + ", posts.id " + dir
}
