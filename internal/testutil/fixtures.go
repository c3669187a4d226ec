package testutil

import (
	"fmt"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// CreateUser inserts an active user with the given username.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Email:    fmt.Sprintf("%s@example.com", username),
		Username: username,
		Password: "not-a-real-hash",
		Role:     models.RoleUser,
		IsActive: true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreatePost inserts a post owned by authorID. Published posts get PublishedAt.
func CreatePost(t testing.TB, db *gorm.DB, authorID uint, title string, status models.PostStatus) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:    title,
		Content:  "Content of " + title,
		Excerpt:  "Excerpt of " + title,
		Status:   status,
		AuthorID: authorID,
	}
	if status == models.PostStatusPublished {
		now := time.Now().UTC()
		p.PublishedAt = &now
	}
	require.NoError(t, db.Omit("Tags", "Author").Create(p).Error)
	return p
}

// CreateTag inserts a tag with a slug derived by the caller.
func CreateTag(t testing.TB, db *gorm.DB, name, slug string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Slug: slug, Color: models.DefaultTagColor}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

// AttachTag links a post to a tag.
func AttachTag(t testing.TB, db *gorm.DB, postID, tagID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.PostTag{PostID: postID, TagID: tagID}).Error)
}

// CreateComment inserts an approved comment directly, bypassing counters.
func CreateComment(t testing.TB, db *gorm.DB, postID, authorID uint, parentID *uint, content string, createdAt time.Time) *models.Comment {
	t.Helper()
	c := &models.Comment{
		Content:    content,
		PostID:     postID,
		AuthorID:   authorID,
		ParentID:   parentID,
		IsApproved: true,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	require.NoError(t, db.Omit("Author", "Post", "Parent").Create(c).Error)
	return c
}
