package repository

import (
	"context"
	"regexp"
	"testing"

	"inkwell/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestApplyPostFilter(t *testing.T) {
	db, _ := setupMockDB(t)

	tests := []struct {
		name     string
		filter   PostFilter
		contains []string
		excludes []string
	}{
		{
			name:     "Guest Sees Published Only",
			filter:   PostFilter{},
			contains: []string{`posts.status = 'PUBLISHED'`},
			excludes: []string{"author_id"},
		},
		{
			name:     "Viewer Sees Own Drafts",
			filter:   PostFilter{ViewerID: 7},
			contains: []string{`(posts.status = 'PUBLISHED' OR posts.author_id = 7)`},
		},
		{
			name:     "Explicit Status",
			filter:   PostFilter{ViewerID: 7, Status: models.PostStatusDraft},
			contains: []string{`posts.status = 'DRAFT'`},
		},
		{
			name:     "Tag Substring",
			filter:   PostFilter{Tag: " GoLang "},
			contains: []string{"LOWER(tags.name) LIKE '%golang%'"},
		},
		{
			name:     "Author Username",
			filter:   PostFilter{Author: "Alice"},
			contains: []string{"LOWER(users.username) = 'alice'"},
		},
		{
			name:   "Search",
			filter: PostFilter{Search: "Fiber"},
			contains: []string{
				"LOWER(posts.title) LIKE '%fiber%'",
				"LOWER(posts.content) LIKE '%fiber%'",
				"LOWER(posts.excerpt) LIKE '%fiber%'",
			},
		},
		{
			name:   "Search Wildcards Are Literal",
			filter: PostFilter{Search: `100%_Off\`},
			contains: []string{
				`LOWER(posts.title) LIKE '%100\%\_off\\%' ESCAPE '\'`,
			},
		},
		{
			name:     "Tag ID",
			filter:   PostFilter{TagID: 3},
			contains: []string{"post_tags.tag_id = 3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
				return ApplyPostFilter(tx, tt.filter).Find(&[]models.Post{})
			})
			for _, want := range tt.contains {
				assert.Contains(t, sql, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, sql, unwanted)
			}
			assert.NotContains(t, sql, "ORDER BY")
		})
	}
}

func TestParsePostSort(t *testing.T) {
	tests := []struct {
		by, order string
		want      string
	}{
		{"", "", "COALESCE(posts.published_at, posts.created_at) DESC, posts.id DESC"},
		{"title", "asc", "posts.title ASC, posts.id ASC"},
		{"likeCount", "DESC", "posts.like_count DESC, posts.id DESC"},
		{"password; DROP TABLE posts", "asc", "COALESCE(posts.published_at, posts.created_at) ASC, posts.id ASC"},
	}
	for _, tt := range tests {
		t.Run(tt.by, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePostSort(tt.by, tt.order).Clause())
		})
	}
}

func TestPostRepository_IncrementViews(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "view_count"=view_count + 1 WHERE id = $1`)).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.IncrementViews(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_DeleteWithComments(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .*comment_count.* FROM "posts" WHERE "posts"."id" = \$1`).
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "comment_count"}).AddRow(5, 2))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 5)
	assert.ErrorIs(t, err, ErrHasComments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 ORDER BY "posts"."id" LIMIT $2`)).
		WithArgs(42, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 42)
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
