package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/pagination"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_CreateThenListCountsOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, e.db, "author")
	reader := testutil.CreateUser(t, e.db, "reader")
	post := testutil.CreatePost(t, e.db, author.ID, "Hello", models.PostStatusPublished)

	created, err := e.comments.CreateComment(ctx, CreateCommentInput{
		UserID:  reader.ID,
		PostID:  post.ID,
		Content: "  nice post  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "nice post", created.Content)
	assert.False(t, created.IsEdited)
	assert.Equal(t, 0, created.ReplyCount)
	assert.NotNil(t, created.Replies)
	require.NotNil(t, created.Author)
	assert.Equal(t, "reader", created.Author.Username)

	assert.Equal(t, 1, e.reloadPost(t, post.ID).CommentCount)

	page, err := e.comments.ListPostComments(ctx, post.ID, pagination.NewParams(1, 20, DefaultCommentPageSize))
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, created.ID, page.Data[0].ID)
	assert.Equal(t, int64(1), page.Pagination.TotalItems)

	require.Len(t, e.events.user, 1)
	assert.Equal(t, author.ID, e.events.user[0].UserID)
	assert.Equal(t, notifications.EventCommentCreated, e.events.user[0].Type)
}

func TestCommentService_CreateOwnPostDoesNotNotify(t *testing.T) {
	e := newEnv(t)
	author := testutil.CreateUser(t, e.db, "author")
	post := testutil.CreatePost(t, e.db, author.ID, "Hello", models.PostStatusPublished)

	_, err := e.comments.CreateComment(context.Background(), CreateCommentInput{
		UserID: author.ID, PostID: post.ID, Content: "self",
	})
	require.NoError(t, err)
	assert.Empty(t, e.events.user)
}

func TestCommentService_CreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, e.db, "author")
	published := testutil.CreatePost(t, e.db, author.ID, "Published", models.PostStatusPublished)
	other := testutil.CreatePost(t, e.db, author.ID, "Other", models.PostStatusPublished)
	draft := testutil.CreatePost(t, e.db, author.ID, "Draft", models.PostStatusDraft)
	foreign := testutil.CreateComment(t, e.db, other.ID, author.ID, nil, "elsewhere", time.Now())
	missingParent := uint(9999)

	tests := []struct {
		name    string
		in      CreateCommentInput
		code    string
		message string
	}{
		{"Empty Content", CreateCommentInput{PostID: published.ID, Content: "   "}, models.CodeValidation, "Comment content is required"},
		{"Too Long", CreateCommentInput{PostID: published.ID, Content: strings.Repeat("a", MaxCommentLength+1)}, models.CodeValidation, "Comment must be 2000 characters or less"},
		{"Missing Post", CreateCommentInput{PostID: 9999, Content: "hi"}, models.CodeNotFound, "Post not found or not available for comments"},
		{"Draft Post", CreateCommentInput{PostID: draft.ID, Content: "hi"}, models.CodeNotFound, "Post not found or not available for comments"},
		{"Missing Parent", CreateCommentInput{PostID: published.ID, ParentID: &missingParent, Content: "hi"}, models.CodeNotFound, "Parent comment not found"},
		{"Parent On Other Post", CreateCommentInput{PostID: published.ID, ParentID: &foreign.ID, Content: "hi"}, models.CodeNotFound, "Parent comment not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.UserID = author.ID
			_, err := e.comments.CreateComment(ctx, tt.in)
			assertAppError(t, err, tt.code, tt.message)
		})
	}

	assert.Equal(t, 0, e.reloadPost(t, published.ID).CommentCount)
}

func TestCommentService_MaxLengthAccepted(t *testing.T) {
	e := newEnv(t)
	author := testutil.CreateUser(t, e.db, "author")
	post := testutil.CreatePost(t, e.db, author.ID, "Hello", models.PostStatusPublished)

	_, err := e.comments.CreateComment(context.Background(), CreateCommentInput{
		UserID: author.ID, PostID: post.ID, Content: strings.Repeat("é", MaxCommentLength),
	})
	require.NoError(t, err)
}

func TestCommentService_DeleteWithReplyIsRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, e.db, "author")
	post := testutil.CreatePost(t, e.db, author.ID, "Hello", models.PostStatusPublished)

	root, err := e.comments.CreateComment(ctx, CreateCommentInput{UserID: author.ID, PostID: post.ID, Content: "root"})
	require.NoError(t, err)
	_, err = e.comments.CreateComment(ctx, CreateCommentInput{UserID: author.ID, PostID: post.ID, ParentID: &root.ID, Content: "reply"})
	require.NoError(t, err)
	require.Equal(t, 2, e.reloadPost(t, post.ID).CommentCount)

	err = e.comments.DeleteComment(ctx, DeleteCommentInput{UserID: author.ID, CommentID: root.ID})
	assertValidationError(t, err, "Cannot delete comment with replies")

	assert.Equal(t, 2, e.reloadPost(t, post.ID).CommentCount)
	var count int64
	require.NoError(t, e.db.Model(&models.Comment{}).Where("id = ?", root.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCommentService_DeleteLeaf(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, e.db, "author")
	other := testutil.CreateUser(t, e.db, "other")
	post := testutil.CreatePost(t, e.db, author.ID, "Hello", models.PostStatusPublished)

	c, err := e.comments.CreateComment(ctx, CreateCommentInput{UserID: author.ID, PostID: post.ID, Content: "bye"})
	require.NoError(t, err)

	err = e.comments.DeleteComment(ctx, DeleteCommentInput{UserID: other.ID, CommentID: c.ID})
	assertForbiddenError(t, err, "You can only delete your own comments")

	require.NoError(t, e.comments.DeleteComment(ctx, DeleteCommentInput{UserID: author.ID, CommentID: c.ID}))
	assert.Equal(t, 0, e.reloadPost(t, post.ID).CommentCount)

	err = e.comments.DeleteComment(ctx, DeleteCommentInput{UserID: author.ID, CommentID: c.ID})
	assertNotFoundError(t, err, "")
}

func TestCommentService_EditWindow(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)

	tests := []struct {
		name    string
		age     time.Duration
		wantErr bool
	}{
		{"Just Posted", time.Minute, false},
		{"Inside Window", 23*time.Hour + 59*time.Minute, false},
		{"Exactly 24h", 24 * time.Hour, true},
		{"Past Window", 24*time.Hour + time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.comments.now = fixedClock(now)
			author := testutil.CreateUser(t, e.db, "author")
			post := testutil.CreatePost(t, e.db, author.ID, "Hello", models.PostStatusPublished)
			c := testutil.CreateComment(t, e.db, post.ID, author.ID, nil, "original", now.Add(-tt.age))

			updated, err := e.comments.UpdateComment(context.Background(), UpdateCommentInput{
				UserID: author.ID, CommentID: c.ID, Content: "edited",
			})
			if tt.wantErr {
				assertValidationError(t, err, "Comments can only be edited within 24 hours of posting")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "edited", updated.Content)
			assert.True(t, updated.IsEdited)
		})
	}
}

func TestCommentService_EditByOtherUser(t *testing.T) {
	e := newEnv(t)
	author := testutil.CreateUser(t, e.db, "author")
	other := testutil.CreateUser(t, e.db, "other")
	post := testutil.CreatePost(t, e.db, author.ID, "Hello", models.PostStatusPublished)
	c := testutil.CreateComment(t, e.db, post.ID, author.ID, nil, "mine", time.Now())

	_, err := e.comments.UpdateComment(context.Background(), UpdateCommentInput{
		UserID: other.ID, CommentID: c.ID, Content: "yours now",
	})
	assertForbiddenError(t, err, "You can only edit your own comments")
}

func TestCommentService_ListBuildsTree(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, e.db, "author")
	post := testutil.CreatePost(t, e.db, author.ID, "Hello", models.PostStatusPublished)
	base := time.Now().Add(-time.Hour)

	older := testutil.CreateComment(t, e.db, post.ID, author.ID, nil, "older root", base)
	newer := testutil.CreateComment(t, e.db, post.ID, author.ID, nil, "newer root", base.Add(time.Minute))
	r1 := testutil.CreateComment(t, e.db, post.ID, author.ID, &older.ID, "reply 1", base.Add(2*time.Minute))
	r2 := testutil.CreateComment(t, e.db, post.ID, author.ID, &r1.ID, "reply 2", base.Add(3*time.Minute))
	r3 := testutil.CreateComment(t, e.db, post.ID, author.ID, &r2.ID, "reply 3", base.Add(4*time.Minute))
	testutil.CreateComment(t, e.db, post.ID, author.ID, &r3.ID, "too deep", base.Add(5*time.Minute))

	page, err := e.comments.ListPostComments(ctx, post.ID, pagination.NewParams(1, 20, DefaultCommentPageSize))
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, newer.ID, page.Data[0].ID)
	assert.Equal(t, older.ID, page.Data[1].ID)
	assert.Equal(t, int64(2), page.Pagination.TotalItems)

	level1 := page.Data[1].Replies
	require.Len(t, level1, 1)
	assert.Equal(t, r1.ID, level1[0].ID)
	level2 := level1[0].Replies
	require.Len(t, level2, 1)
	assert.Equal(t, r2.ID, level2[0].ID)
	assert.Empty(t, level2[0].Replies)
	assert.Equal(t, 1, level2[0].ReplyCount)
}

func TestCommentService_ListMissingPost(t *testing.T) {
	e := newEnv(t)
	_, err := e.comments.ListPostComments(context.Background(), 42, pagination.NewParams(1, 20, DefaultCommentPageSize))
	assertNotFoundError(t, err, "Post not found")
}

func TestCommentService_ListMyComments(t *testing.T) {
	e := newEnv(t)
	author := testutil.CreateUser(t, e.db, "author")
	other := testutil.CreateUser(t, e.db, "other")
	post := testutil.CreatePost(t, e.db, author.ID, "Hello", models.PostStatusPublished)
	base := time.Now().Add(-time.Hour)
	testutil.CreateComment(t, e.db, post.ID, author.ID, nil, "first", base)
	second := testutil.CreateComment(t, e.db, post.ID, author.ID, nil, "second", base.Add(time.Minute))
	testutil.CreateComment(t, e.db, post.ID, other.ID, nil, "not mine", base)

	page, err := e.comments.ListMyComments(context.Background(), author.ID, pagination.NewParams(1, 10, DefaultCommentPageSize))
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, second.ID, page.Data[0].ID)
	require.NotNil(t, page.Data[0].Post)
	assert.Equal(t, "Hello", page.Data[0].Post.Title)
}
