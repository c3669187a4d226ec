package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type publishedEvent struct {
	UserID uint
	Type   string
	Data   any
}

// recordingEvents captures published events instead of sending them.
type recordingEvents struct {
	mu        sync.Mutex
	user      []publishedEvent
	broadcast []publishedEvent
	err       error
}

func (r *recordingEvents) PublishUser(_ context.Context, userID uint, eventType string, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = append(r.user, publishedEvent{UserID: userID, Type: eventType, Data: data})
	return r.err
}

func (r *recordingEvents) PublishBroadcast(_ context.Context, eventType string, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcast = append(r.broadcast, publishedEvent{Type: eventType, Data: data})
	return r.err
}

// env wires every service against one in-memory SQLite database.
type env struct {
	db         *gorm.DB
	events     *recordingEvents
	posts      *PostService
	comments   *CommentService
	engagement *EngagementService
	tags       *TagService
	auth       *AuthService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	events := &recordingEvents{}

	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	auth := NewAuthService(repository.NewUserRepository(db), time.Hour)
	auth.hashCost = 4

	return &env{
		db:         db,
		events:     events,
		posts:      NewPostService(postRepo, events),
		comments:   NewCommentService(commentRepo, postRepo, events),
		engagement: NewEngagementService(repository.NewEngagementRepository(db), postRepo),
		tags:       NewTagService(repository.NewTagRepository(db), postRepo, nil),
		auth:       auth,
	}
}

func (e *env) reloadPost(t *testing.T, id uint) models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, e.db.First(&p, id).Error)
	return p
}

func assertAppError(t *testing.T, err error, code, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

func assertValidationError(t *testing.T, err error, message string) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation, message)
}

func assertNotFoundError(t *testing.T, err error, message string) {
	t.Helper()
	assertAppError(t, err, models.CodeNotFound, message)
}

func assertForbiddenError(t *testing.T, err error, message string) {
	t.Helper()
	assertAppError(t, err, models.CodeForbidden, message)
}

func assertConflictError(t *testing.T, err error, message string) {
	t.Helper()
	assertAppError(t, err, models.CodeConflict, message)
}

func assertUnauthorizedError(t *testing.T, err error, message string) {
	t.Helper()
	assertAppError(t, err, models.CodeUnauthorized, message)
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
