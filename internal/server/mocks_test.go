package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/featureflags"
	"inkwell/internal/models"
	"inkwell/internal/pagination"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) user(args mock.Arguments) (*models.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUserRepository) GetCredentials(ctx context.Context, id uint) (*models.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.user(m.Called(ctx, username))
}

func (m *MockUserRepository) GetByLogin(ctx context.Context, identifier string) (*models.User, error) {
	return m.user(m.Called(ctx, identifier))
}

func (m *MockUserRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	return m.user(m.Called(ctx, token))
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

// MockPostRepository is a mock of the PostRepository interface
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) page(args mock.Arguments) (*pagination.Page[models.Post], error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.Page[models.Post]), args.Error(1)
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post, tagIDs []uint) error {
	return m.Called(ctx, post, tagIDs).Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) Update(ctx context.Context, post *models.Post, tagIDs []uint) error {
	return m.Called(ctx, post, tagIDs).Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPostRepository) List(ctx context.Context, f repository.PostFilter, sort repository.PostSort, p pagination.Params) (*pagination.Page[models.Post], error) {
	return m.page(m.Called(ctx, f, sort, p))
}

func (m *MockPostRepository) ListLiked(ctx context.Context, userID uint, p pagination.Params) (*pagination.Page[models.Post], error) {
	return m.page(m.Called(ctx, userID, p))
}

func (m *MockPostRepository) ListSaved(ctx context.Context, userID uint, p pagination.Params) (*pagination.Page[models.Post], error) {
	return m.page(m.Called(ctx, userID, p))
}

func (m *MockPostRepository) IncrementViews(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPostRepository) Stats(ctx context.Context, authorID uint) (*models.PostStats, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PostStats), args.Error(1)
}

func (m *MockPostRepository) AnnotateViewer(ctx context.Context, viewerID uint, posts []*models.Post) error {
	return m.Called(ctx, viewerID, posts).Error(0)
}

// MockEngagementRepository is a mock of the EngagementRepository interface
type MockEngagementRepository struct {
	mock.Mock
}

func (m *MockEngagementRepository) Like(ctx context.Context, userID, postID uint) (int, error) {
	args := m.Called(ctx, userID, postID)
	return args.Int(0), args.Error(1)
}

func (m *MockEngagementRepository) Unlike(ctx context.Context, userID, postID uint) (int, error) {
	args := m.Called(ctx, userID, postID)
	return args.Int(0), args.Error(1)
}

func (m *MockEngagementRepository) Save(ctx context.Context, userID, postID uint) (int, error) {
	args := m.Called(ctx, userID, postID)
	return args.Int(0), args.Error(1)
}

func (m *MockEngagementRepository) Unsave(ctx context.Context, userID, postID uint) (int, error) {
	args := m.Called(ctx, userID, postID)
	return args.Int(0), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                 "test",
		JWTSecret:           testSecret,
		JWTAccessTTLMinutes: 60,
		JWTRefreshTTLHours:  24,
	}
}

// newMockServer wires the services used by the handlers onto repository mocks.
func newMockServer(users *MockUserRepository, posts *MockPostRepository, engagement *MockEngagementRepository) *Server {
	return &Server{
		config:            testConfig(),
		featureFlags:      featureflags.NewManager(""),
		authService:       service.NewAuthService(users, time.Hour),
		postService:       service.NewPostService(posts, nil),
		engagementService: service.NewEngagementService(engagement, posts),
	}
}

// activeUser registers id as an active account behind AuthRequired.
func activeUser(users *MockUserRepository, id uint, role models.Role) *models.User {
	u := &models.User{ID: id, Username: "user", Email: "user@example.com", Role: role, IsActive: true}
	users.On("GetByID", mock.Anything, id).Return(u, nil).Maybe()
	return u
}

func accessToken(t *testing.T, s *Server, u *models.User) string {
	t.Helper()
	pair, err := s.issueTokens(u)
	require.NoError(t, err)
	return pair.AccessToken
}

// envelope mirrors models.Envelope with Data left raw for per-test decoding.
type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Code       string          `json:"code"`
	Pagination json.RawMessage `json:"pagination"`
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any, token string) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return resp, env
}
