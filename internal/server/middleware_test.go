package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/featureflags"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func signClaims(t *testing.T, sub, typ, issuer string, exp time.Duration) string {
	t.Helper()
	now := time.Now()
	token, err := middleware.SignToken(&middleware.Claims{
		Role: string(models.RoleUser),
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{middleware.TokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(exp)),
			ID:        "jti-" + sub,
		},
	}, testSecret)
	require.NoError(t, err)
	return token
}

func TestServer_AuthRequired(t *testing.T) {
	users := new(MockUserRepository)
	activeUser(users, 123, models.RoleUser)
	users.On("GetByID", mock.Anything, uint(124)).
		Return(&models.User{ID: 124, Username: "gone", IsActive: false}, nil)
	users.On("GetByID", mock.Anything, uint(125)).
		Return(nil, models.NewNotFoundError("User", 125))

	s := newMockServer(users, nil, nil)
	app := fiber.New()
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID"), "role": c.Locals("role")})
	})

	tests := []struct {
		name        string
		authHeader  string
		wantStatus  int
		wantMessage string
	}{
		{
			name:       "Valid Token",
			authHeader: "Bearer " + signClaims(t, "123", middleware.TokenTypeAccess, middleware.TokenIssuer, time.Hour),
			wantStatus: http.StatusOK,
		},
		{
			name:        "Expired Token",
			authHeader:  "Bearer " + signClaims(t, "123", middleware.TokenTypeAccess, middleware.TokenIssuer, -time.Hour),
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:        "Invalid Issuer",
			authHeader:  "Bearer " + signClaims(t, "123", middleware.TokenTypeAccess, "wrong-issuer", time.Hour),
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:        "Refresh Token Rejected",
			authHeader:  "Bearer " + signClaims(t, "123", middleware.TokenTypeRefresh, middleware.TokenIssuer, time.Hour),
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:        "Deactivated Account",
			authHeader:  "Bearer " + signClaims(t, "124", middleware.TokenTypeAccess, middleware.TokenIssuer, time.Hour),
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Account is deactivated",
		},
		{
			name:        "Deleted Account",
			authHeader:  "Bearer " + signClaims(t, "125", middleware.TokenTypeAccess, middleware.TokenIssuer, time.Hour),
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "User not found",
		},
		{
			name:        "Missing Header",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Authorization required",
		},
		{
			name:        "Malformed Bearer Format",
			authHeader:  "BearerTokenOnly",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Authorization required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantMessage != "" {
				var env envelope
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
				assert.False(t, env.Success)
				assert.Equal(t, tt.wantMessage, env.Message)
			}
		})
	}
}

func TestServer_AuthRequired_RevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	users := new(MockUserRepository)
	u := activeUser(users, 7, models.RoleUser)
	s := newMockServer(users, nil, nil)
	app := fiber.New()
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	token := accessToken(t, s, u)
	resp, _ := doRequest(t, app, http.MethodGet, "/protected", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	claims, err := middleware.ParseToken(token, testSecret, middleware.TokenTypeAccess)
	require.NoError(t, err)
	require.NoError(t, revoke(context.Background(), claims))
	assert.True(t, mr.Exists(cache.BlacklistKey(claims.ID)))

	resp, env := doRequest(t, app, http.MethodGet, "/protected", nil, token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Token has been revoked", env.Message)
}

func TestServer_OptionalAuth(t *testing.T) {
	users := new(MockUserRepository)
	u := activeUser(users, 9, models.RoleUser)
	s := newMockServer(users, nil, nil)

	app := fiber.New()
	app.Get("/who", s.OptionalAuth(), func(c *fiber.Ctx) error {
		return c.SendString(strconv.FormatUint(uint64(currentUserID(c)), 10))
	})

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"Anonymous", "", "0"},
		{"Valid Token", accessToken(t, s, u), "9"},
		{"Invalid Token Is Anonymous", "garbage.token.value", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(body))
		})
	}
}

func TestServer_AdminRequired(t *testing.T) {
	users := new(MockUserRepository)
	admin := activeUser(users, 1, models.RoleAdmin)
	member := &models.User{ID: 2, Username: "member", Role: models.RoleUser, IsActive: true}
	users.On("GetByID", mock.Anything, uint(2)).Return(member, nil)

	s := newMockServer(users, nil, nil)
	s.featureFlags = featureflags.NewManager("ai_summary")
	app := fiber.New()
	app.Get("/admin/feature-flags", s.AuthRequired(), s.AdminRequired(), s.GetFeatureFlags)

	resp, env := doRequest(t, app, http.MethodGet, "/admin/feature-flags", nil, accessToken(t, s, member))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, models.CodeForbidden, env.Code)

	resp, env = doRequest(t, app, http.MethodGet, "/admin/feature-flags", nil, accessToken(t, s, admin))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"ai_summary":true`)
}

func TestServer_FeatureRequired(t *testing.T) {
	tests := []struct {
		name       string
		flags      string
		wantStatus int
	}{
		{"Enabled", "ai_summary", http.StatusOK},
		{"Disabled", "", http.StatusNotFound},
		{"Explicitly Off", "ai_summary=false", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Server{featureFlags: featureflags.NewManager(tt.flags)}
			app := fiber.New()
			app.Post("/ai", s.FeatureRequired(featureflags.AISummary), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			resp, _ := doRequest(t, app, http.MethodPost, "/ai", nil, "")
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
