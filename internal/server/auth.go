package server

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenPair is returned by register, login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expiresIn"`
}

func (s *Server) signToken(user *models.User, typ string, now time.Time, ttl time.Duration) (string, error) {
	claims := &middleware.Claims{
		Role:  string(user.Role),
		Email: user.Email,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    middleware.TokenIssuer,
			Audience:  jwt.ClaimStrings{middleware.TokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	return middleware.SignToken(claims, s.config.JWTSecret)
}

// issueTokens signs a fresh access and refresh token for user.
func (s *Server) issueTokens(user *models.User) (*TokenPair, error) {
	now := time.Now()
	accessTTL := s.config.AccessTokenTTL()

	access, err := s.signToken(user, middleware.TokenTypeAccess, now, accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.signToken(user, middleware.TokenTypeRefresh, now, s.config.RefreshTokenTTL())
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(accessTTL.Seconds()),
	}, nil
}

// revoke blacklists the token's jti for the rest of its lifetime.
func revoke(ctx context.Context, claims *middleware.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return cache.Blacklist(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

// checkRevoked fails with 401 for a blacklisted jti. A Redis outage is logged
// and the token is accepted.
func checkRevoked(ctx context.Context, claims *middleware.Claims) error {
	revoked, err := cache.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "token blacklist check failed", slog.String("error", err.Error()))
		return nil
	}
	if revoked {
		return models.NewUnauthorizedError("Token has been revoked")
	}
	return nil
}

// authenticate validates an access token and loads its active user.
func (s *Server) authenticate(ctx context.Context, token string) (*models.User, *middleware.Claims, error) {
	claims, err := middleware.ParseToken(token, s.config.JWTSecret, middleware.TokenTypeAccess)
	if err != nil {
		return nil, nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	if err := checkRevoked(ctx, claims); err != nil {
		return nil, nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	user, err := s.authService.ActiveUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, claims, nil
}

// setUser stores the authenticated user in locals and in the request context
// for logging and downstream services.
func setUser(c *fiber.Ctx, user *models.User, claims *middleware.Claims) {
	c.Locals("userID", user.ID)
	c.Locals("role", user.Role)
	c.Locals("claims", claims)
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID)
	c.SetUserContext(ctx)
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := middleware.ExtractBearerToken(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		user, claims, err := s.authenticate(c.UserContext(), token)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}

		setUser(c, user, claims)
		return c.Next()
	}
}

// OptionalAuth identifies the caller when a valid bearer token is present.
// Missing or invalid tokens continue as an anonymous request.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := middleware.ExtractBearerToken(c)
		if err != nil {
			return c.Next()
		}
		user, claims, err := s.authenticate(c.UserContext(), token)
		if err != nil {
			return c.Next()
		}
		setUser(c, user, claims)
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that role is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(models.Role)
		if role != models.RoleAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// FeatureRequired hides a route behind a feature flag. Disabled features
// answer 404 as if the route did not exist.
func (s *Server) FeatureRequired(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("userID").(uint)
		if s.featureFlags == nil || !s.featureFlags.Enabled(name, userID) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundMessage("Feature not available"))
		}
		return c.Next()
	}
}
