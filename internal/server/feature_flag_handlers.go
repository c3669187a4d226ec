package server

import (
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeatures handles GET /api/features: the flags evaluated for the caller.
func (s *Server) GetFeatures(c *fiber.Ctx) error {
	if s.featureFlags == nil {
		return models.RespondOK(c, map[string]bool{})
	}
	return models.RespondOK(c, s.featureFlags.Snapshot(currentUserID(c)))
}

// GetFeatureFlags returns configured feature flags and evaluated state for current user.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := currentUserID(c)

	if s.featureFlags == nil {
		return models.RespondOK(c, fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}

	return models.RespondOK(c, fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}
