package server

import (
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SummarizePost handles POST /api/ai/summarize/:postId
// @Summary Summarize a post
// @Description Short AI summary of a published post, cached per post revision
// @Tags ai
// @Security BearerAuth
// @Produce json
// @Param postId path int true "Post ID"
// @Success 200 {object} models.Envelope{data=service.Summary}
// @Failure 403 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Failure 429 {object} models.Envelope
// @Router /ai/summarize/{postId} [post]
func (s *Server) SummarizePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	summary, err := s.summaryService.Summarize(c.UserContext(), postID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondOK(c, summary)
}
