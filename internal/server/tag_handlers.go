package server

import (
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetTags handles GET /api/tags
// @Summary List tags
// @Description Tags by name with the number of published posts carrying each
// @Tags tags
// @Produce json
// @Param search query string false "Name contains"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} models.Envelope{data=[]models.Tag}
// @Router /tags [get]
func (s *Server) GetTags(c *fiber.Ctx) error {
	page, err := s.tagService.ListTags(c.UserContext(), c.Query("search"), parsePage(c, service.DefaultTagPageSize))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondPage(c, page.Data, page.Pagination)
}

// GetTag handles GET /api/tags/:id
// @Summary Tag detail
// @Tags tags
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} models.Envelope{data=service.TagDetail}
// @Failure 404 {object} models.Envelope
// @Router /tags/{id} [get]
func (s *Server) GetTag(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.tagService.GetTag(c.UserContext(), id, currentUserID(c), parsePage(c, service.DefaultPostPageSize))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondOK(c, detail)
}

// CreateTag handles POST /api/tags
// @Summary Create a tag
// @Tags tags
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{name=string,color=string} true "Tag"
// @Success 201 {object} models.Envelope{data=models.Tag}
// @Failure 400 {object} models.Envelope
// @Failure 409 {object} models.Envelope
// @Router /tags [post]
func (s *Server) CreateTag(c *fiber.Ctx) error {
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	tag, err := s.tagService.CreateTag(c.UserContext(), service.CreateTagInput{Name: req.Name, Color: req.Color})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondCreated(c, tag, "Tag created successfully")
}
