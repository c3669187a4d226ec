package server

import (
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPostComments handles GET /api/comments/post/:postId
// @Summary Comment thread of a post
// @Description Root comments are paginated; replies are nested up to three levels
// @Tags comments
// @Produce json
// @Param postId path int true "Post ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} models.Envelope{data=[]models.Comment}
// @Failure 404 {object} models.Envelope
// @Router /comments/post/{postId} [get]
func (s *Server) GetPostComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	page, err := s.commentService.ListPostComments(c.UserContext(), postID, parsePage(c, service.DefaultCommentPageSize))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondPage(c, page.Data, page.Pagination)
}

// GetMyComments handles GET /api/comments/my
// @Summary My comments
// @Tags comments
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Envelope{data=[]models.Comment}
// @Router /comments/my [get]
func (s *Server) GetMyComments(c *fiber.Ctx) error {
	page, err := s.commentService.ListMyComments(c.UserContext(), currentUserID(c), parsePage(c, service.DefaultCommentPageSize))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondPage(c, page.Data, page.Pagination)
}

// CreateComment handles POST /api/comments
// @Summary Comment on a post
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{content=string,postId=int,parentId=int} true "Comment"
// @Success 201 {object} models.Envelope{data=models.Comment}
// @Failure 400 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req struct {
		Content  string `json:"content"`
		PostID   uint   `json:"postId"`
		ParentID *uint  `json:"parentId"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.PostID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Post ID is required"))
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:   currentUserID(c),
		PostID:   req.PostID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondCreated(c, comment, "Comment created successfully")
}

// UpdateComment handles PUT /api/comments/:id
// @Summary Edit a comment
// @Description Only the author, within 24 hours of posting
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param request body object{content=string} true "New content"
// @Success 200 {object} models.Envelope{data=models.Comment}
// @Failure 400 {object} models.Envelope
// @Failure 403 {object} models.Envelope
// @Router /comments/{id} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    currentUserID(c),
		CommentID: id,
		Content:   req.Content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(models.Envelope{Success: true, Message: "Comment updated successfully", Data: comment})
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete a comment
// @Description Comments with replies cannot be deleted
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} models.Envelope
// @Failure 400 {object} models.Envelope
// @Failure 403 {object} models.Envelope
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    currentUserID(c),
		CommentID: id,
	}); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondMessage(c, "Comment deleted successfully")
}
