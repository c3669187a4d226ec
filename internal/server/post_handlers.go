package server

import (
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Excerpt    string `json:"excerpt"`
	CoverImage string `json:"coverImage"`
	Status     string `json:"status"`
	Tags       []uint `json:"tags"`
}

type updatePostRequest struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	Excerpt    *string `json:"excerpt"`
	CoverImage *string `json:"coverImage"`
	Status     *string `json:"status"`
	// Tags replaces the tag set when present; [] clears it.
	Tags []uint `json:"tags"`
}

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description Published posts for guests; signed-in authors also see their own drafts
// @Tags posts
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param status query string false "DRAFT or PUBLISHED"
// @Param tag query string false "Tag slug"
// @Param author query string false "Author username"
// @Param search query string false "Title, content or excerpt contains"
// @Param sortBy query string false "createdAt, updatedAt, publishedAt, title, viewCount, likeCount, commentCount"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {object} models.Envelope{data=[]models.Post}
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		ViewerID:  currentUserID(c),
		Status:    parseStatus(c.Query("status")),
		Tag:       c.Query("tag"),
		Author:    c.Query("author"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      parsePage(c, service.DefaultPostPageSize),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondPage(c, page.Data, page.Pagination)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope{data=models.Post}
// @Failure 403 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondOK(c, post)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body createPostRequest true "Post"
// @Success 201 {object} models.Envelope{data=models.Post}
// @Failure 400 {object} models.Envelope
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:     currentUserID(c),
		Title:      req.Title,
		Content:    req.Content,
		Excerpt:    req.Excerpt,
		CoverImage: req.CoverImage,
		Status:     parseStatus(req.Status),
		TagIDs:     req.Tags,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondCreated(c, post, "Post created successfully")
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Update a post
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body updatePostRequest true "Changed fields"
// @Success 200 {object} models.Envelope{data=models.Post}
// @Failure 403 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	in := service.UpdatePostInput{
		UserID:     currentUserID(c),
		PostID:     id,
		Title:      req.Title,
		Content:    req.Content,
		Excerpt:    req.Excerpt,
		CoverImage: req.CoverImage,
		TagIDs:     req.Tags,
	}
	if req.Status != nil {
		status := parseStatus(*req.Status)
		in.Status = &status
	}

	post, err := s.postService.UpdatePost(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(models.Envelope{Success: true, Message: "Post updated successfully", Data: post})
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Description Posts with comments cannot be deleted
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope
// @Failure 400 {object} models.Envelope
// @Failure 403 {object} models.Envelope
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: currentUserID(c),
		PostID: id,
	}); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondMessage(c, "Post deleted successfully")
}

// GetMyPosts handles GET /api/posts/my/posts
// @Summary List my posts
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Param status query string false "DRAFT or PUBLISHED"
// @Success 200 {object} models.Envelope{data=[]models.Post}
// @Router /posts/my/posts [get]
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListMyPosts(c.UserContext(), currentUserID(c),
		parseStatus(c.Query("status")), parsePage(c, service.DefaultPostPageSize))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondPage(c, page.Data, page.Pagination)
}

// GetMyStats handles GET /api/posts/my/stats
// @Summary My post statistics
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Envelope{data=models.PostStats}
// @Router /posts/my/stats [get]
func (s *Server) GetMyStats(c *fiber.Ctx) error {
	stats, err := s.postService.MyStats(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondOK(c, stats)
}

// GetLikedPosts handles GET /api/posts/liked
// @Summary Posts I liked
// @Tags engagement
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Envelope{data=[]models.Post}
// @Router /posts/liked [get]
func (s *Server) GetLikedPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListLikedPosts(c.UserContext(), currentUserID(c), parsePage(c, service.DefaultPostPageSize))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondPage(c, page.Data, page.Pagination)
}

// GetSavedPosts handles GET /api/posts/saved
// @Summary Posts I saved
// @Tags engagement
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Envelope{data=[]models.Post}
// @Router /posts/saved [get]
func (s *Server) GetSavedPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListSavedPosts(c.UserContext(), currentUserID(c), parsePage(c, service.DefaultPostPageSize))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.RespondPage(c, page.Data, page.Pagination)
}

// LikePost handles POST /api/posts/:id/like
// @Summary Like a post
// @Tags engagement
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope{data=service.LikeResult}
// @Failure 409 {object} models.Envelope
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := s.engagementService.Like(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(models.Envelope{Success: true, Message: "Post liked successfully", Data: res})
}

// UnlikePost handles DELETE /api/posts/:id/like
// @Summary Unlike a post
// @Tags engagement
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope{data=service.LikeResult}
// @Failure 400 {object} models.Envelope
// @Router /posts/{id}/like [delete]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := s.engagementService.Unlike(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(models.Envelope{Success: true, Message: "Post unliked successfully", Data: res})
}

// SavePost handles POST /api/posts/:id/save
// @Summary Save a post
// @Tags engagement
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope{data=service.SaveResult}
// @Failure 409 {object} models.Envelope
// @Router /posts/{id}/save [post]
func (s *Server) SavePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := s.engagementService.Save(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(models.Envelope{Success: true, Message: "Post saved successfully", Data: res})
}

// UnsavePost handles DELETE /api/posts/:id/save
// @Summary Unsave a post
// @Tags engagement
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope{data=service.SaveResult}
// @Failure 400 {object} models.Envelope
// @Router /posts/{id}/save [delete]
func (s *Server) UnsavePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := s.engagementService.Unsave(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(models.Envelope{Success: true, Message: "Post unsaved successfully", Data: res})
}
