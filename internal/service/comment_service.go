package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"inkwell/internal/commenttree"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/pagination"
	"inkwell/internal/repository"
)

const (
	MaxCommentLength       = 2000
	CommentEditWindow      = 24 * time.Hour
	DefaultCommentPageSize = 20
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	events      EventPublisher
	now         func() time.Time
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	ParentID *uint
	Content  string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	events EventPublisher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		events:      events,
		now:         time.Now,
	}
}

func validateCommentContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", models.NewValidationError("Comment content is required")
	}
	if runeLen(content) > MaxCommentLength {
		return "", models.NewValidationError("Comment must be 2000 characters or less")
	}
	return content, nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content, err := validateCommentContent(in.Content)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundMessage("Post not found or not available for comments")
		}
		return nil, err
	}
	if !post.IsPublished() {
		return nil, models.NewNotFoundMessage("Post not found or not available for comments")
	}

	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, err
		}
		if parent == nil || parent.PostID != in.PostID || !parent.IsApproved {
			return nil, models.NewNotFoundMessage("Parent comment not found")
		}
	}

	comment := &models.Comment{
		Content:    content,
		PostID:     in.PostID,
		AuthorID:   in.UserID,
		ParentID:   in.ParentID,
		IsApproved: true,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	decorate(created)

	if post.AuthorID != in.UserID {
		publishUser(ctx, s.events, post.AuthorID, notifications.EventCommentCreated, map[string]any{
			"commentId": created.ID,
			"postId":    post.ID,
			"postTitle": post.Title,
			"authorId":  in.UserID,
			"parentId":  created.ParentID,
		})
	}
	return created, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	content, err := validateCommentContent(in.Content)
	if err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}
	if s.now().Sub(comment.CreatedAt) >= CommentEditWindow {
		return nil, models.NewValidationError("Comments can only be edited within 24 hours of posting")
	}

	if err := s.commentRepo.UpdateContent(ctx, comment.ID, content); err != nil {
		return nil, err
	}

	updated, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	decorate(updated)
	return updated, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != in.UserID {
		return models.NewForbiddenError("You can only delete your own comments")
	}

	if err := s.commentRepo.Delete(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrHasReplies) {
			return models.NewValidationError("Cannot delete comment with replies")
		}
		return err
	}
	return nil
}

// ListPostComments pages the root comments of a post and nests every approved
// reply under them, cut at commenttree.MaxDepth.
func (s *CommentService) ListPostComments(ctx context.Context, postID uint, p pagination.Params) (*pagination.Page[*models.Comment], error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundMessage("Post not found")
		}
		return nil, err
	}

	roots, err := s.commentRepo.ListRoots(ctx, postID, p)
	if err != nil {
		return nil, err
	}
	if len(roots.Data) == 0 {
		return &pagination.Page[*models.Comment]{Data: []*models.Comment{}, Pagination: roots.Pagination}, nil
	}

	replies, err := s.commentRepo.ListReplies(ctx, postID)
	if err != nil {
		return nil, err
	}

	flat := make([]*models.Comment, 0, len(roots.Data)+len(replies))
	for i := range roots.Data {
		flat = append(flat, &roots.Data[i])
	}
	flat = append(flat, replies...)
	for _, c := range flat {
		c.IsEdited = c.Edited()
	}

	tree := commenttree.Limit(commenttree.Build(flat), commenttree.MaxDepth)
	return &pagination.Page[*models.Comment]{Data: tree, Pagination: roots.Pagination}, nil
}

// ListMyComments pages the user's comments, newest first.
func (s *CommentService) ListMyComments(ctx context.Context, userID uint, p pagination.Params) (*pagination.Page[models.Comment], error) {
	page, err := s.commentRepo.ListByAuthor(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	for i := range page.Data {
		decorate(&page.Data[i])
	}
	return page, nil
}

func decorate(c *models.Comment) {
	c.IsEdited = c.Edited()
	if c.Replies == nil {
		c.Replies = []*models.Comment{}
	}
}
