package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/pagination"
	"inkwell/internal/repository"
)

const (
	MaxTitleLength      = 200
	DefaultPostPageSize = 10
)

type PostService struct {
	postRepo repository.PostRepository
	events   EventPublisher
	now      func() time.Time
}

type CreatePostInput struct {
	UserID     uint
	Title      string
	Content    string
	Excerpt    string
	CoverImage string
	Status     models.PostStatus
	TagIDs     []uint
}

// UpdatePostInput is a partial update; nil fields are left unchanged.
type UpdatePostInput struct {
	UserID     uint
	PostID     uint
	Title      *string
	Content    *string
	Excerpt    *string
	CoverImage *string
	Status     *models.PostStatus
	// TagIDs replaces the tag set when non-nil.
	TagIDs []uint
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

type ListPostsInput struct {
	ViewerID  uint
	Status    models.PostStatus
	Tag       string
	Author    string
	Search    string
	SortBy    string
	SortOrder string
	Page      pagination.Params
}

func NewPostService(postRepo repository.PostRepository, events EventPublisher) *PostService {
	return &PostService{postRepo: postRepo, events: events, now: time.Now}
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (*pagination.Page[models.Post], error) {
	if in.Status != "" && !in.Status.Valid() {
		return nil, models.NewValidationError("Invalid status")
	}
	filter := repository.PostFilter{
		ViewerID: in.ViewerID,
		Status:   in.Status,
		Tag:      in.Tag,
		Author:   in.Author,
		Search:   in.Search,
	}
	page, err := s.postRepo.List(ctx, filter, repository.ParsePostSort(in.SortBy, in.SortOrder), in.Page)
	if err != nil {
		return nil, err
	}
	return page, s.annotate(ctx, in.ViewerID, page)
}

// ListMyPosts returns every post the user wrote, drafts included.
func (s *PostService) ListMyPosts(ctx context.Context, userID uint, status models.PostStatus, p pagination.Params) (*pagination.Page[models.Post], error) {
	if status != "" && !status.Valid() {
		return nil, models.NewValidationError("Invalid status")
	}
	filter := repository.PostFilter{ViewerID: userID, AuthorID: userID, Status: status}
	page, err := s.postRepo.List(ctx, filter, repository.ParsePostSort("createdAt", "desc"), p)
	if err != nil {
		return nil, err
	}
	return page, s.annotate(ctx, userID, page)
}

// ListTagPosts returns the published posts carrying a tag.
func (s *PostService) ListTagPosts(ctx context.Context, tagID, viewerID uint, p pagination.Params) (*pagination.Page[models.Post], error) {
	filter := repository.PostFilter{TagID: tagID, Status: models.PostStatusPublished}
	page, err := s.postRepo.List(ctx, filter, repository.ParsePostSort("publishedAt", "desc"), p)
	if err != nil {
		return nil, err
	}
	return page, s.annotate(ctx, viewerID, page)
}

func (s *PostService) ListLikedPosts(ctx context.Context, userID uint, p pagination.Params) (*pagination.Page[models.Post], error) {
	page, err := s.postRepo.ListLiked(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	return page, s.annotate(ctx, userID, page)
}

func (s *PostService) ListSavedPosts(ctx context.Context, userID uint, p pagination.Params) (*pagination.Page[models.Post], error) {
	page, err := s.postRepo.ListSaved(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	return page, s.annotate(ctx, userID, page)
}

func (s *PostService) annotate(ctx context.Context, viewerID uint, page *pagination.Page[models.Post]) error {
	if viewerID == 0 || len(page.Data) == 0 {
		return nil
	}
	ptrs := make([]*models.Post, len(page.Data))
	for i := range page.Data {
		ptrs[i] = &page.Data[i]
	}
	return s.postRepo.AnnotateViewer(ctx, viewerID, ptrs)
}

// GetPost fetches one post for viewerID (0 for guests). Every successful
// fetch of a published post counts one view.
func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundMessage("Post not found")
		}
		return nil, err
	}
	if !post.VisibleTo(viewerID) {
		return nil, models.NewForbiddenError("You do not have permission to view this post")
	}

	if post.IsPublished() {
		if err := s.postRepo.IncrementViews(ctx, post.ID); err != nil {
			return nil, err
		}
		post.ViewCount++
	}

	if err := s.postRepo.AnnotateViewer(ctx, viewerID, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", models.NewValidationError("Title is required")
	}
	if runeLen(title) > MaxTitleLength {
		return "", models.NewValidationError("Title must be 200 characters or less")
	}
	return title, nil
}

func validateContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", models.NewValidationError("Content is required")
	}
	return content, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	content, err := validateContent(in.Content)
	if err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	if !status.Valid() {
		return nil, models.NewValidationError("Invalid status")
	}

	excerpt := strings.TrimSpace(in.Excerpt)
	if excerpt == "" {
		excerpt = buildExcerpt(content)
	}

	post := &models.Post{
		Title:      title,
		Content:    content,
		Excerpt:    excerpt,
		CoverImage: strings.TrimSpace(in.CoverImage),
		Status:     status,
		AuthorID:   in.UserID,
	}
	if status == models.PostStatusPublished {
		now := s.now().UTC()
		post.PublishedAt = &now
	}

	if err := s.postRepo.Create(ctx, post, in.TagIDs); err != nil {
		return nil, err
	}

	created, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if created.IsPublished() {
		s.announce(ctx, created)
	}
	return created, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundMessage("Post not found")
		}
		return nil, err
	}
	if post.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	if in.Title != nil {
		if post.Title, err = validateTitle(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.Content != nil {
		if post.Content, err = validateContent(*in.Content); err != nil {
			return nil, err
		}
	}
	if in.Excerpt != nil {
		post.Excerpt = strings.TrimSpace(*in.Excerpt)
	}
	if in.CoverImage != nil {
		post.CoverImage = strings.TrimSpace(*in.CoverImage)
	}

	firstPublish := false
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, models.NewValidationError("Invalid status")
		}
		post.Status = *in.Status
		if post.Status == models.PostStatusPublished && post.PublishedAt == nil {
			now := s.now().UTC()
			post.PublishedAt = &now
			firstPublish = true
		}
	}

	if err := s.postRepo.Update(ctx, post, in.TagIDs); err != nil {
		return nil, err
	}

	updated, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if firstPublish {
		s.announce(ctx, updated)
	}
	return updated, nil
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.NewNotFoundMessage("Post not found")
		}
		return err
	}
	if post.AuthorID != in.UserID {
		return models.NewForbiddenError("You can only delete your own posts")
	}

	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		if errors.Is(err, repository.ErrHasComments) {
			return models.NewValidationError("Cannot delete post with comments")
		}
		return err
	}
	return nil
}

func (s *PostService) MyStats(ctx context.Context, userID uint) (*models.PostStats, error) {
	return s.postRepo.Stats(ctx, userID)
}

func (s *PostService) announce(ctx context.Context, post *models.Post) {
	publishBroadcast(ctx, s.events, notifications.EventPostPublished, map[string]any{
		"postId":   post.ID,
		"title":    post.Title,
		"authorId": post.AuthorID,
	})
}
