package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/pagination"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

const (
	DefaultTagPageSize = 20
	maxSlugAttempts    = 100
)

type TagService struct {
	tagRepo  repository.TagRepository
	postRepo repository.PostRepository
	lists    *cache.Layered
	now      func() time.Time
}

type CreateTagInput struct {
	Name  string
	Color string
}

// TagDetail is a tag with one page of its published posts.
type TagDetail struct {
	Tag   *models.Tag                   `json:"tag"`
	Posts *pagination.Page[models.Post] `json:"posts"`
}

// NewTagService builds the service. lists may be nil to skip caching.
func NewTagService(tagRepo repository.TagRepository, postRepo repository.PostRepository, lists *cache.Layered) *TagService {
	return &TagService{tagRepo: tagRepo, postRepo: postRepo, lists: lists, now: time.Now}
}

func (s *TagService) ListTags(ctx context.Context, search string, p pagination.Params) (*pagination.Page[models.Tag], error) {
	if s.lists == nil {
		return s.tagRepo.List(ctx, search, p)
	}
	var page pagination.Page[models.Tag]
	err := s.lists.Get(ctx, cache.TagListKey(search, p.Page, p.Limit), &page, func(ctx context.Context) (any, error) {
		return s.tagRepo.List(ctx, search, p)
	})
	if err != nil {
		return nil, err
	}
	if page.Data == nil {
		page.Data = []models.Tag{}
	}
	return &page, nil
}

func (s *TagService) GetTag(ctx context.Context, id, viewerID uint, p pagination.Params) (*TagDetail, error) {
	tag, err := s.tagRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundMessage("Tag not found")
		}
		return nil, err
	}

	filter := repository.PostFilter{TagID: tag.ID, Status: models.PostStatusPublished}
	posts, err := s.postRepo.List(ctx, filter, repository.ParsePostSort("publishedAt", "desc"), p)
	if err != nil {
		return nil, err
	}
	if viewerID != 0 && len(posts.Data) > 0 {
		ptrs := make([]*models.Post, len(posts.Data))
		for i := range posts.Data {
			ptrs[i] = &posts.Data[i]
		}
		if err := s.postRepo.AnnotateViewer(ctx, viewerID, ptrs); err != nil {
			return nil, err
		}
	}
	return &TagDetail{Tag: tag, Posts: posts}, nil
}

func (s *TagService) CreateTag(ctx context.Context, in CreateTagInput) (*models.Tag, error) {
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateTagName(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = models.DefaultTagColor
	}
	if err := validation.ValidateHexColor(color); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.tagRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError(fmt.Sprintf("Tag %q already exists", name))
	}

	slug, err := s.uniqueSlug(ctx, validation.Slugify(name))
	if err != nil {
		return nil, err
	}

	tag := &models.Tag{Name: name, Slug: slug, Color: color}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError(fmt.Sprintf("Tag %q already exists", name))
		}
		return nil, err
	}

	s.invalidateLists(ctx)
	return tag, nil
}

// uniqueSlug returns base, or base-N for the first free N up to 100, or a
// timestamp suffix after that.
func (s *TagService) uniqueSlug(ctx context.Context, base string) (string, error) {
	taken, err := s.tagRepo.SlugExists(ctx, base)
	if err != nil || !taken {
		return base, err
	}
	for i := 1; i <= maxSlugAttempts; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		taken, err := s.tagRepo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return fmt.Sprintf("%s-%d", base, s.now().UnixMilli()), nil
}

func (s *TagService) invalidateLists(ctx context.Context) {
	var err error
	if s.lists != nil {
		err = s.lists.Invalidate(ctx, cache.TagListKeyPrefix+"*")
	} else {
		err = cache.InvalidateTagLists(ctx)
	}
	if err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to invalidate tag list cache", slog.String("error", err.Error()))
	}
}
