package repository

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/pagination"

	"gorm.io/gorm"
)

// TagRepository defines persistence operations for tags.
type TagRepository interface {
	List(ctx context.Context, search string, p pagination.Params) (*pagination.Page[models.Tag], error)
	GetByID(ctx context.Context, id uint) (*models.Tag, error)
	GetByName(ctx context.Context, name string) (*models.Tag, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, tag *models.Tag) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new TagRepository.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

// publishedPostCount only counts posts a guest could see.
const publishedPostCount = "(SELECT COUNT(*) FROM post_tags JOIN posts ON posts.id = post_tags.post_id " +
	"WHERE post_tags.tag_id = tags.id AND posts.status = 'PUBLISHED') AS post_count"

func withPostCount(db *gorm.DB) *gorm.DB {
	return db.Select("tags.*, " + publishedPostCount)
}

func (r *tagRepository) List(ctx context.Context, search string, p pagination.Params) (*pagination.Page[models.Tag], error) {
	base := r.db.Model(&models.Tag{})
	if s := strings.TrimSpace(search); s != "" {
		base = base.Where(`LOWER(tags.name) LIKE ? ESCAPE '\'`, likePattern(s))
	}
	page, err := pagination.Paginate[models.Tag](ctx, base, p, func(q *gorm.DB) *gorm.DB {
		return withPostCount(q).Order("tags.name ASC")
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return page, nil
}

func (r *tagRepository) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := withPostCount(r.db.WithContext(ctx).Model(&models.Tag{})).First(&tag, id).Error; err != nil {
		return nil, notFoundOr(err, "Tag", id)
	}
	return &tag, nil
}

// GetByName finds a tag by its exact name, or returns (nil, nil). Names differing
// only in case are distinct tags, matching idx_tags_name.
func (r *tagRepository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.WithContext(ctx).
		Where("name = ?", strings.TrimSpace(name)).
		First(&tag).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &tag, nil
}

func (r *tagRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Tag{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) error {
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return models.NewInternalError(err)
	}
	return nil
}
