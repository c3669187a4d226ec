package repository

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, tagIDs []uint) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post, tagIDs []uint) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, f PostFilter, sort PostSort, p pagination.Params) (*pagination.Page[models.Post], error)
	ListLiked(ctx context.Context, userID uint, p pagination.Params) (*pagination.Page[models.Post], error)
	ListSaved(ctx context.Context, userID uint, p pagination.Params) (*pagination.Page[models.Post], error)
	IncrementViews(ctx context.Context, id uint) error
	Stats(ctx context.Context, authorID uint) (*models.PostStats, error)
	AnnotateViewer(ctx context.Context, viewerID uint, posts []*models.Post) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func withPostDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Tags", func(q *gorm.DB) *gorm.DB {
		return q.Order("tags.name ASC")
	})
}

// Create inserts the post and links the tags in tagIDs that exist.
func (r *postRepository) Create(ctx context.Context, post *models.Post, tagIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		return linkTags(tx, post.ID, tagIDs)
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func linkTags(tx *gorm.DB, postID uint, tagIDs []uint) error {
	if len(tagIDs) == 0 {
		return nil
	}
	var existing []uint
	if err := tx.Model(&models.Tag{}).Where("id IN ?", tagIDs).Pluck("id", &existing).Error; err != nil {
		return err
	}
	if len(existing) == 0 {
		return nil
	}
	links := make([]models.PostTag, 0, len(existing))
	for _, id := range existing {
		links = append(links, models.PostTag{PostID: postID, TagID: id})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := withPostDetails(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

// Update writes the editable columns only, leaving counters alone. A nil
// tagIDs keeps the current tags; a non-nil slice replaces them.
func (r *postRepository) Update(ctx context.Context, post *models.Post, tagIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(post).Omit(clause.Associations).
			Select("title", "content", "excerpt", "cover_image", "status", "published_at", "updated_at").
			Updates(post).Error; err != nil {
			return err
		}
		if tagIDs == nil {
			return nil
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		return linkTags(tx, post.ID, tagIDs)
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the post with its tag links, likes and saves. The comment
// count is re-read inside the transaction.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "comment_count").First(&post, id).Error; err != nil {
			return notFoundOr(err, "Post", id)
		}
		if post.CommentCount > 0 {
			return ErrHasComments
		}
		for _, m := range []any{&models.PostTag{}, &models.PostLike{}, &models.SavedPost{}} {
			if err := tx.Where("post_id = ?", id).Delete(m).Error; err != nil {
				return models.NewInternalError(err)
			}
		}
		if err := tx.Delete(&models.Post{}, id).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

func (r *postRepository) List(ctx context.Context, f PostFilter, sort PostSort, p pagination.Params) (*pagination.Page[models.Post], error) {
	page, err := pagination.Paginate[models.Post](ctx, ApplyPostFilter(r.db, f), p, func(q *gorm.DB) *gorm.DB {
		return withPostDetails(q).Order(sort.Clause())
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return page, nil
}

func (r *postRepository) ListLiked(ctx context.Context, userID uint, p pagination.Params) (*pagination.Page[models.Post], error) {
	return r.listInteracted(ctx, "post_likes", userID, p)
}

func (r *postRepository) ListSaved(ctx context.Context, userID uint, p pagination.Params) (*pagination.Page[models.Post], error) {
	return r.listInteracted(ctx, "saved_posts", userID, p)
}

// listInteracted lists visible posts joined through table, newest interaction first.
func (r *postRepository) listInteracted(ctx context.Context, table string, userID uint, p pagination.Params) (*pagination.Page[models.Post], error) {
	base := ApplyPostFilter(r.db, PostFilter{ViewerID: userID}).
		Joins("JOIN "+table+" ON "+table+".post_id = posts.id AND "+table+".user_id = ?", userID)
	page, err := pagination.Paginate[models.Post](ctx, base, p, func(q *gorm.DB) *gorm.DB {
		return withPostDetails(q.Select("posts.*")).Order(table + ".created_at DESC, posts.id DESC")
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return page, nil
}

// IncrementViews bumps view_count without touching updated_at.
func (r *postRepository) IncrementViews(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Stats(ctx context.Context, authorID uint) (*models.PostStats, error) {
	var stats models.PostStats
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Select(
			"COUNT(*) AS total_posts, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS published_posts, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS draft_posts, "+
				"COALESCE(SUM(view_count), 0) AS total_views, "+
				"COALESCE(SUM(comment_count), 0) AS total_comments, "+
				"COALESCE(SUM(like_count), 0) AS total_likes",
			models.PostStatusPublished, models.PostStatusDraft,
		).
		Where("author_id = ?", authorID).
		Scan(&stats).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &stats, nil
}

// AnnotateViewer fills LikedByCurrentUser and SavedByCurrentUser with two
// queries for the whole slice.
func (r *postRepository) AnnotateViewer(ctx context.Context, viewerID uint, posts []*models.Post) error {
	if viewerID == 0 || len(posts) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}

	var liked, saved []uint
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.PostLike{}).Where("user_id = ? AND post_id IN ?", viewerID, ids).Pluck("post_id", &liked).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := db.Model(&models.SavedPost{}).Where("user_id = ? AND post_id IN ?", viewerID, ids).Pluck("post_id", &saved).Error; err != nil {
		return models.NewInternalError(err)
	}

	likedSet := toSet(liked)
	savedSet := toSet(saved)
	for _, p := range posts {
		_, p.LikedByCurrentUser = likedSet[p.ID]
		_, p.SavedByCurrentUser = savedSet[p.ID]
	}
	return nil
}

func toSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
