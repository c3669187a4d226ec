package repository

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	Delete(ctx context.Context, comment *models.Comment) error
	ListRoots(ctx context.Context, postID uint, p pagination.Params) (*pagination.Page[models.Comment], error)
	ListReplies(ctx context.Context, postID uint) ([]*models.Comment, error)
	ListByAuthor(ctx context.Context, authorID uint, p pagination.Params) (*pagination.Page[models.Comment], error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts the comment and bumps the post's comment_count in one transaction.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, notFoundOr(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	err := r.db.WithContext(ctx).Model(&models.Comment{ID: id}).Update("content", content).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes a leaf comment and decrements the post's comment_count. The
// child check runs inside the transaction.
func (r *commentRepository) Delete(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var children int64
		if err := tx.Model(&models.Comment{}).Where("parent_id = ?", comment.ID).Count(&children).Error; err != nil {
			return models.NewInternalError(err)
		}
		if children > 0 {
			return ErrHasReplies
		}

		res := tx.Delete(&models.Comment{}, comment.ID)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Comment", comment.ID)
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

// ListRoots pages the approved top-level comments of a post, newest first.
func (r *commentRepository) ListRoots(ctx context.Context, postID uint, p pagination.Params) (*pagination.Page[models.Comment], error) {
	base := r.db.Model(&models.Comment{}).
		Where("post_id = ? AND parent_id IS NULL AND is_approved = ?", postID, true)
	page, err := pagination.Paginate[models.Comment](ctx, base, p, func(q *gorm.DB) *gorm.DB {
		return q.Preload("Author").Order("created_at DESC, id DESC")
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return page, nil
}

// ListReplies loads every approved reply on a post, oldest first.
func (r *commentRepository) ListReplies(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var replies []*models.Comment
	err := r.db.WithContext(ctx).Preload("Author").
		Where("post_id = ? AND parent_id IS NOT NULL AND is_approved = ?", postID, true).
		Order("created_at ASC, id ASC").
		Find(&replies).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return replies, nil
}

func (r *commentRepository) ListByAuthor(ctx context.Context, authorID uint, p pagination.Params) (*pagination.Page[models.Comment], error) {
	base := r.db.Model(&models.Comment{}).Where("author_id = ?", authorID)
	page, err := pagination.Paginate[models.Comment](ctx, base, p, func(q *gorm.DB) *gorm.DB {
		return q.Preload("Author").Preload("Post").Preload("Parent").Order("created_at DESC, id DESC")
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return page, nil
}
