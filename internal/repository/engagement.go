package repository

import (
	"context"
	"errors"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// EngagementRepository persists likes and saves together with the post counters.
type EngagementRepository interface {
	Like(ctx context.Context, userID, postID uint) (int, error)
	Unlike(ctx context.Context, userID, postID uint) (int, error)
	Save(ctx context.Context, userID, postID uint) (int, error)
	Unsave(ctx context.Context, userID, postID uint) (int, error)
}

type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new EngagementRepository.
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

// engagementKind binds a row model to the counter column it maintains.
type engagementKind struct {
	row     func(userID, postID uint) any
	counter string
}

var (
	likeKind = engagementKind{
		row:     func(u, p uint) any { return &models.PostLike{UserID: u, PostID: p} },
		counter: "like_count",
	}
	saveKind = engagementKind{
		row:     func(u, p uint) any { return &models.SavedPost{UserID: u, PostID: p} },
		counter: "save_count",
	}
)

func (r *engagementRepository) Like(ctx context.Context, userID, postID uint) (int, error) {
	return r.add(ctx, likeKind, userID, postID)
}

func (r *engagementRepository) Unlike(ctx context.Context, userID, postID uint) (int, error) {
	return r.remove(ctx, likeKind, userID, postID)
}

func (r *engagementRepository) Save(ctx context.Context, userID, postID uint) (int, error) {
	return r.add(ctx, saveKind, userID, postID)
}

func (r *engagementRepository) Unsave(ctx context.Context, userID, postID uint) (int, error) {
	return r.remove(ctx, saveKind, userID, postID)
}

// add inserts the row and increments the counter. The unique index rejects a
// second insert with ErrDuplicate.
func (r *engagementRepository) add(ctx context.Context, k engagementKind, userID, postID uint) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(k.row(userID, postID)).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrDuplicate
			}
			return err
		}
		if err := bumpCounter(tx, k.counter, postID, "+"); err != nil {
			return err
		}
		return readCounter(tx, k.counter, postID, &count)
	})
	return count, wrapEngagementErr(err)
}

// remove deletes the row and decrements the counter, or returns
// ErrNoRowsAffected when there was nothing to remove.
func (r *engagementRepository) remove(ctx context.Context, k engagementKind, userID, postID uint) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(k.row(0, 0))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoRowsAffected
		}
		if err := bumpCounter(tx, k.counter, postID, "-"); err != nil {
			return err
		}
		return readCounter(tx, k.counter, postID, &count)
	})
	return count, wrapEngagementErr(err)
}

func bumpCounter(tx *gorm.DB, column string, postID uint, op string) error {
	return tx.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn(column, gorm.Expr(column+" "+op+" 1")).Error
}

func readCounter(tx *gorm.DB, column string, postID uint, dest *int) error {
	return tx.Model(&models.Post{}).Where("id = ?", postID).Select(column).Scan(dest).Error
}

func wrapEngagementErr(err error) error {
	if err == nil || errors.Is(err, ErrDuplicate) || errors.Is(err, ErrNoRowsAffected) {
		return err
	}
	return models.NewInternalError(err)
}
