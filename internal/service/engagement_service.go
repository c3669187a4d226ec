package service

import (
	"context"
	"errors"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// EngagementService handles likes and saves.
type EngagementService struct {
	engagementRepo repository.EngagementRepository
	postRepo       repository.PostRepository
}

func NewEngagementService(engagementRepo repository.EngagementRepository, postRepo repository.PostRepository) *EngagementService {
	return &EngagementService{engagementRepo: engagementRepo, postRepo: postRepo}
}

// LikeResult is returned by Like and Unlike.
type LikeResult struct {
	LikeCount int `json:"likeCount"`
}

// SaveResult is returned by Save and Unsave.
type SaveResult struct {
	SaveCount int `json:"saveCount"`
}

// requirePost makes sure the post exists and userID may see it. A draft of
// another author is reported as missing.
func (s *EngagementService) requirePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.NewNotFoundMessage("Post not found")
		}
		return err
	}
	if !post.VisibleTo(userID) {
		return models.NewNotFoundMessage("Post not found")
	}
	return nil
}

func (s *EngagementService) Like(ctx context.Context, userID, postID uint) (*LikeResult, error) {
	if err := s.requirePost(ctx, userID, postID); err != nil {
		return nil, err
	}
	count, err := s.engagementRepo.Like(ctx, userID, postID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("Post already liked")
		}
		return nil, err
	}
	return &LikeResult{LikeCount: count}, nil
}

func (s *EngagementService) Unlike(ctx context.Context, userID, postID uint) (*LikeResult, error) {
	if err := s.requirePost(ctx, userID, postID); err != nil {
		return nil, err
	}
	count, err := s.engagementRepo.Unlike(ctx, userID, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, models.NewValidationError("Post not liked yet")
		}
		return nil, err
	}
	return &LikeResult{LikeCount: count}, nil
}

func (s *EngagementService) Save(ctx context.Context, userID, postID uint) (*SaveResult, error) {
	if err := s.requirePost(ctx, userID, postID); err != nil {
		return nil, err
	}
	count, err := s.engagementRepo.Save(ctx, userID, postID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("Post already saved")
		}
		return nil, err
	}
	return &SaveResult{SaveCount: count}, nil
}

func (s *EngagementService) Unsave(ctx context.Context, userID, postID uint) (*SaveResult, error) {
	if err := s.requirePost(ctx, userID, postID); err != nil {
		return nil, err
	}
	count, err := s.engagementRepo.Unsave(ctx, userID, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, models.NewValidationError("Post not saved yet")
		}
		return nil, err
	}
	return &SaveResult{SaveCount: count}, nil
}
