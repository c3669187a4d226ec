package models

import "time"

// PostLike records that a user liked a post. (UserID, PostID) is unique.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_user_post" json:"userId"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_user_post;index" json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (PostLike) TableName() string {
	return "post_likes"
}

// SavedPost records that a user bookmarked a post. (UserID, PostID) is unique.
type SavedPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_saved_posts_user_post" json:"userId"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_saved_posts_user_post;index" json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (SavedPost) TableName() string {
	return "saved_posts"
}
