package models

import "time"

// Comment is a reply to a post or, when ParentID is set, to another comment
// of the same post.
type Comment struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	Content    string       `gorm:"type:text;not null" json:"content"`
	PostID     uint         `gorm:"not null;index" json:"postId"`
	AuthorID   uint         `gorm:"not null;index" json:"authorId"`
	ParentID   *uint        `gorm:"index" json:"parentId"`
	IsApproved bool         `gorm:"not null;default:true;index" json:"isApproved"`
	Author     *UserSummary `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Post       *PostSummary `gorm:"foreignKey:PostID" json:"post,omitempty"`
	Parent     *Comment     `gorm:"foreignKey:ParentID" json:"parent,omitempty"`

	// Replies, ReplyCount and IsEdited are presentation fields filled by the
	// tree builder and services.
	Replies    []*Comment `gorm:"-" json:"replies"`
	ReplyCount int        `gorm:"-" json:"replyCount"`
	IsEdited   bool       `gorm:"-" json:"isEdited"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsRoot reports whether the comment has no parent.
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

// Edited reports whether the content changed after creation.
func (c *Comment) Edited() bool {
	return c.UpdatedAt.After(c.CreatedAt)
}
