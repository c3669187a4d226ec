package models

import "time"

// DefaultTagColor is used when a tag is created without a color.
const DefaultTagColor = "#3B82F6"

// Tag labels posts. Name and Slug are both unique.
type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Slug  string `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Color string `gorm:"size:7;not null;default:'#3B82F6'" json:"color"`
	// PostCount is the number of published posts carrying the tag (query-time only)
	PostCount int64     `gorm:"->;-:migration" json:"postCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostTag joins posts and tags.
type PostTag struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"postId"`
	TagID     uint      `gorm:"primaryKey;autoIncrement:false;index" json:"tagId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (PostTag) TableName() string {
	return "post_tags"
}
