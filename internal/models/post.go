package models

import (
	"time"

	"gorm.io/gorm"
)

// EditedAfter is how long after creation an update must land for a record to count as edited.
const EditedAfter = 60 * time.Second

// Post represents a post authored by a user.
type Post struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"size:200;not null" json:"title"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	ImageURL  string         `json:"image_url"`
	UserID    uint           `gorm:"not null;index:idx_posts_author_created,priority:1" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time      `gorm:"index:idx_posts_author_created,priority:2,sort:desc" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// LikesCount is not persisted; computed at query time
	LikesCount int64 `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int64 `gorm:"->;-:migration" json:"comments_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked bool `gorm:"->;-:migration" json:"liked"`
	// IsEdited is derived from the timestamps after load.
	IsEdited bool `gorm:"-" json:"is_edited"`
}

// AfterFind derives IsEdited.
func (p *Post) AfterFind(_ *gorm.DB) error {
	p.IsEdited = p.UpdatedAt.Sub(p.CreatedAt) > EditedAfter
	return nil
}
