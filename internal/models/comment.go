package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a post. A non-nil ParentID makes it a reply;
// replies are fetched lazily by parent id.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	PostID    uint           `gorm:"not null;index" json:"post_id"`
	ParentID  *uint          `gorm:"index" json:"parent_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	LikesCount   int64 `gorm:"->;-:migration" json:"likes_count"`
	RepliesCount int64 `gorm:"->;-:migration" json:"replies_count"`
	Liked        bool  `gorm:"->;-:migration" json:"liked"`
	IsReply      bool  `gorm:"-" json:"is_reply"`
	IsEdited     bool  `gorm:"-" json:"is_edited"`
}

// AfterFind derives IsReply and IsEdited.
func (c *Comment) AfterFind(_ *gorm.DB) error {
	c.IsReply = c.ParentID != nil
	c.IsEdited = c.UpdatedAt.Sub(c.CreatedAt) > EditedAfter
	return nil
}
