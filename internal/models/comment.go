package models

import "time"

// Comment belongs to a post and optionally replies to another comment of the same post.
type Comment struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"not null;index" json:"user_id"`
	PostID    uint              `gorm:"not null;index" json:"post_id"`
	ParentID  *uint             `gorm:"index" json:"parent_id"`
	Content   string            `gorm:"type:text" json:"content"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Media     []MediaAttachment `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"media,omitempty"`
	Likes     []Like            `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"-"`
	Replies   []Comment         `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsReply reports whether the comment has a parent comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}
