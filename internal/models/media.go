package models

import "time"

// MediaKind classifies an attachment by its file extension.
type MediaKind string

const (
	MediaKindImage   MediaKind = "image"
	MediaKindVideo   MediaKind = "video"
	MediaKindUnknown MediaKind = "unknown"
)

// MediaAttachment is an uploaded file owned by exactly one post or one comment.
type MediaAttachment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    *uint     `gorm:"index;check:chk_media_owner,(post_id IS NULL) <> (comment_id IS NULL)" json:"post_id,omitempty"`
	CommentID *uint     `gorm:"index" json:"comment_id,omitempty"`
	URL       string    `gorm:"type:text;not null" json:"url"`
	Kind      MediaKind `gorm:"size:16;not null;default:unknown" json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}
