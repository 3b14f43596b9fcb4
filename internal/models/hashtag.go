package models

import "time"

// HashTag is a unique lowercase tag name.
type HashTag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (HashTag) TableName() string { return "hashtags" }

// PostHashTag links a post to a hashtag and records who added it.
type PostHashTag struct {
	PostID        uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	HashtagID     uint      `gorm:"primaryKey;autoIncrement:false;index" json:"hashtag_id"`
	AddedByUserID uint      `gorm:"not null" json:"added_by_user_id"`
	DateAdded     time.Time `gorm:"autoCreateTime" json:"date_added"`
	Hashtag       HashTag   `gorm:"foreignKey:HashtagID;constraint:OnDelete:CASCADE" json:"hashtag"`
}

func (PostHashTag) TableName() string { return "post_hashtags" }
