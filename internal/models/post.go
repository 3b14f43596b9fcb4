package models

import "time"

// Post is a top-level piece of user content.
type Post struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"not null;index" json:"user_id"`
	Content   string            `gorm:"type:text" json:"content"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Media     []MediaAttachment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"media,omitempty"`
	Tags      []PostHashTag     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Comments  []Comment         `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Likes     []Like            `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

// HashtagNames returns the names of the post's loaded hashtag associations.
func (p *Post) HashtagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		if t.Hashtag.Name != "" {
			names = append(names, t.Hashtag.Name)
		}
	}
	return names
}
