package models

import (
	"fmt"
	"time"
)

// Like records that a user liked exactly one post or exactly one comment.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post;uniqueIndex:idx_like_user_comment" json:"user_id"`
	PostID    *uint     `gorm:"uniqueIndex:idx_like_user_post;index;check:chk_like_target,(post_id IS NULL) <> (comment_id IS NULL)" json:"post_id,omitempty"`
	CommentID *uint     `gorm:"uniqueIndex:idx_like_user_comment;index" json:"comment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TargetKind identifies which kind of content a like points at.
type TargetKind uint8

const (
	TargetPost TargetKind = iota + 1
	TargetComment
)

func (k TargetKind) String() string {
	switch k {
	case TargetPost:
		return "post"
	case TargetComment:
		return "comment"
	default:
		return "invalid"
	}
}

// LikeTarget is either a post or a comment, never both. The zero value is invalid.
type LikeTarget struct {
	kind TargetKind
	id   uint
}

// PostTarget returns a target pointing at a post.
func PostTarget(id uint) LikeTarget {
	return LikeTarget{kind: TargetPost, id: id}
}

// CommentTarget returns a target pointing at a comment.
func CommentTarget(id uint) LikeTarget {
	return LikeTarget{kind: TargetComment, id: id}
}

func (t LikeTarget) Kind() TargetKind { return t.kind }

func (t LikeTarget) ID() uint { return t.id }

// Valid reports whether the target was built by PostTarget or CommentTarget with a non-zero ID.
func (t LikeTarget) Valid() bool {
	return (t.kind == TargetPost || t.kind == TargetComment) && t.id != 0
}

// Column is the likes column that references the target.
func (t LikeTarget) Column() string {
	if t.kind == TargetComment {
		return "comment_id"
	}
	return "post_id"
}

func (t LikeTarget) String() string {
	return fmt.Sprintf("%s:%d", t.kind, t.id)
}

// NewLike builds the like row for userID with exactly one target column set.
func (t LikeTarget) NewLike(userID uint) *Like {
	id := t.id
	like := &Like{UserID: userID}
	switch t.kind {
	case TargetPost:
		like.PostID = &id
	case TargetComment:
		like.CommentID = &id
	}
	return like
}

// LikeStatus is the outcome of a toggle.
type LikeStatus string

const (
	LikeStatusLiked   LikeStatus = "liked"
	LikeStatusUnliked LikeStatus = "unliked"
)
