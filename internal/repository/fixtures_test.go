package repository

import (
	"context"
	"testing"
	"time"

	"vibez/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func uintPtr(v uint) *uint { return &v }

func createPost(t *testing.T, db *gorm.DB, userID uint, content string, tags ...string) *models.Post {
	t.Helper()
	post := &models.Post{UserID: userID, Content: content}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), post, tags))
	return post
}

func createComment(t *testing.T, db *gorm.DB, postID uint, parentID *uint, createdAt time.Time) *models.Comment {
	t.Helper()
	comment := &models.Comment{UserID: 1, PostID: postID, ParentID: parentID, Content: "reply", CreatedAt: createdAt}
	require.NoError(t, NewCommentRepository(db).Create(context.Background(), comment))
	return comment
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
