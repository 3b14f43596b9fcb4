package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"vibez/internal/media"
	"vibez/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCommentService(comments *commentRepoStub, posts *postRepoStub, resolver MediaResolver) *CommentService {
	return NewCommentService(comments, posts, NewThreadAssembler(comments, noopLikeRepo()), resolver)
}

func TestCommentService_CreateComment_Validation(t *testing.T) {
	t.Parallel()

	svc := newCommentService(noopCommentRepo(), noopPostRepo(), noopResolver())
	ctx := context.Background()

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 1, PostID: 1})
		assertValidationError(t, err)
	})

	t.Run("content too long", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreateComment(ctx, CreateCommentInput{
			UserID:  1,
			PostID:  1,
			Content: strings.Repeat("x", maxCommentLen+1),
		})
		assertValidationError(t, err)
	})

	t.Run("missing post", func(t *testing.T) {
		t.Parallel()
		posts := noopPostRepo()
		posts.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) { return nil, gorm.ErrRecordNotFound }
		_, err := newCommentService(noopCommentRepo(), posts, noopResolver()).
			CreateComment(ctx, CreateCommentInput{UserID: 1, PostID: 99, Content: "hi"})
		assertNotFoundError(t, err)
	})

	t.Run("missing parent", func(t *testing.T) {
		t.Parallel()
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) { return nil, gorm.ErrRecordNotFound }
		_, err := newCommentService(comments, noopPostRepo(), noopResolver()).
			CreateComment(ctx, CreateCommentInput{UserID: 1, PostID: 1, ParentID: ptr(3), Content: "hi"})
		assertNotFoundError(t, err)
	})
}

func TestCommentService_CreateComment_RejectsCrossPostParent(t *testing.T) {
	t.Parallel()

	comments := noopCommentRepo()
	comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
		return &models.Comment{ID: id, PostID: 2}, nil
	}
	comments.createFn = func(_ context.Context, _ *models.Comment) error {
		t.Fatal("create must not be called")
		return nil
	}

	_, err := newCommentService(comments, noopPostRepo(), noopResolver()).
		CreateComment(context.Background(), CreateCommentInput{UserID: 1, PostID: 1, ParentID: ptr(5), Content: "reply"})
	assertValidationError(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "parent_id")
}

func TestCommentService_CreateComment_ForeignKeyConflict(t *testing.T) {
	t.Parallel()

	comments := noopCommentRepo()
	comments.createFn = func(_ context.Context, _ *models.Comment) error {
		return gorm.ErrForeignKeyViolated
	}

	_, err := newCommentService(comments, noopPostRepo(), noopResolver()).
		CreateComment(context.Background(), CreateCommentInput{UserID: 1, PostID: 1, Content: "late reply"})
	assertAppError(t, err, models.CodeConstraintConflict)
	assert.ErrorIs(t, err, gorm.ErrForeignKeyViolated)
}

func TestCommentService_CreateComment_ReplyAndMediaOnly(t *testing.T) {
	t.Parallel()

	var stored *models.Comment
	comments := noopCommentRepo()
	comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
		return &models.Comment{ID: id, PostID: 1}, nil
	}
	comments.createFn = func(_ context.Context, c *models.Comment) error {
		c.ID = 42
		stored = c
		return nil
	}
	comments.listSubtreeFn = func(_ context.Context, _ uint) ([]*models.Comment, error) {
		return []*models.Comment{stored}, nil
	}
	resolver := &resolverStub{resolveFn: func(_ context.Context, uploads []media.Upload) ([]models.MediaAttachment, []media.UploadFailure) {
		require.Len(t, uploads, 1)
		return []models.MediaAttachment{{URL: "https://cdn/clip.MOV", Kind: models.MediaKindVideo}}, nil
	}}

	result, err := newCommentService(comments, noopPostRepo(), resolver).CreateComment(context.Background(), CreateCommentInput{
		UserID:   4,
		PostID:   1,
		ParentID: ptr(5),
		Media:    []media.Upload{{Filename: "clip.MOV", Body: bytes.NewReader([]byte("v"))}},
	})
	require.NoError(t, err)

	assert.Equal(t, uint(42), result.Comment.ID)
	require.NotNil(t, result.Comment.ParentID)
	assert.Equal(t, uint(5), *result.Comment.ParentID)
	require.Len(t, result.Comment.Media, 1)
	assert.Equal(t, models.MediaKindVideo, result.Comment.Media[0].Kind)
}

func TestCommentService_UpdateComment_Ownership(t *testing.T) {
	t.Parallel()

	t.Run("non-owner cannot update", func(t *testing.T) {
		t.Parallel()
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: 1, UserID: 10}, nil
		}
		_, err := newCommentService(comments, noopPostRepo(), noopResolver()).
			UpdateComment(context.Background(), UpdateCommentInput{UserID: 1, CommentID: 1, Content: "new"})
		assertPermissionDenied(t, err)
	})

	t.Run("owner can update content", func(t *testing.T) {
		t.Parallel()
		storedContent := "old"
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: 1, UserID: 1, Content: storedContent}, nil
		}
		comments.updateFn = func(_ context.Context, c *models.Comment) error {
			storedContent = c.Content
			return nil
		}
		comments.listSubtreeFn = func(_ context.Context, _ uint) ([]*models.Comment, error) {
			return []*models.Comment{{ID: 1, UserID: 1, Content: storedContent}}, nil
		}
		view, err := newCommentService(comments, noopPostRepo(), noopResolver()).
			UpdateComment(context.Background(), UpdateCommentInput{UserID: 1, CommentID: 1, Content: "new"})
		require.NoError(t, err)
		assert.Equal(t, "new", view.Content)
	})
}

func TestCommentService_DeleteComment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("non-owner cannot delete", func(t *testing.T) {
		t.Parallel()
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, UserID: 10}, nil
		}
		err := newCommentService(comments, noopPostRepo(), noopResolver()).
			DeleteComment(ctx, DeleteCommentInput{UserID: 1, CommentID: 3})
		assertPermissionDenied(t, err)
	})

	t.Run("missing comment", func(t *testing.T) {
		t.Parallel()
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) { return nil, gorm.ErrRecordNotFound }
		err := newCommentService(comments, noopPostRepo(), noopResolver()).
			DeleteComment(ctx, DeleteCommentInput{UserID: 1, CommentID: 3})
		assertNotFoundError(t, err)
	})

	t.Run("owner deletes subtree", func(t *testing.T) {
		t.Parallel()
		var deleted uint
		comments := noopCommentRepo()
		comments.deleteFn = func(_ context.Context, id uint) error {
			deleted = id
			return nil
		}
		err := newCommentService(comments, noopPostRepo(), noopResolver()).
			DeleteComment(ctx, DeleteCommentInput{UserID: 1, CommentID: 3})
		require.NoError(t, err)
		assert.Equal(t, uint(3), deleted)
	})
}
