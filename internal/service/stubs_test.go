package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"vibez/internal/media"
	"vibez/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post, []string) error
	getByIDFn       func(context.Context, uint) (*models.Post, error)
	listFn          func(context.Context, int, int) ([]*models.Post, error)
	listByHashtagFn func(context.Context, uint, int, int) ([]*models.Post, error)
	updateContentFn func(context.Context, *models.Post, []string, uint) error
	deleteFn        func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post, tags []string) error {
	return s.createFn(ctx, post, tags)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *postRepoStub) ListByHashtag(ctx context.Context, hashtagID uint, limit, offset int) ([]*models.Post, error) {
	return s.listByHashtagFn(ctx, hashtagID, limit, offset)
}
func (s *postRepoStub) UpdateContent(ctx context.Context, post *models.Post, tags []string, actorID uint) error {
	return s.updateContentFn(ctx, post, tags, actorID)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post, _ []string) error {
			p.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 1, CreatedAt: time.Now()}, nil
		},
		listFn:          func(_ context.Context, _, _ int) ([]*models.Post, error) { return nil, nil },
		listByHashtagFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) { return nil, nil },
		updateContentFn: func(_ context.Context, _ *models.Post, _ []string, _ uint) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn      func(context.Context, *models.Comment) error
	getByIDFn     func(context.Context, uint) (*models.Comment, error)
	listByPostFn  func(context.Context, uint) ([]*models.Comment, error)
	listByPostsFn func(context.Context, []uint) ([]*models.Comment, error)
	listSubtreeFn func(context.Context, uint) ([]*models.Comment, error)
	updateFn      func(context.Context, *models.Comment) error
	deleteFn      func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) ListByPosts(ctx context.Context, postIDs []uint) ([]*models.Comment, error) {
	return s.listByPostsFn(ctx, postIDs)
}
func (s *commentRepoStub) ListSubtree(ctx context.Context, rootID uint) ([]*models.Comment, error) {
	return s.listSubtreeFn(ctx, rootID)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, c *models.Comment) error {
			c.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, UserID: 1, PostID: 1}, nil
		},
		listByPostFn:  func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		listByPostsFn: func(_ context.Context, _ []uint) ([]*models.Comment, error) { return nil, nil },
		listSubtreeFn: func(_ context.Context, id uint) ([]*models.Comment, error) {
			return []*models.Comment{{ID: id, UserID: 1, PostID: 1}}, nil
		},
		updateFn: func(_ context.Context, _ *models.Comment) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	toggleFn          func(context.Context, uint, models.LikeTarget) (models.LikeStatus, error)
	hasLikedFn        func(context.Context, uint, models.LikeTarget) (bool, error)
	countFn           func(context.Context, models.LikeTarget) (int64, error)
	countByPostsFn    func(context.Context, []uint) (map[uint]int64, error)
	countByCommentsFn func(context.Context, []uint) (map[uint]int64, error)
}

func (s *likeRepoStub) Toggle(ctx context.Context, userID uint, target models.LikeTarget) (models.LikeStatus, error) {
	return s.toggleFn(ctx, userID, target)
}
func (s *likeRepoStub) HasLiked(ctx context.Context, userID uint, target models.LikeTarget) (bool, error) {
	return s.hasLikedFn(ctx, userID, target)
}
func (s *likeRepoStub) Count(ctx context.Context, target models.LikeTarget) (int64, error) {
	return s.countFn(ctx, target)
}
func (s *likeRepoStub) CountByPosts(ctx context.Context, ids []uint) (map[uint]int64, error) {
	return s.countByPostsFn(ctx, ids)
}
func (s *likeRepoStub) CountByComments(ctx context.Context, ids []uint) (map[uint]int64, error) {
	return s.countByCommentsFn(ctx, ids)
}

func noopLikeRepo() *likeRepoStub {
	return &likeRepoStub{
		toggleFn: func(_ context.Context, _ uint, _ models.LikeTarget) (models.LikeStatus, error) {
			return models.LikeStatusLiked, nil
		},
		hasLikedFn:        func(_ context.Context, _ uint, _ models.LikeTarget) (bool, error) { return false, nil },
		countFn:           func(_ context.Context, _ models.LikeTarget) (int64, error) { return 0, nil },
		countByPostsFn:    func(_ context.Context, _ []uint) (map[uint]int64, error) { return map[uint]int64{}, nil },
		countByCommentsFn: func(_ context.Context, _ []uint) (map[uint]int64, error) { return map[uint]int64{}, nil },
	}
}

// hashtagRepoStub is a stub for repository.HashtagRepository.
type hashtagRepoStub struct {
	getByNameFn func(context.Context, string) (*models.HashTag, error)
}

func (s *hashtagRepoStub) GetByName(ctx context.Context, name string) (*models.HashTag, error) {
	return s.getByNameFn(ctx, name)
}

func noopHashtagRepo() *hashtagRepoStub {
	return &hashtagRepoStub{
		getByNameFn: func(_ context.Context, _ string) (*models.HashTag, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
}

// resolverStub is a stub for MediaResolver.
type resolverStub struct {
	resolveFn func(context.Context, []media.Upload) ([]models.MediaAttachment, []media.UploadFailure)
}

func (s *resolverStub) Resolve(ctx context.Context, uploads []media.Upload) ([]models.MediaAttachment, []media.UploadFailure) {
	return s.resolveFn(ctx, uploads)
}

func noopResolver() *resolverStub {
	return &resolverStub{
		resolveFn: func(_ context.Context, _ []media.Upload) ([]models.MediaAttachment, []media.UploadFailure) {
			return nil, nil
		},
	}
}

func newPostService(posts *postRepoStub, comments *commentRepoStub, likes *likeRepoStub) *PostService {
	return NewPostService(posts, noopHashtagRepo(), NewThreadAssembler(comments, likes), noopResolver(), DefaultEditWindow)
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeNotFound)
}

func assertPermissionDenied(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodePermissionDenied)
}
