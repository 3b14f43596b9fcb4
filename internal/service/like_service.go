package service

import (
	"context"

	"vibez/internal/models"
	"vibez/internal/observability"
	"vibez/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

type LikeService struct {
	likeRepo    repository.LikeRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
}

// LikeResult is the like state of a target as seen by one user.
type LikeResult struct {
	Status     models.LikeStatus `json:"status"`
	LikesCount int64             `json:"likes_count"`
}

func NewLikeService(
	likeRepo repository.LikeRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
) *LikeService {
	return &LikeService{
		likeRepo:    likeRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
	}
}

// ToggleLike likes target for userID, or removes the like if one exists.
func (s *LikeService) ToggleLike(ctx context.Context, userID uint, target models.LikeTarget) (result *LikeResult, err error) {
	span, ctx := observability.NewSpan(ctx, "LikeService.ToggleLike",
		attribute.String("like.target", target.String()))
	defer func() { span.End(err) }()

	if !target.Valid() {
		return nil, models.NewValidationError("Like target must be a post or a comment")
	}
	if err := s.ensureTargetExists(ctx, target); err != nil {
		return nil, err
	}

	status, err := s.likeRepo.Toggle(ctx, userID, target)
	if err != nil {
		return nil, conflictAs(err, "Like conflicts with a concurrent change")
	}
	observability.LikesToggled.WithLabelValues(target.Kind().String(), string(status)).Inc()

	count, err := s.likeRepo.Count(ctx, target)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Status: status, LikesCount: count}, nil
}

// LikeState reports whether userID currently likes target, without changing it.
func (s *LikeService) LikeState(ctx context.Context, userID uint, target models.LikeTarget) (result *LikeResult, err error) {
	span, ctx := observability.NewSpan(ctx, "LikeService.LikeState",
		attribute.String("like.target", target.String()))
	defer func() { span.End(err) }()

	if !target.Valid() {
		return nil, models.NewValidationError("Like target must be a post or a comment")
	}
	if err := s.ensureTargetExists(ctx, target); err != nil {
		return nil, err
	}

	liked, err := s.likeRepo.HasLiked(ctx, userID, target)
	if err != nil {
		return nil, err
	}
	status := models.LikeStatusUnliked
	if liked {
		status = models.LikeStatusLiked
	}

	count, err := s.likeRepo.Count(ctx, target)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Status: status, LikesCount: count}, nil
}

func (s *LikeService) ensureTargetExists(ctx context.Context, target models.LikeTarget) error {
	switch target.Kind() {
	case models.TargetPost:
		if _, err := s.postRepo.GetByID(ctx, target.ID()); err != nil {
			return notFoundAs(err, "Post", target.ID())
		}
	case models.TargetComment:
		if _, err := s.commentRepo.GetByID(ctx, target.ID()); err != nil {
			return notFoundAs(err, "Comment", target.ID())
		}
	}
	return nil
}
