package service

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"vibez/internal/media"
	"vibez/internal/models"
	"vibez/internal/observability"
	"vibez/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	threads     *ThreadAssembler
	media       MediaResolver
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	ParentID *uint
	Content  string
	Media    []media.Upload
}

// CreateCommentResult carries the stored comment and any files that could not be uploaded.
type CreateCommentResult struct {
	Comment     *CommentView          `json:"comment"`
	MediaErrors []media.UploadFailure `json:"media_errors,omitempty"`
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	threads *ThreadAssembler,
	resolver MediaResolver,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		threads:     threads,
		media:       resolver,
	}
}

// CreateComment adds a top-level comment or, when ParentID is set, a reply to
// another comment on the same post.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (result *CreateCommentResult, err error) {
	span, ctx := observability.NewSpan(ctx, "CommentService.CreateComment",
		observability.PostID(in.PostID))
	defer func() { span.End(err) }()

	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, notFoundAs(err, "Post", in.PostID)
	}
	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, notFoundAs(err, "Comment", *in.ParentID)
		}
		if parent.PostID != in.PostID {
			return nil, models.NewFieldValidationError("Parent comment belongs to a different post",
				map[string]string{"parent_id": "must reference a comment on post " + strconv.FormatUint(uint64(in.PostID), 10)})
		}
	}
	if err := validateCommentContent(in.Content, hasUploads(in.Media)); err != nil {
		return nil, err
	}

	attachments, failures := s.media.Resolve(ctx, in.Media)
	comment := &models.Comment{
		UserID:   in.UserID,
		PostID:   in.PostID,
		ParentID: in.ParentID,
		Content:  in.Content,
		Media:    attachments,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, conflictAs(err, "Comment conflicts with its post or parent")
	}

	view, err := s.GetComment(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	return &CreateCommentResult{Comment: view, MediaErrors: failures}, nil
}

// GetComment renders the comment and all replies beneath it.
func (s *CommentService) GetComment(ctx context.Context, commentID uint) (*CommentView, error) {
	view, err := s.threads.RenderComment(ctx, commentID)
	if err != nil {
		return nil, notFoundAs(err, "Comment", commentID)
	}
	return view, nil
}

func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*CommentView, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, notFoundAs(err, "Post", postID)
	}
	return s.threads.RenderPostComments(ctx, postID)
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*CommentView, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, notFoundAs(err, "Comment", in.CommentID)
	}
	if comment.UserID != in.UserID {
		return nil, models.NewPermissionDeniedError("You can only update your own comments")
	}
	if err := validateCommentContent(in.Content, len(comment.Media) > 0); err != nil {
		return nil, err
	}

	comment.Content = in.Content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.GetComment(ctx, comment.ID)
}

// DeleteComment removes the comment together with every reply beneath it.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (err error) {
	span, ctx := observability.NewSpan(ctx, "CommentService.DeleteComment",
		observability.CommentID(in.CommentID))
	defer func() { span.End(err) }()

	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return notFoundAs(err, "Comment", in.CommentID)
	}
	if comment.UserID != in.UserID {
		return models.NewPermissionDeniedError("You can only delete your own comments")
	}
	return notFoundAs(s.commentRepo.Delete(ctx, in.CommentID), "Comment", in.CommentID)
}

func validateCommentContent(content string, withMedia bool) error {
	if strings.TrimSpace(content) == "" && !withMedia {
		return models.NewFieldValidationError("Content is required",
			map[string]string{"content": "required"})
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return models.NewFieldValidationError("Comment too long (max 10000 characters)",
			map[string]string{"content": "must be at most 10000 characters"})
	}
	return nil
}
