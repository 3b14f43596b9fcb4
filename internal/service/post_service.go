package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"vibez/internal/media"
	"vibez/internal/models"
	"vibez/internal/observability"
	"vibez/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxPostLen = 50000

	// DefaultEditWindow is how long after creation an author may edit a post.
	DefaultEditWindow = 20 * time.Minute
)

type PostService struct {
	postRepo    repository.PostRepository
	hashtagRepo repository.HashtagRepository
	threads     *ThreadAssembler
	media       MediaResolver
	editWindow  time.Duration
	now         func() time.Time
}

type CreatePostInput struct {
	UserID  uint
	Content string
	Media   []media.Upload
}

// CreatePostResult carries the stored post and any files that could not be uploaded.
type CreatePostResult struct {
	Post        *PostView             `json:"post"`
	MediaErrors []media.UploadFailure `json:"media_errors,omitempty"`
}

type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewPostService(
	postRepo repository.PostRepository,
	hashtagRepo repository.HashtagRepository,
	threads *ThreadAssembler,
	resolver MediaResolver,
	editWindow time.Duration,
) *PostService {
	if editWindow <= 0 {
		editWindow = DefaultEditWindow
	}
	return &PostService{
		postRepo:    postRepo,
		hashtagRepo: hashtagRepo,
		threads:     threads,
		media:       resolver,
		editWindow:  editWindow,
		now:         time.Now,
	}
}

// CreatePost uploads the files first, then stores the post, its media and its
// hashtags in one transaction. Failed uploads are reported, not fatal.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (result *CreatePostResult, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.CreatePost",
		observability.UserID(in.UserID))
	defer func() { span.End(err) }()

	if strings.TrimSpace(in.Content) == "" && !hasUploads(in.Media) {
		return nil, models.NewValidationError("Post must have content or media")
	}
	if utf8.RuneCountInString(in.Content) > maxPostLen {
		return nil, models.NewFieldValidationError("Post too long (max 50000 characters)",
			map[string]string{"content": "must be at most 50000 characters"})
	}

	attachments, failures := s.media.Resolve(ctx, in.Media)
	span.AddAttributes(attribute.Int("media.stored", len(attachments)), attribute.Int("media.failed", len(failures)))

	post := &models.Post{
		UserID:  in.UserID,
		Content: in.Content,
		Media:   attachments,
	}
	if err := s.postRepo.Create(ctx, post, ExtractHashtags(in.Content)); err != nil {
		return nil, err
	}

	view, err := s.GetPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return &CreatePostResult{Post: view, MediaErrors: failures}, nil
}

func (s *PostService) GetPost(ctx context.Context, postID uint) (*PostView, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, notFoundAs(err, "Post", postID)
	}
	return s.threads.RenderPost(ctx, post)
}

func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]*PostView, error) {
	posts, err := s.postRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.threads.RenderPosts(ctx, posts)
}

// ListPostsByHashtag returns posts tagged with name, matched case-insensitively.
func (s *PostService) ListPostsByHashtag(ctx context.Context, name string, limit, offset int) ([]*PostView, error) {
	tag, err := s.hashtagRepo.GetByName(ctx, name)
	if err != nil {
		return nil, notFoundAs(err, "Hashtag", name)
	}
	posts, err := s.postRepo.ListByHashtag(ctx, tag.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.threads.RenderPosts(ctx, posts)
}

// UpdatePost replaces the content of a post and recomputes its hashtags. Only
// the author may edit, and only within the edit window.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (view *PostView, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.UpdatePost",
		observability.PostID(in.PostID))
	defer func() { span.End(err) }()

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, notFoundAs(err, "Post", in.PostID)
	}
	if post.UserID != in.UserID {
		return nil, models.NewPermissionDeniedError("You can only edit your own posts")
	}
	if s.now().Sub(post.CreatedAt) > s.editWindow {
		return nil, models.NewEditWindowExpiredError("Post", in.PostID)
	}
	if strings.TrimSpace(in.Content) == "" && len(post.Media) == 0 {
		return nil, models.NewFieldValidationError("Content is required",
			map[string]string{"content": "required"})
	}
	if utf8.RuneCountInString(in.Content) > maxPostLen {
		return nil, models.NewFieldValidationError("Post too long (max 50000 characters)",
			map[string]string{"content": "must be at most 50000 characters"})
	}

	post.Content = in.Content
	if err := s.postRepo.UpdateContent(ctx, post, ExtractHashtags(in.Content), in.UserID); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, post.ID)
}

// DeletePost removes the post with its comments, likes, media and hashtag links.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.DeletePost",
		observability.PostID(in.PostID))
	defer func() { span.End(err) }()

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return notFoundAs(err, "Post", in.PostID)
	}
	if post.UserID != in.UserID {
		return models.NewPermissionDeniedError("You can only delete your own posts")
	}
	return notFoundAs(s.postRepo.Delete(ctx, in.PostID), "Post", in.PostID)
}
