package service

import (
	"cmp"
	"context"
	"slices"
	"time"

	"vibez/internal/models"
	"vibez/internal/observability"
	"vibez/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// MediaView is the rendered form of an attachment.
type MediaView struct {
	URL       string           `json:"url"`
	Kind      models.MediaKind `json:"kind"`
	CreatedAt time.Time        `json:"created_at"`
}

// PostView is a post with its comment thread, as returned by the API.
type PostView struct {
	ID         uint           `json:"id"`
	Content    string         `json:"content"`
	Author     uint           `json:"author"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Hashtags   []string       `json:"hashtags"`
	Media      []MediaView    `json:"media"`
	LikesCount int64          `json:"likes_count"`
	Comments   []*CommentView `json:"comments"`
}

// CommentView is a comment with its replies rendered recursively.
type CommentView struct {
	ID         uint           `json:"id"`
	PostID     uint           `json:"post_id"`
	ParentID   *uint          `json:"parent_id"`
	Content    string         `json:"content"`
	Author     uint           `json:"author"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Media      []MediaView    `json:"media"`
	LikesCount int64          `json:"likes_count"`
	Replies    []*CommentView `json:"replies"`
}

// ThreadAssembler renders posts and comment trees. Comments and like counts
// are fetched in bulk and the tree is built in memory.
type ThreadAssembler struct {
	commentRepo repository.CommentRepository
	likeRepo    repository.LikeRepository
}

func NewThreadAssembler(commentRepo repository.CommentRepository, likeRepo repository.LikeRepository) *ThreadAssembler {
	return &ThreadAssembler{commentRepo: commentRepo, likeRepo: likeRepo}
}

// RenderPost renders one post with its full comment thread.
func (a *ThreadAssembler) RenderPost(ctx context.Context, post *models.Post) (*PostView, error) {
	views, err := a.RenderPosts(ctx, []*models.Post{post})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// RenderPosts renders posts in the given order using three queries in total.
func (a *ThreadAssembler) RenderPosts(ctx context.Context, posts []*models.Post) (views []*PostView, err error) {
	span, ctx := observability.NewSpan(ctx, "ThreadAssembler.RenderPosts",
		attribute.Int("posts.count", len(posts)))
	defer func() { span.End(err) }()

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	comments, err := a.commentRepo.ListByPosts(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	postLikes, err := a.likeRepo.CountByPosts(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	tree, err := a.newArena(ctx, comments)
	if err != nil {
		return nil, err
	}

	views = make([]*PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, &PostView{
			ID:         p.ID,
			Content:    p.Content,
			Author:     p.UserID,
			CreatedAt:  p.CreatedAt,
			UpdatedAt:  p.UpdatedAt,
			Hashtags:   p.HashtagNames(),
			Media:      renderMedia(p.Media),
			LikesCount: postLikes[p.ID],
			Comments:   tree.topLevel(p.ID),
		})
	}
	return views, nil
}

// RenderPostComments renders the top-level comments of a post with their replies.
func (a *ThreadAssembler) RenderPostComments(ctx context.Context, postID uint) ([]*CommentView, error) {
	comments, err := a.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	tree, err := a.newArena(ctx, comments)
	if err != nil {
		return nil, err
	}
	return tree.topLevel(postID), nil
}

// RenderComment renders the comment rootID and every reply beneath it.
func (a *ThreadAssembler) RenderComment(ctx context.Context, rootID uint) (*CommentView, error) {
	comments, err := a.commentRepo.ListSubtree(ctx, rootID)
	if err != nil {
		return nil, err
	}
	tree, err := a.newArena(ctx, comments)
	if err != nil {
		return nil, err
	}
	root, ok := tree.byID[rootID]
	if !ok {
		return nil, models.NewNotFoundError("Comment", rootID)
	}
	return tree.render(root, make(map[uint]bool)), nil
}

func (a *ThreadAssembler) newArena(ctx context.Context, comments []*models.Comment) (*arena, error) {
	ids := make([]uint, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	likes, err := a.likeRepo.CountByComments(ctx, ids)
	if err != nil {
		return nil, err
	}
	return newArena(comments, likes), nil
}

// arena indexes a flat comment list by id and by parent.
type arena struct {
	byID     map[uint]*models.Comment
	children map[uint][]*models.Comment
	roots    map[uint][]*models.Comment
	likes    map[uint]int64
}

func newArena(comments []*models.Comment, likes map[uint]int64) *arena {
	a := &arena{
		byID:     make(map[uint]*models.Comment, len(comments)),
		children: make(map[uint][]*models.Comment),
		roots:    make(map[uint][]*models.Comment),
		likes:    likes,
	}
	for _, c := range comments {
		a.byID[c.ID] = c
		if !c.IsReply() {
			a.roots[c.PostID] = append(a.roots[c.PostID], c)
		} else {
			a.children[*c.ParentID] = append(a.children[*c.ParentID], c)
		}
	}
	for _, list := range a.roots {
		sortNewestFirst(list)
	}
	for _, list := range a.children {
		sortNewestFirst(list)
	}
	return a
}

func (a *arena) topLevel(postID uint) []*CommentView {
	visited := make(map[uint]bool)
	views := make([]*CommentView, 0, len(a.roots[postID]))
	for _, c := range a.roots[postID] {
		if v := a.render(c, visited); v != nil {
			views = append(views, v)
		}
	}
	return views
}

// render returns nil for a comment already rendered on this walk. Replies whose
// parent is absent from the arena are never reached.
func (a *arena) render(c *models.Comment, visited map[uint]bool) *CommentView {
	if visited[c.ID] {
		return nil
	}
	visited[c.ID] = true

	view := &CommentView{
		ID:         c.ID,
		PostID:     c.PostID,
		ParentID:   c.ParentID,
		Content:    c.Content,
		Author:     c.UserID,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		Media:      renderMedia(c.Media),
		LikesCount: a.likes[c.ID],
		Replies:    make([]*CommentView, 0, len(a.children[c.ID])),
	}
	for _, child := range a.children[c.ID] {
		if r := a.render(child, visited); r != nil {
			view.Replies = append(view.Replies, r)
		}
	}
	return view
}

func sortNewestFirst(comments []*models.Comment) {
	slices.SortFunc(comments, func(x, y *models.Comment) int {
		if c := y.CreatedAt.Compare(x.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(y.ID, x.ID)
	})
}

func renderMedia(attachments []models.MediaAttachment) []MediaView {
	views := make([]MediaView, len(attachments))
	for i, m := range attachments {
		views[i] = MediaView{URL: m.URL, Kind: m.Kind, CreatedAt: m.CreatedAt}
	}
	return views
}
