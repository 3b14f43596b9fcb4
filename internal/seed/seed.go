// Package seed fills a database with demo posts, threaded comments, hashtags
// and likes. Everything goes through the service layer so seeded data obeys
// the same rules as API traffic.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"vibez/internal/media"
	"vibez/internal/middleware"
	"vibez/internal/models"
	"vibez/internal/repository"
	"vibez/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options controls how much data Seed produces.
type Options struct {
	Users           int
	Posts           int
	CommentsPerPost int
	MaxReplyDepth   int
	// LikeChance is the probability in [0,1] that a given user likes a given item.
	LikeChance float64
	// RandSeed makes runs reproducible when non-zero.
	RandSeed int64
}

// DefaultOptions is a small but fully connected data set.
func DefaultOptions() Options {
	return Options{
		Users:           20,
		Posts:           50,
		CommentsPerPost: 4,
		MaxReplyDepth:   3,
		LikeChance:      0.2,
	}
}

// Stats counts what a run created.
type Stats struct {
	Posts    int
	Comments int
	Likes    int
}

// Seeder drives the post, comment and like services with generated content.
type Seeder struct {
	db       *gorm.DB
	posts    *service.PostService
	comments *service.CommentService
	likes    *service.LikeService
}

func NewSeeder(db *gorm.DB) *Seeder {
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	threads := service.NewThreadAssembler(commentRepo, likeRepo)
	resolver := media.NewResolver(media.NopUploader{}, "none")

	return &Seeder{
		db:       db,
		posts:    service.NewPostService(postRepo, repository.NewHashtagRepository(db), threads, resolver, 0),
		comments: service.NewCommentService(commentRepo, postRepo, threads, resolver),
		likes:    service.NewLikeService(likeRepo, postRepo, commentRepo),
	}
}

// ClearAll removes every content row, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	all := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{
		&models.Like{},
		&models.MediaAttachment{},
		&models.PostHashTag{},
		&models.Comment{},
		&models.Post{},
		&models.HashTag{},
	} {
		if err := all.Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	return nil
}

// Seed creates posts, comment trees and likes according to opts.
func (s *Seeder) Seed(ctx context.Context, opts Options) (Stats, error) {
	var stats Stats
	if opts.Users <= 0 {
		return stats, fmt.Errorf("seed needs at least one user, got %d", opts.Users)
	}
	faker := gofakeit.New(opts.RandSeed)
	tags := tagPool(faker, 12)

	for i := 0; i < opts.Posts; i++ {
		author := randomUser(faker, opts.Users)
		created, err := s.posts.CreatePost(ctx, service.CreatePostInput{
			UserID:  author,
			Content: postContent(faker, tags),
		})
		if err != nil {
			return stats, fmt.Errorf("create post %d: %w", i+1, err)
		}
		stats.Posts++
		postID := created.Post.ID

		n, err := s.seedThread(ctx, faker, opts, postID)
		stats.Comments += n
		if err != nil {
			return stats, err
		}

		liked, err := s.seedLikes(ctx, faker, opts, models.PostTarget(postID))
		stats.Likes += liked
		if err != nil {
			return stats, err
		}
	}

	middleware.Logger.Info("seed complete",
		slog.Int("posts", stats.Posts),
		slog.Int("comments", stats.Comments),
		slog.Int("likes", stats.Likes))
	return stats, nil
}

// seedThread adds top-level comments to a post and grows random reply chains
// under them, never deeper than opts.MaxReplyDepth.
func (s *Seeder) seedThread(ctx context.Context, faker *gofakeit.Faker, opts Options, postID uint) (int, error) {
	type node struct {
		id    uint
		depth int
	}
	var nodes []node
	created := 0

	for i := 0; i < opts.CommentsPerPost; i++ {
		var parent *uint
		depth := 0
		if len(nodes) > 0 && faker.Bool() {
			p := nodes[faker.IntRange(0, len(nodes)-1)]
			if p.depth < opts.MaxReplyDepth {
				id := p.id
				parent = &id
				depth = p.depth + 1
			}
		}

		res, err := s.comments.CreateComment(ctx, service.CreateCommentInput{
			UserID:   randomUser(faker, opts.Users),
			PostID:   postID,
			ParentID: parent,
			Content:  faker.Sentence(faker.IntRange(3, 15)),
		})
		if err != nil {
			return created, fmt.Errorf("create comment on post %d: %w", postID, err)
		}
		created++
		nodes = append(nodes, node{id: res.Comment.ID, depth: depth})

		if _, err := s.seedLikes(ctx, faker, opts, models.CommentTarget(res.Comment.ID)); err != nil {
			return created, err
		}
	}
	return created, nil
}

func (s *Seeder) seedLikes(ctx context.Context, faker *gofakeit.Faker, opts Options, target models.LikeTarget) (int, error) {
	liked := 0
	for user := 1; user <= opts.Users; user++ {
		if faker.Float64() >= opts.LikeChance {
			continue
		}
		if _, err := s.likes.ToggleLike(ctx, uint(user), target); err != nil {
			return liked, fmt.Errorf("like %s: %w", target, err)
		}
		liked++
	}
	return liked, nil
}

func randomUser(faker *gofakeit.Faker, users int) uint {
	return uint(faker.IntRange(1, users))
}

// tagPool returns n distinct lowercase single-word tags.
func tagPool(faker *gofakeit.Faker, n int) []string {
	seen := make(map[string]bool, n)
	tags := make([]string, 0, n)
	for attempts := 0; len(tags) < n && attempts < n*20; attempts++ {
		tag := strings.ToLower(strings.ReplaceAll(faker.Noun(), " ", ""))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

func postContent(faker *gofakeit.Faker, tags []string) string {
	var b strings.Builder
	b.WriteString(faker.Sentence(faker.IntRange(6, 20)))
	if len(tags) == 0 {
		return b.String()
	}
	for i := faker.IntRange(0, 3); i > 0; i-- {
		b.WriteString(" #")
		b.WriteString(tags[faker.IntRange(0, len(tags)-1)])
	}
	return b.String()
}
