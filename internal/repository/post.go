package repository

import (
	"context"
	"fmt"

	"vibez/internal/models"
	"vibez/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, hashtags []string) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ListByHashtag(ctx context.Context, hashtagID uint, limit, offset int) ([]*models.Post, error)
	UpdateContent(ctx context.Context, post *models.Post, hashtags []string, actorID uint) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts the post with its media rows and hashtag associations in one
// transaction. The author is recorded as the user who added each tag.
func (r *postRepository) Create(ctx context.Context, post *models.Post, hashtags []string) error {
	defer observability.TrackQuery("create", "posts")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		return applyHashtags(tx, post.ID, hashtags, post.UserID)
	})
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.withDetails(r.db.WithContext(ctx)).First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	defer observability.TrackQuery("list", "posts")()

	var posts []*models.Post
	err := r.withDetails(r.db.WithContext(ctx)).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListByHashtag(ctx context.Context, hashtagID uint, limit, offset int) ([]*models.Post, error) {
	defer observability.TrackQuery("list_by_hashtag", "posts")()

	var posts []*models.Post
	err := r.withDetails(r.db.WithContext(ctx)).
		Joins("JOIN post_hashtags ON post_hashtags.post_id = posts.id").
		Where("post_hashtags.hashtag_id = ?", hashtagID).
		Order("posts.created_at DESC, posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// UpdateContent replaces the post content and rebuilds its hashtag set from
// scratch inside one transaction.
func (r *postRepository) UpdateContent(ctx context.Context, post *models.Post, hashtags []string, actorID uint) error {
	defer observability.TrackQuery("update", "posts")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(post).Update("content", post.Content).Error; err != nil {
			return fmt.Errorf("update post content: %w", err)
		}
		if err := clearHashtags(tx, post.ID); err != nil {
			return fmt.Errorf("clear hashtags: %w", err)
		}
		return applyHashtags(tx, post.ID, hashtags, actorID)
	})
}

// Delete removes the post and everything hanging off it. Rows are deleted
// explicitly so the cascade does not depend on the driver enforcing foreign keys.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, id).Error; err != nil {
			return err
		}

		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", id)

		steps := []struct {
			table string
			run   func() *gorm.DB
		}{
			{"likes", func() *gorm.DB {
				return tx.Where("post_id = ? OR comment_id IN (?)", id, commentIDs).Delete(&models.Like{})
			}},
			{"media_attachments", func() *gorm.DB {
				return tx.Where("post_id = ? OR comment_id IN (?)", id, commentIDs).Delete(&models.MediaAttachment{})
			}},
			{"post_hashtags", func() *gorm.DB {
				return tx.Where("post_id = ?", id).Delete(&models.PostHashTag{})
			}},
			{"comments", func() *gorm.DB {
				return tx.Where("post_id = ?", id).Delete(&models.Comment{})
			}},
			{"posts", func() *gorm.DB {
				return tx.Delete(&models.Post{}, id)
			}},
		}
		for _, step := range steps {
			res := step.run()
			if res.Error != nil {
				return fmt.Errorf("delete %s of post %d: %w", step.table, id, res.Error)
			}
			observability.CascadeDeletedRows.WithLabelValues(step.table).Add(float64(res.RowsAffected))
		}
		return nil
	})
}

func (r *postRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("date_added ASC, hashtag_id ASC")
		}).
		Preload("Tags.Hashtag")
}
