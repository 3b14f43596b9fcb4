package repository

import (
	"context"
	"fmt"

	"vibez/internal/models"
	"vibez/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	ListByPosts(ctx context.Context, postIDs []uint) ([]*models.Comment, error)
	ListSubtree(ctx context.Context, rootID uint) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// subtreeSQL walks parent_id links from a root comment. UNION (not UNION ALL)
// discards rows already seen, so malformed cycles still terminate.
const subtreeSQL = `WITH RECURSIVE thread(id) AS (
	SELECT id FROM comments WHERE id = ?
	UNION
	SELECT c.id FROM comments c JOIN thread t ON c.parent_id = t.id
) SELECT id FROM thread`

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("create", "comments")()
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := withMedia(r.db.WithContext(ctx)).First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return r.ListByPosts(ctx, []uint{postID})
}

// ListByPosts loads every comment of the given posts in one query.
func (r *commentRepository) ListByPosts(ctx context.Context, postIDs []uint) ([]*models.Comment, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	defer observability.TrackQuery("list", "comments")()

	var comments []*models.Comment
	err := withMedia(r.db.WithContext(ctx)).
		Where("post_id IN ?", postIDs).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	return comments, err
}

// ListSubtree returns the root comment and all of its transitive replies.
func (r *commentRepository) ListSubtree(ctx context.Context, rootID uint) ([]*models.Comment, error) {
	defer observability.TrackQuery("list_subtree", "comments")()

	db := r.db.WithContext(ctx)
	ids, err := subtreeIDs(db, rootID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var comments []*models.Comment
	err = withMedia(db).
		Where("id IN ?", ids).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	return comments, err
}

// Update saves the comment's content. Ownership and parent links are immutable.
func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("update", "comments")()
	return r.db.WithContext(ctx).Model(comment).Update("content", comment.Content).Error
}

// Delete removes the comment, every reply beneath it, and their likes and media.
func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "comments")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := subtreeIDs(tx, id)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return gorm.ErrRecordNotFound
		}

		steps := []struct {
			table string
			model interface{}
			query string
		}{
			{"likes", &models.Like{}, "comment_id IN ?"},
			{"media_attachments", &models.MediaAttachment{}, "comment_id IN ?"},
			{"comments", &models.Comment{}, "id IN ?"},
		}
		for _, step := range steps {
			res := tx.Where(step.query, ids).Delete(step.model)
			if res.Error != nil {
				return fmt.Errorf("delete %s of comment %d: %w", step.table, id, res.Error)
			}
			observability.CascadeDeletedRows.WithLabelValues(step.table).Add(float64(res.RowsAffected))
		}
		return nil
	})
}

func subtreeIDs(db *gorm.DB, rootID uint) ([]uint, error) {
	var ids []uint
	if err := db.Raw(subtreeSQL, rootID).Scan(&ids).Error; err != nil {
		return nil, fmt.Errorf("collect replies of comment %d: %w", rootID, err)
	}
	return ids, nil
}

func withMedia(db *gorm.DB) *gorm.DB {
	return db.Preload("Media", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}
