package repository

import (
	"context"
	"errors"
	"fmt"

	"vibez/internal/models"
	"vibez/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository stores likes on posts and comments.
type LikeRepository interface {
	Toggle(ctx context.Context, userID uint, target models.LikeTarget) (models.LikeStatus, error)
	HasLiked(ctx context.Context, userID uint, target models.LikeTarget) (bool, error)
	Count(ctx context.Context, target models.LikeTarget) (int64, error)
	CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error)
	CountByComments(ctx context.Context, commentIDs []uint) (map[uint]int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

var errInvalidTarget = errors.New("like target must reference exactly one post or comment")

// Toggle flips the user's like on target. The unique indexes on likes are the
// only guard: an insert that loses a race to a concurrent like is resolved as
// "already liked" and removed.
func (r *likeRepository) Toggle(ctx context.Context, userID uint, target models.LikeTarget) (models.LikeStatus, error) {
	if !target.Valid() {
		return "", errInvalidTarget
	}
	defer observability.TrackQuery("toggle", "likes")()

	status, err := r.toggleOnce(ctx, userID, target)
	if err != nil && isUniqueViolation(err) {
		observability.LikeConflictsRecovered.Inc()
		status, err = r.toggleOnce(ctx, userID, target)
	}
	return status, err
}

func (r *likeRepository) toggleOnce(ctx context.Context, userID uint, target models.LikeTarget) (models.LikeStatus, error) {
	var status models.LikeStatus
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed, err := deleteLike(tx, userID, target)
		if err != nil {
			return err
		}
		if removed {
			status = models.LikeStatusUnliked
			return nil
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(target.NewLike(userID))
		if res.Error != nil {
			return fmt.Errorf("insert like on %s: %w", target, res.Error)
		}
		if res.RowsAffected > 0 {
			status = models.LikeStatusLiked
			return nil
		}

		observability.LikeConflictsRecovered.Inc()
		if _, err := deleteLike(tx, userID, target); err != nil {
			return err
		}
		status = models.LikeStatusUnliked
		return nil
	})
	return status, err
}

func deleteLike(tx *gorm.DB, userID uint, target models.LikeTarget) (bool, error) {
	res := tx.Where("user_id = ? AND "+target.Column()+" = ?", userID, target.ID()).Delete(&models.Like{})
	if res.Error != nil {
		return false, fmt.Errorf("delete like on %s: %w", target, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *likeRepository) HasLiked(ctx context.Context, userID uint, target models.LikeTarget) (bool, error) {
	if !target.Valid() {
		return false, errInvalidTarget
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND "+target.Column()+" = ?", userID, target.ID()).
		Count(&count).Error
	return count > 0, err
}

// Count is always computed from live rows.
func (r *likeRepository) Count(ctx context.Context, target models.LikeTarget) (int64, error) {
	if !target.Valid() {
		return 0, errInvalidTarget
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where(target.Column()+" = ?", target.ID()).
		Count(&count).Error
	return count, err
}

func (r *likeRepository) CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	return r.countBy(ctx, "post_id", postIDs)
}

func (r *likeRepository) CountByComments(ctx context.Context, commentIDs []uint) (map[uint]int64, error) {
	return r.countBy(ctx, "comment_id", commentIDs)
}

type likeCount struct {
	TargetID uint
	Total    int64
}

func (r *likeRepository) countBy(ctx context.Context, column string, ids []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	defer observability.TrackQuery("count", "likes")()

	var rows []likeCount
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Select(column+" AS target_id, COUNT(*) AS total").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.TargetID] = row.Total
	}
	return counts, nil
}
