package repository

import (
	"context"
	"fmt"
	"strings"

	"vibez/internal/cache"
	"vibez/internal/models"
	"vibez/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HashtagRepository looks up registered hashtags.
type HashtagRepository interface {
	GetByName(ctx context.Context, name string) (*models.HashTag, error)
}

type hashtagRepository struct {
	db *gorm.DB
}

// NewHashtagRepository creates a new HashtagRepository
func NewHashtagRepository(db *gorm.DB) HashtagRepository {
	return &hashtagRepository{db: db}
}

// GetByName resolves a tag case-insensitively. Tags are never renamed or
// removed, so the name to row mapping is cached.
func (r *hashtagRepository) GetByName(ctx context.Context, name string) (*models.HashTag, error) {
	name = NormalizeHashtag(name)
	var tag models.HashTag
	err := cache.Aside(ctx, cache.HashtagKey(name), &tag, cache.HashtagTTL, func() error {
		return r.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// NormalizeHashtag is the canonical stored form of a tag token.
func NormalizeHashtag(token string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(token), "#"))
}

// applyHashtags registers every token and links it to postID on behalf of
// actorID. Duplicate tokens, in any case, collapse into one association.
func applyHashtags(tx *gorm.DB, postID uint, tokens []string, actorID uint) error {
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		name := NormalizeHashtag(token)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		tag, err := getOrCreateHashtag(tx, name)
		if err != nil {
			return err
		}

		link := models.PostHashTag{PostID: postID, HashtagID: tag.ID, AddedByUserID: actorID}
		res := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&link)
		if res.Error != nil {
			return fmt.Errorf("link hashtag %q to post %d: %w", name, postID, res.Error)
		}
		if res.RowsAffected > 0 {
			observability.HashtagsApplied.Inc()
		}
	}
	return nil
}

// getOrCreateHashtag inserts name if absent and then reads it back, so two
// writers racing on the same new tag both end up with the same row.
func getOrCreateHashtag(tx *gorm.DB, name string) (*models.HashTag, error) {
	tag := models.HashTag{Name: name}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&tag).Error
	if err != nil && !isUniqueViolation(err) {
		return nil, fmt.Errorf("register hashtag %q: %w", name, err)
	}
	if tag.ID != 0 {
		return &tag, nil
	}

	if err := tx.Where("name = ?", name).First(&tag).Error; err != nil {
		return nil, fmt.Errorf("load hashtag %q: %w", name, err)
	}
	return &tag, nil
}

func clearHashtags(tx *gorm.DB, postID uint) error {
	return tx.Where("post_id = ?", postID).Delete(&models.PostHashTag{}).Error
}
