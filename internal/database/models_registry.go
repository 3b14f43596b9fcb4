package database

import "vibez/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Post{},
		&models.Comment{},
		&models.MediaAttachment{},
		&models.Like{},
		&models.HashTag{},
		&models.PostHashTag{},
	}
}
