package service

import (
	"context"

	"vibez/internal/media"
	"vibez/internal/models"
)

// MediaResolver uploads submitted files and returns the attachments that were
// stored together with the files that failed.
type MediaResolver interface {
	Resolve(ctx context.Context, uploads []media.Upload) ([]models.MediaAttachment, []media.UploadFailure)
}

func hasUploads(uploads []media.Upload) bool {
	for _, u := range uploads {
		if u.Present() {
			return true
		}
	}
	return false
}
