package media

import (
	"context"
	"log/slog"

	"vibez/internal/middleware"
	"vibez/internal/models"
	"vibez/internal/observability"
)

// UploadFailure describes a file that could not be stored. The owning post or
// comment is still created without it.
type UploadFailure struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
	Error    string `json:"error"`
}

// Resolver turns uploads into unsaved MediaAttachment rows.
type Resolver struct {
	uploader BlobUploader
	backend  string
}

// NewResolver wraps uploader; backend labels metrics (e.g. "minio", "s3").
func NewResolver(uploader BlobUploader, backend string) *Resolver {
	return &Resolver{uploader: uploader, backend: backend}
}

// Resolve uploads every present file in order. Absent files are skipped
// silently, failed uploads are logged and reported but never abort the batch.
func (r *Resolver) Resolve(ctx context.Context, uploads []Upload) ([]models.MediaAttachment, []UploadFailure) {
	var (
		attachments []models.MediaAttachment
		failures    []UploadFailure
	)
	for _, u := range uploads {
		if !u.Present() {
			continue
		}

		url, err := r.uploader.Upload(ctx, u)
		if err != nil {
			appErr := models.NewMediaUploadError(u.Filename, err)
			middleware.Logger.WarnContext(ctx, "media upload failed",
				slog.String("filename", u.Filename),
				slog.String("backend", r.backend),
				slog.String("error", err.Error()),
			)
			observability.MediaUploads.WithLabelValues(r.backend, "failed").Inc()
			failures = append(failures, UploadFailure{
				Filename: u.Filename,
				Code:     appErr.Code,
				Error:    appErr.Error(),
			})
			continue
		}

		observability.MediaUploads.WithLabelValues(r.backend, "ok").Inc()
		attachments = append(attachments, models.MediaAttachment{
			URL:  url,
			Kind: Classify(url),
		})
	}
	return attachments, failures
}
