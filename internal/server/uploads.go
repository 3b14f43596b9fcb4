package server

import (
	"fmt"
	"io"
	"strings"

	"vibez/internal/media"
	"vibez/internal/models"

	"github.com/gofiber/fiber/v2"
)

const mediaFormField = "media"

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// parseUploads opens the files sent under the "media" form field. The returned
// cleanup closes them and must be called once the request is handled.
func (s *Server) parseUploads(c *fiber.Ctx) ([]media.Upload, func(), error) {
	noop := func() {}
	if !isMultipart(c) {
		return nil, noop, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, models.NewValidationError("Invalid multipart body")
	}
	files := form.File[mediaFormField]
	if len(files) > maxUploadFiles {
		return nil, noop, models.NewFieldValidationError("Too many files",
			map[string]string{mediaFormField: fmt.Sprintf("at most %d files per request", maxUploadFiles)})
	}

	maxBytes := int64(s.config.MediaMaxUploadBytes())
	var closers []io.Closer
	cleanup := func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}

	uploads := make([]media.Upload, 0, len(files))
	for _, fh := range files {
		if fh.Size > maxBytes {
			cleanup()
			return nil, noop, models.NewFieldValidationError("File too large",
				map[string]string{mediaFormField: fmt.Sprintf("%s exceeds %d MB", fh.Filename, s.config.MediaMaxUploadSizeMB)})
		}
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, noop, models.NewValidationError("Unreadable upload " + fh.Filename)
		}
		closers = append(closers, f)
		uploads = append(uploads, media.Upload{Filename: fh.Filename, Size: fh.Size, Body: f})
	}
	return uploads, cleanup, nil
}
