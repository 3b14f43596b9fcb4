package media

import (
	"context"
	"errors"
)

// ErrUploadsDisabled is returned by NopUploader for every upload.
var ErrUploadsDisabled = errors.New("media uploads are disabled")

// NopUploader rejects every upload. Tools that never attach media use it in
// place of a real blob store.
type NopUploader struct{}

func (NopUploader) Upload(context.Context, Upload) (string, error) {
	return "", ErrUploadsDisabled
}
