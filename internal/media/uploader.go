package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// sniffLen is how many leading bytes are read to detect the content type.
const sniffLen = 3072

// Upload is one file submitted with a post or comment.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// Present reports whether the upload carries a file at all.
func (u Upload) Present() bool {
	return u.Body != nil && (u.Filename != "" || u.Size > 0)
}

// BlobUploader stores file bytes and returns a public URL for them.
type BlobUploader interface {
	Upload(ctx context.Context, u Upload) (string, error)
}

// ObjectKey builds a collision-free key that keeps the original extension so
// Classify works on the resulting URL.
func ObjectKey(filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("uploads/%d/%02d/%s%s", now.Year(), now.Month(), uuid.NewString(), ext)
}

// sniff detects the content type from the leading bytes of body and returns a
// reader that still yields the full stream.
func sniff(body io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, fmt.Errorf("read upload header: %w", err)
	}
	head = head[:n]
	return mimetype.Detect(head).String(), io.MultiReader(bytes.NewReader(head), body), nil
}

// publicURL joins base and key with exactly one slash.
func publicURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(key, "/")
}
