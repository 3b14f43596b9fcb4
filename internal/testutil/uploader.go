package testutil

import (
	"context"
	"errors"
	"io"
	"sync"

	"vibez/internal/media"
)

// ErrUploadRejected is returned by StubUploader for filenames marked to fail.
var ErrUploadRejected = errors.New("stub uploader: upload rejected")

// StubUploader is an in-memory media.BlobUploader.
type StubUploader struct {
	BaseURL string
	mu      sync.Mutex
	fail    map[string]bool
	stored  map[string][]byte
}

// NewStubUploader creates an uploader that serves URLs under baseURL.
func NewStubUploader(baseURL string) *StubUploader {
	return &StubUploader{
		BaseURL: baseURL,
		fail:    make(map[string]bool),
		stored:  make(map[string][]byte),
	}
}

// FailOn makes uploads of filename return ErrUploadRejected.
func (s *StubUploader) FailOn(filename string) *StubUploader {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[filename] = true
	return s
}

// Upload records the bytes and returns BaseURL/filename.
func (s *StubUploader) Upload(_ context.Context, u media.Upload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[u.Filename] {
		return "", ErrUploadRejected
	}
	b, err := io.ReadAll(u.Body)
	if err != nil {
		return "", err
	}
	url := s.BaseURL + "/" + u.Filename
	s.stored[url] = b
	return url, nil
}

// Stored returns the bytes uploaded under url.
func (s *StubUploader) Stored(url string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.stored[url]
	return b, ok
}
