package storage

import (
	"context"
	"errors"
	"time"

	notesapp "github.com/promissory/backend/internal/application/notes"
)

// Ensure StubAttachmentStorage implements AttachmentStorage
var _ notesapp.AttachmentStorage = (*StubAttachmentStorage)(nil)

// StubAttachmentStorage is a placeholder implementation of AttachmentStorage.
// Use this for development until a real storage backend is configured; the
// URLs it issues are not actually uploadable.
type StubAttachmentStorage struct {
	// BaseURL is the base URL for generated upload and object URLs.
	// Defaults to "https://storage.example.com" if not set.
	BaseURL string
}

// NewStubAttachmentStorage creates a new StubAttachmentStorage
func NewStubAttachmentStorage() *StubAttachmentStorage {
	return &StubAttachmentStorage{
		BaseURL: "https://storage.example.com",
	}
}

// GenerateUploadURL generates a stub presigned URL for uploading a note image
func (s *StubAttachmentStorage) GenerateUploadURL(
	ctx context.Context,
	storageKey, contentType string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/upload/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339)

	return url, expiresAt, nil
}

// ObjectURL returns the stub public URL for a stored object
func (s *StubAttachmentStorage) ObjectURL(storageKey string) string {
	return s.BaseURL + "/" + storageKey
}
