package notes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/promissory/backend/internal/domain/shared"
)

// AttachmentStorage is the object-store boundary for note images.
// Implementations presign; the engine never sees the blob itself.
type AttachmentStorage interface {
	// GenerateUploadURL returns a presigned PUT URL for the given key
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// ObjectURL returns the stable public URL for a stored object
	ObjectURL(storageKey string) string
}

// UploadTicket is handed to the client so it can upload the note image
// directly to the object store, then attach the resulting object URL.
type UploadTicket struct {
	UploadURL string    `json:"upload_url"`
	ObjectURL string    `json:"object_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AttachmentService issues upload tickets for note images
type AttachmentService struct {
	storage          AttachmentStorage
	uploadExpiration time.Duration
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(storage AttachmentStorage, uploadExpiration time.Duration) *AttachmentService {
	if uploadExpiration <= 0 {
		uploadExpiration = 15 * time.Minute
	}
	return &AttachmentService{
		storage:          storage,
		uploadExpiration: uploadExpiration,
	}
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// RequestUpload issues a presigned upload ticket for a note image
func (s *AttachmentService) RequestUpload(ctx context.Context, noteID uuid.UUID, contentType string) (UploadTicket, error) {
	ext, ok := imageExtensions[contentType]
	if !ok {
		return UploadTicket{}, shared.NewDomainError("INVALID_CONTENT_TYPE",
			fmt.Sprintf("Content type %q is not a supported image type", contentType))
	}
	key := fmt.Sprintf("notes/%s/%s%s", noteID, uuid.New(), ext)

	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, contentType, s.uploadExpiration)
	if err != nil {
		return UploadTicket{}, fmt.Errorf("failed to presign upload: %w", err)
	}
	return UploadTicket{
		UploadURL: uploadURL,
		ObjectURL: s.storage.ObjectURL(key),
		ExpiresAt: expiresAt,
	}, nil
}
