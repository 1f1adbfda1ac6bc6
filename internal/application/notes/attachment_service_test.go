package notes

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	lastKey         string
	lastContentType string
}

func (f *fakeStorage) GenerateUploadURL(_ context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	f.lastKey = storageKey
	f.lastContentType = contentType
	return "https://bucket.example.com/upload/" + storageKey, time.Now().Add(expiresIn), nil
}

func (f *fakeStorage) ObjectURL(storageKey string) string {
	return "https://bucket.example.com/" + storageKey
}

func TestAttachmentService_RequestUpload(t *testing.T) {
	storage := &fakeStorage{}
	service := NewAttachmentService(storage, 10*time.Minute)
	noteID := uuid.New()

	t.Run("issues ticket for a supported image type", func(t *testing.T) {
		ticket, err := service.RequestUpload(context.Background(), noteID, "image/png")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(storage.lastKey, "notes/"+noteID.String()+"/"))
		assert.True(t, strings.HasSuffix(storage.lastKey, ".png"))
		assert.Equal(t, "image/png", storage.lastContentType)
		assert.Equal(t, "https://bucket.example.com/upload/"+storage.lastKey, ticket.UploadURL)
		assert.Equal(t, "https://bucket.example.com/"+storage.lastKey, ticket.ObjectURL)
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), ticket.ExpiresAt, 5*time.Second)
	})

	t.Run("keys are unique per request", func(t *testing.T) {
		_, err := service.RequestUpload(context.Background(), noteID, "image/jpeg")
		require.NoError(t, err)
		first := storage.lastKey
		_, err = service.RequestUpload(context.Background(), noteID, "image/jpeg")
		require.NoError(t, err)
		assert.NotEqual(t, first, storage.lastKey)
	})

	t.Run("rejects non-image content types", func(t *testing.T) {
		_, err := service.RequestUpload(context.Background(), noteID, "application/pdf")
		assert.Equal(t, "INVALID_CONTENT_TYPE", serviceCode(t, err))
	})
}
