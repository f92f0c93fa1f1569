// Package imagestore archives captured screenshots to a GCS bucket so a
// saved transaction can later be traced back to the confirmation it came
// from. Archiving is best effort and never blocks the capture pipeline.
package imagestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Archive writes screenshot bytes to a bucket.
type Archive struct {
	bucket string
}

// NewArchive creates an archive for the given bucket. An empty bucket name
// yields a disabled archive whose Store is a no-op.
func NewArchive(bucket string) *Archive {
	return &Archive{bucket: bucket}
}

// Enabled reports whether a bucket is configured.
func (a *Archive) Enabled() bool {
	return a.bucket != ""
}

// Store uploads the screenshot under a date-partitioned object name and
// returns the gs:// URI. Application Default Credentials are assumed.
func (a *Archive) Store(ctx context.Context, userID string, image []byte, mimeType string) (string, error) {
	if !a.Enabled() {
		return "", nil
	}

	objectName := fmt.Sprintf("captures/%s/%s/%s%s",
		time.Now().Format("2006/01/02"), userID, uuid.NewString(), extensionFor(mimeType))

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("imagestore: creating storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = mimeType

	if _, err := w.Write(image); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("imagestore: writing object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("imagestore: finalizing upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, objectName), nil
}

func extensionFor(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "png"):
		return ".png"
	case strings.Contains(mimeType, "webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}
