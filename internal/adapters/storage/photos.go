package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"claim_intake_backend/internal/intake/session"
	"claim_intake_backend/platform/apperr"
	"claim_intake_backend/platform/logger"
)

const photoFolder = "damages"

// PhotoStore keeps damage photos in a bucket and hands out their public URL.
type PhotoStore struct {
	objects     ObjectStore
	bucket      string
	publicBase  string
	maxFileSize int64
	log         *logger.Logger
}

// NewPhotoStore creates a photo store on top of an object store. publicBase is
// the externally reachable prefix of the bucket, e.g. https://cdn.example.com.
func NewPhotoStore(objects ObjectStore, bucket, publicBase string, maxFileSize int64, log *logger.Logger) *PhotoStore {
	return &PhotoStore{
		objects:     objects,
		bucket:      bucket,
		publicBase:  strings.TrimRight(publicBase, "/"),
		maxFileSize: maxFileSize,
		log:         log,
	}
}

// EnsureBucket creates the photo bucket on startup.
func (p *PhotoStore) EnsureBucket(ctx context.Context) error {
	return p.objects.EnsureBucketExists(ctx, p.bucket)
}

// Upload checks the file type and size, then stores the photo. Rejected files
// never reach the bucket.
func (p *PhotoStore) Upload(ctx context.Context, upload session.PhotoUpload) (session.StoredPhoto, error) {
	contentType, err := ResolveContentType(upload.FileName, upload.ContentType)
	if err != nil {
		return session.StoredPhoto{}, err
	}
	if err := ValidateFileSize(upload.Size, p.maxFileSize); err != nil {
		return session.StoredPhoto{}, err
	}
	if upload.Body == nil {
		return session.StoredPhoto{}, apperr.Validation("file is empty")
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, upload.Size+1))
	if err != nil {
		return session.StoredPhoto{}, fmt.Errorf("read photo: %w", err)
	}
	if int64(len(data)) != upload.Size {
		return session.StoredPhoto{}, apperr.Validation("file size does not match the upload")
	}

	key, err := p.objects.UploadFile(ctx, p.bucket, photoFolder, upload.FileName, contentType, bytes.NewReader(data), upload.Size)
	if err != nil {
		return session.StoredPhoto{}, err
	}

	stored := session.StoredPhoto{
		Key:          key,
		URL:          p.PublicURL(key),
		OriginalName: upload.FileName,
		CapturedAt:   capturedAt(data, contentType),
	}
	p.log.WithContext(ctx).Debug("photo stored", "key", key, "size", upload.Size, "hasCaptureTime", stored.CapturedAt != nil)
	return stored, nil
}

// Delete removes a stored photo.
func (p *PhotoStore) Delete(ctx context.Context, key string) error {
	return p.objects.DeleteObject(ctx, p.bucket, key)
}

// PublicURL is the reference recorded on the damage.
func (p *PhotoStore) PublicURL(key string) string {
	return p.publicBase + "/" + p.bucket + "/" + key
}

// capturedAt reads the EXIF capture time of a JPEG. Missing or broken
// metadata is not an error.
func capturedAt(data []byte, contentType string) *time.Time {
	if contentType != "image/jpeg" && contentType != "image/jpg" {
		return nil
	}
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	t, err := x.DateTime()
	if err != nil {
		return nil
	}
	return &t
}

var _ session.PhotoStore = (*PhotoStore)(nil)
