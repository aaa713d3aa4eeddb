/*
Package storage provides file storage for user avatars and message attachments
over S3-compatible object storage.

Large uploads never pass through the server: the API hands the client a
pre-signed PUT URL with the content type and length pinned, and stores only
the object key. Avatars may also be posted directly as multipart form data
for clients that cannot do a two-step upload. Downloads are served with
pre-signed GET URLs.
*/
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"hubchat/internal/pkg/errs"
	"hubchat/internal/pkg/randx"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// StorageService defines the public interface for the file storage service.
type StorageService interface {
	// PresignUpload generates a pre-signed URL for uploading a file.
	PresignUpload(
		ctx context.Context,
		key string,
		mimeType string,
		fileSize int64,
		duration time.Duration,
	) (string, error)

	// Upload streams a file body through the server to storage under the given key.
	Upload(ctx context.Context, key string, mimeType string, body io.Reader) error

	// PresignDownload generates a pre-signed URL for downloading a file.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Delete removes the file specified by the given key.
	Delete(ctx context.Context, key string) error

	// GetObjectMetadata retrieves the object's metadata.
	GetObjectMetadata(ctx context.Context, key string) (map[string]string, error)
}

// NewStorageService is the factory function for StorageService.
// It initializes and returns a concrete implementation based on the provided configuration.
func NewStorageService(cfg ServiceConfig) (StorageService, error) {
	return newS3Client(cfg)
}

// Upload size limits per object class.
const (
	MaxAvatarSize     int64 = 2 << 20  // 2 MB
	MaxAttachmentSize int64 = 20 << 20 // 20 MB
)

// avatarMimeTypes lists the content types accepted for avatar uploads.
var avatarMimeTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// attachmentMimeTypes lists the content types accepted for message
// attachments, a superset of the avatar types.
var attachmentMimeTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"application/pdf": ".pdf",
	"text/plain":      ".txt",
	"audio/mpeg":      ".mp3",
	"video/mp4":       ".mp4",
}

// AvatarKey validates an avatar upload and returns the object key to presign.
func AvatarKey(userID, mimeType string, fileSize int64) (string, *errs.CustomError) {
	ext, ok := avatarMimeTypes[mimeType]
	if !ok {
		return "", errs.NewError(errs.ErrFileTypeInvalid)
	}
	if fileSize <= 0 || fileSize > MaxAvatarSize {
		return "", errs.NewError(errs.ErrFileSizeTooLarge)
	}
	return path.Join("avatars", userID, randx.FileToken()+ext), nil
}

// AttachmentKey validates a message attachment upload and returns the object
// key to presign.
func AttachmentKey(userID, mimeType string, fileSize int64) (string, *errs.CustomError) {
	ext, ok := attachmentMimeTypes[mimeType]
	if !ok {
		return "", errs.NewError(errs.ErrFileTypeInvalid)
	}
	if fileSize <= 0 || fileSize > MaxAttachmentSize {
		return "", errs.NewError(errs.ErrFileSizeTooLarge)
	}
	return path.Join("attachments", userID, fmt.Sprintf("%s%s", randx.FileToken(), ext)), nil
}
