// Package upload validates background images and hands them to the blob store.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pscheid92/countdown/internal/adapter/metrics"
	"github.com/pscheid92/countdown/internal/domain"
)

// MaxBytes is the largest background image accepted.
const MaxBytes = 5 * 1024 * 1024

// allowedExtensions maps lowercase extensions to the stored content type.
var allowedExtensions = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
}

// AllowedExtensions lists the accepted extensions for user-facing messages.
const AllowedExtensions = "png, jpg, jpeg, gif"

// Gateway validates background images and writes them to a blob store.
type Gateway struct {
	blobs   domain.BlobStore
	metrics *metrics.UploadMetrics
	newID   func() uuid.UUID
}

// NewGateway creates a gateway storing through blobs and recording upload metrics on m.
func NewGateway(blobs domain.BlobStore, m *metrics.UploadMetrics) *Gateway {
	return &Gateway{
		blobs:   blobs,
		metrics: m,
		newID:   uuid.New,
	}
}

// Validate checks the client-supplied file name and returns its normalized extension.
func Validate(filename string) (string, error) {
	if filename == "" {
		return "", domain.ErrNoFile
	}

	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return "", domain.ErrInvalidExtension
	}

	ext := strings.ToLower(filename[idx+1:])
	if _, ok := allowedExtensions[ext]; !ok {
		return "", domain.ErrInvalidExtension
	}
	return ext, nil
}

// Store writes the image under a fresh "<uuid>.<ext>" key and returns the key.
// Blob store errors are logged and surfaced as domain.ErrStorageFailure.
func (g *Gateway) Store(ctx context.Context, r io.Reader, ext string) (string, error) {
	contentType, ok := allowedExtensions[ext]
	if !ok {
		g.metrics.Uploads.WithLabelValues(metrics.UploadResultRejected).Inc()
		return "", domain.ErrInvalidExtension
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxBytes+1))
	if err != nil {
		g.metrics.Uploads.WithLabelValues(metrics.UploadResultFailed).Inc()
		slog.ErrorContext(ctx, "Failed to read uploaded image", "error", err)
		return "", fmt.Errorf("%w: read upload", domain.ErrStorageFailure)
	}
	if len(data) > MaxBytes {
		g.metrics.Uploads.WithLabelValues(metrics.UploadResultRejected).Inc()
		return "", domain.ErrFileTooLarge
	}
	if len(data) == 0 {
		g.metrics.Uploads.WithLabelValues(metrics.UploadResultRejected).Inc()
		return "", domain.ErrNoFile
	}

	key := SanitizeKey(g.newID().String() + "." + ext)
	if err := g.blobs.Put(ctx, key, data, contentType); err != nil {
		g.metrics.Uploads.WithLabelValues(metrics.UploadResultFailed).Inc()
		slog.ErrorContext(ctx, "Failed to store background image", "key", key, "error", err)
		return "", fmt.Errorf("%w: put %s", domain.ErrStorageFailure, key)
	}

	g.metrics.Uploads.WithLabelValues(metrics.UploadResultStored).Inc()
	g.metrics.Bytes.Observe(float64(len(data)))
	slog.InfoContext(ctx, "Background image stored", "key", key, "bytes", len(data))
	return key, nil
}

// PublicURL returns where a browser can fetch the stored image.
func (g *Gateway) PublicURL(key string) string {
	return g.blobs.PublicURL(key)
}

// SanitizeKey reduces name to a safe single path segment: ASCII letters,
// digits, '-', '_' and '.', with no leading dots.
func SanitizeKey(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	var b bytes.Buffer
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	return strings.TrimLeft(b.String(), "._")
}
