package domain

import "context"

// BlobStore is opaque key-addressed storage for uploaded background images.
// Exactly one implementation is selected at startup.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
	Check(ctx context.Context) error
}
