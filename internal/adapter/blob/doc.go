// Package blob implements domain.BlobStore for the two deployment modes:
// a local directory served by this process, or a public Google Cloud Storage bucket.
package blob
