// Package domain holds the timer types, sentinel errors and the BlobStore
// contract shared by the app service and its adapters.
package domain
