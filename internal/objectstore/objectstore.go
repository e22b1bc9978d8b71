// Package objectstore provides path-addressed blob storage for study
// attachments. The Store interface is the capability the study engine
// depends on; S3 backs it in production and the in-memory implementation
// backs tests and local development.
package objectstore

import (
	"context"
	"errors"
)

var ErrObjectNotFound = errors.New("object not found")

type Store interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Delete(ctx context.Context, path string) error
	// Copy duplicates the object at src under dst, leaving src in place.
	Copy(ctx context.Context, src, dst string) error
	Fetch(ctx context.Context, path string) ([]byte, error)
	// URL resolves the public URL an object is served from.
	URL(path string) string
}
