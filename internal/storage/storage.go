// Package storage contains the object-storage port used to persist version
// content. Implementations are S3-compatible, avoid local disk, and rely on
// streaming I/O only. The decision engines never touch this package; only
// the use-case services do.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Storage is a reusable, S3-compatible object storage client interface.
type Storage interface {
	// Put uploads an object under the given key using the provided reader.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the
	// object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// VersionKey builds the object key for a document version's content. Keys
// are derived from the version id, not the version number: a retried insert
// that recomputes the number keeps pointing at the same object.
func VersionKey(documentID, versionID uuid.UUID) string {
	return fmt.Sprintf("documents/%s/%s", documentID, versionID)
}
