package storage

import (
	"context"
	"errors"
)

// ErrBucketNotFound signals that the storage target itself is missing
// (misconfiguration), as opposed to a transient I/O failure. The materializer
// only falls through to the secondary store on this class of error.
var ErrBucketNotFound = errors.New("storage: bucket not found")

// ObjectStore writes bytes to a durable location and returns the public URL.
type ObjectStore interface {
	Name() string
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// MaterializedAsset describes where a generation result ended up.
// DurableURL points at storage the platform controls unless Degraded is set,
// in which case it is the original provider-hosted (possibly time-limited) URL.
type MaterializedAsset struct {
	SourceURL   string
	DurableURL  string
	ContentType string
	SizeBytes   int64
	Degraded    bool
}
