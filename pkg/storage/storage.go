package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	sconf "github.com/modelyard/modelyard/pkg/configs/server"
	"github.com/modelyard/modelyard/pkg/domain"
)

// ErrNotFound is returned when no blob is stored for a digest.
var ErrNotFound = errors.New("blob not found")

// Store is the blob side of the artifact store.
//
// Blobs are content-addressed: the key of a blob is derived from its digest
// and nothing else. Verifying a digest on the read path is up to the caller.
type Store interface {
	// Put stores the content of r as a blob.
	//
	// The content is spooled and hashed while streaming, and then laid
	// under its content-addressed key. Putting the same content twice
	// lands on the same key and is not an error.
	//
	// # Args
	//
	// - ctx context.Context
	//
	// - r io.Reader: content of the blob.
	//
	// # Returns
	//
	// - string: digest of the content, in "sha256:<64 hex>" format.
	//
	// - int64: size of the content, in bytes.
	//
	// - error
	Put(ctx context.Context, r io.Reader) (string, int64, error)

	// Open streams a stored blob.
	//
	// # Args
	//
	// - ctx context.Context
	//
	// - digest string: digest of the blob to be read.
	//
	// # Returns
	//
	// - io.ReadCloser: content of the blob. Caller should close it.
	//
	// - int64: size of the blob, in bytes.
	//
	// - error: ErrNotFound when no blob is stored for the digest.
	Open(ctx context.Context, digest string) (io.ReadCloser, int64, error)

	// Remove deletes a stored blob.
	//
	// Removing a blob which is not there is no-op, not an error.
	//
	// # Args
	//
	// - ctx context.Context
	//
	// - digest string: digest of the blob to be removed.
	//
	// # Returns
	//
	// - error
	Remove(ctx context.Context, digest string) error

	// Exists tests that a blob is stored for the digest.
	//
	// # Args
	//
	// - ctx context.Context
	//
	// - digest string: digest of the blob to be tested.
	//
	// # Returns
	//
	// - bool: true when the blob is there.
	//
	// - error
	Exists(ctx context.Context, digest string) (bool, error)
}

// ObjectKey converts a digest "sha256:<64 hex>" into the key "sha256/<64 hex>"
// where the blob is laid, relative to the root of the store.
func ObjectKey(digest string) (string, error) {
	if err := domain.ValidateDigest(digest); err != nil {
		return "", err
	}
	return strings.Replace(digest, ":", "/", 1), nil
}

// FromConfig builds the Store which the server configuration points at.
func FromConfig(ctx context.Context, cfg *sconf.StorageConfig) (Store, error) {
	switch cfg.Kind() {
	case "local":
		return NewLocal(cfg.Local().Root())
	case "s3":
		return NewS3(ctx, cfg.S3())
	default:
		return nil, fmt.Errorf("unknown storage kind: %s", cfg.Kind())
	}
}
