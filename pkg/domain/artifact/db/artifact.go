package db

import (
	"context"

	"github.com/modelyard/modelyard/pkg/domain"
)

type Interface interface {
	// Register records an artifact identified by its content digest.
	//
	// Registering a digest which is known already is a no-op,
	// unless the sizes disagree.
	//
	// Args
	//
	// - context.Context
	//
	// - string: digest of the artifact, like "sha256:...".
	//
	// - int64: size of the artifact in bytes.
	//
	// Returns
	//
	// - domain.Artifact: the artifact record, new or existing.
	//
	// - error: ErrAlreadyExists (when the digest is registered with a
	// different size), or other errors come from database.
	Register(ctx context.Context, digest string, size int64) (domain.Artifact, error)

	// Retreive Artifacts which have digests.
	//
	// Args
	//
	// - context.Context
	//
	// - []string: digests of artifacts to be found.
	//
	// Returns
	//
	// - map[string]domain.Artifact: mapping digest->Artifact.
	// If some digests are not found, they are just missing from the map.
	//
	// - error
	Get(ctx context.Context, digests []string) (map[string]domain.Artifact, error)

	// PopOrphaned picks an artifact which no run and no model version
	// refers to, and passes it to callback.
	//
	// The picked artifact is locked while callback runs.
	// When callback returns nil, the artifact record is removed and
	// the transaction is committed. Otherwise it is rolled back and
	// the artifact stays.
	//
	// Args
	//
	// - context.Context
	//
	// - callback func(domain.Artifact) error: remove the phisical blob here.
	//
	// Returns
	//
	// - bool: true when an orphaned artifact was found, committed or not.
	//
	// - error: the error callback returned, or errors come from database.
	PopOrphaned(ctx context.Context, callback func(domain.Artifact) error) (bool, error)
}
