package db

import (
	"context"

	"github.com/modelyard/modelyard/pkg/domain"
)

type Interface interface {
	// Plan records a new release as staged on the idle slot of
	// its environment.
	//
	// The idle slot is the one opposite to the environment's live
	// release. With no live release yet, blue is taken.
	// A release staged earlier in the same environment is retired,
	// superseded by this one.
	//
	// Args
	//
	// - context.Context
	//
	// - domain.ReleaseSpec: environment, model version and image to release.
	//
	// - string: digest the spec's image resolved to.
	//
	// Returns
	//
	// - domain.Release: the staged release.
	//
	// - error: ErrMissing (when the model version in spec is not found),
	// ErrVersionNotReady (when the version has not passed its gates),
	// or other errors come from database.
	Plan(ctx context.Context, spec domain.ReleaseSpec, resolvedDigest string) (domain.Release, error)

	// Find Releases of an environment.
	//
	// Args
	//
	// - context.Context
	//
	// - string: environment to find releases of.
	// If it is empty, it means "match any".
	//
	// Returns
	//
	// - []string: ids of releases, ordered by creation time.
	//
	// - error
	Find(ctx context.Context, env string) ([]string, error)

	// Retreive Releases which have ids.
	//
	// Args
	//
	// - context.Context
	//
	// - []string: ids of releases to be found.
	//
	// Returns
	//
	// - map[string]domain.Release: mapping id->Release.
	// If some ids are not found, they are just missing from the map.
	//
	// - error
	Get(ctx context.Context, ids []string) (map[string]domain.Release, error)

	// Switch makes a staged release live.
	//
	// In the same transaction, the release which has been live in the
	// environment is retired. So each environment serves at most one
	// release at a time, and traffic flips from one slot to the other.
	//
	// Args
	//
	// - context.Context
	//
	// - string: id of the release to go live.
	//
	// Returns
	//
	// - domain.Release: the release, now live.
	//
	// - error: ErrMissing (when no such release), ErrReleaseNotStaged
	// (when the release is live or retired already),
	// or other errors come from database.
	Switch(ctx context.Context, id string) (domain.Release, error)

	// CurrentOf returns the live release of an environment.
	//
	// Args
	//
	// - context.Context
	//
	// - string: environment.
	//
	// Returns
	//
	// - domain.Release: the live release.
	//
	// - error: ErrMissing (when the environment has no live release),
	// or other errors come from database.
	CurrentOf(ctx context.Context, env string) (domain.Release, error)
}
