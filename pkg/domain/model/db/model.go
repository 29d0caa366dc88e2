package db

import (
	"context"

	"github.com/modelyard/modelyard/pkg/domain"
)

type Interface interface {
	// create a model.
	//
	// Registering a name which already exists is a no-op:
	// the existing model and its gate policy are kept as they are.
	//
	// Args
	//
	// - context.Context
	//
	// - ModelSpec: name, description, gate policy and tags.
	//
	// Returns
	//
	// - error
	Register(ctx context.Context, spec domain.ModelSpec) error

	// Retreive Models, with their versions.
	//
	// Args
	//
	// - context.Context
	//
	// - []string: model names
	//
	// Returns
	//
	// - map[string]Model: mapping model name->Model.
	// Unknown names are just omitted.
	//
	// - error
	Get(ctx context.Context, names []string) (map[string]domain.Model, error)

	// find models which have the given name, all of the given tags,
	// and a version in one of the given stages.
	//
	// when some conditions are empty, such empty conditions are ignored
	// and do not narrow results.
	//
	// Args
	//
	// - context.Context
	//
	// - ModelFindQuery
	//
	// Returns
	//
	// - []string: found model names.
	//
	// - error
	Find(ctx context.Context, query domain.ModelFindQuery) ([]string, error)

	// register the next version of a model from a finished run's artifact.
	//
	// The version number is one past the largest so far, starting at 1.
	// The new version is in status pending, stage none, and waits for
	// the gatekeeper.
	//
	// Args
	//
	// - context.Context
	//
	// - string: model name.
	//
	// - string: run id the version is registered from.
	//
	// - string: digest of an artifact attached to that run.
	//
	// Returns
	//
	// - ModelVersion: the created version.
	//
	// - error: ErrMissing (when the model, the run or the artifact is not
	// found), ErrRunNotFinished (when the run is not in finished status)
	NewVersion(ctx context.Context, name string, runId string, digest string) (domain.ModelVersion, error)

	// Retreive all versions of a model, newest first.
	//
	// Args
	//
	// - context.Context
	//
	// - string: model name.
	//
	// Returns
	//
	// - []ModelVersion
	//
	// - error: ErrMissing (when the model is not found)
	Versions(ctx context.Context, name string) ([]domain.ModelVersion, error)

	// Retreive a single version of a model.
	//
	// Args
	//
	// - context.Context
	//
	// - string: model name.
	//
	// - int: version number.
	//
	// Returns
	//
	// - ModelVersion
	//
	// - error: ErrMissing (when the model or the version is not found)
	GetVersion(ctx context.Context, name string, version int) (domain.ModelVersion, error)

	// pick a pending version, evaluate it, and record the outcome.
	//
	// The oldest pending version is locked while callback runs.
	// The gate results returned by callback are recorded, and the
	// version's status becomes ready when all of them passed,
	// rejected otherwise. When callback returns an error,
	// everything rolls back and the version stays pending.
	//
	// Args
	//
	// - context.Context
	//
	// - func(ModelVersion) ([]GateResult, error): the gate evaluation.
	//
	// Returns
	//
	// - bool: true when a version was evaluated.
	//
	// - error
	PopPending(ctx context.Context, callback func(domain.ModelVersion) ([]domain.GateResult, error)) (bool, error)

	// move a version to another stage.
	//
	// Moving to staging or production requires status ready.
	// Moving to production re-checks the model's gate policy against
	// the value the current production version recorded, in the same
	// transaction. The version previously in the target stage is
	// archived, so each model keeps at most one staging and one
	// production version.
	//
	// Args
	//
	// - context.Context
	//
	// - string: model name.
	//
	// - int: version number.
	//
	// - Stage: stage to move to.
	//
	// Returns
	//
	// - ModelVersion: the version after the move.
	//
	// - error: ErrMissing (when the model or the version is not found),
	// ErrInvalidStageChanging (when the move is not allowed),
	// ErrVersionNotReady (when the version has not passed its gates),
	// ErrPromotionBlocked (when the gate policy says no)
	Promote(ctx context.Context, name string, version int, stage domain.Stage) (domain.ModelVersion, error)

	// Retreive the version currently in the given stage.
	//
	// Only staging and production identify a single version.
	//
	// Args
	//
	// - context.Context
	//
	// - string: model name.
	//
	// - Stage: staging or production.
	//
	// Returns
	//
	// - ModelVersion
	//
	// - error: ErrMissing (when no version is in the stage)
	CurrentOf(ctx context.Context, name string, stage domain.Stage) (domain.ModelVersion, error)
}
