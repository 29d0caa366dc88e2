package db

import (
	"context"
	"time"

	"github.com/modelyard/modelyard/pkg/domain"
)

type Interface interface {
	// create a new run.
	//
	// The run starts in scheduled status. When the spec has a timeout,
	// the run's deadline is set that far in the future, and housekeeping
	// kills the run if it is still not terminal then.
	//
	// Args
	//
	// - context.Context
	//
	// - RunSpec: experiment id, name, params, tags and timeout of the new run.
	//
	// Returns
	//
	// - string: run id which is newly created.
	//
	// - error: ErrMissing (when the experiment is not found)
	New(ctx context.Context, spec domain.RunSpec) (string, error)

	// Retreive Runs.
	//
	// Args
	//
	// - context.Context
	//
	// - []string: run ids
	//
	// Returns
	//
	// - map[string]Run: mapping run id->Run. Unknown ids are just omitted.
	//
	// - error
	Get(ctx context.Context, runId []string) (map[string]domain.Run, error)

	// find runs which...
	//
	// - belongs to an experiment in argument "ExperimentId",
	//
	// - is in a status which is in argument "Status",
	//
	// - has all tags in argument "Tag" and
	//
	// - is updated in the given time range
	//
	// (all conditions should be met).
	//
	// when some conditions are empty, such empty conditions are ignored
	// and do not narrow results.
	//
	// Args
	//
	// - context.Context
	//
	// - RunFindQuery: find runs which the query mathces
	//
	// Returns
	//
	// - []string: found runIds.
	//
	// - error
	Find(ctx context.Context, query domain.RunFindQuery) ([]string, error)

	// update run status.
	//
	// Args
	//
	// - context.Context
	//
	// - string: runId to be updated.
	//
	// - RunStatus: new status.
	//
	// Returns
	//
	// - error: ErrInvalidRunStateChanging (when newStatus is not next of
	// current status), ErrMissing (when run is not found for given runId)
	SetStatus(ctx context.Context, runId string, newStatus domain.RunStatus) error

	// append metric observations to a running run.
	//
	// Each point is recorded as history, and the latest observation
	// per key is kept queryable.
	//
	// Args
	//
	// - context.Context
	//
	// - string: runId
	//
	// - []MetricPoint: observations. Points with zero RecordedAt are
	// stamped with the database clock.
	//
	// Returns
	//
	// - error: ErrRunNotRunning (when the run is not in running status),
	// ErrMissing (when run is not found for given runId)
	AddMetrics(ctx context.Context, runId string, points []domain.MetricPoint) error

	// update run status as finished or failed, with the final metrics.
	//
	// The final metrics are recorded before the status changes,
	// so they obey the same rule as AddMetrics.
	//
	// Args
	//
	// - context.Context
	//
	// - string: runId to be finished.
	//
	// - RunOutcome: terminal status (finished or failed) and final metrics.
	//
	// Returns
	//
	// - error: ErrInvalidRunStateChanging (when the run is not running,
	// or the outcome status is not finished nor failed),
	// ErrMissing (when run is not found for given runId)
	Finish(ctx context.Context, runId string, outcome domain.RunOutcome) error

	// bind an artifact to a running run under a name.
	//
	// Pushing the same name and digest again is a no-op.
	//
	// Args
	//
	// - context.Context
	//
	// - string: runId
	//
	// - string: name of the artifact within the run.
	//
	// - string: digest of a registered artifact.
	//
	// Returns
	//
	// - error: ErrRunNotRunning (when the run is not in running status),
	// ErrMissing (when run or artifact is not found),
	// ErrAlreadyExists (when the name is bound to other content)
	AttachArtifact(ctx context.Context, runId string, name string, digest string) error

	// pick a run which has been there past its deadline, and fail it.
	//
	// The run picked is running, has a deadline earlier than now,
	// and is locked while callback runs. When callback returns nil,
	// the run is marked failed and the change is committed.
	// When callback returns an error, everything rolls back.
	//
	// Args
	//
	// - context.Context
	//
	// - time.Time: now.
	//
	// - func(Run) error: task which should occur along with failing the run.
	//
	// Returns
	//
	// - bool: true when an expired run was found and failed.
	//
	// - error
	PopExpired(ctx context.Context, now time.Time, callback func(domain.Run) error) (bool, error)
}
