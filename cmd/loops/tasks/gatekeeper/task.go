package gatekeeper

import (
	"context"
	"errors"

	apimodels "github.com/modelyard/modelyard-api-types/models"
	"github.com/modelyard/modelyard/cmd/loops/hook"
	"github.com/modelyard/modelyard/cmd/loops/recurring"
	bindmodels "github.com/modelyard/modelyard/pkg/api-types-binding/models"
	"github.com/modelyard/modelyard/pkg/domain"
	kerr "github.com/modelyard/modelyard/pkg/domain/errors"
	kdbmodel "github.com/modelyard/modelyard/pkg/domain/model/db"
	kdbrun "github.com/modelyard/modelyard/pkg/domain/run/db"
	"github.com/modelyard/modelyard/pkg/gates"
	"github.com/modelyard/modelyard/pkg/storage"
)

// initial value for task
func Seed() any {
	return nil
}

// Task for evaluating pending model versions.
//
// A freshly registered version waits in status pending until its gates
// have been run. This task picks such versions one by one, runs the
// loading gate and the performance gate, and records the outcomes.
// The version becomes ready when all gates passed, rejected otherwise.
//
// # Params
//
// - imodel: model database
//
// - irun: run database, for the metrics the version was trained with
//
// - store: blob store holding the model bundle
//
// - hook: webhooks to be called around the evaluation
//
// # Return
//
// - task: evaluate the oldest pending version.
func Task(
	imodel kdbmodel.Interface,
	irun kdbrun.Interface,
	store storage.Store,
	hook hook.Hook[apimodels.VersionDetail, struct{}],
) recurring.Task[any] {
	return func(ctx context.Context, value any) (any, bool, error) {
		var evaluatedName string
		var evaluatedVersion int

		popped, err := imodel.PopPending(ctx, func(mv domain.ModelVersion) ([]domain.GateResult, error) {
			if _, err := hook.Before(bindmodels.ComposeVersionDetail(mv)); err != nil {
				return nil, err
			}

			models, err := imodel.Get(ctx, []string{mv.ModelName})
			if err != nil {
				return nil, err
			}
			policy := models[mv.ModelName].Gate

			runs, err := irun.Get(ctx, []string{mv.RunId})
			if err != nil {
				return nil, err
			}
			metrics := runs[mv.RunId].Metrics

			// the version in production sets the bar for min_improvement.
			var incumbent *float64
			if current, err := imodel.CurrentOf(ctx, mv.ModelName, domain.StageProduction); err == nil {
				incumbent = current.PerformanceValue()
			} else if !errors.Is(err, kerr.ErrMissing) {
				return nil, err
			}

			evaluatedName, evaluatedVersion = mv.ModelName, mv.Version
			return gates.Evaluate(ctx, store, mv.Artifact.Digest, metrics, policy, incumbent), nil
		})

		if popped {
			if v, err := imodel.GetVersion(ctx, evaluatedName, evaluatedVersion); err == nil {
				hook.After(bindmodels.ComposeVersionDetail(v))
			}
		}

		// Context cancelled/deadline exceeded are okay. It will be retried.
		if err != nil && !(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return value, popped, err
		}
		return value, popped, nil
	}
}
