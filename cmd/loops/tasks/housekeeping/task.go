package housekeeping

import (
	"context"
	"errors"
	"time"

	apiruns "github.com/modelyard/modelyard-api-types/runs"
	"github.com/modelyard/modelyard/cmd/loops/hook"
	"github.com/modelyard/modelyard/cmd/loops/recurring"
	bindruns "github.com/modelyard/modelyard/pkg/api-types-binding/runs"
	"github.com/modelyard/modelyard/pkg/domain"
	kdbexp "github.com/modelyard/modelyard/pkg/domain/experiment/db"
	kdbrun "github.com/modelyard/modelyard/pkg/domain/run/db"
)

// initial value for task
func Seed() any {
	return nil
}

// Task for failing runs past their deadline.
//
// A run whose process stopped reporting does not end by itself.
// This task picks such runs one by one and marks them failed.
//
// # Params
//
// - irun: run database
//
// - iexp: experiment database, for hook payloads
//
// - hook: webhooks to be called around the status change
//
// # Return
//
// - task: fail a run which has been there past its deadline.
func Task(
	irun kdbrun.Interface,
	iexp kdbexp.Interface,
	hook hook.Hook[apiruns.Detail, struct{}],
) recurring.Task[any] {
	return func(ctx context.Context, value any) (any, bool, error) {
		var expiredExp domain.Experiment
		var expiredRunId string

		popped, err := irun.PopExpired(ctx, time.Now(), func(r domain.Run) error {
			exps, err := iexp.Get(ctx, []string{r.ExperimentId})
			if err != nil {
				return err
			}
			expiredExp = exps[r.ExperimentId]
			expiredRunId = r.Id

			if _, err := hook.Before(bindruns.ComposeDetail(expiredExp, r)); err != nil {
				return err
			}
			return nil
		})

		if popped {
			if runs, _ := irun.Get(ctx, []string{expiredRunId}); runs != nil {
				if r, ok := runs[expiredRunId]; ok {
					hook.After(bindruns.ComposeDetail(expiredExp, r))
				}
			}
		}

		// Context cancelled/deadline exceeded are okay. It will be retried.
		if err != nil && !(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return value, popped, err
		}
		return value, popped, nil
	}
}
