package housekeeping_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	apiruns "github.com/modelyard/modelyard-api-types/runs"
	"github.com/modelyard/modelyard/cmd/loops/hook"
	"github.com/modelyard/modelyard/cmd/loops/tasks/housekeeping"
	bindruns "github.com/modelyard/modelyard/pkg/api-types-binding/runs"
	types "github.com/modelyard/modelyard/pkg/domain"
	kdbexpmock "github.com/modelyard/modelyard/pkg/domain/experiment/db/mock"
	kdbrunmock "github.com/modelyard/modelyard/pkg/domain/run/db/mock"
	"github.com/modelyard/modelyard/pkg/utils/try"
)

func TestTask_Outside_of_PopExpired(t *testing.T) {
	deadline := try.To(
		rfctime.ParseRFC3339("2025-04-01T12:00:00+00:00"),
	).OrFatal(t).Time()
	endedAt := deadline.Add(34 * time.Minute)

	experiment := types.Experiment{
		Id:        "exp-1",
		Name:      "churn-prediction",
		Tags:      types.NewTagSet([]types.Tag{{Key: "team", Value: "growth"}}),
		CreatedAt: deadline.Add(-24 * time.Hour),
	}

	expiredRun := types.Run{
		RunBody: types.RunBody{
			Id:           "run-1",
			ExperimentId: "exp-1",
			Name:         "train-42",
			Status:       types.Running,
			Params:       map[string]string{"learning_rate": "0.01"},
			CreatedAt:    deadline.Add(-2 * time.Hour),
			UpdatedAt:    deadline.Add(-1 * time.Hour),
			DeadlineAt:   &deadline,
		},
		Tags: types.NewTagSet(nil),
	}

	failedRun := types.Run{
		RunBody: types.RunBody{
			Id:           "run-1",
			ExperimentId: "exp-1",
			Name:         "train-42",
			Status:       types.Failed,
			Params:       map[string]string{"learning_rate": "0.01"},
			CreatedAt:    deadline.Add(-2 * time.Hour),
			UpdatedAt:    endedAt,
			DeadlineAt:   &deadline,
			EndedAt:      &endedAt,
		},
		Tags: types.NewTagSet(nil),
	}

	type When struct {
		Popped         bool
		Err            error
		InvokeCallback bool
	}

	type Then struct {
		Continue           bool
		Err                error
		AfterHasBeenCalled bool
	}

	theory := func(when When, then Then) func(t *testing.T) {
		return func(t *testing.T) {
			ctx := context.Background()

			run := kdbrunmock.NewRunInterface()
			run.Impl.PopExpired = func(
				ctx context.Context, now time.Time, callback func(types.Run) error,
			) (bool, error) {
				if when.InvokeCallback {
					if err := callback(expiredRun); err != nil {
						t.Fatalf("unexpected callback error: %+v", err)
					}
				}
				return when.Popped, when.Err
			}
			run.Impl.Get = func(ctx context.Context, ids []string) (map[string]types.Run, error) {
				return map[string]types.Run{failedRun.Id: failedRun}, nil
			}

			exp := kdbexpmock.NewExperimentInterface()
			exp.Impl.Get = func(ctx context.Context, ids []string) (map[string]types.Experiment, error) {
				return map[string]types.Experiment{experiment.Id: experiment}, nil
			}

			hookAfterHasBeenCalled := false
			testee := housekeeping.Task(run, exp, hook.Func[apiruns.Detail, struct{}]{
				AfterFn: func(d apiruns.Detail) error {
					hookAfterHasBeenCalled = true
					want := bindruns.ComposeDetail(experiment, failedRun)
					if !d.Equal(want) {
						t.Errorf(
							"unexpected detail:\n===actual==\n%+v\n===expected===\n%+v",
							d, want,
						)
					}
					return errors.New("hook after: should be ignored")
				},
			})

			value, ok, err := testee(ctx, housekeeping.Seed())

			if !errors.Is(err, then.Err) {
				t.Errorf("unexpected error: %+v", err)
			}
			if ok != then.Continue {
				t.Errorf("unexpected Continue: %v", ok)
			}
			if value != nil {
				t.Errorf("unexpected value: %+v", value)
			}
			if hookAfterHasBeenCalled != then.AfterHasBeenCalled {
				t.Errorf("unexpected hook.After has been called: %v", hookAfterHasBeenCalled)
			}
		}
	}

	fakeDbError := errors.New("fake database error")

	t.Run("it continues when an expired run has been failed", theory(
		When{Popped: true, Err: nil, InvokeCallback: true},
		Then{Continue: true, Err: nil, AfterHasBeenCalled: true},
	))

	t.Run("it stops when there is no expired run", theory(
		When{Popped: false, Err: nil},
		Then{Continue: false, Err: nil},
	))

	t.Run("it ignores context.Canceled", theory(
		When{Popped: false, Err: context.Canceled},
		Then{Continue: false, Err: nil},
	))

	t.Run("it ignores context.DeadlineExceeded", theory(
		When{Popped: false, Err: context.DeadlineExceeded},
		Then{Continue: false, Err: nil},
	))

	t.Run("it stops with error when the database fails", theory(
		When{Popped: false, Err: fakeDbError},
		Then{Continue: false, Err: fakeDbError},
	))
}

func TestTask_Inside_of_PopExpired(t *testing.T) {
	ctx := context.Background()

	deadline := try.To(
		rfctime.ParseRFC3339("2025-04-01T12:00:00+00:00"),
	).OrFatal(t).Time()

	experiment := types.Experiment{
		Id:        "exp-1",
		Name:      "churn-prediction",
		Tags:      types.NewTagSet(nil),
		CreatedAt: deadline.Add(-24 * time.Hour),
	}

	pickedRun := types.Run{
		RunBody: types.RunBody{
			Id:           "run-1",
			ExperimentId: "exp-1",
			Name:         "train-42",
			Status:       types.Running,
			Params:       map[string]string{"epochs": "20"},
			CreatedAt:    deadline.Add(-2 * time.Hour),
			UpdatedAt:    deadline.Add(-1 * time.Hour),
			DeadlineAt:   &deadline,
		},
		Tags: types.NewTagSet([]types.Tag{{Key: "trigger", Value: "nightly"}}),
	}

	type When struct {
		ExpGetErr error
		BeforeErr error
	}

	type Then struct {
		Err error
	}

	theory := func(when When, then Then) func(t *testing.T) {
		return func(t *testing.T) {
			run := kdbrunmock.NewRunInterface()
			run.Impl.PopExpired = func(
				ctx context.Context, now time.Time, callback func(types.Run) error,
			) (bool, error) {
				err := callback(pickedRun)
				if !errors.Is(err, then.Err) {
					t.Errorf("unexpected error: %+v", err)
				}
				if err != nil {
					return false, err
				}
				return true, nil
			}
			run.Impl.Get = func(ctx context.Context, ids []string) (map[string]types.Run, error) {
				return map[string]types.Run{pickedRun.Id: pickedRun}, nil
			}

			exp := kdbexpmock.NewExperimentInterface()
			exp.Impl.Get = func(ctx context.Context, ids []string) (map[string]types.Experiment, error) {
				if when.ExpGetErr != nil {
					return nil, when.ExpGetErr
				}
				return map[string]types.Experiment{experiment.Id: experiment}, nil
			}

			beforeFnHasBeenCalled := false
			testee := housekeeping.Task(run, exp, hook.Func[apiruns.Detail, struct{}]{
				BeforeFn: func(d apiruns.Detail) (struct{}, error) {
					beforeFnHasBeenCalled = true
					if want := bindruns.ComposeDetail(experiment, pickedRun); !d.Equal(want) {
						t.Errorf(
							"unexpected detail:\n===actual==\n%+v\n===expected===\n%+v",
							d, want,
						)
					}
					return struct{}{}, when.BeforeErr
				},
			})

			testee(ctx, housekeeping.Seed())

			if when.ExpGetErr == nil {
				if !beforeFnHasBeenCalled {
					t.Error("BeforeFn has not been called")
				}
			} else if beforeFnHasBeenCalled {
				t.Error("BeforeFn has been called")
			}
		}
	}

	beforeErr := errors.New("fake error (before)")
	expGetErr := errors.New("fake error (experiment)")

	t.Run("it fails the run when BeforeFn successes", theory(
		When{},
		Then{Err: nil},
	))

	t.Run("it stops when BeforeFn returns an error", theory(
		When{BeforeErr: beforeErr},
		Then{Err: beforeErr},
	))

	t.Run("it stops when the experiment database fails", theory(
		When{ExpGetErr: expGetErr},
		Then{Err: expGetErr},
	))
}
