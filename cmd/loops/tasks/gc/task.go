package gc

import (
	"context"

	apiartifacts "github.com/modelyard/modelyard-api-types/artifacts"
	"github.com/modelyard/modelyard/cmd/loops/hook"
	"github.com/modelyard/modelyard/cmd/loops/recurring"
	bindartifacts "github.com/modelyard/modelyard/pkg/api-types-binding/artifacts"
	"github.com/modelyard/modelyard/pkg/domain"
	kdbartifact "github.com/modelyard/modelyard/pkg/domain/artifact/db"
	"github.com/modelyard/modelyard/pkg/storage"
)

// initial value for task
func Seed() any {
	return nil
}

// return:
//
// - task: remove blobs of artifacts no run and no model version refers to
func Task(
	iartifact kdbartifact.Interface,
	store storage.Store,
	hook hook.Hook[apiartifacts.Detail, struct{}],
) recurring.Task[any] {
	return func(ctx context.Context, value any) (any, bool, error) {
		pop, err := iartifact.PopOrphaned(ctx, func(a domain.Artifact) error {
			hookval := bindartifacts.ComposeDetail(a)
			if _, err := hook.Before(hookval); err != nil {
				return err
			}
			if err := store.Remove(ctx, a.Digest); err != nil {
				return err
			}
			hook.After(hookval)
			return nil
		})
		return value, pop, err
	}
}
