package gc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	apiartifacts "github.com/modelyard/modelyard-api-types/artifacts"
	"github.com/modelyard/modelyard/cmd/loops/hook"
	"github.com/modelyard/modelyard/pkg/domain"
	dbmock "github.com/modelyard/modelyard/pkg/domain/artifact/db/mock"
	"github.com/modelyard/modelyard/pkg/storage"
	"github.com/modelyard/modelyard/pkg/utils/try"
)

func TestGarbageCollectionTask(t *testing.T) {
	ctx := context.Background()

	t.Run("if a record is poped, it executes", func(t *testing.T) {
		store := try.To(storage.NewLocal(t.TempDir())).OrFatal(t)

		mockDbInterface := dbmock.NewArtifactInterface()
		mockDbInterface.Impl.PopOrphaned = func(ctx context.Context, callback func(domain.Artifact) error) (bool, error) {
			// does not implement callback function because the results of the pop method
			// according to the behavior of the callback function have been verified
			return true, nil
		}

		testee := Task(mockDbInterface, store, hook.None[apiartifacts.Detail]{})
		_, pop, err := testee(
			ctx,
			Seed(), // first return value is not used in Garbage Collection.
		)

		if pop != true || err != nil {
			t.Errorf("(pop,err) = (%v, %v), want (%v, %v)", pop, err, true, nil)
		}
	})

	t.Run("if an error occurs while a record is popped, it makes error", func(t *testing.T) {
		store := try.To(storage.NewLocal(t.TempDir())).OrFatal(t)

		mockDbInterface := dbmock.NewArtifactInterface()
		expectedError := fmt.Errorf("expected error")
		mockDbInterface.Impl.PopOrphaned = func(ctx context.Context, f func(domain.Artifact) error) (bool, error) {
			return false, expectedError
		}

		testee := Task(mockDbInterface, store, hook.None[apiartifacts.Detail]{})
		_, pop, err := testee(ctx, Seed())

		if pop || !errors.Is(err, expectedError) {
			t.Errorf("(pop,err) = (%v, %v), want (%v, %v)", pop, err, false, expectedError)
		}
	})

	t.Run("if nothing is poped, it executes", func(t *testing.T) {
		store := try.To(storage.NewLocal(t.TempDir())).OrFatal(t)

		mockDbInterface := dbmock.NewArtifactInterface()
		mockDbInterface.Impl.PopOrphaned = func(ctx context.Context, f func(domain.Artifact) error) (bool, error) {
			return false, nil
		}

		testee := Task(mockDbInterface, store, hook.None[apiartifacts.Detail]{})
		_, pop, err := testee(ctx, Seed())

		if pop || err != nil {
			t.Errorf("(pop,err) = (%v, %v), want (%v, %v)", pop, err, false, nil)
		}
	})

	t.Run("it removes the blob of a poped artifact", func(t *testing.T) {
		store := try.To(storage.NewLocal(t.TempDir())).OrFatal(t)
		digest, size, err := store.Put(ctx, strings.NewReader("orphaned bytes"))
		if err != nil {
			t.Fatal(err)
		}

		orphan := domain.Artifact{
			Digest: digest, Size: size, CreatedAt: time.Now().Add(-24 * time.Hour),
		}

		mockDbInterface := dbmock.NewArtifactInterface()
		mockDbInterface.Impl.PopOrphaned = func(ctx context.Context, f func(domain.Artifact) error) (bool, error) {
			if err := f(orphan); err != nil {
				return false, err
			}
			return true, nil
		}

		afterHasBeenCalled := false
		testee := Task(mockDbInterface, store, hook.Func[apiartifacts.Detail, struct{}]{
			AfterFn: func(d apiartifacts.Detail) error {
				afterHasBeenCalled = true
				if d.Digest != digest {
					t.Errorf("unmatch digest: (actual, expected) = (%s, %s)", d.Digest, digest)
				}
				return nil
			},
		})
		_, pop, err := testee(ctx, Seed())

		if !pop || err != nil {
			t.Errorf("(pop,err) = (%v, %v), want (%v, %v)", pop, err, true, nil)
		}
		if !afterHasBeenCalled {
			t.Error("AfterFn has not been called")
		}
		if ok := try.To(store.Exists(ctx, digest)).OrFatal(t); ok {
			t.Error("the blob is still there")
		}
	})

	t.Run("if the before hook vetoes, the blob is kept", func(t *testing.T) {
		store := try.To(storage.NewLocal(t.TempDir())).OrFatal(t)
		digest, size, err := store.Put(ctx, strings.NewReader("orphaned bytes"))
		if err != nil {
			t.Fatal(err)
		}

		expectedError := fmt.Errorf("expected error")
		mockDbInterface := dbmock.NewArtifactInterface()
		mockDbInterface.Impl.PopOrphaned = func(ctx context.Context, f func(domain.Artifact) error) (bool, error) {
			err := f(domain.Artifact{Digest: digest, Size: size})
			if !errors.Is(err, expectedError) {
				t.Errorf("err = %v, want %v", err, expectedError)
			}
			return false, err
		}

		testee := Task(mockDbInterface, store, hook.Func[apiartifacts.Detail, struct{}]{
			BeforeFn: func(d apiartifacts.Detail) (struct{}, error) {
				return struct{}{}, expectedError
			},
		})
		_, pop, err := testee(ctx, Seed())

		if pop || !errors.Is(err, expectedError) {
			t.Errorf("(pop,err) = (%v, %v), want (%v, %v)", pop, err, false, expectedError)
		}
		if ok := try.To(store.Exists(ctx, digest)).OrFatal(t); !ok {
			t.Error("the blob has been removed")
		}
	})

	t.Run("if an error occurs while removing the blob, it returns the error", func(t *testing.T) {
		store := try.To(storage.NewLocal(t.TempDir())).OrFatal(t)

		mockDbInterface := dbmock.NewArtifactInterface()
		mockDbInterface.Impl.PopOrphaned = func(ctx context.Context, f func(domain.Artifact) error) (bool, error) {
			// a digest the store refuses makes Remove fail
			err := f(domain.Artifact{Digest: "broken"})
			if err == nil {
				t.Error("err = nil, want an error")
			}
			return false, err
		}

		testee := Task(mockDbInterface, store, hook.None[apiartifacts.Detail]{})
		_, pop, err := testee(ctx, Seed())

		if pop || err == nil {
			t.Errorf("(pop,err) = (%v, %v), want pop = false and an error", pop, err)
		}
	})
}
