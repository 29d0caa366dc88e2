package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelyard/modelyard/pkg/utils/retry"
)

func TestBlocking(t *testing.T) {
	t.Run("it retries until f succeeds", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		called := 0
		value, err := retry.Blocking(ctx, retry.StaticBackoff(1*time.Millisecond), func() (int, error) {
			called += 1
			if called < 3 {
				return 0, retry.ErrRetry
			}
			return 42, nil
		})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if value != 42 {
			t.Errorf("unexpected value: %d", value)
		}
		if called != 3 {
			t.Errorf("f should be called 3 times, but %d", called)
		}
	})

	t.Run("it stops retrying when f fails with non-retry error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		expectedErr := errors.New("fatal error")
		called := 0
		_, err := retry.Blocking(ctx, retry.StaticBackoff(1*time.Millisecond), func() (int, error) {
			called += 1
			return 0, expectedErr
		})

		if !errors.Is(err, expectedErr) {
			t.Errorf("unexpected error: %v", err)
		}
		if called != 1 {
			t.Errorf("f should be called once, but %d", called)
		}
	})

	t.Run("it stops retrying when context is canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := 0
		_, err := retry.Blocking(ctx, retry.StaticBackoff(10*time.Millisecond), func() (int, error) {
			called += 1
			return 0, retry.ErrRetry
		})

		if !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
		if called != 0 {
			t.Errorf("f should not be called, but %d times", called)
		}
	})
}

func TestGo(t *testing.T) {
	t.Run("it resolves the promise with the result of f", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		promise := retry.Go(ctx, retry.StaticBackoff(1*time.Millisecond), func() (string, error) {
			return "done", nil
		})

		select {
		case result := <-promise:
			if result.Err != nil {
				t.Fatalf("unexpected error: %v", result.Err)
			}
			if result.Value != "done" {
				t.Errorf("unexpected value: %s", result.Value)
			}
		case <-time.After(time.Second):
			t.Fatal("promise is not resolved")
		}
	})

	t.Run("Ok and Failed create resolved promises", func(t *testing.T) {
		ok := retry.Ok(42)
		if result := <-ok; result.Err != nil || result.Value != 42 {
			t.Errorf("unexpected result: %+v", result)
		}

		expectedErr := errors.New("fake error")
		failed := retry.Failed[int](expectedErr)
		if result := <-failed; !errors.Is(result.Err, expectedErr) {
			t.Errorf("unexpected result: %+v", result)
		}
	})
}
