package gates_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelyard/modelyard/pkg/domain"
	"github.com/modelyard/modelyard/pkg/gates"
	"github.com/modelyard/modelyard/pkg/storage"
	"github.com/modelyard/modelyard/pkg/utils/archive"
	"github.com/modelyard/modelyard/pkg/utils/pointer"
	"github.com/modelyard/modelyard/pkg/utils/try"
)

// putBundle packs files as a tar.gz bundle and stores it.
func putBundle(t *testing.T, store storage.Store, files map[string]string) string {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	buf := new(bytes.Buffer)
	prog := archive.GoTarGz(ctx, dir, buf)
	<-prog.Done()
	if err := prog.Error(); err != nil {
		t.Fatal("failed to pack bundle:", err)
	}

	digest, _, err := store.Put(ctx, buf)
	if err != nil {
		t.Fatal("failed to store bundle:", err)
	}
	return digest
}

func TestLoading(t *testing.T) {
	ctx := context.Background()

	t.Run("a sound bundle passes", func(t *testing.T) {
		store := try.To(storage.NewLocal(t.TempDir())).OrFatal(t)
		digest := putBundle(t, store, map[string]string{
			"model.json": `{"kind": "linear", "features": ["x"], "intercept": 1, "weights": [2]}`,
		})

		got := gates.Loading(ctx, store, digest)

		if got.Gate != domain.GateLoading {
			t.Errorf("gate unmatch: (actual, expected) = (%s, %s)", got.Gate, domain.GateLoading)
		}
		if !got.Passed {
			t.Errorf("sound bundle should pass, but: %s", got.Detail)
		}
		if got.EvaluatedAt.IsZero() {
			t.Error("EvaluatedAt is not set")
		}
	})

	t.Run("a digest not in the store fails", func(t *testing.T) {
		store := try.To(storage.NewLocal(t.TempDir())).OrFatal(t)

		got := gates.Loading(ctx, store, "sha256:"+strings.Repeat("00", 32))

		if got.Passed {
			t.Error("missing bundle should fail")
		}
		if got.Detail == "" {
			t.Error("failed result should carry detail")
		}
	})

	t.Run("a blob which is not tar.gz fails", func(t *testing.T) {
		store := try.To(storage.NewLocal(t.TempDir())).OrFatal(t)
		digest, _, err := store.Put(ctx, strings.NewReader("plain text, no model here"))
		if err != nil {
			t.Fatal(err)
		}

		if got := gates.Loading(ctx, store, digest); got.Passed {
			t.Error("non-archive blob should fail")
		}
	})

	t.Run("a bundle without model.json fails", func(t *testing.T) {
		store := try.To(storage.NewLocal(t.TempDir())).OrFatal(t)
		digest := putBundle(t, store, map[string]string{
			"README.md": "weights sold separately",
		})

		if got := gates.Loading(ctx, store, digest); got.Passed {
			t.Error("bundle without manifest should fail")
		}
	})

	t.Run("a bundle with a broken manifest fails", func(t *testing.T) {
		store := try.To(storage.NewLocal(t.TempDir())).OrFatal(t)
		digest := putBundle(t, store, map[string]string{
			"model.json": `{"kind": "linear", "features": ["a", "b"], "weights": [1]}`,
		})

		if got := gates.Loading(ctx, store, digest); got.Passed {
			t.Error("broken manifest should fail")
		}
	})
}

func TestPerformance(t *testing.T) {
	metrics := []domain.MetricPoint{
		{Key: "accuracy", Value: 0.93},
		{Key: "loss", Value: 0.07},
	}

	type When struct {
		metrics     []domain.MetricPoint
		policy      domain.GatePolicy
		currentProd *float64
	}
	type Then struct {
		passed bool
		value  *float64
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			got := gates.Performance(when.metrics, when.policy, when.currentProd)

			if got.Gate != domain.GatePerformance {
				t.Errorf("gate unmatch: (actual, expected) = (%s, %s)", got.Gate, domain.GatePerformance)
			}
			if got.Passed != then.passed {
				t.Errorf("passed unmatch: (actual, expected) = (%t, %t); detail: %s", got.Passed, then.passed, got.Detail)
			}
			if (got.Value == nil) != (then.value == nil) {
				t.Errorf("value unmatch: (actual, expected) = (%v, %v)", got.Value, then.value)
			} else if got.Value != nil && *got.Value != *then.value {
				t.Errorf("value unmatch: (actual, expected) = (%f, %f)", *got.Value, *then.value)
			}
			if got.Detail == "" {
				t.Error("result should carry detail")
			}
		}
	}

	t.Run("value meeting threshold passes", theory(
		When{
			metrics: metrics,
			policy:  domain.GatePolicy{Metric: "accuracy", Threshold: pointer.Ref(0.9)},
		},
		Then{passed: true, value: pointer.Ref(0.93)},
	))
	t.Run("value below threshold fails", theory(
		When{
			metrics: metrics,
			policy:  domain.GatePolicy{Metric: "accuracy", Threshold: pointer.Ref(0.95)},
		},
		Then{passed: false, value: pointer.Ref(0.93)},
	))
	t.Run("beating production passes when improvement is enough", theory(
		When{
			metrics:     metrics,
			policy:      domain.GatePolicy{Metric: "accuracy", RequireImprovement: true},
			currentProd: pointer.Ref(0.9),
		},
		Then{passed: true, value: pointer.Ref(0.93)},
	))
	t.Run("not beating production fails the improvement requirement", theory(
		When{
			metrics:     metrics,
			policy:      domain.GatePolicy{Metric: "accuracy", RequireImprovement: true},
			currentProd: pointer.Ref(0.94)},
		Then{passed: false, value: pointer.Ref(0.93)},
	))
	t.Run("no production version makes the improvement requirement moot", theory(
		When{
			metrics: metrics,
			policy:  domain.GatePolicy{Metric: "accuracy", RequireImprovement: true},
		},
		Then{passed: true, value: pointer.Ref(0.93)},
	))
	t.Run("below threshold but beating production passes", theory(
		When{
			metrics: metrics,
			policy: domain.GatePolicy{
				Metric: "accuracy", Threshold: pointer.Ref(0.95), RequireImprovement: true,
			},
			currentProd: pointer.Ref(0.9),
		},
		Then{passed: true, value: pointer.Ref(0.93)},
	))
	t.Run("metric not recorded on the run fails", theory(
		When{
			metrics: metrics,
			policy:  domain.GatePolicy{Metric: "f1", Threshold: pointer.Ref(0.5)},
		},
		Then{passed: false, value: nil},
	))
	t.Run("no policy passes vacuously", theory(
		When{
			metrics: metrics,
			policy:  domain.GatePolicy{},
		},
		Then{passed: true, value: nil},
	))
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	metrics := []domain.MetricPoint{{Key: "accuracy", Value: 0.99}}
	policy := domain.GatePolicy{Metric: "accuracy", Threshold: pointer.Ref(0.9)}

	t.Run("when loading fails, performance is not evaluated", func(t *testing.T) {
		store := try.To(storage.NewLocal(t.TempDir())).OrFatal(t)

		got := gates.Evaluate(
			ctx, store, "sha256:"+strings.Repeat("00", 32), metrics, policy, nil,
		)

		if len(got) != 1 {
			t.Fatalf("result count unmatch: (actual, expected) = (%d, %d)", len(got), 1)
		}
		if got[0].Gate != domain.GateLoading || got[0].Passed {
			t.Errorf("unexpected result: %+v", got[0])
		}
		if domain.VersionStatusFromResults(got) != domain.Rejected {
			t.Error("version with failed loading should be rejected")
		}
	})

	t.Run("when loading passes, performance follows", func(t *testing.T) {
		store := try.To(storage.NewLocal(t.TempDir())).OrFatal(t)
		digest := putBundle(t, store, map[string]string{
			"model.json": `{"kind": "logistic", "features": ["x"], "weights": [1]}`,
		})

		got := gates.Evaluate(ctx, store, digest, metrics, policy, nil)

		if len(got) != 2 {
			t.Fatalf("result count unmatch: (actual, expected) = (%d, %d)", len(got), 2)
		}
		if got[0].Gate != domain.GateLoading || !got[0].Passed {
			t.Errorf("unexpected loading result: %+v", got[0])
		}
		if got[1].Gate != domain.GatePerformance || !got[1].Passed {
			t.Errorf("unexpected performance result: %+v", got[1])
		}
		if domain.VersionStatusFromResults(got) != domain.ReadyVersion {
			t.Error("version passing both gates should be ready")
		}
	})
}
