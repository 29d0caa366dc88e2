// Package gates evaluates promotion gates over registered model versions.
//
// The gatekeeper loop pops pending versions and runs Evaluate on them.
// Promotion to production re-checks the performance side in the database
// transaction, so the results recorded here are evidence, not authority.
package gates

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/modelyard/modelyard/pkg/domain"
	"github.com/modelyard/modelyard/pkg/mlmodel"
	"github.com/modelyard/modelyard/pkg/storage"
	"github.com/modelyard/modelyard/pkg/utils/archive"
)

// Loading opens the model bundle behind digest, unpacks it, loads the
// model and asks it for one prediction.
//
// Any failure on the way comes back as a failed result with the cause
// in Detail. The outcome is the result; it never errors out.
func Loading(ctx context.Context, store storage.Store, digest string) domain.GateResult {
	result := domain.GateResult{
		Gate:        domain.GateLoading,
		EvaluatedAt: time.Now(),
	}

	probed, err := loadAndProbe(ctx, store, digest)
	if err != nil {
		result.Passed = false
		result.Detail = err.Error()
		return result
	}

	result.Passed = true
	result.Detail = fmt.Sprintf("bundle loads and answers (probe output %v)", probed)
	return result
}

func loadAndProbe(ctx context.Context, store storage.Store, digest string) (float64, error) {
	r, _, err := store.Open(ctx, digest)
	if err != nil {
		return 0, fmt.Errorf("open artifact: %w", err)
	}
	defer r.Close()

	dir, err := os.MkdirTemp("", "yard-gate-*")
	if err != nil {
		return 0, err
	}
	defer os.RemoveAll(dir)

	prog := archive.GoUntarGz(ctx, r, dir)
	<-prog.Done()
	if err := prog.Error(); err != nil {
		return 0, fmt.Errorf("unpack bundle: %w", err)
	}

	m, err := mlmodel.LoadBundle(dir)
	if err != nil {
		return 0, fmt.Errorf("load model: %w", err)
	}

	probed, err := mlmodel.Probe(m)
	if err != nil {
		return 0, fmt.Errorf("probe prediction: %w", err)
	}
	return probed, nil
}

// Performance scores the version's run metric against the policy.
//
// # Args
//
// - metrics []domain.MetricPoint: latest observations of the run the
// version was registered from.
//
// - policy domain.GatePolicy: the model's gate policy.
//
// - currentProd *float64: the value the production version scored,
// or nil when there is no production version.
//
// # Returns
//
// - domain.GateResult: the outcome, with the metric value it looked at.
func Performance(metrics []domain.MetricPoint, policy domain.GatePolicy, currentProd *float64) domain.GateResult {
	var value *float64
	for _, mp := range metrics {
		if mp.Key == policy.Metric {
			v := mp.Value
			value = &v
			break
		}
	}

	passed, detail := policy.Admits(value, currentProd)
	return domain.GateResult{
		Gate:        domain.GatePerformance,
		Passed:      passed,
		Value:       value,
		Detail:      detail,
		EvaluatedAt: time.Now(),
	}
}

// Evaluate runs the loading gate, then the performance gate.
//
// When loading fails, the performance gate is not evaluated and the
// returned slice has the loading result alone.
func Evaluate(
	ctx context.Context,
	store storage.Store,
	digest string,
	metrics []domain.MetricPoint,
	policy domain.GatePolicy,
	currentProd *float64,
) []domain.GateResult {
	loading := Loading(ctx, store, digest)
	if !loading.Passed {
		return []domain.GateResult{loading}
	}
	return []domain.GateResult{loading, Performance(metrics, policy, currentProd)}
}
