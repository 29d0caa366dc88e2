package repro

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	apiexperiments "github.com/modelyard/modelyard-api-types/experiments"
	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	apiruns "github.com/modelyard/modelyard-api-types/runs"
	apitags "github.com/modelyard/modelyard-api-types/tags"
	krst "github.com/modelyard/modelyard/cmd/yard/rest"
	"github.com/modelyard/modelyard/pkg/utils"
)

// tracker records pipeline stage executions as Runs.
//
// The experiment is resolved by name on the first StartRun, created
// when it does not exist yet.
type tracker struct {
	client         krst.YardClient
	experimentName string
	tags           []apitags.UserTag

	experimentId string
}

func newTracker(
	client krst.YardClient, experimentName string, tags []apitags.UserTag,
) *tracker {
	return &tracker{
		client:         client,
		experimentName: experimentName,
		tags:           tags,
	}
}

func (t *tracker) experiment(ctx context.Context) (string, error) {
	if t.experimentId != "" {
		return t.experimentId, nil
	}

	found, err := t.client.FindExperiments(
		ctx, krst.FindExperimentsQuery{Name: t.experimentName},
	)
	if err != nil {
		return "", err
	}
	for _, e := range found {
		if e.Name == t.experimentName {
			t.experimentId = e.ExperimentId
			return t.experimentId, nil
		}
	}

	created, err := t.client.CreateExperiment(ctx, apiexperiments.Spec{
		Name: t.experimentName,
		Tags: t.tags,
	})
	if err != nil {
		return "", err
	}
	t.experimentId = created.ExperimentId
	return t.experimentId, nil
}

func (t *tracker) StartRun(
	ctx context.Context, stage string, params map[string]string,
) (string, error) {
	experimentId, err := t.experiment(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve experiment %s: %w", t.experimentName, err)
	}

	run, err := t.client.CreateRun(ctx, apiruns.Spec{
		ExperimentId: experimentId,
		Name:         stage,
		Params:       params,
		Tags:         t.tags,
	})
	if err != nil {
		return "", err
	}
	return run.RunId, nil
}

func (t *tracker) PushArtifact(ctx context.Context, runId string, path string) error {
	prog := t.client.PushArtifact(ctx, runId, path, filepath.Base(path))
	<-prog.Done()
	if err := prog.Error(); err != nil {
		return err
	}
	if _, ok := prog.Result(); !ok {
		return fmt.Errorf("failed to push %s", path)
	}
	return nil
}

func (t *tracker) FinishRun(
	ctx context.Context, runId string, success bool, metrics map[string]float64,
) error {
	status := "finished"
	if !success {
		status = "failed"
	}

	recordedAt := rfctime.New(time.Now())
	keys := utils.KeysOf(metrics)
	sort.Strings(keys)
	points := make([]apiruns.MetricPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, apiruns.MetricPoint{
			Key:        k,
			Value:      metrics[k],
			RecordedAt: recordedAt,
		})
	}

	_, err := t.client.FinishRun(ctx, runId, apiruns.Outcome{
		Status:  status,
		Metrics: points,
	})
	return err
}
