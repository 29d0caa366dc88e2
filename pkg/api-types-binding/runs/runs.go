package runs

import (
	"github.com/modelyard/modelyard-api-types/artifacts"
	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	"github.com/modelyard/modelyard-api-types/runs"
	bindexperiments "github.com/modelyard/modelyard/pkg/api-types-binding/experiments"
	bindtags "github.com/modelyard/modelyard/pkg/api-types-binding/tags"
	"github.com/modelyard/modelyard/pkg/domain"
	"github.com/modelyard/modelyard/pkg/utils"
)

func ComposeSummary(exp domain.Experiment, r domain.RunBody) runs.Summary {
	var endedAt *rfctime.RFC3339
	if e := r.EndedAt; e != nil {
		t := rfctime.New(*e)
		endedAt = &t
	}
	return runs.Summary{
		RunId:      r.Id,
		Experiment: bindexperiments.ComposeSummary(exp),
		Name:       r.Name,
		Status:     r.Status.String(),
		StartedAt:  rfctime.New(r.CreatedAt),
		UpdatedAt:  rfctime.New(r.UpdatedAt),
		EndedAt:    endedAt,
	}
}

func ComposeDetail(exp domain.Experiment, r domain.Run) runs.Detail {
	return runs.Detail{
		Summary: ComposeSummary(exp, r.RunBody),
		Params:  r.Params,
		Tags:    utils.Map(r.Tags.Slice(), bindtags.Compose),
		Metrics: utils.Map(r.Metrics, ComposeMetricPoint),
		Artifacts: utils.Map(
			r.Artifacts, func(a domain.ArtifactRef) artifacts.Ref {
				return artifacts.Ref{
					Digest: a.Digest,
					Name:   a.Name,
					Size:   a.Size,
				}
			},
		),
	}
}

func ComposeMetricPoint(mp domain.MetricPoint) runs.MetricPoint {
	return runs.MetricPoint{
		Key:        mp.Key,
		Value:      mp.Value,
		Step:       mp.Step,
		RecordedAt: rfctime.New(mp.RecordedAt),
	}
}
