package models

import (
	"github.com/modelyard/modelyard-api-types/artifacts"
	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	"github.com/modelyard/modelyard-api-types/models"
	bindtags "github.com/modelyard/modelyard/pkg/api-types-binding/tags"
	"github.com/modelyard/modelyard/pkg/domain"
	"github.com/modelyard/modelyard/pkg/utils"
)

func ComposeSummary(m domain.Model) models.Summary {
	return models.Summary{
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   rfctime.New(m.CreatedAt),
	}
}

func ComposeDetail(m domain.Model) models.Detail {
	return models.Detail{
		Summary:  ComposeSummary(m),
		Gate:     ComposeGatePolicy(m.Gate),
		Tags:     utils.Map(m.Tags.Slice(), bindtags.Compose),
		Versions: utils.Map(m.Versions, ComposeVersionSummary),
	}
}

// ComposeGatePolicy returns nil for a policy with no requirement,
// so that such models render without a "gate" field.
func ComposeGatePolicy(g domain.GatePolicy) *models.GatePolicy {
	if g.Metric == "" && g.Threshold == nil && !g.RequireImprovement {
		return nil
	}
	return &models.GatePolicy{
		Metric:             g.Metric,
		Threshold:          g.Threshold,
		RequireImprovement: g.RequireImprovement,
	}
}

func ComposeVersionSummary(mv domain.ModelVersion) models.VersionSummary {
	return models.VersionSummary{
		Model:     mv.ModelName,
		Version:   mv.Version,
		Status:    models.VersionStatus(mv.Status.String()),
		Stage:     models.Stage(mv.Stage.String()),
		UpdatedAt: rfctime.New(mv.UpdatedAt),
	}
}

func ComposeVersionDetail(mv domain.ModelVersion) models.VersionDetail {
	return models.VersionDetail{
		VersionSummary: ComposeVersionSummary(mv),
		RunId:          mv.RunId,
		Artifact: artifacts.Ref{
			Digest: mv.Artifact.Digest,
			Name:   mv.Artifact.Name,
			Size:   mv.Artifact.Size,
		},
		Evaluations: utils.Map(mv.Evaluations, ComposeGateResult),
		CreatedAt:   rfctime.New(mv.CreatedAt),
	}
}

func ComposeGateResult(gr domain.GateResult) models.GateResult {
	return models.GateResult{
		Gate:        gr.Gate.String(),
		Passed:      gr.Passed,
		Value:       gr.Value,
		Detail:      gr.Detail,
		EvaluatedAt: rfctime.New(gr.EvaluatedAt),
	}
}
