package experiments

import (
	"github.com/modelyard/modelyard-api-types/experiments"
	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	bindtags "github.com/modelyard/modelyard/pkg/api-types-binding/tags"
	"github.com/modelyard/modelyard/pkg/domain"
	"github.com/modelyard/modelyard/pkg/utils"
)

func ComposeSummary(e domain.Experiment) experiments.Summary {
	return experiments.Summary{
		ExperimentId: e.Id,
		Name:         e.Name,
		Description:  e.Description,
		CreatedAt:    rfctime.New(e.CreatedAt),
	}
}

func ComposeDetail(e domain.Experiment) experiments.Detail {
	return experiments.Detail{
		Summary: ComposeSummary(e),
		Tags:    utils.Map(e.Tags.Slice(), bindtags.Compose),
	}
}
