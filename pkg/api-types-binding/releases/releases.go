package releases

import (
	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	"github.com/modelyard/modelyard-api-types/releases"
	"github.com/modelyard/modelyard/pkg/domain"
)

func ComposeSummary(r domain.Release) releases.Summary {
	return releases.Summary{
		ReleaseId:   r.Id,
		Environment: r.Environment,
		Model:       r.ModelName,
		Version:     r.Version,
		Slot:        releases.Slot(r.Slot.String()),
		Status:      releases.Status(r.Status.String()),
		UpdatedAt:   rfctime.New(r.UpdatedAt),
	}
}

func ComposeDetail(r domain.Release) releases.Detail {
	image := releases.Image{}
	// Image was validated when the release was planned.
	_ = image.Parse(r.Image)

	return releases.Detail{
		Summary:     ComposeSummary(r),
		Image:       image,
		ImageDigest: r.ImageDigest,
		CreatedAt:   rfctime.New(r.CreatedAt),
	}
}
