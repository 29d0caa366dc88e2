package artifacts

import (
	"github.com/modelyard/modelyard-api-types/artifacts"
	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	"github.com/modelyard/modelyard/pkg/domain"
)

func ComposeRef(a domain.ArtifactRef) artifacts.Ref {
	return artifacts.Ref{
		Digest: a.Digest,
		Name:   a.Name,
		Size:   a.Size,
	}
}

func ComposeDetail(a domain.Artifact) artifacts.Detail {
	return artifacts.Detail{
		Ref: artifacts.Ref{
			Digest: a.Digest,
			Size:   a.Size,
		},
		CreatedAt: rfctime.New(a.CreatedAt),
	}
}
