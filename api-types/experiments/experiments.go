package experiments

import (
	"github.com/modelyard/modelyard-api-types/internal/utils/cmp"
	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	"github.com/modelyard/modelyard-api-types/tags"
)

type Summary struct {
	ExperimentId string          `json:"experimentId"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	CreatedAt    rfctime.RFC3339 `json:"createdAt"`
}

func (s Summary) Equal(o Summary) bool {
	return s.ExperimentId == o.ExperimentId &&
		s.Name == o.Name &&
		s.Description == o.Description &&
		s.CreatedAt.Equal(o.CreatedAt)
}

type Detail struct {
	Summary
	Tags []tags.Tag `json:"tags"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Summary.Equal(o.Summary) &&
		cmp.SliceEqualUnordered(d.Tags, o.Tags)
}

// Spec is the request body to create an experiment.
type Spec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Tags        []tags.UserTag `json:"tags,omitempty"`
}
