package runs

import (
	"github.com/modelyard/modelyard-api-types/artifacts"
	"github.com/modelyard/modelyard-api-types/experiments"
	"github.com/modelyard/modelyard-api-types/internal/utils/cmp"
	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	"github.com/modelyard/modelyard-api-types/tags"
)

type Summary struct {
	RunId      string              `json:"runId"`
	Experiment experiments.Summary `json:"experiment"`
	Name       string              `json:"name,omitempty"`
	Status     string              `json:"status"`
	StartedAt  rfctime.RFC3339     `json:"startedAt"`
	UpdatedAt  rfctime.RFC3339     `json:"updatedAt"`
	EndedAt    *rfctime.RFC3339    `json:"endedAt,omitempty"`
}

func (s Summary) Equal(o Summary) bool {
	endedEq := (s.EndedAt == nil && o.EndedAt == nil) ||
		(s.EndedAt != nil && o.EndedAt != nil && s.EndedAt.Equal(*o.EndedAt))

	return s.RunId == o.RunId &&
		s.Experiment.Equal(o.Experiment) &&
		s.Name == o.Name &&
		s.Status == o.Status &&
		s.StartedAt.Equal(o.StartedAt) &&
		s.UpdatedAt.Equal(o.UpdatedAt) &&
		endedEq
}

// MetricPoint is one observation of a named metric.
//
// Step orders observations of the same key within a run.
type MetricPoint struct {
	Key        string          `json:"key"`
	Value      float64         `json:"value"`
	Step       int             `json:"step"`
	RecordedAt rfctime.RFC3339 `json:"recordedAt"`
}

func (m MetricPoint) Equal(o MetricPoint) bool {
	return m.Key == o.Key &&
		m.Value == o.Value &&
		m.Step == o.Step &&
		m.RecordedAt.Equal(o.RecordedAt)
}

type Detail struct {
	Summary
	Params map[string]string `json:"params"`
	Tags   []tags.Tag        `json:"tags"`

	// Metrics holds the latest point per key.
	Metrics []MetricPoint `json:"metrics"`

	Artifacts []artifacts.Ref `json:"artifacts"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Summary.Equal(o.Summary) &&
		cmp.MapEq(d.Params, o.Params) &&
		cmp.SliceEqualUnordered(d.Tags, o.Tags) &&
		cmp.SliceEqualUnordered(d.Metrics, o.Metrics) &&
		cmp.SliceEqualUnordered(d.Artifacts, o.Artifacts)
}

// Spec is the request body to start a run.
type Spec struct {
	ExperimentId string            `json:"experimentId"`
	Name         string            `json:"name,omitempty"`
	Params       map[string]string `json:"params,omitempty"`
	Tags         []tags.UserTag    `json:"tags,omitempty"`

	// TimeoutSeconds bounds how long the run may stay running
	// before housekeeping fails it. Zero applies the server default.
	TimeoutSeconds int `json:"timeoutSeconds,omitempty"`
}

// Outcome is the request body to finish a run.
type Outcome struct {
	Status string `json:"status"`

	// Metrics recorded together with finishing, if any.
	Metrics []MetricPoint `json:"metrics,omitempty"`
}
