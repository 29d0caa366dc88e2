package models

import (
	"fmt"

	"github.com/modelyard/modelyard-api-types/artifacts"
	"github.com/modelyard/modelyard-api-types/internal/utils/cmp"
	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	"github.com/modelyard/modelyard-api-types/tags"
)

// Stage is where a model version stands in its lifecycle.
type Stage string

const (
	StageNone       Stage = "none"
	StageStaging    Stage = "staging"
	StageProduction Stage = "production"
	StageArchived   Stage = "archived"
)

func (s Stage) String() string {
	return string(s)
}

func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StageNone, StageStaging, StageProduction, StageArchived:
		return Stage(s), nil
	}
	return "", fmt.Errorf("unknown stage: %s", s)
}

// VersionStatus tells whether a version has passed its gates.
type VersionStatus string

const (
	StatusPending  VersionStatus = "pending"
	StatusReady    VersionStatus = "ready"
	StatusRejected VersionStatus = "rejected"
)

func (v VersionStatus) String() string {
	return string(v)
}

func ParseVersionStatus(s string) (VersionStatus, error) {
	switch VersionStatus(s) {
	case StatusPending, StatusReady, StatusRejected:
		return VersionStatus(s), nil
	}
	return "", fmt.Errorf("unknown version status: %s", s)
}

// Gate kinds.
const (
	GateLoading     string = "loading"
	GatePerformance string = "performance"
)

// GatePolicy decides whether a version may be promoted.
//
// The performance gate passes when the run's latest value for Metric
// reaches Threshold, or, with RequireImprovement, when it beats the
// value held by the current production version. Either suffices.
type GatePolicy struct {
	Metric             string   `json:"metric"`
	Threshold          *float64 `json:"threshold,omitempty"`
	RequireImprovement bool     `json:"requireImprovement,omitempty"`
}

func (g GatePolicy) Equal(o GatePolicy) bool {
	thresholdEq := (g.Threshold == nil && o.Threshold == nil) ||
		(g.Threshold != nil && o.Threshold != nil && *g.Threshold == *o.Threshold)

	return g.Metric == o.Metric &&
		thresholdEq &&
		g.RequireImprovement == o.RequireImprovement
}

// GateResult is the recorded verdict of one gate over one version.
type GateResult struct {
	Gate        string          `json:"gate"`
	Passed      bool            `json:"passed"`
	Value       *float64        `json:"value,omitempty"`
	Detail      string          `json:"detail,omitempty"`
	EvaluatedAt rfctime.RFC3339 `json:"evaluatedAt"`
}

func (g GateResult) Equal(o GateResult) bool {
	valueEq := (g.Value == nil && o.Value == nil) ||
		(g.Value != nil && o.Value != nil && *g.Value == *o.Value)

	return g.Gate == o.Gate &&
		g.Passed == o.Passed &&
		valueEq &&
		g.Detail == o.Detail &&
		g.EvaluatedAt.Equal(o.EvaluatedAt)
}

type Summary struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	CreatedAt   rfctime.RFC3339 `json:"createdAt"`
}

func (s Summary) Equal(o Summary) bool {
	return s.Name == o.Name &&
		s.Description == o.Description &&
		s.CreatedAt.Equal(o.CreatedAt)
}

type Detail struct {
	Summary
	Gate     *GatePolicy      `json:"gate,omitempty"`
	Tags     []tags.Tag       `json:"tags"`
	Versions []VersionSummary `json:"versions"`
}

func (d Detail) Equal(o Detail) bool {
	gateEq := (d.Gate == nil && o.Gate == nil) ||
		(d.Gate != nil && o.Gate != nil && d.Gate.Equal(*o.Gate))

	return d.Summary.Equal(o.Summary) &&
		gateEq &&
		cmp.SliceEqualUnordered(d.Tags, o.Tags) &&
		cmp.SliceEqualUnordered(d.Versions, o.Versions)
}

type VersionSummary struct {
	Model     string          `json:"model"`
	Version   int             `json:"version"`
	Status    VersionStatus   `json:"status"`
	Stage     Stage           `json:"stage"`
	UpdatedAt rfctime.RFC3339 `json:"updatedAt"`
}

func (v VersionSummary) Equal(o VersionSummary) bool {
	return v.Model == o.Model &&
		v.Version == o.Version &&
		v.Status == o.Status &&
		v.Stage == o.Stage &&
		v.UpdatedAt.Equal(o.UpdatedAt)
}

type VersionDetail struct {
	VersionSummary
	RunId       string          `json:"runId,omitempty"`
	Artifact    artifacts.Ref   `json:"artifact"`
	Evaluations []GateResult    `json:"evaluations"`
	CreatedAt   rfctime.RFC3339 `json:"createdAt"`
}

func (v VersionDetail) Equal(o VersionDetail) bool {
	return v.VersionSummary.Equal(o.VersionSummary) &&
		v.RunId == o.RunId &&
		v.Artifact.Equal(o.Artifact) &&
		cmp.SliceEqualUnordered(v.Evaluations, o.Evaluations) &&
		v.CreatedAt.Equal(o.CreatedAt)
}

// Spec is the request body to register a model name.
type Spec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Gate        *GatePolicy    `json:"gate,omitempty"`
	Tags        []tags.UserTag `json:"tags,omitempty"`
}

// RegisterSpec is the request body to register a version under a model.
//
// The artifact pointed by Digest must have been pushed beforehand;
// RunId ties the version to the run that produced it.
type RegisterSpec struct {
	RunId  string `json:"runId"`
	Digest string `json:"digest"`
}

// PromotionSpec is the request body to move a version to a stage.
type PromotionSpec struct {
	Stage Stage `json:"stage"`
}
