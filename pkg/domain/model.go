package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/modelyard/modelyard/pkg/utils"
	"github.com/modelyard/modelyard/pkg/utils/cmp"
)

// lifecycle stage of a ModelVersion.
type Stage string

const (
	// This version is registered but deployed nowhere.
	StageNone Stage = "none"

	// This version is under trial.
	StageStaging Stage = "staging"

	// This version is the one to serve. At most one per model.
	StageProduction Stage = "production"

	// This version is out of service.
	StageArchived Stage = "archived"
)

func (s Stage) String() string {
	return string(s)
}

func AsStage(stage string) (Stage, error) {
	switch stage {
	case string(StageNone):
		return StageNone, nil
	case string(StageStaging):
		return StageStaging, nil
	case string(StageProduction):
		return StageProduction, nil
	case string(StageArchived):
		return StageArchived, nil
	default:
		return "", fmt.Errorf("'%s' is not Stage", stage)
	}
}

// true if a version in this stage may move to next.
func (s Stage) CanTransitTo(next Stage) bool {
	switch s {
	case StageNone:
		return next == StageStaging || next == StageProduction
	case StageStaging:
		return next == StageProduction || next == StageArchived
	case StageProduction:
		return next == StageArchived
	default:
		return false
	}
}

// gate evaluation status of a ModelVersion.
type VersionStatus string

const (
	// This version waits for the gatekeeper.
	Pending VersionStatus = "pending"

	// This version passed its gates and may be promoted.
	ReadyVersion VersionStatus = "ready"

	// This version failed a gate.
	Rejected VersionStatus = "rejected"
)

func (vs VersionStatus) String() string {
	return string(vs)
}

func AsVersionStatus(status string) (VersionStatus, error) {
	switch status {
	case string(Pending):
		return Pending, nil
	case string(ReadyVersion):
		return ReadyVersion, nil
	case string(Rejected):
		return Rejected, nil
	default:
		return "", fmt.Errorf("'%s' is not VersionStatus", status)
	}
}

// kind of promotion gate.
type GateKind string

const (
	// the gate which loads the model bundle and asks it for a prediction.
	GateLoading GateKind = "loading"

	// the gate which compares the run's metric against the policy.
	GatePerformance GateKind = "performance"
)

func (gk GateKind) String() string {
	return string(gk)
}

func AsGateKind(kind string) (GateKind, error) {
	switch kind {
	case string(GateLoading):
		return GateLoading, nil
	case string(GatePerformance):
		return GatePerformance, nil
	default:
		return "", fmt.Errorf("'%s' is not GateKind", kind)
	}
}

// GatePolicy tells which metric qualifies versions of a model for
// production, and how.
type GatePolicy struct {
	// metric key the gate looks at. Empty means no performance requirement.
	Metric string

	// least metric value to pass. nil means no fixed threshold.
	Threshold *float64

	// when true, beating the current production version's value also passes.
	RequireImprovement bool
}

func (g GatePolicy) Equal(other GatePolicy) bool {
	if g.Metric != other.Metric || g.RequireImprovement != other.RequireImprovement {
		return false
	}
	if (g.Threshold == nil) || (other.Threshold == nil) {
		return (g.Threshold == nil) && (other.Threshold == nil)
	}
	return *g.Threshold == *other.Threshold
}

// Admits decides whether a version scoring value may take production
// while incumbent is the value the current production version scored.
//
// The version is admitted when value meets Threshold, or when
// RequireImprovement is set and value beats incumbent.
// With no production version yet, the improvement requirement is moot.
// It returns the decision and a human-readable detail.
func (g GatePolicy) Admits(value *float64, incumbent *float64) (bool, string) {
	if g.Metric == "" || (g.Threshold == nil && !g.RequireImprovement) {
		return true, "no performance requirement is configured"
	}
	if value == nil {
		return false, fmt.Sprintf("metric %s is not recorded on the run", g.Metric)
	}

	if g.Threshold != nil && *value >= *g.Threshold {
		return true, fmt.Sprintf(
			"%s = %v meets threshold %v", g.Metric, *value, *g.Threshold,
		)
	}

	if g.RequireImprovement {
		if incumbent == nil {
			return true, fmt.Sprintf(
				"%s = %v and there is no production version to beat",
				g.Metric, *value,
			)
		}
		if *value > *incumbent {
			return true, fmt.Sprintf(
				"%s = %v outperforms production (%v)", g.Metric, *value, *incumbent,
			)
		}
	}

	detail := fmt.Sprintf("%s = %v", g.Metric, *value)
	if g.Threshold != nil {
		detail += fmt.Sprintf(", below threshold %v", *g.Threshold)
	}
	if g.RequireImprovement && incumbent != nil {
		detail += fmt.Sprintf(", not above production (%v)", *incumbent)
	}
	return false, detail
}

// outcome of one gate evaluation.
type GateResult struct {
	Gate GateKind

	Passed bool

	// metric value the gate looked at, if any.
	Value *float64

	// human-readable explanation of the outcome.
	Detail string

	EvaluatedAt time.Time
}

func (gr GateResult) Equal(other GateResult) bool {
	if gr.Gate != other.Gate ||
		gr.Passed != other.Passed ||
		gr.Detail != other.Detail ||
		!gr.EvaluatedAt.Equal(other.EvaluatedAt) {
		return false
	}
	if (gr.Value == nil) || (other.Value == nil) {
		return (gr.Value == nil) && (other.Value == nil)
	}
	return *gr.Value == *other.Value
}

// single registered version of a Model.
type ModelVersion struct {
	ModelName string

	// dense sequence per model, starting at 1.
	Version int

	// id of the run the version was registered from.
	RunId string

	// the model bundle.
	Artifact ArtifactRef

	Status VersionStatus

	Stage Stage

	// gate outcomes recorded by the gatekeeper, in evaluation order.
	Evaluations []GateResult

	CreatedAt time.Time

	UpdatedAt time.Time
}

func (mv *ModelVersion) Equal(other *ModelVersion) bool {
	if (mv == nil) || (other == nil) {
		return (mv == nil) && (other == nil)
	}
	return mv.ModelName == other.ModelName &&
		mv.Version == other.Version &&
		mv.RunId == other.RunId &&
		mv.Artifact.Equal(other.Artifact) &&
		mv.Status == other.Status &&
		mv.Stage == other.Stage &&
		cmp.SliceEqWith(
			mv.Evaluations, other.Evaluations,
			func(a, b GateResult) bool { return a.Equal(b) },
		) &&
		mv.CreatedAt.Equal(other.CreatedAt) &&
		mv.UpdatedAt.Equal(other.UpdatedAt)
}

// PerformanceValue returns the metric value the performance gate
// recorded for this version, or nil when it has not been evaluated.
func (mv *ModelVersion) PerformanceValue() *float64 {
	if mv == nil {
		return nil
	}
	for i := len(mv.Evaluations) - 1; 0 <= i; i-- {
		if mv.Evaluations[i].Gate == GatePerformance {
			return mv.Evaluations[i].Value
		}
	}
	return nil
}

// Model is a named line of versions sharing a GatePolicy.
type Model struct {
	Name string

	Description string

	Gate GatePolicy

	Tags *TagSet

	CreatedAt time.Time

	// versions of the model, newest first.
	Versions []ModelVersion
}

func (m *Model) Equal(other *Model) bool {
	if (m == nil) || (other == nil) {
		return (m == nil) && (other == nil)
	}
	return m.Name == other.Name &&
		m.Description == other.Description &&
		m.Gate.Equal(other.Gate) &&
		m.Tags.Equal(other.Tags) &&
		m.CreatedAt.Equal(other.CreatedAt) &&
		cmp.SliceEqWith(
			m.Versions, other.Versions,
			func(a, b ModelVersion) bool { return a.Equal(&b) },
		)
}

// parameter to register a Model.
type ModelSpec struct {
	Name        string
	Description string
	Gate        GatePolicy
	Tags        []Tag
}

// parameter to query models.
type ModelFindQuery struct {
	// match if model's name is this Name.
	//
	// If it is empty, it means "match any".
	Name string

	// match if model has all of these tags.
	Tag []Tag

	// match if model has a version in one of these stages.
	Stage []Stage
}

func (mfq ModelFindQuery) Equal(other ModelFindQuery) bool {
	return mfq.Name == other.Name &&
		cmp.SliceContentEqWith(
			mfq.Tag, other.Tag,
			func(a, b Tag) bool { return a.Equal(b) },
		) &&
		cmp.SliceContentEq(mfq.Stage, other.Stage)
}

var (
	// the version is not allowed to take the requested stage.
	ErrInvalidStageChanging = errors.New("cannot change model version stage")

	// the version has not passed its gates.
	ErrVersionNotReady = errors.New("model version is not ready")

	// the performance gate said no at promotion time.
	ErrPromotionBlocked = errors.New("promotion blocked")

	// versions are registered from finished runs only.
	ErrRunNotFinished = errors.New("the run is not finished")
)

func NewErrInvalidStageChanging(from, to Stage) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidStageChanging, from, to)
}

func NewErrPromotionBlocked(detail string) error {
	return fmt.Errorf("%w: %s", ErrPromotionBlocked, detail)
}

// VersionStatusFromResults derives a version's status from its gate
// outcomes. All gates passed means ready.
func VersionStatusFromResults(results []GateResult) VersionStatus {
	if len(results) == 0 {
		return Rejected
	}
	if _, found := utils.First(results, func(r GateResult) bool { return !r.Passed }); found {
		return Rejected
	}
	return ReadyVersion
}
