package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/modelyard/modelyard/pkg/utils/cmp"
)

type RunStatus string

const (
	// This Run is created but its process has not reported in yet.
	Scheduled RunStatus = "scheduled"

	// This Run's process is working and sending metrics.
	Running RunStatus = "running"

	// This Run has been done, successfuly.
	Finished RunStatus = "finished"

	// This Run stopped with error.
	Failed RunStatus = "failed"

	// This Run was stopped from outside before it could finish.
	Killed RunStatus = "killed"
)

func (rs RunStatus) String() string {
	return string(rs)
}

func AsRunStatus(status string) (RunStatus, error) {
	switch status {
	case string(Scheduled):
		return Scheduled, nil
	case string(Running):
		return Running, nil
	case string(Finished):
		return Finished, nil
	case string(Failed):
		return Failed, nil
	case string(Killed):
		return Killed, nil
	default:
		return "", fmt.Errorf("'%s' is not RunStatus", status)
	}
}

// true if no more status change is allowed from this status.
func (rs RunStatus) IsTerminal() bool {
	switch rs {
	case Finished, Failed, Killed:
		return true
	default:
		return false
	}
}

// true if a run in this status may move to next.
//
// Allowed moves are scheduled -> running, running -> finished or failed,
// and scheduled or running -> killed.
func (rs RunStatus) CanTransitTo(next RunStatus) bool {
	switch rs {
	case Scheduled:
		return next == Running || next == Killed
	case Running:
		return next == Finished || next == Failed || next == Killed
	default:
		return false
	}
}

// single observation of a metric.
type MetricPoint struct {
	Key   string
	Value float64

	// ordinal of the observation within its run. Zero-based.
	Step int

	RecordedAt time.Time
}

func (mp MetricPoint) Equal(other MetricPoint) bool {
	return mp.Key == other.Key &&
		mp.Value == other.Value &&
		mp.Step == other.Step &&
		mp.RecordedAt.Equal(other.RecordedAt)
}

// file generated by a run, as the run sees it.
type ArtifactRef struct {
	// name of the file within the run. Unique per run.
	Name string

	// content digest, in "sha256:<64 hex>" format.
	Digest string

	// size in bytes.
	Size int64
}

func (ar ArtifactRef) Equal(other ArtifactRef) bool {
	return ar == other
}

// Core part of run.
type RunBody struct {
	Id string

	// id of the experiment the run belongs to.
	ExperimentId string

	Name string

	Status RunStatus

	// hyperparameters, fixed at creation.
	Params map[string]string

	CreatedAt time.Time

	// last update timestamp. Metric appends move it forward.
	UpdatedAt time.Time

	// when housekeeping fails the run unless it has ended.
	//
	// nil means the run never expires.
	DeadlineAt *time.Time

	// when the run reached a terminal status, if it has.
	EndedAt *time.Time
}

func (rb *RunBody) Equal(other *RunBody) bool {
	if (rb == nil) || (other == nil) {
		return (rb == nil) && (other == nil)
	}
	return rb.Id == other.Id &&
		rb.ExperimentId == other.ExperimentId &&
		rb.Name == other.Name &&
		rb.Status == other.Status &&
		cmp.MapEq(rb.Params, other.Params) &&
		rb.CreatedAt.Equal(other.CreatedAt) &&
		rb.UpdatedAt.Equal(other.UpdatedAt) &&
		pointerTimeEqual(rb.DeadlineAt, other.DeadlineAt) &&
		pointerTimeEqual(rb.EndedAt, other.EndedAt)
}

type Run struct {
	RunBody

	Tags *TagSet

	// latest observation per metric key, sorted by key.
	Metrics []MetricPoint

	// files attached to the run, sorted by name.
	Artifacts []ArtifactRef
}

func (r *Run) Equal(other *Run) bool {
	if (r == nil) || (other == nil) {
		return (r == nil) && (other == nil)
	}
	return r.RunBody.Equal(&other.RunBody) &&
		r.Tags.Equal(other.Tags) &&
		cmp.SliceContentEqWith(
			r.Metrics, other.Metrics,
			func(a, b MetricPoint) bool { return a.Equal(b) },
		) &&
		cmp.SliceContentEq(r.Artifacts, other.Artifacts)
}

// parameter to create a new Run.
type RunSpec struct {
	ExperimentId string
	Name         string
	Params       map[string]string
	Tags         []Tag

	// how long the run may stay non-terminal before housekeeping kills it.
	//
	// Zero means no deadline.
	Timeout time.Duration
}

// final report of a run.
type RunOutcome struct {
	// Finished or Failed.
	Status RunStatus

	// metrics observed at the very end, recorded before the status change.
	Metrics []MetricPoint
}

// parameter to query runs.
//
// When all dimension matches a run, this query matches the run.
type RunFindQuery struct {
	// match if run belongs to one of these experiments.
	//
	// If it is nil or empty, it means "match any".
	ExperimentId []string

	// match if run's status is one of these statuses.
	//
	// If it is nil or empty, it means "match any".
	Status []RunStatus

	// match if run has all of these tags.
	Tag []Tag

	// match if run's updated time is equal or later than this UpdatedSince.
	UpdatedSince *time.Time

	// match if run's updated time is earlier than this UpdatedUntil.
	UpdatedUntil *time.Time
}

func (rfq RunFindQuery) Equal(other RunFindQuery) bool {
	return cmp.SliceContentEq(rfq.ExperimentId, other.ExperimentId) &&
		cmp.SliceContentEq(rfq.Status, other.Status) &&
		cmp.SliceContentEqWith(
			rfq.Tag, other.Tag,
			func(a, b Tag) bool { return a.Equal(b) },
		) &&
		pointerTimeEqual(rfq.UpdatedSince, other.UpdatedSince) &&
		pointerTimeEqual(rfq.UpdatedUntil, other.UpdatedUntil)
}

func pointerTimeEqual(a, b *time.Time) bool {
	if (a == nil) || (b == nil) {
		return (a == nil) && (b == nil)
	}
	return a.Equal(*b)
}

var (
	// metric appends and artifact attaches require running status.
	ErrRunNotRunning = errors.New("the run is not running")

	ErrInvalidRunStateChanging = errors.New("cannot change run state")
)

func NewErrInvalidRunStateChanging(from, to RunStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidRunStateChanging, from, to)
}
