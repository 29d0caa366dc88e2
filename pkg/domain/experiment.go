package domain

import (
	"time"

	"github.com/modelyard/modelyard/pkg/utils/cmp"
)

// Experiment is a named bucket grouping Runs.
type Experiment struct {
	Id string

	// unique, human-given name.
	Name string

	Description string

	Tags *TagSet

	CreatedAt time.Time
}

func (e *Experiment) Equal(other *Experiment) bool {
	if (e == nil) || (other == nil) {
		return (e == nil) && (other == nil)
	}
	return e.Id == other.Id &&
		e.Name == other.Name &&
		e.Description == other.Description &&
		e.Tags.Equal(other.Tags) &&
		e.CreatedAt.Equal(other.CreatedAt)
}

// parameter to create a new Experiment.
type ExperimentSpec struct {
	Name        string
	Description string
	Tags        []Tag
}

// parameter to query Experiments.
//
// When all dimension matches an experiment, this query matches the experiment.
type ExperimentFindQuery struct {
	// match if experiment's name is this Name.
	//
	// If it is empty, it means "match any".
	Name string

	// match if experiment has all of these tags.
	//
	// If it is nil or empty, it means "match any".
	Tag []Tag
}

func (efq ExperimentFindQuery) Equal(other ExperimentFindQuery) bool {
	return efq.Name == other.Name &&
		cmp.SliceContentEqWith(
			efq.Tag, other.Tag,
			func(a, b Tag) bool { return a.Equal(b) },
		)
}
