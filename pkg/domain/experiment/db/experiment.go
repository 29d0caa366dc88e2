package db

import (
	"context"

	"github.com/modelyard/modelyard/pkg/domain"
)

type Interface interface {
	// create a new experiment.
	//
	// Args
	//
	// - context.Context
	//
	// - ExperimentSpec: name, description and tags of the new experiment.
	//
	// Returns
	//
	// - Experiment: the created experiment, with its id and system tags.
	//
	// - error: ErrAlreadyExists when the name is taken.
	New(ctx context.Context, spec domain.ExperimentSpec) (domain.Experiment, error)

	// Retreive Experiments.
	//
	// Args
	//
	// - context.Context
	//
	// - []string: experiment ids
	//
	// Returns
	//
	// - map[string]Experiment: mapping experiment id->Experiment.
	// Unknown ids are just omitted.
	//
	// - error
	Get(ctx context.Context, ids []string) (map[string]domain.Experiment, error)

	// find experiments which have the given name and all of the given tags.
	//
	// when some conditions are empty, such empty conditions are ignored
	// and do not narrow results.
	//
	// Args
	//
	// - context.Context
	//
	// - ExperimentFindQuery
	//
	// Returns
	//
	// - []Experiment: found experiments, sorted by name.
	//
	// - error
	Find(ctx context.Context, query domain.ExperimentFindQuery) ([]domain.Experiment, error)
}
