package mock

import (
	"context"
	"errors"

	"github.com/modelyard/modelyard/pkg/domain"
	kdb "github.com/modelyard/modelyard/pkg/domain/experiment/db"
	dbmock "github.com/modelyard/modelyard/pkg/domain/internal/db/mock"
)

type ExperimentInterface struct {
	Impl struct {
		New  func(ctx context.Context, spec domain.ExperimentSpec) (domain.Experiment, error)
		Get  func(ctx context.Context, ids []string) (map[string]domain.Experiment, error)
		Find func(ctx context.Context, query domain.ExperimentFindQuery) ([]domain.Experiment, error)
	}

	Calls struct {
		New  dbmock.CallLog[domain.ExperimentSpec]
		Get  dbmock.CallLog[[]string]
		Find dbmock.CallLog[domain.ExperimentFindQuery]
	}
}

func NewExperimentInterface() *ExperimentInterface {
	return &ExperimentInterface{}
}

var _ kdb.Interface = &ExperimentInterface{}

func (m *ExperimentInterface) New(ctx context.Context, spec domain.ExperimentSpec) (domain.Experiment, error) {
	m.Calls.New = append(m.Calls.New, spec)
	if m.Impl.New != nil {
		return m.Impl.New(ctx, spec)
	}

	panic(errors.New("it should no be called"))
}

func (m *ExperimentInterface) Get(ctx context.Context, ids []string) (map[string]domain.Experiment, error) {
	m.Calls.Get = append(m.Calls.Get, ids)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, ids)
	}

	panic(errors.New("it should no be called"))
}

func (m *ExperimentInterface) Find(ctx context.Context, query domain.ExperimentFindQuery) ([]domain.Experiment, error) {
	m.Calls.Find = append(m.Calls.Find, query)
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, query)
	}

	panic(errors.New("it should no be called"))
}
