package mock

import (
	"context"
	"errors"

	"github.com/modelyard/modelyard/pkg/domain"
	kdb "github.com/modelyard/modelyard/pkg/domain/model/db"
	dbmock "github.com/modelyard/modelyard/pkg/domain/internal/db/mock"
)

type NewVersionArgs struct {
	Name   string
	RunId  string
	Digest string
}

type GetVersionArgs struct {
	Name    string
	Version int
}

type PromoteArgs struct {
	Name    string
	Version int
	Stage   domain.Stage
}

type CurrentOfArgs struct {
	Name  string
	Stage domain.Stage
}

type ModelInterface struct {
	Impl struct {
		Register   func(ctx context.Context, spec domain.ModelSpec) error
		Get        func(ctx context.Context, names []string) (map[string]domain.Model, error)
		Find       func(ctx context.Context, query domain.ModelFindQuery) ([]string, error)
		NewVersion func(ctx context.Context, name string, runId string, digest string) (domain.ModelVersion, error)
		Versions   func(ctx context.Context, name string) ([]domain.ModelVersion, error)
		GetVersion func(ctx context.Context, name string, version int) (domain.ModelVersion, error)
		PopPending func(ctx context.Context, callback func(domain.ModelVersion) ([]domain.GateResult, error)) (bool, error)
		Promote    func(ctx context.Context, name string, version int, stage domain.Stage) (domain.ModelVersion, error)
		CurrentOf  func(ctx context.Context, name string, stage domain.Stage) (domain.ModelVersion, error)
	}

	Calls struct {
		Register   dbmock.CallLog[domain.ModelSpec]
		Get        dbmock.CallLog[[]string]
		Find       dbmock.CallLog[domain.ModelFindQuery]
		NewVersion dbmock.CallLog[NewVersionArgs]
		Versions   dbmock.CallLog[string]
		GetVersion dbmock.CallLog[GetVersionArgs]
		PopPending dbmock.CallLog[struct{}]
		Promote    dbmock.CallLog[PromoteArgs]
		CurrentOf  dbmock.CallLog[CurrentOfArgs]
	}
}

func NewModelInterface() *ModelInterface {
	return &ModelInterface{}
}

var _ kdb.Interface = &ModelInterface{}

func (m *ModelInterface) Register(ctx context.Context, spec domain.ModelSpec) error {
	m.Calls.Register = append(m.Calls.Register, spec)
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, spec)
	}

	panic(errors.New("it should no be called"))
}

func (m *ModelInterface) Get(ctx context.Context, names []string) (map[string]domain.Model, error) {
	m.Calls.Get = append(m.Calls.Get, names)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, names)
	}

	panic(errors.New("it should no be called"))
}

func (m *ModelInterface) Find(ctx context.Context, query domain.ModelFindQuery) ([]string, error) {
	m.Calls.Find = append(m.Calls.Find, query)
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, query)
	}

	panic(errors.New("it should no be called"))
}

func (m *ModelInterface) NewVersion(ctx context.Context, name string, runId string, digest string) (domain.ModelVersion, error) {
	m.Calls.NewVersion = append(m.Calls.NewVersion, NewVersionArgs{
		Name: name, RunId: runId, Digest: digest,
	})
	if m.Impl.NewVersion != nil {
		return m.Impl.NewVersion(ctx, name, runId, digest)
	}

	panic(errors.New("it should no be called"))
}

func (m *ModelInterface) Versions(ctx context.Context, name string) ([]domain.ModelVersion, error) {
	m.Calls.Versions = append(m.Calls.Versions, name)
	if m.Impl.Versions != nil {
		return m.Impl.Versions(ctx, name)
	}

	panic(errors.New("it should no be called"))
}

func (m *ModelInterface) GetVersion(ctx context.Context, name string, version int) (domain.ModelVersion, error) {
	m.Calls.GetVersion = append(m.Calls.GetVersion, GetVersionArgs{
		Name: name, Version: version,
	})
	if m.Impl.GetVersion != nil {
		return m.Impl.GetVersion(ctx, name, version)
	}

	panic(errors.New("it should no be called"))
}

func (m *ModelInterface) PopPending(ctx context.Context, callback func(domain.ModelVersion) ([]domain.GateResult, error)) (bool, error) {
	m.Calls.PopPending = append(m.Calls.PopPending, struct{}{})
	if m.Impl.PopPending != nil {
		return m.Impl.PopPending(ctx, callback)
	}

	panic(errors.New("it should no be called"))
}

func (m *ModelInterface) Promote(ctx context.Context, name string, version int, stage domain.Stage) (domain.ModelVersion, error) {
	m.Calls.Promote = append(m.Calls.Promote, PromoteArgs{
		Name: name, Version: version, Stage: stage,
	})
	if m.Impl.Promote != nil {
		return m.Impl.Promote(ctx, name, version, stage)
	}

	panic(errors.New("it should no be called"))
}

func (m *ModelInterface) CurrentOf(ctx context.Context, name string, stage domain.Stage) (domain.ModelVersion, error) {
	m.Calls.CurrentOf = append(m.Calls.CurrentOf, CurrentOfArgs{
		Name: name, Stage: stage,
	})
	if m.Impl.CurrentOf != nil {
		return m.Impl.CurrentOf(ctx, name, stage)
	}

	panic(errors.New("it should no be called"))
}
