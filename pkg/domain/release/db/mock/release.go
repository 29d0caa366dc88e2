package mock

import (
	"context"
	"errors"

	"github.com/modelyard/modelyard/pkg/domain"
	dbmock "github.com/modelyard/modelyard/pkg/domain/internal/db/mock"
	kdb "github.com/modelyard/modelyard/pkg/domain/release/db"
)

type ReleaseInterface struct {
	Impl struct {
		Plan      func(ctx context.Context, spec domain.ReleaseSpec, resolvedDigest string) (domain.Release, error)
		Find      func(ctx context.Context, env string) ([]string, error)
		Get       func(ctx context.Context, ids []string) (map[string]domain.Release, error)
		Switch    func(ctx context.Context, id string) (domain.Release, error)
		CurrentOf func(ctx context.Context, env string) (domain.Release, error)
	}

	Calls struct {
		Plan dbmock.CallLog[struct {
			Spec           domain.ReleaseSpec
			ResolvedDigest string
		}]
		Find      dbmock.CallLog[string]
		Get       dbmock.CallLog[[]string]
		Switch    dbmock.CallLog[string]
		CurrentOf dbmock.CallLog[string]
	}
}

func NewReleaseInterface() *ReleaseInterface {
	return &ReleaseInterface{}
}

var _ kdb.Interface = &ReleaseInterface{}

func (m *ReleaseInterface) Plan(ctx context.Context, spec domain.ReleaseSpec, resolvedDigest string) (domain.Release, error) {
	m.Calls.Plan = append(m.Calls.Plan, struct {
		Spec           domain.ReleaseSpec
		ResolvedDigest string
	}{
		Spec:           spec,
		ResolvedDigest: resolvedDigest,
	})
	if m.Impl.Plan != nil {
		return m.Impl.Plan(ctx, spec, resolvedDigest)
	}

	panic(errors.New("it should no be called"))
}

func (m *ReleaseInterface) Find(ctx context.Context, env string) ([]string, error) {
	m.Calls.Find = append(m.Calls.Find, env)
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, env)
	}

	panic(errors.New("it should no be called"))
}

func (m *ReleaseInterface) Get(ctx context.Context, ids []string) (map[string]domain.Release, error) {
	m.Calls.Get = append(m.Calls.Get, ids)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, ids)
	}

	panic(errors.New("it should no be called"))
}

func (m *ReleaseInterface) Switch(ctx context.Context, id string) (domain.Release, error) {
	m.Calls.Switch = append(m.Calls.Switch, id)
	if m.Impl.Switch != nil {
		return m.Impl.Switch(ctx, id)
	}

	panic(errors.New("it should no be called"))
}

func (m *ReleaseInterface) CurrentOf(ctx context.Context, env string) (domain.Release, error) {
	m.Calls.CurrentOf = append(m.Calls.CurrentOf, env)
	if m.Impl.CurrentOf != nil {
		return m.Impl.CurrentOf(ctx, env)
	}

	panic(errors.New("it should no be called"))
}
