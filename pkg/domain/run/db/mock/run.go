package mock

import (
	"context"
	"errors"
	"time"

	"github.com/modelyard/modelyard/pkg/domain"
	dbmock "github.com/modelyard/modelyard/pkg/domain/internal/db/mock"
	kdb "github.com/modelyard/modelyard/pkg/domain/run/db"
)

type RunInterface struct {
	Impl struct {
		New            func(ctx context.Context, spec domain.RunSpec) (string, error)
		Get            func(ctx context.Context, runId []string) (map[string]domain.Run, error)
		Find           func(ctx context.Context, query domain.RunFindQuery) ([]string, error)
		SetStatus      func(ctx context.Context, runId string, newStatus domain.RunStatus) error
		AddMetrics     func(ctx context.Context, runId string, points []domain.MetricPoint) error
		Finish         func(ctx context.Context, runId string, outcome domain.RunOutcome) error
		AttachArtifact func(ctx context.Context, runId string, name string, digest string) error
		PopExpired     func(ctx context.Context, now time.Time, callback func(domain.Run) error) (bool, error)
	}

	Calls struct {
		New       dbmock.CallLog[domain.RunSpec]
		Get       dbmock.CallLog[[]string]
		Find      dbmock.CallLog[domain.RunFindQuery]
		SetStatus dbmock.CallLog[struct {
			RunId     string
			NewStatus domain.RunStatus
		}]
		AddMetrics dbmock.CallLog[struct {
			RunId  string
			Points []domain.MetricPoint
		}]
		Finish dbmock.CallLog[struct {
			RunId   string
			Outcome domain.RunOutcome
		}]
		AttachArtifact dbmock.CallLog[struct {
			RunId  string
			Name   string
			Digest string
		}]
		PopExpired dbmock.CallLog[time.Time]
	}
}

func NewRunInterface() *RunInterface {
	return &RunInterface{}
}

var _ kdb.Interface = &RunInterface{}

func (m *RunInterface) New(ctx context.Context, spec domain.RunSpec) (string, error) {
	m.Calls.New = append(m.Calls.New, spec)
	if m.Impl.New != nil {
		return m.Impl.New(ctx, spec)
	}

	panic(errors.New("it should no be called"))
}

func (m *RunInterface) Get(ctx context.Context, runId []string) (map[string]domain.Run, error) {
	m.Calls.Get = append(m.Calls.Get, runId)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, runId)
	}

	panic(errors.New("it should no be called"))
}

func (m *RunInterface) Find(ctx context.Context, query domain.RunFindQuery) ([]string, error) {
	m.Calls.Find = append(m.Calls.Find, query)
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, query)
	}

	panic(errors.New("it should no be called"))
}

func (m *RunInterface) SetStatus(ctx context.Context, runId string, newStatus domain.RunStatus) error {
	m.Calls.SetStatus = append(m.Calls.SetStatus, struct {
		RunId     string
		NewStatus domain.RunStatus
	}{
		RunId:     runId,
		NewStatus: newStatus,
	})
	if m.Impl.SetStatus != nil {
		return m.Impl.SetStatus(ctx, runId, newStatus)
	}

	panic(errors.New("it should no be called"))
}

func (m *RunInterface) AddMetrics(ctx context.Context, runId string, points []domain.MetricPoint) error {
	m.Calls.AddMetrics = append(m.Calls.AddMetrics, struct {
		RunId  string
		Points []domain.MetricPoint
	}{
		RunId:  runId,
		Points: points,
	})
	if m.Impl.AddMetrics != nil {
		return m.Impl.AddMetrics(ctx, runId, points)
	}

	panic(errors.New("it should no be called"))
}

func (m *RunInterface) Finish(ctx context.Context, runId string, outcome domain.RunOutcome) error {
	m.Calls.Finish = append(m.Calls.Finish, struct {
		RunId   string
		Outcome domain.RunOutcome
	}{
		RunId:   runId,
		Outcome: outcome,
	})
	if m.Impl.Finish != nil {
		return m.Impl.Finish(ctx, runId, outcome)
	}

	panic(errors.New("it should no be called"))
}

func (m *RunInterface) AttachArtifact(ctx context.Context, runId string, name string, digest string) error {
	m.Calls.AttachArtifact = append(m.Calls.AttachArtifact, struct {
		RunId  string
		Name   string
		Digest string
	}{
		RunId:  runId,
		Name:   name,
		Digest: digest,
	})
	if m.Impl.AttachArtifact != nil {
		return m.Impl.AttachArtifact(ctx, runId, name, digest)
	}

	panic(errors.New("it should no be called"))
}

func (m *RunInterface) PopExpired(ctx context.Context, now time.Time, callback func(domain.Run) error) (bool, error) {
	m.Calls.PopExpired = append(m.Calls.PopExpired, now)
	if m.Impl.PopExpired != nil {
		return m.Impl.PopExpired(ctx, now, callback)
	}

	panic(errors.New("it should no be called"))
}
