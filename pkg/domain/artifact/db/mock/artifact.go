package mock

import (
	"context"
	"errors"

	"github.com/modelyard/modelyard/pkg/domain"
	kdb "github.com/modelyard/modelyard/pkg/domain/artifact/db"
	dbmock "github.com/modelyard/modelyard/pkg/domain/internal/db/mock"
)

type ArtifactInterface struct {
	Impl struct {
		Register    func(ctx context.Context, digest string, size int64) (domain.Artifact, error)
		Get         func(ctx context.Context, digests []string) (map[string]domain.Artifact, error)
		PopOrphaned func(ctx context.Context, callback func(domain.Artifact) error) (bool, error)
	}

	Calls struct {
		Register dbmock.CallLog[struct {
			Digest string
			Size   int64
		}]
		Get         dbmock.CallLog[[]string]
		PopOrphaned dbmock.CallLog[struct{}]
	}
}

func NewArtifactInterface() *ArtifactInterface {
	return &ArtifactInterface{}
}

var _ kdb.Interface = &ArtifactInterface{}

func (m *ArtifactInterface) Register(ctx context.Context, digest string, size int64) (domain.Artifact, error) {
	m.Calls.Register = append(m.Calls.Register, struct {
		Digest string
		Size   int64
	}{
		Digest: digest,
		Size:   size,
	})
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, digest, size)
	}

	panic(errors.New("it should no be called"))
}

func (m *ArtifactInterface) Get(ctx context.Context, digests []string) (map[string]domain.Artifact, error) {
	m.Calls.Get = append(m.Calls.Get, digests)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, digests)
	}

	panic(errors.New("it should no be called"))
}

func (m *ArtifactInterface) PopOrphaned(ctx context.Context, callback func(domain.Artifact) error) (bool, error) {
	m.Calls.PopOrphaned = append(m.Calls.PopOrphaned, struct{}{})
	if m.Impl.PopOrphaned != nil {
		return m.Impl.PopOrphaned(ctx, callback)
	}

	panic(errors.New("it should no be called"))
}
