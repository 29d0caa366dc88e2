package mock

import (
	"context"
	"io"
	"testing"

	apimodels "github.com/modelyard/modelyard-api-types/models"
	"github.com/modelyard/modelyard/cmd/inferd/registry"
)

func New(t *testing.T) *mockClient {
	return &mockClient{t: t}
}

type mockClient struct {
	t    *testing.T
	Impl struct {
		CurrentVersion func(ctx context.Context) (apimodels.VersionDetail, error)
		PullArtifact   func(ctx context.Context, digest string, handler func(io.Reader) error) error
	}
	Calls struct {
		CurrentVersion int
		PullArtifact   []string
	}
}

var _ registry.Client = &mockClient{}

func (m *mockClient) CurrentVersion(ctx context.Context) (apimodels.VersionDetail, error) {
	m.t.Helper()

	m.Calls.CurrentVersion += 1
	if m.Impl.CurrentVersion == nil {
		m.t.Fatal("CurrentVersion is not ready to be called")
	}
	return m.Impl.CurrentVersion(ctx)
}

func (m *mockClient) PullArtifact(ctx context.Context, digest string, handler func(io.Reader) error) error {
	m.t.Helper()

	m.Calls.PullArtifact = append(m.Calls.PullArtifact, digest)
	if m.Impl.PullArtifact == nil {
		m.t.Fatal("PullArtifact is not ready to be called")
	}
	return m.Impl.PullArtifact(ctx, digest, handler)
}
