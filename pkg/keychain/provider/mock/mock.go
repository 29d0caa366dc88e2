package mock

import (
	"context"
	"testing"

	"github.com/modelyard/modelyard/pkg/domain"
	"github.com/modelyard/modelyard/pkg/keychain/provider"
)

type MockKeyProvider struct {
	t    *testing.T
	Impl struct {
		Provide     func(ctx context.Context, req ...provider.KeyRequirement) (domain.SigningKey, error)
		GetKeychain func(ctx context.Context) (domain.Keychain, error)
	}
}

var _ provider.KeyProvider = &MockKeyProvider{}

func New(t *testing.T) *MockKeyProvider {
	return &MockKeyProvider{t: t}
}

func (m *MockKeyProvider) Provide(ctx context.Context, req ...provider.KeyRequirement) (domain.SigningKey, error) {
	if m.Impl.Provide == nil {
		m.t.Fatal("Provide is not implemented")
	}
	return m.Impl.Provide(ctx, req...)
}

func (m *MockKeyProvider) GetKeychain(ctx context.Context) (domain.Keychain, error) {
	if m.Impl.GetKeychain == nil {
		m.t.Fatal("GetKeychain is not implemented")
	}
	return m.Impl.GetKeychain(ctx)
}
