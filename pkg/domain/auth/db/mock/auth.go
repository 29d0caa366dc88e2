package mock

import (
	"context"
	"errors"

	"github.com/modelyard/modelyard/pkg/domain"
	kdb "github.com/modelyard/modelyard/pkg/domain/auth/db"
	dbmock "github.com/modelyard/modelyard/pkg/domain/internal/db/mock"
)

type AuthInterface struct {
	Impl struct {
		Issue  func(ctx context.Context, name string, hash string) (domain.ApiToken, error)
		Verify func(ctx context.Context, tokenId string) (domain.ApiToken, error)
		Revoke func(ctx context.Context, tokenId string) error
		Find   func(ctx context.Context) ([]domain.ApiToken, error)
	}

	Calls struct {
		Issue dbmock.CallLog[struct {
			Name string
			Hash string
		}]
		Verify dbmock.CallLog[string]
		Revoke dbmock.CallLog[string]
		Find   dbmock.CallLog[struct{}]
	}
}

func NewAuthInterface() *AuthInterface {
	return &AuthInterface{}
}

var _ kdb.Interface = &AuthInterface{}

func (m *AuthInterface) Issue(ctx context.Context, name string, hash string) (domain.ApiToken, error) {
	m.Calls.Issue = append(m.Calls.Issue, struct {
		Name string
		Hash string
	}{
		Name: name,
		Hash: hash,
	})
	if m.Impl.Issue != nil {
		return m.Impl.Issue(ctx, name, hash)
	}

	panic(errors.New("it should no be called"))
}

func (m *AuthInterface) Verify(ctx context.Context, tokenId string) (domain.ApiToken, error) {
	m.Calls.Verify = append(m.Calls.Verify, tokenId)
	if m.Impl.Verify != nil {
		return m.Impl.Verify(ctx, tokenId)
	}

	panic(errors.New("it should no be called"))
}

func (m *AuthInterface) Revoke(ctx context.Context, tokenId string) error {
	m.Calls.Revoke = append(m.Calls.Revoke, tokenId)
	if m.Impl.Revoke != nil {
		return m.Impl.Revoke(ctx, tokenId)
	}

	panic(errors.New("it should no be called"))
}

func (m *AuthInterface) Find(ctx context.Context) ([]domain.ApiToken, error) {
	m.Calls.Find = append(m.Calls.Find, struct{}{})
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx)
	}

	panic(errors.New("it should no be called"))
}
