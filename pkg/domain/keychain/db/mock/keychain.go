package mock

import (
	"context"
	"errors"

	"github.com/modelyard/modelyard/pkg/domain"
	dbmock "github.com/modelyard/modelyard/pkg/domain/internal/db/mock"
	kdb "github.com/modelyard/modelyard/pkg/domain/keychain/db"
)

type KeychainInterface struct {
	Impl struct {
		Lock        func(ctx context.Context, name string, criticalSection func(context.Context) error) error
		GetKeychain func(ctx context.Context, name string) (domain.Keychain, error)
		AddKey      func(ctx context.Context, name string, key domain.SigningKey) error
		DeleteKey   func(ctx context.Context, name string, kid string) error
	}

	Calls struct {
		Lock        dbmock.CallLog[string]
		GetKeychain dbmock.CallLog[string]
		AddKey      dbmock.CallLog[struct {
			Name string
			Key  domain.SigningKey
		}]
		DeleteKey dbmock.CallLog[struct {
			Name string
			KID  string
		}]
	}
}

func NewKeychainInterface() *KeychainInterface {
	return &KeychainInterface{}
}

var _ kdb.KeychainInterface = &KeychainInterface{}

func (m *KeychainInterface) Lock(ctx context.Context, name string, criticalSection func(context.Context) error) error {
	m.Calls.Lock = append(m.Calls.Lock, name)
	if m.Impl.Lock != nil {
		return m.Impl.Lock(ctx, name, criticalSection)
	}

	panic(errors.New("it should no be called"))
}

func (m *KeychainInterface) GetKeychain(ctx context.Context, name string) (domain.Keychain, error) {
	m.Calls.GetKeychain = append(m.Calls.GetKeychain, name)
	if m.Impl.GetKeychain != nil {
		return m.Impl.GetKeychain(ctx, name)
	}

	panic(errors.New("it should no be called"))
}

func (m *KeychainInterface) AddKey(ctx context.Context, name string, key domain.SigningKey) error {
	m.Calls.AddKey = append(m.Calls.AddKey, struct {
		Name string
		Key  domain.SigningKey
	}{
		Name: name,
		Key:  key,
	})
	if m.Impl.AddKey != nil {
		return m.Impl.AddKey(ctx, name, key)
	}

	panic(errors.New("it should no be called"))
}

func (m *KeychainInterface) DeleteKey(ctx context.Context, name string, kid string) error {
	m.Calls.DeleteKey = append(m.Calls.DeleteKey, struct {
		Name string
		KID  string
	}{
		Name: name,
		KID:  kid,
	})
	if m.Impl.DeleteKey != nil {
		return m.Impl.DeleteKey(ctx, name, kid)
	}

	panic(errors.New("it should no be called"))
}
