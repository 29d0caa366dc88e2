package db

import (
	"context"

	"github.com/modelyard/modelyard/pkg/domain"
)

type KeychainInterface interface {
	// Lock the keychain named name, and run criticalSection under the lock.
	//
	// The keychain record is created if it does not exist yet.
	// The lock is released when this returns.
	//
	// Args
	//
	// - context.Context
	//
	// - string: name of the keychain.
	//
	// - criticalSection func(context.Context) error: run while locking.
	//
	// Returns
	//
	// - error: the error criticalSection returned, or errors come
	// from database.
	Lock(ctx context.Context, name string, criticalSection func(context.Context) error) error

	// GetKeychain retreives the keychain and its signing keys.
	//
	// A keychain which is not created yet comes back empty, not as an error.
	//
	// Args
	//
	// - context.Context
	//
	// - string: name of the keychain.
	//
	// Returns
	//
	// - domain.Keychain
	//
	// - error
	GetKeychain(ctx context.Context, name string) (domain.Keychain, error)

	// AddKey stores a signing key in the keychain.
	//
	// Call this inside Lock to keep rotation race-free.
	//
	// Args
	//
	// - context.Context
	//
	// - string: name of the keychain.
	//
	// - domain.SigningKey
	//
	// Returns
	//
	// - error: ErrMissing (when the keychain is not found),
	// ErrAlreadyExists (when the key id is taken), or other errors
	// come from database.
	AddKey(ctx context.Context, name string, key domain.SigningKey) error

	// DeleteKey drops a signing key from the keychain.
	//
	// Deleting a key which is not there is a no-op.
	//
	// Args
	//
	// - context.Context
	//
	// - string: name of the keychain.
	//
	// - string: key id to drop.
	//
	// Returns
	//
	// - error
	DeleteKey(ctx context.Context, name string, kid string) error
}
