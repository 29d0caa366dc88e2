package provider

import (
	"context"
	"errors"
	"time"

	"github.com/modelyard/modelyard/pkg/domain"
	kdb "github.com/modelyard/modelyard/pkg/domain/keychain/db"
	"github.com/modelyard/modelyard/pkg/keychain"
)

var ErrBadNewKey = errors.New("new key is bad. It does not satisfy the requirements")

// KeyRequirement filters keys a KeyProvider may hand out.
type KeyRequirement func(domain.SigningKey) bool

// WithExpAfter requires that the key stays valid until t.
//
// Use it to make sure a key outlives the tokens it signs.
func WithExpAfter(t time.Time) KeyRequirement {
	return func(k domain.SigningKey) bool {
		return t.Before(k.Exp)
	}
}

type KeyProvider interface {
	// Provide returns a key from the keychain.
	// If no key satisfies req in the keychain, it issues a new key.
	Provide(ctx context.Context, req ...KeyRequirement) (domain.SigningKey, error)

	// GetKeychain returns the refleshed keychain in the KeyProvider.
	GetKeychain(ctx context.Context) (domain.Keychain, error)
}

var DefaultKeyPolicy = keychain.HS256(3*time.Hour, 2048/8)

type Option func(*keyProvider)

func WithPolicy(policy keychain.KeyPolicy) Option {
	return func(kp *keyProvider) {
		kp.policy = policy
	}
}

func New(
	keychainName string,
	dbKeychain kdb.KeychainInterface,
	options ...Option,
) KeyProvider {
	base := &keyProvider{
		keychainName: keychainName,
		policy:       DefaultKeyPolicy,
		dbKeychain:   dbKeychain,
	}
	for _, option := range options {
		option(base)
	}
	return base
}

type keyProvider struct {
	policy       keychain.KeyPolicy
	keychainName string
	dbKeychain   kdb.KeychainInterface
}

func (kp *keyProvider) Provide(ctx context.Context, req ...KeyRequirement) (domain.SigningKey, error) {
	kc, err := kp.GetKeychain(ctx)
	if err != nil {
		return domain.SigningKey{}, err
	}

	now := time.Now()
	if k, ok := pick(kc, now, req); ok {
		return k, nil
	}

	var issued domain.SigningKey
	if err := kp.dbKeychain.Lock(ctx, kp.keychainName, func(ctx context.Context) error {
		// someone else may have rotated while we were waiting.
		kc, err := kp.dbKeychain.GetKeychain(ctx, kp.keychainName)
		if err != nil {
			return err
		}
		if k, ok := pick(kc, now, req); ok {
			issued = k
			return nil
		}

		newKey, err := kp.policy.Issue()
		if err != nil {
			return err
		}
		for _, r := range req {
			if !r(newKey) {
				return ErrBadNewKey
			}
		}
		if err := kp.dbKeychain.AddKey(ctx, kp.keychainName, newKey); err != nil {
			return err
		}
		for _, k := range kc.Keys {
			if !k.Expired(now) {
				continue
			}
			if err := kp.dbKeychain.DeleteKey(ctx, kp.keychainName, k.KID); err != nil {
				return err
			}
		}
		issued = newKey
		return nil
	}); err != nil {
		return domain.SigningKey{}, err
	}

	return issued, nil
}

func (kp *keyProvider) GetKeychain(ctx context.Context) (domain.Keychain, error) {
	return kp.dbKeychain.GetKeychain(ctx, kp.keychainName)
}

// pick selects the live key expiring last among those meeting req.
func pick(kc domain.Keychain, now time.Time, req []KeyRequirement) (domain.SigningKey, bool) {
	found := false
	var picked domain.SigningKey
keys:
	for _, k := range kc.Keys {
		if k.Expired(now) {
			continue
		}
		for _, r := range req {
			if !r(k) {
				continue keys
			}
		}
		if !found || picked.Exp.Before(k.Exp) {
			picked = k
			found = true
		}
	}
	return picked, found
}
