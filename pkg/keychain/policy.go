package keychain

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/modelyard/modelyard/pkg/domain"
)

// KeyPolicy issues new signing keys.
type KeyPolicy interface {
	// Issue a new key
	Issue() (domain.SigningKey, error)
}

type hs256Policy struct {
	ttl   time.Duration
	nbyte int
}

// HS256 returns a KeyPolicy issuing HMAC-SHA256 keys with random
// secrets of nbyte bytes, expiring ttl after issue.
func HS256(ttl time.Duration, nbyte int) KeyPolicy {
	return hs256Policy{ttl: ttl, nbyte: nbyte}
}

func (p hs256Policy) Issue() (domain.SigningKey, error) {
	secret := make([]byte, p.nbyte)
	if _, err := rand.Read(secret); err != nil {
		return domain.SigningKey{}, err
	}
	now := time.Now()
	return domain.SigningKey{
		KID:      uuid.NewString(),
		Alg:      jwt.SigningMethodHS256.Name,
		Secret:   secret,
		IssuedAt: now,
		Exp:      now.Add(p.ttl),
	}, nil
}

type fixedKeyPolicy struct {
	k domain.SigningKey
}

// Fixed returns a KeyPolicy that always returns the same key.
func Fixed(k domain.SigningKey) KeyPolicy {
	return &fixedKeyPolicy{k: k}
}

func (fk *fixedKeyPolicy) Issue() (domain.SigningKey, error) {
	return fk.k, nil
}

type failingKeyPolicy struct {
	err error
}

// Failing returns a KeyPolicy that always fails with the given error.
//
// This is useful for testing.
func Failing(err error) KeyPolicy {
	return &failingKeyPolicy{err: err}
}

func (fk *failingKeyPolicy) Issue() (domain.SigningKey, error) {
	return domain.SigningKey{}, fk.err
}
