package domain

import "time"

// SigningKey is an HMAC key for signing download tokens.
type SigningKey struct {
	// key id, put in the JWT header.
	KID string

	// HS256.
	Alg string

	// raw key material.
	Secret []byte

	IssuedAt time.Time

	// the key must not sign after this instant.
	Exp time.Time
}

// Expired tests the key against now.
func (k SigningKey) Expired(now time.Time) bool {
	return !now.Before(k.Exp)
}

// Keychain is a named set of signing keys kept in the database.
//
// Verification accepts any key in the chain. Signing picks the one
// expiring last, so rotation keeps old tokens verifiable until their
// key expires.
type Keychain struct {
	Name string

	Keys []SigningKey
}

// GetKey finds the key named kid.
func (kc *Keychain) GetKey(kid string) (SigningKey, bool) {
	if kc == nil {
		return SigningKey{}, false
	}
	for _, k := range kc.Keys {
		if k.KID == kid {
			return k, true
		}
	}
	return SigningKey{}, false
}

// SigningKeyAt picks the live key expiring last as of now.
func (kc *Keychain) SigningKeyAt(now time.Time) (SigningKey, bool) {
	if kc == nil {
		return SigningKey{}, false
	}
	found := false
	var picked SigningKey
	for _, k := range kc.Keys {
		if k.Expired(now) {
			continue
		}
		if !found || picked.Exp.Before(k.Exp) {
			picked = k
			found = true
		}
	}
	return picked, found
}
