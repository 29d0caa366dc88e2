package domain

import "time"

// ApiToken is a credential for the API server.
//
// The secret itself is shown once at issue time. Only its argon2id
// hash is kept.
type ApiToken struct {
	// identity of the token. Sent as the public half of credentials.
	Id string

	// human-given label, like "ci" or "alice-laptop".
	Name string

	// argon2id hash of the secret, in PHC string format.
	Hash string

	CreatedAt time.Time

	// nil means the token never expires.
	ExpiresAt *time.Time

	LastUsedAt *time.Time

	RevokedAt *time.Time
}

// Active tests that the token is neither revoked nor expired at now.
func (t *ApiToken) Active(now time.Time) bool {
	if t == nil || t.RevokedAt != nil {
		return false
	}
	if t.ExpiresAt != nil && !now.Before(*t.ExpiresAt) {
		return false
	}
	return true
}

func (t *ApiToken) Equal(other *ApiToken) bool {
	if (t == nil) || (other == nil) {
		return (t == nil) && (other == nil)
	}
	return t.Id == other.Id &&
		t.Name == other.Name &&
		t.Hash == other.Hash &&
		t.CreatedAt.Equal(other.CreatedAt) &&
		pointerTimeEqual(t.ExpiresAt, other.ExpiresAt) &&
		pointerTimeEqual(t.LastUsedAt, other.LastUsedAt) &&
		pointerTimeEqual(t.RevokedAt, other.RevokedAt)
}
