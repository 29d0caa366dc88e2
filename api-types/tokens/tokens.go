package tokens

import (
	"github.com/modelyard/modelyard-api-types/misc/rfctime"
)

type Summary struct {
	TokenId   string          `json:"tokenId"`
	Name      string          `json:"name"`
	CreatedAt rfctime.RFC3339 `json:"createdAt"`

	ExpiresAt  *rfctime.RFC3339 `json:"expiresAt,omitempty"`
	LastUsedAt *rfctime.RFC3339 `json:"lastUsedAt,omitempty"`
	RevokedAt  *rfctime.RFC3339 `json:"revokedAt,omitempty"`
}

func (s Summary) Equal(o Summary) bool {
	return s.TokenId == o.TokenId &&
		s.Name == o.Name &&
		s.CreatedAt.Equal(o.CreatedAt) &&
		pointerEqual(s.ExpiresAt, o.ExpiresAt) &&
		pointerEqual(s.LastUsedAt, o.LastUsedAt) &&
		pointerEqual(s.RevokedAt, o.RevokedAt)
}

// Issued is the response to issueing a token.
//
// Token is the full credential, "<tokenId>.<secret>". The secret is
// not recoverable afterwards.
type Issued struct {
	Summary
	Token string `json:"token"`
}

func (i Issued) Equal(o Issued) bool {
	return i.Summary.Equal(o.Summary) &&
		i.Token == o.Token
}

// Spec is the request body to issue a token.
type Spec struct {
	Name string `json:"name"`
}

func pointerEqual(a, b *rfctime.RFC3339) bool {
	if (a == nil) || (b == nil) {
		return (a == nil) && (b == nil)
	}
	return a.Equal(*b)
}
