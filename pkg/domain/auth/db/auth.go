package db

import (
	"context"

	"github.com/modelyard/modelyard/pkg/domain"
)

type Interface interface {
	// Issue records a new api token.
	//
	// Args
	//
	// - context.Context
	//
	// - string: human-given name of the token.
	//
	// - string: argon2id hash of the token secret.
	//
	// Returns
	//
	// - domain.ApiToken: the issued token record. Its Id is generated here.
	//
	// - error
	Issue(ctx context.Context, name string, hash string) (domain.ApiToken, error)

	// Verify retreives the token by id and touches its last used timestamp.
	//
	// The caller compares the secret against the returned Hash and
	// tests Active by itself.
	//
	// Args
	//
	// - context.Context
	//
	// - string: id of the token.
	//
	// Returns
	//
	// - domain.ApiToken
	//
	// - error: ErrMissing (when no such token), or other errors come
	// from database.
	Verify(ctx context.Context, tokenId string) (domain.ApiToken, error)

	// Revoke marks the token as revoked.
	//
	// Revoking a token which is revoked already is a no-op.
	//
	// Args
	//
	// - context.Context
	//
	// - string: id of the token.
	//
	// Returns
	//
	// - error: ErrMissing (when no such token), or other errors come
	// from database.
	Revoke(ctx context.Context, tokenId string) error

	// Find lists all api tokens, oldest first.
	//
	// Args
	//
	// - context.Context
	//
	// Returns
	//
	// - []domain.ApiToken
	//
	// - error
	Find(ctx context.Context) ([]domain.ApiToken, error)
}
