package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	kpool "github.com/modelyard/modelyard/pkg/conn/db/postgres/pool"
	"github.com/modelyard/modelyard/pkg/domain"
	kdbauth "github.com/modelyard/modelyard/pkg/domain/auth/db"
	kpgerr "github.com/modelyard/modelyard/pkg/domain/errors/dberrors/postgres"
)

type pgAuth struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) kdbauth.Interface {
	return &pgAuth{pool: pool}
}

func (a *pgAuth) Issue(ctx context.Context, name string, hash string) (domain.ApiToken, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return domain.ApiToken{}, err
	}
	defer conn.Release()

	token := domain.ApiToken{
		Id:   uuid.NewString(),
		Name: name,
		Hash: hash,
	}
	if err := conn.QueryRow(
		ctx,
		`
		insert into "api_token" ("id", "name", "hash")
		values ($1, $2, $3)
		returning "created_at"
		`,
		token.Id, token.Name, token.Hash,
	).Scan(&token.CreatedAt); err != nil {
		return domain.ApiToken{}, err
	}

	return token, nil
}

func (a *pgAuth) Verify(ctx context.Context, tokenId string) (domain.ApiToken, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return domain.ApiToken{}, err
	}
	defer conn.Release()

	token := domain.ApiToken{}
	if err := conn.QueryRow(
		ctx,
		`
		update "api_token" set "last_used_at" = now()
		where "id" = $1
		returning
			"id", "name", "hash",
			"created_at", "expires_at", "last_used_at", "revoked_at"
		`,
		tokenId,
	).Scan(
		&token.Id, &token.Name, &token.Hash,
		&token.CreatedAt, &token.ExpiresAt, &token.LastUsedAt, &token.RevokedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ApiToken{}, kpgerr.Missing{
				Table: "api_token", Identity: "id = " + tokenId,
			}
		}
		return domain.ApiToken{}, err
	}

	return token, nil
}

func (a *pgAuth) Revoke(ctx context.Context, tokenId string) error {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if err := conn.QueryRow(
		ctx,
		`
		update "api_token" set "revoked_at" = coalesce("revoked_at", now())
		where "id" = $1
		returning "id"
		`,
		tokenId,
	).Scan(new(string)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpgerr.Missing{Table: "api_token", Identity: "id = " + tokenId}
		}
		return err
	}

	return nil
}

func (a *pgAuth) Find(ctx context.Context) ([]domain.ApiToken, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select
			"id", "name", "hash",
			"created_at", "expires_at", "last_used_at", "revoked_at"
		from "api_token"
		order by "created_at", "id"
		`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := []domain.ApiToken{}
	for rows.Next() {
		token := domain.ApiToken{}
		if err := rows.Scan(
			&token.Id, &token.Name, &token.Hash,
			&token.CreatedAt, &token.ExpiresAt, &token.LastUsedAt, &token.RevokedAt,
		); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}

	return tokens, nil
}
