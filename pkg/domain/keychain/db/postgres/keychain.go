package keychain

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	kpool "github.com/modelyard/modelyard/pkg/conn/db/postgres/pool"
	"github.com/modelyard/modelyard/pkg/domain"
	kpgerr "github.com/modelyard/modelyard/pkg/domain/errors/dberrors/postgres"
	kdbkeychain "github.com/modelyard/modelyard/pkg/domain/keychain/db"
)

type pgKeychain struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) kdbkeychain.KeychainInterface {
	return &pgKeychain{pool: pool}
}

func (kc *pgKeychain) Lock(ctx context.Context, name string, criticalSection func(context.Context) error) error {
	tx, err := kc.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(
		ctx,
		`
		with
		"old" as (
			select "name" from "keychain"
			where "name" = $1 for update
		),
		"new" as (
			insert into "keychain" ("name") values ($1)
			on conflict ("name") do nothing
			returning "name"
		)
		select * from "old"
		union all
		select * from "new"
		`,
		name,
	).Scan(nil); err != nil {
		return err
	}

	if err := criticalSection(ctx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	return nil
}

func (kc *pgKeychain) GetKeychain(ctx context.Context, name string) (domain.Keychain, error) {
	conn, err := kc.pool.Acquire(ctx)
	if err != nil {
		return domain.Keychain{}, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "kid", "alg", "secret", "issued_at", "exp"
		from "keychain_key"
		where "keychain_name" = $1
		order by "issued_at", "kid"
		`,
		name,
	)
	if err != nil {
		return domain.Keychain{}, err
	}
	defer rows.Close()

	chain := domain.Keychain{Name: name}
	for rows.Next() {
		key := domain.SigningKey{}
		if err := rows.Scan(
			&key.KID, &key.Alg, &key.Secret, &key.IssuedAt, &key.Exp,
		); err != nil {
			return domain.Keychain{}, err
		}
		chain.Keys = append(chain.Keys, key)
	}

	return chain, nil
}

func (kc *pgKeychain) AddKey(ctx context.Context, name string, key domain.SigningKey) error {
	conn, err := kc.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(
		ctx,
		`
		insert into "keychain_key" ("keychain_name", "kid", "alg", "secret", "issued_at", "exp")
		values ($1, $2, $3, $4, $5, $6)
		`,
		name, key.KID, key.Alg, key.Secret, key.IssuedAt, key.Exp,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.ForeignKeyViolation:
				return kpgerr.Missing{Table: "keychain", Identity: "name = " + name}
			case pgerrcode.UniqueViolation:
				return kpgerr.Conflict{
					Table:    "keychain_key",
					Identity: "keychain_name = " + name + ", kid = " + key.KID,
				}
			}
		}
		return err
	}

	return nil
}

func (kc *pgKeychain) DeleteKey(ctx context.Context, name string, kid string) error {
	conn, err := kc.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(
		ctx,
		`delete from "keychain_key" where "keychain_name" = $1 and "kid" = $2`,
		name, kid,
	); err != nil {
		return err
	}

	return nil
}
