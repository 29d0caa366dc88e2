package artifact

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	kpool "github.com/modelyard/modelyard/pkg/conn/db/postgres/pool"
	"github.com/modelyard/modelyard/pkg/domain"
	kdbartifact "github.com/modelyard/modelyard/pkg/domain/artifact/db"
	kpgerr "github.com/modelyard/modelyard/pkg/domain/errors/dberrors/postgres"
)

// pushed blobs get this long to be attached to a run before
// the gc loop may take them.
const orphanGrace = time.Hour

type pgArtifact struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) kdbartifact.Interface {
	return &pgArtifact{pool: pool}
}

func (a *pgArtifact) Register(ctx context.Context, digest string, size int64) (domain.Artifact, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return domain.Artifact{}, err
	}
	defer conn.Release()

	if _, err := conn.Exec(
		ctx,
		`
		insert into "artifact" ("digest", "size")
		values ($1, $2)
		on conflict ("digest") do nothing
		`,
		digest, size,
	); err != nil {
		return domain.Artifact{}, err
	}

	arti := domain.Artifact{}
	if err := conn.QueryRow(
		ctx,
		`select "digest", "size", "created_at" from "artifact" where "digest" = $1`,
		digest,
	).Scan(&arti.Digest, &arti.Size, &arti.CreatedAt); err != nil {
		return domain.Artifact{}, err
	}

	if arti.Size != size {
		return domain.Artifact{}, kpgerr.Conflict{
			Table:    "artifact",
			Identity: "digest = " + digest + " (with different size)",
		}
	}

	return arti, nil
}

func (a *pgArtifact) Get(ctx context.Context, digests []string) (map[string]domain.Artifact, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "digest", "size", "created_at" from "artifact"
		where "digest" = any($1::varchar[])
		`,
		digests,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[string]domain.Artifact{}
	for rows.Next() {
		arti := domain.Artifact{}
		if err := rows.Scan(&arti.Digest, &arti.Size, &arti.CreatedAt); err != nil {
			return nil, err
		}
		result[arti.Digest] = arti
	}

	return result, nil
}

func (a *pgArtifact) PopOrphaned(ctx context.Context, callback func(domain.Artifact) error) (bool, error) {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	arti := domain.Artifact{}
	if err := tx.QueryRow(
		ctx,
		`
		select "digest", "size", "created_at" from "artifact"
		where "created_at" + make_interval(secs => $1::double precision) < now()
			and not exists (
				select 1 from "run_artifact" where "run_artifact"."digest" = "artifact"."digest"
			)
			and not exists (
				select 1 from "model_version" where "model_version"."digest" = "artifact"."digest"
			)
		order by "created_at"
		limit 1
		for update skip locked
		`,
		orphanGrace.Seconds(),
	).Scan(&arti.Digest, &arti.Size, &arti.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if err := callback(arti); err != nil {
		return false, err
	}

	if _, err := tx.Exec(
		ctx, `delete from "artifact" where "digest" = $1`, arti.Digest,
	); err != nil {
		return true, err
	}

	if err := tx.Commit(ctx); err != nil {
		return true, err
	}
	return true, nil
}
