package release

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	kpool "github.com/modelyard/modelyard/pkg/conn/db/postgres/pool"
	"github.com/modelyard/modelyard/pkg/domain"
	kpgerr "github.com/modelyard/modelyard/pkg/domain/errors/dberrors/postgres"
	kdbrelease "github.com/modelyard/modelyard/pkg/domain/release/db"
)

type pgRelease struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) kdbrelease.Interface {
	return &pgRelease{pool: pool}
}

func (r *pgRelease) Plan(ctx context.Context, spec domain.ReleaseSpec, resolvedDigest string) (domain.Release, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Release{}, err
	}
	defer tx.Rollback(ctx)

	{
		var status string
		if err := tx.QueryRow(
			ctx,
			`
			select "status" from "model_version"
			where "model_name" = $1 and "version" = $2
			for update
			`,
			spec.ModelName, spec.Version,
		).Scan(&status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.Release{}, kpgerr.Missing{
					Table: "model_version",
					Identity: fmt.Sprintf(
						"model_name = %s, version = %d", spec.ModelName, spec.Version,
					),
				}
			}
			return domain.Release{}, err
		}
		versionStatus, err := domain.AsVersionStatus(status)
		if err != nil {
			return domain.Release{}, err
		}
		if versionStatus != domain.ReadyVersion {
			return domain.Release{}, fmt.Errorf(
				"%w: %s version %d is %s",
				domain.ErrVersionNotReady, spec.ModelName, spec.Version, versionStatus,
			)
		}
	}

	slot := domain.SlotBlue
	{
		var liveSlot string
		err := tx.QueryRow(
			ctx,
			`
			select "slot" from "release"
			where "environment" = $1 and "status" = 'live'
			for update
			`,
			spec.Environment,
		).Scan(&liveSlot)
		switch {
		case err == nil:
			s, err := domain.AsSlot(liveSlot)
			if err != nil {
				return domain.Release{}, err
			}
			slot = s.Other()
		case errors.Is(err, pgx.ErrNoRows):
			// no live release. the first one takes blue.
		default:
			return domain.Release{}, err
		}
	}

	// a staged release planned earlier is superseded
	if _, err := tx.Exec(
		ctx,
		`
		update "release" set "status" = 'retired', "updated_at" = now()
		where "environment" = $1 and "status" = 'staged'
		`,
		spec.Environment,
	); err != nil {
		return domain.Release{}, err
	}

	planned := domain.Release{
		Id:          uuid.NewString(),
		Environment: spec.Environment,
		ModelName:   spec.ModelName,
		Version:     spec.Version,
		Image:       spec.Image,
		ImageDigest: resolvedDigest,
		Slot:        slot,
		Status:      domain.Staged,
	}
	if err := tx.QueryRow(
		ctx,
		`
		insert into "release" (
			"id", "environment", "model_name", "version",
			"image", "image_digest", "slot", "status"
		)
		values ($1, $2, $3, $4, $5, $6, $7, 'staged')
		returning "created_at", "updated_at"
		`,
		planned.Id, planned.Environment, planned.ModelName, planned.Version,
		planned.Image, planned.ImageDigest, planned.Slot.String(),
	).Scan(&planned.CreatedAt, &planned.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.Release{}, kpgerr.Conflict{
				Table:    "release",
				Identity: "environment = " + spec.Environment + " (staged)",
			}
		}
		return domain.Release{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Release{}, err
	}
	return planned, nil
}

func (r *pgRelease) Find(ctx context.Context, env string) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "id" from "release"
		where ($1 = '' or "environment" = $1)
		order by "created_at", "id"
		`,
		env,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func (r *pgRelease) Get(ctx context.Context, ids []string) (map[string]domain.Release, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return getReleases(ctx, conn, ids)
}

func getReleases(ctx context.Context, conn kpool.Queryer, ids []string) (map[string]domain.Release, error) {
	rows, err := conn.Query(
		ctx,
		`
		select
			"id", "environment", "model_name", "version",
			"image", "image_digest", "slot", "status",
			"created_at", "updated_at"
		from "release"
		where "id" = any($1::varchar[])
		`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[string]domain.Release{}
	for rows.Next() {
		rel := domain.Release{}
		var slot, status string
		if err := rows.Scan(
			&rel.Id, &rel.Environment, &rel.ModelName, &rel.Version,
			&rel.Image, &rel.ImageDigest, &slot, &status,
			&rel.CreatedAt, &rel.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if rel.Slot, err = domain.AsSlot(slot); err != nil {
			return nil, err
		}
		if rel.Status, err = domain.AsReleaseStatus(status); err != nil {
			return nil, err
		}
		result[rel.Id] = rel
	}

	return result, nil
}

func (r *pgRelease) Switch(ctx context.Context, id string) (domain.Release, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Release{}, err
	}
	defer tx.Rollback(ctx)

	var env, status string
	if err := tx.QueryRow(
		ctx,
		`select "environment", "status" from "release" where "id" = $1 for update`,
		id,
	).Scan(&env, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Release{}, kpgerr.Missing{
				Table: "release", Identity: "id = " + id,
			}
		}
		return domain.Release{}, err
	}

	releaseStatus, err := domain.AsReleaseStatus(status)
	if err != nil {
		return domain.Release{}, err
	}
	if releaseStatus != domain.Staged {
		return domain.Release{}, fmt.Errorf(
			"%w: release %s is %s", domain.ErrReleaseNotStaged, id, releaseStatus,
		)
	}

	// retire first. each environment keeps at most one live release.
	if _, err := tx.Exec(
		ctx,
		`
		update "release" set "status" = 'retired', "updated_at" = now()
		where "environment" = $1 and "status" = 'live'
		`,
		env,
	); err != nil {
		return domain.Release{}, err
	}

	if _, err := tx.Exec(
		ctx,
		`update "release" set "status" = 'live', "updated_at" = now() where "id" = $1`,
		id,
	); err != nil {
		return domain.Release{}, err
	}

	switched, err := getReleases(ctx, tx, []string{id})
	if err != nil {
		return domain.Release{}, err
	}
	live, ok := switched[id]
	if !ok {
		return domain.Release{}, kpgerr.Missing{
			Table: "release", Identity: "id = " + id,
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Release{}, err
	}
	return live, nil
}

func (r *pgRelease) CurrentOf(ctx context.Context, env string) (domain.Release, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return domain.Release{}, err
	}
	defer conn.Release()

	var id string
	if err := conn.QueryRow(
		ctx,
		`select "id" from "release" where "environment" = $1 and "status" = 'live'`,
		env,
	).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Release{}, kpgerr.Missing{
				Table:    "release",
				Identity: "environment = " + env + " (live)",
			}
		}
		return domain.Release{}, err
	}

	releases, err := getReleases(ctx, conn, []string{id})
	if err != nil {
		return domain.Release{}, err
	}
	live, ok := releases[id]
	if !ok {
		return domain.Release{}, kpgerr.Missing{
			Table: "release", Identity: "id = " + id,
		}
	}
	return live, nil
}
