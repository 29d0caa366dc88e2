package experiment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	kpool "github.com/modelyard/modelyard/pkg/conn/db/postgres/pool"
	"github.com/modelyard/modelyard/pkg/domain"
	kpgerr "github.com/modelyard/modelyard/pkg/domain/errors/dberrors/postgres"
	kdbexp "github.com/modelyard/modelyard/pkg/domain/experiment/db"
	kpgintr "github.com/modelyard/modelyard/pkg/domain/internal/db/postgres"
	"github.com/modelyard/modelyard/pkg/utils"
)

type pgExperiment struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) kdbexp.Interface {
	return &pgExperiment{pool: pool}
}

func (e *pgExperiment) New(ctx context.Context, spec domain.ExperimentSpec) (domain.Experiment, error) {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return domain.Experiment{}, err
	}
	defer tx.Rollback(ctx)

	id := uuid.NewString()

	var createdAt time.Time
	if err := tx.QueryRow(
		ctx,
		`
		insert into "experiment" ("id", "name", "description")
		values ($1, $2, $3)
		returning "created_at"
		`,
		id, spec.Name, spec.Description,
	).Scan(&createdAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.Experiment{}, kpgerr.Conflict{
				Table: "experiment", Identity: "name = " + spec.Name,
			}
		}
		return domain.Experiment{}, err
	}

	tags := domain.NewTagSet(spec.Tags)
	if err := kpgintr.InsertUserTags(
		ctx, tx, kpgintr.TagTableOfExperiment, id, tags,
	); err != nil {
		return domain.Experiment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Experiment{}, err
	}

	return domain.Experiment{
		Id:          id,
		Name:        spec.Name,
		Description: spec.Description,
		Tags: domain.NewTagSet(append(
			tags.UserTag(),
			domain.Tag{Key: domain.KeyYardId, Value: id},
			domain.NewTimestampTag(createdAt),
		)),
		CreatedAt: createdAt,
	}, nil
}

func (e *pgExperiment) Get(ctx context.Context, ids []string) (map[string]domain.Experiment, error) {
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return getExperiments(ctx, conn, ids)
}

func getExperiments(ctx context.Context, conn kpool.Queryer, ids []string) (map[string]domain.Experiment, error) {
	rows, err := conn.Query(
		ctx,
		`
		select "id", "name", "description", "created_at"
		from "experiment"
		where "id" = any($1::varchar[])
		`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[string]domain.Experiment{}
	for rows.Next() {
		exp := domain.Experiment{}
		if err := rows.Scan(
			&exp.Id, &exp.Name, &exp.Description, &exp.CreatedAt,
		); err != nil {
			return nil, err
		}
		result[exp.Id] = exp
	}

	utags, err := kpgintr.UserTagsOf(
		ctx, conn, kpgintr.TagTableOfExperiment, utils.KeysOf(result),
	)
	if err != nil {
		return nil, err
	}

	for id, exp := range result {
		tags := append(
			utags[id],
			domain.Tag{Key: domain.KeyYardId, Value: exp.Id},
			domain.NewTimestampTag(exp.CreatedAt),
		)
		exp.Tags = domain.NewTagSet(tags)
		result[id] = exp
	}

	return result, nil
}

func (e *pgExperiment) Find(ctx context.Context, query domain.ExperimentFindQuery) ([]domain.Experiment, error) {
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	ids := []string{}
	rows, err := conn.Query(
		ctx,
		`
		select "id" from "experiment"
		where ($1 = '' or "name" = $1)
		order by "created_at"
		`,
		query.Name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	ids, err = kpgintr.FilterIdsByTags(
		ctx, conn, kpgintr.TagTableOfExperiment, ids, domain.NewTagSet(query.Tag),
	)
	if err != nil {
		return nil, err
	}

	found, err := getExperiments(ctx, conn, ids)
	if err != nil {
		return nil, err
	}

	return utils.Sorted(
		utils.ValuesOf(found),
		func(a, b domain.Experiment) bool { return a.Name < b.Name },
	), nil
}
