package run

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	kpool "github.com/modelyard/modelyard/pkg/conn/db/postgres/pool"
	"github.com/modelyard/modelyard/pkg/domain"
	kpgerr "github.com/modelyard/modelyard/pkg/domain/errors/dberrors/postgres"
	kpgintr "github.com/modelyard/modelyard/pkg/domain/internal/db/postgres"
	kdbrun "github.com/modelyard/modelyard/pkg/domain/run/db"
	"github.com/modelyard/modelyard/pkg/utils"
)

type pgRun struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) kdbrun.Interface {
	return &pgRun{pool: pool}
}

func (r *pgRun) New(ctx context.Context, spec domain.RunSpec) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	id := uuid.NewString()

	if _, err := tx.Exec(
		ctx,
		`
		insert into "run" ("id", "experiment_id", "name", "status", "deadline_at")
		values (
			$1, $2, $3, 'scheduled',
			case when $4::double precision <= 0 then null
			     else now() + make_interval(secs => $4::double precision) end
		)
		`,
		id, spec.ExperimentId, spec.Name, spec.Timeout.Seconds(),
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return "", kpgerr.Missing{
				Table: "experiment", Identity: "id = " + spec.ExperimentId,
			}
		}
		return "", err
	}

	for key, value := range spec.Params {
		if _, err := tx.Exec(
			ctx,
			`insert into "run_param" ("run_id", "key", "value") values ($1, $2, $3)`,
			id, key, value,
		); err != nil {
			return "", err
		}
	}

	if err := kpgintr.InsertUserTags(
		ctx, tx, kpgintr.TagTableOfRun, id, domain.NewTagSet(spec.Tags),
	); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (r *pgRun) Get(ctx context.Context, runId []string) (map[string]domain.Run, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return getRuns(ctx, conn, runId)
}

func getRuns(ctx context.Context, conn kpool.Queryer, runId []string) (map[string]domain.Run, error) {
	rows, err := conn.Query(
		ctx,
		`
		select
			"id", "experiment_id", "name", "status",
			"created_at", "updated_at", "deadline_at", "ended_at"
		from "run"
		where "id" = any($1::varchar[])
		`,
		runId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[string]domain.Run{}
	for rows.Next() {
		body := domain.RunBody{}
		var status string
		if err := rows.Scan(
			&body.Id, &body.ExperimentId, &body.Name, &status,
			&body.CreatedAt, &body.UpdatedAt, &body.DeadlineAt, &body.EndedAt,
		); err != nil {
			return nil, err
		}
		body.Status, err = domain.AsRunStatus(status)
		if err != nil {
			return nil, err
		}
		body.Params = map[string]string{}
		result[body.Id] = domain.Run{RunBody: body}
	}

	ids := utils.KeysOf(result)

	{
		rows, err := conn.Query(
			ctx,
			`select "run_id", "key", "value" from "run_param" where "run_id" = any($1::varchar[])`,
			ids,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var runId, key, value string
			if err := rows.Scan(&runId, &key, &value); err != nil {
				return nil, err
			}
			result[runId].Params[key] = value
		}
	}

	{
		rows, err := conn.Query(
			ctx,
			`
			select "run_id", "key", "value", "step", "recorded_at"
			from "run_metric_latest"
			where "run_id" = any($1::varchar[])
			order by "key"
			`,
			ids,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var runId string
			point := domain.MetricPoint{}
			if err := rows.Scan(
				&runId, &point.Key, &point.Value, &point.Step, &point.RecordedAt,
			); err != nil {
				return nil, err
			}
			run := result[runId]
			run.Metrics = append(run.Metrics, point)
			result[runId] = run
		}
	}

	{
		rows, err := conn.Query(
			ctx,
			`
			select "run_id", "name", "digest", "size"
			from "run_artifact"
			inner join "artifact" using ("digest")
			where "run_id" = any($1::varchar[])
			order by "name"
			`,
			ids,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var runId string
			ref := domain.ArtifactRef{}
			if err := rows.Scan(&runId, &ref.Name, &ref.Digest, &ref.Size); err != nil {
				return nil, err
			}
			run := result[runId]
			run.Artifacts = append(run.Artifacts, ref)
			result[runId] = run
		}
	}

	utags, err := kpgintr.UserTagsOf(ctx, conn, kpgintr.TagTableOfRun, ids)
	if err != nil {
		return nil, err
	}
	for id, run := range result {
		tags := append(
			utags[id],
			domain.Tag{Key: domain.KeyYardId, Value: run.Id},
			domain.NewTimestampTag(run.CreatedAt),
		)
		run.Tags = domain.NewTagSet(tags)
		result[id] = run
	}

	return result, nil
}

func (r *pgRun) Find(ctx context.Context, query domain.RunFindQuery) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var experimentIds interface{}
	if 0 < len(query.ExperimentId) {
		experimentIds = query.ExperimentId
	}
	var statuses interface{}
	if 0 < len(query.Status) {
		statuses = utils.Map(query.Status, domain.RunStatus.String)
	}

	rows, err := conn.Query(
		ctx,
		`
		select "id" from "run"
		where ($1::varchar[] is null or "experiment_id" = any($1::varchar[]))
			and ($2::runStatus[] is null or "status" = any($2::runStatus[]))
			and ($3::timestamp with time zone is null or $3 <= "updated_at")
			and ($4::timestamp with time zone is null or "updated_at" < $4)
		order by "created_at"
		`,
		experimentIds, statuses, query.UpdatedSince, query.UpdatedUntil,
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

	return kpgintr.FilterIdsByTags(
		ctx, conn, kpgintr.TagTableOfRun, ids, domain.NewTagSet(query.Tag),
	)
}

// lock the run row and return its current status.
func lockRun(ctx context.Context, tx kpool.Tx, runId string) (domain.RunStatus, error) {
	var status string
	if err := tx.QueryRow(
		ctx,
		`select "status" from "run" where "id" = $1 for update`,
		runId,
	).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", kpgerr.Missing{Table: "run", Identity: "id = " + runId}
		}
		return "", err
	}
	return domain.AsRunStatus(status)
}

func (r *pgRun) SetStatus(ctx context.Context, runId string, newStatus domain.RunStatus) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	current, err := lockRun(ctx, tx, runId)
	if err != nil {
		return err
	}
	if !current.CanTransitTo(newStatus) {
		return domain.NewErrInvalidRunStateChanging(current, newStatus)
	}

	if err := updateRunStatus(ctx, tx, runId, newStatus); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func updateRunStatus(ctx context.Context, tx kpool.Tx, runId string, newStatus domain.RunStatus) error {
	_, err := tx.Exec(
		ctx,
		`
		update "run"
		set "status" = $2,
			"updated_at" = now(),
			"ended_at" = case when $3 then now() else "ended_at" end
		where "id" = $1
		`,
		runId, newStatus.String(), newStatus.IsTerminal(),
	)
	return err
}

func (r *pgRun) AddMetrics(ctx context.Context, runId string, points []domain.MetricPoint) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	current, err := lockRun(ctx, tx, runId)
	if err != nil {
		return err
	}
	if current != domain.Running {
		return domain.ErrRunNotRunning
	}

	if err := insertMetrics(ctx, tx, runId, points); err != nil {
		return err
	}

	if _, err := tx.Exec(
		ctx,
		`update "run" set "updated_at" = now() where "id" = $1`,
		runId,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertMetrics(ctx context.Context, tx kpool.Tx, runId string, points []domain.MetricPoint) error {
	for _, p := range points {
		var recordedAt interface{}
		if !p.RecordedAt.IsZero() {
			recordedAt = p.RecordedAt
		}

		if _, err := tx.Exec(
			ctx,
			`
			insert into "run_metric" ("run_id", "key", "value", "step", "recorded_at")
			values ($1, $2, $3, $4, coalesce($5::timestamp with time zone, now()))
			`,
			runId, p.Key, p.Value, p.Step, recordedAt,
		); err != nil {
			return err
		}

		if _, err := tx.Exec(
			ctx,
			`
			insert into "run_metric_latest" ("run_id", "key", "value", "step", "recorded_at")
			values ($1, $2, $3, $4, coalesce($5::timestamp with time zone, now()))
			on conflict ("run_id", "key") do update
			set "value" = excluded."value",
				"step" = excluded."step",
				"recorded_at" = excluded."recorded_at"
			where "run_metric_latest"."step" <= excluded."step"
			`,
			runId, p.Key, p.Value, p.Step, recordedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *pgRun) Finish(ctx context.Context, runId string, outcome domain.RunOutcome) error {
	if outcome.Status != domain.Finished && outcome.Status != domain.Failed {
		return domain.NewErrInvalidRunStateChanging(domain.Running, outcome.Status)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	current, err := lockRun(ctx, tx, runId)
	if err != nil {
		return err
	}
	if !current.CanTransitTo(outcome.Status) {
		return domain.NewErrInvalidRunStateChanging(current, outcome.Status)
	}

	if err := insertMetrics(ctx, tx, runId, outcome.Metrics); err != nil {
		return err
	}
	if err := updateRunStatus(ctx, tx, runId, outcome.Status); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *pgRun) AttachArtifact(ctx context.Context, runId string, name string, digest string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	current, err := lockRun(ctx, tx, runId)
	if err != nil {
		return err
	}
	if current != domain.Running {
		return domain.ErrRunNotRunning
	}

	// re-pushing the same content under the same name is a no-op,
	// but a name cannot silently switch to other content.
	var boundDigest string
	if err := tx.QueryRow(
		ctx,
		`
		insert into "run_artifact" ("run_id", "name", "digest")
		values ($1, $2, $3)
		on conflict ("run_id", "name") do update set "digest" = "run_artifact"."digest"
		returning "digest"
		`,
		runId, name, digest,
	).Scan(&boundDigest); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return kpgerr.Missing{Table: "artifact", Identity: "digest = " + digest}
		}
		return err
	}
	if boundDigest != digest {
		return kpgerr.Conflict{Table: "run_artifact", Identity: "name = " + name}
	}

	if _, err := tx.Exec(
		ctx,
		`update "run" set "updated_at" = now() where "id" = $1`,
		runId,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *pgRun) PopExpired(ctx context.Context, now time.Time, callback func(domain.Run) error) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var runId string
	if err := tx.QueryRow(
		ctx,
		`
		select "id" from "run"
		where "status" = 'running'
			and "deadline_at" is not null
			and "deadline_at" < $1
		order by "deadline_at"
		limit 1
		for update skip locked
		`,
		now,
	).Scan(&runId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	runs, err := getRuns(ctx, tx, []string{runId})
	if err != nil {
		return false, err
	}
	run, ok := runs[runId]
	if !ok {
		return false, kpgerr.Missing{Table: "run", Identity: "id = " + runId}
	}

	if err := callback(run); err != nil {
		return false, err
	}

	if err := updateRunStatus(ctx, tx, runId, domain.Failed); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
