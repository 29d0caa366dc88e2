package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	kpool "github.com/modelyard/modelyard/pkg/conn/db/postgres/pool"
	"github.com/modelyard/modelyard/pkg/domain"
	domerr "github.com/modelyard/modelyard/pkg/domain/errors"
	kpgerr "github.com/modelyard/modelyard/pkg/domain/errors/dberrors/postgres"
	kpgintr "github.com/modelyard/modelyard/pkg/domain/internal/db/postgres"
	kdbmodel "github.com/modelyard/modelyard/pkg/domain/model/db"
	"github.com/modelyard/modelyard/pkg/utils"
)

type pgModel struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) kdbmodel.Interface {
	return &pgModel{pool: pool}
}

func (m *pgModel) Register(ctx context.Context, spec domain.ModelSpec) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(
		ctx,
		`
		insert into "model" (
			"name", "description",
			"gate_metric", "gate_threshold", "gate_require_improvement"
		)
		values ($1, $2, $3, $4, $5)
		on conflict ("name") do nothing
		`,
		spec.Name, spec.Description,
		spec.Gate.Metric, spec.Gate.Threshold, spec.Gate.RequireImprovement,
	); err != nil {
		return err
	}

	if err := kpgintr.InsertUserTags(
		ctx, tx, kpgintr.TagTableOfModel, spec.Name, domain.NewTagSet(spec.Tags),
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (m *pgModel) Get(ctx context.Context, names []string) (map[string]domain.Model, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return getModels(ctx, conn, names)
}

func getModels(ctx context.Context, conn kpool.Queryer, names []string) (map[string]domain.Model, error) {
	rows, err := conn.Query(
		ctx,
		`
		select
			"name", "description",
			"gate_metric", "gate_threshold", "gate_require_improvement",
			"created_at"
		from "model"
		where "name" = any($1::varchar[])
		`,
		names,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[string]domain.Model{}
	for rows.Next() {
		mdl := domain.Model{}
		if err := rows.Scan(
			&mdl.Name, &mdl.Description,
			&mdl.Gate.Metric, &mdl.Gate.Threshold, &mdl.Gate.RequireImprovement,
			&mdl.CreatedAt,
		); err != nil {
			return nil, err
		}
		result[mdl.Name] = mdl
	}

	found := utils.KeysOf(result)

	versions, err := getVersionsOf(ctx, conn, found)
	if err != nil {
		return nil, err
	}

	utags, err := kpgintr.UserTagsOf(ctx, conn, kpgintr.TagTableOfModel, found)
	if err != nil {
		return nil, err
	}

	for name, mdl := range result {
		mdl.Versions = versions[name]
		mdl.Tags = domain.NewTagSet(append(
			utags[name],
			domain.Tag{Key: domain.KeyYardId, Value: mdl.Name},
			domain.NewTimestampTag(mdl.CreatedAt),
		))
		result[name] = mdl
	}

	return result, nil
}

// load versions of models, newest first per model, with their gate results.
func getVersionsOf(ctx context.Context, conn kpool.Queryer, names []string) (map[string][]domain.ModelVersion, error) {
	rows, err := conn.Query(
		ctx,
		`
		select
			"model_name", "version", "run_id",
			"artifact_name", "model_version"."digest", "size",
			"status", "stage", "model_version"."created_at", "updated_at"
		from "model_version"
		inner join "artifact" using ("digest")
		where "model_name" = any($1::varchar[])
		order by "model_name", "version" desc
		`,
		names,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[string][]domain.ModelVersion{}
	for rows.Next() {
		mv := domain.ModelVersion{}
		var status, stage string
		if err := rows.Scan(
			&mv.ModelName, &mv.Version, &mv.RunId,
			&mv.Artifact.Name, &mv.Artifact.Digest, &mv.Artifact.Size,
			&status, &stage, &mv.CreatedAt, &mv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if mv.Status, err = domain.AsVersionStatus(status); err != nil {
			return nil, err
		}
		if mv.Stage, err = domain.AsStage(stage); err != nil {
			return nil, err
		}
		result[mv.ModelName] = append(result[mv.ModelName], mv)
	}

	evals, err := conn.Query(
		ctx,
		`
		select
			"model_name", "version", "gate", "passed", "value", "detail", "evaluated_at"
		from "gate_result"
		where "model_name" = any($1::varchar[])
		order by "id"
		`,
		names,
	)
	if err != nil {
		return nil, err
	}
	defer evals.Close()

	for evals.Next() {
		var name string
		var version int
		var gate string
		gr := domain.GateResult{}
		if err := evals.Scan(
			&name, &version, &gate, &gr.Passed, &gr.Value, &gr.Detail, &gr.EvaluatedAt,
		); err != nil {
			return nil, err
		}
		if gr.Gate, err = domain.AsGateKind(gate); err != nil {
			return nil, err
		}

		vs := result[name]
		for i := range vs {
			if vs[i].Version == version {
				vs[i].Evaluations = append(vs[i].Evaluations, gr)
				break
			}
		}
	}

	return result, nil
}

func (m *pgModel) Find(ctx context.Context, query domain.ModelFindQuery) ([]string, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var stages interface{}
	if 0 < len(query.Stage) {
		stages = utils.Map(query.Stage, domain.Stage.String)
	}

	rows, err := conn.Query(
		ctx,
		`
		select "name" from "model"
		where ($1 = '' or "name" = $1)
			and (
				$2::modelStage[] is null
				or exists (
					select 1 from "model_version"
					where "model_name" = "model"."name"
						and "stage" = any($2::modelStage[])
				)
			)
		order by "name"
		`,
		query.Name, stages,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return kpgintr.FilterIdsByTags(
		ctx, conn, kpgintr.TagTableOfModel, names, domain.NewTagSet(query.Tag),
	)
}

// lock the model row and return its gate policy.
func lockModel(ctx context.Context, tx kpool.Tx, name string) (domain.GatePolicy, error) {
	policy := domain.GatePolicy{}
	if err := tx.QueryRow(
		ctx,
		`
		select "gate_metric", "gate_threshold", "gate_require_improvement"
		from "model" where "name" = $1 for update
		`,
		name,
	).Scan(&policy.Metric, &policy.Threshold, &policy.RequireImprovement); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return policy, kpgerr.Missing{Table: "model", Identity: "name = " + name}
		}
		return policy, err
	}
	return policy, nil
}

func (m *pgModel) NewVersion(ctx context.Context, name string, runId string, digest string) (domain.ModelVersion, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return domain.ModelVersion{}, err
	}
	defer tx.Rollback(ctx)

	if _, err := lockModel(ctx, tx, name); err != nil {
		return domain.ModelVersion{}, err
	}

	{
		var status string
		if err := tx.QueryRow(
			ctx, `select "status" from "run" where "id" = $1`, runId,
		).Scan(&status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ModelVersion{}, kpgerr.Missing{
					Table: "run", Identity: "id = " + runId,
				}
			}
			return domain.ModelVersion{}, err
		}
		runStatus, err := domain.AsRunStatus(status)
		if err != nil {
			return domain.ModelVersion{}, err
		}
		if runStatus != domain.Finished {
			return domain.ModelVersion{}, fmt.Errorf(
				"%w: run %s is %s", domain.ErrRunNotFinished, runId, runStatus,
			)
		}
	}

	var artifactName string
	if err := tx.QueryRow(
		ctx,
		`
		select min("name") from "run_artifact"
		where "run_id" = $1 and "digest" = $2
		group by "run_id"
		`,
		runId, digest,
	).Scan(&artifactName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ModelVersion{}, kpgerr.Missing{
				Table: "run_artifact",
				Identity: fmt.Sprintf("run_id = %s, digest = %s", runId, digest),
			}
		}
		return domain.ModelVersion{}, err
	}

	var version int
	if err := tx.QueryRow(
		ctx,
		`
		insert into "model_version" (
			"model_name", "version", "run_id", "artifact_name", "digest",
			"status", "stage"
		)
		select $1, coalesce(max("version"), 0) + 1, $2, $3, $4, 'pending', 'none'
		from "model_version" where "model_name" = $1
		returning "version"
		`,
		name, runId, artifactName, digest,
	).Scan(&version); err != nil {
		return domain.ModelVersion{}, err
	}

	created, err := getVersion(ctx, tx, name, version)
	if err != nil {
		return domain.ModelVersion{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ModelVersion{}, err
	}
	return created, nil
}

func getVersion(ctx context.Context, conn kpool.Queryer, name string, version int) (domain.ModelVersion, error) {
	versions, err := getVersionsOf(ctx, conn, []string{name})
	if err != nil {
		return domain.ModelVersion{}, err
	}
	for _, v := range versions[name] {
		if v.Version == version {
			return v, nil
		}
	}
	return domain.ModelVersion{}, kpgerr.Missing{
		Table:    "model_version",
		Identity: fmt.Sprintf("model_name = %s, version = %d", name, version),
	}
}

func (m *pgModel) Versions(ctx context.Context, name string) ([]domain.ModelVersion, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	if err := conn.QueryRow(
		ctx, `select 1 from "model" where "name" = $1`, name,
	).Scan(new(int)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, kpgerr.Missing{Table: "model", Identity: "name = " + name}
		}
		return nil, err
	}

	versions, err := getVersionsOf(ctx, conn, []string{name})
	if err != nil {
		return nil, err
	}
	return versions[name], nil
}

func (m *pgModel) GetVersion(ctx context.Context, name string, version int) (domain.ModelVersion, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return domain.ModelVersion{}, err
	}
	defer conn.Release()

	return getVersion(ctx, conn, name, version)
}

func (m *pgModel) PopPending(ctx context.Context, callback func(domain.ModelVersion) ([]domain.GateResult, error)) (bool, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var name string
	var version int
	if err := tx.QueryRow(
		ctx,
		`
		select "model_name", "version" from "model_version"
		where "status" = 'pending'
		order by "created_at"
		limit 1
		for update skip locked
		`,
	).Scan(&name, &version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	picked, err := getVersion(ctx, tx, name, version)
	if err != nil {
		return false, err
	}

	results, err := callback(picked)
	if err != nil {
		return false, err
	}

	for _, r := range results {
		var evaluatedAt interface{}
		if !r.EvaluatedAt.IsZero() {
			evaluatedAt = r.EvaluatedAt
		}
		if _, err := tx.Exec(
			ctx,
			`
			insert into "gate_result" (
				"model_name", "version", "gate", "passed", "value", "detail", "evaluated_at"
			)
			values ($1, $2, $3, $4, $5, $6, coalesce($7::timestamp with time zone, now()))
			`,
			name, version, r.Gate.String(), r.Passed, r.Value, r.Detail, evaluatedAt,
		); err != nil {
			return false, err
		}
	}

	newStatus := domain.VersionStatusFromResults(results)
	if _, err := tx.Exec(
		ctx,
		`
		update "model_version"
		set "status" = $3, "updated_at" = now()
		where "model_name" = $1 and "version" = $2
		`,
		name, version, newStatus.String(),
	); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (m *pgModel) Promote(ctx context.Context, name string, version int, stage domain.Stage) (domain.ModelVersion, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return domain.ModelVersion{}, err
	}
	defer tx.Rollback(ctx)

	policy, err := lockModel(ctx, tx, name)
	if err != nil {
		return domain.ModelVersion{}, err
	}

	target, err := getVersion(ctx, tx, name, version)
	if err != nil {
		return domain.ModelVersion{}, err
	}

	if !target.Stage.CanTransitTo(stage) {
		return domain.ModelVersion{}, domain.NewErrInvalidStageChanging(target.Stage, stage)
	}

	if stage == domain.StageStaging || stage == domain.StageProduction {
		if target.Status != domain.ReadyVersion {
			return domain.ModelVersion{}, fmt.Errorf(
				"%w: %s version %d is %s",
				domain.ErrVersionNotReady, name, version, target.Status,
			)
		}
	}

	if stage == domain.StageProduction {
		var incumbent *float64
		current, err := currentVersionOf(ctx, tx, name, domain.StageProduction)
		switch {
		case err == nil:
			incumbent = current.PerformanceValue()
		case errors.Is(err, domerr.ErrMissing):
			// no production version yet
		default:
			return domain.ModelVersion{}, err
		}

		if ok, detail := policy.Admits(target.PerformanceValue(), incumbent); !ok {
			return domain.ModelVersion{}, domain.NewErrPromotionBlocked(detail)
		}
	}

	// archive whichever version held the target stage
	if stage == domain.StageStaging || stage == domain.StageProduction {
		if _, err := tx.Exec(
			ctx,
			`
			update "model_version"
			set "stage" = 'archived', "updated_at" = now()
			where "model_name" = $1 and "stage" = $2
			`,
			name, stage.String(),
		); err != nil {
			return domain.ModelVersion{}, err
		}
	}

	if _, err := tx.Exec(
		ctx,
		`
		update "model_version"
		set "stage" = $3, "updated_at" = now()
		where "model_name" = $1 and "version" = $2
		`,
		name, version, stage.String(),
	); err != nil {
		return domain.ModelVersion{}, err
	}

	promoted, err := getVersion(ctx, tx, name, version)
	if err != nil {
		return domain.ModelVersion{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ModelVersion{}, err
	}
	return promoted, nil
}

func (m *pgModel) CurrentOf(ctx context.Context, name string, stage domain.Stage) (domain.ModelVersion, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return domain.ModelVersion{}, err
	}
	defer conn.Release()

	return currentVersionOf(ctx, conn, name, stage)
}

func currentVersionOf(ctx context.Context, conn kpool.Queryer, name string, stage domain.Stage) (domain.ModelVersion, error) {
	if stage != domain.StageStaging && stage != domain.StageProduction {
		return domain.ModelVersion{}, fmt.Errorf(
			"stage %s does not identify a single version", stage,
		)
	}

	var version int
	if err := conn.QueryRow(
		ctx,
		`
		select "version" from "model_version"
		where "model_name" = $1 and "stage" = $2
		`,
		name, stage.String(),
	).Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ModelVersion{}, kpgerr.Missing{
				Table:    "model_version",
				Identity: fmt.Sprintf("model_name = %s, stage = %s", name, stage),
			}
		}
		return domain.ModelVersion{}, err
	}

	return getVersion(ctx, conn, name, version)
}
