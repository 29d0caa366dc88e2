package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	apiruns "github.com/modelyard/modelyard-api-types/runs"
	apitags "github.com/modelyard/modelyard-api-types/tags"
	binderr "github.com/modelyard/modelyard/pkg/api-types-binding/errors"
	bindruns "github.com/modelyard/modelyard/pkg/api-types-binding/runs"
	"github.com/modelyard/modelyard/pkg/domain"
	domerr "github.com/modelyard/modelyard/pkg/domain/errors"
	kdbexp "github.com/modelyard/modelyard/pkg/domain/experiment/db"
	kdbrun "github.com/modelyard/modelyard/pkg/domain/run/db"
	"github.com/modelyard/modelyard/pkg/utils"
	"github.com/modelyard/modelyard/pkg/utils/pointer"
	kstrings "github.com/modelyard/modelyard/pkg/utils/strings"
)

func CreateRunHandler(
	dbRun kdbrun.Interface,
	dbExperiment kdbexp.Interface,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		if strings.ToLower(req.Header.Get("content-type")) != "application/json" {
			return binderr.BadRequest(
				"unexpected content type. it shoule be application/json", nil,
			)
		}

		specInReq := new(apiruns.Spec)
		if err := json.NewDecoder(req.Body).Decode(specInReq); err != nil {
			return binderr.BadRequest(
				"can not understand the requested json", err,
			)
		}
		if specInReq.ExperimentId == "" {
			return binderr.BadRequest(`"experimentId" is required`, nil)
		}
		if specInReq.TimeoutSeconds < 0 {
			return binderr.BadRequest(`"timeoutSeconds" should not be negative`, nil)
		}

		spec := domain.RunSpec{
			ExperimentId: specInReq.ExperimentId,
			Name:         specInReq.Name,
			Params:       specInReq.Params,
			Tags: utils.Map(specInReq.Tags, func(ut apitags.UserTag) domain.Tag {
				return domain.Tag{Key: ut.Key, Value: ut.Value}
			}),
			Timeout: time.Duration(specInReq.TimeoutSeconds) * time.Second,
		}

		runId, err := dbRun.New(ctx, spec)
		if err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.BadRequest(
					fmt.Sprintf("experiment %s is not found", spec.ExperimentId), err,
				)
			}
			return binderr.InternalServerError(err)
		}

		resp, err := getRunDetail(ctx, dbRun, dbExperiment, runId)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func FindRunHandler(
	dbRun kdbrun.Interface,
	dbExperiment kdbexp.Interface,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		query, err := func(c echo.Context) (domain.RunFindQuery, error) {
			result := domain.RunFindQuery{
				ExperimentId: kstrings.SplitIfNotEmpty(c.QueryParam("experiment"), ","),
			}

			for _, s := range kstrings.SplitIfNotEmpty(c.QueryParam("status"), ",") {
				status, err := domain.AsRunStatus(s)
				if err != nil {
					return domain.RunFindQuery{}, binderr.BadRequest(
						`"status" should be one of "scheduled", "running", "finished", "failed" or "killed"`,
						err,
					)
				}
				result.Status = append(result.Status, status)
			}

			for _, expr := range kstrings.SplitIfNotEmpty(c.QueryParam("tag"), ",") {
				tag := apitags.Tag{}
				if err := tag.Parse(expr); err != nil {
					return domain.RunFindQuery{}, binderr.BadRequest(
						`"tag" should be formatted as KEY:VALUE`, err,
					)
				}
				result.Tag = append(result.Tag, domain.Tag{Key: tag.Key, Value: tag.Value})
			}

			if since := c.QueryParam("since"); since != "" {
				t, err := rfctime.ParseLooseRFC3339(since)
				if err != nil {
					return domain.RunFindQuery{}, binderr.BadRequest(
						`"since" should be a RFC3339 date-time format`, err,
					)
				}
				result.UpdatedSince = pointer.Ref(t.Time())
			}

			if duration := c.QueryParam("duration"); duration != "" {
				if result.UpdatedSince == nil {
					return domain.RunFindQuery{}, binderr.BadRequest(
						`"duration" requires "since"`, nil,
					)
				}
				d, err := time.ParseDuration(duration)
				if err != nil {
					return domain.RunFindQuery{}, binderr.BadRequest(
						`"duration" should be a Go duration format`, err,
					)
				}
				result.UpdatedUntil = pointer.Ref(result.UpdatedSince.Add(d))
			}

			return result, nil
		}(c)
		if err != nil {
			return err
		}

		runIds, err := dbRun.Find(ctx, query)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		runs, err := dbRun.Get(ctx, runIds)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		experiments, err := experimentsOf(ctx, dbExperiment, utils.ValuesOf(runs))
		if err != nil {
			return binderr.InternalServerError(err)
		}

		resp := make([]apiruns.Detail, 0, len(runs))
		for _, runId := range runIds {
			run, ok := runs[runId]
			if !ok {
				continue
			}
			resp = append(resp, bindruns.ComposeDetail(
				experiments[run.ExperimentId], run,
			))
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func GetRunHandler(
	dbRun kdbrun.Interface,
	dbExperiment kdbexp.Interface,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		runId := c.Param("runId")

		resp, err := getRunDetail(ctx, dbRun, dbExperiment, runId)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func AddMetricsHandler(dbRun kdbrun.Interface, paramRunId string) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		runId := c.Param(paramRunId)

		if strings.ToLower(req.Header.Get("content-type")) != "application/json" {
			return binderr.BadRequest(
				"unexpected content type. it shoule be application/json", nil,
			)
		}

		pointsInReq := []apiruns.MetricPoint{}
		if err := json.NewDecoder(req.Body).Decode(&pointsInReq); err != nil {
			return binderr.BadRequest(
				"can not understand the requested json", err,
			)
		}
		if len(pointsInReq) == 0 {
			return binderr.BadRequest("no metric points are given", nil)
		}
		for _, p := range pointsInReq {
			if p.Key == "" {
				return binderr.BadRequest(`metric "key" is required`, nil)
			}
		}

		points := utils.Map(pointsInReq, asDomainMetricPoint)
		if err := dbRun.AddMetrics(ctx, runId, points); err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			if errors.Is(err, domain.ErrRunNotRunning) {
				return binderr.Conflict(
					"metrics are accepted for running runs only",
					binderr.WithError(err),
				)
			}
			return binderr.InternalServerError(err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}

func FinishRunHandler(
	dbRun kdbrun.Interface,
	dbExperiment kdbexp.Interface,
	paramRunId string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		runId := c.Param(paramRunId)

		outcomeInReq := new(apiruns.Outcome)
		if err := json.NewDecoder(req.Body).Decode(outcomeInReq); err != nil {
			return binderr.BadRequest(
				"can not understand the requested json", err,
			)
		}

		status, err := domain.AsRunStatus(outcomeInReq.Status)
		if err != nil || (status != domain.Finished && status != domain.Failed) {
			return binderr.BadRequest(
				`"status" should be "finished" or "failed"`, err,
			)
		}

		outcome := domain.RunOutcome{
			Status:  status,
			Metrics: utils.Map(outcomeInReq.Metrics, asDomainMetricPoint),
		}

		if err := dbRun.Finish(ctx, runId, outcome); err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			if errors.Is(err, domain.ErrInvalidRunStateChanging) {
				return binderr.Conflict(
					"the run has ended already",
					binderr.WithError(err),
				)
			}
			return binderr.InternalServerError(err)
		}

		resp, err := getRunDetail(ctx, dbRun, dbExperiment, runId)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func StopRunHandler(
	dbRun kdbrun.Interface,
	dbExperiment kdbexp.Interface,
	paramRunId string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		runId := c.Param(paramRunId)

		if err := dbRun.SetStatus(ctx, runId, domain.Killed); err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			if errors.Is(err, domain.ErrInvalidRunStateChanging) {
				return binderr.Conflict(
					"the run has ended already",
					binderr.WithError(err),
				)
			}
			return binderr.InternalServerError(err)
		}

		resp, err := getRunDetail(ctx, dbRun, dbExperiment, runId)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func asDomainMetricPoint(p apiruns.MetricPoint) domain.MetricPoint {
	recordedAt := p.RecordedAt.Time()
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	return domain.MetricPoint{
		Key:        p.Key,
		Value:      p.Value,
		Step:       p.Step,
		RecordedAt: recordedAt,
	}
}

// getRunDetail reads a run and its experiment, composed for response.
//
// The error, if any, is ready to be returned from a handler.
func getRunDetail(
	ctx context.Context,
	dbRun kdbrun.Interface,
	dbExperiment kdbexp.Interface,
	runId string,
) (apiruns.Detail, error) {
	runs, err := dbRun.Get(ctx, []string{runId})
	if err != nil {
		return apiruns.Detail{}, binderr.InternalServerError(err)
	}
	run, ok := runs[runId]
	if !ok {
		return apiruns.Detail{}, binderr.NotFound()
	}

	experiments, err := experimentsOf(ctx, dbExperiment, []domain.Run{run})
	if err != nil {
		return apiruns.Detail{}, binderr.InternalServerError(err)
	}

	return bindruns.ComposeDetail(experiments[run.ExperimentId], run), nil
}

func experimentsOf(
	ctx context.Context,
	dbExperiment kdbexp.Interface,
	runs []domain.Run,
) (map[string]domain.Experiment, error) {
	ids := map[string]struct{}{}
	for _, r := range runs {
		ids[r.ExperimentId] = struct{}{}
	}
	return dbExperiment.Get(ctx, utils.KeysOf(ids))
}
