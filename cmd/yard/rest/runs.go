package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	apiruns "github.com/modelyard/modelyard-api-types/runs"
	apitags "github.com/modelyard/modelyard-api-types/tags"
	"github.com/modelyard/modelyard/pkg/utils"
)

func (c *client) CreateRun(ctx context.Context, spec apiruns.Spec) (apiruns.Detail, error) {
	reqBody, err := json.Marshal(spec)
	if err != nil {
		return apiruns.Detail{}, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath("runs"), bytes.NewReader(reqBody),
	)
	if err != nil {
		return apiruns.Detail{}, err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return apiruns.Detail{}, err
	}
	defer resp.Body.Close()

	res := apiruns.Detail{}
	if err := unmarshalJsonResponse(
		resp, &res,
		MessageFor{
			Status4xx: fmt.Sprintf("opening run is rejected by server (status code = %d)", resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apiruns.Detail{}, err
	}
	return res, nil
}

func (c *client) GetRun(ctx context.Context, runId string) (apiruns.Detail, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("runs", runId), nil,
	)
	if err != nil {
		return apiruns.Detail{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return apiruns.Detail{}, err
	}
	defer resp.Body.Close()

	var run apiruns.Detail
	if err := unmarshalJsonResponse(
		resp, &run,
		MessageFor{
			Status4xx: fmt.Sprintf("runId:%v is not found", runId),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apiruns.Detail{}, err
	}
	return run, nil
}

func (c *client) FindRuns(ctx context.Context, query FindRunsQuery) ([]apiruns.Detail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath("runs"), nil)
	if err != nil {
		return nil, err
	}

	// set query values
	q := req.URL.Query()
	paramMap := map[string][]string{
		"experiment": query.Experiments,
		"status":     query.Status,
		"tag":        utils.Map(query.Tags, apitags.Tag.String),
	}

	if query.Since != nil {
		paramMap["since"] = []string{query.Since.Format(rfctime.RFC3339DateTimeFormatZ)}
	}

	if query.Duration != nil {
		paramMap["duration"] = []string{query.Duration.String()}
	}

	for key, value := range paramMap {
		if len(value) > 0 {
			q.Add(key, strings.Join(value, ","))
		}
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	runs := make([]apiruns.Detail, 0, 5)
	if err := unmarshalJsonResponse(
		resp, &runs,
		MessageFor{
			Status4xx: fmt.Sprintf("[BUG] client is not compatible with the server (status code = %d)", resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return nil, err
	}

	return runs, nil
}

func (c *client) AddRunMetrics(ctx context.Context, runId string, points []apiruns.MetricPoint) error {
	reqBody, err := json.Marshal(points)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath("runs", runId, "metrics"), bytes.NewReader(reqBody),
	)
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return unmarshalResponseDiscardingPayload(
		resp,
		MessageFor{
			Status4xx: fmt.Sprintf("recording metrics is rejected by server (status code = %d)", resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	)
}

func (c *client) FinishRun(ctx context.Context, runId string, outcome apiruns.Outcome) (apiruns.Detail, error) {
	reqBody, err := json.Marshal(outcome)
	if err != nil {
		return apiruns.Detail{}, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPut, c.apipath("runs", runId, "finish"), bytes.NewReader(reqBody),
	)
	if err != nil {
		return apiruns.Detail{}, err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return apiruns.Detail{}, err
	}
	defer resp.Body.Close()

	res := apiruns.Detail{}
	if err := unmarshalJsonResponse(
		resp, &res,
		MessageFor{
			Status4xx: fmt.Sprintf("finishing run %s is rejected by server (status code = %d)", runId, resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apiruns.Detail{}, err
	}
	return res, nil
}

func (c *client) StopRun(ctx context.Context, runId string) (apiruns.Detail, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPut, c.apipath("runs", runId, "stop"), nil,
	)
	if err != nil {
		return apiruns.Detail{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return apiruns.Detail{}, err
	}
	defer resp.Body.Close()

	res := apiruns.Detail{}
	if err := unmarshalJsonResponse(
		resp, &res,
		MessageFor{
			Status4xx: fmt.Sprintf("stopping run %s is rejected by server (status code = %d)", runId, resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apiruns.Detail{}, err
	}
	return res, nil
}
