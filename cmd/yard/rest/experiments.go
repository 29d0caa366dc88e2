package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	apiexperiments "github.com/modelyard/modelyard-api-types/experiments"
	apitags "github.com/modelyard/modelyard-api-types/tags"
	"github.com/modelyard/modelyard/pkg/utils"
)

func (c *client) CreateExperiment(ctx context.Context, spec apiexperiments.Spec) (apiexperiments.Detail, error) {
	reqBody, err := json.Marshal(spec)
	if err != nil {
		return apiexperiments.Detail{}, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath("experiments"), bytes.NewReader(reqBody),
	)
	if err != nil {
		return apiexperiments.Detail{}, err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return apiexperiments.Detail{}, err
	}
	defer resp.Body.Close()

	res := apiexperiments.Detail{}
	if err := unmarshalJsonResponse(
		resp, &res,
		MessageFor{
			Status4xx: fmt.Sprintf("creating experiment is rejected by server (status code = %d)", resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apiexperiments.Detail{}, err
	}

	return res, nil
}

func (c *client) FindExperiments(ctx context.Context, query FindExperimentsQuery) ([]apiexperiments.Detail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath("experiments"), nil)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	if query.Name != "" {
		q.Add("name", query.Name)
	}
	if 0 < len(query.Tags) {
		q.Add("tag", strings.Join(utils.Map(query.Tags, apitags.Tag.String), ","))
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	experiments := make([]apiexperiments.Detail, 0, 5)
	if err := unmarshalJsonResponse(
		resp, &experiments,
		MessageFor{
			Status4xx: fmt.Sprintf("[BUG] client is not compatible with the server (status code = %d)", resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return nil, err
	}

	return experiments, nil
}

func (c *client) GetExperiment(ctx context.Context, experimentId string) (apiexperiments.Detail, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("experiments", experimentId), nil,
	)
	if err != nil {
		return apiexperiments.Detail{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return apiexperiments.Detail{}, err
	}
	defer resp.Body.Close()

	res := apiexperiments.Detail{}
	if err := unmarshalJsonResponse(
		resp, &res,
		MessageFor{
			Status4xx: fmt.Sprintf("experiment %s is not found", experimentId),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apiexperiments.Detail{}, err
	}
	return res, nil
}
