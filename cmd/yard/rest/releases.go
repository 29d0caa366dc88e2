package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apireleases "github.com/modelyard/modelyard-api-types/releases"
)

func (c *client) PlanRelease(ctx context.Context, spec apireleases.Spec) (apireleases.Detail, error) {
	reqBody, err := json.Marshal(spec)
	if err != nil {
		return apireleases.Detail{}, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath("releases"), bytes.NewReader(reqBody),
	)
	if err != nil {
		return apireleases.Detail{}, err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return apireleases.Detail{}, err
	}
	defer resp.Body.Close()

	res := apireleases.Detail{}
	if err := unmarshalJsonResponse(
		resp, &res,
		MessageFor{
			Status4xx: fmt.Sprintf("planning release is rejected by server (status code = %d)", resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apireleases.Detail{}, err
	}
	return res, nil
}

func (c *client) FindReleases(ctx context.Context, env string) ([]apireleases.Detail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath("releases"), nil)
	if err != nil {
		return nil, err
	}

	if env != "" {
		q := req.URL.Query()
		q.Add("env", env)
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	releases := make([]apireleases.Detail, 0, 5)
	if err := unmarshalJsonResponse(
		resp, &releases,
		MessageFor{
			Status4xx: fmt.Sprintf("[BUG] client is not compatible with the server (status code = %d)", resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return nil, err
	}
	return releases, nil
}

func (c *client) GetRelease(ctx context.Context, releaseId string) (apireleases.Detail, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("releases", releaseId), nil,
	)
	if err != nil {
		return apireleases.Detail{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return apireleases.Detail{}, err
	}
	defer resp.Body.Close()

	res := apireleases.Detail{}
	if err := unmarshalJsonResponse(
		resp, &res,
		MessageFor{
			Status4xx: fmt.Sprintf("release %s is not found", releaseId),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apireleases.Detail{}, err
	}
	return res, nil
}

func (c *client) CurrentRelease(ctx context.Context, env string) (apireleases.Detail, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("releases", "current"), nil,
	)
	if err != nil {
		return apireleases.Detail{}, err
	}
	q := req.URL.Query()
	q.Add("env", env)
	req.URL.RawQuery = q.Encode()

	resp, err := c.do(req)
	if err != nil {
		return apireleases.Detail{}, err
	}
	defer resp.Body.Close()

	res := apireleases.Detail{}
	if err := unmarshalJsonResponse(
		resp, &res,
		MessageFor{
			Status4xx: fmt.Sprintf("no release is live in environment %s", env),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apireleases.Detail{}, err
	}
	return res, nil
}

func (c *client) SwitchRelease(ctx context.Context, releaseId string) (apireleases.Detail, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPut, c.apipath("releases", releaseId, "switch"), nil,
	)
	if err != nil {
		return apireleases.Detail{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return apireleases.Detail{}, err
	}
	defer resp.Body.Close()

	res := apireleases.Detail{}
	if err := unmarshalJsonResponse(
		resp, &res,
		MessageFor{
			Status4xx: fmt.Sprintf("switching release %s is rejected by server (status code = %d)", releaseId, resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apireleases.Detail{}, err
	}
	return res, nil
}
