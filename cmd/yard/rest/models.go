package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	apimodels "github.com/modelyard/modelyard-api-types/models"
	apitags "github.com/modelyard/modelyard-api-types/tags"
	"github.com/modelyard/modelyard/pkg/utils"
)

func (c *client) RegisterModel(ctx context.Context, spec apimodels.Spec) (apimodels.Detail, error) {
	reqBody, err := json.Marshal(spec)
	if err != nil {
		return apimodels.Detail{}, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath("models"), bytes.NewReader(reqBody),
	)
	if err != nil {
		return apimodels.Detail{}, err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return apimodels.Detail{}, err
	}
	defer resp.Body.Close()

	res := apimodels.Detail{}
	if err := unmarshalJsonResponse(
		resp, &res,
		MessageFor{
			Status4xx: fmt.Sprintf("registering model is rejected by server (status code = %d)", resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apimodels.Detail{}, err
	}
	return res, nil
}

func (c *client) FindModels(ctx context.Context, query FindModelsQuery) ([]apimodels.Detail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath("models"), nil)
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
	if 0 < len(query.Stages) {
		q.Add("stage", strings.Join(utils.Map(query.Stages, apimodels.Stage.String), ","))
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	models := make([]apimodels.Detail, 0, 5)
	if err := unmarshalJsonResponse(
		resp, &models,
		MessageFor{
			Status4xx: fmt.Sprintf("[BUG] client is not compatible with the server (status code = %d)", resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return nil, err
	}

	return models, nil
}

func (c *client) GetModel(ctx context.Context, name string) (apimodels.Detail, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("models", name), nil,
	)
	if err != nil {
		return apimodels.Detail{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return apimodels.Detail{}, err
	}
	defer resp.Body.Close()

	res := apimodels.Detail{}
	if err := unmarshalJsonResponse(
		resp, &res,
		MessageFor{
			Status4xx: fmt.Sprintf("model %s is not found", name),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apimodels.Detail{}, err
	}
	return res, nil
}

func (c *client) RegisterModelVersion(ctx context.Context, name string, spec apimodels.RegisterSpec) (apimodels.VersionDetail, error) {
	reqBody, err := json.Marshal(spec)
	if err != nil {
		return apimodels.VersionDetail{}, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath("models", name, "versions"), bytes.NewReader(reqBody),
	)
	if err != nil {
		return apimodels.VersionDetail{}, err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return apimodels.VersionDetail{}, err
	}
	defer resp.Body.Close()

	res := apimodels.VersionDetail{}
	if err := unmarshalJsonResponse(
		resp, &res,
		MessageFor{
			Status4xx: fmt.Sprintf("registering version under model %s is rejected by server (status code = %d)", name, resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apimodels.VersionDetail{}, err
	}
	return res, nil
}

func (c *client) ListModelVersions(ctx context.Context, name string) ([]apimodels.VersionDetail, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("models", name, "versions"), nil,
	)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	versions := make([]apimodels.VersionDetail, 0, 5)
	if err := unmarshalJsonResponse(
		resp, &versions,
		MessageFor{
			Status4xx: fmt.Sprintf("model %s is not found", name),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return nil, err
	}
	return versions, nil
}

func (c *client) GetModelVersion(ctx context.Context, name string, version int) (apimodels.VersionDetail, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("models", name, "versions", strconv.Itoa(version)), nil,
	)
	if err != nil {
		return apimodels.VersionDetail{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return apimodels.VersionDetail{}, err
	}
	defer resp.Body.Close()

	res := apimodels.VersionDetail{}
	if err := unmarshalJsonResponse(
		resp, &res,
		MessageFor{
			Status4xx: fmt.Sprintf("version %d of model %s is not found", version, name),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apimodels.VersionDetail{}, err
	}
	return res, nil
}

func (c *client) PromoteModelVersion(ctx context.Context, name string, version int, stage apimodels.Stage) (apimodels.VersionDetail, error) {
	reqBody, err := json.Marshal(apimodels.PromotionSpec{Stage: stage})
	if err != nil {
		return apimodels.VersionDetail{}, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPut,
		c.apipath("models", name, "versions", strconv.Itoa(version), "promotion"),
		bytes.NewReader(reqBody),
	)
	if err != nil {
		return apimodels.VersionDetail{}, err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return apimodels.VersionDetail{}, err
	}
	defer resp.Body.Close()

	res := apimodels.VersionDetail{}
	if err := unmarshalJsonResponse(
		resp, &res,
		MessageFor{
			Status4xx: fmt.Sprintf("promoting version %d of model %s to %s is rejected by server (status code = %d)", version, name, stage, resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apimodels.VersionDetail{}, err
	}
	return res, nil
}
