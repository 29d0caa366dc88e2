package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apitokens "github.com/modelyard/modelyard-api-types/tokens"
)

func (c *client) IssueToken(ctx context.Context, spec apitokens.Spec) (apitokens.Issued, error) {
	reqBody, err := json.Marshal(spec)
	if err != nil {
		return apitokens.Issued{}, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath("tokens"), bytes.NewReader(reqBody),
	)
	if err != nil {
		return apitokens.Issued{}, err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return apitokens.Issued{}, err
	}
	defer resp.Body.Close()

	res := apitokens.Issued{}
	if err := unmarshalJsonResponse(
		resp, &res,
		MessageFor{
			Status4xx: fmt.Sprintf("issueing token is rejected by server (status code = %d)", resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apitokens.Issued{}, err
	}
	return res, nil
}

func (c *client) FindTokens(ctx context.Context) ([]apitokens.Summary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath("tokens"), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	tokens := make([]apitokens.Summary, 0, 5)
	if err := unmarshalJsonResponse(
		resp, &tokens,
		MessageFor{
			Status4xx: fmt.Sprintf("listing tokens is rejected by server (status code = %d)", resp.StatusCode),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (c *client) RevokeToken(ctx context.Context, tokenId string) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodDelete, c.apipath("tokens", tokenId), nil,
	)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return unmarshalResponseDiscardingPayload(
		resp,
		MessageFor{
			Status4xx: fmt.Sprintf("token %s is not found", tokenId),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	)
}
