package registry

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apiartifacts "github.com/modelyard/modelyard-api-types/artifacts"
	apierr "github.com/modelyard/modelyard-api-types/errors"
	apimodels "github.com/modelyard/modelyard-api-types/models"
	kio "github.com/modelyard/modelyard/pkg/utils/io"
)

var (
	// ErrServerUnreachable means the api root did not answer at all.
	//
	// It carries the api root in its message, so an operator reading logs
	// knows which address was dialed.
	ErrServerUnreachable = errors.New("server unreachable")

	// ErrChecksumUnmatch means a downloaded artifact does not hash to its digest.
	ErrChecksumUnmatch = errors.New("checksum unmatch")
)

// Client talks to a modelyard registry for one model.
type Client interface {
	// CurrentVersion resolves the version now holding the stage
	// this client is pinned to.
	//
	// # Returns
	//
	// - apimodels.VersionDetail: the current version.
	//
	// - error: ErrServerUnreachable when the api root does not answer.
	CurrentVersion(ctx context.Context) (apimodels.VersionDetail, error)

	// PullArtifact streams the artifact blob named by digest into handler.
	//
	// The stream is hashed while handler reads it. After handler returns,
	// the rest of the stream is drained and the hash is checked against
	// digest.
	//
	// # Args
	//
	// - digest: "sha256:..." of the artifact to pull.
	//
	// - handler: called once with the raw blob stream.
	// If handler returns an error, pulling stops and the error is returned.
	//
	// # Returns
	//
	// - error: ErrChecksumUnmatch when the blob does not hash to digest,
	// or the error of handler.
	PullArtifact(ctx context.Context, digest string, handler func(io.Reader) error) error
}

type client struct {
	httpclient *http.Client
	api        string
	model      string
	stage      apimodels.Stage
	token      string
}

type Option func(*client) *client

// WithStage pins the client to a stage other than production.
func WithStage(stage apimodels.Stage) Option {
	return func(c *client) *client {
		c.stage = stage
		return c
	}
}

// WithToken sends token as a bearer credential on api requests.
func WithToken(token string) Option {
	return func(c *client) *client {
		c.token = token
		return c
	}
}

// New creates a Client against apiRoot, pinned to one model.
//
// apiRoot should point the api prefix, like "http://yardd:8080/api".
func New(apiRoot string, model string, options ...Option) Client {
	c := &client{
		httpclient: new(http.Client),
		api:        strings.TrimSuffix(apiRoot, "/"),
		model:      model,
		stage:      apimodels.StageProduction,
	}
	for _, opt := range options {
		c = opt(c)
	}
	return c
}

// build URL with path
func (c *client) apipath(path ...string) string {
	for i, p := range path {
		path[i] = strings.TrimPrefix(strings.TrimSuffix(p, "/"), "/")
	}
	return strings.Join(append([]string{c.api}, path...), "/")
}

// do sends req, translating transport failures into ErrServerUnreachable.
func (c *client) do(req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpclient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w at %s: %s", ErrServerUnreachable, c.api, err)
	}
	return resp, nil
}

func (c *client) CurrentVersion(ctx context.Context) (apimodels.VersionDetail, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("models", c.model, "current"), nil,
	)
	if err != nil {
		return apimodels.VersionDetail{}, err
	}
	q := req.URL.Query()
	q.Add("stage", c.stage.String())
	req.URL.RawQuery = q.Encode()

	resp, err := c.do(req)
	if err != nil {
		return apimodels.VersionDetail{}, err
	}
	defer resp.Body.Close()

	ver := apimodels.VersionDetail{}
	if err := unmarshalJsonResponse(resp, &ver); err != nil {
		return apimodels.VersionDetail{}, err
	}
	return ver, nil
}

func (c *client) PullArtifact(ctx context.Context, digest string, handler func(io.Reader) error) error {
	token, err := c.issueDownloadToken(ctx, digest)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("artifacts", digest), nil,
	)
	if err != nil {
		return err
	}
	q := req.URL.Query()
	q.Add("token", token.Token)
	req.URL.RawQuery = q.Encode()

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || 300 <= resp.StatusCode {
		return errorFromResponse(resp)
	}

	chr := kio.NewSHA256Reader(resp.Body)
	tr := kio.NewTriggerReader(chr)
	var hasherr error
	tr.OnEnd(func() {
		actual := apiartifacts.DigestPrefix + hex.EncodeToString(chr.Sum())
		if actual != digest {
			hasherr = fmt.Errorf(
				"%w: %s is calcurated as %s", ErrChecksumUnmatch, digest, actual,
			)
		}
	})

	if err := handler(tr); err != nil {
		return err
	}
	if _, err := io.Copy(io.Discard, tr); err != nil {
		// drain rest of the stream, so the hash covers the whole blob.
		return err
	}

	return hasherr
}

// issueDownloadToken trades api credentials for a one-artifact token.
func (c *client) issueDownloadToken(ctx context.Context, digest string) (apiartifacts.Token, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath("artifacts", digest, "token"), nil,
	)
	if err != nil {
		return apiartifacts.Token{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return apiartifacts.Token{}, err
	}
	defer resp.Body.Close()

	token := apiartifacts.Token{}
	if err := unmarshalJsonResponse(resp, &token); err != nil {
		return apiartifacts.Token{}, err
	}
	return token, nil
}

// unmarshal http response which has json content.
//
// Non-2xx responses are turned into errors, carrying the server's
// ErrorMessage when the body holds one.
func unmarshalJsonResponse[T any](resp *http.Response, v *T) error {
	if 200 <= resp.StatusCode && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf(
				"unexpected response (status code = %d): %w", resp.StatusCode, err,
			)
		}
		return nil
	}
	return errorFromResponse(resp)
}

func errorFromResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf(
			"server error (status code = %d): cannot read server message: %w",
			resp.StatusCode, err,
		)
	}

	eresp := apierr.ErrorResponse{}
	if err := json.Unmarshal(body, &eresp); err == nil && eresp.Message.Reason != "" {
		return fmt.Errorf("server error (status code = %d): %w", resp.StatusCode, eresp.Message)
	}

	return fmt.Errorf("server error (status code = %d): %s", resp.StatusCode, string(body))
}
