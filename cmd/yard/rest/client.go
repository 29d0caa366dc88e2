package rest

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apiartifacts "github.com/modelyard/modelyard-api-types/artifacts"
	apiexperiments "github.com/modelyard/modelyard-api-types/experiments"
	apimodels "github.com/modelyard/modelyard-api-types/models"
	apireleases "github.com/modelyard/modelyard-api-types/releases"
	apiruns "github.com/modelyard/modelyard-api-types/runs"
	apitags "github.com/modelyard/modelyard-api-types/tags"
	apitokens "github.com/modelyard/modelyard-api-types/tokens"
	kprof "github.com/modelyard/modelyard/cmd/yard/config/profiles"
	"github.com/modelyard/modelyard/pkg/utils"
)

// ErrServerUnreachable means the api root did not answer at all.
//
// It carries the api root in its message, so the user knows which
// address was dialed.
var ErrServerUnreachable = errors.New("server unreachable")

// FindExperimentsQuery are conditions for FindExperiments. Zero values
// put no condition.
type FindExperimentsQuery struct {
	Name string
	Tags []apitags.Tag
}

// FindRunsQuery are conditions for FindRuns. Zero values put no condition.
type FindRunsQuery struct {
	Experiments []string
	Status      []string
	Tags        []apitags.Tag
	Since       *time.Time
	Duration    *time.Duration
}

// FindModelsQuery are conditions for FindModels. Zero values put no condition.
type FindModelsQuery struct {
	Name   string
	Tags   []apitags.Tag
	Stages []apimodels.Stage
}

type YardClient interface {
	// CreateExperiment registers a new experiment.
	//
	// # Args
	//
	// - context.Context
	//
	// - apiexperiments.Spec: experiment to be created
	//
	// # Returns
	//
	// - apiexperiments.Detail: metadata of the created experiment
	//
	// - error
	CreateExperiment(ctx context.Context, spec apiexperiments.Spec) (apiexperiments.Detail, error)

	// FindExperiments finds experiments with given conditions.
	//
	// # Args
	//
	// - context.Context
	//
	// - FindExperimentsQuery: conditions which experiments to be found satisfy
	//
	// # Returns
	//
	// - []apiexperiments.Detail: metadata of found experiments
	//
	// - error
	FindExperiments(ctx context.Context, query FindExperimentsQuery) ([]apiexperiments.Detail, error)

	// GetExperiment gets experiment detail with given experimentId.
	GetExperiment(ctx context.Context, experimentId string) (apiexperiments.Detail, error)

	// CreateRun opens a new run under an experiment.
	//
	// # Args
	//
	// - context.Context
	//
	// - apiruns.Spec: run to be opened
	//
	// # Returns
	//
	// - apiruns.Detail: metadata of the opened run. Its status is scheduled or running.
	//
	// - error
	CreateRun(ctx context.Context, spec apiruns.Spec) (apiruns.Detail, error)

	// GetRun gets run detail with given runId.
	GetRun(ctx context.Context, runId string) (apiruns.Detail, error)

	// FindRuns finds runs with given conditions.
	//
	// # Args
	//
	// - context.Context
	//
	// - FindRunsQuery: conditions which runs to be found satisfy
	//
	// # Returns
	//
	// - []apiruns.Detail: metadata of found runs
	//
	// - error
	FindRuns(ctx context.Context, query FindRunsQuery) ([]apiruns.Detail, error)

	// AddRunMetrics appends metric points to a running run.
	AddRunMetrics(ctx context.Context, runId string, points []apiruns.MetricPoint) error

	// FinishRun settles a run as finished or failed.
	//
	// # Args
	//
	// - context.Context
	//
	// - string: runId to be settled
	//
	// - apiruns.Outcome: terminal status and metrics recorded together
	//
	// # Returns
	//
	// - apiruns.Detail: metadata of the settled run
	//
	// - error
	FinishRun(ctx context.Context, runId string, outcome apiruns.Outcome) (apiruns.Detail, error)

	// StopRun kills a scheduled or running run.
	StopRun(ctx context.Context, runId string) (apiruns.Detail, error)

	// PushArtifact archives a local file or directory and uploads it
	// as an artifact of the run.
	//
	// # Args
	//
	// - context.Context
	//
	// - string: runId the artifact belongs to
	//
	// - string: path to file or directory to be uploaded
	//
	// - string: name recorded on the artifact. Pass "" to use no name.
	//
	// # Returns
	//
	// - Progress[*apiartifacts.Ref]: progress of the upload.
	// Wait on Done() and check Error() and Result() for the outcome.
	PushArtifact(ctx context.Context, runId string, source string, name string) Progress[*apiartifacts.Ref]

	// ListRunArtifacts lists artifacts attached to the run.
	ListRunArtifacts(ctx context.Context, runId string) ([]apiartifacts.Ref, error)

	// PullArtifact downloads an artifact blob and verifies its digest.
	//
	// # Args
	//
	// - context.Context
	//
	// - digest: "sha256:..." of the artifact to be downloaded
	//
	// - handler: function to be called for the raw stream.
	// If handler returns an error, downloading is stopped and the error is returned.
	//
	// # Returns
	//
	// - error: ErrChecksumUnmatch when the downloaded bytes do not hash
	// to digest, or the error of handler.
	PullArtifact(ctx context.Context, digest string, handler func(io.Reader) error) error

	// ExtractArtifact downloads an artifact and walks its tar.gz entries.
	//
	// # Args
	//
	// - context.Context
	//
	// - digest: "sha256:..." of the artifact to be downloaded
	//
	// - handler: function to be called for each file in the artifact.
	// If handler returns an error, downloading is stopped and the error is returned.
	//
	// # Returns
	//
	// - error: ErrChecksumUnmatch when the downloaded bytes do not hash
	// to digest, or the error of handler.
	ExtractArtifact(ctx context.Context, digest string, handler func(FileEntry) error) error

	// RegisterModel registers a new model name.
	//
	// # Args
	//
	// - context.Context
	//
	// - apimodels.Spec: model to be registered
	//
	// # Returns
	//
	// - apimodels.Detail: metadata of the registered model
	//
	// - error
	RegisterModel(ctx context.Context, spec apimodels.Spec) (apimodels.Detail, error)

	// FindModels finds models with given conditions.
	FindModels(ctx context.Context, query FindModelsQuery) ([]apimodels.Detail, error)

	// GetModel gets model detail with given name.
	GetModel(ctx context.Context, name string) (apimodels.Detail, error)

	// RegisterModelVersion registers a new version under a model.
	//
	// # Args
	//
	// - context.Context
	//
	// - string: model name the version is registered under
	//
	// - apimodels.RegisterSpec: run and artifact the version points at
	//
	// # Returns
	//
	// - apimodels.VersionDetail: metadata of the registered version.
	// Its status is pending until gates settle it.
	//
	// - error
	RegisterModelVersion(ctx context.Context, name string, spec apimodels.RegisterSpec) (apimodels.VersionDetail, error)

	// ListModelVersions lists versions of the model.
	ListModelVersions(ctx context.Context, name string) ([]apimodels.VersionDetail, error)

	// GetModelVersion gets version detail of the model.
	GetModelVersion(ctx context.Context, name string, version int) (apimodels.VersionDetail, error)

	// PromoteModelVersion moves a version to a stage.
	//
	// # Args
	//
	// - context.Context
	//
	// - string: model name
	//
	// - int: version to be moved
	//
	// - apimodels.Stage: stage the version moves to
	//
	// # Returns
	//
	// - apimodels.VersionDetail: metadata of the moved version
	//
	// - error
	PromoteModelVersion(ctx context.Context, name string, version int, stage apimodels.Stage) (apimodels.VersionDetail, error)

	// PlanRelease stages a new release in the idle slot of an environment.
	//
	// # Args
	//
	// - context.Context
	//
	// - apireleases.Spec: release to be staged. ImageDigest must be resolved already.
	//
	// # Returns
	//
	// - apireleases.Detail: metadata of the staged release
	//
	// - error
	PlanRelease(ctx context.Context, spec apireleases.Spec) (apireleases.Detail, error)

	// FindReleases lists releases, optionally per environment.
	FindReleases(ctx context.Context, env string) ([]apireleases.Detail, error)

	// GetRelease gets release detail with given releaseId.
	GetRelease(ctx context.Context, releaseId string) (apireleases.Detail, error)

	// CurrentRelease gets the live release of the environment.
	CurrentRelease(ctx context.Context, env string) (apireleases.Detail, error)

	// SwitchRelease makes a staged release live.
	//
	// The release live until now is retired in the same move.
	SwitchRelease(ctx context.Context, releaseId string) (apireleases.Detail, error)

	// IssueToken issues a new api token.
	//
	// # Returns
	//
	// - apitokens.Issued: the token. Its secret is not recoverable afterwards.
	//
	// - error
	IssueToken(ctx context.Context, spec apitokens.Spec) (apitokens.Issued, error)

	// FindTokens lists issued tokens.
	FindTokens(ctx context.Context) ([]apitokens.Summary, error)

	// RevokeToken revokes a token by its id.
	RevokeToken(ctx context.Context, tokenId string) error
}

type client struct {
	httpclient *http.Client
	api        string
	token      string
}

// create new yard client for YardProfile
//
// # Args
//
// - *kprof.YardProfile
//
// # Return
//
// - YardClient: created client
//
// - error: If given profile is invalid, ErrProfileInvalid is returned.
func NewClient(prof *kprof.YardProfile) (YardClient, error) {
	if err := prof.Verify(); err != nil {
		return nil, err
	}
	httpclient := new(http.Client)

	if prof.Cert.CA != "" {
		hc, err := trustCa(httpclient, []string{prof.Cert.CA})
		if err != nil {
			return nil, err
		}
		httpclient = hc
	}

	c := &client{
		httpclient: httpclient,
		api:        strings.TrimSuffix(prof.ApiRoot, "/"),
		token:      prof.Token,
	}

	return c, nil
}

// build URL with path
func (c *client) apipath(path ...string) string {
	path = utils.Map(path, func(p string) string {
		return strings.TrimPrefix(strings.TrimSuffix(p, "/"), "/")
	})

	return strings.Join(append([]string{c.api}, path...), "/")
}

// do sends req with the profile credential, translating transport
// failures into ErrServerUnreachable.
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

func trustCa(hc *http.Client, cacerts []string) (*http.Client, error) {
	if len(cacerts) <= 0 {
		return hc, nil
	}

	if hc.Transport == nil {
		hc.Transport = http.DefaultTransport
	}

	tran, ok := hc.Transport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("failed to add ca cert")
	}
	tran = tran.Clone()

	tcc := tran.TLSClientConfig.Clone()
	if tcc == nil {
		tcc = &tls.Config{}
	}

	rootcas := tcc.RootCAs
	if rootcas == nil {
		rootcas = x509.NewCertPool()
		tcc.RootCAs = rootcas
	}
	for _, ca := range cacerts {
		bin, err := base64.StdEncoding.DecodeString(ca)
		if err != nil {
			return nil, err
		}

		if !rootcas.AppendCertsFromPEM(bin) {
			return nil, fmt.Errorf("failed to add cert")
		}
	}

	tran.TLSClientConfig = tcc
	hc.Transport = tran
	return hc, nil
}
