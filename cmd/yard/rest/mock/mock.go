package mock

import (
	"context"
	"io"
	"testing"

	apiartifacts "github.com/modelyard/modelyard-api-types/artifacts"
	apiexperiments "github.com/modelyard/modelyard-api-types/experiments"
	apimodels "github.com/modelyard/modelyard-api-types/models"
	apireleases "github.com/modelyard/modelyard-api-types/releases"
	apiruns "github.com/modelyard/modelyard-api-types/runs"
	apitokens "github.com/modelyard/modelyard-api-types/tokens"
	"github.com/modelyard/modelyard/cmd/yard/rest"
)

type PushArtifactArgs struct {
	RunId  string
	Source string
	Name   string
}

type RegisterModelVersionArgs struct {
	Name string
	Spec apimodels.RegisterSpec
}

type GetModelVersionArgs struct {
	Name    string
	Version int
}

type PromoteModelVersionArgs struct {
	Name    string
	Version int
	Stage   apimodels.Stage
}

type AddRunMetricsArgs struct {
	RunId  string
	Points []apiruns.MetricPoint
}

type FinishRunArgs struct {
	RunId   string
	Outcome apiruns.Outcome
}

func New(t *testing.T) *mockYardClient {
	return &mockYardClient{t: t}
}

type MockedPushProgress struct {
	EstimatedTotalSize_ int64

	ProgressedSize_ int64

	ProgressingFile_ string

	Error_ error

	Result_ *apiartifacts.Ref

	ResultOk_ bool

	Done_ <-chan struct{}

	Sent_ <-chan struct{}
}

func (m *MockedPushProgress) EstimatedTotalSize() int64 {
	return m.EstimatedTotalSize_
}

func (m *MockedPushProgress) ProgressedSize() int64 {
	return m.ProgressedSize_
}

func (m *MockedPushProgress) ProgressingFile() string {
	return m.ProgressingFile_
}

func (m *MockedPushProgress) Result() (*apiartifacts.Ref, bool) {
	return m.Result_, m.ResultOk_
}

func (m *MockedPushProgress) Error() error {
	return m.Error_
}

func (m *MockedPushProgress) Done() <-chan struct{} {
	return m.Done_
}

func (m *MockedPushProgress) Sent() <-chan struct{} {
	return m.Sent_
}

type mockYardClient struct {
	t    *testing.T
	Impl struct {
		CreateExperiment func(ctx context.Context, spec apiexperiments.Spec) (apiexperiments.Detail, error)
		FindExperiments  func(ctx context.Context, query rest.FindExperimentsQuery) ([]apiexperiments.Detail, error)
		GetExperiment    func(ctx context.Context, experimentId string) (apiexperiments.Detail, error)

		CreateRun     func(ctx context.Context, spec apiruns.Spec) (apiruns.Detail, error)
		GetRun        func(ctx context.Context, runId string) (apiruns.Detail, error)
		FindRuns      func(ctx context.Context, query rest.FindRunsQuery) ([]apiruns.Detail, error)
		AddRunMetrics func(ctx context.Context, runId string, points []apiruns.MetricPoint) error
		FinishRun     func(ctx context.Context, runId string, outcome apiruns.Outcome) (apiruns.Detail, error)
		StopRun       func(ctx context.Context, runId string) (apiruns.Detail, error)

		PushArtifact     func(ctx context.Context, runId string, source string, name string) rest.Progress[*apiartifacts.Ref]
		ListRunArtifacts func(ctx context.Context, runId string) ([]apiartifacts.Ref, error)
		PullArtifact     func(ctx context.Context, digest string, handler func(io.Reader) error) error
		ExtractArtifact  func(ctx context.Context, digest string, handler func(rest.FileEntry) error) error

		RegisterModel        func(ctx context.Context, spec apimodels.Spec) (apimodels.Detail, error)
		FindModels           func(ctx context.Context, query rest.FindModelsQuery) ([]apimodels.Detail, error)
		GetModel             func(ctx context.Context, name string) (apimodels.Detail, error)
		RegisterModelVersion func(ctx context.Context, name string, spec apimodels.RegisterSpec) (apimodels.VersionDetail, error)
		ListModelVersions    func(ctx context.Context, name string) ([]apimodels.VersionDetail, error)
		GetModelVersion      func(ctx context.Context, name string, version int) (apimodels.VersionDetail, error)
		PromoteModelVersion  func(ctx context.Context, name string, version int, stage apimodels.Stage) (apimodels.VersionDetail, error)

		PlanRelease    func(ctx context.Context, spec apireleases.Spec) (apireleases.Detail, error)
		FindReleases   func(ctx context.Context, env string) ([]apireleases.Detail, error)
		GetRelease     func(ctx context.Context, releaseId string) (apireleases.Detail, error)
		CurrentRelease func(ctx context.Context, env string) (apireleases.Detail, error)
		SwitchRelease  func(ctx context.Context, releaseId string) (apireleases.Detail, error)

		IssueToken  func(ctx context.Context, spec apitokens.Spec) (apitokens.Issued, error)
		FindTokens  func(ctx context.Context) ([]apitokens.Summary, error)
		RevokeToken func(ctx context.Context, tokenId string) error
	}
	Calls struct {
		CreateExperiment []apiexperiments.Spec
		FindExperiments  []rest.FindExperimentsQuery
		GetExperiment    []string

		CreateRun     []apiruns.Spec
		GetRun        []string
		FindRuns      []rest.FindRunsQuery
		AddRunMetrics []AddRunMetricsArgs
		FinishRun     []FinishRunArgs
		StopRun       []string

		PushArtifact     []PushArtifactArgs
		ListRunArtifacts []string
		PullArtifact     []string
		ExtractArtifact  []string

		RegisterModel        []apimodels.Spec
		FindModels           []rest.FindModelsQuery
		GetModel             []string
		RegisterModelVersion []RegisterModelVersionArgs
		ListModelVersions    []string
		GetModelVersion      []GetModelVersionArgs
		PromoteModelVersion  []PromoteModelVersionArgs

		PlanRelease    []apireleases.Spec
		FindReleases   []string
		GetRelease     []string
		CurrentRelease []string
		SwitchRelease  []string

		IssueToken  []apitokens.Spec
		FindTokens  []struct{}
		RevokeToken []string
	}
}

var _ rest.YardClient = &mockYardClient{}

func (m *mockYardClient) CreateExperiment(ctx context.Context, spec apiexperiments.Spec) (apiexperiments.Detail, error) {
	m.t.Helper()

	m.Calls.CreateExperiment = append(m.Calls.CreateExperiment, spec)
	if m.Impl.CreateExperiment == nil {
		m.t.Fatal("CreateExperiment is not ready to be called")
	}
	return m.Impl.CreateExperiment(ctx, spec)
}

func (m *mockYardClient) FindExperiments(ctx context.Context, query rest.FindExperimentsQuery) ([]apiexperiments.Detail, error) {
	m.t.Helper()

	m.Calls.FindExperiments = append(m.Calls.FindExperiments, query)
	if m.Impl.FindExperiments == nil {
		m.t.Fatal("FindExperiments is not ready to be called")
	}
	return m.Impl.FindExperiments(ctx, query)
}

func (m *mockYardClient) GetExperiment(ctx context.Context, experimentId string) (apiexperiments.Detail, error) {
	m.t.Helper()

	m.Calls.GetExperiment = append(m.Calls.GetExperiment, experimentId)
	if m.Impl.GetExperiment == nil {
		m.t.Fatal("GetExperiment is not ready to be called")
	}
	return m.Impl.GetExperiment(ctx, experimentId)
}

func (m *mockYardClient) CreateRun(ctx context.Context, spec apiruns.Spec) (apiruns.Detail, error) {
	m.t.Helper()

	m.Calls.CreateRun = append(m.Calls.CreateRun, spec)
	if m.Impl.CreateRun == nil {
		m.t.Fatal("CreateRun is not ready to be called")
	}
	return m.Impl.CreateRun(ctx, spec)
}

func (m *mockYardClient) GetRun(ctx context.Context, runId string) (apiruns.Detail, error) {
	m.t.Helper()

	m.Calls.GetRun = append(m.Calls.GetRun, runId)
	if m.Impl.GetRun == nil {
		m.t.Fatal("GetRun is not ready to be called")
	}
	return m.Impl.GetRun(ctx, runId)
}

func (m *mockYardClient) FindRuns(ctx context.Context, query rest.FindRunsQuery) ([]apiruns.Detail, error) {
	m.t.Helper()

	m.Calls.FindRuns = append(m.Calls.FindRuns, query)
	if m.Impl.FindRuns == nil {
		m.t.Fatal("FindRuns is not ready to be called")
	}
	return m.Impl.FindRuns(ctx, query)
}

func (m *mockYardClient) AddRunMetrics(ctx context.Context, runId string, points []apiruns.MetricPoint) error {
	m.t.Helper()

	m.Calls.AddRunMetrics = append(m.Calls.AddRunMetrics, AddRunMetricsArgs{RunId: runId, Points: points})
	if m.Impl.AddRunMetrics == nil {
		m.t.Fatal("AddRunMetrics is not ready to be called")
	}
	return m.Impl.AddRunMetrics(ctx, runId, points)
}

func (m *mockYardClient) FinishRun(ctx context.Context, runId string, outcome apiruns.Outcome) (apiruns.Detail, error) {
	m.t.Helper()

	m.Calls.FinishRun = append(m.Calls.FinishRun, FinishRunArgs{RunId: runId, Outcome: outcome})
	if m.Impl.FinishRun == nil {
		m.t.Fatal("FinishRun is not ready to be called")
	}
	return m.Impl.FinishRun(ctx, runId, outcome)
}

func (m *mockYardClient) StopRun(ctx context.Context, runId string) (apiruns.Detail, error) {
	m.t.Helper()

	m.Calls.StopRun = append(m.Calls.StopRun, runId)
	if m.Impl.StopRun == nil {
		m.t.Fatal("StopRun is not ready to be called")
	}
	return m.Impl.StopRun(ctx, runId)
}

func (m *mockYardClient) PushArtifact(ctx context.Context, runId string, source string, name string) rest.Progress[*apiartifacts.Ref] {
	m.t.Helper()

	m.Calls.PushArtifact = append(m.Calls.PushArtifact, PushArtifactArgs{RunId: runId, Source: source, Name: name})
	if m.Impl.PushArtifact == nil {
		m.t.Fatal("PushArtifact is not ready to be called")
	}
	return m.Impl.PushArtifact(ctx, runId, source, name)
}

func (m *mockYardClient) ListRunArtifacts(ctx context.Context, runId string) ([]apiartifacts.Ref, error) {
	m.t.Helper()

	m.Calls.ListRunArtifacts = append(m.Calls.ListRunArtifacts, runId)
	if m.Impl.ListRunArtifacts == nil {
		m.t.Fatal("ListRunArtifacts is not ready to be called")
	}
	return m.Impl.ListRunArtifacts(ctx, runId)
}

func (m *mockYardClient) PullArtifact(ctx context.Context, digest string, handler func(io.Reader) error) error {
	m.t.Helper()

	m.Calls.PullArtifact = append(m.Calls.PullArtifact, digest)
	if m.Impl.PullArtifact == nil {
		m.t.Fatal("PullArtifact is not ready to be called")
	}
	return m.Impl.PullArtifact(ctx, digest, handler)
}

func (m *mockYardClient) ExtractArtifact(ctx context.Context, digest string, handler func(rest.FileEntry) error) error {
	m.t.Helper()

	m.Calls.ExtractArtifact = append(m.Calls.ExtractArtifact, digest)
	if m.Impl.ExtractArtifact == nil {
		m.t.Fatal("ExtractArtifact is not ready to be called")
	}
	return m.Impl.ExtractArtifact(ctx, digest, handler)
}

func (m *mockYardClient) RegisterModel(ctx context.Context, spec apimodels.Spec) (apimodels.Detail, error) {
	m.t.Helper()

	m.Calls.RegisterModel = append(m.Calls.RegisterModel, spec)
	if m.Impl.RegisterModel == nil {
		m.t.Fatal("RegisterModel is not ready to be called")
	}
	return m.Impl.RegisterModel(ctx, spec)
}

func (m *mockYardClient) FindModels(ctx context.Context, query rest.FindModelsQuery) ([]apimodels.Detail, error) {
	m.t.Helper()

	m.Calls.FindModels = append(m.Calls.FindModels, query)
	if m.Impl.FindModels == nil {
		m.t.Fatal("FindModels is not ready to be called")
	}
	return m.Impl.FindModels(ctx, query)
}

func (m *mockYardClient) GetModel(ctx context.Context, name string) (apimodels.Detail, error) {
	m.t.Helper()

	m.Calls.GetModel = append(m.Calls.GetModel, name)
	if m.Impl.GetModel == nil {
		m.t.Fatal("GetModel is not ready to be called")
	}
	return m.Impl.GetModel(ctx, name)
}

func (m *mockYardClient) RegisterModelVersion(ctx context.Context, name string, spec apimodels.RegisterSpec) (apimodels.VersionDetail, error) {
	m.t.Helper()

	m.Calls.RegisterModelVersion = append(m.Calls.RegisterModelVersion, RegisterModelVersionArgs{Name: name, Spec: spec})
	if m.Impl.RegisterModelVersion == nil {
		m.t.Fatal("RegisterModelVersion is not ready to be called")
	}
	return m.Impl.RegisterModelVersion(ctx, name, spec)
}

func (m *mockYardClient) ListModelVersions(ctx context.Context, name string) ([]apimodels.VersionDetail, error) {
	m.t.Helper()

	m.Calls.ListModelVersions = append(m.Calls.ListModelVersions, name)
	if m.Impl.ListModelVersions == nil {
		m.t.Fatal("ListModelVersions is not ready to be called")
	}
	return m.Impl.ListModelVersions(ctx, name)
}

func (m *mockYardClient) GetModelVersion(ctx context.Context, name string, version int) (apimodels.VersionDetail, error) {
	m.t.Helper()

	m.Calls.GetModelVersion = append(m.Calls.GetModelVersion, GetModelVersionArgs{Name: name, Version: version})
	if m.Impl.GetModelVersion == nil {
		m.t.Fatal("GetModelVersion is not ready to be called")
	}
	return m.Impl.GetModelVersion(ctx, name, version)
}

func (m *mockYardClient) PromoteModelVersion(ctx context.Context, name string, version int, stage apimodels.Stage) (apimodels.VersionDetail, error) {
	m.t.Helper()

	m.Calls.PromoteModelVersion = append(m.Calls.PromoteModelVersion, PromoteModelVersionArgs{Name: name, Version: version, Stage: stage})
	if m.Impl.PromoteModelVersion == nil {
		m.t.Fatal("PromoteModelVersion is not ready to be called")
	}
	return m.Impl.PromoteModelVersion(ctx, name, version, stage)
}

func (m *mockYardClient) PlanRelease(ctx context.Context, spec apireleases.Spec) (apireleases.Detail, error) {
	m.t.Helper()

	m.Calls.PlanRelease = append(m.Calls.PlanRelease, spec)
	if m.Impl.PlanRelease == nil {
		m.t.Fatal("PlanRelease is not ready to be called")
	}
	return m.Impl.PlanRelease(ctx, spec)
}

func (m *mockYardClient) FindReleases(ctx context.Context, env string) ([]apireleases.Detail, error) {
	m.t.Helper()

	m.Calls.FindReleases = append(m.Calls.FindReleases, env)
	if m.Impl.FindReleases == nil {
		m.t.Fatal("FindReleases is not ready to be called")
	}
	return m.Impl.FindReleases(ctx, env)
}

func (m *mockYardClient) GetRelease(ctx context.Context, releaseId string) (apireleases.Detail, error) {
	m.t.Helper()

	m.Calls.GetRelease = append(m.Calls.GetRelease, releaseId)
	if m.Impl.GetRelease == nil {
		m.t.Fatal("GetRelease is not ready to be called")
	}
	return m.Impl.GetRelease(ctx, releaseId)
}

func (m *mockYardClient) CurrentRelease(ctx context.Context, env string) (apireleases.Detail, error) {
	m.t.Helper()

	m.Calls.CurrentRelease = append(m.Calls.CurrentRelease, env)
	if m.Impl.CurrentRelease == nil {
		m.t.Fatal("CurrentRelease is not ready to be called")
	}
	return m.Impl.CurrentRelease(ctx, env)
}

func (m *mockYardClient) SwitchRelease(ctx context.Context, releaseId string) (apireleases.Detail, error) {
	m.t.Helper()

	m.Calls.SwitchRelease = append(m.Calls.SwitchRelease, releaseId)
	if m.Impl.SwitchRelease == nil {
		m.t.Fatal("SwitchRelease is not ready to be called")
	}
	return m.Impl.SwitchRelease(ctx, releaseId)
}

func (m *mockYardClient) IssueToken(ctx context.Context, spec apitokens.Spec) (apitokens.Issued, error) {
	m.t.Helper()

	m.Calls.IssueToken = append(m.Calls.IssueToken, spec)
	if m.Impl.IssueToken == nil {
		m.t.Fatal("IssueToken is not ready to be called")
	}
	return m.Impl.IssueToken(ctx, spec)
}

func (m *mockYardClient) FindTokens(ctx context.Context) ([]apitokens.Summary, error) {
	m.t.Helper()

	m.Calls.FindTokens = append(m.Calls.FindTokens, struct{}{})
	if m.Impl.FindTokens == nil {
		m.t.Fatal("FindTokens is not ready to be called")
	}
	return m.Impl.FindTokens(ctx)
}

func (m *mockYardClient) RevokeToken(ctx context.Context, tokenId string) error {
	m.t.Helper()

	m.Calls.RevokeToken = append(m.Calls.RevokeToken, tokenId)
	if m.Impl.RevokeToken == nil {
		m.t.Fatal("RevokeToken is not ready to be called")
	}
	return m.Impl.RevokeToken(ctx, tokenId)
}
