package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/modelyard/modelyard/cmd/yardd/handlers"
	"github.com/modelyard/modelyard/pkg/auth"
	"github.com/modelyard/modelyard/pkg/domain"
	"github.com/modelyard/modelyard/pkg/domain/modelyard"
	"github.com/modelyard/modelyard/pkg/keychain/provider"
	"github.com/modelyard/modelyard/pkg/storage"
	"github.com/modelyard/modelyard/pkg/utils/echoutil"
)

var API_ROOT = "/api"

// keychain holding the keys signing artifact download tokens.
const downloadTokenKeychain = "artifact-download-token-signer"

func api(subpath string) string {
	if !strings.HasSuffix(subpath, "/") {
		subpath += "/"
	}
	return fmt.Sprintf("%s/%s", API_ROOT, subpath)
}

func BuildServer(yard modelyard.Modelyard, store storage.Store, loglevel string) *echo.Echo {

	e := echo.New()

	echoutil.SetLevel(e, loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}

	e.Pre(middleware.AddTrailingSlash())

	// logging for server-side latency.
	e.Use(echoutil.LogHandlerFunc)

	conf := yard.Config()

	authEnabled := conf.Auth().Enabled()
	if authEnabled {
		e.Use(auth.Bearer(
			yard.Auth().Database(),

			api("health"),
			// self-guarding routes. see their handlers.
			"POST "+api("tokens"),
			"GET "+api("artifacts/:digest"),
		))
	}

	var verifyBearer func(ctx context.Context, authorizationHeader string) error
	if authEnabled {
		dbAuth := yard.Auth().Database()
		verifyBearer = func(ctx context.Context, header string) error {
			tokenId, secret, ok := auth.ParseBearer(header)
			if !ok {
				return auth.ErrUnauthorized
			}
			_, err := auth.VerifyCredentials(ctx, dbAuth, tokenId, secret)
			return err
		}
	}

	signKeyProviderForDownloadToken := provider.New(
		downloadTokenKeychain,
		yard.Keychain().Database(),
	)

	e.GET(api("health"), handlers.HealthHandler(yard.Schema().Database()))

	{
		e.POST(api("experiments"), handlers.CreateExperimentHandler(yard.Experiment().Database()))
		e.GET(api("experiments"), handlers.FindExperimentHandler(yard.Experiment().Database()))
		e.GET(api("experiments/:experimentId"), handlers.GetExperimentHandler(yard.Experiment().Database()))
	}

	{
		dbRun := yard.Run().Database()
		dbExperiment := yard.Experiment().Database()

		e.POST(api("runs"), handlers.CreateRunHandler(dbRun, dbExperiment))
		e.GET(api("runs"), handlers.FindRunHandler(dbRun, dbExperiment))
		e.GET(api("runs/:runId"), handlers.GetRunHandler(dbRun, dbExperiment))
		e.POST(api("runs/:runId/metrics"), handlers.AddMetricsHandler(dbRun, "runId"))
		e.PUT(api("runs/:runId/finish"), handlers.FinishRunHandler(dbRun, dbExperiment, "runId"))
		e.PUT(api("runs/:runId/stop"), handlers.StopRunHandler(dbRun, dbExperiment, "runId"))

		e.POST(api("runs/:runId/artifacts"), handlers.UploadRunArtifactHandler(
			dbRun, yard.Artifact().Database(), store,
			conf.Storage().MaxArtifactSize(), "runId",
		))
		e.GET(api("runs/:runId/artifacts"), handlers.ListRunArtifactsHandler(dbRun, "runId"))
	}

	{
		dbArtifact := yard.Artifact().Database()

		e.GET(api("artifacts/:digest"), handlers.DownloadArtifactHandler(
			dbArtifact, store, signKeyProviderForDownloadToken, verifyBearer, "digest",
		))
		e.POST(api("artifacts/:digest/token"), handlers.IssueDownloadTokenHandler(
			dbArtifact, signKeyProviderForDownloadToken, "digest",
		))
	}

	{
		dbModel := yard.Model().Database()
		defaultGate := domain.GatePolicy{
			Metric:    conf.Gate().Metric(),
			Threshold: conf.Gate().Threshold(),
		}

		e.POST(api("models"), handlers.RegisterModelHandler(dbModel, defaultGate))
		e.GET(api("models"), handlers.FindModelHandler(dbModel))
		e.GET(api("models/:modelName"), handlers.GetModelHandler(dbModel))
		e.GET(api("models/:modelName/current"), handlers.CurrentModelVersionHandler(dbModel, "modelName"))

		e.POST(api("models/:modelName/versions"), handlers.RegisterModelVersionHandler(dbModel, "modelName"))
		e.GET(api("models/:modelName/versions"), handlers.ListModelVersionsHandler(dbModel, "modelName"))
		e.GET(api("models/:modelName/versions/:version"), handlers.GetModelVersionHandler(dbModel, "modelName", "version"))
		e.PUT(api("models/:modelName/versions/:version/promotion"), handlers.PromoteModelVersionHandler(dbModel, "modelName", "version"))
	}

	{
		dbRelease := yard.Release().Database()

		e.POST(api("releases"), handlers.PlanReleaseHandler(dbRelease))
		e.GET(api("releases"), handlers.FindReleaseHandler(dbRelease))
		e.GET(api("releases/current"), handlers.CurrentReleaseHandler(dbRelease))
		e.GET(api("releases/:releaseId"), handlers.GetReleaseHandler(dbRelease))
		e.PUT(api("releases/:releaseId/switch"), handlers.SwitchReleaseHandler(dbRelease, "releaseId"))
	}

	{
		dbAuth := yard.Auth().Database()

		e.POST(api("tokens"), handlers.IssueTokenHandler(
			dbAuth, authEnabled, conf.Auth().Bootstrap(),
		))
		e.GET(api("tokens"), handlers.FindTokenHandler(dbAuth))
		e.DELETE(api("tokens/:tokenId"), handlers.RevokeTokenHandler(dbAuth, "tokenId"))
	}

	return e
}
