package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	apiartifacts "github.com/modelyard/modelyard-api-types/artifacts"
	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	binderr "github.com/modelyard/modelyard/pkg/api-types-binding/errors"
	"github.com/modelyard/modelyard/pkg/domain"
	domerr "github.com/modelyard/modelyard/pkg/domain/errors"
	kdbart "github.com/modelyard/modelyard/pkg/domain/artifact/db"
	kdbrun "github.com/modelyard/modelyard/pkg/domain/run/db"
	"github.com/modelyard/modelyard/pkg/keychain"
	"github.com/modelyard/modelyard/pkg/keychain/provider"
	"github.com/modelyard/modelyard/pkg/storage"
	"github.com/modelyard/modelyard/pkg/utils"
)

// how long an issued download token stays usable.
const downloadTokenTTL = 15 * time.Minute

// ArtifactDownloadClaim is the JWS payload of a download token.
//
// It grants reading the one artifact it names, nothing else.
type ArtifactDownloadClaim struct {
	jwt.RegisteredClaims

	// private claims
	Digest string `json:"modelyard/digest"`
}

func UploadRunArtifactHandler(
	dbRun kdbrun.Interface,
	dbArtifact kdbart.Interface,
	store storage.Store,
	maxArtifactSize int64,
	paramRunId string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		runId := c.Param(paramRunId)

		name := c.QueryParam("name")
		if name == "" {
			return binderr.BadRequest(`"name" query parameter is required`, nil)
		}
		if req.Body == nil {
			return binderr.BadRequest("artifact content is required in body", nil)
		}

		body := req.Body
		if 0 < maxArtifactSize {
			body = http.MaxBytesReader(c.Response(), body, maxArtifactSize)
		}

		// fail fast before accepting the whole upload.
		{
			runs, err := dbRun.Get(ctx, []string{runId})
			if err != nil {
				return binderr.InternalServerError(err)
			}
			run, ok := runs[runId]
			if !ok {
				return binderr.NotFound()
			}
			if run.Status != domain.Running {
				return binderr.Conflict(
					"artifacts are accepted for running runs only",
					binderr.WithError(domain.ErrRunNotRunning),
				)
			}
		}

		digest, size, err := store.Put(ctx, body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return binderr.NewErrorMessage(
					http.StatusRequestEntityTooLarge,
					fmt.Sprintf("artifact is larger than the limit (%d bytes)", tooLarge.Limit),
				)
			}
			return binderr.InternalServerError(err)
		}

		if _, err := dbArtifact.Register(ctx, digest, size); err != nil {
			// orphaned blobs are collected, no cleanup here.
			return binderr.InternalServerError(err)
		}

		if err := dbRun.AttachArtifact(ctx, runId, name, digest); err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			if errors.Is(err, domain.ErrRunNotRunning) {
				return binderr.Conflict(
					"artifacts are accepted for running runs only",
					binderr.WithError(err),
				)
			}
			if errors.Is(err, domerr.ErrAlreadyExists) {
				return binderr.Conflict(
					fmt.Sprintf("artifact %s is attached to the run already", name),
					binderr.WithError(err),
				)
			}
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiartifacts.Ref{
			Digest: digest,
			Name:   name,
			Size:   size,
		})
	}
}

func ListRunArtifactsHandler(dbRun kdbrun.Interface, paramRunId string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		runId := c.Param(paramRunId)

		runs, err := dbRun.Get(ctx, []string{runId})
		if err != nil {
			return binderr.InternalServerError(err)
		}
		run, ok := runs[runId]
		if !ok {
			return binderr.NotFound()
		}

		resp := utils.Map(run.Artifacts, func(a domain.ArtifactRef) apiartifacts.Ref {
			return apiartifacts.Ref{Digest: a.Digest, Name: a.Name, Size: a.Size}
		})
		return c.JSON(http.StatusOK, resp)
	}
}

// DownloadArtifactHandler streams an artifact blob.
//
// The route is left open by the bearer middleware. Callers present
// either a download token (?token=...) or normal API credentials.
// verifyBearer is nil when the server runs without auth.
func DownloadArtifactHandler(
	dbArtifact kdbart.Interface,
	store storage.Store,
	kp provider.KeyProvider,
	verifyBearer func(ctx context.Context, authorizationHeader string) error,
	paramDigest string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		digest, err := apiartifacts.ParseDigest(c.Param(paramDigest))
		if err != nil {
			return binderr.BadRequest(`digest should be formatted as "sha256:..."`, err)
		}

		if token := c.QueryParam("token"); token != "" {
			kc, err := kp.GetKeychain(ctx)
			if err != nil {
				return binderr.InternalServerError(err)
			}
			claims, err := keychain.VerifyJWS[*ArtifactDownloadClaim](kc, token)
			if err != nil {
				if errors.Is(err, keychain.ErrInvalidToken) || errors.Is(err, keychain.ErrNoKeyFound) {
					return binderr.Unauthorized("download token is not accepted", err)
				}
				return binderr.InternalServerError(err)
			}
			if claims.Digest != digest {
				return binderr.Unauthorized("download token is for another artifact", nil)
			}
		} else if verifyBearer != nil {
			if err := verifyBearer(ctx, c.Request().Header.Get("Authorization")); err != nil {
				return binderr.Unauthorized("bearer token or download token is required", err)
			}
		}

		artifacts, err := dbArtifact.Get(ctx, []string{digest})
		if err != nil {
			return binderr.InternalServerError(err)
		}
		artifact, ok := artifacts[digest]
		if !ok {
			return binderr.NotFound()
		}

		r, size, err := store.Open(ctx, digest)
		if err != nil {
			// storage.ErrNotFound here means the record exists but the
			// blob is gone. That is not a client error.
			return binderr.InternalServerError(err)
		}
		defer r.Close()

		resp := c.Response()
		resp.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		resp.Header().Set("X-Modelyard-Digest", artifact.Digest)
		return c.Stream(http.StatusOK, "application/octet-stream", r)
	}
}

func IssueDownloadTokenHandler(
	dbArtifact kdbart.Interface,
	kp provider.KeyProvider,
	paramDigest string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		digest, err := apiartifacts.ParseDigest(c.Param(paramDigest))
		if err != nil {
			return binderr.BadRequest(`digest should be formatted as "sha256:..."`, err)
		}

		artifacts, err := dbArtifact.Get(ctx, []string{digest})
		if err != nil {
			return binderr.InternalServerError(err)
		}
		if _, ok := artifacts[digest]; !ok {
			return binderr.NotFound()
		}

		expiresAt := time.Now().Add(downloadTokenTTL)
		key, err := kp.Provide(ctx, provider.WithExpAfter(expiresAt))
		if err != nil {
			return binderr.InternalServerError(err)
		}

		token, err := keychain.NewJWS(key, ArtifactDownloadClaim{
			RegisteredClaims: jwt.RegisteredClaims{
				// jti
				ID: uuid.NewString(),

				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},

			// private claims
			Digest: digest,
		})
		if err != nil {
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiartifacts.Token{
			Token:     token,
			ExpiresAt: rfctime.New(expiresAt),
		})
	}
}
