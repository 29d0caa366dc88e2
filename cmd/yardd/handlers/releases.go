package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	apiartifacts "github.com/modelyard/modelyard-api-types/artifacts"
	apireleases "github.com/modelyard/modelyard-api-types/releases"
	binderr "github.com/modelyard/modelyard/pkg/api-types-binding/errors"
	bindreleases "github.com/modelyard/modelyard/pkg/api-types-binding/releases"
	"github.com/modelyard/modelyard/pkg/domain"
	domerr "github.com/modelyard/modelyard/pkg/domain/errors"
	kdbrelease "github.com/modelyard/modelyard/pkg/domain/release/db"
)

func PlanReleaseHandler(dbRelease kdbrelease.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		if strings.ToLower(req.Header.Get("content-type")) != "application/json" {
			return binderr.BadRequest(
				"unexpected content type. it shoule be application/json", nil,
			)
		}

		specInReq := new(apireleases.Spec)
		if err := json.NewDecoder(req.Body).Decode(specInReq); err != nil {
			return binderr.BadRequest(
				"can not understand the requested json", err,
			)
		}
		if specInReq.Environment == "" {
			return binderr.BadRequest(`"environment" is required`, nil)
		}
		if specInReq.Model == "" {
			return binderr.BadRequest(`"model" is required`, nil)
		}
		if specInReq.Version <= 0 {
			return binderr.BadRequest(`"version" should be a positive integer`, nil)
		}
		if specInReq.Image.Repository == "" || specInReq.Image.Tag == "" {
			return binderr.BadRequest(`"image" is required, as "repository:tag"`, nil)
		}

		// the client resolves the tag to a digest before planning, so
		// the release stays pinned when the tag moves later.
		imageDigest, err := apiartifacts.ParseDigest(specInReq.ImageDigest)
		if err != nil {
			return binderr.BadRequest(
				`"imageDigest" should be formatted as "sha256:..."`, err,
			)
		}

		spec := domain.ReleaseSpec{
			Environment: specInReq.Environment,
			ModelName:   specInReq.Model,
			Version:     specInReq.Version,
			Image:       specInReq.Image.String(),
		}

		release, err := dbRelease.Plan(ctx, spec, imageDigest)
		if err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			if errors.Is(err, domain.ErrVersionNotReady) {
				return binderr.Conflict(
					"the version has not passed its gates",
					binderr.WithError(err),
				)
			}
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindreleases.ComposeDetail(release))
	}
}

func FindReleaseHandler(dbRelease kdbrelease.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		ids, err := dbRelease.Find(ctx, c.QueryParam("env"))
		if err != nil {
			return binderr.InternalServerError(err)
		}

		releases, err := dbRelease.Get(ctx, ids)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		resp := make([]apireleases.Detail, 0, len(releases))
		for _, id := range ids {
			release, ok := releases[id]
			if !ok {
				continue
			}
			resp = append(resp, bindreleases.ComposeDetail(release))
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func GetReleaseHandler(dbRelease kdbrelease.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		releaseId := c.Param("releaseId")

		releases, err := dbRelease.Get(ctx, []string{releaseId})
		if err != nil {
			return binderr.InternalServerError(err)
		}
		release, ok := releases[releaseId]
		if !ok {
			return binderr.NotFound()
		}

		return c.JSON(http.StatusOK, bindreleases.ComposeDetail(release))
	}
}

func SwitchReleaseHandler(dbRelease kdbrelease.Interface, paramReleaseId string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		releaseId := c.Param(paramReleaseId)

		release, err := dbRelease.Switch(ctx, releaseId)
		if err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			if errors.Is(err, domain.ErrReleaseNotStaged) {
				return binderr.Conflict(
					"only staged releases can go live",
					binderr.WithError(err),
				)
			}
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindreleases.ComposeDetail(release))
	}
}

func CurrentReleaseHandler(dbRelease kdbrelease.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		env := c.QueryParam("env")
		if env == "" {
			return binderr.BadRequest(`"env" query parameter is required`, nil)
		}

		release, err := dbRelease.CurrentOf(ctx, env)
		if err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindreleases.ComposeDetail(release))
	}
}
