package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	apiartifacts "github.com/modelyard/modelyard-api-types/artifacts"
	apimodels "github.com/modelyard/modelyard-api-types/models"
	apitags "github.com/modelyard/modelyard-api-types/tags"
	binderr "github.com/modelyard/modelyard/pkg/api-types-binding/errors"
	bindmodels "github.com/modelyard/modelyard/pkg/api-types-binding/models"
	"github.com/modelyard/modelyard/pkg/domain"
	domerr "github.com/modelyard/modelyard/pkg/domain/errors"
	kdbmodel "github.com/modelyard/modelyard/pkg/domain/model/db"
	"github.com/modelyard/modelyard/pkg/utils"
	kstrings "github.com/modelyard/modelyard/pkg/utils/strings"
)

func RegisterModelHandler(
	dbModel kdbmodel.Interface,
	defaultGate domain.GatePolicy,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		if strings.ToLower(req.Header.Get("content-type")) != "application/json" {
			return binderr.BadRequest(
				"unexpected content type. it shoule be application/json", nil,
			)
		}

		specInReq := new(apimodels.Spec)
		if err := json.NewDecoder(req.Body).Decode(specInReq); err != nil {
			return binderr.BadRequest(
				"can not understand the requested json", err,
			)
		}
		if specInReq.Name == "" {
			return binderr.BadRequest(`"name" is required`, nil)
		}

		gate := defaultGate
		if g := specInReq.Gate; g != nil {
			gate = domain.GatePolicy{
				Metric:             g.Metric,
				Threshold:          g.Threshold,
				RequireImprovement: g.RequireImprovement,
			}
		}

		spec := domain.ModelSpec{
			Name:        specInReq.Name,
			Description: specInReq.Description,
			Gate:        gate,
			Tags: utils.Map(specInReq.Tags, func(ut apitags.UserTag) domain.Tag {
				return domain.Tag{Key: ut.Key, Value: ut.Value}
			}),
		}

		if err := dbModel.Register(ctx, spec); err != nil {
			if errors.Is(err, domerr.ErrAlreadyExists) {
				return binderr.Conflict(
					"model name is already used",
					binderr.WithError(err),
				)
			}
			return binderr.InternalServerError(err)
		}

		models, err := dbModel.Get(ctx, []string{spec.Name})
		if err != nil {
			return binderr.InternalServerError(err)
		}
		model, ok := models[spec.Name]
		if !ok {
			return binderr.InternalServerError(
				errors.New("failed to get the newly registered model"),
			)
		}

		return c.JSON(http.StatusOK, bindmodels.ComposeDetail(model))
	}
}

func FindModelHandler(dbModel kdbmodel.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		query := domain.ModelFindQuery{
			Name: c.QueryParam("name"),
		}
		for _, expr := range kstrings.SplitIfNotEmpty(c.QueryParam("tag"), ",") {
			tag := apitags.Tag{}
			if err := tag.Parse(expr); err != nil {
				return binderr.BadRequest(
					`"tag" should be formatted as KEY:VALUE`, err,
				)
			}
			query.Tag = append(query.Tag, domain.Tag{Key: tag.Key, Value: tag.Value})
		}
		for _, s := range kstrings.SplitIfNotEmpty(c.QueryParam("stage"), ",") {
			stage, err := domain.AsStage(s)
			if err != nil {
				return binderr.BadRequest(
					`"stage" should be one of "none", "staging", "production" or "archived"`,
					err,
				)
			}
			query.Stage = append(query.Stage, stage)
		}

		names, err := dbModel.Find(ctx, query)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		models, err := dbModel.Get(ctx, names)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		resp := make([]apimodels.Detail, 0, len(models))
		for _, name := range names {
			model, ok := models[name]
			if !ok {
				continue
			}
			resp = append(resp, bindmodels.ComposeDetail(model))
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func GetModelHandler(dbModel kdbmodel.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		name := c.Param("modelName")

		models, err := dbModel.Get(ctx, []string{name})
		if err != nil {
			return binderr.InternalServerError(err)
		}
		model, ok := models[name]
		if !ok {
			return binderr.NotFound()
		}

		return c.JSON(http.StatusOK, bindmodels.ComposeDetail(model))
	}
}

func RegisterModelVersionHandler(
	dbModel kdbmodel.Interface,
	paramModelName string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		name := c.Param(paramModelName)

		specInReq := new(apimodels.RegisterSpec)
		if err := json.NewDecoder(req.Body).Decode(specInReq); err != nil {
			return binderr.BadRequest(
				"can not understand the requested json", err,
			)
		}
		if specInReq.RunId == "" {
			return binderr.BadRequest(`"runId" is required`, nil)
		}
		digest, err := apiartifacts.ParseDigest(specInReq.Digest)
		if err != nil {
			return binderr.BadRequest(`digest should be formatted as "sha256:..."`, err)
		}

		version, err := dbModel.NewVersion(ctx, name, specInReq.RunId, digest)
		if err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			if errors.Is(err, domain.ErrRunNotFinished) {
				return binderr.Conflict(
					"versions are registered from finished runs only",
					binderr.WithError(err),
				)
			}
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindmodels.ComposeVersionDetail(version))
	}
}

func ListModelVersionsHandler(
	dbModel kdbmodel.Interface,
	paramModelName string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		name := c.Param(paramModelName)

		versions, err := dbModel.Versions(ctx, name)
		if err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		resp := utils.Map(versions, bindmodels.ComposeVersionDetail)
		return c.JSON(http.StatusOK, resp)
	}
}

func GetModelVersionHandler(
	dbModel kdbmodel.Interface,
	paramModelName string,
	paramVersion string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		name := c.Param(paramModelName)

		version, err := strconv.Atoi(c.Param(paramVersion))
		if err != nil {
			return binderr.BadRequest(`"version" should be an integer`, err)
		}

		found, err := dbModel.GetVersion(ctx, name, version)
		if err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindmodels.ComposeVersionDetail(found))
	}
}

func PromoteModelVersionHandler(
	dbModel kdbmodel.Interface,
	paramModelName string,
	paramVersion string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		name := c.Param(paramModelName)

		version, err := strconv.Atoi(c.Param(paramVersion))
		if err != nil {
			return binderr.BadRequest(`"version" should be an integer`, err)
		}

		specInReq := new(apimodels.PromotionSpec)
		if err := json.NewDecoder(req.Body).Decode(specInReq); err != nil {
			return binderr.BadRequest(
				"can not understand the requested json", err,
			)
		}
		stage, err := domain.AsStage(specInReq.Stage.String())
		if err != nil {
			return binderr.BadRequest(
				`"stage" should be one of "none", "staging", "production" or "archived"`,
				err,
			)
		}

		promoted, err := dbModel.Promote(ctx, name, version, stage)
		if err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			if errors.Is(err, domain.ErrPromotionBlocked) {
				return binderr.Conflict(
					err.Error(),
					binderr.WithError(err),
				)
			}
			if errors.Is(err, domain.ErrVersionNotReady) {
				return binderr.Conflict(
					"the version has not passed its gates",
					binderr.WithError(err),
				)
			}
			if errors.Is(err, domain.ErrInvalidStageChanging) {
				return binderr.Conflict(
					"prohibited stage changing",
					binderr.WithError(err),
				)
			}
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindmodels.ComposeVersionDetail(promoted))
	}
}

func CurrentModelVersionHandler(
	dbModel kdbmodel.Interface,
	paramModelName string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		name := c.Param(paramModelName)

		stage := domain.StageProduction
		if s := c.QueryParam("stage"); s != "" {
			parsed, err := domain.AsStage(s)
			if err != nil || (parsed != domain.StageStaging && parsed != domain.StageProduction) {
				return binderr.BadRequest(
					`"stage" should be "staging" or "production"`, err,
				)
			}
			stage = parsed
		}

		current, err := dbModel.CurrentOf(ctx, name, stage)
		if err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindmodels.ComposeVersionDetail(current))
	}
}
