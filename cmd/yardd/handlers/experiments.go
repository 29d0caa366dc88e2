package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	apiexperiments "github.com/modelyard/modelyard-api-types/experiments"
	apitags "github.com/modelyard/modelyard-api-types/tags"
	binderr "github.com/modelyard/modelyard/pkg/api-types-binding/errors"
	bindexperiments "github.com/modelyard/modelyard/pkg/api-types-binding/experiments"
	"github.com/modelyard/modelyard/pkg/domain"
	domerr "github.com/modelyard/modelyard/pkg/domain/errors"
	kdbexp "github.com/modelyard/modelyard/pkg/domain/experiment/db"
	"github.com/modelyard/modelyard/pkg/utils"
	kstrings "github.com/modelyard/modelyard/pkg/utils/strings"
)

func CreateExperimentHandler(dbExperiment kdbexp.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		if strings.ToLower(req.Header.Get("content-type")) != "application/json" {
			return binderr.BadRequest(
				"unexpected content type. it shoule be application/json", nil,
			)
		}

		specInReq := new(apiexperiments.Spec)
		if err := json.NewDecoder(req.Body).Decode(specInReq); err != nil {
			return binderr.BadRequest(
				"can not understand the requested json", err,
			)
		}
		if specInReq.Name == "" {
			return binderr.BadRequest(`"name" is required`, nil)
		}

		spec := domain.ExperimentSpec{
			Name:        specInReq.Name,
			Description: specInReq.Description,
			Tags: utils.Map(specInReq.Tags, func(ut apitags.UserTag) domain.Tag {
				return domain.Tag{Key: ut.Key, Value: ut.Value}
			}),
		}

		experiment, err := dbExperiment.New(ctx, spec)
		if err != nil {
			if errors.Is(err, domerr.ErrAlreadyExists) {
				return binderr.Conflict(
					"experiment name is already used",
					binderr.WithError(err),
				)
			}
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindexperiments.ComposeDetail(experiment))
	}
}

func FindExperimentHandler(dbExperiment kdbexp.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		query := domain.ExperimentFindQuery{
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

		experiments, err := dbExperiment.Find(ctx, query)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		resp := utils.Map(experiments, bindexperiments.ComposeDetail)
		return c.JSON(http.StatusOK, resp)
	}
}

func GetExperimentHandler(dbExperiment kdbexp.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		experimentId := c.Param("experimentId")

		experiments, err := dbExperiment.Get(ctx, []string{experimentId})
		if err != nil {
			return binderr.InternalServerError(err)
		}

		experiment, ok := experiments[experimentId]
		if !ok {
			return binderr.NotFound()
		}

		return c.JSON(http.StatusOK, bindexperiments.ComposeDetail(experiment))
	}
}
