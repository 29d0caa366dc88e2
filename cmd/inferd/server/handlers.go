package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	apipredictions "github.com/modelyard/modelyard-api-types/predictions"
	binderr "github.com/modelyard/modelyard/pkg/api-types-binding/errors"
	"github.com/modelyard/modelyard/pkg/mlmodel"
)

// Health is the body of GET /api/health.
type Health struct {
	Status  string          `json:"status"`
	Model   string          `json:"model"`
	Version int             `json:"version"`
	Since   rfctime.RFC3339 `json:"since"`
}

func noModelLoaded() *echo.HTTPError {
	return binderr.ServiceUnavailable("no model is loaded yet", nil)
}

// HealthHandler reports the model being served.
//
// Load balancers route traffic here only after a model answers, so a
// daemon still loading (or holding nothing) says 503.
func HealthHandler(src Source) echo.HandlerFunc {
	return func(c echo.Context) error {
		s, ok := src.Current()
		if !ok {
			return noModelLoaded()
		}
		return c.JSON(http.StatusOK, Health{
			Status:  "ok",
			Model:   s.Version.Model,
			Version: s.Version.Version,
			Since:   rfctime.New(s.Since),
		})
	}
}

// ModelHandler tells the full version detail being served.
func ModelHandler(src Source) echo.HandlerFunc {
	return func(c echo.Context) error {
		s, ok := src.Current()
		if !ok {
			return noModelLoaded()
		}
		return c.JSON(http.StatusOK, s.Version)
	}
}

// PredictHandler scores feature rows with the model being served.
func PredictHandler(src Source) echo.HandlerFunc {
	return func(c echo.Context) error {
		s, ok := src.Current()
		if !ok {
			return noModelLoaded()
		}

		req := apipredictions.Request{}
		if err := c.Bind(&req); err != nil {
			return binderr.BadRequest("request body should be a json object with inputs", err)
		}
		if err := req.Validate(); err != nil {
			return binderr.BadRequest(err.Error(), err)
		}

		outputs, err := mlmodel.PredictBatch(s.Model, req.Inputs)
		if err != nil {
			if errors.Is(err, mlmodel.ErrWidthMismatch) {
				return binderr.NewErrorMessage(
					http.StatusUnprocessableEntity,
					"inputs do not fit the model",
					binderr.WithAdvice(fmt.Sprintf(
						"%s v%d takes %d features per row",
						s.Version.Model, s.Version.Version, len(s.Model.Features()),
					)),
					binderr.WithError(err),
				)
			}
			return binderr.InternalServerError(err)
		}

		resp := apipredictions.Response{
			Model:   s.Version.Model,
			Version: s.Version.Version,
			Outputs: outputs,
		}

		// classifiers also tell how sure they are.
		if lm, ok := s.Model.(*mlmodel.LogisticRegression); ok {
			probs := make([][]float64, len(req.Inputs))
			for i, x := range req.Inputs {
				p, err := lm.PredictProba(x)
				if err != nil {
					return binderr.InternalServerError(err)
				}
				probs[i] = []float64{1 - p, p}
			}
			resp.Probabilities = probs
		}

		return c.JSON(http.StatusOK, resp)
	}
}
