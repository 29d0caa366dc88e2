package server_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	apiartifacts "github.com/modelyard/modelyard-api-types/artifacts"
	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	apimodels "github.com/modelyard/modelyard-api-types/models"
	apipredictions "github.com/modelyard/modelyard-api-types/predictions"
	"github.com/modelyard/modelyard/cmd/inferd/server"
	httptestutil "github.com/modelyard/modelyard/internal/testutils/http"
	"github.com/modelyard/modelyard/pkg/mlmodel"
	"github.com/modelyard/modelyard/pkg/utils/cmp"
	"github.com/modelyard/modelyard/pkg/utils/try"
)

func servedFixture(t *testing.T) (*server.Holder, *mlmodel.LogisticRegression, apimodels.VersionDetail) {
	t.Helper()

	model := try.To(mlmodel.NewLogisticRegression(
		[]string{"tenure", "charges"}, 0, []float64{2, -1}, nil,
	)).OrFatal(t)

	updatedAt := try.To(rfctime.ParseRFC3339("2025-08-01T12:13:14.567+00:00")).OrFatal(t)
	version := apimodels.VersionDetail{
		VersionSummary: apimodels.VersionSummary{
			Model:     "churn-prediction",
			Version:   3,
			Status:    apimodels.StatusReady,
			Stage:     apimodels.StageProduction,
			UpdatedAt: updatedAt,
		},
		RunId: "run-1",
		Artifact: apiartifacts.Ref{
			Digest: "sha256:" + strings.Repeat("ab", 32),
			Size:   256,
		},
		Evaluations: []apimodels.GateResult{},
		CreatedAt:   updatedAt,
	}

	holder := server.NewHolder()
	holder.Swap(&server.Served{
		Model:   model,
		Version: version,
		Since:   updatedAt.Time(),
	})
	return holder, model, version
}

func assertStatusCode(t *testing.T, err error, code int) {
	t.Helper()

	var echoErr *echo.HTTPError
	if !errors.As(err, &echoErr) {
		t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
	}
	if echoErr.Code != code {
		t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, code)
	}
}

func TestHealthHandler(t *testing.T) {

	t.Run("it responds 503 before a model is loaded", func(t *testing.T) {
		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/health")

		testee := server.HealthHandler(server.NewHolder())
		assertStatusCode(t, testee(c), http.StatusServiceUnavailable)
	})

	t.Run("it tells the model being served", func(t *testing.T) {
		holder, _, version := servedFixture(t)

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/health")

		testee := server.HealthHandler(holder)
		if err := testee(c); err != nil {
			t.Fatalf("handler should not error. actual = %v", err)
		}

		actual := server.Health{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.Status != "ok" {
			t.Errorf(`unexpected status: %s (expected: "ok")`, actual.Status)
		}
		if actual.Model != version.Model || actual.Version != version.Version {
			t.Errorf(
				"unexpected model: (actual, expected) = (%s v%d, %s v%d)",
				actual.Model, actual.Version, version.Model, version.Version,
			)
		}
	})
}

func TestModelHandler(t *testing.T) {

	t.Run("it responds 503 before a model is loaded", func(t *testing.T) {
		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/model")

		testee := server.ModelHandler(server.NewHolder())
		assertStatusCode(t, testee(c), http.StatusServiceUnavailable)
	})

	t.Run("it tells the version detail being served", func(t *testing.T) {
		holder, _, version := servedFixture(t)

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/model")

		testee := server.ModelHandler(holder)
		if err := testee(c); err != nil {
			t.Fatalf("handler should not error. actual = %v", err)
		}

		actual := apimodels.VersionDetail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if !actual.Equal(version) {
			t.Errorf(
				"unexpected detail:\n===actual===\n%+v\n===expected===\n%+v",
				actual, version,
			)
		}
	})
}

func TestPredictHandler(t *testing.T) {

	post := func(t *testing.T, holder server.Source, body string) (*apipredictions.Response, error) {
		t.Helper()

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/predict", strings.NewReader(body),
			httptestutil.ContentType("application/json"),
		)

		testee := server.PredictHandler(holder)
		if err := testee(c); err != nil {
			return nil, err
		}

		resp := apipredictions.Response{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		return &resp, nil
	}

	t.Run("it responds 503 before a model is loaded", func(t *testing.T) {
		_, err := post(t, server.NewHolder(), `{"inputs": [[1, 2]]}`)
		assertStatusCode(t, err, http.StatusServiceUnavailable)
	})

	t.Run("it scores rows with the served classifier", func(t *testing.T) {
		holder, model, version := servedFixture(t)

		inputs := [][]float64{{1, 0}, {0, 3}}
		resp, err := post(t, holder, `{"inputs": [[1, 0], [0, 3]]}`)
		if err != nil {
			t.Fatalf("handler should not error. actual = %v", err)
		}

		if resp.Model != version.Model || resp.Version != version.Version {
			t.Errorf(
				"response does not name the served version: %s v%d",
				resp.Model, resp.Version,
			)
		}

		expectedOuts := make([]float64, len(inputs))
		expectedProbs := make([][]float64, len(inputs))
		for i, x := range inputs {
			expectedOuts[i] = try.To(model.Predict(x)).OrFatal(t)
			p := try.To(model.PredictProba(x)).OrFatal(t)
			expectedProbs[i] = []float64{1 - p, p}
		}

		if !cmp.SliceEq(resp.Outputs, expectedOuts) {
			t.Errorf(
				"unexpected outputs: (actual, expected) = (%v, %v)",
				resp.Outputs, expectedOuts,
			)
		}
		if !cmp.SliceEqWith(
			resp.Probabilities, expectedProbs,
			func(a, b []float64) bool { return cmp.SliceEq(a, b) },
		) {
			t.Errorf(
				"unexpected probabilities: (actual, expected) = (%v, %v)",
				resp.Probabilities, expectedProbs,
			)
		}
	})

	t.Run("it keeps probabilities out for regressors", func(t *testing.T) {
		model := try.To(mlmodel.NewLinearRegression(
			[]string{"area"}, 2, []float64{1.5},
		)).OrFatal(t)
		holder := server.NewHolder()
		holder.Swap(&server.Served{Model: model})

		resp, err := post(t, holder, `{"inputs": [[2]]}`)
		if err != nil {
			t.Fatalf("handler should not error. actual = %v", err)
		}

		if !cmp.SliceEq(resp.Outputs, []float64{5}) {
			t.Errorf("unexpected outputs: %v (expected: [5])", resp.Outputs)
		}
		if resp.Probabilities != nil {
			t.Errorf("probabilities should be omitted: %v", resp.Probabilities)
		}
	})

	t.Run("it responds 422 when rows do not fit the model", func(t *testing.T) {
		holder, _, _ := servedFixture(t)

		_, err := post(t, holder, `{"inputs": [[1, 2, 3]]}`)
		assertStatusCode(t, err, http.StatusUnprocessableEntity)
	})

	t.Run("it responds 400 for ragged rows", func(t *testing.T) {
		holder, _, _ := servedFixture(t)

		_, err := post(t, holder, `{"inputs": [[1, 2], [1]]}`)
		assertStatusCode(t, err, http.StatusBadRequest)
	})

	t.Run("it responds 400 for empty inputs", func(t *testing.T) {
		holder, _, _ := servedFixture(t)

		_, err := post(t, holder, `{"inputs": []}`)
		assertStatusCode(t, err, http.StatusBadRequest)
	})

	t.Run("it responds 400 for a body which is not json", func(t *testing.T) {
		holder, _, _ := servedFixture(t)

		_, err := post(t, holder, `to be, or not to be`)
		assertStatusCode(t, err, http.StatusBadRequest)
	})
}
