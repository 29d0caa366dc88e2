package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	apiartifacts "github.com/modelyard/modelyard-api-types/artifacts"
	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	apimodels "github.com/modelyard/modelyard-api-types/models"
	apitags "github.com/modelyard/modelyard-api-types/tags"
	handlers "github.com/modelyard/modelyard/cmd/yardd/handlers"
	httptestutil "github.com/modelyard/modelyard/internal/testutils/http"
	"github.com/modelyard/modelyard/pkg/domain"
	kerr "github.com/modelyard/modelyard/pkg/domain/errors"
	mockmodel "github.com/modelyard/modelyard/pkg/domain/model/db/mock"
	"github.com/modelyard/modelyard/pkg/utils/cmp"
	"github.com/modelyard/modelyard/pkg/utils/pointer"
	"github.com/modelyard/modelyard/pkg/utils/try"
)

func TestRegisterModelHandler(t *testing.T) {

	t.Run("it registers a model and responds with its detail", func(t *testing.T) {
		createdAt := try.To(rfctime.ParseRFC3339(
			"2025-04-01T12:34:56+00:00",
		)).OrFatal(t).Time()

		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.Register = func(ctx context.Context, spec domain.ModelSpec) error {
			return nil
		}
		mockModel.Impl.Get = func(ctx context.Context, names []string) (map[string]domain.Model, error) {
			return map[string]domain.Model{
				"churn": {
					Name:        "churn",
					Description: "weekly churn model",
					Gate: domain.GatePolicy{
						Metric:             "auc",
						Threshold:          pointer.Ref(0.9),
						RequireImprovement: true,
					},
					Tags:      domain.NewTagSet([]domain.Tag{{Key: "team", Value: "fraud"}}),
					CreatedAt: createdAt,
				},
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/models",
			bytes.NewBufferString(`{
				"name": "churn",
				"description": "weekly churn model",
				"gate": {"metric": "auc", "threshold": 0.9, "requireImprovement": true},
				"tags": [{"key": "team", "value": "fraud"}]
			}`),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.RegisterModelHandler(mockModel, domain.GatePolicy{})
		if err := testee(c); err != nil {
			t.Fatalf("handler should not error. actual = %v", err)
		}

		expectedSpec := domain.ModelSpec{
			Name:        "churn",
			Description: "weekly churn model",
			Gate: domain.GatePolicy{
				Metric:             "auc",
				Threshold:          pointer.Ref(0.9),
				RequireImprovement: true,
			},
			Tags: []domain.Tag{{Key: "team", Value: "fraud"}},
		}
		if len(mockModel.Calls.Register) != 1 {
			t.Fatalf("Register should be called once. actual = %d", len(mockModel.Calls.Register))
		}
		if actual := mockModel.Calls.Register[0]; actual.Name != expectedSpec.Name ||
			actual.Description != expectedSpec.Description ||
			!actual.Gate.Equal(expectedSpec.Gate) ||
			!cmp.SliceContentEqWith(
				actual.Tags, expectedSpec.Tags,
				func(a, b domain.Tag) bool { return a.Equal(b) },
			) {
			t.Errorf(
				"unmatch: params for ModelInterface.Register:\n- actual:\n%+v\n- expected:\n%+v",
				actual, expectedSpec,
			)
		}

		if respRec.Result().StatusCode != http.StatusOK {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusOK)
		}

		actual := apimodels.Detail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: error = %v", err)
		}
		expected := apimodels.Detail{
			Summary: apimodels.Summary{
				Name:        "churn",
				Description: "weekly churn model",
				CreatedAt:   rfctime.New(createdAt),
			},
			Gate: &apimodels.GatePolicy{
				Metric:             "auc",
				Threshold:          pointer.Ref(0.9),
				RequireImprovement: true,
			},
			Tags:     []apitags.Tag{{Key: "team", Value: "fraud"}},
			Versions: []apimodels.VersionSummary{},
		}
		if !actual.Equal(expected) {
			t.Errorf(
				"data does not match. (actual, expected) = \n(%+v, \n%+v)",
				actual, expected,
			)
		}
	})

	t.Run("it falls back to the default gate policy", func(t *testing.T) {
		defaultGate := domain.GatePolicy{
			Metric:    "accuracy",
			Threshold: pointer.Ref(0.8),
		}

		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.Register = func(ctx context.Context, spec domain.ModelSpec) error {
			return nil
		}
		mockModel.Impl.Get = func(ctx context.Context, names []string) (map[string]domain.Model, error) {
			return map[string]domain.Model{
				"churn": {
					Name: "churn", Gate: defaultGate,
					Tags: domain.NewTagSet(nil),
				},
			}, nil
		}

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/models",
			bytes.NewBufferString(`{"name": "churn"}`),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.RegisterModelHandler(mockModel, defaultGate)
		if err := testee(c); err != nil {
			t.Fatalf("handler should not error. actual = %v", err)
		}

		if len(mockModel.Calls.Register) != 1 {
			t.Fatalf("Register should be called once. actual = %d", len(mockModel.Calls.Register))
		}
		if actual := mockModel.Calls.Register[0].Gate; !actual.Equal(defaultGate) {
			t.Errorf(
				"unmatch gate policy: %+v != %+v",
				actual, defaultGate,
			)
		}
	})

	t.Run("it responds 400 when content type is not json", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/models",
			bytes.NewBufferString(`name: churn`),
			httptestutil.ContentType("text/plain"),
		)

		testee := handlers.RegisterModelHandler(mockModel, domain.GatePolicy{})
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusBadRequest {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusBadRequest)
		}
	})

	t.Run("it responds 400 when name is missing", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/models",
			bytes.NewBufferString(`{"description": "no name here"}`),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.RegisterModelHandler(mockModel, domain.GatePolicy{})
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusBadRequest {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusBadRequest)
		}
	})

	t.Run("it responds 409 when the name is already used", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.Register = func(ctx context.Context, spec domain.ModelSpec) error {
			return kerr.ErrAlreadyExists
		}

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/models",
			bytes.NewBufferString(`{"name": "churn"}`),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.RegisterModelHandler(mockModel, domain.GatePolicy{})
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusConflict {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusConflict)
		}
	})

	t.Run("it responds 500 when database fails", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.Register = func(ctx context.Context, spec domain.ModelSpec) error {
			return errors.New("fake database error")
		}

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/models",
			bytes.NewBufferString(`{"name": "churn"}`),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.RegisterModelHandler(mockModel, domain.GatePolicy{})
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusInternalServerError {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusInternalServerError)
		}
	})
}

func TestFindModelHandler(t *testing.T) {

	t.Run("it passes query dimensions to Find", func(t *testing.T) {
		for name, testcase := range map[string]struct {
			request string
			query   domain.ModelFindQuery
		}{
			"with no queries, it matches everything": {
				request: "/api/models",
				query:   domain.ModelFindQuery{},
			},
			"when it is queried about name": {
				request: "/api/models?name=churn",
				query:   domain.ModelFindQuery{Name: "churn"},
			},
			"when it is queried about tags": {
				request: "/api/models?tag=team:fraud,task:classification",
				query: domain.ModelFindQuery{
					Tag: []domain.Tag{
						{Key: "team", Value: "fraud"},
						{Key: "task", Value: "classification"},
					},
				},
			},
			"when it is queried about stages": {
				request: "/api/models?stage=staging,production",
				query: domain.ModelFindQuery{
					Stage: []domain.Stage{domain.StageStaging, domain.StageProduction},
				},
			},
			"when it is queried about everything": {
				request: "/api/models?name=churn&tag=team:fraud&stage=production",
				query: domain.ModelFindQuery{
					Name:  "churn",
					Tag:   []domain.Tag{{Key: "team", Value: "fraud"}},
					Stage: []domain.Stage{domain.StageProduction},
				},
			},
		} {
			t.Run(name, func(t *testing.T) {
				mockModel := mockmodel.NewModelInterface()
				mockModel.Impl.Find = func(ctx context.Context, query domain.ModelFindQuery) ([]string, error) {
					return []string{}, nil
				}
				mockModel.Impl.Get = func(ctx context.Context, names []string) (map[string]domain.Model, error) {
					return map[string]domain.Model{}, nil
				}

				e := echo.New()
				c, respRec := httptestutil.Get(e, testcase.request)

				testee := handlers.FindModelHandler(mockModel)
				if err := testee(c); err != nil {
					t.Fatalf("handler should not error. actual = %v", err)
				}

				if !cmp.SliceEqWith(
					mockModel.Calls.Find,
					[]domain.ModelFindQuery{testcase.query},
					domain.ModelFindQuery.Equal,
				) {
					t.Errorf(
						"unmatch: params for ModelInterface.Find:\n- actual:\n%+v\n- expected:\n%+v",
						mockModel.Calls.Find, []domain.ModelFindQuery{testcase.query},
					)
				}

				if respRec.Result().StatusCode != http.StatusOK {
					t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusOK)
				}
			})
		}
	})

	t.Run("it responds with found models", func(t *testing.T) {
		createdAt := try.To(rfctime.ParseRFC3339(
			"2025-04-01T12:34:56+00:00",
		)).OrFatal(t).Time()
		versionedAt := createdAt.Add(time.Hour)

		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.Find = func(ctx context.Context, query domain.ModelFindQuery) ([]string, error) {
			return []string{"churn", "upsell"}, nil
		}
		mockModel.Impl.Get = func(ctx context.Context, names []string) (map[string]domain.Model, error) {
			return map[string]domain.Model{
				"churn": {
					Name: "churn",
					Gate: domain.GatePolicy{
						Metric:    "auc",
						Threshold: pointer.Ref(0.9),
					},
					Tags:      domain.NewTagSet(nil),
					CreatedAt: createdAt,
					Versions: []domain.ModelVersion{
						{
							ModelName: "churn", Version: 1,
							Status: domain.ReadyVersion, Stage: domain.StageProduction,
							CreatedAt: versionedAt, UpdatedAt: versionedAt,
						},
					},
				},
				"upsell": {
					Name:      "upsell",
					Tags:      domain.NewTagSet(nil),
					CreatedAt: createdAt,
				},
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/models")

		testee := handlers.FindModelHandler(mockModel)
		if err := testee(c); err != nil {
			t.Fatalf("handler should not error. actual = %v", err)
		}

		actual := []apimodels.Detail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: error = %v", err)
		}
		expected := []apimodels.Detail{
			{
				Summary: apimodels.Summary{Name: "churn", CreatedAt: rfctime.New(createdAt)},
				Gate: &apimodels.GatePolicy{
					Metric:    "auc",
					Threshold: pointer.Ref(0.9),
				},
				Tags: []apitags.Tag{},
				Versions: []apimodels.VersionSummary{
					{
						Model: "churn", Version: 1,
						Status: apimodels.StatusReady, Stage: apimodels.StageProduction,
						UpdatedAt: rfctime.New(versionedAt),
					},
				},
			},
			{
				Summary:  apimodels.Summary{Name: "upsell", CreatedAt: rfctime.New(createdAt)},
				Tags:     []apitags.Tag{},
				Versions: []apimodels.VersionSummary{},
			},
		}
		if !cmp.SliceEqWith(actual, expected, apimodels.Detail.Equal) {
			t.Errorf(
				"data does not match. (actual, expected) = \n(%+v, \n%+v)",
				actual, expected,
			)
		}
	})

	t.Run("it responds 400 for queries it can not understand", func(t *testing.T) {
		for name, request := range map[string]string{
			"broken tag":    "/api/models?tag=not-a-tag",
			"unknown stage": "/api/models?stage=shipping",
		} {
			t.Run(name, func(t *testing.T) {
				mockModel := mockmodel.NewModelInterface()

				e := echo.New()
				c, _ := httptestutil.Get(e, request)

				testee := handlers.FindModelHandler(mockModel)
				err := testee(c)

				var echoErr *echo.HTTPError
				if !errors.As(err, &echoErr) {
					t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
				}
				if echoErr.Code != http.StatusBadRequest {
					t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusBadRequest)
				}
			})
		}
	})

	t.Run("it responds 500 when database fails", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.Find = func(ctx context.Context, query domain.ModelFindQuery) ([]string, error) {
			return nil, errors.New("fake database error")
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/models")

		testee := handlers.FindModelHandler(mockModel)
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusInternalServerError {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusInternalServerError)
		}
	})
}

func TestGetModelHandler(t *testing.T) {

	t.Run("it responds with the model", func(t *testing.T) {
		createdAt := try.To(rfctime.ParseRFC3339(
			"2025-04-01T12:34:56+00:00",
		)).OrFatal(t).Time()

		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.Get = func(ctx context.Context, names []string) (map[string]domain.Model, error) {
			return map[string]domain.Model{
				"churn": {
					Name: "churn", Description: "weekly churn model",
					Tags:      domain.NewTagSet(nil),
					CreatedAt: createdAt,
				},
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/models/churn")
		c.SetPath("/api/models/:modelName")
		c.SetParamNames("modelName")
		c.SetParamValues("churn")

		testee := handlers.GetModelHandler(mockModel)
		if err := testee(c); err != nil {
			t.Fatalf("handler should not error. actual = %v", err)
		}

		if !cmp.SliceEqWith(
			mockModel.Calls.Get, [][]string{{"churn"}},
			cmp.SliceContentEq[string],
		) {
			t.Errorf(
				"unmatch: params for ModelInterface.Get:\n- actual:\n%+v",
				mockModel.Calls.Get,
			)
		}

		actual := apimodels.Detail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: error = %v", err)
		}
		if actual.Name != "churn" || actual.Description != "weekly churn model" {
			t.Errorf("unexpected response: %+v", actual)
		}
	})

	t.Run("it responds 404 when the model is not found", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.Get = func(ctx context.Context, names []string) (map[string]domain.Model, error) {
			return map[string]domain.Model{}, nil
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/models/missing")
		c.SetPath("/api/models/:modelName")
		c.SetParamNames("modelName")
		c.SetParamValues("missing")

		testee := handlers.GetModelHandler(mockModel)
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusNotFound {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusNotFound)
		}
	})

	t.Run("it responds 500 when database fails", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.Get = func(ctx context.Context, names []string) (map[string]domain.Model, error) {
			return nil, errors.New("fake database error")
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/models/churn")
		c.SetPath("/api/models/:modelName")
		c.SetParamNames("modelName")
		c.SetParamValues("churn")

		testee := handlers.GetModelHandler(mockModel)
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusInternalServerError {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusInternalServerError)
		}
	})
}

func TestRegisterModelVersionHandler(t *testing.T) {
	digest := "sha256:" + strings.Repeat("ab", 32)

	t.Run("it registers a version from a finished run", func(t *testing.T) {
		createdAt := try.To(rfctime.ParseRFC3339(
			"2025-04-03T10:00:00+00:00",
		)).OrFatal(t).Time()

		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.NewVersion = func(ctx context.Context, name string, runId string, d string) (domain.ModelVersion, error) {
			return domain.ModelVersion{
				ModelName: "churn", Version: 3,
				RunId: "run-1",
				Artifact: domain.ArtifactRef{
					Name: "model.tar.gz", Digest: digest, Size: 2048,
				},
				Status:    domain.Pending,
				Stage:     domain.StageNone,
				CreatedAt: createdAt, UpdatedAt: createdAt,
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/models/churn/versions",
			bytes.NewBufferString(`{"runId": "run-1", "digest": "`+digest+`"}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/models/:modelName/versions")
		c.SetParamNames("modelName")
		c.SetParamValues("churn")

		testee := handlers.RegisterModelVersionHandler(mockModel, "modelName")
		if err := testee(c); err != nil {
			t.Fatalf("handler should not error. actual = %v", err)
		}

		expectedArgs := []mockmodel.NewVersionArgs{
			{Name: "churn", RunId: "run-1", Digest: digest},
		}
		if !cmp.SliceEq(mockModel.Calls.NewVersion, expectedArgs) {
			t.Errorf(
				"unmatch: params for ModelInterface.NewVersion:\n- actual:\n%+v\n- expected:\n%+v",
				mockModel.Calls.NewVersion, expectedArgs,
			)
		}

		actual := apimodels.VersionDetail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: error = %v", err)
		}
		expected := apimodels.VersionDetail{
			VersionSummary: apimodels.VersionSummary{
				Model: "churn", Version: 3,
				Status: apimodels.StatusPending, Stage: apimodels.StageNone,
				UpdatedAt: rfctime.New(createdAt),
			},
			RunId: "run-1",
			Artifact: apiartifacts.Ref{
				Name: "model.tar.gz", Digest: digest, Size: 2048,
			},
			Evaluations: []apimodels.GateResult{},
			CreatedAt:   rfctime.New(createdAt),
		}
		if !actual.Equal(expected) {
			t.Errorf(
				"data does not match. (actual, expected) = \n(%+v, \n%+v)",
				actual, expected,
			)
		}
	})

	t.Run("it responds 400 when runId is missing", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/models/churn/versions",
			bytes.NewBufferString(`{"digest": "`+digest+`"}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/models/:modelName/versions")
		c.SetParamNames("modelName")
		c.SetParamValues("churn")

		testee := handlers.RegisterModelVersionHandler(mockModel, "modelName")
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusBadRequest {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusBadRequest)
		}
	})

	t.Run("it responds 400 for a broken digest", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/models/churn/versions",
			bytes.NewBufferString(`{"runId": "run-1", "digest": "not-a-digest"}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/models/:modelName/versions")
		c.SetParamNames("modelName")
		c.SetParamValues("churn")

		testee := handlers.RegisterModelVersionHandler(mockModel, "modelName")
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusBadRequest {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusBadRequest)
		}
	})

	t.Run("it responds 404 when the model is not found", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.NewVersion = func(ctx context.Context, name string, runId string, d string) (domain.ModelVersion, error) {
			return domain.ModelVersion{}, kerr.ErrMissing
		}

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/models/missing/versions",
			bytes.NewBufferString(`{"runId": "run-1", "digest": "`+digest+`"}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/models/:modelName/versions")
		c.SetParamNames("modelName")
		c.SetParamValues("missing")

		testee := handlers.RegisterModelVersionHandler(mockModel, "modelName")
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusNotFound {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusNotFound)
		}
	})

	t.Run("it responds 409 when the run has not finished", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.NewVersion = func(ctx context.Context, name string, runId string, d string) (domain.ModelVersion, error) {
			return domain.ModelVersion{}, domain.ErrRunNotFinished
		}

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/models/churn/versions",
			bytes.NewBufferString(`{"runId": "run-1", "digest": "`+digest+`"}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/models/:modelName/versions")
		c.SetParamNames("modelName")
		c.SetParamValues("churn")

		testee := handlers.RegisterModelVersionHandler(mockModel, "modelName")
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusConflict {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusConflict)
		}
	})

	t.Run("it responds 500 when database fails", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.NewVersion = func(ctx context.Context, name string, runId string, d string) (domain.ModelVersion, error) {
			return domain.ModelVersion{}, errors.New("fake database error")
		}

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/models/churn/versions",
			bytes.NewBufferString(`{"runId": "run-1", "digest": "`+digest+`"}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/models/:modelName/versions")
		c.SetParamNames("modelName")
		c.SetParamValues("churn")

		testee := handlers.RegisterModelVersionHandler(mockModel, "modelName")
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusInternalServerError {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusInternalServerError)
		}
	})
}

func TestListModelVersionsHandler(t *testing.T) {

	t.Run("it responds with versions of the model", func(t *testing.T) {
		createdAt := try.To(rfctime.ParseRFC3339(
			"2025-04-03T10:00:00+00:00",
		)).OrFatal(t).Time()
		digest := "sha256:" + strings.Repeat("cd", 32)

		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.Versions = func(ctx context.Context, name string) ([]domain.ModelVersion, error) {
			return []domain.ModelVersion{
				{
					ModelName: "churn", Version: 2,
					RunId:    "run-2",
					Artifact: domain.ArtifactRef{Digest: digest, Size: 2048},
					Status:   domain.Pending, Stage: domain.StageNone,
					CreatedAt: createdAt.Add(time.Hour), UpdatedAt: createdAt.Add(time.Hour),
				},
				{
					ModelName: "churn", Version: 1,
					RunId:    "run-1",
					Artifact: domain.ArtifactRef{Digest: digest, Size: 1024},
					Status:   domain.ReadyVersion, Stage: domain.StageProduction,
					Evaluations: []domain.GateResult{
						{
							Gate: domain.GateLoading, Passed: true,
							Detail:      "loaded and answered a probe",
							EvaluatedAt: createdAt,
						},
					},
					CreatedAt: createdAt, UpdatedAt: createdAt,
				},
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/models/churn/versions")
		c.SetPath("/api/models/:modelName/versions")
		c.SetParamNames("modelName")
		c.SetParamValues("churn")

		testee := handlers.ListModelVersionsHandler(mockModel, "modelName")
		if err := testee(c); err != nil {
			t.Fatalf("handler should not error. actual = %v", err)
		}

		if !cmp.SliceEq(mockModel.Calls.Versions, []string{"churn"}) {
			t.Errorf(
				"unmatch: params for ModelInterface.Versions:\n- actual:\n%+v",
				mockModel.Calls.Versions,
			)
		}

		actual := []apimodels.VersionDetail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: error = %v", err)
		}
		if len(actual) != 2 {
			t.Fatalf("2 versions are expected. actual = %d", len(actual))
		}
		if actual[0].Version != 2 || actual[1].Version != 1 {
			t.Errorf("versions should be ordered newest first: %+v", actual)
		}
		if len(actual[1].Evaluations) != 1 || actual[1].Evaluations[0].Gate != "loading" {
			t.Errorf("unexpected evaluations: %+v", actual[1].Evaluations)
		}
	})

	t.Run("it responds 404 when the model is not found", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.Versions = func(ctx context.Context, name string) ([]domain.ModelVersion, error) {
			return nil, kerr.ErrMissing
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/models/missing/versions")
		c.SetPath("/api/models/:modelName/versions")
		c.SetParamNames("modelName")
		c.SetParamValues("missing")

		testee := handlers.ListModelVersionsHandler(mockModel, "modelName")
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusNotFound {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusNotFound)
		}
	})

	t.Run("it responds 500 when database fails", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.Versions = func(ctx context.Context, name string) ([]domain.ModelVersion, error) {
			return nil, errors.New("fake database error")
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/models/churn/versions")
		c.SetPath("/api/models/:modelName/versions")
		c.SetParamNames("modelName")
		c.SetParamValues("churn")

		testee := handlers.ListModelVersionsHandler(mockModel, "modelName")
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusInternalServerError {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusInternalServerError)
		}
	})
}

func TestGetModelVersionHandler(t *testing.T) {

	t.Run("it responds with the version", func(t *testing.T) {
		createdAt := try.To(rfctime.ParseRFC3339(
			"2025-04-03T10:00:00+00:00",
		)).OrFatal(t).Time()

		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.GetVersion = func(ctx context.Context, name string, version int) (domain.ModelVersion, error) {
			return domain.ModelVersion{
				ModelName: "churn", Version: 2,
				RunId:     "run-2",
				Status:    domain.ReadyVersion,
				Stage:     domain.StageStaging,
				CreatedAt: createdAt, UpdatedAt: createdAt,
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/models/churn/versions/2")
		c.SetPath("/api/models/:modelName/versions/:version")
		c.SetParamNames("modelName", "version")
		c.SetParamValues("churn", "2")

		testee := handlers.GetModelVersionHandler(mockModel, "modelName", "version")
		if err := testee(c); err != nil {
			t.Fatalf("handler should not error. actual = %v", err)
		}

		expectedArgs := []mockmodel.GetVersionArgs{{Name: "churn", Version: 2}}
		if !cmp.SliceEq(mockModel.Calls.GetVersion, expectedArgs) {
			t.Errorf(
				"unmatch: params for ModelInterface.GetVersion:\n- actual:\n%+v\n- expected:\n%+v",
				mockModel.Calls.GetVersion, expectedArgs,
			)
		}

		actual := apimodels.VersionDetail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: error = %v", err)
		}
		if actual.Model != "churn" || actual.Version != 2 ||
			actual.Stage != apimodels.StageStaging {
			t.Errorf("unexpected response: %+v", actual)
		}
	})

	t.Run("it responds 400 for a version which is not an integer", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/models/churn/versions/latest")
		c.SetPath("/api/models/:modelName/versions/:version")
		c.SetParamNames("modelName", "version")
		c.SetParamValues("churn", "latest")

		testee := handlers.GetModelVersionHandler(mockModel, "modelName", "version")
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusBadRequest {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusBadRequest)
		}
	})

	t.Run("it responds 404 when the version is not found", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.GetVersion = func(ctx context.Context, name string, version int) (domain.ModelVersion, error) {
			return domain.ModelVersion{}, kerr.ErrMissing
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/models/churn/versions/99")
		c.SetPath("/api/models/:modelName/versions/:version")
		c.SetParamNames("modelName", "version")
		c.SetParamValues("churn", "99")

		testee := handlers.GetModelVersionHandler(mockModel, "modelName", "version")
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusNotFound {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusNotFound)
		}
	})

	t.Run("it responds 500 when database fails", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.GetVersion = func(ctx context.Context, name string, version int) (domain.ModelVersion, error) {
			return domain.ModelVersion{}, errors.New("fake database error")
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/models/churn/versions/2")
		c.SetPath("/api/models/:modelName/versions/:version")
		c.SetParamNames("modelName", "version")
		c.SetParamValues("churn", "2")

		testee := handlers.GetModelVersionHandler(mockModel, "modelName", "version")
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusInternalServerError {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusInternalServerError)
		}
	})
}

func TestPromoteModelVersionHandler(t *testing.T) {

	t.Run("it promotes the version and responds with its new stage", func(t *testing.T) {
		createdAt := try.To(rfctime.ParseRFC3339(
			"2025-04-03T10:00:00+00:00",
		)).OrFatal(t).Time()

		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.Promote = func(ctx context.Context, name string, version int, stage domain.Stage) (domain.ModelVersion, error) {
			return domain.ModelVersion{
				ModelName: "churn", Version: 3,
				Status:    domain.ReadyVersion,
				Stage:     domain.StageProduction,
				CreatedAt: createdAt, UpdatedAt: createdAt.Add(time.Hour),
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Put(
			e, "/api/models/churn/versions/3/promotion",
			bytes.NewBufferString(`{"stage": "production"}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/models/:modelName/versions/:version/promotion")
		c.SetParamNames("modelName", "version")
		c.SetParamValues("churn", "3")

		testee := handlers.PromoteModelVersionHandler(mockModel, "modelName", "version")
		if err := testee(c); err != nil {
			t.Fatalf("handler should not error. actual = %v", err)
		}

		expectedArgs := []mockmodel.PromoteArgs{
			{Name: "churn", Version: 3, Stage: domain.StageProduction},
		}
		if !cmp.SliceEq(mockModel.Calls.Promote, expectedArgs) {
			t.Errorf(
				"unmatch: params for ModelInterface.Promote:\n- actual:\n%+v\n- expected:\n%+v",
				mockModel.Calls.Promote, expectedArgs,
			)
		}

		actual := apimodels.VersionDetail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: error = %v", err)
		}
		if actual.Stage != apimodels.StageProduction {
			t.Errorf("unexpected stage: %s", actual.Stage)
		}
	})

	t.Run("it responds 400 for a version which is not an integer", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()

		e := echo.New()
		c, _ := httptestutil.Put(
			e, "/api/models/churn/versions/latest/promotion",
			bytes.NewBufferString(`{"stage": "production"}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/models/:modelName/versions/:version/promotion")
		c.SetParamNames("modelName", "version")
		c.SetParamValues("churn", "latest")

		testee := handlers.PromoteModelVersionHandler(mockModel, "modelName", "version")
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusBadRequest {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusBadRequest)
		}
	})

	t.Run("it responds 400 for an unknown stage", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()

		e := echo.New()
		c, _ := httptestutil.Put(
			e, "/api/models/churn/versions/3/promotion",
			bytes.NewBufferString(`{"stage": "shipping"}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/models/:modelName/versions/:version/promotion")
		c.SetParamNames("modelName", "version")
		c.SetParamValues("churn", "3")

		testee := handlers.PromoteModelVersionHandler(mockModel, "modelName", "version")
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusBadRequest {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusBadRequest)
		}
	})

	t.Run("it responds 404 when the version is not found", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.Promote = func(ctx context.Context, name string, version int, stage domain.Stage) (domain.ModelVersion, error) {
			return domain.ModelVersion{}, kerr.ErrMissing
		}

		e := echo.New()
		c, _ := httptestutil.Put(
			e, "/api/models/churn/versions/99/promotion",
			bytes.NewBufferString(`{"stage": "production"}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/models/:modelName/versions/:version/promotion")
		c.SetParamNames("modelName", "version")
		c.SetParamValues("churn", "99")

		testee := handlers.PromoteModelVersionHandler(mockModel, "modelName", "version")
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusNotFound {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusNotFound)
		}
	})

	t.Run("it responds 409 when a gate blocks the promotion", func(t *testing.T) {
		for name, implErr := range map[string]error{
			"the gate vetoed":          domain.NewErrPromotionBlocked("auc = 0.7, below threshold 0.9"),
			"the version is not ready": domain.ErrVersionNotReady,
			"prohibited stage change":  domain.ErrInvalidStageChanging,
		} {
			t.Run(name, func(t *testing.T) {
				implErr := implErr
				mockModel := mockmodel.NewModelInterface()
				mockModel.Impl.Promote = func(ctx context.Context, name string, version int, stage domain.Stage) (domain.ModelVersion, error) {
					return domain.ModelVersion{}, implErr
				}

				e := echo.New()
				c, _ := httptestutil.Put(
					e, "/api/models/churn/versions/3/promotion",
					bytes.NewBufferString(`{"stage": "production"}`),
					httptestutil.ContentType("application/json"),
				)
				c.SetPath("/api/models/:modelName/versions/:version/promotion")
				c.SetParamNames("modelName", "version")
				c.SetParamValues("churn", "3")

				testee := handlers.PromoteModelVersionHandler(mockModel, "modelName", "version")
				err := testee(c)

				var echoErr *echo.HTTPError
				if !errors.As(err, &echoErr) {
					t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
				}
				if echoErr.Code != http.StatusConflict {
					t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusConflict)
				}
			})
		}
	})

	t.Run("it responds 500 when database fails", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.Promote = func(ctx context.Context, name string, version int, stage domain.Stage) (domain.ModelVersion, error) {
			return domain.ModelVersion{}, errors.New("fake database error")
		}

		e := echo.New()
		c, _ := httptestutil.Put(
			e, "/api/models/churn/versions/3/promotion",
			bytes.NewBufferString(`{"stage": "production"}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/models/:modelName/versions/:version/promotion")
		c.SetParamNames("modelName", "version")
		c.SetParamValues("churn", "3")

		testee := handlers.PromoteModelVersionHandler(mockModel, "modelName", "version")
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusInternalServerError {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusInternalServerError)
		}
	})
}

func TestCurrentModelVersionHandler(t *testing.T) {

	t.Run("it responds with the production version by default", func(t *testing.T) {
		createdAt := try.To(rfctime.ParseRFC3339(
			"2025-04-03T10:00:00+00:00",
		)).OrFatal(t).Time()

		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.CurrentOf = func(ctx context.Context, name string, stage domain.Stage) (domain.ModelVersion, error) {
			return domain.ModelVersion{
				ModelName: "churn", Version: 3,
				Status:    domain.ReadyVersion,
				Stage:     domain.StageProduction,
				CreatedAt: createdAt, UpdatedAt: createdAt,
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/models/churn/current")
		c.SetPath("/api/models/:modelName/current")
		c.SetParamNames("modelName")
		c.SetParamValues("churn")

		testee := handlers.CurrentModelVersionHandler(mockModel, "modelName")
		if err := testee(c); err != nil {
			t.Fatalf("handler should not error. actual = %v", err)
		}

		expectedArgs := []mockmodel.CurrentOfArgs{
			{Name: "churn", Stage: domain.StageProduction},
		}
		if !cmp.SliceEq(mockModel.Calls.CurrentOf, expectedArgs) {
			t.Errorf(
				"unmatch: params for ModelInterface.CurrentOf:\n- actual:\n%+v\n- expected:\n%+v",
				mockModel.Calls.CurrentOf, expectedArgs,
			)
		}

		actual := apimodels.VersionDetail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: error = %v", err)
		}
		if actual.Version != 3 || actual.Stage != apimodels.StageProduction {
			t.Errorf("unexpected response: %+v", actual)
		}
	})

	t.Run("it responds with the staging version when asked", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.CurrentOf = func(ctx context.Context, name string, stage domain.Stage) (domain.ModelVersion, error) {
			return domain.ModelVersion{
				ModelName: "churn", Version: 4,
				Status: domain.ReadyVersion,
				Stage:  domain.StageStaging,
			}, nil
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/models/churn/current?stage=staging")
		c.SetPath("/api/models/:modelName/current")
		c.SetParamNames("modelName")
		c.SetParamValues("churn")

		testee := handlers.CurrentModelVersionHandler(mockModel, "modelName")
		if err := testee(c); err != nil {
			t.Fatalf("handler should not error. actual = %v", err)
		}

		expectedArgs := []mockmodel.CurrentOfArgs{
			{Name: "churn", Stage: domain.StageStaging},
		}
		if !cmp.SliceEq(mockModel.Calls.CurrentOf, expectedArgs) {
			t.Errorf(
				"unmatch: params for ModelInterface.CurrentOf:\n- actual:\n%+v\n- expected:\n%+v",
				mockModel.Calls.CurrentOf, expectedArgs,
			)
		}
	})

	t.Run("it responds 400 for stages which can not hold a current version", func(t *testing.T) {
		for name, request := range map[string]string{
			"none":     "/api/models/churn/current?stage=none",
			"archived": "/api/models/churn/current?stage=archived",
			"unknown":  "/api/models/churn/current?stage=banana",
		} {
			t.Run(name, func(t *testing.T) {
				mockModel := mockmodel.NewModelInterface()

				e := echo.New()
				c, _ := httptestutil.Get(e, request)
				c.SetPath("/api/models/:modelName/current")
				c.SetParamNames("modelName")
				c.SetParamValues("churn")

				testee := handlers.CurrentModelVersionHandler(mockModel, "modelName")
				err := testee(c)

				var echoErr *echo.HTTPError
				if !errors.As(err, &echoErr) {
					t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
				}
				if echoErr.Code != http.StatusBadRequest {
					t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusBadRequest)
				}
			})
		}
	})

	t.Run("it responds 404 when no version holds the stage", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.CurrentOf = func(ctx context.Context, name string, stage domain.Stage) (domain.ModelVersion, error) {
			return domain.ModelVersion{}, kerr.ErrMissing
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/models/churn/current")
		c.SetPath("/api/models/:modelName/current")
		c.SetParamNames("modelName")
		c.SetParamValues("churn")

		testee := handlers.CurrentModelVersionHandler(mockModel, "modelName")
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusNotFound {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusNotFound)
		}
	})

	t.Run("it responds 500 when database fails", func(t *testing.T) {
		mockModel := mockmodel.NewModelInterface()
		mockModel.Impl.CurrentOf = func(ctx context.Context, name string, stage domain.Stage) (domain.ModelVersion, error) {
			return domain.ModelVersion{}, errors.New("fake database error")
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/models/churn/current")
		c.SetPath("/api/models/:modelName/current")
		c.SetParamNames("modelName")
		c.SetParamValues("churn")

		testee := handlers.CurrentModelVersionHandler(mockModel, "modelName")
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusInternalServerError {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusInternalServerError)
		}
	})
}
