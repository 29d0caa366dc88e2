package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	handlers "github.com/modelyard/modelyard/cmd/yardd/handlers"
	httptestutil "github.com/modelyard/modelyard/internal/testutils/http"
	mockschema "github.com/modelyard/modelyard/pkg/domain/schema/db/mock"
)

func TestHealthHandler(t *testing.T) {

	t.Run("it responds ok when the database is reachable", func(t *testing.T) {
		mockSchema := mockschema.NewSchemaInterface()
		mockSchema.Impl.Version = func(ctx context.Context) (int, error) {
			return 3, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/health")

		testee := handlers.HealthHandler(mockSchema)
		if err := testee(c); err != nil {
			t.Fatalf("handler should not error. actual = %v", err)
		}

		if respRec.Result().StatusCode != http.StatusOK {
			t.Errorf(
				"status code %d != %d",
				respRec.Result().StatusCode, http.StatusOK,
			)
		}
	})

	t.Run("it responds 503 when the database is unreachable", func(t *testing.T) {
		mockSchema := mockschema.NewSchemaInterface()
		mockSchema.Impl.Version = func(ctx context.Context) (int, error) {
			return 0, errors.New("fake connection error")
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/health")

		testee := handlers.HealthHandler(mockSchema)
		err := testee(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusServiceUnavailable {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusServiceUnavailable)
		}
	})
}
