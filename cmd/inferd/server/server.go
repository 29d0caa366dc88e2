package server

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/modelyard/modelyard/pkg/utils/echoutil"
)

var API_ROOT = "/api"

func api(subpath string) string {
	if !strings.HasSuffix(subpath, "/") {
		subpath += "/"
	}
	return fmt.Sprintf("%s/%s", API_ROOT, subpath)
}

// Build wires the inference endpoints over src.
func Build(src Source, loglevel string) *echo.Echo {

	e := echo.New()

	echoutil.SetLevel(e, loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}

	e.Pre(middleware.AddTrailingSlash())

	// logging for server-side latency.
	e.Use(echoutil.LogHandlerFunc)

	e.GET(api("health"), HealthHandler(src))
	e.GET(api("model"), ModelHandler(src))
	e.POST(api("predict"), PredictHandler(src))

	return e
}
