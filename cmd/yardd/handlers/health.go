package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	binderr "github.com/modelyard/modelyard/pkg/api-types-binding/errors"
	kdbschema "github.com/modelyard/modelyard/pkg/domain/schema/db"
)

// HealthHandler reports whether the server can reach its database.
//
// Clients registering runs probe this first, so an unreachable
// database turns into a clear 503 instead of a timeout mid-request.
func HealthHandler(dbSchema kdbschema.SchemaInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if _, err := dbSchema.Version(ctx); err != nil {
			return binderr.ServiceUnavailable("tracking database is unreachable", err)
		}

		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
