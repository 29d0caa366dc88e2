package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	apitokens "github.com/modelyard/modelyard-api-types/tokens"
	binderr "github.com/modelyard/modelyard/pkg/api-types-binding/errors"
	bindtokens "github.com/modelyard/modelyard/pkg/api-types-binding/tokens"
	"github.com/modelyard/modelyard/pkg/auth"
	domerr "github.com/modelyard/modelyard/pkg/domain/errors"
	kdbauth "github.com/modelyard/modelyard/pkg/domain/auth/db"
	"github.com/modelyard/modelyard/pkg/utils"
)

// IssueTokenHandler issues a new API token.
//
// The route is left open by the bearer middleware so that a fresh
// install can mint its first token: when authEnabled, the caller
// authenticates with either normal API credentials or the bootstrap
// secret whose hash is in the server config.
func IssueTokenHandler(
	dbAuth kdbauth.Interface,
	authEnabled bool,
	bootstrapHash string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()

		if authEnabled {
			header := req.Header.Get("Authorization")
			if err := func() error {
				if tokenId, secret, ok := auth.ParseBearer(header); ok {
					_, err := auth.VerifyCredentials(ctx, dbAuth, tokenId, secret)
					return err
				}
				if bootstrapHash != "" {
					raw, found := strings.CutPrefix(header, "Bearer ")
					if !found {
						return auth.ErrUnauthorized
					}
					if ok, err := auth.Verify(bootstrapHash, raw); err == nil && ok {
						return nil
					}
				}
				return auth.ErrUnauthorized
			}(); err != nil {
				if errors.Is(err, auth.ErrUnauthorized) {
					return binderr.Unauthorized(
						"api token or bootstrap secret is required", err,
					)
				}
				return binderr.InternalServerError(err)
			}
		}

		specInReq := new(apitokens.Spec)
		if err := json.NewDecoder(req.Body).Decode(specInReq); err != nil {
			return binderr.BadRequest(
				"can not understand the requested json", err,
			)
		}
		if specInReq.Name == "" {
			return binderr.BadRequest(`"name" is required`, nil)
		}

		secret, err := auth.NewSecret()
		if err != nil {
			return binderr.InternalServerError(err)
		}
		hash, err := auth.Hash(secret)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		token, err := dbAuth.Issue(ctx, specInReq.Name, hash)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apitokens.Issued{
			Summary: bindtokens.ComposeSummary(token),
			Token:   token.Id + "." + secret,
		})
	}
}

func FindTokenHandler(dbAuth kdbauth.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		tokens, err := dbAuth.Find(ctx)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		resp := utils.Map(tokens, bindtokens.ComposeSummary)
		return c.JSON(http.StatusOK, resp)
	}
}

func RevokeTokenHandler(dbAuth kdbauth.Interface, paramTokenId string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		tokenId := c.Param(paramTokenId)

		if err := dbAuth.Revoke(ctx, tokenId); err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}
