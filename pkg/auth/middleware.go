package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	binderr "github.com/modelyard/modelyard/pkg/api-types-binding/errors"
	"github.com/modelyard/modelyard/pkg/domain"
	domerr "github.com/modelyard/modelyard/pkg/domain/errors"
)

// ErrUnauthorized rejects missing, wrong, revoked or expired credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ContextKeyToken carries the verified domain.ApiToken on echo.Context.
const ContextKeyToken = "verifiedApiToken"

// TokenVerifier is the part of the token store the middleware needs.
type TokenVerifier interface {
	// Verify retreives the token by id and touches its last used timestamp.
	Verify(ctx context.Context, tokenId string) (domain.ApiToken, error)
}

// ParseBearer splits an Authorization header value into token id and secret.
func ParseBearer(header string) (tokenId string, secret string, ok bool) {
	const scheme = "Bearer "
	if !strings.HasPrefix(header, scheme) {
		return "", "", false
	}
	return strings.Cut(strings.TrimPrefix(header, scheme), ".")
}

// VerifyCredentials checks a token id + secret pair against the store.
//
// Args:
//
// - ctx
//
// - db
//
// - tokenId, secret: credentials as sent by the client.
//
// Returns:
//
// - domain.ApiToken: the verified token.
//
// - error: ErrUnauthorized when the credentials are not acceptable.
// Other errors come from the database.
func VerifyCredentials(ctx context.Context, db TokenVerifier, tokenId string, secret string) (domain.ApiToken, error) {
	token, err := db.Verify(ctx, tokenId)
	if errors.Is(err, domerr.ErrMissing) {
		return domain.ApiToken{}, ErrUnauthorized
	}
	if err != nil {
		return domain.ApiToken{}, err
	}

	if !token.Active(time.Now()) {
		return domain.ApiToken{}, ErrUnauthorized
	}
	if ok, err := Verify(token.Hash, secret); err != nil || !ok {
		return domain.ApiToken{}, ErrUnauthorized
	}
	return token, nil
}

// Bearer guards routes with "Authorization: Bearer <tokenId>.<secret>".
//
// Requests to the route paths listed in skip pass through unchecked.
// A skip entry is a route path ("/api/health/") or a method-scoped one
// ("POST /api/tokens/") when only one method should pass.
// The verified token is set on the context under ContextKeyToken.
func Bearer(db TokenVerifier, skip ...string) echo.MiddlewareFunc {
	skipped := map[string]bool{}
	for _, path := range skip {
		skipped[path] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipped[c.Path()] || skipped[c.Request().Method+" "+c.Path()] {
				return next(c)
			}

			tokenId, secret, ok := ParseBearer(c.Request().Header.Get("Authorization"))
			if !ok {
				return binderr.Unauthorized("bearer token is required", nil)
			}

			token, err := VerifyCredentials(c.Request().Context(), db, tokenId, secret)
			if errors.Is(err, ErrUnauthorized) {
				return binderr.Unauthorized("token is not accepted", err)
			}
			if err != nil {
				return binderr.InternalServerError(err)
			}

			c.Set(ContextKeyToken, token)
			return next(c)
		}
	}
}
