package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// principalMiddleware guards routes behind a signed in principal.
// Page routes are redirected to loginPath, API routes get a 401.
func principalMiddleware(lookup func(echo.Context) (bool, interface{}), loginPath string, api bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ok, p := lookup(ctx)
			if !ok {
				if api {
					return errUnauthorized
				}
				return ctx.Redirect(http.StatusFound, loginPath)
			}
			ctx.Set(contextPrincipalKey, p)
			return next(ctx)
		}
	}
}

func instituteRequired(sess *sessionStore, api bool) echo.MiddlewareFunc {
	return principalMiddleware(func(ctx echo.Context) (bool, interface{}) {
		p, ok := sess.institute(ctx)
		return ok, p
	}, adminLoginPath, api)
}

func itAdminRequired(sess *sessionStore, api bool) echo.MiddlewareFunc {
	return principalMiddleware(func(ctx echo.Context) (bool, interface{}) {
		p, ok := sess.itAdmin(ctx)
		return ok, p
	}, itLoginPath, api)
}
