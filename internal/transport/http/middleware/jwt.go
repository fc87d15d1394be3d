package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub/internal/app"
	"eventhub/internal/model"
	"eventhub/internal/pkg/jwtutil"
	"eventhub/internal/transport/http/response"
)

const ContextPrincipalKey = "principal"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.Principal, error)
}

// AuthJWT resolves the bearer token into a principal. Suspended and
// deleted accounts are rejected here, before any handler runs.
func AuthJWT(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := jwtutil.TokenFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing bearer token")
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, app.ErrUserSuspended):
				response.Abort(c, http.StatusUnauthorized, response.CodeUserSuspended, err.Error())
			case errors.Is(err, app.ErrAuth):
				response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
			default:
				LoggerFrom(c).Error().Err(err).Msg("authenticate request failed")
				response.Abort(c, http.StatusInternalServerError, response.CodeInternalServer, "internal server error")
			}
			return
		}

		c.Set(ContextPrincipalKey, principal)
		c.Next()
	}
}

// RequireAdmin must run after AuthJWT.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "authentication required")
			return
		}
		if !principal.IsAdmin() {
			response.Abort(c, http.StatusForbidden, response.CodeForbidden, "admin role required")
			return
		}
		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) (model.Principal, bool) {
	value, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return model.Principal{}, false
	}
	principal, ok := value.(model.Principal)
	return principal, ok
}
