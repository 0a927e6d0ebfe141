package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/agrihelp/agrihelp-api/pkg/helpers"
	"github.com/agrihelp/agrihelp-api/pkg/response"
)

const (
	msgNoToken     = "Not authorized, no token"
	msgTokenFailed = "Not authorized, token failed"
	msgNotAdmin    = "Not authorized as an admin"
)

// Protect validates the bearer token and, when rdb is set, requires the
// session it names to still exist. It sets userID, isAdmin and sessionID.
func Protect(jwt *helpers.JWTManager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, msgNoToken, nil)
			return
		}
		claims, err := jwt.ParseToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, msgTokenFailed, nil)
			return
		}

		if rdb != nil {
			n, err := rdb.Exists(c.Request.Context(), helpers.SessionKey(claims.UserID, claims.SessionID)).Result()
			if err != nil {
				response.ServerError(c)
				c.Abort()
				return
			}
			if n == 0 {
				response.Abort(c, http.StatusUnauthorized, msgTokenFailed, "session expired")
				return
			}
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxIsAdminKey, claims.IsAdmin)
		c.Set(CtxSessionIDKey, claims.SessionID)
		c.Next()
	}
}

// RequireAdmin must run after Protect.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxIsAdminKey) {
			response.Abort(c, http.StatusForbidden, msgNotAdmin, nil)
			return
		}
		c.Next()
	}
}
