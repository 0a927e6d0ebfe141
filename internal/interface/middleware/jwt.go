package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agrihelp/agrihelp-api/pkg/helpers"
)

// Context keys set by Protect.
const (
	CtxUserIDKey    = "userID"
	CtxIsAdminKey   = "isAdmin"
	CtxSessionIDKey = "sessionID"
)

// tokenFromRequest reads "Authorization: Bearer <token>" and falls back to
// the access token cookie.
func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if token, err := c.Cookie(helpers.AccessTokenCookie); err == nil {
		return token
	}
	return ""
}
