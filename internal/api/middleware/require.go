package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/utils"
)

const (
	LoginPath        = "/auth/login"
	AccessDeniedPath = "/access-denied"
)

type AuthOptions struct {
	// ReturnTo adds ?redirectTo=<original path> to the login redirect.
	ReturnTo bool
}

// RequireAuth lets signed-in callers through. API callers get 401, page
// visitors are redirected to the login page.
func RequireAuth(opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			denyUnauthenticated(c, opts.ReturnTo)
			return
		}
		c.Next()
	}
}

// RequirePermission checks the caller against the capability table.
// Pages are redirected to /access-denied?reason=<code>.
func RequirePermission(p auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		reason := auth.Check(CurrentUser(c), p)
		switch reason {
		case auth.ReasonNone:
			c.Next()
		case auth.ReasonUnauthenticated:
			denyUnauthenticated(c, true)
		default:
			if IsAPIRequest(c) {
				c.AbortWithStatusJSON(http.StatusForbidden, apiError{
					Code:    utils.CodeForbidden,
					Message: reason.Message(),
				})
				return
			}
			c.Redirect(http.StatusSeeOther, AccessDeniedPath+"?"+url.Values{"reason": {string(reason)}}.Encode())
			c.Abort()
		}
	}
}

func denyUnauthenticated(c *gin.Context, returnTo bool) {
	if IsAPIRequest(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
			Code:    utils.CodeUnauthorized,
			Message: "Not authenticated",
		})
		return
	}
	target := LoginPath
	if returnTo {
		target += "?" + url.Values{"redirectTo": {c.Request.URL.RequestURI()}}.Encode()
	}
	c.Redirect(http.StatusSeeOther, target)
	c.Abort()
}

// IsAPIRequest reports whether the caller expects JSON rather than HTML.
func IsAPIRequest(c *gin.Context) bool {
	p := c.Request.URL.Path
	return strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/ws/")
}
