package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/utils"
)

// Context keys set by SessionAuth.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxUser   = "user"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// SessionAuth resolves the caller from a Bearer token or the session cookie.
// It never rejects a request; RequireAuth and RequirePermission do that.
// A cookie session that no longer verifies is refreshed once with the
// refresh cookie.
func SessionAuth(gw *auth.Gateway, cookies auth.CookieOptions, l *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, fromCookie := AccessToken(c)
		if raw == "" {
			c.Next()
			return
		}

		u := gw.GetSession(c.Request.Context(), raw)
		if u == nil && fromCookie {
			var err error
			u, err = refresh(c, gw, cookies)
			if err != nil {
				l.WithError(err).Debug("session refresh failed")
				cookies.ClearSession(c)
			}
		}
		if u != nil {
			setUser(c, u)
		}
		c.Next()
	}
}

// AccessToken returns the raw token and whether it came from the cookie.
func AccessToken(c *gin.Context) (string, bool) {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), false
	}
	if v, err := c.Cookie(auth.CookieAccessToken); err == nil && v != "" {
		return v, true
	}
	return "", false
}

func refresh(c *gin.Context, gw *auth.Gateway, cookies auth.CookieOptions) (*models.User, error) {
	rt, err := c.Cookie(auth.CookieRefreshToken)
	if err != nil || rt == "" {
		return nil, auth.ErrTokenExpired
	}
	s, err := gw.Refresh(c.Request.Context(), rt)
	if err != nil {
		return nil, err
	}
	u := gw.GetSession(c.Request.Context(), s.AccessToken)
	if u == nil {
		return nil, auth.ErrInvalidToken
	}
	cookies.SetSession(c, s)
	return u, nil
}

func setUser(c *gin.Context, u *models.User) {
	c.Set(CtxUser, u)
	c.Set(CtxUserID, u.ID)
	c.Set(CtxRole, string(u.Role))
}

// CurrentUser returns the caller resolved by SessionAuth, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CtxUser); ok {
		if u, ok := v.(*models.User); ok && u != nil && u.ID != "" {
			return u
		}
	}
	return nil
}
