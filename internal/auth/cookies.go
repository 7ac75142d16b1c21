package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	CookieAccessToken  = "sb-access-token"
	CookieRefreshToken = "sb-refresh-token"
	CookieCodeVerifier = "sb-code-verifier"

	refreshTTL  = 30 * 24 * time.Hour
	verifierTTL = time.Hour
)

// CookieOptions controls the attributes of auth cookies.
type CookieOptions struct {
	Secure bool
	Domain string
}

func (o CookieOptions) set(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", o.Domain, o.Secure, true)
}

// SetSession stores s in HttpOnly cookies.
func (o CookieOptions) SetSession(c *gin.Context, s *Session) {
	if s == nil {
		return
	}
	maxAge := int(time.Until(s.Expiry()).Seconds())
	if maxAge <= 0 {
		maxAge = 3600
	}
	o.set(c, CookieAccessToken, s.AccessToken, maxAge)
	if s.RefreshToken != "" {
		o.set(c, CookieRefreshToken, s.RefreshToken, int(refreshTTL.Seconds()))
	}
}

func (o CookieOptions) ClearSession(c *gin.Context) {
	o.set(c, CookieAccessToken, "", -1)
	o.set(c, CookieRefreshToken, "", -1)
}

func (o CookieOptions) SetVerifier(c *gin.Context, verifier string) {
	if verifier == "" {
		return
	}
	o.set(c, CookieCodeVerifier, verifier, int(verifierTTL.Seconds()))
}

// TakeVerifier reads and clears the PKCE verifier cookie.
func (o CookieOptions) TakeVerifier(c *gin.Context) string {
	v, err := c.Cookie(CookieCodeVerifier)
	if err != nil {
		return ""
	}
	o.set(c, CookieCodeVerifier, "", -1)
	return v
}
