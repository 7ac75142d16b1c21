package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const flashCookie = "flash"

type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
	FlashInfo    FlashKind = "info"
)

// Flash is a one-shot toast carried across a redirect.
type Flash struct {
	Kind    FlashKind `json:"k"`
	Message string    `json:"m"`
}

func (p *Pages) setFlash(c *gin.Context, kind FlashKind, msg string) {
	b, err := json.Marshal(Flash{Kind: kind, Message: msg})
	if err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, base64.RawURLEncoding.EncodeToString(b), 60, "/", p.cookies.Domain, p.cookies.Secure, true)
}

// takeFlash returns the pending flash, if any, and clears it.
func (p *Pages) takeFlash(c *gin.Context) *Flash {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	c.SetCookie(flashCookie, "", -1, "/", p.cookies.Domain, p.cookies.Secure, true)

	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var f Flash
	if json.Unmarshal(b, &f) != nil || f.Message == "" {
		return nil
	}
	return &f
}
