// Package web serves the server-rendered pages of the job board.
package web

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobboard/internal/api/middleware"
	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/services"
	"github.com/yoockh/jobboard/internal/utils"
	"github.com/yoockh/jobboard/internal/validation"
)

type Services struct {
	Jobs      services.JobService
	Apps      services.ApplicationService
	Dashboard services.DashboardService
	Resumes   services.ResumeService
}

// Pages holds the page handlers. One instance is built at startup.
type Pages struct {
	gw      *auth.Gateway
	cookies auth.CookieOptions
	svc     Services
	tmpl    *renderer
	log     *logrus.Logger
}

func NewPages(gw *auth.Gateway, cookies auth.CookieOptions, svc Services, log *logrus.Logger) (*Pages, error) {
	tmpl, err := newRenderer()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.New()
	}
	return &Pages{gw: gw, cookies: cookies, svc: svc, tmpl: tmpl, log: log}, nil
}

type accessDeniedData struct {
	Reason  auth.DenyReason
	Message string
}

func (p *Pages) AccessDenied(c *gin.Context) {
	reason := auth.DenyReason(c.Query("reason"))
	p.render(c, http.StatusForbidden, "access_denied", "Access denied", accessDeniedData{
		Reason:  reason,
		Message: reason.Message(),
	})
}

// NotFound answers unmatched routes: JSON under /api, a page elsewhere.
func (p *Pages) NotFound(c *gin.Context) {
	if middleware.IsAPIRequest(c) {
		c.JSON(http.StatusNotFound, gin.H{"code": utils.CodeNotFound, "message": "Not found"})
		return
	}
	p.render(c, http.StatusNotFound, "not_found", "Not found", nil)
}

type errorData struct {
	Message string
}

// failPage renders the not-found page for NOT_FOUND errors and a generic
// error page for everything else.
func (p *Pages) failPage(c *gin.Context, err error, fallback string) {
	if utils.IsCode(err, utils.CodeNotFound) {
		p.render(c, http.StatusNotFound, "not_found", "Not found", nil)
		return
	}
	if utils.IsCode(err, utils.CodeForbidden) {
		accessDenied(c, auth.ReasonNotOwner)
		return
	}
	p.log.WithError(err).WithField("path", c.Request.URL.Path).Error("page failed")
	p.render(c, utils.HTTPStatus(err), "error", "Something went wrong", errorData{
		Message: utils.Message(err, fallback),
	})
}

// back redirects to target when it is a same-site path, else to fallback.
func back(c *gin.Context, target, fallback string) {
	if !validation.IsSafeRedirect(target) {
		target = fallback
	}
	c.Redirect(http.StatusSeeOther, target)
}

func accessDenied(c *gin.Context, reason auth.DenyReason) {
	c.Redirect(http.StatusSeeOther, middleware.AccessDeniedPath+"?"+url.Values{"reason": {string(reason)}}.Encode())
}
