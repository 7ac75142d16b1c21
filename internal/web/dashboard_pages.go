package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobboard/internal/api/middleware"
	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/filters"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/services"
	"github.com/yoockh/jobboard/internal/utils"
)

type dashboardData struct {
	Employer    *services.EmployerDashboard
	Seeker      *services.SeekerDashboard
	DeletedJobs []models.Job
	Statuses    []models.ApplicationStatus
	LoadError   string
}

func (p *Pages) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	u := middleware.CurrentUser(c)
	d := dashboardData{Statuses: models.Statuses}

	switch {
	case u.IsEmployer():
		dash, err := p.svc.Dashboard.Employer(ctx, u)
		if err != nil {
			p.log.WithError(err).WithField("user_id", u.ID).Error("employer dashboard failed")
			d.LoadError = "Failed to load dashboard"
			break
		}
		d.Employer = dash
		deleted, err := p.svc.Jobs.GetUserDeletedJobs(ctx, u.ID)
		if err != nil {
			p.log.WithError(err).Warn("list archived jobs failed")
		}
		d.DeletedJobs = deleted
	case u.IsJobSeeker():
		dash, err := p.svc.Dashboard.JobSeeker(ctx, u)
		if err != nil {
			p.log.WithError(err).WithField("user_id", u.ID).Error("seeker dashboard failed")
			d.LoadError = "Failed to load dashboard"
			break
		}
		d.Seeker = dash
	default:
		accessDenied(c, auth.ReasonMissingRole)
		return
	}

	p.render(c, http.StatusOK, "dashboard", "Dashboard", d)
}

type sortOption struct {
	Value filters.Sort
	Label string
}

var sortOptions = []sortOption{
	{filters.SortNewest, "Newest first"},
	{filters.SortOldest, "Oldest first"},
	{filters.SortStatus, "By status"},
}

type jobApplicationsData struct {
	Job          *models.Job
	Applications []models.Application
	Query        filters.ApplicationQuery
	Statuses     []models.ApplicationStatus
	Sorts        []sortOption
	Return       string
}

// JobApplications is the employer's review view for one job, filtered by
// ?status and ordered by ?sort.
func (p *Pages) JobApplications(c *gin.Context) {
	ctx := c.Request.Context()
	u := middleware.CurrentUser(c)

	j, err := p.svc.Apps.ReviewableJob(ctx, u, c.Param("id"))
	if err != nil {
		p.failPage(c, err, "Failed to load applications")
		return
	}

	q := filters.ParseApplicationQuery(c.Request.URL.Query())
	rows, err := p.svc.Apps.GetJobApplications(ctx, u, j.ID, q)
	if err != nil {
		p.failPage(c, err, "Failed to load applications")
		return
	}

	p.render(c, http.StatusOK, "job_applications", "Applications for "+j.Title, jobApplicationsData{
		Job:          j,
		Applications: rows,
		Query:        q,
		Statuses:     models.Statuses,
		Sorts:        sortOptions,
		Return:       c.Request.URL.RequestURI(),
	})
}

// UpdateApplicationStatus is posted by the status buttons and returns to
// the review view with a flash.
func (p *Pages) UpdateApplicationStatus(c *gin.Context) {
	u := middleware.CurrentUser(c)
	status := models.ApplicationStatus(c.PostForm("status"))

	res := p.svc.Apps.UpdateStatus(c.Request.Context(), c.Param("id"), status, userID(u))
	if res.Success {
		p.setFlash(c, FlashSuccess, "Application marked as "+string(status)+".")
	} else {
		p.setFlash(c, FlashError, res.Error)
	}
	back(c, c.PostForm("return"), afterLogin)
}

// ApplicationResume redirects to a short-lived link to the attached resume.
func (p *Pages) ApplicationResume(c *gin.Context) {
	link, err := p.svc.Resumes.SignedURL(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		p.failPage(c, err, "Failed to load resume")
		return
	}
	c.Redirect(http.StatusSeeOther, link)
}

func (p *Pages) DeleteJob(c *gin.Context) {
	res := p.svc.Jobs.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	p.flashResult(c, res, "Job archived.")
	back(c, c.PostForm("return"), afterLogin)
}

func (p *Pages) RestoreJob(c *gin.Context) {
	res := p.svc.Jobs.Restore(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	p.flashResult(c, res, "Job restored.")
	back(c, c.PostForm("return"), afterLogin)
}

func (p *Pages) flashResult(c *gin.Context, res services.ActionResult, success string) {
	if res.Success {
		p.setFlash(c, FlashSuccess, success)
		return
	}
	msg := res.Error
	if res.Code == utils.CodeInternal || msg == "" {
		msg = "Unknown error occurred"
	}
	p.setFlash(c, FlashError, msg)
}
