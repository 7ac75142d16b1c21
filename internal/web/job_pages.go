package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobboard/internal/api/middleware"
	"github.com/yoockh/jobboard/internal/filters"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/services"
	"github.com/yoockh/jobboard/internal/utils"
	"github.com/yoockh/jobboard/internal/validation"
)

var postedOptions = []struct{ Value, Label string }{
	{"", "Any time"},
	{filters.Posted24h, "Last 24 hours"},
	{filters.Posted7d, "Last 7 days"},
	{filters.Posted30d, "Last 30 days"},
}

type jobsPageData struct {
	Filters   filters.JobFilters
	Jobs      []models.Job
	Locations []string
	Types     []models.JobType
	Posted    []struct{ Value, Label string }
	LoadError string
}

// canonicalFilters reads the filter form, where checkbox groups submit one
// already-escaped item per parameter, and reports whether the URL differs
// from its encoded form.
func canonicalFilters(v url.Values) (filters.JobFilters, string, bool) {
	f := filters.Decode(v)
	if items := v["location"]; len(items) > 1 {
		f.Locations = filters.Decode(url.Values{"location": {strings.Join(items, ",")}}).Locations
	}
	if items := v["type"]; len(items) > 1 {
		f.Types = filters.Decode(url.Values{"type": {strings.Join(items, ",")}}).Types
	}
	canon := filters.Encode(f).Encode()
	return f, canon, canon != v.Encode()
}

func (p *Pages) Jobs(c *gin.Context) {
	f, canon, redirect := canonicalFilters(c.Request.URL.Query())
	if redirect {
		target := "/jobs"
		if canon != "" {
			target += "?" + canon
		}
		c.Redirect(http.StatusFound, target)
		return
	}

	ctx := c.Request.Context()
	d := jobsPageData{Filters: f, Types: models.JobTypes, Posted: postedOptions}

	jobs, err := p.svc.Jobs.GetAll(ctx, f)
	if err != nil {
		p.log.WithError(err).Error("list jobs failed")
		d.LoadError = "Failed to load jobs"
	}
	d.Jobs = jobs

	locs, err := p.svc.Jobs.GetUniqueLocations(ctx)
	if err != nil {
		p.log.WithError(err).Warn("list locations failed")
	}
	d.Locations = locs

	p.render(c, http.StatusOK, "jobs", "Jobs", d)
}

type jobPageData struct {
	Job          *models.Job
	IsOwner      bool
	CanApply     bool
	HasApplied   bool
	LatestResume *models.ResumeFile
	CoverLetter  string
	Fields       validation.FieldErrors
}

func (p *Pages) jobData(c *gin.Context, j *models.Job) jobPageData {
	ctx := c.Request.Context()
	u := middleware.CurrentUser(c)
	d := jobPageData{Job: j, IsOwner: j.OwnedBy(userID(u))}

	if u.IsJobSeeker() && !d.IsOwner {
		applied, err := p.svc.Apps.HasApplied(ctx, j.ID, u.ID)
		if err != nil {
			p.log.WithError(err).Warn("has applied check failed")
		}
		d.HasApplied = applied
		d.CanApply = !applied

		if p.svc.Resumes != nil {
			if r, err := p.svc.Resumes.Latest(ctx, u.ID); err == nil {
				d.LatestResume = r
			}
		}
	}
	return d
}

func (p *Pages) Job(c *gin.Context) {
	j, err := p.svc.Jobs.GetJobByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		p.failPage(c, err, "Failed to load job")
		return
	}
	p.render(c, http.StatusOK, "job", j.Title, p.jobData(c, j))
}

// Apply handles the apply form. A PDF in "resume" is uploaded first; with
// use_latest set the most recent upload is attached instead.
func (p *Pages) Apply(c *gin.Context) {
	ctx := c.Request.Context()
	u := middleware.CurrentUser(c)
	jobID := c.Param("id")
	self := "/jobs/" + url.PathEscape(jobID)

	j, err := p.svc.Jobs.GetJobByID(ctx, jobID)
	if err != nil {
		p.failPage(c, err, "Failed to load job")
		return
	}

	form := validation.ApplicationForm{
		JobID:       j.ID,
		CoverLetter: strings.TrimSpace(c.PostForm("cover_letter")),
	}
	if errs := validation.Validate(form); errs != nil {
		d := p.jobData(c, j)
		d.Fields, d.CoverLetter = errs, form.CoverLetter
		p.render(c, http.StatusBadRequest, "job", j.Title, d)
		return
	}

	resumePath, err := p.attachResume(c, u)
	if err != nil {
		p.setFlash(c, FlashError, utils.Message(err, "Failed to upload resume"))
		c.Redirect(http.StatusSeeOther, self)
		return
	}

	_, err = p.svc.Apps.Create(ctx, u, services.ApplicationInput{
		JobID:       j.ID,
		CoverLetter: form.CoverLetter,
		ResumePath:  resumePath,
	})
	if err != nil {
		p.setFlash(c, FlashError, utils.Message(err, "Failed to submit application"))
		c.Redirect(http.StatusSeeOther, self)
		return
	}
	p.setFlash(c, FlashSuccess, "Application submitted.")
	c.Redirect(http.StatusSeeOther, self)
}

func (p *Pages) attachResume(c *gin.Context, u *models.User) (string, error) {
	const op = "Pages.attachResume"
	if p.svc.Resumes == nil {
		return "", nil
	}

	fh, err := c.FormFile("resume")
	if err != nil || fh.Size == 0 {
		if c.PostForm("use_latest") == "" {
			return "", nil
		}
		r, err := p.svc.Resumes.Latest(c.Request.Context(), u.ID)
		if err != nil {
			return "", err
		}
		return r.FilePath, nil
	}

	file, err := fh.Open()
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "Failed to upload resume", err)
	}
	defer file.Close()

	body, isPDF := services.SniffPDF(file)
	if !isPDF {
		return "", utils.E(utils.CodeInvalidArgument, op, "Resume must be a PDF up to 5 MB", nil)
	}
	row, err := p.svc.Resumes.Upload(c.Request.Context(), u, fh.Filename, fh.Size, "application/pdf", body)
	if err != nil {
		return "", err
	}
	return row.FilePath, nil
}

type jobFormData struct {
	Job    *models.Job
	Form   validation.JobForm
	Tags   string
	Types  []models.JobType
	Fields validation.FieldErrors
}

// PostJobForm renders the empty form, or the form for ?edit=<job id>.
func (p *Pages) PostJobForm(c *gin.Context) {
	d := jobFormData{Types: models.JobTypes, Form: validation.JobForm{Type: string(models.JobTypeFullTime)}}
	title := "Post a job"

	if id := c.Query("edit"); id != "" {
		j, err := p.svc.Jobs.GetJobByID(c.Request.Context(), id)
		if err != nil {
			p.failPage(c, err, "Failed to load job")
			return
		}
		if !j.OwnedBy(userID(middleware.CurrentUser(c))) {
			p.render(c, http.StatusNotFound, "not_found", "Not found", nil)
			return
		}
		d.Job = j
		d.Form = validation.JobForm{
			Title: j.Title, Company: j.Company, Description: j.Description,
			Location: j.Location, Type: string(j.Type), Salary: j.Salary,
		}
		d.Tags = strings.Join(j.Tags, ", ")
		title = "Edit job"
	}
	p.render(c, http.StatusOK, "post_job", title, d)
}

func (p *Pages) PostJob(c *gin.Context) {
	ctx := c.Request.Context()
	u := middleware.CurrentUser(c)

	var form validation.JobForm
	_ = c.ShouldBind(&form)
	rawTags := c.PostForm("tags")
	form.Tags = splitTags(rawTags)

	editID := c.PostForm("job_id")
	if errs := validation.Validate(form); errs != nil {
		d := jobFormData{Form: form, Tags: rawTags, Types: models.JobTypes, Fields: errs}
		if editID != "" {
			d.Job = &models.Job{ID: editID}
		}
		p.render(c, http.StatusBadRequest, "post_job", "Post a job", d)
		return
	}

	in := services.JobInput{
		Title:       form.Title,
		Company:     form.Company,
		Description: form.Description,
		Location:    form.Location,
		Type:        models.JobType(form.Type),
		Salary:      form.Salary,
		Tags:        form.Tags,
	}

	var (
		j   *models.Job
		err error
	)
	if editID != "" {
		j, err = p.svc.Jobs.Update(ctx, u, editID, in)
	} else {
		j, err = p.svc.Jobs.Create(ctx, u, in)
	}
	if err != nil {
		p.failPage(c, err, "Failed to save job")
		return
	}

	if editID != "" {
		p.setFlash(c, FlashSuccess, "Job updated.")
	} else {
		p.setFlash(c, FlashSuccess, "Job posted.")
	}
	c.Redirect(http.StatusSeeOther, "/jobs/"+url.PathEscape(j.ID))
}

func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func userID(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
