package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobboard/internal/filters"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/services"
	"github.com/yoockh/jobboard/internal/validation"
)

type ApplicationHandler struct {
	apps    services.ApplicationService
	resumes services.ResumeService
}

func NewApplicationHandler(apps services.ApplicationService, resumes services.ResumeService) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, resumes: resumes}
}

func (h *ApplicationHandler) Create(c *gin.Context) {
	u, ok := requireUser(c)
	if !ok {
		return
	}
	var req validation.ApplicationForm
	if !bind(c, "ApplicationHandler.Create", &req) {
		return
	}

	a, err := h.apps.Create(c.Request.Context(), u, services.ApplicationInput{
		JobID:       req.JobID,
		CoverLetter: req.CoverLetter,
		ResumePath:  req.ResumePath,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *ApplicationHandler) Mine(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	rows, err := h.apps.GetByUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ForJob lists the applications of one job for its owner,
// honouring ?status and ?sort.
func (h *ApplicationHandler) ForJob(c *gin.Context) {
	u, ok := requireUser(c)
	if !ok {
		return
	}
	q := filters.ParseApplicationQuery(c.Request.URL.Query())
	rows, err := h.apps.GetJobApplications(c.Request.Context(), u, c.Param("id"), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": rows, "query": q})
}

func (h *ApplicationHandler) Applied(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	applied, err := h.apps.HasApplied(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applied": applied})
}

func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	var req validation.StatusUpdateForm
	if err := c.ShouldBindJSON(&req); err != nil {
		writeFieldErrors(c, validation.FieldErrors{"status": "Unknown application status"})
		return
	}

	var actingUserID string
	if u := currentUserOrNil(c); u != nil {
		actingUserID = u.ID
	}
	res := h.apps.UpdateStatus(c.Request.Context(), c.Param("id"), models.ApplicationStatus(req.Status), actingUserID)
	writeResult(c, res)
}

func (h *ApplicationHandler) Timeline(c *gin.Context) {
	u, ok := requireUser(c)
	if !ok {
		return
	}
	events, err := h.apps.Timeline(c.Request.Context(), u, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *ApplicationHandler) ResumeURL(c *gin.Context) {
	u, ok := requireUser(c)
	if !ok {
		return
	}
	link, err := h.resumes.SignedURL(c.Request.Context(), u, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link})
}
