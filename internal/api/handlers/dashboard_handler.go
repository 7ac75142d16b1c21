package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobboard/internal/services"
)

type DashboardHandler struct {
	svc services.DashboardService
}

func NewDashboardHandler(svc services.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Get returns the dashboard matching the caller's role.
func (h *DashboardHandler) Get(c *gin.Context) {
	u, ok := requireUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if u.IsEmployer() {
		d, err := h.svc.Employer(ctx, u)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"role": u.Role, "employer": d})
		return
	}

	d, err := h.svc.JobSeeker(ctx, u)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": u.Role, "job_seeker": d})
}
