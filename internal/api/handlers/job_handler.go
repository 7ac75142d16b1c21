package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobboard/internal/filters"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/services"
	"github.com/yoockh/jobboard/internal/validation"
)

type JobHandler struct {
	svc services.JobService
}

func NewJobHandler(svc services.JobService) *JobHandler {
	return &JobHandler{svc: svc}
}

func (h *JobHandler) List(c *gin.Context) {
	f := filters.Decode(c.Request.URL.Query())
	rows, err := h.svc.GetAll(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": rows, "filters": f})
}

func (h *JobHandler) Locations(c *gin.Context) {
	locs, err := h.svc.GetUniqueLocations(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, locs)
}

func (h *JobHandler) IDs(c *gin.Context) {
	ids, err := h.svc.GetAllJobIDs(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ids)
}

func (h *JobHandler) Get(c *gin.Context) {
	j, err := h.svc.GetJobByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, j)
}

func (h *JobHandler) Mine(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	rows, err := h.svc.GetByUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *JobHandler) MineDeleted(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	rows, err := h.svc.GetUserDeletedJobs(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *JobHandler) Create(c *gin.Context) {
	u, ok := requireUser(c)
	if !ok {
		return
	}
	var req validation.JobForm
	if !bind(c, "JobHandler.Create", &req) {
		return
	}

	j, err := h.svc.Create(c.Request.Context(), u, jobInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, j)
}

func (h *JobHandler) Update(c *gin.Context) {
	u, ok := requireUser(c)
	if !ok {
		return
	}
	var req validation.JobForm
	if !bind(c, "JobHandler.Update", &req) {
		return
	}

	j, err := h.svc.Update(c.Request.Context(), u, c.Param("id"), jobInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, j)
}

func (h *JobHandler) Delete(c *gin.Context) {
	writeResult(c, h.svc.Delete(c.Request.Context(), currentUserOrNil(c), c.Param("id")))
}

func (h *JobHandler) Restore(c *gin.Context) {
	writeResult(c, h.svc.Restore(c.Request.Context(), currentUserOrNil(c), c.Param("id")))
}

func jobInput(f validation.JobForm) services.JobInput {
	return services.JobInput{
		Title:       f.Title,
		Company:     f.Company,
		Description: f.Description,
		Location:    f.Location,
		Type:        models.JobType(f.Type),
		Salary:      f.Salary,
		Tags:        f.Tags,
	}
}
