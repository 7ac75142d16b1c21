package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobboard/internal/services"
	"github.com/yoockh/jobboard/internal/utils"
)

type ResumeHandler struct {
	svc services.ResumeService
}

func NewResumeHandler(svc services.ResumeService) *ResumeHandler {
	return &ResumeHandler{svc: svc}
}

// Upload stores a PDF resume and returns its object path, which the apply
// form then sends as resume_path.
func (h *ResumeHandler) Upload(c *gin.Context) {
	u, ok := requireUser(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ResumeHandler.Upload", "missing multipart field 'file'", err))
		return
	}
	if fh.Size <= 0 || fh.Size > services.MaxResumeSize {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ResumeHandler.Upload", "Resume must be a PDF up to 5 MB", nil))
		return
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "ResumeHandler.Upload", "failed to open upload", err))
		return
	}
	defer file.Close()

	body, isPDF := services.SniffPDF(file)
	if !isPDF {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ResumeHandler.Upload", "Resume must be a PDF up to 5 MB", nil))
		return
	}

	row, err := h.svc.Upload(c.Request.Context(), u, fh.Filename, fh.Size, "application/pdf", body)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":          row.ID,
		"resume_path": row.FilePath,
		"file_name":   row.FileName,
		"file_size":   row.FileSize,
	})
}

func (h *ResumeHandler) Latest(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	row, err := h.svc.Latest(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}
