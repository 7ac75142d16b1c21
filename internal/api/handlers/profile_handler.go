package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobboard/internal/services"
	"github.com/yoockh/jobboard/internal/validation"
	"gorm.io/datatypes"
)

type ProfileHandler struct {
	svc services.ProfileService
}

func NewProfileHandler(svc services.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	p, err := h.svc.GetMe(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// Update applies a partial update. Role and email come from the identity and
// cannot be changed here.
func (h *ProfileHandler) Update(c *gin.Context) {
	u, ok := requireUser(c)
	if !ok {
		return
	}

	var req validation.ProfileForm
	if !bind(c, "ProfileHandler.Update", &req) {
		return
	}

	// a profile lost in the sign-up gap is recreated by the next sign-in,
	// never here: the role must not come from the request's token
	existing, err := h.svc.GetMe(c.Request.Context(), u.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	if req.FullName != nil {
		existing.FullName = *req.FullName
	}
	if req.AvatarURL != nil {
		existing.AvatarURL = *req.AvatarURL
	}
	if req.Headline != nil {
		existing.Headline = *req.Headline
	}
	if req.Skills != nil {
		existing.Skills = *req.Skills
	}
	if req.Metadata != nil {
		existing.Metadata = datatypes.JSON(*req.Metadata)
	}

	if err := h.svc.Upsert(c.Request.Context(), existing); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, existing)
}
