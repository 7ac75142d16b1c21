package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobboard/internal/api/middleware"
	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/services"
	"github.com/yoockh/jobboard/internal/utils"
	"github.com/yoockh/jobboard/internal/validation"
)

const (
	DefaultAfterLogin = "/dashboard"
	callbackFailed    = "Authentication failed"
)

type AuthHandler struct {
	gw       *auth.Gateway
	profiles services.ProfileService
	cookies  auth.CookieOptions
	log      *logrus.Logger
}

func NewAuthHandler(gw *auth.Gateway, profiles services.ProfileService, cookies auth.CookieOptions, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{gw: gw, profiles: profiles, cookies: cookies, log: log}
}

// AuthErrorResponse is the body of a failed auth call.
type AuthErrorResponse struct {
	Code       auth.ErrorCode `json:"code"`
	Message    string         `json:"message"`
	ShowResend bool           `json:"show_resend,omitempty"`
}

type sessionResponse struct {
	User       *models.User `json:"user"`
	RedirectTo string       `json:"redirect_to,omitempty"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req validation.LoginForm
	if !bind(c, "AuthHandler.Login", &req) {
		return
	}

	s, err := h.gw.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}
	h.cookies.SetSession(c, s)

	redirect := req.RedirectTo
	if !validation.IsSafeRedirect(redirect) {
		redirect = DefaultAfterLogin
	}
	c.JSON(http.StatusOK, sessionResponse{User: s.User.ToModel(), RedirectTo: redirect})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req validation.SignupForm
	if !bind(c, "AuthHandler.Signup", &req) {
		return
	}
	role, _ := models.ParseRole(req.Role)

	out, err := h.gw.SignUp(c.Request.Context(), auth.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
		FullName: req.FullName,
	})
	if err != nil {
		h.writeAuthError(c, err)
		return
	}

	h.cookies.SetVerifier(c, out.Verifier)
	if out.Session != nil {
		h.cookies.SetSession(c, out.Session)
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":                  out.User,
		"confirmation_required": out.Session == nil,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := middleware.AccessToken(c)
	if err := h.gw.SignOut(c.Request.Context(), token); err != nil {
		// the local session is dropped either way
		h.log.WithError(err).Warn("sign out failed")
	}
	h.cookies.ClearSession(c)
	c.JSON(http.StatusOK, services.ActionResult{Success: true})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req validation.ForgotPasswordForm
	if !bind(c, "AuthHandler.ForgotPassword", &req) {
		return
	}

	verifier, err := h.gw.ResetPassword(c.Request.Context(), req.Email)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}
	h.cookies.SetVerifier(c, verifier)
	c.JSON(http.StatusOK, services.ActionResult{Success: true})
}

// ResetPassword sets a new password for the session established by the
// recovery link.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req validation.ResetPasswordForm
	if !bind(c, "AuthHandler.ResetPassword", &req) {
		return
	}

	token, _ := middleware.AccessToken(c)
	if err := h.gw.UpdatePassword(c.Request.Context(), token, req.Password); err != nil {
		h.writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.ActionResult{Success: true})
}

func (h *AuthHandler) Resend(c *gin.Context) {
	var req validation.ResendForm
	if !bind(c, "AuthHandler.Resend", &req) {
		return
	}

	if err := h.gw.ResendVerification(c.Request.Context(), req.Email); err != nil {
		h.writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.ActionResult{Success: true})
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, ok := requireUser(c)
	if !ok {
		return
	}

	resp := gin.H{"user": u}
	if h.profiles != nil {
		p, err := h.profiles.GetMe(c.Request.Context(), u.ID)
		switch {
		case err == nil:
			resp["profile"] = p
		case !utils.IsCode(err, utils.CodeNotFound):
			writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Callback redeems the code from an email link and continues to ?next.
// Any failure lands on the login page with an error.
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	verifier := h.cookies.TakeVerifier(c)

	if code == "" {
		h.failCallback(c, errors.New("missing code"))
		return
	}
	s, err := h.gw.ExchangeCode(c.Request.Context(), code, verifier)
	if err != nil {
		h.failCallback(c, err)
		return
	}
	h.cookies.SetSession(c, s)

	next := c.Query("next")
	if !validation.IsSafeRedirect(next) {
		next = DefaultAfterLogin
	}
	c.Redirect(http.StatusSeeOther, next)
}

func (h *AuthHandler) failCallback(c *gin.Context, err error) {
	h.log.WithError(err).Warn("auth callback failed")
	c.Redirect(http.StatusSeeOther, middleware.LoginPath+"?"+url.Values{"error": {callbackFailed}}.Encode())
}

func (h *AuthHandler) writeAuthError(c *gin.Context, err error) {
	var ae *auth.Error
	if !errors.As(err, &ae) {
		h.log.WithError(err).Error("auth backend call failed")
		c.JSON(http.StatusBadGateway, AuthErrorResponse{
			Code:    auth.CodeUnexpectedFailure,
			Message: auth.UserMessage(err),
		})
		return
	}

	status := ae.Status
	if status < 400 || status >= 500 {
		status = http.StatusBadGateway
	}
	c.JSON(status, AuthErrorResponse{
		Code:       ae.Code,
		Message:    ae.UserMessage(),
		ShowResend: ae.Code.ShowsResendLink(),
	})
}
