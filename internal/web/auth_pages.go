package web

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobboard/internal/api/middleware"
	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/validation"
)

const afterLogin = "/dashboard"

type authPageData struct {
	Error      *AuthErrorView
	Fields     validation.FieldErrors
	Email      string
	FullName   string
	Role       string
	RedirectTo string
	Roles      []models.Role
}

func (p *Pages) authData(c *gin.Context) authPageData {
	return authPageData{
		Error:      NewAuthErrorView(c.Query("error"), c.Query("email")),
		Email:      c.Query("email"),
		RedirectTo: c.Query("redirectTo"),
		Roles:      []models.Role{models.RoleJobSeeker, models.RoleEmployer},
	}
}

// authFail sends the visitor back to page with ?error=<code>, keeping email
// (and redirectTo on login) so the form is prefilled.
func authFail(c *gin.Context, page string, err error, email, redirectTo string) {
	v := url.Values{"error": {errorCodeOf(err)}}
	if email != "" {
		v.Set("email", email)
	}
	if redirectTo != "" {
		v.Set("redirectTo", redirectTo)
	}
	c.Redirect(http.StatusSeeOther, page+"?"+v.Encode())
}

func (p *Pages) LoginForm(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		back(c, c.Query("redirectTo"), afterLogin)
		return
	}
	p.render(c, http.StatusOK, "login", "Sign in", p.authData(c))
}

func (p *Pages) Login(c *gin.Context) {
	var form validation.LoginForm
	_ = c.ShouldBind(&form)
	if errs := validation.Validate(form); errs != nil {
		d := p.authData(c)
		d.Fields, d.Email, d.RedirectTo = errs, form.Email, form.RedirectTo
		p.render(c, http.StatusBadRequest, "login", "Sign in", d)
		return
	}

	s, err := p.gw.SignIn(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		p.log.WithError(err).WithField("code", errorCodeOf(err)).Info("sign in rejected")
		authFail(c, middleware.LoginPath, err, form.Email, form.RedirectTo)
		return
	}
	p.cookies.SetSession(c, s)
	back(c, form.RedirectTo, afterLogin)
}

func (p *Pages) SignupForm(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusSeeOther, afterLogin)
		return
	}
	d := p.authData(c)
	d.Role = c.DefaultQuery("role", string(models.RoleJobSeeker))
	p.render(c, http.StatusOK, "signup", "Create account", d)
}

func (p *Pages) Signup(c *gin.Context) {
	var form validation.SignupForm
	_ = c.ShouldBind(&form)
	if errs := validation.Validate(form); errs != nil {
		d := p.authData(c)
		d.Fields, d.Email, d.FullName, d.Role = errs, form.Email, form.FullName, form.Role
		p.render(c, http.StatusBadRequest, "signup", "Create account", d)
		return
	}
	role, _ := models.ParseRole(form.Role)

	out, err := p.gw.SignUp(c.Request.Context(), auth.SignUpInput{
		Email:    form.Email,
		Password: form.Password,
		Role:     role,
		FullName: form.FullName,
	})
	if err != nil {
		authFail(c, "/auth/signup", err, form.Email, "")
		return
	}

	p.cookies.SetVerifier(c, out.Verifier)
	if out.Session != nil {
		p.cookies.SetSession(c, out.Session)
		p.setFlash(c, FlashSuccess, "Welcome aboard!")
		c.Redirect(http.StatusSeeOther, afterLogin)
		return
	}
	p.setFlash(c, FlashInfo, "Check your email to confirm your account.")
	c.Redirect(http.StatusSeeOther, middleware.LoginPath+"?"+url.Values{"email": {form.Email}}.Encode())
}

func (p *Pages) Logout(c *gin.Context) {
	token, _ := middleware.AccessToken(c)
	if err := p.gw.SignOut(c.Request.Context(), token); err != nil {
		p.log.WithError(err).Warn("sign out failed")
	}
	p.cookies.ClearSession(c)
	p.setFlash(c, FlashInfo, "You have been signed out.")
	c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}

func (p *Pages) ForgotPasswordForm(c *gin.Context) {
	p.render(c, http.StatusOK, "forgot_password", "Forgot password", p.authData(c))
}

func (p *Pages) ForgotPassword(c *gin.Context) {
	var form validation.ForgotPasswordForm
	_ = c.ShouldBind(&form)
	if errs := validation.Validate(form); errs != nil {
		d := p.authData(c)
		d.Fields, d.Email = errs, form.Email
		p.render(c, http.StatusBadRequest, "forgot_password", "Forgot password", d)
		return
	}

	verifier, err := p.gw.ResetPassword(c.Request.Context(), form.Email)
	if err != nil {
		authFail(c, "/auth/forgot-password", err, form.Email, "")
		return
	}
	p.cookies.SetVerifier(c, verifier)
	p.setFlash(c, FlashSuccess, "If an account exists for that email, a reset link is on its way.")
	c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}

// ResetPasswordForm accepts ?token=<hash> from the recovery email, trades it
// for a session and reloads without the token.
func (p *Pages) ResetPasswordForm(c *gin.Context) {
	if token := c.Query("token"); token != "" {
		s, err := p.gw.VerifyRecovery(c.Request.Context(), token)
		if err != nil {
			authFail(c, "/auth/forgot-password", err, "", "")
			return
		}
		p.cookies.SetSession(c, s)
		c.Redirect(http.StatusSeeOther, "/auth/reset-password")
		return
	}

	d := p.authData(c)
	if middleware.CurrentUser(c) == nil && d.Error == nil {
		d.Error = NewAuthErrorView(string(auth.CodeSessionNotFound), "")
	}
	p.render(c, http.StatusOK, "reset_password", "Choose a new password", d)
}

func (p *Pages) ResetPassword(c *gin.Context) {
	var form validation.ResetPasswordForm
	_ = c.ShouldBind(&form)
	if errs := validation.Validate(form); errs != nil {
		d := p.authData(c)
		d.Fields = errs
		p.render(c, http.StatusBadRequest, "reset_password", "Choose a new password", d)
		return
	}

	token, _ := middleware.AccessToken(c)
	if err := p.gw.UpdatePassword(c.Request.Context(), token, form.Password); err != nil {
		authFail(c, "/auth/reset-password", err, "", "")
		return
	}
	p.setFlash(c, FlashSuccess, "Your password has been updated.")
	c.Redirect(http.StatusSeeOther, afterLogin)
}

// Resend is posted by the "Resend verification email" link under an
// email_not_confirmed error.
func (p *Pages) Resend(c *gin.Context) {
	var form validation.ResendForm
	_ = c.ShouldBind(&form)
	if errs := validation.Validate(form); errs != nil {
		p.setFlash(c, FlashError, errs["email"])
		c.Redirect(http.StatusSeeOther, middleware.LoginPath)
		return
	}

	if err := p.gw.ResendVerification(c.Request.Context(), form.Email); err != nil {
		authFail(c, middleware.LoginPath, err, form.Email, "")
		return
	}
	p.setFlash(c, FlashSuccess, "Verification email sent. Check your inbox.")
	c.Redirect(http.StatusSeeOther, middleware.LoginPath+"?"+url.Values{"email": {form.Email}}.Encode())
}
