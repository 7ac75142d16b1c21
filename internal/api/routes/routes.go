package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobboard/internal/api/handlers"
	"github.com/yoockh/jobboard/internal/api/middleware"
	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/web"
)

type Deps struct {
	Auth         *handlers.AuthHandler
	Jobs         *handlers.JobHandler
	Applications *handlers.ApplicationHandler
	Dashboard    *handlers.DashboardHandler
	Profile      *handlers.ProfileHandler
	Resumes      *handlers.ResumeHandler
	WS           *handlers.WSHandler
	Pages        *web.Pages

	Gateway     *auth.Gateway
	Cookies     auth.CookieOptions
	Logger      *logrus.Logger
	CORSOrigins []string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.RequestLogger(d.Logger, "/ping"))
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
			ExposeHeaders:    []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(middleware.SessionAuth(d.Gateway, d.Cookies, d.Logger))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	registerAPI(r.Group("/api"), d)
	registerPages(r, d)

	// WebSocket
	ws := r.Group("/ws", middleware.RequireAuth(middleware.AuthOptions{}))
	ws.GET("/applications", middleware.RequirePermission(auth.PermApplyJobs), d.WS.MyApplications)
	ws.GET("/jobs/:id/applications", middleware.RequirePermission(auth.PermReviewApplications), d.WS.JobApplications)

	r.NoRoute(d.Pages.NotFound)
}

func registerAPI(api *gin.RouterGroup, d Deps) {
	authed := middleware.RequireAuth(middleware.AuthOptions{})
	can := middleware.RequirePermission

	a := api.Group("/auth")
	a.POST("/login", d.Auth.Login)
	a.POST("/signup", d.Auth.Signup)
	a.POST("/logout", d.Auth.Logout)
	a.POST("/forgot-password", d.Auth.ForgotPassword)
	a.POST("/reset-password", authed, d.Auth.ResetPassword)
	a.POST("/resend", d.Auth.Resend)
	a.GET("/me", authed, d.Auth.Me)

	// public
	api.GET("/jobs", d.Jobs.List)
	api.GET("/jobs/locations", d.Jobs.Locations)
	api.GET("/jobs/ids", d.Jobs.IDs)
	api.GET("/jobs/:id", d.Jobs.Get)

	api.POST("/jobs", can(auth.PermPostJobs), d.Jobs.Create)
	api.PUT("/jobs/:id", can(auth.PermManageJobs), d.Jobs.Update)
	api.DELETE("/jobs/:id", can(auth.PermManageJobs), d.Jobs.Delete)
	api.POST("/jobs/:id/restore", can(auth.PermManageJobs), d.Jobs.Restore)
	api.GET("/jobs/:id/applications", can(auth.PermReviewApplications), d.Applications.ForJob)
	api.GET("/jobs/:id/applied", authed, d.Applications.Applied)

	me := api.Group("/me", authed)
	me.GET("/jobs", can(auth.PermManageJobs), d.Jobs.Mine)
	me.GET("/jobs/deleted", can(auth.PermManageJobs), d.Jobs.MineDeleted)
	me.GET("/applications", d.Applications.Mine)

	api.POST("/applications", can(auth.PermApplyJobs), d.Applications.Create)
	api.PATCH("/applications/:id/status", can(auth.PermReviewApplications), d.Applications.UpdateStatus)
	api.GET("/applications/:id/timeline", authed, d.Applications.Timeline)
	api.GET("/applications/:id/resume", authed, d.Applications.ResumeURL)

	api.POST("/resumes", can(auth.PermApplyJobs), d.Resumes.Upload)
	api.GET("/resumes/latest", can(auth.PermApplyJobs), d.Resumes.Latest)

	api.GET("/profile/me", authed, d.Profile.Me)
	api.PUT("/profile", authed, d.Profile.Update)

	api.GET("/dashboard", can(auth.PermViewDashboard), d.Dashboard.Get)
}

func registerPages(r *gin.Engine, d Deps) {
	p := d.Pages
	login := middleware.RequireAuth(middleware.AuthOptions{ReturnTo: true})
	can := middleware.RequirePermission

	r.GET("/", func(c *gin.Context) { c.Redirect(302, "/jobs") })

	r.GET("/auth/callback", d.Auth.Callback)
	r.GET("/auth/login", p.LoginForm)
	r.POST("/auth/login", p.Login)
	r.GET("/auth/signup", p.SignupForm)
	r.POST("/auth/signup", p.Signup)
	r.POST("/auth/logout", p.Logout)
	r.GET("/auth/forgot-password", p.ForgotPasswordForm)
	r.POST("/auth/forgot-password", p.ForgotPassword)
	r.GET("/auth/reset-password", p.ResetPasswordForm)
	r.POST("/auth/reset-password", login, p.ResetPassword)
	r.POST("/auth/resend", p.Resend)

	r.GET("/access-denied", p.AccessDenied)

	r.GET("/jobs", p.Jobs)
	r.GET("/jobs/:id", p.Job)
	r.POST("/jobs/:id/apply", login, can(auth.PermApplyJobs), p.Apply)

	r.GET("/post-job", login, can(auth.PermPostJobs), p.PostJobForm)
	r.POST("/post-job", login, can(auth.PermPostJobs), p.PostJob)

	dash := r.Group("/dashboard", login)
	dash.GET("", can(auth.PermViewDashboard), p.Dashboard)
	dash.GET("/jobs/:id/applications", can(auth.PermReviewApplications), p.JobApplications)
	dash.POST("/jobs/:id/delete", can(auth.PermManageJobs), p.DeleteJob)
	dash.POST("/jobs/:id/restore", can(auth.PermManageJobs), p.RestoreJob)
	dash.POST("/applications/:id/status", can(auth.PermReviewApplications), p.UpdateApplicationStatus)
	dash.GET("/applications/:id/resume", p.ApplicationResume)
}
