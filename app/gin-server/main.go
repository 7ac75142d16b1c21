package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/yoockh/jobboard/config"
	"github.com/yoockh/jobboard/internal/api/handlers"
	"github.com/yoockh/jobboard/internal/api/routes"
	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/cache"
	"github.com/yoockh/jobboard/internal/logger"
	"github.com/yoockh/jobboard/internal/realtime"
	mongorepo "github.com/yoockh/jobboard/internal/repositories/mongo"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/services"
	"github.com/yoockh/jobboard/internal/storage"
	"github.com/yoockh/jobboard/internal/web"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	cfg, err := config.LoadApp()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if err := config.MigratePostgres(); err != nil {
		log.Fatalf("PostgreSQL migrate error: %v", err)
	}
	log.Info("PostgreSQL connected")

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	log.Info("MongoDB connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	log.Info("Redis connected")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// resumes are optional: without a bucket uploads answer 503
	var store storage.ObjectStore
	if cfg.GCSBucket != "" {
		gcs, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			log.Fatalf("GCS init error: %v", err)
		}
		defer gcs.Close()
		store = gcs
	} else {
		log.Warn("GCS_BUCKET not set, resume uploads disabled")
	}

	// repositories
	jobRepo := pgrepo.NewJobRepo(config.PostgresDB)
	appRepo := pgrepo.NewApplicationRepo(config.PostgresDB)
	profileRepo := pgrepo.NewProfileRepo(config.PostgresDB)
	resumeRepo := pgrepo.NewResumeFileRepo(config.PostgresDB)
	eventRepo := mongorepo.NewEventRepo(config.MongoDatabase())

	respCache := cache.NewRedisCache(config.RedisClient, "jobboard:")
	pub := realtime.NewRedisPublisher(config.RedisClient)

	// services
	profileSvc := services.NewProfileService(profileRepo)
	jobSvc := services.NewJobService(jobRepo, respCache, cfg.CacheTTL, pub, log)
	appSvc := services.NewApplicationService(appRepo, jobRepo, eventRepo, respCache, pub, log)
	dashSvc := services.NewDashboardService(jobRepo, appRepo, respCache, cfg.CacheTTL, log)
	resumeSvc := services.NewResumeService(resumeRepo, store, appSvc)

	// auth
	idp := auth.NewGoTrueClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, &http.Client{Timeout: 10 * time.Second})
	gw := auth.NewGateway(idp, profileSvc, auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience), cfg.SiteURL, log).
		WithRoles(services.NewRoleResolver(profileRepo, respCache, time.Hour, log))
	cookies := auth.CookieOptions{Secure: cfg.CookieSecure, Domain: cfg.CookieDomain}

	pages, err := web.NewPages(gw, cookies, web.Services{
		Jobs:      jobSvc,
		Apps:      appSvc,
		Dashboard: dashSvc,
		Resumes:   resumeSvc,
	}, log)
	if err != nil {
		log.Fatalf("template error: %v", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	routes.RegisterRoutes(r, routes.Deps{
		Auth:         handlers.NewAuthHandler(gw, profileSvc, cookies, log),
		Jobs:         handlers.NewJobHandler(jobSvc),
		Applications: handlers.NewApplicationHandler(appSvc, resumeSvc),
		Dashboard:    handlers.NewDashboardHandler(dashSvc),
		Profile:      handlers.NewProfileHandler(profileSvc),
		Resumes:      handlers.NewResumeHandler(resumeSvc),
		WS:           handlers.NewWSHandler(appSvc, config.RedisClient, cfg.CORSOrigins, log),
		Pages:        pages,
		Gateway:      gw,
		Cookies:      cookies,
		Logger:       log,
		CORSOrigins:  cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown failed")
	}
	if err := config.CloseMongo(shutdownCtx); err != nil {
		log.WithError(err).Warn("mongo close failed")
	}
	if err := config.RedisClient.Close(); err != nil {
		log.WithError(err).Warn("redis close failed")
	}
}
