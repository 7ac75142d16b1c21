package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/cache"
	"github.com/yoockh/jobboard/internal/models"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/utils"
	"golang.org/x/sync/errgroup"
)

const recentLimit = 5

type EmployerStats struct {
	ActiveJobs          int64 `json:"active_jobs"`
	ArchivedJobs        int64 `json:"archived_jobs"`
	TotalApplications   int64 `json:"total_applications"`
	PendingApplications int64 `json:"pending_applications"`
}

type JobSummary struct {
	models.Job
	ApplicationCount int64 `json:"application_count"`
}

type EmployerDashboard struct {
	Stats      EmployerStats `json:"stats"`
	RecentJobs []JobSummary  `json:"recent_jobs"`
}

type SeekerStats struct {
	TotalApplications int64                              `json:"total_applications"`
	ByStatus          map[models.ApplicationStatus]int64 `json:"by_status"`
}

type SeekerDashboard struct {
	Stats              SeekerStats          `json:"stats"`
	RecentApplications []models.Application `json:"recent_applications"`
}

type DashboardService interface {
	Employer(ctx context.Context, actor *models.User) (*EmployerDashboard, error)
	JobSeeker(ctx context.Context, actor *models.User) (*SeekerDashboard, error)
}

type dashboardService struct {
	jobs     pgrepo.JobRepository
	apps     pgrepo.ApplicationRepository
	cache    cache.Cache
	cacheTTL time.Duration
	log      *logrus.Logger
}

func NewDashboardService(jobs pgrepo.JobRepository, apps pgrepo.ApplicationRepository, c cache.Cache, cacheTTL time.Duration, log *logrus.Logger) DashboardService {
	if log == nil {
		log = logrus.New()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &dashboardService{jobs: jobs, apps: apps, cache: c, cacheTTL: cacheTTL, log: log}
}

// Employer loads stats and recent jobs in parallel. Stats come from cache
// when present; recent jobs are always fresh.
func (s *dashboardService) Employer(ctx context.Context, actor *models.User) (*EmployerDashboard, error) {
	const op = "DashboardService.Employer"

	if err := requirePermission(op, actor, auth.PermPostJobs); err != nil {
		return nil, err
	}

	var (
		out    EmployerDashboard
		recent []models.Job
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		key := cache.KeyEmployerDashboard(actor.ID)
		if s.readCache(gctx, key, &out.Stats) {
			return nil
		}
		st, err := s.employerStats(gctx, actor.ID)
		if err != nil {
			return err
		}
		out.Stats = st
		s.writeCache(gctx, key, st)
		return nil
	})
	g.Go(func() error {
		rows, err := s.jobs.ListByUser(gctx, actor.ID, recentLimit)
		recent = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to load dashboard", err)
	}

	ids := make([]string, 0, len(recent))
	for _, j := range recent {
		ids = append(ids, j.ID)
	}
	counts, err := s.apps.CountByJobs(ctx, ids)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to load dashboard", err)
	}
	out.RecentJobs = make([]JobSummary, 0, len(recent))
	for _, j := range recent {
		out.RecentJobs = append(out.RecentJobs, JobSummary{Job: j, ApplicationCount: counts[j.ID]})
	}
	return &out, nil
}

func (s *dashboardService) JobSeeker(ctx context.Context, actor *models.User) (*SeekerDashboard, error) {
	const op = "DashboardService.JobSeeker"

	if err := requirePermission(op, actor, auth.PermApplyJobs); err != nil {
		return nil, err
	}

	var out SeekerDashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		key := cache.KeySeekerDashboard(actor.ID)
		if s.readCache(gctx, key, &out.Stats) {
			return nil
		}
		byStatus, err := s.apps.StatusCountsByApplicant(gctx, actor.ID)
		if err != nil {
			return err
		}
		st := SeekerStats{ByStatus: byStatus}
		for _, n := range byStatus {
			st.TotalApplications += n
		}
		out.Stats = st
		s.writeCache(gctx, key, st)
		return nil
	})
	g.Go(func() error {
		rows, err := s.apps.ListByApplicant(gctx, actor.ID, recentLimit)
		out.RecentApplications = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to load dashboard", err)
	}
	if out.RecentApplications == nil {
		out.RecentApplications = []models.Application{}
	}
	return &out, nil
}

func (s *dashboardService) employerStats(ctx context.Context, userID string) (EmployerStats, error) {
	var st EmployerStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		active, archived, err := s.jobs.CountByUser(gctx, userID)
		st.ActiveJobs, st.ArchivedJobs = active, archived
		return err
	})
	g.Go(func() error {
		n, err := s.apps.CountByJobOwner(gctx, userID, "")
		st.TotalApplications = n
		return err
	})
	g.Go(func() error {
		n, err := s.apps.CountByJobOwner(gctx, userID, models.StatusPending)
		st.PendingApplications = n
		return err
	})
	return st, g.Wait()
}

func (s *dashboardService) readCache(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetJSON(ctx, key, dst)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("dashboard cache read failed")
		return false
	}
	return hit
}

func (s *dashboardService) writeCache(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, v, s.cacheTTL); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("dashboard cache write failed")
	}
}
