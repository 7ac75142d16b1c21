package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/cache"
	"github.com/yoockh/jobboard/internal/filters"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/realtime"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/utils"
)

type JobInput struct {
	Title       string
	Company     string
	Description string
	Location    string
	Type        models.JobType
	Salary      string
	Tags        []string
}

type JobService interface {
	GetAll(ctx context.Context, f filters.JobFilters) ([]models.Job, error)
	GetByUser(ctx context.Context, userID string) ([]models.Job, error)
	GetJobByID(ctx context.Context, id string) (*models.Job, error)
	GetUniqueLocations(ctx context.Context) ([]string, error)
	GetAllJobIDs(ctx context.Context) ([]string, error)
	GetUserDeletedJobs(ctx context.Context, userID string) ([]models.Job, error)
	Create(ctx context.Context, actor *models.User, in JobInput) (*models.Job, error)
	Update(ctx context.Context, actor *models.User, jobID string, in JobInput) (*models.Job, error)
	Delete(ctx context.Context, actor *models.User, jobID string) ActionResult
	Restore(ctx context.Context, actor *models.User, jobID string) ActionResult
}

type jobService struct {
	jobs     pgrepo.JobRepository
	cache    cache.Cache
	cacheTTL time.Duration
	fx       sideEffects
	now      func() time.Time
}

func NewJobService(jobs pgrepo.JobRepository, c cache.Cache, cacheTTL time.Duration, pub realtime.Publisher, log *logrus.Logger) JobService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &jobService{
		jobs:     jobs,
		cache:    c,
		cacheTTL: cacheTTL,
		fx:       newSideEffects(c, pub, log),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *jobService) GetAll(ctx context.Context, f filters.JobFilters) ([]models.Job, error) {
	const op = "JobService.GetAll"

	q := pgrepo.JobQuery{Filters: f}
	if since, ok := f.Since(s.now()); ok {
		q.Since = since
	}
	rows, err := s.jobs.List(ctx, q)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to load jobs", err)
	}
	return rows, nil
}

func (s *jobService) GetByUser(ctx context.Context, userID string) ([]models.Job, error) {
	const op = "JobService.GetByUser"

	if userID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, msgNotAuthenticated, nil)
	}
	rows, err := s.jobs.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to load your jobs", err)
	}
	return rows, nil
}

func (s *jobService) GetJobByID(ctx context.Context, id string) (*models.Job, error) {
	const op = "JobService.GetJobByID"

	if _, err := uuid.Parse(id); err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "Job not found", utils.ErrNotFound)
	}
	j, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Job not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "Failed to load job", err)
	}
	return j, nil
}

func (s *jobService) GetUniqueLocations(ctx context.Context) ([]string, error) {
	const op = "JobService.GetUniqueLocations"

	var cached []string
	if s.cache != nil {
		if hit, err := s.cache.GetJSON(ctx, cache.KeyJobLocations, &cached); err == nil && hit {
			return cached, nil
		}
	}

	locs, err := s.jobs.UniqueLocations(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to load locations", err)
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cache.KeyJobLocations, locs, s.cacheTTL); err != nil {
			s.fx.log.WithError(err).Warn("cache locations failed")
		}
	}
	return locs, nil
}

func (s *jobService) GetAllJobIDs(ctx context.Context) ([]string, error) {
	const op = "JobService.GetAllJobIDs"

	ids, err := s.jobs.AllIDs(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to load job ids", err)
	}
	return ids, nil
}

func (s *jobService) GetUserDeletedJobs(ctx context.Context, userID string) ([]models.Job, error) {
	const op = "JobService.GetUserDeletedJobs"

	if userID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, msgNotAuthenticated, nil)
	}
	rows, err := s.jobs.ListDeletedByUser(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to load deleted jobs", err)
	}
	return rows, nil
}

func (s *jobService) Create(ctx context.Context, actor *models.User, in JobInput) (*models.Job, error) {
	const op = "JobService.Create"

	if err := requirePermission(op, actor, auth.PermPostJobs); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Invalid job type", nil)
	}

	now := s.now()
	j := &models.Job{
		ID:        uuid.NewString(),
		UserID:    actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(j)

	if err := s.jobs.Create(ctx, j); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to create job", err)
	}
	s.afterJobWrite(ctx, actor.ID, j.ID)
	return j, nil
}

func (s *jobService) Update(ctx context.Context, actor *models.User, jobID string, in JobInput) (*models.Job, error) {
	const op = "JobService.Update"

	if err := requirePermission(op, actor, auth.PermManageJobs); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Invalid job type", nil)
	}

	j, err := s.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !j.OwnedBy(actor.ID) {
		return nil, utils.E(utils.CodeForbidden, op, "You can only edit your own jobs", nil)
	}

	in.apply(j)
	j.UpdatedAt = s.now()
	if err := s.jobs.Update(ctx, j); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Job not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "Failed to update job", err)
	}
	s.afterJobWrite(ctx, actor.ID, j.ID)
	return j, nil
}

// Delete archives the job. It stays recoverable through Restore.
func (s *jobService) Delete(ctx context.Context, actor *models.User, jobID string) ActionResult {
	return s.toggleArchived(ctx, actor, jobID, true)
}

func (s *jobService) Restore(ctx context.Context, actor *models.User, jobID string) ActionResult {
	return s.toggleArchived(ctx, actor, jobID, false)
}

func (s *jobService) toggleArchived(ctx context.Context, actor *models.User, jobID string, archive bool) (res ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			s.fx.log.WithField("panic", r).WithField("job_id", jobID).Error("job archive toggle panicked")
			res = fail(utils.CodeInternal, msgUnknownError)
		}
	}()

	if actor == nil || actor.ID == "" {
		return fail(utils.CodeUnauthorized, msgNotAuthenticated)
	}
	if reason := auth.Check(actor, auth.PermManageJobs); reason != auth.ReasonNone {
		return fail(utils.CodeForbidden, reason.Message())
	}
	if _, err := uuid.Parse(jobID); err != nil {
		return fail(utils.CodeNotFound, "Job not found")
	}

	var err error
	if archive {
		err = s.jobs.SoftDelete(ctx, jobID, actor.ID)
	} else {
		err = s.jobs.Restore(ctx, jobID, actor.ID)
	}
	if errors.Is(err, utils.ErrNotFound) {
		return fail(utils.CodeNotFound, "Job not found")
	}
	if err != nil {
		return fail(utils.CodeInternal, err.Error())
	}

	s.afterJobWrite(ctx, actor.ID, jobID)
	return ok()
}

func (s *jobService) afterJobWrite(ctx context.Context, ownerID, jobID string) {
	s.fx.invalidate(ctx, cache.KeyJobLocations, cache.KeyEmployerDashboard(ownerID))
	s.fx.publish(ctx, realtime.Event{Type: realtime.EventJobChanged, JobID: jobID}, realtime.JobChannel(jobID))
}

func (in JobInput) apply(j *models.Job) {
	j.Title = strings.TrimSpace(in.Title)
	j.Company = strings.TrimSpace(in.Company)
	j.Description = strings.TrimSpace(in.Description)
	j.Location = strings.TrimSpace(in.Location)
	j.Type = in.Type
	j.Salary = strings.TrimSpace(in.Salary)
	j.Tags = cleanTags(in.Tags)
}

func cleanTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func requirePermission(op string, actor *models.User, p auth.Permission) error {
	switch reason := auth.Check(actor, p); reason {
	case auth.ReasonNone:
		return nil
	case auth.ReasonUnauthenticated:
		return utils.E(utils.CodeUnauthorized, op, msgNotAuthenticated, nil)
	default:
		return utils.E(utils.CodeForbidden, op, reason.Message(), nil)
	}
}
