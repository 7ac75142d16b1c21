package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/cache"
	"github.com/yoockh/jobboard/internal/filters"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/realtime"
	mongorepo "github.com/yoockh/jobboard/internal/repositories/mongo"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/utils"
)

const msgAlreadyApplied = "You have already applied to this job"

type ApplicationInput struct {
	JobID       string
	CoverLetter string
	ResumePath  string
}

type ApplicationService interface {
	GetByUser(ctx context.Context, userID string) ([]models.Application, error)
	GetJobApplications(ctx context.Context, actor *models.User, jobID string, q filters.ApplicationQuery) ([]models.Application, error)
	HasApplied(ctx context.Context, jobID, userID string) (bool, error)
	Get(ctx context.Context, actor *models.User, id string) (*models.Application, error)
	Create(ctx context.Context, actor *models.User, in ApplicationInput) (*models.Application, error)
	UpdateStatus(ctx context.Context, applicationID string, status models.ApplicationStatus, actingUserID string) ActionResult
	Timeline(ctx context.Context, actor *models.User, id string) ([]models.ApplicationEvent, error)
	// ReviewableJob returns jobID when actor may review its applications.
	ReviewableJob(ctx context.Context, actor *models.User, jobID string) (*models.Job, error)
}

type applicationService struct {
	apps   pgrepo.ApplicationRepository
	jobs   pgrepo.JobRepository
	events mongorepo.EventRepository
	fx     sideEffects
	now    func() time.Time
}

func NewApplicationService(
	apps pgrepo.ApplicationRepository,
	jobs pgrepo.JobRepository,
	events mongorepo.EventRepository,
	c cache.Cache,
	pub realtime.Publisher,
	log *logrus.Logger,
) ApplicationService {
	return &applicationService{
		apps:   apps,
		jobs:   jobs,
		events: events,
		fx:     newSideEffects(c, pub, log),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *applicationService) GetByUser(ctx context.Context, userID string) ([]models.Application, error) {
	const op = "ApplicationService.GetByUser"

	if userID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, msgNotAuthenticated, nil)
	}
	rows, err := s.apps.ListByApplicant(ctx, userID, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to load applications", err)
	}
	return rows, nil
}

func (s *applicationService) GetJobApplications(ctx context.Context, actor *models.User, jobID string, q filters.ApplicationQuery) ([]models.Application, error) {
	const op = "ApplicationService.GetJobApplications"

	if err := requirePermission(op, actor, auth.PermReviewApplications); err != nil {
		return nil, err
	}
	job, err := s.ownedJob(ctx, op, actor.ID, jobID)
	if err != nil {
		return nil, err
	}

	rows, err := s.apps.ListByJob(ctx, job.ID, q)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to load applications", err)
	}
	return rows, nil
}

func (s *applicationService) ReviewableJob(ctx context.Context, actor *models.User, jobID string) (*models.Job, error) {
	const op = "ApplicationService.ReviewableJob"

	if err := requirePermission(op, actor, auth.PermReviewApplications); err != nil {
		return nil, err
	}
	return s.ownedJob(ctx, op, actor.ID, jobID)
}

func (s *applicationService) HasApplied(ctx context.Context, jobID, userID string) (bool, error) {
	const op = "ApplicationService.HasApplied"

	if jobID == "" || userID == "" {
		return false, nil
	}
	ok, err := s.apps.Exists(ctx, jobID, userID)
	if err != nil {
		return false, utils.E(utils.CodeInternal, op, "Failed to check application", err)
	}
	return ok, nil
}

// Get returns the application to its applicant or to the owner of its job.
func (s *applicationService) Get(ctx context.Context, actor *models.User, id string) (*models.Application, error) {
	const op = "ApplicationService.Get"

	if actor == nil || actor.ID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, msgNotAuthenticated, nil)
	}
	a, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if a.ApplicantID == actor.ID {
		return a, nil
	}
	owner, err := s.jobOwner(ctx, a)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to load job", err)
	}
	if owner != actor.ID {
		return nil, utils.E(utils.CodeForbidden, op, "Not authorized to view this application", nil)
	}
	return a, nil
}

func (s *applicationService) Create(ctx context.Context, actor *models.User, in ApplicationInput) (*models.Application, error) {
	const op = "ApplicationService.Create"

	if err := requirePermission(op, actor, auth.PermApplyJobs); err != nil {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, in.JobID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Job not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "Failed to load job", err)
	}
	if job.OwnedBy(actor.ID) {
		return nil, utils.E(utils.CodeForbidden, op, "You cannot apply to your own job", nil)
	}
	if in.ResumePath != "" && !strings.HasPrefix(in.ResumePath, ResumePrefix(actor.ID)) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Invalid resume", nil)
	}

	applied, err := s.HasApplied(ctx, job.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	if applied {
		return nil, utils.E(utils.CodeConflict, op, msgAlreadyApplied, utils.ErrDuplicate)
	}

	now := s.now()
	a := &models.Application{
		ID:          uuid.NewString(),
		JobID:       job.ID,
		ApplicantID: actor.ID,
		CoverLetter: strings.TrimSpace(in.CoverLetter),
		ResumePath:  in.ResumePath,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.apps.Create(ctx, a); err != nil {
		// lost the race against a concurrent submit; the unique index decides
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, utils.E(utils.CodeConflict, op, msgAlreadyApplied, err)
		}
		return nil, utils.E(utils.CodeInternal, op, "Failed to submit application", err)
	}

	s.appendEvent(ctx, &models.ApplicationEvent{
		ApplicationID: a.ID,
		JobID:         a.JobID,
		ActorID:       actor.ID,
		To:            models.StatusPending,
		At:            now,
	})
	s.fx.invalidate(ctx, cache.KeyEmployerDashboard(job.UserID), cache.KeySeekerDashboard(actor.ID))
	s.fx.publish(ctx, realtime.Event{
		Type:          realtime.EventApplicationCreated,
		JobID:         a.JobID,
		ApplicationID: a.ID,
		Status:        string(a.Status),
	}, realtime.JobChannel(a.JobID), realtime.UserChannel(actor.ID))

	a.Job = job
	return a, nil
}

// UpdateStatus moves an application along the review pipeline. Only the owner
// of the application's job may do it, and only along a legal transition.
// Failures never escape as errors or panics; they come back in the result.
func (s *applicationService) UpdateStatus(ctx context.Context, applicationID string, status models.ApplicationStatus, actingUserID string) (res ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			s.fx.log.WithFields(logrus.Fields{
				"panic":          r,
				"application_id": applicationID,
			}).Error("update status panicked")
			res = fail(utils.CodeInternal, msgUnknownError)
		}
	}()

	if actingUserID == "" {
		return fail(utils.CodeUnauthorized, msgNotAuthenticated)
	}
	if !status.Valid() {
		return fail(utils.CodeInvalidArgument, "Invalid status")
	}
	if _, err := uuid.Parse(applicationID); err != nil {
		return fail(utils.CodeNotFound, "Application not found")
	}

	a, err := s.apps.GetByID(ctx, applicationID)
	if errors.Is(err, utils.ErrNotFound) {
		return fail(utils.CodeNotFound, "Application not found")
	}
	if err != nil {
		return fail(utils.CodeInternal, err.Error())
	}

	owner, err := s.jobOwner(ctx, a)
	if err != nil && !errors.Is(err, utils.ErrNotFound) {
		return fail(utils.CodeInternal, err.Error())
	}
	if owner == "" || owner != actingUserID {
		return fail(utils.CodeForbidden, "Not authorized to update this application")
	}

	from := a.Status
	if from == status {
		return fail(utils.CodeConflict, fmt.Sprintf("Application is already %s", status))
	}
	if !from.CanTransitionTo(status) {
		return fail(utils.CodeInvalidArgument, fmt.Sprintf("Invalid status transition from %s to %s", from, status))
	}

	at := s.now()
	updated, err := s.apps.UpdateStatus(ctx, a.ID, from, status, at)
	if err != nil {
		return fail(utils.CodeInternal, err.Error())
	}
	if !updated {
		return fail(utils.CodeConflict, "Application was changed by someone else. Reload and try again.")
	}

	s.appendEvent(ctx, &models.ApplicationEvent{
		ApplicationID: a.ID,
		JobID:         a.JobID,
		ActorID:       actingUserID,
		From:          from,
		To:            status,
		At:            at,
	})
	s.fx.invalidate(ctx, cache.KeyEmployerDashboard(owner), cache.KeySeekerDashboard(a.ApplicantID))
	s.fx.publish(ctx, realtime.Event{
		Type:          realtime.EventStatusChanged,
		JobID:         a.JobID,
		ApplicationID: a.ID,
		Status:        string(status),
		At:            at.Unix(),
	}, realtime.JobChannel(a.JobID), realtime.UserChannel(a.ApplicantID))

	return ok()
}

func (s *applicationService) Timeline(ctx context.Context, actor *models.User, id string) ([]models.ApplicationEvent, error) {
	const op = "ApplicationService.Timeline"

	a, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if s.events == nil {
		return []models.ApplicationEvent{}, nil
	}
	rows, err := s.events.ListByApplication(ctx, a.ID, 0)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "Failed to load timeline", err)
	}
	return rows, nil
}

func (s *applicationService) load(ctx context.Context, op, id string) (*models.Application, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "Application not found", utils.ErrNotFound)
	}
	a, err := s.apps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Application not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "Failed to load application", err)
	}
	return a, nil
}

// ownedJob loads jobID, archived or not, and checks that ownerID owns it.
func (s *applicationService) ownedJob(ctx context.Context, op, ownerID, jobID string) (*models.Job, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "Job not found", utils.ErrNotFound)
	}
	job, err := s.jobs.GetByIDUnscoped(ctx, jobID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Job not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "Failed to load job", err)
	}
	if !job.OwnedBy(ownerID) {
		return nil, utils.E(utils.CodeForbidden, op, "You can only review applications to your own jobs", nil)
	}
	return job, nil
}

// jobOwner resolves the owner of the application's parent job.
func (s *applicationService) jobOwner(ctx context.Context, a *models.Application) (string, error) {
	if a.Job != nil && a.Job.ID == a.JobID {
		return a.Job.UserID, nil
	}
	job, err := s.jobs.GetByIDUnscoped(ctx, a.JobID)
	if err != nil {
		return "", err
	}
	return job.UserID, nil
}

func (s *applicationService) appendEvent(ctx context.Context, e *models.ApplicationEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, e); err != nil {
		s.fx.log.WithError(err).WithField("application_id", e.ApplicationID).Warn("timeline append failed")
	}
}
