package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/jobboard/internal/cache"
	"github.com/yoockh/jobboard/internal/filters"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/realtime"
	"github.com/yoockh/jobboard/internal/utils"
)

const (
	jobID = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	appID = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
)

type appFixture struct {
	jobs   *fakeJobRepo
	apps   *fakeAppRepo
	events *fakeEventRepo
	cache  *fakeCache
	pub    *fakePublisher
	svc    ApplicationService
}

func newAppFixture(t *testing.T, status models.ApplicationStatus) *appFixture {
	t.Helper()
	f := &appFixture{
		jobs: newFakeJobRepo(&models.Job{
			ID: jobID, Title: "Backend Engineer", UserID: employer.ID, Type: models.JobTypeFullTime,
			CreatedAt: time.Now(),
		}),
		events: &fakeEventRepo{},
		cache:  newFakeCache(),
		pub:    &fakePublisher{},
	}
	if status != "" {
		f.apps = newFakeAppRepo(&models.Application{
			ID: appID, JobID: jobID, ApplicantID: seeker.ID, Status: status, CreatedAt: time.Now(),
		})
	} else {
		f.apps = newFakeAppRepo()
	}
	f.svc = NewApplicationService(f.apps, f.jobs, f.events, f.cache, f.pub, quietLogger())
	return f
}

func TestUpdateStatus_OwnerMovesAlongPipeline(t *testing.T) {
	f := newAppFixture(t, models.StatusPending)
	ctx := context.Background()

	for _, next := range []models.ApplicationStatus{models.StatusReviewing, models.StatusShortlisted, models.StatusAccepted} {
		res := f.svc.UpdateStatus(ctx, appID, next, employer.ID)
		require.True(t, res.Success, res.Error)
		assert.Equal(t, next, f.apps.status(appID))
	}

	require.Len(t, f.events.events, 3)
	assert.Equal(t, models.StatusShortlisted, f.events.events[2].From)
	assert.Equal(t, models.StatusAccepted, f.events.events[2].To)
	assert.Contains(t, f.pub.channels(), realtime.JobChannel(jobID))
	assert.Contains(t, f.pub.channels(), realtime.UserChannel(seeker.ID))
	assert.Contains(t, f.cache.deleted, cache.KeyEmployerDashboard(employer.ID))
	assert.Contains(t, f.cache.deleted, cache.KeySeekerDashboard(seeker.ID))
}

func TestUpdateStatus_Failures(t *testing.T) {
	tests := []struct {
		name   string
		from   models.ApplicationStatus
		id     string
		to     models.ApplicationStatus
		actor  string
		expect string
	}{
		{"unauthenticated", models.StatusPending, appID, models.StatusReviewing, "", "Not authenticated"},
		{"unknown status", models.StatusPending, appID, "hired", employer.ID, "Invalid status"},
		{"missing application", models.StatusPending, "cccccccc-cccc-cccc-cccc-cccccccccccc", models.StatusReviewing, employer.ID, "Application not found"},
		{"other employer", models.StatusPending, appID, models.StatusReviewing, employer2.ID, "Not authorized to update this application"},
		{"applicant", models.StatusPending, appID, models.StatusAccepted, seeker.ID, "Not authorized to update this application"},
		{"terminal", models.StatusAccepted, appID, models.StatusPending, employer.ID, "Invalid status transition from accepted to pending"},
		{"skip ahead", models.StatusPending, appID, models.StatusAccepted, employer.ID, "Invalid status transition from pending to accepted"},
		{"same status", models.StatusReviewing, appID, models.StatusReviewing, employer.ID, "Application is already reviewing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAppFixture(t, tt.from)

			res := f.svc.UpdateStatus(context.Background(), tt.id, tt.to, tt.actor)

			assert.False(t, res.Success)
			assert.Equal(t, tt.expect, res.Error)
			assert.Equal(t, tt.from, f.apps.status(appID), "stored status must not change")
			assert.Zero(t, f.apps.updates)
			assert.Empty(t, f.events.events)
			assert.Empty(t, f.pub.sent)
		})
	}
}

func TestUpdateStatus_BackendErrorPropagates(t *testing.T) {
	f := newAppFixture(t, models.StatusPending)
	f.apps.updateErr = errors.New("connection reset by peer")

	res := f.svc.UpdateStatus(context.Background(), appID, models.StatusReviewing, employer.ID)

	assert.False(t, res.Success)
	assert.Equal(t, "connection reset by peer", res.Error)
}

func TestUpdateStatus_MalformedIDNeverQueried(t *testing.T) {
	f := newAppFixture(t, models.StatusPending)
	f.apps.getErr = errors.New(`ERROR: invalid input syntax for type uuid: "42" (SQLSTATE 22P02)`)

	res := f.svc.UpdateStatus(context.Background(), "42", models.StatusReviewing, employer.ID)

	assert.Equal(t, ActionResult{Error: "Application not found", Code: utils.CodeNotFound}, res)
	assert.Zero(t, f.apps.updates)
}

func TestUpdateStatus_PanicBecomesUnknownError(t *testing.T) {
	f := newAppFixture(t, models.StatusPending)
	f.apps.getPanic = true

	var res ActionResult
	require.NotPanics(t, func() {
		res = f.svc.UpdateStatus(context.Background(), appID, models.StatusReviewing, employer.ID)
	})
	assert.Equal(t, ActionResult{Error: "Unknown error occurred", Code: utils.CodeInternal}, res)
}

func TestUpdateStatus_WorksOnArchivedJob(t *testing.T) {
	f := newAppFixture(t, models.StatusPending)
	require.NoError(t, f.jobs.SoftDelete(context.Background(), jobID, employer.ID))

	res := f.svc.UpdateStatus(context.Background(), appID, models.StatusRejected, employer.ID)

	assert.True(t, res.Success, res.Error)
}

func TestCreate_DuplicatePrevented(t *testing.T) {
	f := newAppFixture(t, "")
	ctx := context.Background()
	in := ApplicationInput{JobID: jobID, CoverLetter: strings.Repeat("x", 60)}

	a, err := f.svc.Create(ctx, seeker, in)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, a.Status)

	applied, err := f.svc.HasApplied(ctx, jobID, seeker.ID)
	require.NoError(t, err)
	assert.True(t, applied)

	_, err = f.svc.Create(ctx, seeker, in)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
	assert.Equal(t, "You have already applied to this job", utils.Message(err, ""))
}

func TestCreate_DuplicateCaughtByUniqueIndex(t *testing.T) {
	f := newAppFixture(t, models.StatusPending)
	f.apps.skipExists = true

	_, err := f.svc.Create(context.Background(), seeker, ApplicationInput{JobID: jobID})

	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
	assert.True(t, errors.Is(err, utils.ErrDuplicate))
}

func TestCreate_Rules(t *testing.T) {
	ctx := context.Background()

	t.Run("employer cannot apply", func(t *testing.T) {
		f := newAppFixture(t, "")
		_, err := f.svc.Create(ctx, employer2, ApplicationInput{JobID: jobID})
		assert.True(t, utils.IsCode(err, utils.CodeForbidden))
	})

	t.Run("archived job", func(t *testing.T) {
		f := newAppFixture(t, "")
		require.NoError(t, f.jobs.SoftDelete(ctx, jobID, employer.ID))
		_, err := f.svc.Create(ctx, seeker, ApplicationInput{JobID: jobID})
		assert.True(t, utils.IsCode(err, utils.CodeNotFound))
	})

	t.Run("foreign resume path", func(t *testing.T) {
		f := newAppFixture(t, "")
		_, err := f.svc.Create(ctx, seeker, ApplicationInput{JobID: jobID, ResumePath: "resumes/someone-else/cv.pdf"})
		assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	})

	t.Run("own resume path", func(t *testing.T) {
		f := newAppFixture(t, "")
		a, err := f.svc.Create(ctx, seeker, ApplicationInput{JobID: jobID, ResumePath: ResumePrefix(seeker.ID) + "x-cv.pdf"})
		require.NoError(t, err)
		assert.Equal(t, ResumePrefix(seeker.ID)+"x-cv.pdf", a.ResumePath)
		require.Len(t, f.events.events, 1)
		assert.Equal(t, models.StatusPending, f.events.events[0].To)
	})
}

func TestGetJobApplications_OwnerOnly(t *testing.T) {
	f := newAppFixture(t, models.StatusPending)
	ctx := context.Background()

	rows, err := f.svc.GetJobApplications(ctx, employer, jobID, filters.ApplicationQuery{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = f.svc.GetJobApplications(ctx, employer, jobID, filters.ApplicationQuery{Status: models.StatusRejected})
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = f.svc.GetJobApplications(ctx, employer2, jobID, filters.ApplicationQuery{})
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	_, err = f.svc.GetJobApplications(ctx, seeker, jobID, filters.ApplicationQuery{})
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
}

func TestGetAndTimeline_Access(t *testing.T) {
	f := newAppFixture(t, models.StatusPending)
	ctx := context.Background()
	require.True(t, f.svc.UpdateStatus(ctx, appID, models.StatusReviewing, employer.ID).Success)

	for _, u := range []*models.User{seeker, employer} {
		_, err := f.svc.Get(ctx, u, appID)
		require.NoError(t, err)
		events, err := f.svc.Timeline(ctx, u, appID)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	}

	_, err := f.svc.Get(ctx, employer2, appID)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
	_, err = f.svc.Get(ctx, nil, appID)
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))
	_, err = f.svc.Get(ctx, seeker, "not-a-uuid")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}
