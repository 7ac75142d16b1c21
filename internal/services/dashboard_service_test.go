package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/jobboard/internal/cache"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/utils"
)

func TestDashboard_Employer(t *testing.T) {
	f := newAppFixture(t, models.StatusPending)
	svc := NewDashboardService(f.jobs, f.apps, f.cache, time.Minute, quietLogger())

	d, err := svc.Employer(context.Background(), employer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.Stats.ActiveJobs)
	require.Len(t, d.RecentJobs, 1)
	assert.Equal(t, int64(1), d.RecentJobs[0].ApplicationCount)

	hit, err := f.cache.GetJSON(context.Background(), cache.KeyEmployerDashboard(employer.ID), &EmployerStats{})
	require.NoError(t, err)
	assert.True(t, hit)

	_, err = svc.Employer(context.Background(), seeker)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
}

func TestDashboard_SeekerStatsInvalidatedByStatusChange(t *testing.T) {
	f := newAppFixture(t, models.StatusPending)
	svc := NewDashboardService(f.jobs, f.apps, f.cache, time.Minute, quietLogger())
	ctx := context.Background()

	d, err := svc.JobSeeker(ctx, seeker)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.Stats.TotalApplications)
	assert.Equal(t, int64(1), d.Stats.ByStatus[models.StatusPending])

	require.True(t, f.svc.UpdateStatus(ctx, appID, models.StatusReviewing, employer.ID).Success)

	d, err = svc.JobSeeker(ctx, seeker)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.Stats.ByStatus[models.StatusReviewing])
	assert.Zero(t, d.Stats.ByStatus[models.StatusPending])
	require.Len(t, d.RecentApplications, 1)
}

func TestResumeService_UploadAndSign(t *testing.T) {
	f := newAppFixture(t, "")
	store := &fakeStore{}
	repo := &fakeResumeRepo{}
	svc := NewResumeService(repo, store, f.svc)
	ctx := context.Background()

	row, err := svc.Upload(ctx, seeker, "My CV (final).pdf", 4, "application/pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(row.FilePath, ResumePrefix(seeker.ID)))
	assert.True(t, strings.HasSuffix(row.FilePath, "-my-cv-final.pdf"))
	assert.Equal(t, []byte("%PDF"), store.uploaded[row.FilePath])

	latest, err := svc.Latest(ctx, seeker.ID)
	require.NoError(t, err)
	assert.Equal(t, row.ID, latest.ID)

	a, err := f.svc.Create(ctx, seeker, ApplicationInput{JobID: jobID, ResumePath: row.FilePath})
	require.NoError(t, err)

	u, err := svc.SignedURL(ctx, employer, a.ID)
	require.NoError(t, err)
	assert.Contains(t, u, row.FilePath)

	_, err = svc.SignedURL(ctx, employer2, a.ID)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
}

func TestResumeService_Rejects(t *testing.T) {
	svc := NewResumeService(&fakeResumeRepo{}, &fakeStore{}, nil)
	ctx := context.Background()

	_, err := svc.Upload(ctx, seeker, "cv.docx", 10, "application/msword", strings.NewReader("x"))
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = svc.Upload(ctx, seeker, "cv.pdf", MaxResumeSize+1, "application/pdf", strings.NewReader("x"))
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = svc.Upload(ctx, employer, "cv.pdf", 10, "application/pdf", strings.NewReader("x"))
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	_, err = svc.Latest(ctx, seeker.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}
