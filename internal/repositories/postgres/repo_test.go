package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/jobboard/internal/filters"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	ownerID = "11111111-1111-1111-1111-111111111111"
	jobID   = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	appID   = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	// same translation settings as config.InitPostgres
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return db, mock
}

func jobRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "location", "user_id"})
}

func TestJobRepo_ActiveQueriesExcludeSoftDeleted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`^SELECT \* FROM "jobs" WHERE location IN \(\$1\) AND "jobs"\."deleted_at" IS NULL ORDER BY created_at DESC`).
		WithArgs("San Francisco, CA", sqlmock.AnyArg()).
		WillReturnRows(jobRows().AddRow(jobID, "Go Developer", "San Francisco, CA", ownerID))
	mock.ExpectQuery(`^SELECT \* FROM "jobs" WHERE user_id = \$1 AND "jobs"\."deleted_at" IS NULL ORDER BY created_at DESC$`).
		WithArgs(ownerID).
		WillReturnRows(jobRows())
	mock.ExpectQuery(`^SELECT \* FROM "jobs" WHERE id = \$1 AND "jobs"\."deleted_at" IS NULL`).
		WithArgs(jobID, sqlmock.AnyArg()).
		WillReturnRows(jobRows())

	rows, err := repo.List(ctx, JobQuery{Filters: filters.JobFilters{Locations: []string{"San Francisco, CA"}}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "San Francisco, CA", rows[0].Location)

	_, err = repo.ListByUser(ctx, ownerID, 0)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, jobID)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepo_DeletedViewIsUnscoped(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepo(db)
	ctx := context.Background()

	// anchored: no default-scope predicate may be appended
	mock.ExpectQuery(`^SELECT \* FROM "jobs" WHERE user_id = \$1 AND deleted_at IS NOT NULL ORDER BY deleted_at DESC$`).
		WithArgs(ownerID).
		WillReturnRows(jobRows().AddRow(jobID, "Archived", "Remote", ownerID))
	mock.ExpectQuery(`^SELECT count\(\*\) FROM "jobs" WHERE user_id = \$1 AND "jobs"\."deleted_at" IS NULL$`).
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`^SELECT count\(\*\) FROM "jobs" WHERE user_id = \$1 AND deleted_at IS NOT NULL$`).
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	deleted, err := repo.ListDeletedByUser(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, jobID, deleted[0].ID)

	active, archived, err := repo.CountByUser(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), active)
	assert.Equal(t, int64(1), archived)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepo_SoftDeleteAndRestore(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepo(db)
	ctx := context.Background()

	softDelete := `^UPDATE "jobs" SET "deleted_at"=\$1 WHERE \(id = \$2 AND user_id = \$3\) AND "jobs"\."deleted_at" IS NULL$`
	mock.ExpectExec(softDelete).
		WithArgs(sqlmock.AnyArg(), jobID, ownerID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// already archived, or someone else's job
	mock.ExpectExec(softDelete).
		WithArgs(sqlmock.AnyArg(), jobID, ownerID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	restore := `^UPDATE "jobs" SET "deleted_at"=\$1,"updated_at"=\$2 WHERE id = \$3 AND user_id = \$4 AND deleted_at IS NOT NULL$`
	mock.ExpectExec(restore).
		WithArgs(nil, sqlmock.AnyArg(), jobID, ownerID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(restore).
		WithArgs(nil, sqlmock.AnyArg(), jobID, ownerID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// edits never reach archived rows
	mock.ExpectExec(`^UPDATE "jobs" SET .* WHERE \(id = \$\d+ AND user_id = \$\d+\) AND "jobs"\."deleted_at" IS NULL$`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SoftDelete(ctx, jobID, ownerID))
	assert.ErrorIs(t, repo.SoftDelete(ctx, jobID, ownerID), utils.ErrNotFound)

	require.NoError(t, repo.Restore(ctx, jobID, ownerID))
	assert.ErrorIs(t, repo.Restore(ctx, jobID, ownerID), utils.ErrNotFound)

	err := repo.Update(ctx, &models.Job{ID: jobID, UserID: ownerID, Title: "Renamed", UpdatedAt: time.Now()})
	assert.ErrorIs(t, err, utils.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepo_CreateMapsUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicationRepo(db)
	ctx := context.Background()
	a := &models.Application{ID: appID, JobID: jobID, ApplicantID: ownerID, Status: models.StatusPending}

	mock.ExpectExec(`^INSERT INTO "applications"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"uniq_job_applicant\""})
	mock.ExpectExec(`^INSERT INTO "applications"`).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectExec(`^INSERT INTO "applications"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(ctx, a)
	assert.ErrorIs(t, err, utils.ErrDuplicate)

	err = repo.Create(ctx, a)
	require.Error(t, err)
	assert.NotErrorIs(t, err, utils.ErrDuplicate)

	assert.NoError(t, repo.Create(ctx, a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepo_UpdateStatusIsCompareAndSet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicationRepo(db)
	ctx := context.Background()
	at := time.Now().UTC()

	cas := `^UPDATE "applications" SET "status"=\$1,"updated_at"=\$2 WHERE id = \$3 AND status = \$4$`
	mock.ExpectExec(cas).
		WithArgs("reviewing", at, appID, "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// another reviewer moved it first
	mock.ExpectExec(cas).
		WithArgs("reviewing", at, appID, "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(cas).
		WillReturnError(errors.New("connection reset by peer"))

	ok, err := repo.UpdateStatus(ctx, appID, models.StatusPending, models.StatusReviewing, at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateStatus(ctx, appID, models.StatusPending, models.StatusReviewing, at)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.UpdateStatus(ctx, appID, models.StatusPending, models.StatusReviewing, at)
	assert.Error(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% \_real\_ a\\b`, escapeLike(`100% _real_ a\b`))
}
