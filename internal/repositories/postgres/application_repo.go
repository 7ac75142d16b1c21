package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/jobboard/internal/filters"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/utils"
	"gorm.io/gorm"
)

type ApplicationRepository interface {
	Create(ctx context.Context, a *models.Application) error
	Exists(ctx context.Context, jobID, applicantID string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Application, error)
	ListByApplicant(ctx context.Context, applicantID string, limit int) ([]models.Application, error)
	ListByJob(ctx context.Context, jobID string, q filters.ApplicationQuery) ([]models.Application, error)
	// UpdateStatus moves id from -> to; it reports false when the row is
	// missing or no longer in status from.
	UpdateStatus(ctx context.Context, id string, from, to models.ApplicationStatus, at time.Time) (bool, error)
	CountByJobOwner(ctx context.Context, ownerID string, status models.ApplicationStatus) (int64, error)
	CountByJobs(ctx context.Context, jobIDs []string) (map[string]int64, error)
	StatusCountsByApplicant(ctx context.Context, applicantID string) (map[models.ApplicationStatus]int64, error)
}

type applicationRepo struct {
	db *gorm.DB
}

func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

// archived jobs still show up next to the applications made to them
func withArchivedJob(db *gorm.DB) *gorm.DB { return db.Unscoped() }

func (r *applicationRepo) Create(ctx context.Context, a *models.Application) error {
	err := r.db.WithContext(ctx).Omit("Job", "Applicant").Create(a).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.ErrDuplicate
	}
	return err
}

func (r *applicationRepo) Exists(ctx context.Context, jobID, applicantID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("job_id = ? AND applicant_id = ?", jobID, applicantID).
		Count(&count).Error
	return count > 0, err
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (*models.Application, error) {
	var a models.Application
	err := r.db.WithContext(ctx).
		Preload("Job", withArchivedJob).
		Where("id = ?", id).
		Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *applicationRepo) ListByApplicant(ctx context.Context, applicantID string, limit int) ([]models.Application, error) {
	tx := r.db.WithContext(ctx).
		Preload("Job", withArchivedJob).
		Where("applicant_id = ?", applicantID).
		Order("created_at DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []models.Application
	err := tx.Find(&rows).Error
	return rows, err
}

const statusOrder = "CASE status WHEN 'pending' THEN 0 WHEN 'reviewing' THEN 1 WHEN 'shortlisted' THEN 2 WHEN 'accepted' THEN 3 WHEN 'rejected' THEN 4 ELSE 5 END"

func (r *applicationRepo) ListByJob(ctx context.Context, jobID string, q filters.ApplicationQuery) ([]models.Application, error) {
	tx := r.db.WithContext(ctx).
		Preload("Applicant").
		Where("job_id = ?", jobID)
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}

	switch q.Sort {
	case filters.SortOldest:
		tx = tx.Order("created_at ASC")
	case filters.SortStatus:
		tx = tx.Order(statusOrder).Order("created_at DESC")
	default:
		tx = tx.Order("created_at DESC")
	}

	var rows []models.Application
	err := tx.Find(&rows).Error
	return rows, err
}

func (r *applicationRepo) UpdateStatus(ctx context.Context, id string, from, to models.ApplicationStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *applicationRepo) CountByJobOwner(ctx context.Context, ownerID string, status models.ApplicationStatus) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Joins("JOIN jobs ON jobs.id = applications.job_id").
		Where("jobs.user_id = ? AND jobs.deleted_at IS NULL", ownerID)
	if status != "" {
		tx = tx.Where("applications.status = ?", status)
	}

	var n int64
	err := tx.Count(&n).Error
	return n, err
}

func (r *applicationRepo) CountByJobs(ctx context.Context, jobIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(jobIDs))
	if len(jobIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		JobID string
		N     int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Select("job_id, count(*) AS n").
		Where("job_id IN ?", jobIDs).
		Group("job_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.JobID] = row.N
	}
	return out, nil
}

func (r *applicationRepo) StatusCountsByApplicant(ctx context.Context, applicantID string) (map[models.ApplicationStatus]int64, error) {
	var rows []struct {
		Status models.ApplicationStatus
		N      int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Select("status, count(*) AS n").
		Where("applicant_id = ?", applicantID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[models.ApplicationStatus]int64, len(models.Statuses))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
