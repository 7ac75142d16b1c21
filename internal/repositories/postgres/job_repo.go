package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yoockh/jobboard/internal/filters"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/utils"
	"gorm.io/gorm"
)

// JobQuery narrows a job listing. Zero values mean "no constraint".
type JobQuery struct {
	Filters filters.JobFilters
	Since   time.Time
	Limit   int
	Offset  int
}

type JobRepository interface {
	Create(ctx context.Context, j *models.Job) error
	Update(ctx context.Context, j *models.Job) error
	SoftDelete(ctx context.Context, id, ownerID string) error
	Restore(ctx context.Context, id, ownerID string) error
	GetByID(ctx context.Context, id string) (*models.Job, error)
	GetByIDUnscoped(ctx context.Context, id string) (*models.Job, error)
	List(ctx context.Context, q JobQuery) ([]models.Job, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Job, error)
	ListDeletedByUser(ctx context.Context, userID string) ([]models.Job, error)
	UniqueLocations(ctx context.Context) ([]string, error)
	AllIDs(ctx context.Context) ([]string, error)
	CountByUser(ctx context.Context, userID string) (active int64, archived int64, err error)
}

type jobRepo struct {
	db *gorm.DB
}

func NewJobRepo(db *gorm.DB) JobRepository {
	return &jobRepo{db: db}
}

func (r *jobRepo) Create(ctx context.Context, j *models.Job) error {
	return r.db.WithContext(ctx).Create(j).Error
}

func (r *jobRepo) Update(ctx context.Context, j *models.Job) error {
	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND user_id = ?", j.ID, j.UserID).
		Updates(map[string]any{
			"title":       j.Title,
			"company":     j.Company,
			"description": j.Description,
			"location":    j.Location,
			"type":        j.Type,
			"salary":      j.Salary,
			"tags":        j.Tags,
			"updated_at":  j.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *jobRepo) SoftDelete(ctx context.Context, id, ownerID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&models.Job{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *jobRepo) Restore(ctx context.Context, id, ownerID string) error {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Job{}).
		Where("id = ? AND user_id = ? AND deleted_at IS NOT NULL", id, ownerID).
		Updates(map[string]any{"deleted_at": nil, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *jobRepo) GetByID(ctx context.Context, id string) (*models.Job, error) {
	var j models.Job
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&j).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *jobRepo) GetByIDUnscoped(ctx context.Context, id string) (*models.Job, error) {
	var j models.Job
	err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).Take(&j).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *jobRepo) List(ctx context.Context, q JobQuery) ([]models.Job, error) {
	tx := r.db.WithContext(ctx).Model(&models.Job{})

	f := q.Filters
	if f.Query != "" {
		like := "%" + escapeLike(f.Query) + "%"
		tx = tx.Where("(title ILIKE ? OR company ILIKE ? OR description ILIKE ?)", like, like, like)
	}
	if len(f.Locations) > 0 {
		tx = tx.Where("location IN ?", f.Locations)
	}
	if len(f.Types) > 0 {
		tx = tx.Where("type IN ?", f.Types)
	}
	if f.Remote {
		tx = tx.Where("location ILIKE ?", "%remote%")
	}
	if !q.Since.IsZero() {
		tx = tx.Where("created_at >= ?", q.Since)
	}

	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var rows []models.Job
	err := tx.Order("created_at DESC").Limit(limit).Offset(q.Offset).Find(&rows).Error
	return rows, err
}

func (r *jobRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Job, error) {
	tx := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []models.Job
	err := tx.Find(&rows).Error
	return rows, err
}

func (r *jobRepo) ListDeletedByUser(ctx context.Context, userID string) ([]models.Job, error) {
	var rows []models.Job
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("user_id = ? AND deleted_at IS NOT NULL", userID).
		Order("deleted_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *jobRepo) UniqueLocations(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Distinct("location").
		Where("location <> ''").
		Order("location").
		Pluck("location", &out).Error
	return out, err
}

func (r *jobRepo) AllIDs(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Order("created_at DESC").
		Pluck("id", &out).Error
	return out, err
}

func (r *jobRepo) CountByUser(ctx context.Context, userID string) (int64, int64, error) {
	var active, archived int64
	if err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("user_id = ?", userID).
		Count(&active).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Job{}).
		Where("user_id = ? AND deleted_at IS NOT NULL", userID).
		Count(&archived).Error; err != nil {
		return 0, 0, err
	}
	return active, archived, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
