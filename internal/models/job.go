package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type JobType string

const (
	JobTypeFullTime JobType = "Full-Time"
	JobTypePartTime JobType = "Part-Time"
	JobTypeContract JobType = "Contract"
)

var JobTypes = []JobType{JobTypeFullTime, JobTypePartTime, JobTypeContract}

func (t JobType) Valid() bool {
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeContract:
		return true
	}
	return false
}

type Visibility string

const (
	VisibilityActive   Visibility = "active"
	VisibilityArchived Visibility = "archived"
)

type Job struct {
	ID          string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title       string         `gorm:"column:title;type:text;not null" json:"title"`
	Company     string         `gorm:"column:company;type:text;not null" json:"company"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	Location    string         `gorm:"column:location;type:text;index" json:"location"`
	Type        JobType        `gorm:"column:type;type:text" json:"type"`
	Salary      string         `gorm:"column:salary;type:text" json:"salary,omitempty"`
	Tags        pq.StringArray `gorm:"column:tags;type:text[]" json:"tags"`

	UserID string `gorm:"column:user_id;type:uuid;index;not null" json:"user_id"`

	CreatedAt time.Time      `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (Job) TableName() string { return "jobs" }

func (j *Job) Visibility() Visibility {
	if j.DeletedAt.Valid {
		return VisibilityArchived
	}
	return VisibilityActive
}

func (j *Job) OwnedBy(userID string) bool {
	return j != nil && userID != "" && j.UserID == userID
}
