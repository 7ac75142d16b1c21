package models

import "time"

type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusReviewing   ApplicationStatus = "reviewing"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusRejected    ApplicationStatus = "rejected"
	StatusAccepted    ApplicationStatus = "accepted"
)

// Statuses lists every status in pipeline order.
var Statuses = []ApplicationStatus{
	StatusPending,
	StatusReviewing,
	StatusShortlisted,
	StatusRejected,
	StatusAccepted,
}

var transitions = map[ApplicationStatus][]ApplicationStatus{
	StatusPending:     {StatusReviewing, StatusShortlisted, StatusRejected},
	StatusReviewing:   {StatusShortlisted, StatusRejected, StatusAccepted},
	StatusShortlisted: {StatusAccepted, StatusRejected},
}

func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReviewing, StatusShortlisted, StatusRejected, StatusAccepted:
		return true
	}
	return false
}

func (s ApplicationStatus) Terminal() bool {
	return s == StatusRejected || s == StatusAccepted
}

// NextStatuses returns the statuses reachable from s in one step.
func (s ApplicationStatus) NextStatuses() []ApplicationStatus {
	next := transitions[s]
	out := make([]ApplicationStatus, len(next))
	copy(out, next)
	return out
}

func (s ApplicationStatus) CanTransitionTo(to ApplicationStatus) bool {
	for _, n := range transitions[s] {
		if n == to {
			return true
		}
	}
	return false
}

type Application struct {
	ID          string            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	JobID       string            `gorm:"column:job_id;type:uuid;not null;uniqueIndex:uniq_job_applicant" json:"job_id"`
	ApplicantID string            `gorm:"column:applicant_id;type:uuid;not null;uniqueIndex:uniq_job_applicant;index" json:"applicant_id"`
	CoverLetter string            `gorm:"column:cover_letter;type:text" json:"cover_letter"`
	ResumePath  string            `gorm:"column:resume_path;type:text" json:"resume_path,omitempty"`
	Status      ApplicationStatus `gorm:"column:status;type:text;not null;default:pending;index" json:"status"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`

	Job       *Job     `gorm:"foreignKey:JobID;references:ID" json:"job,omitempty"`
	Applicant *Profile `gorm:"foreignKey:ApplicantID;references:UserID" json:"applicant,omitempty"`
}

func (Application) TableName() string { return "applications" }
